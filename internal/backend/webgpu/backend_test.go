package webgpu

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/kernels/internal/kernel"
)

// fakeDevice stands in for the native binding. It "runs" every dispatch by
// doubling the float32 contents of each storage binding.
type fakeDevice struct {
	compiled   []shaderSource
	dispatches [][3]uint32
	params     [][]byte
	err        error
	released   bool
	pipelines  int
}

type fakePipeline struct{ dev *fakeDevice }

func (p fakePipeline) release() { p.dev.pipelines-- }

func (d *fakeDevice) adapterName() string  { return "fake" }
func (d *fakeDevice) poolStats() PoolStats { return PoolStats{} }
func (d *fakeDevice) release()             { d.released = true }

func (d *fakeDevice) compile(_ string, src shaderSource) (gpuPipeline, error) {
	d.compiled = append(d.compiled, src)
	d.pipelines++
	return fakePipeline{dev: d}, nil
}

func (d *fakeDevice) dispatch(_ gpuPipeline, args []stagedArg, params []byte, groups [3]uint32) error {
	if d.err != nil {
		return d.err
	}
	d.dispatches = append(d.dispatches, groups)
	d.params = append(d.params, params)
	for _, a := range args {
		for j := 0; j < len(a.bytes); j += 4 {
			v := math.Float32frombits(binary.LittleEndian.Uint32(a.bytes[j:]))
			binary.LittleEndian.PutUint32(a.bytes[j:], math.Float32bits(2*v))
		}
	}
	return nil
}

func newFakeBackend(t *testing.T) (*Backend, *fakeDevice) {
	t.Helper()
	dev := &fakeDevice{}
	b := newBackend(DefaultConfig(), dev)
	t.Cleanup(func() { _ = b.Close() })
	return b, dev
}

func gpuLaunch(t *testing.T, body *kernel.Body, nd, wg kernel.Size, args ...any) *kernel.Launch {
	t.Helper()
	d, err := kernel.Specialize(body, kernel.GPU)
	require.NoError(t, err)
	part, err := d.Partition(kernel.Geometry{NDRange: nd, Workgroup: wg})
	require.NoError(t, err)
	return &kernel.Launch{Descriptor: d, Space: part.Space, Dynamic: part.Dynamic, Args: args}
}

func TestBackend_Launch(t *testing.T) {
	b, dev := newFakeBackend(t)
	body := kernel.New("scale", nil, kernel.WithSource(kernel.GPU, scaleShader))

	data := []float32{1, 2, 3, 4, 5}
	ev, err := b.Launch(gpuLaunch(t, body, kernel.Dims(5), kernel.Dims(2), data))
	require.NoError(t, err)
	require.NoError(t, ev.Wait())

	assert.Equal(t, []float32{2, 4, 6, 8, 10}, data)
	require.Len(t, dev.dispatches, 1)
	assert.Equal(t, [3]uint32{3, 1, 1}, dev.dispatches[0])
	require.Len(t, dev.params[0], paramsSize)
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(dev.params[0][16:]), "padded launch needs bounds check")
}

func TestBackend_PipelineCache(t *testing.T) {
	b, dev := newFakeBackend(t)
	body := kernel.New("scale", nil, kernel.WithSource(kernel.GPU, scaleShader))

	for i := 0; i < 3; i++ {
		_, err := b.Launch(gpuLaunch(t, body, kernel.Dims(8), kernel.Dims(4), make([]float32, 8)))
		require.NoError(t, err)
	}
	assert.Len(t, dev.compiled, 1)

	_, err := b.Launch(gpuLaunch(t, body, kernel.Dims(8), kernel.Dims(8), make([]float32, 8)))
	require.NoError(t, err)
	assert.Len(t, dev.compiled, 2)

	stats := b.Stats()
	assert.Equal(t, int64(4), stats.Launches)
	assert.Equal(t, 2, stats.Pipelines)
}

func TestBackend_MultiDimDispatch(t *testing.T) {
	b, dev := newFakeBackend(t)
	body := kernel.New("scale", nil, kernel.WithSource(kernel.GPU, scaleShader))

	_, err := b.Launch(gpuLaunch(t, body, kernel.Dims(4, 33), kernel.Dims(2, 16), make([]float32, 4*33)))
	require.NoError(t, err)
	assert.Equal(t, [3]uint32{3, 2, 1}, dev.dispatches[0])
}

func TestBackend_ParamsOmittedWhenUndeclared(t *testing.T) {
	b, dev := newFakeBackend(t)
	src := `@group(0) @binding(0) var<storage, read_write> data: array<f32>;
@compute @workgroup_size({{workgroup_size}})
fn main(@builtin(global_invocation_id) gid: vec3<u32>) { data[gid.x] = 0.0; }`
	body := kernel.New("zero", nil, kernel.WithSource(kernel.GPU, src))

	_, err := b.Launch(gpuLaunch(t, body, kernel.Dims(4), kernel.Dims(4), make([]float32, 4)))
	require.NoError(t, err)
	assert.Nil(t, dev.params[0])
}

func TestBackend_LaunchErrors(t *testing.T) {
	b, dev := newFakeBackend(t)
	body := kernel.New("scale", nil, kernel.WithSource(kernel.GPU, scaleShader))

	_, err := b.Launch(gpuLaunch(t, body, kernel.Dims(2, 2, 2, 2), kernel.Dims(1, 1, 1, 1), make([]float32, 16)))
	assert.True(t, kernel.IsGeometryError(err))

	_, err = b.Launch(gpuLaunch(t, body, kernel.Dims(1024), kernel.Dims(512), make([]float32, 1024)))
	assert.True(t, kernel.IsConfigurationError(err))

	hostOnly := kernel.New("host", func(kernel.Context, ...any) {})
	_, err = b.Launch(gpuLaunch(t, hostOnly, kernel.Dims(4), kernel.Dims(4)))
	assert.ErrorIs(t, err, kernel.ErrDevice)

	_, err = b.Launch(gpuLaunch(t, body, kernel.Dims(4), kernel.Dims(4), []float64{1}))
	assert.True(t, kernel.IsConfigurationError(err))

	assert.Empty(t, dev.dispatches)

	dev.err = errors.New("device lost")
	_, err = b.Launch(gpuLaunch(t, body, kernel.Dims(4), kernel.Dims(4), make([]float32, 4)))
	assert.ErrorIs(t, err, kernel.ErrExecution)
	assert.ErrorIs(t, err, dev.err)
}

func TestBackend_WorkgroupsPerDimensionLimit(t *testing.T) {
	b, dev := newFakeBackend(t)
	body := kernel.New("scale", nil, kernel.WithSource(kernel.GPU, scaleShader))

	// 2^24 / 64 = 262144 blocks along x.
	_, err := b.Launch(gpuLaunch(t, body, kernel.Dims(1<<24), kernel.Dims(64)))
	assert.True(t, kernel.IsConfigurationError(err))
	assert.Contains(t, err.Error(), "65535")

	_, err = b.Launch(gpuLaunch(t, body, kernel.Dims(70000, 4), kernel.Dims(1, 4)))
	assert.True(t, kernel.IsConfigurationError(err))
	assert.Empty(t, dev.dispatches)

	// Exactly at the limit dispatches.
	_, err = b.Launch(gpuLaunch(t, body, kernel.Dims(65535), kernel.Dims(1), make([]float32, 65535)))
	require.NoError(t, err)
	assert.Equal(t, [3]uint32{65535, 1, 1}, dev.dispatches[0])
}

func TestBackend_CustomWorkgroupsLimit(t *testing.T) {
	dev := &fakeDevice{}
	cfg := DefaultConfig()
	cfg.MaxWorkgroupsPerDimension = 4
	b := newBackend(cfg, dev)
	t.Cleanup(func() { _ = b.Close() })
	body := kernel.New("scale", nil, kernel.WithSource(kernel.GPU, scaleShader))

	_, err := b.Launch(gpuLaunch(t, body, kernel.Dims(20), kernel.Dims(4), make([]float32, 20)))
	assert.True(t, kernel.IsConfigurationError(err))

	_, err = b.Launch(gpuLaunch(t, body, kernel.Dims(16), kernel.Dims(4), make([]float32, 16)))
	require.NoError(t, err)
}

func TestBackend_Close(t *testing.T) {
	b, dev := newFakeBackend(t)
	body := kernel.New("scale", nil, kernel.WithSource(kernel.GPU, scaleShader))
	_, err := b.Launch(gpuLaunch(t, body, kernel.Dims(4), kernel.Dims(4), make([]float32, 4)))
	require.NoError(t, err)

	require.NoError(t, b.Close())
	assert.True(t, dev.released)
	assert.Equal(t, 0, dev.pipelines)

	_, err = b.Launch(gpuLaunch(t, body, kernel.Dims(4), kernel.Dims(4), make([]float32, 4)))
	assert.ErrorIs(t, err, kernel.ErrDevice)
	assert.ErrorIs(t, b.Synchronize(), kernel.ErrDevice)
}

func TestBackend_Registry(t *testing.T) {
	b, _ := newFakeBackend(t)
	prev := kernel.Register(b)
	t.Cleanup(func() {
		if prev != nil {
			kernel.Register(prev)
		} else {
			kernel.Unregister(kernel.GPU)
		}
	})

	assert.Equal(t, "WebGPU (fake)", b.Name())
	assert.Equal(t, kernel.GPU, b.Device())

	data := []float32{1, 2, 3}
	buf, err := NewBuffer(data)
	require.NoError(t, err)
	assert.True(t, b.Owns(buf))
	assert.False(t, b.Owns(data))

	device, err := kernel.DeviceOf(buf)
	require.NoError(t, err)
	assert.Equal(t, kernel.GPU, device)

	d, err := kernel.Specialize(kernel.New("scale", nil, kernel.WithSource(kernel.GPU, scaleShader)),
		kernel.GPU, kernel.StaticWorkgroup(kernel.Dims(4)))
	require.NoError(t, err)
	ev, err := d.Launch(kernel.Geometry{NDRange: kernel.Dims(3)}, buf)
	require.NoError(t, err)
	require.NoError(t, ev.Wait())
	require.NoError(t, kernel.Synchronize(kernel.GPU))
	assert.Equal(t, []float32{2, 4, 6}, data)
}

func TestNew_ReportsUnavailableAsDeviceError(t *testing.T) {
	b, err := New()
	if err == nil {
		_ = b.Close()
		t.Skip("WebGPU adapter available")
	}
	assert.ErrorIs(t, err, kernel.ErrDevice)
}
