package kernel

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingBackend counts launches without running anything.
type recordingBackend struct {
	device   Device
	launches []*Launch
	owns     func(any) bool
	syncs    int
}

func (b *recordingBackend) Name() string   { return "recording" }
func (b *recordingBackend) Device() Device { return b.device }

func (b *recordingBackend) Launch(l *Launch) (*Event, error) {
	b.launches = append(b.launches, l)
	return CompletedEvent(nil), nil
}

func (b *recordingBackend) Synchronize() error {
	b.syncs++
	return nil
}

func (b *recordingBackend) Owns(array any) bool {
	if b.owns == nil {
		return false
	}
	return b.owns(array)
}

func newRecordingBackend(t *testing.T, d Device) *recordingBackend {
	t.Helper()
	b := &recordingBackend{device: d}
	prev := Register(b)
	t.Cleanup(func() {
		if prev != nil {
			Register(prev)
		} else {
			Unregister(d)
		}
	})
	return b
}

func noop(Context, ...any) {}

func TestSpecialize_Idempotent(t *testing.T) {
	body := New("noop", noop)

	a, err := Specialize(body, CPU, StaticWorkgroup(Dims(8, 8)), StaticNDRange(Dims(64, 64)))
	require.NoError(t, err)
	b, err := Specialize(body, CPU, StaticWorkgroup(Dims(8, 8)), StaticNDRange(Dims(64, 64)))
	require.NoError(t, err)

	assert.True(t, a == b)
	assert.True(t, a.Equal(b))

	cache := map[Descriptor]string{a: "compiled"}
	assert.Equal(t, "compiled", cache[b])
}

func TestSpecialize_DistinctFields(t *testing.T) {
	body := New("noop", noop)
	other := New("noop", noop)

	base, err := Specialize(body, CPU, StaticWorkgroup(Dims(4)))
	require.NoError(t, err)

	variants := map[string]func() (Descriptor, error){
		"device":    func() (Descriptor, error) { return Specialize(body, GPU, StaticWorkgroup(Dims(4))) },
		"workgroup": func() (Descriptor, error) { return Specialize(body, CPU, StaticWorkgroup(Dims(8))) },
		"ndrange": func() (Descriptor, error) {
			return Specialize(body, CPU, StaticWorkgroup(Dims(4)), StaticNDRange(Dims(16)))
		},
		"dynamic workgroup": func() (Descriptor, error) { return Specialize(body, CPU) },
		"body":              func() (Descriptor, error) { return Specialize(other, CPU, StaticWorkgroup(Dims(4))) },
	}
	for name, mk := range variants {
		t.Run(name, func(t *testing.T) {
			d, err := mk()
			require.NoError(t, err)
			assert.False(t, d == base)
		})
	}
}

func TestSpecialize_Errors(t *testing.T) {
	_, err := Specialize(nil, CPU)
	assert.True(t, IsConfigurationError(err))

	_, err = Specialize(New("k", noop), CPU, StaticWorkgroup(Dims(0)))
	assert.True(t, IsGeometryError(err))

	_, err = Specialize(New("k", noop), CPU, StaticWorkgroup(Dims(4)), StaticNDRange(Dims(4, 4)))
	assert.True(t, IsConfigurationError(err))
}

func TestDescriptor_WithReturnsNewValue(t *testing.T) {
	d, err := Specialize(New("k", noop), CPU, StaticWorkgroup(Dims(4)))
	require.NoError(t, err)

	d2, err := d.WithWorkgroup(Static(Dims(8)))
	require.NoError(t, err)
	assert.Equal(t, Static(Dims(4)), d.Workgroup())
	assert.Equal(t, Static(Dims(8)), d2.Workgroup())

	d3, err := d2.WithNDRange(Static(Dims(32)))
	require.NoError(t, err)
	part, err := d3.Partition(Geometry{})
	require.NoError(t, err)
	assert.Equal(t, Dims(4), part.Space.Blocks())

	d4, err := d3.WithNDRange(Dynamic())
	require.NoError(t, err)
	assert.True(t, d4 == d2)
}

func TestDescriptor_LaunchValidatesBeforeDispatch(t *testing.T) {
	backend := newRecordingBackend(t, CPU)

	d, err := Specialize(New("k", noop), CPU, StaticWorkgroup(Dims(4)))
	require.NoError(t, err)

	_, err = d.Launch(Geometry{NDRange: Dims(16), Workgroup: Dims(2)})
	assert.True(t, IsConfigurationError(err))
	_, err = d.Launch(Geometry{})
	assert.True(t, IsConfigurationError(err))
	_, err = d.Launch(Geometry{NDRange: Dims(-3)})
	assert.True(t, IsGeometryError(err))
	assert.Empty(t, backend.launches)

	ev, err := d.Launch(Geometry{NDRange: Dims(10)}, "arg")
	require.NoError(t, err)
	require.NoError(t, ev.Wait())
	require.Len(t, backend.launches, 1)

	l := backend.launches[0]
	assert.Equal(t, d, l.Descriptor)
	assert.Equal(t, Dims(3), l.Space.Blocks())
	assert.True(t, l.Dynamic)
	assert.Equal(t, []any{"arg"}, l.Args)
}

func TestDescriptor_LaunchUnregisteredDevice(t *testing.T) {
	Unregister(GPU)
	d, err := Specialize(New("k", noop), GPU, StaticWorkgroup(Dims(1)), StaticNDRange(Dims(1)))
	require.NoError(t, err)

	_, err = d.Launch(Geometry{})
	assert.True(t, errors.Is(err, ErrDevice))
}

func TestDescriptor_ZeroValue(t *testing.T) {
	var d Descriptor
	_, err := d.Launch(Geometry{NDRange: Dims(1), Workgroup: Dims(1)})
	assert.True(t, IsConfigurationError(err))
}

func TestBody(t *testing.T) {
	b := New("k", noop, WithSource(GPU, "wgsl"))
	assert.Equal(t, "k", b.Name())
	assert.NotNil(t, b.Func())

	src, ok := b.Source(GPU)
	assert.True(t, ok)
	assert.Equal(t, "wgsl", src)
	_, ok = b.Source(CPU)
	assert.False(t, ok)
}
