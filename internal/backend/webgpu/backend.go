// Package webgpu implements the accelerator backend. Kernel bodies supply a
// WGSL source (kernel.WithSource(kernel.GPU, src)); the backend injects the
// workgroup size and launch parameters, uploads argument slices to storage
// buffers, dispatches the block geometry and reads the results back.
//
// Native bindings are platform specific: go-webgpu (zero-CGO) on Windows and
// openfluke/webgpu on cgo-enabled platforms. Elsewhere New reports the device
// as unavailable.
package webgpu

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/born-ml/kernels/internal/kernel"
)

// Config configures the accelerator backend.
type Config struct {
	// MaxWorkgroupInvocations bounds the items per group. WebGPU guarantees 256.
	MaxWorkgroupInvocations int
	// MaxWorkgroupsPerDimension bounds the blocks along each dispatch axis.
	// WebGPU guarantees 65535.
	MaxWorkgroupsPerDimension int
	// ReadbackTimeout bounds how long a buffer map may take.
	ReadbackTimeout time.Duration
	// Logger receives debug launch traces. Nil discards them.
	Logger *slog.Logger
}

// DefaultConfig returns the WebGPU baseline limits.
func DefaultConfig() Config {
	return Config{
		MaxWorkgroupInvocations:   256,
		MaxWorkgroupsPerDimension: 65535,
		ReadbackTimeout:           2 * time.Second,
	}
}

// Stats reports backend activity.
type Stats struct {
	Launches  int64
	Pipelines int
	Pool      PoolStats
}

// gpuDevice is the native binding behind the backend.
type gpuDevice interface {
	adapterName() string
	compile(label string, src shaderSource) (gpuPipeline, error)
	// dispatch runs the pipeline and overwrites each arg's bytes with the
	// buffer contents after execution. params is nil when the shader does
	// not declare launch parameters.
	dispatch(p gpuPipeline, args []stagedArg, params []byte, groups [3]uint32) error
	poolStats() PoolStats
	release()
}

type gpuPipeline interface {
	release()
}

type pipelineKey struct {
	desc  kernel.Descriptor
	group kernel.Size
	nargs int
}

type compiledPipeline struct {
	handle     gpuPipeline
	usesParams bool
}

// Backend executes kernels on a WebGPU device. Launches are serialized on
// the device queue and complete before Launch returns.
type Backend struct {
	cfg    Config
	logger *slog.Logger
	dev    gpuDevice

	mu        sync.Mutex
	pipelines map[pipelineKey]compiledPipeline
	launches  int64
	closed    bool
}

// New opens the default adapter with DefaultConfig.
func New() (*Backend, error) {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig opens the default adapter.
func NewWithConfig(cfg Config) (*Backend, error) {
	dev, err := openDevice(cfg)
	if err != nil {
		return nil, kernel.NewDeviceError("webgpu.New", "accelerator unavailable", err)
	}
	return newBackend(cfg, dev), nil
}

func newBackend(cfg Config, dev gpuDevice) *Backend {
	if cfg.MaxWorkgroupInvocations <= 0 {
		cfg.MaxWorkgroupInvocations = DefaultConfig().MaxWorkgroupInvocations
	}
	if cfg.MaxWorkgroupsPerDimension <= 0 {
		cfg.MaxWorkgroupsPerDimension = DefaultConfig().MaxWorkgroupsPerDimension
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Backend{
		cfg:       cfg,
		logger:    logger.With("backend", "webgpu"),
		dev:       dev,
		pipelines: make(map[pipelineKey]compiledPipeline),
	}
}

// IsAvailable reports whether an adapter can be opened on this system.
func IsAvailable() bool {
	dev, err := openDevice(DefaultConfig())
	if err != nil {
		return false
	}
	dev.release()
	return true
}

// Name returns the backend name.
func (b *Backend) Name() string {
	return fmt.Sprintf("WebGPU (%s)", b.dev.adapterName())
}

// Device returns kernel.GPU.
func (b *Backend) Device() kernel.Device {
	return kernel.GPU
}

// Owns reports whether array is a *Buffer.
func (b *Backend) Owns(array any) bool {
	_, ok := array.(*Buffer)
	return ok
}

// Launch validates the launch against the device limits, compiles (or
// reuses) the pipeline and dispatches it.
func (b *Backend) Launch(l *kernel.Launch) (*kernel.Event, error) {
	const op = "webgpu.Launch"

	space := l.Space
	if space.Rank() > MaxRank {
		return nil, kernel.NewGeometryError(op, "rank %d exceeds the accelerator limit of %d", space.Rank(), MaxRank)
	}
	if n := space.GroupItems(); n > b.cfg.MaxWorkgroupInvocations {
		return nil, kernel.NewConfigurationError(op,
			"workgroup size %v has %d items, device limit is %d", space.GroupSize(), n, b.cfg.MaxWorkgroupInvocations)
	}
	blocks := space.Blocks()
	for d := 0; d < blocks.Rank(); d++ {
		if blocks.At(d) > b.cfg.MaxWorkgroupsPerDimension {
			return nil, kernel.NewConfigurationError(op,
				"dimension %d needs %d workgroups (blocks %v), device limit is %d per dimension",
				d, blocks.At(d), blocks, b.cfg.MaxWorkgroupsPerDimension)
		}
	}
	body := l.Descriptor.Body()
	src, ok := body.Source(kernel.GPU)
	if !ok {
		return nil, kernel.NewDeviceError(op, fmt.Sprintf("kernel %q has no WGSL source", body.Name()), nil)
	}
	args, err := stageArgs(l.Args)
	if err != nil {
		return nil, err
	}
	params, err := encodeParams(space, l.Dynamic)
	if err != nil {
		return nil, err
	}
	groups, err := toXYZ(blocks)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, kernel.NewDeviceError(op, "backend is closed", nil)
	}

	key := pipelineKey{desc: l.Descriptor, group: space.GroupSize(), nargs: len(args)}
	pipe, err := b.pipeline(key, src)
	if err != nil {
		return nil, err
	}
	if !pipe.usesParams {
		params = nil
	}

	b.logger.Debug("launch",
		"kernel", body.Name(),
		"ndrange", space.NDRange(),
		"workgroup", space.GroupSize(),
		"dispatch", groups,
		"bounds_check", l.Dynamic)

	if err := b.dev.dispatch(pipe.handle, args, params, groups); err != nil {
		return nil, kernel.NewExecutionError(op, fmt.Sprintf("kernel %q dispatch failed", body.Name()), err)
	}
	for _, a := range args {
		a.writeBack()
	}
	b.launches++
	return kernel.CompletedEvent(nil), nil
}

// pipeline returns the cached pipeline for key, compiling it on first use.
// Caller must hold b.mu.
func (b *Backend) pipeline(key pipelineKey, src string) (compiledPipeline, error) {
	if p, ok := b.pipelines[key]; ok {
		return p, nil
	}
	shader, err := expandShader(src, key.group, key.nargs)
	if err != nil {
		return compiledPipeline{}, err
	}
	label := fmt.Sprintf("%s/%v", key.desc.Body().Name(), key.group)
	handle, err := b.dev.compile(label, shader)
	if err != nil {
		return compiledPipeline{}, kernel.NewDeviceError("webgpu.compile", fmt.Sprintf("compiling %s", label), err)
	}
	p := compiledPipeline{handle: handle, usesParams: shader.usesParams}
	b.pipelines[key] = p
	b.logger.Debug("compiled pipeline", "label", label)
	return p, nil
}

// Synchronize waits for in-flight launches. Launches complete before
// returning, so this only orders against concurrent callers.
func (b *Backend) Synchronize() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return kernel.NewDeviceError("webgpu.Synchronize", "backend is closed", nil)
	}
	return nil
}

// Stats returns launch and pool counters.
func (b *Backend) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Stats{
		Launches:  b.launches,
		Pipelines: len(b.pipelines),
		Pool:      b.dev.poolStats(),
	}
}

// Close releases cached pipelines and the device. It is safe to call twice.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for _, p := range b.pipelines {
		p.handle.release()
	}
	b.pipelines = nil
	b.dev.release()
	return nil
}
