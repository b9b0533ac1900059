// Package cpu implements the host backend: it runs kernel bodies on the
// multi-core host processor and emulates GPU grouped execution.
//
// Execution strategy: the work-items of a group run as resumable control
// flows (coroutines) that suspend at every barrier and are resumed in
// lockstep, one phase at a time, on a single goroutine. Groups are spread
// over a pool of worker goroutines with no ordering between them. Because
// each item keeps its own stack, ordinary local variables survive barriers;
// PrivateMem allocations persist as well.
//
// Group-local memory returned by LocalMem is zero-initialized.
package cpu

import (
	"fmt"
	"log/slog"
	"reflect"
	"sync/atomic"

	"github.com/born-ml/kernels/internal/kernel"
	"github.com/born-ml/kernels/internal/parallel"
)

// Config controls the host backend.
type Config struct {
	Parallel   parallel.Config // Group scheduling across worker goroutines.
	QueueDepth int             // Launches that may be queued before Launch blocks.
	Logger     *slog.Logger    // Launch diagnostics at Debug level; nil discards.
}

// DefaultConfig returns sensible defaults based on CPU count.
func DefaultConfig() Config {
	return Config{
		Parallel:   parallel.DefaultConfig(),
		QueueDepth: 64,
	}
}

// Stats counts work executed by a backend since it was created.
type Stats struct {
	Launches int64 // Launches completed.
	Groups   int64 // Groups executed.
	Items    int64 // Work-items that ran the kernel body.
	Skipped  int64 // Padded work-items suppressed by the bounds check.
}

// CPUBackend executes kernels on the host.
type CPUBackend struct {
	cfg    Config
	logger *slog.Logger
	stream *stream
	info   HostInfo

	launches atomic.Int64
	groups   atomic.Int64
	items    atomic.Int64
	skipped  atomic.Int64
}

// Compile-time check that CPUBackend implements kernel.Backend.
var _ kernel.Backend = (*CPUBackend)(nil)

// New creates a host backend with the default configuration.
func New() *CPUBackend {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates a host backend. Call Close when done.
func NewWithConfig(cfg Config) *CPUBackend {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.QueueDepth <= 0 {
		cfg.QueueDepth = 1
	}
	b := &CPUBackend{
		cfg:    cfg,
		logger: logger.With("backend", "CPU"),
		stream: newStream(cfg.QueueDepth),
		info:   DetectHost(),
	}
	b.logger.Debug("host backend ready", "cpus", b.info.NumCPU, "features", b.info.Features)
	return b
}

// Name returns the backend name.
func (b *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (b *CPUBackend) Device() kernel.Device {
	return kernel.CPU
}

// Info describes the host processor.
func (b *CPUBackend) Info() HostInfo {
	return b.info
}

// Stats returns a snapshot of the execution counters.
func (b *CPUBackend) Stats() Stats {
	return Stats{
		Launches: b.launches.Load(),
		Groups:   b.groups.Load(),
		Items:    b.items.Load(),
		Skipped:  b.skipped.Load(),
	}
}

// Owns reports whether array is host memory. Go slices whose element kind is
// numeric or bool live on the host, including named element types such as a
// uint16-backed float16.
func (b *CPUBackend) Owns(array any) bool {
	t := reflect.TypeOf(array)
	if t == nil || t.Kind() != reflect.Slice {
		return false
	}
	switch t.Elem().Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	default:
		return false
	}
}

// Launch queues l on the backend's stream and returns immediately. Launches
// run in submission order.
func (b *CPUBackend) Launch(l *kernel.Launch) (*kernel.Event, error) {
	fn := l.Descriptor.Body().Func()
	if fn == nil {
		return nil, kernel.NewDeviceError("Launch",
			fmt.Sprintf("kernel %q has no Go body to run on CPU", l.Descriptor.Body().Name()), nil)
	}

	b.logger.Debug("launch",
		"kernel", l.Descriptor.Body().Name(),
		"ndrange", l.Space.NDRange().String(),
		"group", l.Space.GroupSize().String(),
		"blocks", l.Space.Blocks().String(),
		"dynamic", l.Dynamic)

	ev := kernel.NewEvent()
	if err := b.stream.submit(func() {
		ev.Finish(b.execute(l, fn))
	}); err != nil {
		return nil, err
	}
	return ev, nil
}

// Synchronize blocks until every launch submitted so far has completed.
func (b *CPUBackend) Synchronize() error {
	b.stream.synchronize()
	return nil
}

// Close waits for queued launches and stops the stream worker. Launches
// after Close fail with a device error.
func (b *CPUBackend) Close() error {
	b.stream.close()
	return nil
}

// execute runs every group of l and returns the first failure.
func (b *CPUBackend) execute(l *kernel.Launch, fn kernel.Func) error {
	numGroups := l.Space.NumGroups()
	counters := make([]workerCounters, b.cfg.Parallel.Workers(numGroups))

	err := parallel.For(numGroups, func(worker, g int) error {
		return runGroup(l, fn, g, &counters[worker])
	}, b.cfg.Parallel)

	var groups, items, skipped int64
	for i := range counters {
		groups += counters[i].groups
		items += counters[i].items
		skipped += counters[i].skipped
	}
	b.groups.Add(groups)
	b.items.Add(items)
	b.skipped.Add(skipped)
	b.launches.Add(1)

	if err != nil {
		b.logger.Debug("launch failed", "kernel", l.Descriptor.Body().Name(), "err", err)
	}
	return err
}
