package kernel

// Func is a kernel body. It runs once per work-item with that item's
// Context and the launch arguments.
type Func func(c Context, args ...any)

// Body is a kernel-body handle. It is created once per kernel definition and
// shared by every descriptor specialized from it; descriptors compare bodies
// by handle identity.
type Body struct {
	name    string
	fn      Func
	sources map[Device]string
}

// BodyOption configures a Body.
type BodyOption func(*Body)

// WithSource attaches source already lowered for device, e.g. WGSL for GPU.
// Backends that cannot run Go code execute this source instead of Func.
func WithSource(device Device, src string) BodyOption {
	return func(b *Body) {
		b.sources[device] = src
	}
}

// New defines a kernel body.
//
// Example:
//
//	add := kernel.New("vadd", func(c kernel.Context, args ...any) {
//	    a, b := args[0].([]float32), args[1].([]float32)
//	    i := c.GlobalLinear()
//	    a[i] += b[i]
//	})
func New(name string, fn Func, opts ...BodyOption) *Body {
	b := &Body{name: name, fn: fn, sources: make(map[Device]string)}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name returns the kernel name.
func (b *Body) Name() string { return b.name }

// Func returns the Go kernel body, which may be nil for source-only kernels.
func (b *Body) Func() Func { return b.fn }

// Source returns the lowered source for device, if one was attached.
func (b *Body) Source(device Device) (string, bool) {
	src, ok := b.sources[device]
	return src, ok
}
