package kernel

import "fmt"

// Descriptor is an immutable specialization of a kernel body for a device
// and a pair of workgroup/ndrange size specs. Descriptors are comparable
// values: two descriptors are == exactly when device, both size specs and
// body handle match, so they can key compiled-artifact caches directly.
type Descriptor struct {
	device    Device
	workgroup SizeSpec
	ndrange   SizeSpec
	body      *Body

	// Derived from the fields above when both specs are static.
	resolved bool
	part     Partitioned
}

// SpecializeOption fixes part of the geometry at specialization time.
type SpecializeOption func(*Descriptor)

// StaticWorkgroup fixes the workgroup size.
func StaticWorkgroup(s Size) SpecializeOption {
	return func(d *Descriptor) { d.workgroup = Static(s) }
}

// StaticNDRange fixes the ndrange.
func StaticNDRange(s Size) SpecializeOption {
	return func(d *Descriptor) { d.ndrange = Static(s) }
}

// Specialize binds body to a device and optional static sizes. Calling it
// repeatedly with the same arguments yields equal descriptors and has no
// side effects.
func Specialize(body *Body, device Device, opts ...SpecializeOption) (Descriptor, error) {
	d := Descriptor{device: device, body: body}
	for _, opt := range opts {
		opt(&d)
	}
	return d.finalize()
}

func (d Descriptor) finalize() (Descriptor, error) {
	if d.body == nil {
		return Descriptor{}, NewConfigurationError("Specialize", "nil kernel body")
	}
	wg, wgStatic := d.workgroup.Size()
	nd, ndStatic := d.ndrange.Size()
	if wgStatic {
		if err := wg.Validate(); err != nil {
			return Descriptor{}, fmt.Errorf("static workgroup size: %w", err)
		}
	}
	if ndStatic {
		if err := nd.Validate(); err != nil {
			return Descriptor{}, fmt.Errorf("static ndrange: %w", err)
		}
	}
	d.resolved = false
	d.part = Partitioned{}
	if wgStatic && ndStatic {
		part, err := Partition(d.ndrange, d.workgroup, Size{}, Size{})
		if err != nil {
			return Descriptor{}, err
		}
		d.resolved = true
		d.part = part
	}
	return d, nil
}

// Device returns the target device.
func (d Descriptor) Device() Device { return d.device }

// Workgroup returns the workgroup size spec.
func (d Descriptor) Workgroup() SizeSpec { return d.workgroup }

// NDRange returns the ndrange spec.
func (d Descriptor) NDRange() SizeSpec { return d.ndrange }

// Body returns the kernel-body handle.
func (d Descriptor) Body() *Body { return d.body }

// Equal reports structural equality.
func (d Descriptor) Equal(other Descriptor) bool { return d == other }

// WithWorkgroup returns a new descriptor with the workgroup spec replaced.
func (d Descriptor) WithWorkgroup(spec SizeSpec) (Descriptor, error) {
	d.workgroup = spec
	return d.finalize()
}

// WithNDRange returns a new descriptor with the ndrange spec replaced.
func (d Descriptor) WithNDRange(spec SizeSpec) (Descriptor, error) {
	d.ndrange = spec
	return d.finalize()
}

// String describes the descriptor.
func (d Descriptor) String() string {
	name := "<nil>"
	if d.body != nil {
		name = d.body.name
	}
	return fmt.Sprintf("%s[%s workgroup=%s ndrange=%s]", name, d.device, d.workgroup, d.ndrange)
}

// Partition resolves the launch geometry for the given runtime sizes. Fully
// static descriptors reuse the geometry computed at specialization.
func (d Descriptor) Partition(geom Geometry) (Partitioned, error) {
	if d.body == nil {
		return Partitioned{}, NewConfigurationError("Partition", "descriptor was not created by Specialize")
	}
	if d.resolved && geom.NDRange.IsZero() && geom.Workgroup.IsZero() {
		return d.part, nil
	}
	return Partition(d.ndrange, d.workgroup, geom.NDRange, geom.Workgroup)
}

// Launch partitions and validates the launch, then dispatches it to the
// backend registered for the descriptor's device. On error no work-item has
// run. The returned event completes when all work-items have finished.
func (d Descriptor) Launch(geom Geometry, args ...any) (*Event, error) {
	part, err := d.Partition(geom)
	if err != nil {
		return nil, err
	}
	b, err := Lookup(d.device)
	if err != nil {
		return nil, err
	}
	return b.Launch(&Launch{
		Descriptor: d,
		Space:      part.Space,
		Dynamic:    part.Dynamic,
		Args:       args,
	})
}
