package kernel

// SizeSpec is either a size fixed at specialization time (Static) or a
// placeholder resolved at launch time (Dynamic). The zero value is Dynamic.
type SizeSpec struct {
	static bool
	size   Size
}

// Static returns a SizeSpec fixed to s.
func Static(s Size) SizeSpec {
	return SizeSpec{static: true, size: s}
}

// Dynamic returns a SizeSpec resolved at launch time.
func Dynamic() SizeSpec {
	return SizeSpec{}
}

// IsStatic reports whether the size is known at specialization time.
func (s SizeSpec) IsStatic() bool { return s.static }

// Size returns the static size and true, or the zero Size and false for a
// dynamic spec.
func (s SizeSpec) Size() (Size, bool) {
	return s.size, s.static
}

// String returns "static(a, b)" or "dynamic".
func (s SizeSpec) String() string {
	if !s.static {
		return "dynamic"
	}
	return "static" + s.size.String()
}

// resolve combines the specialization-time spec with an optional runtime
// value. what names the dimension for error messages.
func (s SizeSpec) resolve(what string, runtime Size) (Size, bool, error) {
	if s.static {
		if !runtime.IsZero() && runtime != s.size {
			return Size{}, false, NewConfigurationError("Partition",
				"runtime %s %v conflicts with static %s %v", what, runtime, what, s.size)
		}
		return s.size, true, nil
	}
	if runtime.IsZero() {
		return Size{}, false, nil
	}
	return runtime, false, nil
}
