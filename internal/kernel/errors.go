package kernel

import (
	"errors"
	"fmt"
)

// ErrorKind classifies launch and specialization failures.
type ErrorKind int

const (
	// KindConfiguration covers dimensionality mismatches, missing runtime
	// sizes for dynamic dimensions, and static/runtime size conflicts.
	KindConfiguration ErrorKind = iota
	// KindGeometry covers non-positive extents and unsupported ranks.
	KindGeometry
	// KindSynchronizationMisuse covers barrier and index queries made
	// outside an active kernel-body execution.
	KindSynchronizationMisuse
	// KindDevice covers unregistered, unavailable or ambiguous devices.
	KindDevice
	// KindExecution covers failures raised while work-items were running.
	KindExecution
)

// String returns the kind name.
func (k ErrorKind) String() string {
	switch k {
	case KindConfiguration:
		return "Configuration"
	case KindGeometry:
		return "Geometry"
	case KindSynchronizationMisuse:
		return "SynchronizationMisuse"
	case KindDevice:
		return "Device"
	case KindExecution:
		return "Execution"
	default:
		return "Unknown"
	}
}

// Error is the structured error returned by every operation in this package.
type Error struct {
	Kind    ErrorKind
	Op      string // Operation that failed
	Message string
	Err     error // Underlying cause, if any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("kernel %s error in %s: %s: %v", e.Kind, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("kernel %s error in %s: %s", e.Kind, e.Op, e.Message)
}

// Unwrap allows error chain inspection.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e's kind, so callers can
// write errors.Is(err, kernel.ErrConfiguration).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrConfiguration         = &Error{Kind: KindConfiguration}
	ErrGeometry              = &Error{Kind: KindGeometry}
	ErrSynchronizationMisuse = &Error{Kind: KindSynchronizationMisuse}
	ErrDevice                = &Error{Kind: KindDevice}
	ErrExecution             = &Error{Kind: KindExecution}
)

// NewConfigurationError creates a configuration error.
func NewConfigurationError(op, format string, args ...any) error {
	return &Error{Kind: KindConfiguration, Op: op, Message: fmt.Sprintf(format, args...)}
}

// NewGeometryError creates a geometry error.
func NewGeometryError(op, format string, args ...any) error {
	return &Error{Kind: KindGeometry, Op: op, Message: fmt.Sprintf(format, args...)}
}

// NewDeviceError creates a device error wrapping err.
func NewDeviceError(op, message string, err error) error {
	return &Error{Kind: KindDevice, Op: op, Message: message, Err: err}
}

// NewExecutionError creates an execution error wrapping err.
func NewExecutionError(op, message string, err error) error {
	return &Error{Kind: KindExecution, Op: op, Message: message, Err: err}
}

func misuse(op string) *Error {
	return &Error{
		Kind:    KindSynchronizationMisuse,
		Op:      op,
		Message: "called outside an active kernel-body execution",
	}
}

// IsConfigurationError reports whether err is a configuration error.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsGeometryError reports whether err is a geometry error.
func IsGeometryError(err error) bool {
	return errors.Is(err, ErrGeometry)
}

// IsSynchronizationMisuse reports whether err is a synchronization misuse error.
func IsSynchronizationMisuse(err error) bool {
	return errors.Is(err, ErrSynchronizationMisuse)
}

// IsDeviceError reports whether err is a device error.
func IsDeviceError(err error) bool {
	return errors.Is(err, ErrDevice)
}

// IsExecutionError reports whether err is an execution error.
func IsExecutionError(err error) bool {
	return errors.Is(err, ErrExecution)
}
