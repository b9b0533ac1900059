// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package kernel

import (
	"github.com/born-ml/kernels/internal/kernel"
)

// Type aliases for public API

// Size is an N-dimensional extent. Sizes are comparable values.
type Size = kernel.Size

// Index is an N-dimensional coordinate.
type Index = kernel.Index

// SizeSpec is either a Static size fixed at specialization or Dynamic.
type SizeSpec = kernel.SizeSpec

// IterationSpace is the partitioned geometry of a launch.
type IterationSpace = kernel.IterationSpace

// Partitioned is the result of partitioning an ndrange.
type Partitioned = kernel.Partitioned

// Device selects the backend that executes a kernel.
type Device = kernel.Device

// Device constants.
const (
	CPU Device = kernel.CPU
	GPU Device = kernel.GPU
)

// MaxRank is the highest supported iteration-space rank.
const MaxRank = kernel.MaxRank

// Func is a kernel body in Go.
type Func = kernel.Func

// Body is a kernel-body handle.
type Body = kernel.Body

// BodyOption configures a Body.
type BodyOption = kernel.BodyOption

// Descriptor is an immutable, comparable kernel specialization.
type Descriptor = kernel.Descriptor

// SpecializeOption fixes part of the geometry at specialization time.
type SpecializeOption = kernel.SpecializeOption

// Geometry carries optional runtime sizes of a launch.
type Geometry = kernel.Geometry

// Launch is a validated launch handed to a Backend.
type Launch = kernel.Launch

// Event represents in-flight work.
type Event = kernel.Event

// Context is the per-work-item view of a running launch.
type Context = kernel.Context

// ItemIndex holds every index view of one work-item.
type ItemIndex = kernel.ItemIndex

// Scope selects the lifetime of a scratch allocation.
type Scope = kernel.Scope

// Scratch scopes.
const (
	GroupScope Scope = kernel.GroupScope
	ItemScope  Scope = kernel.ItemScope
)

// Backend executes kernels for one device.
type Backend = kernel.Backend

// Error is the structured error returned by every operation.
type Error = kernel.Error

// ErrorKind classifies errors.
type ErrorKind = kernel.ErrorKind

// Error kinds.
const (
	KindConfiguration         ErrorKind = kernel.KindConfiguration
	KindGeometry              ErrorKind = kernel.KindGeometry
	KindSynchronizationMisuse ErrorKind = kernel.KindSynchronizationMisuse
	KindDevice                ErrorKind = kernel.KindDevice
	KindExecution             ErrorKind = kernel.KindExecution
)

// Sentinels for errors.Is.
var (
	ErrConfiguration         = kernel.ErrConfiguration
	ErrGeometry              = kernel.ErrGeometry
	ErrSynchronizationMisuse = kernel.ErrSynchronizationMisuse
	ErrDevice                = kernel.ErrDevice
	ErrExecution             = kernel.ErrExecution
)

// Dims creates a Size from extents.
func Dims(ext ...int) Size { return kernel.Dims(ext...) }

// Coords creates an Index from coordinates.
func Coords(c ...int) Index { return kernel.Coords(c...) }

// Static fixes a size at specialization time.
func Static(s Size) SizeSpec { return kernel.Static(s) }

// Dynamic defers a size to launch time.
func Dynamic() SizeSpec { return kernel.Dynamic() }

// NewIterationSpace builds the block geometry for ndrange and group.
func NewIterationSpace(ndrange, group Size) (IterationSpace, error) {
	return kernel.NewIterationSpace(ndrange, group)
}

// Partition resolves specs and runtime sizes into an iteration space.
func Partition(ndrange, workgroup SizeSpec, runtimeNDRange, runtimeWorkgroup Size) (Partitioned, error) {
	return kernel.Partition(ndrange, workgroup, runtimeNDRange, runtimeWorkgroup)
}

// New defines a kernel body.
func New(name string, fn Func, opts ...BodyOption) *Body {
	return kernel.New(name, fn, opts...)
}

// WithSource attaches source lowered for device, e.g. WGSL for GPU.
func WithSource(device Device, src string) BodyOption {
	return kernel.WithSource(device, src)
}

// StaticWorkgroup fixes the workgroup size.
func StaticWorkgroup(s Size) SpecializeOption { return kernel.StaticWorkgroup(s) }

// StaticNDRange fixes the ndrange.
func StaticNDRange(s Size) SpecializeOption { return kernel.StaticNDRange(s) }

// Specialize binds body to a device and optional static sizes.
//
// Example:
//
//	d, err := kernel.Specialize(body, kernel.CPU,
//	    kernel.StaticWorkgroup(kernel.Dims(16, 16)))
//	ev, err := d.Launch(kernel.Geometry{NDRange: kernel.Dims(h, w)}, img)
func Specialize(body *Body, device Device, opts ...SpecializeOption) (Descriptor, error) {
	return kernel.Specialize(body, device, opts...)
}

// Register installs b as the backend for its device and returns the one it
// replaced.
func Register(b Backend) Backend { return kernel.Register(b) }

// Unregister removes the backend for d.
func Unregister(d Device) { kernel.Unregister(d) }

// Lookup returns the backend registered for d.
func Lookup(d Device) (Backend, error) { return kernel.Lookup(d) }

// Synchronize blocks until all work submitted to d completes.
func Synchronize(d Device) error { return kernel.Synchronize(d) }

// DeviceOf infers the device an array lives on.
func DeviceOf(array any) (Device, error) { return kernel.DeviceOf(array) }

// LocalMem returns group-local memory shared by every item of the group.
// Contents start zeroed on the host backend.
func LocalMem[T any](c Context, id, n int) []T { return kernel.LocalMem[T](c, id, n) }

// PrivateMem returns item-private memory that persists across barriers.
func PrivateMem[T any](c Context, id, n int) []T { return kernel.PrivateMem[T](c, id, n) }

// IsConfigurationError reports whether err is a configuration error.
func IsConfigurationError(err error) bool { return kernel.IsConfigurationError(err) }

// IsGeometryError reports whether err is a geometry error.
func IsGeometryError(err error) bool { return kernel.IsGeometryError(err) }

// IsSynchronizationMisuse reports whether err is a synchronization misuse.
func IsSynchronizationMisuse(err error) bool { return kernel.IsSynchronizationMisuse(err) }

// IsDeviceError reports whether err is a device error.
func IsDeviceError(err error) bool { return kernel.IsDeviceError(err) }

// IsExecutionError reports whether err is an execution error.
func IsExecutionError(err error) bool { return kernel.IsExecutionError(err) }

// Backend implementation helpers.
//
// A backend outside this module receives a validated *Launch, runs the
// work-items of Launch.Space (skipping items outside the ndrange when
// Launch.Dynamic is set) and reports completion through an Event.

// NewEvent returns an event that has not completed yet.
func NewEvent() *Event { return kernel.NewEvent() }

// CompletedEvent returns an event that has already completed with err.
func CompletedEvent(err error) *Event { return kernel.CompletedEvent(err) }

// Resolve computes the index views of the item at localLinear in group
// groupLinear.
func Resolve(space IterationSpace, groupLinear, localLinear int) ItemIndex {
	return kernel.Resolve(space, groupLinear, localLinear)
}

// Misuse returns the error for a Context method called outside an active
// kernel-body execution.
func Misuse(op string) error { return kernel.Misuse(op) }

// NewConfigurationError reports an invalid launch configuration.
func NewConfigurationError(op, format string, args ...any) error {
	return kernel.NewConfigurationError(op, format, args...)
}

// NewGeometryError reports an invalid size or rank.
func NewGeometryError(op, format string, args ...any) error {
	return kernel.NewGeometryError(op, format, args...)
}

// NewDeviceError reports a device that is missing, closed or ambiguous.
func NewDeviceError(op, message string, err error) error {
	return kernel.NewDeviceError(op, message, err)
}

// NewExecutionError reports a failure while work-items ran.
func NewExecutionError(op, message string, err error) error {
	return kernel.NewExecutionError(op, message, err)
}
