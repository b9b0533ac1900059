// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package webgpu provides the WebGPU accelerator backend for portable kernels.
//
// Kernel bodies launched on kernel.GPU carry a WGSL source attached with
// kernel.WithSource. The source uses two placeholders:
//   - {{workgroup_size}} expands to the "x, y, z" workgroup extents
//   - {{launch_params}} declares the `launch` uniform holding the true
//     ndrange and the bounds-check flag
//
// Storage arguments ([]float32, []int32, []uint32 or *Buffer) bind to
// @binding(0..n-1) in argument order; results are copied back into the
// slices when the launch completes. The last row-major dimension maps to x.
//
// Example:
//
//	import (
//	    "github.com/born-ml/kernels/backend/webgpu"
//	    "github.com/born-ml/kernels/kernel"
//	)
//
//	func main() {
//	    gpu, err := webgpu.New()
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer gpu.Close()
//	    kernel.Register(gpu)
//	}
package webgpu

import (
	internalwebgpu "github.com/born-ml/kernels/internal/backend/webgpu"
	"github.com/born-ml/kernels/kernel"
)

// Backend represents the WebGPU backend implementation.
type Backend = internalwebgpu.Backend

// Config configures device limits and logging.
type Config = internalwebgpu.Config

// Buffer marks a host slice as accelerator-resident for device inference.
type Buffer = internalwebgpu.Buffer

// Compile-time check that Backend implements kernel.Backend.
var _ kernel.Backend = (*Backend)(nil)

// New opens the default adapter.
//
// Returns a device error if WebGPU initialization fails (e.g., no compatible
// GPU or no native binding for this build).
func New() (*Backend, error) {
	return internalwebgpu.New()
}

// NewWithConfig opens the default adapter with cfg.
func NewWithConfig(cfg Config) (*Backend, error) {
	return internalwebgpu.NewWithConfig(cfg)
}

// DefaultConfig returns the WebGPU baseline limits.
func DefaultConfig() Config {
	return internalwebgpu.DefaultConfig()
}

// NewBuffer wraps a []float32, []int32 or []uint32 slice.
func NewBuffer(data any) (*Buffer, error) {
	return internalwebgpu.NewBuffer(data)
}

// IsAvailable checks if WebGPU is available on the current system.
//
// Example:
//
//	if webgpu.IsAvailable() {
//	    gpu, _ := webgpu.New()
//	    kernel.Register(gpu)
//	}
func IsAvailable() bool {
	return internalwebgpu.IsAvailable()
}
