// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package kernel provides a portable model for writing data-parallel kernels
// once and launching them on the host processor or on an accelerator.
//
// # Overview
//
// A kernel is a body that runs once per work-item over an N-dimensional
// index space (the ndrange). Work-items are partitioned into equally sized
// workgroups; items of a group may share group-local memory and synchronize
// with Barrier. This package provides:
//   - Sizes and size specs (Static or Dynamic) for ndrange and workgroup
//   - Partitioning with ceil-division and padded-item bounds checks
//   - Comparable Descriptors usable as compiled-artifact cache keys
//   - Per-item Context with global, group and local indices
//   - Group-local (LocalMem) and private (PrivateMem) scratch memory
//   - A device registry with synchronization and device inference
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/kernels/backend/cpu"
//	    "github.com/born-ml/kernels/kernel"
//	)
//
//	func main() {
//	    host := cpu.New()
//	    defer host.Close()
//	    kernel.Register(host)
//
//	    vadd := kernel.New("vadd", func(c kernel.Context, args ...any) {
//	        a, b, out := args[0].([]float32), args[1].([]float32), args[2].([]float32)
//	        i := c.GlobalLinear()
//	        out[i] = a[i] + b[i]
//	    })
//	    d, _ := kernel.Specialize(vadd, kernel.CPU, kernel.StaticWorkgroup(kernel.Dims(64)))
//	    ev, err := d.Launch(kernel.Geometry{NDRange: kernel.Dims(len(a))}, a, b, out)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    if err := ev.Wait(); err != nil {
//	        log.Fatal(err)
//	    }
//	}
//
// # Indexing
//
// All indices are 0-based. Linear indices flatten row-major: the last
// dimension varies fastest. GlobalLinear flattens over the true ndrange, so
// it addresses a dense array of ndrange elements directly.
//
// # Padding
//
// When the ndrange is not a multiple of the workgroup size, the last group
// in a dimension is padded. Padded items never run the body on the host
// backend; accelerator shaders receive the bounds-check flag and the true
// ndrange in their launch parameters.
//
// # Errors
//
// Every failure is a *Error with a Kind. Use errors.Is against the sentinel
// values (ErrConfiguration, ErrGeometry, ...) or the Is* helpers. A launch
// that fails validation runs no work-items.
package kernel
