// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the host backend for portable kernels.
//
// # Overview
//
// This package implements a pure Go backend with:
//   - Multi-core execution of workgroups
//   - Barrier emulation with work-items as resumable coroutines
//   - Zero-initialized group-local memory
//   - Asynchronous, ordered launches with events
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
//	    d, _ := kernel.Specialize(body, kernel.CPU, kernel.StaticWorkgroup(kernel.Dims(64)))
//	    ev, _ := d.Launch(kernel.Geometry{NDRange: kernel.Dims(n)}, xs)
//	    _ = ev.Wait()
//	}
//
// # Semantics
//
// Ordinary local variables of a kernel body survive barriers on this
// backend, and BarrierIf synchronizes regardless of its predicate. Portable
// kernels should still keep cross-barrier state in PrivateMem.
//
// # Thread Safety
//
// The backend is safe for concurrent use. Launches from any goroutine are
// executed in submission order.
package cpu
