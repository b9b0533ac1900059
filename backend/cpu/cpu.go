// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	internalcpu "github.com/born-ml/kernels/internal/backend/cpu"
	"github.com/born-ml/kernels/kernel"
)

// Backend represents the host backend implementation.
//
// The host backend runs Go kernel bodies on every core, emulating grouped
// execution with barriers and group-local memory.
type Backend = internalcpu.CPUBackend

// Config controls scheduling, queueing and logging of the host backend.
type Config = internalcpu.Config

// Stats counts work executed by a backend.
type Stats = internalcpu.Stats

// HostInfo describes the host processor.
type HostInfo = internalcpu.HostInfo

// Compile-time check that Backend implements kernel.Backend.
var _ kernel.Backend = (*Backend)(nil)

// New creates a host backend with DefaultConfig.
//
// Example:
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
//	}
func New() *Backend {
	return internalcpu.New()
}

// NewWithConfig creates a host backend with cfg.
func NewWithConfig(cfg Config) *Backend {
	return internalcpu.NewWithConfig(cfg)
}

// DefaultConfig returns defaults based on the CPU count.
func DefaultConfig() Config {
	return internalcpu.DefaultConfig()
}

// DetectHost reports the host architecture and SIMD features.
func DetectHost() HostInfo {
	return internalcpu.DetectHost()
}
