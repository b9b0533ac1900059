//go:build !windows && !cgo

package webgpu

import "errors"

func openDevice(Config) (gpuDevice, error) {
	return nil, errors.New("no WebGPU binding for this build (enable cgo or build for windows)")
}
