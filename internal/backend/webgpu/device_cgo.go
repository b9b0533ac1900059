//go:build cgo && !windows

package webgpu

import (
	"errors"
	"fmt"
	"time"

	"github.com/openfluke/webgpu/wgpu"
)

var (
	storageUsage = uint64(wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst)
	stagingUsage = uint64(wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst)
)

type nativeDevice struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	name     string
	timeout  time.Duration
	pool     *bufferPool[*wgpu.Buffer]
}

type nativePipeline struct {
	module   *wgpu.ShaderModule
	pipeline *wgpu.ComputePipeline
}

func (p *nativePipeline) release() {
	p.pipeline.Release()
	p.module.Release()
}

func openDevice(cfg Config) (dev gpuDevice, err error) {
	// wgpu-native panics when the shared library cannot be loaded.
	defer func() {
		if r := recover(); r != nil {
			dev = nil
			err = fmt.Errorf("native library not available: %v", r)
		}
	}()

	instance := wgpu.CreateInstance(nil)
	if instance == nil {
		return nil, errors.New("failed to create WebGPU instance")
	}
	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		instance.Release()
		return nil, fmt.Errorf("request adapter: %w", err)
	}
	info := adapter.GetInfo()
	device, err := adapter.RequestDevice(nil)
	if err != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("request device: %w", err)
	}

	d := &nativeDevice{
		instance: instance,
		adapter:  adapter,
		device:   device,
		queue:    device.GetQueue(),
		name:     info.Name,
		timeout:  cfg.ReadbackTimeout,
	}
	if d.timeout <= 0 {
		d.timeout = DefaultConfig().ReadbackTimeout
	}
	d.pool = newBufferPool(
		func(size, usage uint64) (*wgpu.Buffer, error) {
			return device.CreateBuffer(&wgpu.BufferDescriptor{
				Size:  size,
				Usage: wgpu.BufferUsage(usage),
			})
		},
		func(buf *wgpu.Buffer) { buf.Release() },
	)
	return d, nil
}

func (d *nativeDevice) adapterName() string { return d.name }

func (d *nativeDevice) poolStats() PoolStats { return d.pool.Stats() }

func (d *nativeDevice) compile(label string, src shaderSource) (gpuPipeline, error) {
	module, err := d.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: src.code},
	})
	if err != nil {
		return nil, err
	}
	pipeline, err := d.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label: label,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     module,
			EntryPoint: "main",
		},
	})
	if err != nil {
		module.Release()
		return nil, err
	}
	return &nativePipeline{module: module, pipeline: pipeline}, nil
}

func (d *nativeDevice) dispatch(p gpuPipeline, args []stagedArg, params []byte, groups [3]uint32) error {
	np := p.(*nativePipeline)

	storage := make([]*wgpu.Buffer, len(args))
	staging := make([]*wgpu.Buffer, len(args))
	entries := make([]wgpu.BindGroupEntry, 0, len(args)+1)
	for i, a := range args {
		size := uint64(len(a.bytes))
		buf, capacity, err := d.pool.Acquire(size, storageUsage)
		if err != nil {
			return fmt.Errorf("storage buffer %d: %w", i, err)
		}
		defer d.pool.Release(buf, capacity, storageUsage)
		stg, stgCapacity, err := d.pool.Acquire(size, stagingUsage)
		if err != nil {
			return fmt.Errorf("staging buffer %d: %w", i, err)
		}
		defer d.pool.Release(stg, stgCapacity, stagingUsage)

		d.queue.WriteBuffer(buf, 0, a.bytes)
		storage[i], staging[i] = buf, stg
		//nolint:gosec // G115: binding index is bounded by the arg count.
		entries = append(entries, wgpu.BindGroupEntry{Binding: uint32(i), Buffer: buf, Size: size})
	}
	if params != nil {
		ub, err := d.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
			Contents: params,
			Usage:    wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("params buffer: %w", err)
		}
		defer ub.Release()
		//nolint:gosec // G115: binding index is bounded by the arg count.
		entries = append(entries, wgpu.BindGroupEntry{Binding: uint32(len(args)), Buffer: ub, Size: paramsSize})
	}

	bindGroup, err := d.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Layout:  np.pipeline.GetBindGroupLayout(0),
		Entries: entries,
	})
	if err != nil {
		return fmt.Errorf("bind group: %w", err)
	}
	defer bindGroup.Release()

	enc, err := d.device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("command encoder: %w", err)
	}
	pass := enc.BeginComputePass(nil)
	pass.SetPipeline(np.pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	pass.DispatchWorkgroups(groups[0], groups[1], groups[2])
	pass.End()
	for i, a := range args {
		enc.CopyBufferToBuffer(storage[i], 0, staging[i], 0, uint64(len(a.bytes)))
	}
	cmd, err := enc.Finish(nil)
	if err != nil {
		return fmt.Errorf("finish: %w", err)
	}
	d.queue.Submit(cmd)

	for i, a := range args {
		if err := d.read(staging[i], a.bytes); err != nil {
			return fmt.Errorf("readback %d: %w", i, err)
		}
	}
	return nil
}

// read maps buf and copies len(dst) bytes out of it.
func (d *nativeDevice) read(buf *wgpu.Buffer, dst []byte) error {
	size := uint64(len(dst))
	done := make(chan struct{})
	var mapErr error
	err := buf.MapAsync(wgpu.MapModeRead, 0, size, func(status wgpu.BufferMapAsyncStatus) {
		if status != wgpu.BufferMapAsyncStatusSuccess {
			mapErr = fmt.Errorf("map failed: %v", status)
		}
		close(done)
	})
	if err != nil {
		return err
	}

	timeout := time.After(d.timeout)
	for waiting := true; waiting; {
		d.device.Poll(false, nil)
		select {
		case <-done:
			waiting = false
		case <-timeout:
			return fmt.Errorf("map timed out after %s", d.timeout)
		default:
			time.Sleep(time.Millisecond)
		}
	}
	if mapErr != nil {
		return mapErr
	}

	copy(dst, buf.GetMappedRange(0, uint(size)))
	buf.Unmap()
	return nil
}

func (d *nativeDevice) release() {
	d.pool.Clear()
	d.queue.Release()
	d.device.Release()
	d.adapter.Release()
	d.instance.Release()
}
