//go:build windows

package webgpu

import (
	"fmt"
	"unsafe"

	"github.com/go-webgpu/webgpu/wgpu"
)

var stagingUsage = uint64(wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst)

type nativeDevice struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
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

func openDevice(Config) (dev gpuDevice, err error) {
	// Recover from panic if wgpu_native library is not found.
	defer func() {
		if r := recover(); r != nil {
			dev = nil
			err = fmt.Errorf("native library not available: %v", r)
		}
	}()

	instance := wgpu.CreateInstance(nil)
	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		instance.Release()
		return nil, fmt.Errorf("request adapter: %w", err)
	}
	device, err := adapter.RequestDevice(nil)
	if err != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("request device: %w", err)
	}
	queue := device.GetQueue()
	if queue == nil {
		device.Release()
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("failed to get queue")
	}

	d := &nativeDevice{instance: instance, adapter: adapter, device: device, queue: queue}
	d.pool = newBufferPool(
		func(size, usage uint64) (*wgpu.Buffer, error) {
			return device.CreateBuffer(&wgpu.BufferDescriptor{
				Usage: wgpu.BufferUsage(usage),
				Size:  size,
			}), nil
		},
		func(buf *wgpu.Buffer) { buf.Release() },
	)
	return d, nil
}

func (d *nativeDevice) adapterName() string { return "default adapter" }

func (d *nativeDevice) poolStats() PoolStats { return d.pool.Stats() }

func (d *nativeDevice) compile(_ string, src shaderSource) (gpuPipeline, error) {
	module := d.device.CreateShaderModuleWGSL(src.code)
	if module == nil {
		return nil, fmt.Errorf("shader module creation failed")
	}
	// Auto layout (nil) derives bindings from the shader.
	pipeline := d.device.CreateComputePipelineSimple(nil, module, "main")
	if pipeline == nil {
		module.Release()
		return nil, fmt.Errorf("compute pipeline creation failed")
	}
	return &nativePipeline{module: module, pipeline: pipeline}, nil
}

// upload creates a buffer initialized with data via MappedAtCreation.
func (d *nativeDevice) upload(data []byte, usage wgpu.BufferUsage) *wgpu.Buffer {
	size := uint64(len(data))
	buffer := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            usage,
		Size:             size,
		MappedAtCreation: wgpu.True,
	})
	mappedPtr := buffer.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	copy(unsafe.Slice((*byte)(mappedPtr), size), data)
	buffer.Unmap()
	return buffer
}

func (d *nativeDevice) dispatch(p gpuPipeline, args []stagedArg, params []byte, groups [3]uint32) error {
	np := p.(*nativePipeline)

	storage := make([]*wgpu.Buffer, len(args))
	staging := make([]*wgpu.Buffer, len(args))
	entries := make([]wgpu.BindGroupEntry, 0, len(args)+1)
	for i, a := range args {
		size := uint64(len(a.bytes))
		storage[i] = d.upload(a.bytes, wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc|wgpu.BufferUsageCopyDst)
		defer storage[i].Release()

		stg, capacity, err := d.pool.Acquire(size, stagingUsage)
		if err != nil {
			return fmt.Errorf("staging buffer %d: %w", i, err)
		}
		defer d.pool.Release(stg, capacity, stagingUsage)
		staging[i] = stg
		//nolint:gosec // G115: binding index is bounded by the arg count.
		entries = append(entries, wgpu.BufferBindingEntry(uint32(i), storage[i], 0, size))
	}
	if params != nil {
		ub := d.upload(params, wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst)
		defer ub.Release()
		//nolint:gosec // G115: binding index is bounded by the arg count.
		entries = append(entries, wgpu.BufferBindingEntry(uint32(len(args)), ub, 0, paramsSize))
	}

	bindGroup := d.device.CreateBindGroupSimple(np.pipeline.GetBindGroupLayout(0), entries)
	defer bindGroup.Release()

	encoder := d.device.CreateCommandEncoder(nil)
	computePass := encoder.BeginComputePass(nil)
	computePass.SetPipeline(np.pipeline)
	computePass.SetBindGroup(0, bindGroup, nil)
	computePass.DispatchWorkgroups(groups[0], groups[1], groups[2])
	computePass.End()
	for i, a := range args {
		encoder.CopyBufferToBuffer(storage[i], 0, staging[i], 0, uint64(len(a.bytes)))
	}
	d.queue.Submit(encoder.Finish(nil))

	for i, a := range args {
		size := uint64(len(a.bytes))
		if err := staging[i].MapAsync(d.device, wgpu.MapModeRead, 0, size); err != nil {
			return fmt.Errorf("readback %d: %w", i, err)
		}
		mappedPtr := staging[i].GetMappedRange(0, size)
		//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
		copy(a.bytes, unsafe.Slice((*byte)(mappedPtr), size))
		staging[i].Unmap()
	}
	return nil
}

func (d *nativeDevice) release() {
	d.pool.Clear()
	d.queue.Release()
	d.device.Release()
	d.adapter.Release()
	d.instance.Release()
}
