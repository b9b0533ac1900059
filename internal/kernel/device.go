package kernel

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Device selects the backend that lowers and executes a kernel. Devices are
// stateless tags compared by variant only.
type Device int

// Supported devices.
const (
	// CPU is the multi-core host processor.
	CPU Device = iota
	// GPU is an accelerator driven through WebGPU.
	GPU
)

// String returns a human-readable device name.
func (d Device) String() string {
	switch d {
	case CPU:
		return "CPU"
	case GPU:
		return "GPU"
	default:
		return fmt.Sprintf("Device(%d)", int(d))
	}
}

// Backend executes kernels for one device. Implementations consume the
// resolved geometry of a Launch and must honor the index contracts of
// Context for every work-item.
type Backend interface {
	Name() string
	Device() Device
	// Launch dispatches work for an already validated launch and returns
	// without waiting for it to complete.
	Launch(l *Launch) (*Event, error)
	// Synchronize blocks until all work submitted to this backend is done.
	Synchronize() error
	// Owns reports whether array is stored in this backend's memory.
	Owns(array any) bool
}

var registry = struct {
	mu       sync.RWMutex
	backends map[Device]Backend
}{backends: make(map[Device]Backend)}

// Register installs b as the backend for its device and returns the backend
// it replaced, if any.
func Register(b Backend) Backend {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	prev := registry.backends[b.Device()]
	registry.backends[b.Device()] = b
	return prev
}

// Unregister removes the backend registered for d.
func Unregister(d Device) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	delete(registry.backends, d)
}

// Lookup returns the backend registered for d.
func Lookup(d Device) (Backend, error) {
	registry.mu.RLock()
	b, ok := registry.backends[d]
	registry.mu.RUnlock()
	if !ok {
		return nil, NewDeviceError("Lookup", fmt.Sprintf("no backend registered for %s", d), nil)
	}
	return b, nil
}

// Synchronize blocks until all outstanding work submitted to d completes.
func Synchronize(d Device) error {
	b, err := Lookup(d)
	if err != nil {
		return err
	}
	return b.Synchronize()
}

// DeviceOf infers the device an array lives on. Exactly one registered
// backend must claim the array.
func DeviceOf(array any) (Device, error) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	var owners []Device
	for d, b := range registry.backends {
		if b.Owns(array) {
			owners = append(owners, d)
		}
	}
	switch len(owners) {
	case 1:
		return owners[0], nil
	case 0:
		return 0, NewDeviceError("DeviceOf", fmt.Sprintf("no registered backend owns %T", array), nil)
	default:
		sort.Slice(owners, func(i, j int) bool { return owners[i] < owners[j] })
		names := make([]string, len(owners))
		for i, d := range owners {
			names[i] = d.String()
		}
		return 0, NewDeviceError("DeviceOf",
			fmt.Sprintf("%T is claimed by several devices: %s", array, strings.Join(names, ", ")), nil)
	}
}
