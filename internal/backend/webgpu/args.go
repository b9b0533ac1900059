package webgpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/born-ml/kernels/internal/kernel"
)

// Buffer marks a host slice as accelerator-resident. Launch arguments may be
// plain slices or Buffers; only Buffers are claimed by Owns, so device
// inference stays unambiguous next to the host backend.
type Buffer struct {
	data any
}

// NewBuffer wraps a []float32, []int32 or []uint32 slice. Results of a
// launch are written back into the wrapped slice.
func NewBuffer(data any) (*Buffer, error) {
	if _, err := byteLen(data); err != nil {
		return nil, err
	}
	return &Buffer{data: data}, nil
}

// Data returns the wrapped slice.
func (b *Buffer) Data() any { return b.data }

// Len returns the number of elements in the buffer.
func (b *Buffer) Len() int {
	n, _ := byteLen(b.data)
	return n / 4
}

func byteLen(arg any) (int, error) {
	var n int
	switch v := arg.(type) {
	case []float32:
		n = len(v)
	case []int32:
		n = len(v)
	case []uint32:
		n = len(v)
	default:
		return 0, kernel.NewConfigurationError("Buffer", "unsupported argument type %T", arg)
	}
	if n == 0 {
		return 0, kernel.NewConfigurationError("Buffer", "empty %T cannot be bound as storage", arg)
	}
	return n * 4, nil
}

// stagedArg holds the little-endian bytes of one storage binding.
type stagedArg struct {
	host  any
	bytes []byte
}

func stageArgs(args []any) ([]stagedArg, error) {
	staged := make([]stagedArg, len(args))
	for i, arg := range args {
		if b, ok := arg.(*Buffer); ok {
			arg = b.data
		}
		size, err := byteLen(arg)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		buf := make([]byte, size)
		switch v := arg.(type) {
		case []float32:
			for j, x := range v {
				binary.LittleEndian.PutUint32(buf[j*4:], math.Float32bits(x))
			}
		case []int32:
			for j, x := range v {
				//nolint:gosec // G115: bit reinterpretation.
				binary.LittleEndian.PutUint32(buf[j*4:], uint32(x))
			}
		case []uint32:
			for j, x := range v {
				binary.LittleEndian.PutUint32(buf[j*4:], x)
			}
		}
		staged[i] = stagedArg{host: arg, bytes: buf}
	}
	return staged, nil
}

// writeBack copies the (possibly updated) bytes into the host slice.
func (a stagedArg) writeBack() {
	switch v := a.host.(type) {
	case []float32:
		for j := range v {
			v[j] = math.Float32frombits(binary.LittleEndian.Uint32(a.bytes[j*4:]))
		}
	case []int32:
		for j := range v {
			//nolint:gosec // G115: bit reinterpretation.
			v[j] = int32(binary.LittleEndian.Uint32(a.bytes[j*4:]))
		}
	case []uint32:
		for j := range v {
			v[j] = binary.LittleEndian.Uint32(a.bytes[j*4:])
		}
	}
}
