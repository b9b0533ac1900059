package webgpu

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/born-ml/kernels/internal/kernel"
)

// Template placeholders recognized in kernel WGSL sources.
const (
	// WorkgroupSizePlaceholder expands to the "x, y, z" workgroup extents.
	WorkgroupSizePlaceholder = "{{workgroup_size}}"
	// LaunchParamsPlaceholder expands to the LaunchParams struct and its
	// uniform binding, placed right after the argument bindings.
	LaunchParamsPlaceholder = "{{launch_params}}"
)

// MaxRank is the highest ndrange rank WebGPU can dispatch.
const MaxRank = 3

// paramsSize is the byte size of the LaunchParams uniform (vec4<u32> + u32,
// rounded up to the 16-byte uniform alignment).
const paramsSize = 32

const launchParamsDecl = `struct LaunchParams {
    ndrange: vec4<u32>,
    bounds_check: u32,
}
@group(0) @binding(%d) var<uniform> launch: LaunchParams;
`

// shaderSource is an expanded kernel ready for compilation.
type shaderSource struct {
	code       string
	usesParams bool
}

// expandShader substitutes the workgroup size and launch parameter
// declarations into src. nargs is the number of storage bindings.
func expandShader(src string, group kernel.Size, nargs int) (shaderSource, error) {
	if !strings.Contains(src, WorkgroupSizePlaceholder) {
		return shaderSource{}, kernel.NewConfigurationError("expandShader",
			"WGSL source has no %s placeholder", WorkgroupSizePlaceholder)
	}
	xyz, err := toXYZ(group)
	if err != nil {
		return shaderSource{}, err
	}
	code := strings.ReplaceAll(src, WorkgroupSizePlaceholder,
		fmt.Sprintf("%d, %d, %d", xyz[0], xyz[1], xyz[2]))

	uses := strings.Contains(code, LaunchParamsPlaceholder)
	if uses {
		code = strings.ReplaceAll(code, LaunchParamsPlaceholder, fmt.Sprintf(launchParamsDecl, nargs))
	}
	return shaderSource{code: code, usesParams: uses}, nil
}

// toXYZ maps a row-major size onto WebGPU's x/y/z axes: the last (fastest
// varying) dimension becomes x. Missing axes are 1.
func toXYZ(s kernel.Size) ([3]uint32, error) {
	out := [3]uint32{1, 1, 1}
	if s.Rank() > MaxRank {
		return out, kernel.NewGeometryError("toXYZ",
			"rank %d exceeds the accelerator limit of %d", s.Rank(), MaxRank)
	}
	for d := 0; d < s.Rank(); d++ {
		if uint64(s.At(d)) > math.MaxUint32 {
			return out, kernel.NewGeometryError("toXYZ",
				"extent %d of dimension %d does not fit in u32", s.At(d), d)
		}
		//nolint:gosec // G115: extents are validated positive and bounded above.
		out[s.Rank()-1-d] = uint32(s.At(d))
	}
	return out, nil
}

// encodeParams packs the true ndrange and the bounds-check flag into the
// LaunchParams uniform layout.
func encodeParams(space kernel.IterationSpace, dynamic bool) ([]byte, error) {
	nd, err := toXYZ(space.NDRange())
	if err != nil {
		return nil, err
	}
	params := make([]byte, paramsSize)
	for i, v := range nd {
		binary.LittleEndian.PutUint32(params[i*4:], v)
	}
	//nolint:gosec // G115: rank is at most MaxRank.
	binary.LittleEndian.PutUint32(params[12:], uint32(space.Rank()))
	if dynamic {
		binary.LittleEndian.PutUint32(params[16:], 1)
	}
	return params, nil
}
