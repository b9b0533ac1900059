package kernel

import "fmt"

// Partitioned is the result of partitioning a launch.
type Partitioned struct {
	Space IterationSpace
	// Dynamic is true when the group size does not divide the ndrange in some
	// dimension. Work-items outside the true ndrange must then be skipped;
	// when false backends may omit the per-item bounds check.
	Dynamic bool
}

// Partition resolves the final launch geometry from the descriptor's size
// specs and the optional runtime values (zero Size means omitted).
//
// Rules:
//   - a dynamic spec without a runtime value is a configuration error;
//   - a static spec with a different runtime value is a configuration error;
//   - blocks = ceil(ndrange / group), tagged static only if both inputs are.
//
// Nothing is launched when an error is returned.
func Partition(ndrange, workgroup SizeSpec, runtimeNDRange, runtimeWorkgroup Size) (Partitioned, error) {
	if !runtimeNDRange.IsZero() {
		if err := runtimeNDRange.Validate(); err != nil {
			return Partitioned{}, fmt.Errorf("runtime ndrange: %w", err)
		}
	}
	if !runtimeWorkgroup.IsZero() {
		if err := runtimeWorkgroup.Validate(); err != nil {
			return Partitioned{}, fmt.Errorf("runtime workgroup size: %w", err)
		}
	}

	nd, ndStatic, err := ndrange.resolve("ndrange", runtimeNDRange)
	if err != nil {
		return Partitioned{}, err
	}
	wg, wgStatic, err := workgroup.resolve("workgroup size", runtimeWorkgroup)
	if err != nil {
		return Partitioned{}, err
	}
	if nd.IsZero() || wg.IsZero() {
		return Partitioned{}, NewConfigurationError("Partition",
			"missing runtime size: ndrange is %s (supplied: %t), workgroup size is %s (supplied: %t)",
			ndrange, !runtimeNDRange.IsZero(), workgroup, !runtimeWorkgroup.IsZero())
	}

	space, err := NewIterationSpace(nd, wg)
	if err != nil {
		return Partitioned{}, err
	}
	space.groupStatic = wgStatic
	space.blocksStatic = ndStatic && wgStatic

	return Partitioned{Space: space, Dynamic: space.NeedsBoundsCheck()}, nil
}
