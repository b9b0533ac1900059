package kernel

import (
	"fmt"
	"math"
)

// IterationSpace is a resolved N-dimensional launch geometry: the true
// ndrange, the work-items per group, and the number of groups (blocks) along
// each dimension. The rank never changes after construction.
type IterationSpace struct {
	ndrange Size
	group   Size
	blocks  Size

	groupStatic  bool
	blocksStatic bool
}

// NewIterationSpace partitions ndrange into groups of the given size.
// Blocks are the element-wise ceil-division of ndrange by group.
func NewIterationSpace(ndrange, group Size) (IterationSpace, error) {
	if err := ndrange.Validate(); err != nil {
		return IterationSpace{}, fmt.Errorf("ndrange: %w", err)
	}
	if err := group.Validate(); err != nil {
		return IterationSpace{}, fmt.Errorf("workgroup size: %w", err)
	}
	if ndrange.Rank() != group.Rank() {
		return IterationSpace{}, NewConfigurationError("NewIterationSpace",
			"dimensionality mismatch: ndrange %v has rank %d, workgroup size %v has rank %d",
			ndrange, ndrange.Rank(), group, group.Rank())
	}
	blocks := ndrange.CeilDiv(group)
	for d := 0; d < blocks.Rank(); d++ {
		if blocks.At(d) > math.MaxInt/group.At(d) {
			return IterationSpace{}, NewGeometryError("NewIterationSpace",
				"padded extent of dimension %d overflows: %d blocks of %d", d, blocks.At(d), group.At(d))
		}
	}
	if err := blocks.Mul(group).Validate(); err != nil {
		return IterationSpace{}, fmt.Errorf("padded space: %w", err)
	}
	return IterationSpace{
		ndrange: ndrange,
		group:   group,
		blocks:  blocks,
	}, nil
}

// Rank returns the dimensionality.
func (s IterationSpace) Rank() int { return s.ndrange.Rank() }

// NDRange returns the true (unpadded) problem size.
func (s IterationSpace) NDRange() Size { return s.ndrange }

// GroupSize returns the number of work-items per group along each dimension.
func (s IterationSpace) GroupSize() Size { return s.group }

// Blocks returns the number of groups along each dimension.
func (s IterationSpace) Blocks() Size { return s.blocks }

// BlocksSpec returns the block geometry tagged static or dynamic.
func (s IterationSpace) BlocksSpec() SizeSpec {
	return SizeSpec{static: s.blocksStatic, size: s.blocks}
}

// GroupSpec returns the group geometry tagged static or dynamic.
func (s IterationSpace) GroupSpec() SizeSpec {
	return SizeSpec{static: s.groupStatic, size: s.group}
}

// IsStatic reports whether both geometries were fixed at specialization.
func (s IterationSpace) IsStatic() bool { return s.groupStatic && s.blocksStatic }

// Padded returns the over-allocated execution space blocks ⊙ group.
func (s IterationSpace) Padded() Size { return s.blocks.Mul(s.group) }

// NumGroups returns the total number of groups.
func (s IterationSpace) NumGroups() int { return s.blocks.NumElements() }

// GroupItems returns the number of work-items in every group.
func (s IterationSpace) GroupItems() int { return s.group.NumElements() }

// NeedsBoundsCheck reports whether padding occurred in some dimension.
func (s IterationSpace) NeedsBoundsCheck() bool { return !s.group.Divides(s.ndrange) }

// Global maps a (group, local) coordinate pair to the global coordinate
// group ⊙ groupsize + local.
func (s IterationSpace) Global(group, local Index) Index {
	g := Index{rank: s.ndrange.rank}
	for d := 0; d < g.rank; d++ {
		g.c[d] = group.c[d]*s.group.ext[d] + local.c[d]
	}
	return g
}

// InBounds reports whether a global coordinate lies inside the true ndrange.
func (s IterationSpace) InBounds(global Index) bool {
	return s.ndrange.Contains(global)
}

// String describes the geometry.
func (s IterationSpace) String() string {
	return fmt.Sprintf("ndrange=%v group=%v blocks=%v", s.ndrange, s.group, s.blocks)
}
