package kernel

import (
	"math"
	"strconv"
	"strings"
)

// MaxRank is the largest dimensionality an iteration space may have.
const MaxRank = 8

// Size is an N-tuple of extents: an ndrange, a workgroup size or a block
// count. It is a comparable value so descriptors holding sizes compare
// structurally. The zero Size has rank 0 and means "not supplied".
type Size struct {
	rank int
	ext  [MaxRank]int
}

// Index is an N-tuple of 0-based coordinates.
type Index struct {
	rank int
	c    [MaxRank]int
}

// Dims builds a Size from extents. It panics if more than MaxRank extents
// are given; extents are checked by Validate.
func Dims(ext ...int) Size {
	if len(ext) > MaxRank {
		panic(NewGeometryError("Dims", "rank %d exceeds maximum %d", len(ext), MaxRank))
	}
	var s Size
	s.rank = len(ext)
	copy(s.ext[:], ext)
	return s
}

// Coords builds an Index from coordinates.
func Coords(c ...int) Index {
	if len(c) > MaxRank {
		panic(NewGeometryError("Coords", "rank %d exceeds maximum %d", len(c), MaxRank))
	}
	var i Index
	i.rank = len(c)
	copy(i.c[:], c)
	return i
}

// Rank returns the number of dimensions.
func (s Size) Rank() int { return s.rank }

// IsZero reports whether s was left unset.
func (s Size) IsZero() bool { return s.rank == 0 }

// At returns the extent of dimension d.
func (s Size) At(d int) int { return s.ext[d] }

// Extents returns a copy of the extents.
func (s Size) Extents() []int {
	out := make([]int, s.rank)
	copy(out, s.ext[:s.rank])
	return out
}

// NumElements returns the product of all extents.
func (s Size) NumElements() int {
	n := 1
	for d := 0; d < s.rank; d++ {
		n *= s.ext[d]
	}
	return n
}

// Validate checks that s has at least one dimension, every extent is
// positive and the element count fits in an int.
func (s Size) Validate() error {
	if s.rank == 0 {
		return NewGeometryError("Validate", "size has no dimensions")
	}
	n := 1
	for d := 0; d < s.rank; d++ {
		if s.ext[d] <= 0 {
			return NewGeometryError("Validate", "invalid extent at dimension %d: %d (must be > 0)", d, s.ext[d])
		}
		if n > math.MaxInt/s.ext[d] {
			return NewGeometryError("Validate", "size %v has more elements than an int can count", s)
		}
		n *= s.ext[d]
	}
	return nil
}

// Strides returns row-major strides: stride[d] = product of extents after d.
func (s Size) Strides() []int {
	strides := make([]int, s.rank)
	if s.rank == 0 {
		return strides
	}
	strides[s.rank-1] = 1
	for d := s.rank - 2; d >= 0; d-- {
		strides[d] = strides[d+1] * s.ext[d+1]
	}
	return strides
}

// Linear flattens idx over s in row-major order.
func (s Size) Linear(idx Index) int {
	lin := 0
	for d := 0; d < s.rank; d++ {
		lin = lin*s.ext[d] + idx.c[d]
	}
	return lin
}

// Cartesian is the inverse of Linear.
func (s Size) Cartesian(lin int) Index {
	var idx Index
	idx.rank = s.rank
	for d := s.rank - 1; d >= 0; d-- {
		idx.c[d] = lin % s.ext[d]
		lin /= s.ext[d]
	}
	return idx
}

// Contains reports whether every coordinate of idx lies inside s.
func (s Size) Contains(idx Index) bool {
	if idx.rank != s.rank {
		return false
	}
	for d := 0; d < s.rank; d++ {
		if idx.c[d] < 0 || idx.c[d] >= s.ext[d] {
			return false
		}
	}
	return true
}

// CeilDiv divides s by other element-wise, rounding up. Both sizes must
// have the same rank and other must have positive extents. Non-positive
// extents of s give 0.
func (s Size) CeilDiv(other Size) Size {
	out := Size{rank: s.rank}
	for d := 0; d < s.rank; d++ {
		if s.ext[d] <= 0 {
			continue
		}
		out.ext[d] = (s.ext[d]-1)/other.ext[d] + 1
	}
	return out
}

// Mul multiplies s by other element-wise.
func (s Size) Mul(other Size) Size {
	out := Size{rank: s.rank}
	for d := 0; d < s.rank; d++ {
		out.ext[d] = s.ext[d] * other.ext[d]
	}
	return out
}

// Divides reports whether other is an exact multiple of s in every dimension.
func (s Size) Divides(other Size) bool {
	for d := 0; d < s.rank; d++ {
		if other.ext[d]%s.ext[d] != 0 {
			return false
		}
	}
	return true
}

// String formats s as (a, b, c).
func (s Size) String() string {
	return formatTuple(s.ext[:s.rank])
}

// Rank returns the number of dimensions.
func (i Index) Rank() int { return i.rank }

// At returns the coordinate along dimension d.
func (i Index) At(d int) int { return i.c[d] }

// Coords returns a copy of the coordinates.
func (i Index) Coords() []int {
	out := make([]int, i.rank)
	copy(out, i.c[:i.rank])
	return out
}

// String formats i as (a, b, c).
func (i Index) String() string {
	return formatTuple(i.c[:i.rank])
}

func formatTuple(v []int) string {
	var sb strings.Builder
	sb.WriteByte('(')
	for d, x := range v {
		if d > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(strconv.Itoa(x))
	}
	sb.WriteByte(')')
	return sb.String()
}
