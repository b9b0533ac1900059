package kernel

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomSizes(r *rand.Rand) (Size, Size) {
	rank := 1 + r.Intn(3)
	nd := make([]int, rank)
	wg := make([]int, rank)
	for d := 0; d < rank; d++ {
		nd[d] = 1 + r.Intn(40)
		wg[d] = 1 + r.Intn(9)
	}
	return Dims(nd...), Dims(wg...)
}

func TestPartition_BlocksAreCeilDivision(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for trial := 0; trial < 500; trial++ {
		nd, wg := randomSizes(r)

		part, err := Partition(Dynamic(), Dynamic(), nd, wg)
		require.NoError(t, err, "ndrange=%v group=%v", nd, wg)

		padded := false
		for d := 0; d < nd.Rank(); d++ {
			want := (nd.At(d) + wg.At(d) - 1) / wg.At(d)
			assert.Equal(t, want, part.Space.Blocks().At(d), "ndrange=%v group=%v dim %d", nd, wg, d)
			if nd.At(d)%wg.At(d) != 0 {
				padded = true
			}
		}
		assert.Equal(t, padded, part.Dynamic, "ndrange=%v group=%v", nd, wg)
	}
}

func TestPartition_EndToEndShapes(t *testing.T) {
	tests := []struct {
		name        string
		ndrange     Size
		group       Size
		wantBlocks  Size
		wantDynamic bool
	}{
		{"padded 1D", Dims(10), Dims(4), Dims(3), true},
		{"even 2D", Dims(128, 128), Dims(32, 32), Dims(4, 4), false},
		{"padded in one dim", Dims(64, 33), Dims(8, 8), Dims(8, 5), true},
		{"group larger than ndrange", Dims(3), Dims(16), Dims(1), true},
		{"single item", Dims(1, 1, 1), Dims(1, 1, 1), Dims(1, 1, 1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			part, err := Partition(Static(tt.ndrange), Static(tt.group), Size{}, Size{})
			require.NoError(t, err)
			assert.Equal(t, tt.wantBlocks, part.Space.Blocks())
			assert.Equal(t, tt.wantDynamic, part.Dynamic)
			assert.True(t, part.Space.IsStatic())
		})
	}
}

func TestPartition_StaticTags(t *testing.T) {
	part, err := Partition(Dynamic(), Static(Dims(4)), Dims(16), Size{})
	require.NoError(t, err)
	assert.True(t, part.Space.GroupSpec().IsStatic())
	assert.False(t, part.Space.BlocksSpec().IsStatic())
	assert.False(t, part.Space.IsStatic())

	part, err = Partition(Static(Dims(16)), Dynamic(), Size{}, Dims(4))
	require.NoError(t, err)
	assert.False(t, part.Space.GroupSpec().IsStatic())
	assert.False(t, part.Space.BlocksSpec().IsStatic())
}

func TestPartition_MissingRuntimeSize(t *testing.T) {
	tests := []struct {
		name      string
		ndrange   SizeSpec
		workgroup SizeSpec
		rtND      Size
		rtWG      Size
	}{
		{"dynamic ndrange omitted", Dynamic(), Static(Dims(4)), Size{}, Size{}},
		{"dynamic workgroup omitted", Static(Dims(16)), Dynamic(), Size{}, Size{}},
		{"both omitted", Dynamic(), Dynamic(), Size{}, Size{}},
		{"only ndrange supplied", Dynamic(), Dynamic(), Dims(16), Size{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Partition(tt.ndrange, tt.workgroup, tt.rtND, tt.rtWG)
			require.Error(t, err)
			assert.True(t, IsConfigurationError(err))
			assert.Contains(t, err.Error(), "ndrange is "+tt.ndrange.String())
			assert.Contains(t, err.Error(), "workgroup size is "+tt.workgroup.String())
		})
	}
}

func TestPartition_StaticConflict(t *testing.T) {
	_, err := Partition(Static(Dims(16)), Static(Dims(4)), Dims(17), Size{})
	assert.True(t, IsConfigurationError(err))

	_, err = Partition(Static(Dims(16)), Static(Dims(4)), Size{}, Dims(4, 1))
	assert.True(t, IsConfigurationError(err))

	// Equal runtime values are accepted.
	part, err := Partition(Static(Dims(16)), Static(Dims(4)), Dims(16), Dims(4))
	require.NoError(t, err)
	assert.Equal(t, Dims(4), part.Space.Blocks())
}

func TestPartition_GeometryErrors(t *testing.T) {
	_, err := Partition(Dynamic(), Dynamic(), Dims(10, 0), Dims(2, 2))
	assert.True(t, IsGeometryError(err))

	_, err = Partition(Dynamic(), Dynamic(), Dims(10), Dims(-1))
	assert.True(t, IsGeometryError(err))
}

func TestPartition_Overflow(t *testing.T) {
	_, err := Partition(Dynamic(), Dynamic(), Dims(math.MaxInt), Dims(2))
	assert.True(t, IsGeometryError(err))

	_, err = Partition(Dynamic(), Dynamic(), Dims(1<<32, 1<<32), Dims(1, 1))
	assert.True(t, IsGeometryError(err))
	assert.True(t, IsGeometryError(Dims(1<<32, 1<<32).Validate()))

	// The largest extent that still pads without overflow.
	p, err := Partition(Dynamic(), Dynamic(), Dims(math.MaxInt-1), Dims(2))
	require.NoError(t, err)
	assert.Equal(t, Dims(math.MaxInt/2), p.Space.Blocks())
	assert.False(t, p.Dynamic)
}

func TestSize_CeilDivNearMaxInt(t *testing.T) {
	assert.Equal(t, Dims(1, math.MaxInt/2+1), Dims(math.MaxInt, math.MaxInt).CeilDiv(Dims(math.MaxInt, 2)))
}

func TestPartition_DimensionalityMismatch(t *testing.T) {
	_, err := Partition(Dynamic(), Dynamic(), Dims(10, 10), Dims(2))
	assert.True(t, IsConfigurationError(err))
	assert.Contains(t, err.Error(), "dimensionality mismatch")
}
