package bootstrap

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fiveBins(t *testing.T) Boundaries {
	t.Helper()
	b, err := NewBoundaries(math.Inf(-1), -0.15, 0, 0.15, 0.3, math.Inf(1))
	require.NoError(t, err)
	return b
}

func TestNewBoundaries_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		edges []float64
	}{
		{"no edges", nil},
		{"single edge", []float64{0}},
		{"equal edges", []float64{0, 0.1, 0.1}},
		{"decreasing", []float64{0.3, 0.1}},
		{"NaN edge", []float64{0, math.NaN(), 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBoundaries(tt.edges...)
			assert.ErrorIs(t, err, ErrInvalidBoundaries)
		})
	}
}

func TestNewBoundaries_CopiesEdges(t *testing.T) {
	edges := []float64{-1, 0, 1}
	b, err := NewBoundaries(edges...)
	require.NoError(t, err)

	edges[0] = 5
	assert.Equal(t, []float64{-1, 0, 1}, b.Edges())
	assert.Equal(t, 2, b.Categories())
}

func TestCategorize_LeftClosedRightOpen(t *testing.T) {
	b := fiveBins(t)

	tests := []struct {
		name string
		r    float64
		want int
	}{
		{"deep crash", -0.9, 0},
		{"just below -15%", -0.1500001, 0},
		{"exactly -15% goes right", -0.15, 1},
		{"small loss", -0.05, 1},
		{"exactly zero goes right", 0, 2},
		{"exactly 15% goes right", 0.15, 3},
		{"exactly 30% goes right", 0.3, 4},
		{"huge gain", 5.0, 4},
		{"negative infinity", math.Inf(-1), 0},
		{"positive infinity", math.Inf(1), 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cats, err := Categorize([]float64{tt.r}, b)
			require.NoError(t, err)
			assert.Equal(t, []int{tt.want}, cats)
		})
	}
}

func TestCategorize_FiniteOuterEdgesStillUnbounded(t *testing.T) {
	// outer edges like the +-10 sentinels some datasets use
	b, err := NewBoundaries(-10, 0, 10)
	require.NoError(t, err)

	cats, err := Categorize([]float64{-25, -10, 9.99, 10, 42}, b)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0, 1, 1, 1}, cats)
}

func TestCategorize_ExactlyOneBinAndIdempotent(t *testing.T) {
	b := fiveBins(t)
	rng := NewRand(7, 0)

	returns := make([]float64, 500)
	for i := range returns {
		returns[i] = rng.NormFloat64()
	}

	first, err := Categorize(returns, b)
	require.NoError(t, err)
	second, err := Categorize(returns, b)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	edges := b.Edges()
	for i, c := range first {
		require.GreaterOrEqual(t, c, 0)
		require.Less(t, c, b.Categories())
		// the value lies inside its bin (outer bins unbounded)
		if c > 0 {
			assert.GreaterOrEqual(t, returns[i], edges[c])
		}
		if c < b.Categories()-1 {
			assert.Less(t, returns[i], edges[c+1])
		}
	}
}

func TestCategorize_RejectsNaN(t *testing.T) {
	_, err := Categorize([]float64{0.1, math.NaN()}, fiveBins(t))
	assert.ErrorIs(t, err, ErrInvalidReturn)
}

func TestCategorize_ZeroValueBoundaries(t *testing.T) {
	_, err := Categorize([]float64{0.1}, Boundaries{})
	assert.ErrorIs(t, err, ErrInvalidBoundaries)
}

func TestBoundaries_Locate(t *testing.T) {
	b := fiveBins(t)

	c, err := b.Locate(-0.15)
	require.NoError(t, err)
	assert.Equal(t, 1, c)

	c, err = b.Locate(math.Inf(1))
	require.NoError(t, err)
	assert.Equal(t, 4, c)

	_, err = b.Locate(math.NaN())
	assert.ErrorIs(t, err, ErrInvalidReturn)
}

func TestBoundaries_LocateZeroValue(t *testing.T) {
	var b Boundaries
	assert.NotPanics(t, func() {
		_, err := b.Locate(0.1)
		assert.ErrorIs(t, err, ErrInvalidBoundaries)
	})
}

func TestNewPool(t *testing.T) {
	pool, err := NewPool([]float64{-0.3, 0.05, 0.8}, fiveBins(t))
	require.NoError(t, err)

	assert.Equal(t, 5, pool.Categories)
	assert.Equal(t, []Observation{
		{Return: -0.3, Category: 0},
		{Return: 0.05, Category: 2},
		{Return: 0.8, Category: 4},
	}, pool.Observations)
}

func TestCategoryCountsAndBreakEven(t *testing.T) {
	counts := CategoryCounts([]int{0, 0, 1, 4, 4, 4, 7, -1}, 5)
	assert.Equal(t, []int{2, 1, 0, 0, 3}, counts)
	assert.Empty(t, CategoryCounts([]int{1}, 0))

	// 20 crash years out of 107
	be, err := BreakEvenPayoff([]int{20, 6, 3, 6, 72}, 0)
	require.NoError(t, err)
	assert.InDelta(t, 5.35, be, 1e-12)

	be, err = BreakEvenPayoff([]int{0, 3}, 0)
	require.NoError(t, err)
	assert.True(t, math.IsInf(be, 1))

	_, err = BreakEvenPayoff([]int{1, 2}, 2)
	assert.ErrorIs(t, err, ErrPayoffCategoryMismatch)
}
