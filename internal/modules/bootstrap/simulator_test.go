package bootstrap

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func crashPool() Pool {
	return Pool{
		Observations: []Observation{
			{Return: 0.20, Category: 1},
			{Return: -0.20, Category: 0},
		},
		Categories: 2,
	}
}

func TestSimulate_Shape(t *testing.T) {
	traj, err := Simulate(crashPool(), Params{Allocation: 0.1, Payoffs: []float64{5, 0}, Years: 7, Samples: 33}, NewRand(1, 0))
	require.NoError(t, err)

	assert.Equal(t, 33, traj.Samples())
	assert.Equal(t, 7, traj.Years())
	for i := 0; i < traj.Samples(); i++ {
		for p := 0; p < traj.Years(); p++ {
			assert.Greater(t, traj.At(i, p), 0.0)
		}
	}
}

func TestSimulate_Deterministic(t *testing.T) {
	params := Params{Allocation: 0.035, Payoffs: []float64{5.34, 0}, Years: 25, Samples: 200}

	a, err := Simulate(crashPool(), params, NewRand(1234, 0))
	require.NoError(t, err)
	b, err := Simulate(crashPool(), params, NewRand(1234, 0))
	require.NoError(t, err)

	assert.Equal(t, a.Matrix().RawMatrix().Data, b.Matrix().RawMatrix().Data)

	c, err := Simulate(crashPool(), params, NewRand(4321, 0))
	require.NoError(t, err)
	assert.NotEqual(t, a.Matrix().RawMatrix().Data, c.Matrix().RawMatrix().Data)
}

func TestSimulate_ZeroAllocationIgnoresPayoffs(t *testing.T) {
	base := Params{Allocation: 0, Years: 10, Samples: 100}

	withLow := base
	withLow.Payoffs = []float64{0, 0}
	withHigh := base
	withHigh.Payoffs = []float64{100, 3}

	a, err := Simulate(crashPool(), withLow, NewRand(99, 0))
	require.NoError(t, err)
	b, err := Simulate(crashPool(), withHigh, NewRand(99, 0))
	require.NoError(t, err)

	assert.Equal(t, a.Matrix().RawMatrix().Data, b.Matrix().RawMatrix().Data)
}

func TestSimulate_SingleObservationClosedForm(t *testing.T) {
	const (
		r          = 0.07
		allocation = 0.25
		years      = 6
	)
	pool := Pool{Observations: []Observation{{Return: r, Category: 1}}, Categories: 3}

	traj, err := Simulate(pool, Params{Allocation: allocation, Payoffs: []float64{1, 1, 1}, Years: years, Samples: 50}, NewRand(5, 0))
	require.NoError(t, err)

	factor := (1-allocation)*(1+r) + allocation*1
	for i := 0; i < traj.Samples(); i++ {
		for p := 0; p < years; p++ {
			assert.InDelta(t, math.Pow(factor, float64(p+1)), traj.At(i, p), 1e-12)
		}
	}
}

func TestSimulate_EndToEndExpectation(t *testing.T) {
	// per period: 0.5*(0.9*1.2) + 0.5*(0.9*0.8 + 0.1*5) = 1.15, so E[terminal] = 1.15^2
	traj, err := Simulate(crashPool(), Params{Allocation: 0.1, Payoffs: []float64{5.0, 0.0}, Years: 2, Samples: 1000}, NewRand(1234, 0))
	require.NoError(t, err)

	mean := traj.MeanPath()
	require.Len(t, mean, 2)
	assert.InDelta(t, 1.15, mean[0], 0.015)
	assert.InDelta(t, 1.3225, mean[1], 0.015)

	outcomes := []float64{1.08 * 1.08, 1.08 * 1.22, 1.22 * 1.22}
	for _, v := range traj.Terminal() {
		matched := false
		for _, o := range outcomes {
			if math.Abs(v-o) < 1e-9 {
				matched = true
			}
		}
		assert.True(t, matched, "terminal value %v is not a product of two period factors", v)
	}
}

func TestSimulate_DoesNotMutatePool(t *testing.T) {
	pool := crashPool()
	before := append([]Observation(nil), pool.Observations...)

	_, err := Simulate(pool, Params{Allocation: 0.5, Payoffs: []float64{2, 1}, Years: 3, Samples: 10}, NewRand(1, 0))
	require.NoError(t, err)
	assert.Equal(t, before, pool.Observations)
}

func TestSimulate_Validation(t *testing.T) {
	valid := Params{Allocation: 0.1, Payoffs: []float64{5, 0}, Years: 2, Samples: 2}

	tests := []struct {
		name   string
		pool   Pool
		mutate func(p *Params)
		want   error
	}{
		{"empty pool", Pool{Categories: 2}, func(p *Params) {}, ErrEmptyPool},
		{"negative allocation", crashPool(), func(p *Params) { p.Allocation = -0.01 }, ErrInvalidAllocation},
		{"allocation above one", crashPool(), func(p *Params) { p.Allocation = 1.01 }, ErrInvalidAllocation},
		{"NaN allocation", crashPool(), func(p *Params) { p.Allocation = math.NaN() }, ErrInvalidAllocation},
		{"zero years", crashPool(), func(p *Params) { p.Years = 0 }, ErrInvalidSampleParameters},
		{"negative samples", crashPool(), func(p *Params) { p.Samples = -1 }, ErrInvalidSampleParameters},
		{"short payoff vector", crashPool(), func(p *Params) { p.Payoffs = []float64{5} }, ErrPayoffCategoryMismatch},
		{"long payoff vector", crashPool(), func(p *Params) { p.Payoffs = []float64{5, 0, 0} }, ErrPayoffCategoryMismatch},
		{
			"category out of range with inferred space",
			Pool{Observations: []Observation{{Return: 0.1, Category: 3}}},
			func(p *Params) {},
			ErrPayoffCategoryMismatch,
		},
		{
			"negative category",
			Pool{Observations: []Observation{{Return: 0.1, Category: -1}}},
			func(p *Params) {},
			ErrPayoffCategoryMismatch,
		},
		{"payoff drives factor negative", crashPool(), func(p *Params) { p.Payoffs = []float64{-20, 0} }, ErrNonPositiveGrowth},
		{
			"total loss with no hedge",
			Pool{Observations: []Observation{{Return: -1, Category: 0}, {Return: 0.1, Category: 1}}, Categories: 2},
			func(p *Params) { p.Allocation = 0 },
			ErrNonPositiveGrowth,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := valid
			params.Payoffs = append([]float64(nil), valid.Payoffs...)
			tt.mutate(&params)

			traj, err := Simulate(tt.pool, params, NewRand(1, 0))
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, traj)
		})
	}
}

func TestSimulate_InferredCategorySpace(t *testing.T) {
	pool := Pool{Observations: []Observation{{Return: 0.1, Category: 0}, {Return: -0.3, Category: 1}}}

	// a longer payoff vector is fine when the pool does not declare its category count
	traj, err := Simulate(pool, Params{Allocation: 0.1, Payoffs: []float64{0, 4, 9}, Years: 3, Samples: 4}, NewRand(1, 0))
	require.NoError(t, err)
	assert.Equal(t, 4, traj.Samples())
}

func TestSimulate_NilRand(t *testing.T) {
	_, err := Simulate(crashPool(), Params{Allocation: 0.1, Payoffs: []float64{5, 0}, Years: 1, Samples: 1}, nil)
	assert.ErrorIs(t, err, ErrNoRandomSource)
}
