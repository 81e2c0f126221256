package bootstrap

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

// ErrNoRandomSource is returned when a simulation is started without a random generator.
var ErrNoRandomSource = errors.New("random source is required")

// Params configure one bootstrap simulation.
type Params struct {
	// Allocation is the fraction of the portfolio held in the hedge each period.
	Allocation float64
	// Payoffs holds one multiplicative hedge payoff per category.
	Payoffs []float64
	// Years is the number of resampled periods per path.
	Years int
	// Samples is the number of independent paths.
	Samples int
}

// NewRand returns a PCG-backed generator for the given seed and stream.
// Distinct streams of the same seed are independent.
func NewRand(seed, stream uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, stream))
}

// growthFactors validates params against the pool and returns the combined
// period factor for every pool entry:
//
//	(1 - allocation) * (1 + return) + allocation * payoffs[category]
func growthFactors(pool Pool, p Params) ([]float64, error) {
	if pool.Len() == 0 {
		return nil, ErrEmptyPool
	}
	if math.IsNaN(p.Allocation) || p.Allocation < 0 || p.Allocation > 1 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidAllocation, p.Allocation)
	}
	if p.Years <= 0 || p.Samples <= 0 {
		return nil, fmt.Errorf("%w: years=%d samples=%d", ErrInvalidSampleParameters, p.Years, p.Samples)
	}

	space := pool.categorySpace()
	if pool.Categories > 0 && len(p.Payoffs) != space {
		return nil, fmt.Errorf("%w: %d payoffs for %d categories", ErrPayoffCategoryMismatch, len(p.Payoffs), space)
	}

	factors := make([]float64, pool.Len())
	for i, o := range pool.Observations {
		if o.Category < 0 || o.Category >= len(p.Payoffs) {
			return nil, fmt.Errorf("%w: observation %d has category %d, payoff vector has %d entries",
				ErrPayoffCategoryMismatch, i, o.Category, len(p.Payoffs))
		}
		f := (1-p.Allocation)*(1+o.Return) + p.Allocation*p.Payoffs[o.Category]
		if !(f > 0) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("%w: observation %d (return %v, category %d) gives factor %v",
				ErrNonPositiveGrowth, i, o.Return, o.Category, f)
		}
		factors[i] = f
	}
	return factors, nil
}

// fillRows simulates rows [from, to) of a row-major samples x years buffer.
// Draws happen path by path, period by period.
func fillRows(data []float64, years, from, to int, factors []float64, rng *rand.Rand) {
	n := len(factors)
	for i := from; i < to; i++ {
		row := data[i*years : (i+1)*years]
		growth := 1.0
		for p := range row {
			growth *= factors[rng.IntN(n)]
			row[p] = growth
		}
	}
}

// Simulate draws Samples x Years observations uniformly with replacement from the
// pool and compounds the blended risky/hedge return of each draw along every path.
//
// All validation happens before the first draw. The pool is not modified.
// Two calls with generators in the same state produce identical trajectories.
func Simulate(pool Pool, p Params, rng *rand.Rand) (*Trajectory, error) {
	if rng == nil {
		return nil, ErrNoRandomSource
	}
	factors, err := growthFactors(pool, p)
	if err != nil {
		return nil, err
	}

	data := make([]float64, p.Samples*p.Years)
	fillRows(data, p.Years, 0, p.Samples, factors, rng)
	return &Trajectory{m: mat.NewDense(p.Samples, p.Years, data)}, nil
}
