package formulas

import "math"

// CAGR converts a cumulative growth factor over the given number of periods
// into a compound per-period growth rate.
//
// Formula: CAGR = growth^(1/periods) - 1
//
// Returns NaN when periods <= 0 or growth < 0.
func CAGR(growth float64, periods int) float64 {
	if periods <= 0 || growth < 0 {
		return math.NaN()
	}
	return math.Pow(growth, 1/float64(periods)) - 1
}

// CAGRs applies CAGR to every growth factor.
func CAGRs(growth []float64, periods int) []float64 {
	out := make([]float64, len(growth))
	for i, g := range growth {
		out[i] = CAGR(g, periods)
	}
	return out
}
