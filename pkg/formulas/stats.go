package formulas

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the sample standard deviation of a slice of float64 values
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// Linspace returns n evenly spaced values over [lo, hi], endpoints included.
// n == 1 yields []float64{lo}; n <= 0 yields nil.
func Linspace(lo, hi float64, n int) []float64 {
	switch {
	case n <= 0:
		return nil
	case n == 1:
		return []float64{lo}
	}
	return floats.Span(make([]float64, n), lo, hi)
}

// Quantile returns the q-th quantile of data using linear interpolation between
// the closest ranks: h = (n-1)q, x[floor(h)] + (h-floor(h))(x[floor(h)+1]-x[floor(h)]).
// This is the estimator most numeric toolkits use by default.
//
// data does not need to be sorted and is not modified. q must be in [0, 1].
// Returns NaN for empty input or q outside [0, 1].
func Quantile(data []float64, q float64) float64 {
	if len(data) == 0 || q < 0 || q > 1 || math.IsNaN(q) {
		return math.NaN()
	}

	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	h := float64(len(sorted)-1) * q
	lo := int(math.Floor(h))
	hi := lo + 1
	if hi >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[hi]-sorted[lo])
}

// EmpiricalQuantile returns the q-th quantile as the smallest observation whose
// empirical CDF reaches q (no interpolation). Returns NaN on invalid input.
func EmpiricalQuantile(data []float64, q float64) float64 {
	if len(data) == 0 || q < 0 || q > 1 || math.IsNaN(q) {
		return math.NaN()
	}

	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	return stat.Quantile(q, stat.Empirical, sorted, nil)
}

// ArgMax returns the index of the largest value, first index on ties, -1 when empty.
// NaN values are never selected.
func ArgMax(data []float64) int {
	best := -1
	for i, v := range data {
		if math.IsNaN(v) {
			continue
		}
		if best < 0 || v > data[best] {
			best = i
		}
	}
	return best
}
