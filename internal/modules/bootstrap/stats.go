package bootstrap

import (
	"fmt"
	"math"
)

// CategoryCounts returns how many observations fall in each of n categories.
// Indices outside [0, n) are ignored.
func CategoryCounts(categories []int, n int) []int {
	if n <= 0 {
		return []int{}
	}
	counts := make([]int, n)
	for _, c := range categories {
		if c >= 0 && c < n {
			counts[c]++
		}
	}
	return counts
}

// BreakEvenPayoff is the hedge payoff multiple at which insuring against the
// given category costs nothing on average: total observations / observations in that category.
//
// Example: 20 crash years out of 107 gives 107/20 = 5.35x.
func BreakEvenPayoff(counts []int, category int) (float64, error) {
	if category < 0 || category >= len(counts) {
		return 0, fmt.Errorf("%w: category %d outside [0, %d)", ErrPayoffCategoryMismatch, category, len(counts))
	}

	total := 0
	for _, c := range counts {
		total += c
	}
	if counts[category] == 0 {
		return math.Inf(1), nil
	}
	return float64(total) / float64(counts[category]), nil
}
