package formulas

import (
	"math"

	"github.com/markcheno/go-talib"
)

// PercentChange converts prices to simple percentage returns.
// Returns[i] = (Price[i+1] - Price[i]) / Price[i], so the result has len(prices)-1 entries.
// A zero previous price yields a zero return.
func PercentChange(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}

	// talib keeps the input length and leaves the lookback slot at zero
	rocp := talib.Rocp(prices, 1)
	out := make([]float64, len(prices)-1)
	copy(out, rocp[1:])
	return out
}

// RollingCompoundReturn compounds simple returns over a trailing window.
//
// For every index i >= window-1 it computes exp(sum(log(1+r[i-window+1..i]))) - 1,
// i.e. the total return of holding over the last window periods. The result has
// len(returns)-window+1 entries and is empty when there is not enough history.
//
// Args:
//   - returns: periodic simple returns, oldest first
//   - window: number of periods to compound (12 turns monthly into annual returns)
func RollingCompoundReturn(returns []float64, window int) []float64 {
	if window < 1 || len(returns) < window {
		return []float64{}
	}

	logs := make([]float64, len(returns))
	for i, r := range returns {
		logs[i] = math.Log1p(r)
	}

	sums := talib.Sum(logs, window)
	out := make([]float64, len(returns)-window+1)
	for i := range out {
		out[i] = math.Expm1(sums[i+window-1])
	}
	return out
}
