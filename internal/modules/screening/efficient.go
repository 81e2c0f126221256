// Package screening evaluates listed put options as crash hedges: whether a
// quote is cheap enough to be worth holding, and which strike pays best
// across a grid of stressed markets.
package screening

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/aristath/safehaven/pkg/formulas"
)

var (
	// ErrInvalidSpot is returned when the underlying price is not positive
	ErrInvalidSpot = errors.New("spot price must be positive")
	// ErrEmptyBook is returned when no option survives filtering
	ErrEmptyBook = errors.New("no eligible options")
)

// Quote is one listed put
type Quote struct {
	Expiry       time.Time `msgpack:"expiry"`
	Strike       float64   `msgpack:"strike"`
	LastPrice    float64   `msgpack:"last_price"`
	Volume       int64     `msgpack:"volume"`
	OpenInterest int64     `msgpack:"open_interest"`
}

// ScreenParams configures Screen
type ScreenParams struct {
	Spot         float64   // current underlying price
	TargetPct    float64   // crash level as a fraction of Spot, e.g. 0.85
	Efficiency   float64   // required payoff multiple, e.g. 6.8
	RiskFreeRate float64   // annual, continuously compounded
	Volatility   float64   // annualized
	Now          time.Time // valuation time
}

// DefaultScreenParams returns the usual 15% crash / 6.8x efficiency setup
func DefaultScreenParams(spot, volatility float64, now time.Time) ScreenParams {
	return ScreenParams{
		Spot:         spot,
		TargetPct:    0.85,
		Efficiency:   6.8,
		RiskFreeRate: 0.02,
		Volatility:   volatility,
		Now:          now,
	}
}

// Screened is a quote with its cost-effectiveness verdicts
type Screened struct {
	Quote
	MaxPrice              float64 `msgpack:"max_price"` // highest cost-effective premium
	IntrinsicEffective    bool    `msgpack:"intrinsic_effective"`
	IntrinsicReturn       float64 `msgpack:"intrinsic_return"`
	TheoreticalPrice      float64 `msgpack:"theoretical_price"`
	BlackScholesEffective bool    `msgpack:"black_scholes_effective"`
	BlackScholesReturn    float64 `msgpack:"black_scholes_return"`
	// CrashProfit is the profit of one put bought at LastPrice if the
	// underlying settles at the crash target
	CrashProfit float64         `msgpack:"crash_profit"`
	Greeks      formulas.Greeks `msgpack:"greeks"`
}

// EfficientPrice is the highest premium at which a put struck at strike still
// returns eff times its cost when the underlying falls to target.
//
// Formula: (strike - target) / (1 + eff)
func EfficientPrice(strike, target, eff float64) float64 {
	return (strike - target) / (1 + eff)
}

// YearsBetween measures whole days from now to expiry in years of 365 days
func YearsBetween(now, expiry time.Time) float64 {
	days := math.Floor(expiry.Sub(now).Hours() / 24)
	return days / 365
}

// Screen judges every quote against the efficient price, both at its traded
// price and at its Black-Scholes value.
//
// Expected returns are fractions: (strike - target - price) / price.
// The output is sorted by expiry ascending, then intrinsic expected return
// descending. Input order breaks remaining ties.
func Screen(quotes []Quote, p ScreenParams) ([]Screened, error) {
	if !(p.Spot > 0) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidSpot, p.Spot)
	}

	target := p.Spot * p.TargetPct
	out := make([]Screened, len(quotes))
	for i, q := range quotes {
		maxPrice := EfficientPrice(q.Strike, target, p.Efficiency)
		years := YearsBetween(p.Now, q.Expiry)
		theo := formulas.BlackScholesPut(p.Spot, q.Strike, years, p.RiskFreeRate, p.Volatility)

		out[i] = Screened{
			Quote:                 q,
			MaxPrice:              maxPrice,
			IntrinsicEffective:    q.LastPrice <= maxPrice,
			IntrinsicReturn:       expectedReturn(q.Strike, target, q.LastPrice),
			TheoreticalPrice:      theo,
			BlackScholesEffective: theo <= maxPrice,
			BlackScholesReturn:    expectedReturn(q.Strike, target, theo),
			CrashProfit:           formulas.PutProfitAtExpiry(target, q.Strike, q.LastPrice, 1),
			Greeks:                formulas.PutGreeks(p.Spot, q.Strike, years, p.RiskFreeRate, p.Volatility),
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Expiry.Equal(out[j].Expiry) {
			return out[i].Expiry.Before(out[j].Expiry)
		}
		return greater(out[i].IntrinsicReturn, out[j].IntrinsicReturn)
	})
	return out, nil
}

// CostEffective keeps the quotes whose traded price is at or below the efficient price
func CostEffective(screened []Screened) []Screened {
	var out []Screened
	for _, s := range screened {
		if s.IntrinsicEffective {
			out = append(out, s)
		}
	}
	return out
}

func expectedReturn(strike, target, price float64) float64 {
	if price <= 0 {
		return math.Inf(1)
	}
	return (strike - target - price) / price
}

// greater orders NaN last
func greater(a, b float64) bool {
	if math.IsNaN(a) {
		return false
	}
	if math.IsNaN(b) {
		return true
	}
	return a > b
}

// MonthlyExpiries returns the next n monthly expiries (third Friday of the
// month) strictly after now, in UTC. It returns nil when n is not positive.
func MonthlyExpiries(now time.Time, n int) []time.Time {
	if n <= 0 {
		return nil
	}
	out := make([]time.Time, 0, n)
	month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	for len(out) < n {
		friday := thirdFriday(month)
		if friday.After(now) {
			out = append(out, friday)
		}
		month = month.AddDate(0, 1, 0)
	}
	return out
}

func thirdFriday(firstOfMonth time.Time) time.Time {
	offset := (int(time.Friday) - int(firstOfMonth.Weekday()) + 7) % 7
	return firstOfMonth.AddDate(0, 0, offset+14)
}
