package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// BlackScholesPut prices a European put.
//
// Args:
//   - spot: current underlying price
//   - strike: strike price
//   - years: time to expiry in years
//   - rate: continuously compounded risk-free rate
//   - sigma: annualized volatility
//
// With no time or no volatility left the put is worth its intrinsic value.
func BlackScholesPut(spot, strike, years, rate, sigma float64) float64 {
	if years <= 0 || sigma <= 0 {
		return math.Max(strike-spot, 0)
	}

	sqrtT := math.Sqrt(years)
	d1 := (math.Log(spot/strike) + (rate+sigma*sigma/2)*years) / (sigma * sqrtT)
	d2 := d1 - sigma*sqrtT

	n := distuv.UnitNormal
	return strike*math.Exp(-rate*years)*n.CDF(-d2) - spot*n.CDF(-d1)
}

// Greeks are Black-Scholes sensitivities of a European put. Vega and Rho are
// per one percentage point, Theta is per calendar day.
type Greeks struct {
	Delta float64 `msgpack:"delta"`
	Gamma float64 `msgpack:"gamma"`
	Vega  float64 `msgpack:"vega"`
	Theta float64 `msgpack:"theta"`
	Rho   float64 `msgpack:"rho"`
}

// PutGreeks returns the Black-Scholes greeks of a European put. An expired
// or zero-volatility put has no time value and returns zero greeks.
func PutGreeks(spot, strike, years, rate, sigma float64) Greeks {
	if years <= 0 || sigma <= 0 {
		return Greeks{}
	}

	sqrtT := math.Sqrt(years)
	d1 := (math.Log(spot/strike) + (rate+sigma*sigma/2)*years) / (sigma * sqrtT)
	d2 := d1 - sigma*sqrtT

	n := distuv.UnitNormal
	pdf := n.Prob(d1)
	discounted := strike * math.Exp(-rate*years)

	return Greeks{
		Delta: n.CDF(d1) - 1,
		Gamma: pdf / (spot * sigma * sqrtT),
		Vega:  spot * pdf * sqrtT * 0.01,
		Theta: (-spot*pdf*sigma/(2*sqrtT) + rate*discounted*n.CDF(-d2)) / 365,
		Rho:   -years * discounted * n.CDF(-d2) * 0.01,
	}
}

// PutProfitAtExpiry is the profit of size linear puts bought at premium when
// the underlying settles at spot.
func PutProfitAtExpiry(spot, strike, premium, size float64) float64 {
	return (math.Max(strike-spot, 0) - premium) * size
}

// InversePutProfitAtExpiry is the same for inverse puts, which settle in the
// underlying and quote premium as a fraction of it.
func InversePutProfitAtExpiry(spot, strike, premium, size float64) float64 {
	if spot <= 0 {
		return math.NaN()
	}
	return (math.Max(strike-spot, 0)/spot - premium) * size
}
