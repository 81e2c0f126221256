package screening

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/aristath/safehaven/pkg/formulas"
)

// StressParams configures StressGrid
type StressParams struct {
	Drops        []float64       // underlying moves, e.g. -0.2
	IVIncreases  []float64       // relative IV bumps, e.g. 0.5 = +50%
	Budget       decimal.Decimal // cash available per scenario
	RiskFreeRate float64
	Maturity     float64 // years left when the stress hits
}

// DefaultStressParams is the grid of 10-40% drops and 0-100% IV increases
func DefaultStressParams() StressParams {
	return StressParams{
		Drops:        []float64{-0.10, -0.20, -0.30, -0.40},
		IVIncreases:  []float64{0, 0.10, 0.20, 0.30, 0.40, 0.50, 0.60, 0.8, 1},
		Budget:       decimal.NewFromInt(1000),
		RiskFreeRate: 0.05,
		Maturity:     36.0 / 365,
	}
}

// Pick is the best put for one stress scenario
type Pick struct {
	Drop        float64         `msgpack:"drop"`
	IVIncrease  float64         `msgpack:"iv_increase"`
	Instrument  string          `msgpack:"instrument"`
	Strike      float64         `msgpack:"strike"`
	MarketPrice float64         `msgpack:"market_price"`
	NewPrice    float64         `msgpack:"new_price"`
	Contracts   int64           `msgpack:"contracts"`
	Payoff      float64         `msgpack:"payoff"`       // (new - market) / market
	Score       float64         `msgpack:"score"`        // Payoff x Contracts
	AmountSpent decimal.Decimal `msgpack:"amount_spent"` // Contracts x MarketPrice
	TotalValue  decimal.Decimal `msgpack:"total_value"`  // Contracts x NewPrice
}

// StrikeGroup lists the scenarios a strike won
type StrikeGroup struct {
	Strike float64 `msgpack:"strike"`
	Picks  []Pick  `msgpack:"picks"`
}

// StressResult is the full drop x IV grid
type StressResult struct {
	Drops       []float64     `msgpack:"drops"`
	IVIncreases []float64     `msgpack:"iv_increases"`
	Payoffs     [][]float64   `msgpack:"payoffs"` // best score per cell
	Strikes     [][]float64   `msgpack:"strikes"` // winning strike per cell
	Cells       [][]Pick      `msgpack:"cells"`
	ByStrike    []StrikeGroup `msgpack:"by_strike"` // first-seen strike order
	Best        Pick          `msgpack:"best"`
}

// Contracts is how many whole options fit in the budget: floor(budget / price)
func Contracts(budget decimal.Decimal, price float64) int64 {
	p := decimal.NewFromFloat(price)
	if !p.IsPositive() || !budget.IsPositive() {
		return 0
	}
	return budget.Div(p).Floor().IntPart()
}

// StressGrid reprices every put under each (drop, IV increase) pair and keeps,
// per cell, the put with the highest Payoff x Contracts.
//
// The first put reaching a cell's maximum wins, and the first cell reaching
// the overall maximum is Best.
func StressGrid(puts []Put, p StressParams) (*StressResult, error) {
	if len(puts) == 0 {
		return nil, ErrEmptyBook
	}
	if len(p.Drops) == 0 || len(p.IVIncreases) == 0 {
		return nil, fmt.Errorf("stress grid needs at least one drop and one IV increase")
	}

	res := &StressResult{
		Drops:       append([]float64(nil), p.Drops...),
		IVIncreases: append([]float64(nil), p.IVIncreases...),
		Payoffs:     make([][]float64, len(p.Drops)),
		Strikes:     make([][]float64, len(p.Drops)),
		Cells:       make([][]Pick, len(p.Drops)),
	}

	groupIdx := make(map[float64]int)
	bestScore := math.Inf(-1)
	for i, drop := range p.Drops {
		res.Payoffs[i] = make([]float64, len(p.IVIncreases))
		res.Strikes[i] = make([]float64, len(p.IVIncreases))
		res.Cells[i] = make([]Pick, len(p.IVIncreases))

		for j, bump := range p.IVIncreases {
			pick := bestPick(puts, drop, bump, p)

			res.Payoffs[i][j] = pick.Score
			res.Strikes[i][j] = pick.Strike
			res.Cells[i][j] = pick

			g, ok := groupIdx[pick.Strike]
			if !ok {
				g = len(res.ByStrike)
				groupIdx[pick.Strike] = g
				res.ByStrike = append(res.ByStrike, StrikeGroup{Strike: pick.Strike})
			}
			res.ByStrike[g].Picks = append(res.ByStrike[g].Picks, pick)

			if pick.Score > bestScore {
				bestScore = pick.Score
				res.Best = pick
			}
		}
	}
	return res, nil
}

func bestPick(puts []Put, drop, bump float64, p StressParams) Pick {
	var best Pick
	bestScore := math.Inf(-1)
	for _, put := range puts {
		if !(put.MarketPrice > 0) {
			continue
		}
		newPrice := formulas.BlackScholesPut(
			put.Underlying*(1+drop), put.Strike, p.Maturity, p.RiskFreeRate, put.IV*(1+bump))
		payoff := (newPrice - put.MarketPrice) / put.MarketPrice
		contracts := Contracts(p.Budget, put.MarketPrice)
		score := payoff * float64(contracts)

		if score > bestScore {
			bestScore = score
			n := decimal.NewFromInt(contracts)
			best = Pick{
				Drop:        drop,
				IVIncrease:  bump,
				Instrument:  put.Name,
				Strike:      put.Strike,
				MarketPrice: put.MarketPrice,
				NewPrice:    newPrice,
				Contracts:   contracts,
				Payoff:      payoff,
				Score:       score,
				AmountSpent: n.Mul(decimal.NewFromFloat(put.MarketPrice)),
				TotalValue:  n.Mul(decimal.NewFromFloat(newPrice)),
			}
		}
	}
	return best
}
