package sweep

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aristath/safehaven/internal/modules/bootstrap"
	"github.com/aristath/safehaven/internal/utils"
	"github.com/aristath/safehaven/pkg/formulas"
)

// BoundaryRequest describes a payoff x allocation grid. Each scale multiplies
// every entry of BasePayoffs. CrashCategory picks the payoff reported per scale.
type BoundaryRequest struct {
	Pool          bootstrap.Pool
	BasePayoffs   []float64
	CrashCategory int
	Years       int
	Samples     int
	Scales      []float64
	Allocations []float64
	Quantiles   []float64
	Repeats     int
	Seed        uint64
}

// ScalePoint is the best allocation found for one payoff scale and quantile
type ScalePoint struct {
	Scale   float64 `msgpack:"scale"`
	Payoff  float64 `msgpack:"payoff"` // crash payoff times scale
	Optimum Optimum `msgpack:"optimum"`
	// Hedged reports whether the best hedged value beats the unhedged baseline
	Hedged bool `msgpack:"hedged"`
}

// QuantileBoundary is the cost-effective boundary for one quantile
type QuantileBoundary struct {
	Quantile     float64      `msgpack:"quantile"`
	Grid         [][]float64  `msgpack:"grid"` // [scale][allocation]
	Points       []ScalePoint `msgpack:"points"`
	Baseline     float64      `msgpack:"baseline"`
	BaselineCAGR float64      `msgpack:"baseline_cagr"`
}

// BoundaryResult holds one boundary per quantile
type BoundaryResult struct {
	RunID       string             `msgpack:"run_id"`
	Years       int                `msgpack:"years"`
	Repeats     int                `msgpack:"repeats"`
	Scales      []float64          `msgpack:"scales"`
	Allocations []float64          `msgpack:"allocations"`
	Boundaries  []QuantileBoundary `msgpack:"boundaries"`
	Duration    time.Duration      `msgpack:"duration"`
}

func (req BoundaryRequest) validate() error {
	if len(req.Scales) == 0 {
		return fmt.Errorf("%w: no payoff scales", ErrInvalidRequest)
	}
	if len(req.BasePayoffs) == 0 {
		return fmt.Errorf("%w: no base payoffs", ErrInvalidRequest)
	}
	if req.CrashCategory < 0 || req.CrashCategory >= len(req.BasePayoffs) {
		return fmt.Errorf("%w: crash category %d outside [0, %d)", ErrInvalidRequest, req.CrashCategory, len(req.BasePayoffs))
	}
	return AllocationRequest{
		Allocations: req.Allocations,
		Quantiles:   req.Quantiles,
		Repeats:     req.Repeats,
	}.validate()
}

func scalePayoffs(base []float64, scale float64) []float64 {
	out := make([]float64, len(base))
	for i, p := range base {
		out[i] = p * scale
	}
	return out
}

// Boundary evaluates the payoff x allocation grid plus an unhedged baseline.
//
// Job layout: the baseline runs occupy streams [0, Repeats); grid cell
// (scale s, repeat r, allocation j) uses stream Repeats + (s*Repeats+r)*len(Allocations) + j.
// Values are averaged over repeats, and for every scale the first allocation
// reaching the maximum is reported.
func (s *Service) Boundary(ctx context.Context, req BoundaryRequest) (*BoundaryResult, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	runID := uuid.New().String()
	log := s.log.With().Str("run_id", runID).Logger()
	timer := utils.NewTimer("payoff_boundary", log)

	nScale := len(req.Scales)
	nAlloc := len(req.Allocations)
	base := req.Repeats

	jobs := make([]jobItem, 0, base+nScale*req.Repeats*nAlloc)
	for r := 0; r < req.Repeats; r++ {
		jobs = append(jobs, jobItem{
			index:  r,
			stream: uint64(r),
			params: bootstrap.Params{
				Allocation: 0,
				Payoffs:    req.BasePayoffs,
				Years:      req.Years,
				Samples:    req.Samples,
			},
		})
	}
	for si, scale := range req.Scales {
		payoffs := scalePayoffs(req.BasePayoffs, scale)
		for r := 0; r < req.Repeats; r++ {
			for j, a := range req.Allocations {
				idx := base + (si*req.Repeats+r)*nAlloc + j
				jobs = append(jobs, jobItem{
					index:  idx,
					stream: uint64(idx),
					params: bootstrap.Params{
						Allocation: a,
						Payoffs:    payoffs,
						Years:      req.Years,
						Samples:    req.Samples,
					},
				})
			}
		}
	}

	log.Info().
		Int("scales", nScale).
		Int("allocations", nAlloc).
		Int("repeats", req.Repeats).
		Int("jobs", len(jobs)).
		Msg("Starting payoff boundary")

	raw, err := s.pool.evaluate(ctx, req.Pool, jobs, req.Quantiles, req.Seed)
	if err != nil {
		return nil, fmt.Errorf("payoff boundary failed: %w", err)
	}

	boundaries := make([]QuantileBoundary, len(req.Quantiles))
	for qi, q := range req.Quantiles {
		baseline := 0.0
		for r := 0; r < req.Repeats; r++ {
			baseline += raw[r][qi]
		}
		baseline /= float64(req.Repeats)

		grid := make([][]float64, nScale)
		points := make([]ScalePoint, nScale)
		for si, scale := range req.Scales {
			grid[si] = make([]float64, nAlloc)
			for j := 0; j < nAlloc; j++ {
				sum := 0.0
				for r := 0; r < req.Repeats; r++ {
					sum += raw[base+(si*req.Repeats+r)*nAlloc+j][qi]
				}
				grid[si][j] = sum / float64(req.Repeats)
			}

			best := optimum(q, req.Allocations, grid[si], req.Years)
			points[si] = ScalePoint{
				Scale:   scale,
				Payoff:  req.BasePayoffs[req.CrashCategory] * scale,
				Optimum: best,
				Hedged:  best.Index >= 0 && best.Allocation > 0 && best.Value > baseline,
			}
		}

		boundaries[qi] = QuantileBoundary{
			Quantile:     q,
			Grid:         grid,
			Points:       points,
			Baseline:     baseline,
			BaselineCAGR: formulas.CAGR(baseline, req.Years),
		}
	}

	return &BoundaryResult{
		RunID:       runID,
		Years:       req.Years,
		Repeats:     req.Repeats,
		Scales:      append([]float64(nil), req.Scales...),
		Allocations: append([]float64(nil), req.Allocations...),
		Boundaries:  boundaries,
		Duration:    timer.StopWith(map[string]interface{}{"jobs": len(jobs)}),
	}, nil
}

// BreakEvenScale returns the smallest scale whose best allocation beats the
// unhedged baseline, or false when no scale does
func (b QuantileBoundary) BreakEvenScale() (float64, bool) {
	found := false
	lowest := 0.0
	for _, p := range b.Points {
		if p.Hedged && (!found || p.Scale < lowest) {
			lowest = p.Scale
			found = true
		}
	}
	return lowest, found
}
