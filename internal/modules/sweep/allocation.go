// Package sweep searches for the hedge allocation that maximises terminal
// wealth at chosen quantiles, averaging repeated bootstrap runs.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/safehaven/internal/modules/bootstrap"
	"github.com/aristath/safehaven/internal/utils"
	"github.com/aristath/safehaven/pkg/formulas"
)

// ErrInvalidRequest is returned for empty grids or a non-positive repeat count
var ErrInvalidRequest = errors.New("invalid sweep request")

// Service runs allocation sweeps and payoff boundaries
type Service struct {
	pool *WorkerPool
	log  zerolog.Logger
}

// NewService creates a sweep service. numWorkers <= 0 uses one worker per logical CPU.
func NewService(numWorkers int, log zerolog.Logger) *Service {
	return &Service{
		pool: NewWorkerPool(utils.ResolveWorkers(numWorkers)),
		log:  log.With().Str("component", "sweep").Logger(),
	}
}

// AllocationRequest describes an allocation sweep
type AllocationRequest struct {
	Pool        bootstrap.Pool
	Payoffs     []float64
	Years       int
	Samples     int
	Allocations []float64
	Quantiles   []float64
	Repeats     int
	Seed        uint64
}

// Optimum is the best allocation for one quantile
type Optimum struct {
	Quantile   float64 `msgpack:"quantile"`
	Index      int     `msgpack:"index"`
	Allocation float64 `msgpack:"allocation"`
	Value      float64 `msgpack:"value"` // averaged terminal growth factor
	CAGR       float64 `msgpack:"cagr"`
}

// AllocationResult holds the averaged sweep grid
type AllocationResult struct {
	RunID       string        `msgpack:"run_id"`
	Years       int           `msgpack:"years"`
	Repeats     int           `msgpack:"repeats"`
	Allocations []float64     `msgpack:"allocations"`
	Quantiles   []float64     `msgpack:"quantiles"`
	Values      [][]float64   `msgpack:"values"` // [quantile][allocation]
	Optima      []Optimum     `msgpack:"optima"`
	Duration    time.Duration `msgpack:"duration"`
}

// Optimum returns the optimum recorded for quantile q
func (r *AllocationResult) Optimum(q float64) (Optimum, bool) {
	for _, o := range r.Optima {
		if o.Quantile == q {
			return o, true
		}
	}
	return Optimum{}, false
}

func (req AllocationRequest) validate() error {
	if len(req.Allocations) == 0 {
		return fmt.Errorf("%w: no allocations", ErrInvalidRequest)
	}
	if len(req.Quantiles) == 0 {
		return fmt.Errorf("%w: no quantiles", ErrInvalidRequest)
	}
	if req.Repeats < 1 {
		return fmt.Errorf("%w: repeats must be >= 1, got %d", ErrInvalidRequest, req.Repeats)
	}
	return nil
}

// Allocations sweeps the allocation grid.
//
// Every (repeat, allocation) pair is an independent simulation on its own
// random stream. Terminal quantile values are averaged over repeats and the
// optimum per quantile is the first allocation reaching the maximum.
//
// Args:
//   - ctx: cancels outstanding simulations
//   - req: pool, payoffs, horizon, grid and repeats
//
// Returns:
//   - averaged grid with optima, or the first simulation error
func (s *Service) Allocations(ctx context.Context, req AllocationRequest) (*AllocationResult, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	runID := uuid.New().String()
	log := s.log.With().Str("run_id", runID).Logger()
	timer := utils.NewTimer("allocation_sweep", log)

	nAlloc := len(req.Allocations)
	jobs := make([]jobItem, 0, req.Repeats*nAlloc)
	for r := 0; r < req.Repeats; r++ {
		for j, a := range req.Allocations {
			idx := r*nAlloc + j
			jobs = append(jobs, jobItem{
				index:  idx,
				stream: uint64(idx),
				params: bootstrap.Params{
					Allocation: a,
					Payoffs:    req.Payoffs,
					Years:      req.Years,
					Samples:    req.Samples,
				},
			})
		}
	}

	log.Info().
		Int("allocations", nAlloc).
		Int("repeats", req.Repeats).
		Int("samples", req.Samples).
		Int("years", req.Years).
		Msg("Starting allocation sweep")

	raw, err := s.pool.evaluate(ctx, req.Pool, jobs, req.Quantiles, req.Seed)
	if err != nil {
		return nil, fmt.Errorf("allocation sweep failed: %w", err)
	}

	values := make([][]float64, len(req.Quantiles))
	for qi := range req.Quantiles {
		values[qi] = make([]float64, nAlloc)
		for j := 0; j < nAlloc; j++ {
			sum := 0.0
			for r := 0; r < req.Repeats; r++ {
				sum += raw[r*nAlloc+j][qi]
			}
			values[qi][j] = sum / float64(req.Repeats)
		}
	}

	optima := make([]Optimum, len(req.Quantiles))
	for qi, q := range req.Quantiles {
		optima[qi] = optimum(q, req.Allocations, values[qi], req.Years)
		log.Info().
			Float64("quantile", q).
			Float64("allocation", optima[qi].Allocation).
			Float64("cagr", optima[qi].CAGR).
			Msg("Optimal allocation")
	}

	return &AllocationResult{
		RunID:       runID,
		Years:       req.Years,
		Repeats:     req.Repeats,
		Allocations: append([]float64(nil), req.Allocations...),
		Quantiles:   append([]float64(nil), req.Quantiles...),
		Values:      values,
		Optima:      optima,
		Duration:    timer.StopWith(map[string]interface{}{"jobs": len(jobs)}),
	}, nil
}

func optimum(q float64, allocations, values []float64, years int) Optimum {
	idx := formulas.ArgMax(values)
	if idx < 0 {
		return Optimum{Quantile: q, Index: -1}
	}
	return Optimum{
		Quantile:   q,
		Index:      idx,
		Allocation: allocations[idx],
		Value:      values[idx],
		CAGR:       formulas.CAGR(values[idx], years),
	}
}
