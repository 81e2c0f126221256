package bootstrap

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
)

// DefaultChunkSize is the number of paths simulated per chunk when none is configured.
const DefaultChunkSize = 1024

// Runner simulates large batches in fixed-size chunks across a pool of workers.
//
// Chunk k draws from its own stream NewRand(seed, k) and writes a disjoint range
// of rows, so the output depends only on the seed and the chunk size, never on the
// number of workers or on scheduling.
type Runner struct {
	numWorkers int
	chunkSize  int
	log        zerolog.Logger
}

// NewRunner creates a runner. Non-positive values fall back to one worker and DefaultChunkSize.
func NewRunner(numWorkers, chunkSize int, log zerolog.Logger) *Runner {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Runner{
		numWorkers: numWorkers,
		chunkSize:  chunkSize,
		log:        log.With().Str("component", "bootstrap_runner").Logger(),
	}
}

// chunk is a half-open row range [from, to)
type chunk struct {
	index    int
	from, to int
}

// SimulateParallel is the chunked, parallel counterpart of Simulate.
//
// Cancellation is honoured between chunks: once ctx is done no new chunk starts
// and ctx.Err() is returned. With a chunk size of at least p.Samples the result is
// identical to Simulate(pool, p, NewRand(seed, 0)).
func (r *Runner) SimulateParallel(ctx context.Context, pool Pool, p Params, seed uint64) (*Trajectory, error) {
	factors, err := growthFactors(pool, p)
	if err != nil {
		return nil, err
	}

	numChunks := (p.Samples + r.chunkSize - 1) / r.chunkSize
	jobs := make(chan chunk, numChunks)
	for k := 0; k < numChunks; k++ {
		to := (k + 1) * r.chunkSize
		if to > p.Samples {
			to = p.Samples
		}
		jobs <- chunk{index: k, from: k * r.chunkSize, to: to}
	}
	close(jobs)

	numActualWorkers := r.numWorkers
	if numChunks < numActualWorkers {
		numActualWorkers = numChunks
	}

	r.log.Debug().
		Int("samples", p.Samples).
		Int("years", p.Years).
		Int("chunks", numChunks).
		Int("workers", numActualWorkers).
		Msg("Starting parallel simulation")

	data := make([]float64, p.Samples*p.Years)
	var wg sync.WaitGroup
	for w := 0; w < numActualWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range jobs {
				if ctx.Err() != nil {
					return
				}
				fillRows(data, p.Years, c.from, c.to, factors, NewRand(seed, uint64(c.index)))
			}
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Trajectory{m: mat.NewDense(p.Samples, p.Years, data)}, nil
}
