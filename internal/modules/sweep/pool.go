package sweep

import (
	"context"
	"sync"

	"github.com/aristath/safehaven/internal/modules/bootstrap"
)

// WorkerPool runs independent simulations on a fixed number of goroutines
type WorkerPool struct {
	numWorkers int
}

// NewWorkerPool creates a new worker pool with the specified number of workers
func NewWorkerPool(numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	return &WorkerPool{numWorkers: numWorkers}
}

// jobItem is one simulation of the grid
type jobItem struct {
	index  int
	stream uint64
	params bootstrap.Params
}

// resultItem holds the terminal quantile values of one simulation
type resultItem struct {
	index  int
	values []float64
	err    error
}

// evaluate simulates every job and returns, per job, the terminal value at
// each requested quantile.
//
// Job i draws from bootstrap.NewRand(seed, jobs[i].stream), so results do not
// depend on how many workers run or how they are scheduled.
//
// Returns:
//   - values indexed like jobs
//   - the first simulation error, or ctx.Err() after cancellation
func (wp *WorkerPool) evaluate(
	ctx context.Context,
	pool bootstrap.Pool,
	jobs []jobItem,
	quantiles []float64,
	seed uint64,
) ([][]float64, error) {
	numJobs := len(jobs)
	if numJobs == 0 {
		return [][]float64{}, nil
	}

	jobCh := make(chan jobItem, numJobs)
	results := make(chan resultItem, numJobs)

	numActualWorkers := wp.numWorkers
	if numJobs < numActualWorkers {
		numActualWorkers = numJobs // Don't spawn more workers than jobs
	}

	var wg sync.WaitGroup
	for i := 0; i < numActualWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker(ctx, pool, jobCh, results, quantiles, seed)
		}()
	}

	for _, j := range jobs {
		jobCh <- j
	}
	close(jobCh)

	go func() {
		wg.Wait()
		close(results)
	}()

	out := make([][]float64, numJobs)
	var firstErr error
	for r := range results {
		if r.err != nil {
			if firstErr == nil {
				firstErr = r.err
			}
			continue
		}
		out[r.index] = r.values
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

func worker(
	ctx context.Context,
	pool bootstrap.Pool,
	jobs <-chan jobItem,
	results chan<- resultItem,
	quantiles []float64,
	seed uint64,
) {
	for job := range jobs {
		if ctx.Err() != nil {
			results <- resultItem{index: job.index, err: ctx.Err()}
			continue
		}

		values, err := simulateQuantiles(pool, job, quantiles, seed)
		results <- resultItem{index: job.index, values: values, err: err}
	}
}

func simulateQuantiles(pool bootstrap.Pool, job jobItem, quantiles []float64, seed uint64) ([]float64, error) {
	traj, err := bootstrap.Simulate(pool, job.params, bootstrap.NewRand(seed, job.stream))
	if err != nil {
		return nil, err
	}

	values := make([]float64, len(quantiles))
	for i, q := range quantiles {
		qp, err := bootstrap.ExtractQuantilePath(traj, q)
		if err != nil {
			return nil, err
		}
		values[i] = qp.Value
	}
	return values, nil
}
