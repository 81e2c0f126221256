package bootstrap

import (
	"fmt"
	"math"

	"github.com/aristath/safehaven/pkg/formulas"
)

// QuantilePath is a representative simulated path for one quantile of the
// terminal-value distribution.
type QuantilePath struct {
	Q     float64   // requested quantile
	Value float64   // interpolated quantile of the terminal values
	Index int       // path whose terminal value is closest to Value
	Path  []float64 // copy of that path
}

// Terminal returns the final value of the selected path.
func (qp QuantilePath) Terminal() float64 {
	return qp.Path[len(qp.Path)-1]
}

// ExtractQuantilePath computes the q-th quantile of the terminal column
// (linear interpolation between closest ranks) and picks the path whose terminal
// value is nearest to it. The lowest path index wins ties.
func ExtractQuantilePath(t *Trajectory, q float64) (QuantilePath, error) {
	if t.Empty() {
		return QuantilePath{}, ErrEmptyTrajectory
	}
	if math.IsNaN(q) || q < 0 || q > 1 {
		return QuantilePath{}, fmt.Errorf("%w: got %v", ErrInvalidQuantile, q)
	}

	terminal := t.Terminal()
	value := formulas.Quantile(terminal, q)

	best := 0
	bestDist := math.Abs(value - terminal[0])
	for i := 1; i < len(terminal); i++ {
		if d := math.Abs(value - terminal[i]); d < bestDist {
			best, bestDist = i, d
		}
	}

	return QuantilePath{
		Q:     q,
		Value: value,
		Index: best,
		Path:  t.Path(best),
	}, nil
}

// Summary collects what the reporting layer draws for one simulation.
type Summary struct {
	Quantiles    []QuantilePath
	Mean         []float64
	Min          []float64
	Max          []float64
	TerminalCAGR []float64 // per-path compound growth rate over the horizon
}

// Summarize extracts the requested quantile paths together with the mean path,
// the min/max envelope and the distribution of per-path CAGR.
func Summarize(t *Trajectory, quantiles ...float64) (Summary, error) {
	if t.Empty() {
		return Summary{}, ErrEmptyTrajectory
	}

	s := Summary{Quantiles: make([]QuantilePath, 0, len(quantiles))}
	for _, q := range quantiles {
		qp, err := ExtractQuantilePath(t, q)
		if err != nil {
			return Summary{}, err
		}
		s.Quantiles = append(s.Quantiles, qp)
	}

	s.Mean = t.MeanPath()
	s.Min, s.Max = t.Envelope()
	s.TerminalCAGR = formulas.CAGRs(t.Terminal(), t.Years())
	return s, nil
}
