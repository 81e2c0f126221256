package bootstrap

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ErrRaggedTrajectory is returned when building a trajectory from rows of unequal length.
var ErrRaggedTrajectory = errors.New("trajectory rows have unequal length")

// Trajectory is a samples x years matrix of cumulative growth factors.
// Cell (i, t) is the growth of simulated path i through period t.
// A Trajectory is never modified after it is returned.
type Trajectory struct {
	m *mat.Dense // nil for an empty trajectory
}

// NewTrajectory copies the given rows into a trajectory. Zero rows or zero-length
// rows produce an empty trajectory.
func NewTrajectory(rows [][]float64) (*Trajectory, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return &Trajectory{}, nil
	}

	years := len(rows[0])
	data := make([]float64, 0, len(rows)*years)
	for i, row := range rows {
		if len(row) != years {
			return nil, fmt.Errorf("%w: row %d has %d periods, want %d", ErrRaggedTrajectory, i, len(row), years)
		}
		data = append(data, row...)
	}
	return &Trajectory{m: mat.NewDense(len(rows), years, data)}, nil
}

// Samples returns the number of simulated paths.
func (t *Trajectory) Samples() int {
	if t == nil || t.m == nil {
		return 0
	}
	r, _ := t.m.Dims()
	return r
}

// Years returns the number of periods per path.
func (t *Trajectory) Years() int {
	if t == nil || t.m == nil {
		return 0
	}
	_, c := t.m.Dims()
	return c
}

// Empty reports whether the trajectory has no paths or no periods.
func (t *Trajectory) Empty() bool {
	return t.Samples() == 0 || t.Years() == 0
}

// At returns the cumulative growth of path i through period p.
func (t *Trajectory) At(i, p int) float64 {
	return t.m.At(i, p)
}

// Path returns a copy of path i.
func (t *Trajectory) Path(i int) []float64 {
	return mat.Row(nil, i, t.m)
}

// Terminal returns a copy of the final-period column.
func (t *Trajectory) Terminal() []float64 {
	if t.Empty() {
		return []float64{}
	}
	return mat.Col(nil, t.Years()-1, t.m)
}

// Matrix returns a copy of the underlying matrix.
func (t *Trajectory) Matrix() *mat.Dense {
	if t.Empty() {
		return nil
	}
	return mat.DenseCopyOf(t.m)
}

// MeanPath returns the cross-sectional mean for every period.
func (t *Trajectory) MeanPath() []float64 {
	out := make([]float64, t.Years())
	col := make([]float64, t.Samples())
	for p := range out {
		mat.Col(col, p, t.m)
		out[p] = stat.Mean(col, nil)
	}
	return out
}

// Envelope returns the per-period minimum and maximum across all paths.
func (t *Trajectory) Envelope() (lo, hi []float64) {
	lo = make([]float64, t.Years())
	hi = make([]float64, t.Years())
	col := make([]float64, t.Samples())
	for p := range lo {
		mat.Col(col, p, t.m)
		lo[p] = floats.Min(col)
		hi[p] = floats.Max(col)
	}
	return lo, hi
}
