package bootstrap

import (
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trajectoryOf(t *testing.T, rows ...[]float64) *Trajectory {
	t.Helper()
	traj, err := NewTrajectory(rows)
	require.NoError(t, err)
	return traj
}

func TestExtractQuantilePath_MinMedianMax(t *testing.T) {
	traj := trajectoryOf(t,
		[]float64{1.0, 3.0},
		[]float64{1.0, 1.0},
		[]float64{1.0, 2.0},
		[]float64{1.0, 5.0},
		[]float64{1.0, 4.0},
	)

	tests := []struct {
		q         float64
		wantValue float64
		wantIndex int
	}{
		{0, 1, 1},
		{0.5, 3, 0},
		{1, 5, 3},
		{0.25, 2, 2},
		{0.9, 4.6, 3},
	}

	for _, tt := range tests {
		qp, err := ExtractQuantilePath(traj, tt.q)
		require.NoError(t, err)
		assert.InDelta(t, tt.wantValue, qp.Value, 1e-12, "q=%v", tt.q)
		assert.Equal(t, tt.wantIndex, qp.Index, "q=%v", tt.q)
		assert.Equal(t, traj.Path(tt.wantIndex), qp.Path)
		assert.Equal(t, tt.q, qp.Q)
	}
}

func TestExtractQuantilePath_TieGoesToFirstPath(t *testing.T) {
	// median interpolates to 2.0, equally far from both paths
	traj := trajectoryOf(t, []float64{3}, []float64{1})

	qp, err := ExtractQuantilePath(traj, 0.5)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, qp.Value, 1e-12)
	assert.Equal(t, 0, qp.Index)
	assert.Equal(t, 3.0, qp.Terminal())
}

func TestExtractQuantilePath_ClosestTerminal(t *testing.T) {
	traj, err := Simulate(crashPool(), Params{Allocation: 0.05, Payoffs: []float64{6, 0.2}, Years: 12, Samples: 501}, NewRand(42, 0))
	require.NoError(t, err)

	terminal := traj.Terminal()
	sorted := append([]float64(nil), terminal...)
	sort.Float64s(sorted)

	for _, q := range []float64{0, 0.05, 0.5, 0.95, 1} {
		qp, err := ExtractQuantilePath(traj, q)
		require.NoError(t, err)

		dist := math.Abs(qp.Terminal() - qp.Value)
		for _, v := range terminal {
			assert.LessOrEqual(t, dist, math.Abs(v-qp.Value), "q=%v", q)
		}

		// the quantile sits between two neighbouring order statistics; the chosen
		// terminal cannot be further away than their gap
		h := float64(len(sorted)-1) * q
		lo := int(math.Floor(h))
		hi := lo
		if lo+1 < len(sorted) {
			hi = lo + 1
		}
		assert.LessOrEqual(t, dist, sorted[hi]-sorted[lo]+1e-12, "q=%v", q)
	}
}

func TestExtractQuantilePath_Errors(t *testing.T) {
	_, err := ExtractQuantilePath(trajectoryOf(t), 0.5)
	assert.ErrorIs(t, err, ErrEmptyTrajectory)

	_, err = ExtractQuantilePath(trajectoryOf(t, []float64{}), 0.5)
	assert.ErrorIs(t, err, ErrEmptyTrajectory)

	_, err = ExtractQuantilePath(nil, 0.5)
	assert.ErrorIs(t, err, ErrEmptyTrajectory)

	traj := trajectoryOf(t, []float64{1, 2})
	for _, q := range []float64{-0.01, 1.01, math.NaN()} {
		_, err = ExtractQuantilePath(traj, q)
		assert.ErrorIs(t, err, ErrInvalidQuantile)
	}
}

func TestNewTrajectory_Ragged(t *testing.T) {
	_, err := NewTrajectory([][]float64{{1, 2}, {1}})
	assert.ErrorIs(t, err, ErrRaggedTrajectory)
}

func TestTrajectory_ReadOnlyCopies(t *testing.T) {
	traj := trajectoryOf(t, []float64{1, 2}, []float64{3, 4})

	path := traj.Path(0)
	path[0] = 100
	m := traj.Matrix()
	m.Set(1, 1, -1)

	assert.Equal(t, 1.0, traj.At(0, 0))
	assert.Equal(t, 4.0, traj.At(1, 1))
}

func TestSummarize(t *testing.T) {
	traj := trajectoryOf(t,
		[]float64{1.1, 1.21},
		[]float64{0.9, 0.81},
		[]float64{1.0, 1.0},
	)

	s, err := Summarize(traj, 0.05, 0.5, 0.95)
	require.NoError(t, err)

	require.Len(t, s.Quantiles, 3)
	assert.Equal(t, 2, s.Quantiles[1].Index)
	assert.InDelta(t, 1.0, s.Mean[0], 1e-12)
	assert.InDelta(t, (1.21+0.81+1.0)/3, s.Mean[1], 1e-12)
	assert.Equal(t, []float64{0.9, 0.81}, s.Min)
	assert.Equal(t, []float64{1.1, 1.21}, s.Max)
	require.Len(t, s.TerminalCAGR, 3)
	assert.InDelta(t, 0.1, s.TerminalCAGR[0], 1e-12)
	assert.InDelta(t, -0.1, s.TerminalCAGR[1], 1e-12)

	_, err = Summarize(traj, 2)
	assert.ErrorIs(t, err, ErrInvalidQuantile)

	_, err = Summarize(trajectoryOf(t))
	assert.ErrorIs(t, err, ErrEmptyTrajectory)
}
