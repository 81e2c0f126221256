package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/safehaven/internal/modules/bootstrap"
	"github.com/aristath/safehaven/internal/modules/screening"
)

func summary(t *testing.T) bootstrap.Summary {
	t.Helper()
	traj, err := bootstrap.NewTrajectory([][]float64{
		{1.1, 1.21},
		{0.9, 0.81},
		{1.0, 1.0},
	})
	require.NoError(t, err)
	s, err := bootstrap.Summarize(traj, 0.05, 0.5, 0.95)
	require.NoError(t, err)
	return s
}

func TestSimulationReport_RoundTrip(t *testing.T) {
	report := NewSimulationReport(SimulationMeta{
		RunID:      "run-1",
		Scenario:   "bitcoin",
		Asset:      "bitcoin",
		Allocation: 0.035,
		Samples:    3,
		Seed:       1234,
		Labels:     []string{"crash", "flat"},
		Counts:     []int{20, 87, 5},
		BreakEven:  5.6,
	}, summary(t))

	assert.Equal(t, 2, report.Years)
	require.Len(t, report.Categories, 3)
	assert.Equal(t, CategoryCount{Label: "crash", Count: 20}, report.Categories[0])
	assert.Equal(t, "bin 2", report.Categories[2].Label)
	require.Len(t, report.Quantiles, 3)
	assert.Equal(t, 2, report.Quantiles[1].Index)

	path := filepath.Join(t.TempDir(), "nested", Filename(KindSimulation, "bitcoin", "run-1"))
	require.NoError(t, WriteFile(path, report))

	kind, err := PeekKind(path)
	require.NoError(t, err)
	assert.Equal(t, KindSimulation, kind)

	var got SimulationReport
	require.NoError(t, ReadFile(path, &got))
	assert.Equal(t, report.Quantiles, got.Quantiles)
	assert.Equal(t, report.Mean, got.Mean)
	assert.Equal(t, report.Categories, got.Categories)
	assert.InDelta(t, 0.1, got.TerminalCAGR[0], 1e-12)
	assert.True(t, report.CreatedAt.Equal(got.CreatedAt))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestStressReport_RoundTrip(t *testing.T) {
	puts := []screening.Put{{
		Instrument:  screening.Instrument{Name: "BTC-27DEC24-50000-P", Strike: 50000, Put: true},
		IV:          0.5,
		MarketPrice: 250,
		Underlying:  60000,
	}}
	params := screening.DefaultStressParams()
	params.Drops = []float64{-0.3}
	params.IVIncreases = []float64{0, 0.5}
	res, err := screening.StressGrid(puts, params)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), Filename(KindStress, "", ""))
	require.NoError(t, WriteFile(path, StressReport{Kind: KindStress, Result: res}))

	var got StressReport
	require.NoError(t, ReadFile(path, &got))
	require.NotNil(t, got.Result)
	assert.Equal(t, res.Payoffs, got.Result.Payoffs)
	assert.Equal(t, res.Best.Instrument, got.Result.Best.Instrument)
	assert.True(t, res.Best.AmountSpent.Equal(got.Result.Best.AmountSpent))
	assert.True(t, got.Result.Best.AmountSpent.Equal(decimal.NewFromInt(1000)))
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "sweep-bitcoin-0123abcd.msgpack", Filename(KindSweep, "bitcoin", "0123abcd-ef45-6789"))
	assert.Equal(t, "screen.msgpack", Filename(KindScreen, "", ""))
	assert.Equal(t, "boundary-s_p_500.msgpack", Filename(KindBoundary, "s&p 500", ""))
}

func TestReadFile_Errors(t *testing.T) {
	dir := t.TempDir()
	var r SimulationReport
	assert.Error(t, ReadFile(filepath.Join(dir, "missing.msgpack"), &r))

	bad := filepath.Join(dir, "bad.msgpack")
	require.NoError(t, os.WriteFile(bad, []byte{0xc1}, 0644))
	assert.Error(t, ReadFile(bad, &r))
}

func TestWriteFile_Unencodable(t *testing.T) {
	err := WriteFile(filepath.Join(t.TempDir(), "x.msgpack"), make(chan int))
	assert.Error(t, err)
}
