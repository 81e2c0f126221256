// Package export writes simulation, sweep and screening results as msgpack
// files for the plotting layer.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/safehaven/internal/modules/bootstrap"
	"github.com/aristath/safehaven/internal/modules/screening"
	"github.com/aristath/safehaven/internal/modules/sweep"
)

// Kind identifies the report stored in a file
type Kind string

const (
	KindSimulation Kind = "simulation"
	KindSweep      Kind = "sweep"
	KindBoundary   Kind = "boundary"
	KindScreen     Kind = "screen"
	KindStress     Kind = "stress"
)

// Extension of every exported file
const Extension = ".msgpack"

// QuantileSeries is one representative path
type QuantileSeries struct {
	Quantile float64   `msgpack:"quantile"`
	Value    float64   `msgpack:"value"`
	Index    int       `msgpack:"index"`
	Path     []float64 `msgpack:"path"`
}

// CategoryCount is one bar of the return histogram
type CategoryCount struct {
	Label string `msgpack:"label"`
	Count int    `msgpack:"count"`
}

// SimulationMeta describes the run a simulation report came from
type SimulationMeta struct {
	RunID      string
	Scenario   string
	Asset      string
	Allocation float64
	Samples    int
	Seed       uint64
	Labels     []string
	Counts     []int
	BreakEven  float64
}

// SimulationReport is everything drawn for one simulated allocation
type SimulationReport struct {
	Kind         Kind             `msgpack:"kind"`
	RunID        string           `msgpack:"run_id"`
	Scenario     string           `msgpack:"scenario"`
	Asset        string           `msgpack:"asset"`
	Allocation   float64          `msgpack:"allocation"`
	Years        int              `msgpack:"years"`
	Samples      int              `msgpack:"samples"`
	Seed         uint64           `msgpack:"seed"`
	Categories   []CategoryCount  `msgpack:"categories"`
	BreakEven    float64          `msgpack:"break_even"`
	Quantiles    []QuantileSeries `msgpack:"quantiles"`
	Mean         []float64        `msgpack:"mean"`
	Min          []float64        `msgpack:"min"`
	Max          []float64        `msgpack:"max"`
	TerminalCAGR []float64        `msgpack:"terminal_cagr"`
	CreatedAt    time.Time        `msgpack:"created_at"`
}

// NewSimulationReport flattens a trajectory summary into a report
func NewSimulationReport(meta SimulationMeta, s bootstrap.Summary) SimulationReport {
	r := SimulationReport{
		Kind:         KindSimulation,
		RunID:        meta.RunID,
		Scenario:     meta.Scenario,
		Asset:        meta.Asset,
		Allocation:   meta.Allocation,
		Years:        len(s.Mean),
		Samples:      meta.Samples,
		Seed:         meta.Seed,
		BreakEven:    meta.BreakEven,
		Mean:         s.Mean,
		Min:          s.Min,
		Max:          s.Max,
		TerminalCAGR: s.TerminalCAGR,
		CreatedAt:    time.Now().UTC(),
	}

	for i, c := range meta.Counts {
		label := fmt.Sprintf("bin %d", i)
		if i < len(meta.Labels) {
			label = meta.Labels[i]
		}
		r.Categories = append(r.Categories, CategoryCount{Label: label, Count: c})
	}

	for _, qp := range s.Quantiles {
		r.Quantiles = append(r.Quantiles, QuantileSeries{
			Quantile: qp.Q,
			Value:    qp.Value,
			Index:    qp.Index,
			Path:     qp.Path,
		})
	}
	return r
}

// SweepReport wraps an allocation sweep
type SweepReport struct {
	Kind     Kind                    `msgpack:"kind"`
	Scenario string                  `msgpack:"scenario"`
	Result   *sweep.AllocationResult `msgpack:"result"`
}

// BoundaryReport wraps a payoff x allocation boundary
type BoundaryReport struct {
	Kind        Kind                  `msgpack:"kind"`
	Scenario    string                `msgpack:"scenario"`
	BasePayoffs []float64             `msgpack:"base_payoffs"`
	Result      *sweep.BoundaryResult `msgpack:"result"`
}

// ScreenReport holds screened quotes
type ScreenReport struct {
	Kind   Kind                   `msgpack:"kind"`
	Params screening.ScreenParams `msgpack:"params"`
	Quotes []screening.Screened   `msgpack:"quotes"`
}

// StressReport wraps a stress grid
type StressReport struct {
	Kind   Kind                    `msgpack:"kind"`
	Result *screening.StressResult `msgpack:"result"`
}

// Filename builds "<kind>-<scenario>-<run id prefix>.msgpack"
func Filename(kind Kind, scenario, runID string) string {
	parts := []string{string(kind)}
	if scenario != "" {
		parts = append(parts, sanitize(scenario))
	}
	if runID != "" {
		if len(runID) > 8 {
			runID = runID[:8]
		}
		parts = append(parts, runID)
	}
	return strings.Join(parts, "-") + Extension
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, s)
}

// WriteFile encodes v and replaces path atomically, creating parent directories
func WriteFile(path string, v interface{}) error {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".report-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close report: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move report into place: %w", err)
	}
	return nil
}

// ReadFile decodes a file written by WriteFile into v
func ReadFile(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read report: %w", err)
	}
	if err := msgpack.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode report: %w", err)
	}
	return nil
}

// PeekKind returns the kind of report stored at path
func PeekKind(path string) (Kind, error) {
	var head struct {
		Kind Kind `msgpack:"kind"`
	}
	if err := ReadFile(path, &head); err != nil {
		return "", err
	}
	return head.Kind, nil
}
