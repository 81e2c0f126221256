package utils

import (
	"time"

	"github.com/rs/zerolog"
)

// slowThreshold is the duration after which a timed operation is reported at warn level
const slowThreshold = 30 * time.Second

// Timer measures the duration of a simulation run or sweep
type Timer struct {
	start time.Time
	name  string
	log   zerolog.Logger
}

// NewTimer creates a new timer with the given name
func NewTimer(name string, log zerolog.Logger) *Timer {
	return &Timer{
		start: time.Now(),
		name:  name,
		log:   log,
	}
}

// Stop logs the elapsed duration and returns it
func (t *Timer) Stop() time.Duration {
	return t.StopWith(nil)
}

// StopWith logs the elapsed duration together with extra fields
func (t *Timer) StopWith(fields map[string]interface{}) time.Duration {
	duration := time.Since(t.start)

	event := t.log.Debug()
	if duration > slowThreshold {
		event = t.log.Warn()
	}

	event.
		Str("operation", t.name).
		Dur("duration_ms", duration).
		Fields(fields).
		Msg("Performance measurement")

	return duration
}

// OperationTimer provides a defer-friendly way to measure operation duration
//
// Usage:
//
//	defer utils.OperationTimer("allocation_sweep", log)()
func OperationTimer(operation string, log zerolog.Logger) func() {
	t := NewTimer(operation, log)
	return func() { t.Stop() }
}
