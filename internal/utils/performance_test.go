package utils

import (
	"bytes"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestTimer_StopLogsOperation(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf).Level(zerolog.DebugLevel)

	timer := NewTimer("allocation_sweep", log)
	time.Sleep(time.Millisecond)
	d := timer.StopWith(map[string]interface{}{"jobs": 41})

	assert.GreaterOrEqual(t, d, time.Millisecond)
	out := buf.String()
	assert.Contains(t, out, `"operation":"allocation_sweep"`)
	assert.Contains(t, out, `"jobs":41`)
	assert.Contains(t, out, "Performance measurement")
}

func TestOperationTimer(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf).Level(zerolog.DebugLevel)

	func() {
		defer OperationTimer("stress_grid", log)()
	}()

	assert.Contains(t, buf.String(), `"operation":"stress_grid"`)
}

func TestTimer_SilentAboveDebug(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf).Level(zerolog.InfoLevel)

	NewTimer("quick", log).Stop()
	assert.Empty(t, buf.String())
}
