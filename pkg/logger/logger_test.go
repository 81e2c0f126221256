package logger

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Levels(t *testing.T) {
	tests := []struct {
		name  string
		level string
		want  zerolog.Level
	}{
		{"debug", "debug", zerolog.DebugLevel},
		{"info", "info", zerolog.InfoLevel},
		{"warn", "warn", zerolog.WarnLevel},
		{"warning alias", "WARNING", zerolog.WarnLevel},
		{"error", "error", zerolog.ErrorLevel},
		{"empty defaults to info", "", zerolog.InfoLevel},
		{"unknown defaults to info", "verbose", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			New(Config{Level: tt.level})
			assert.Equal(t, tt.want, zerolog.GlobalLevel())
		})
	}
}

func TestNew_WritesStructuredFields(t *testing.T) {
	l := New(Config{Level: "info"})

	var buf bytes.Buffer
	l = l.Output(&buf)
	l.Info().Str("scenario", "bitcoin").Float64("allocation", 0.035).Msg("simulation finished")

	out := buf.String()
	assert.Contains(t, out, "simulation finished")
	assert.Contains(t, out, `"scenario":"bitcoin"`)
	assert.Contains(t, out, `"allocation":0.035`)
	assert.Equal(t, "2006-01-02T15:04:05Z07:00", zerolog.TimeFieldFormat)
}

func TestNew_ErrorLevelFiltersInfo(t *testing.T) {
	l := New(Config{Level: "error"})

	var buf bytes.Buffer
	l = l.Output(&buf)

	l.Info().Msg("hidden")
	assert.NotContains(t, buf.String(), "hidden")

	l.Error().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNew_Pretty(t *testing.T) {
	l := New(Config{Level: "info", Pretty: true})

	var buf bytes.Buffer
	l = l.Output(&buf)
	l.Info().Msg("pretty message")

	assert.Contains(t, buf.String(), "pretty message")
}

func TestSetGlobalLogger(t *testing.T) {
	original := log.Logger
	defer SetGlobalLogger(original)

	var buf bytes.Buffer
	l := New(Config{Level: "info"}).Output(&buf)
	SetGlobalLogger(l)

	log.Info().Msg("through global")
	require.NotEmpty(t, buf.String())
	assert.Contains(t, buf.String(), "through global")
}
