package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCSV(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"empty", "", nil},
		{"whitespace only", "   ", nil},
		{"only commas", ",,,", nil},
		{"single value", "bitcoin", []string{"bitcoin"}},
		{"trims values", " 0.05 , 0.5,0.95 ", []string{"0.05", "0.5", "0.95"}},
		{"skips empty entries", ",a,,b,", []string{"a", "b"}},
		{"keeps inner spaces", "s&p 500, gold", []string{"s&p 500", "gold"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseCSV(tt.input))
		})
	}
}

func TestParseFloats(t *testing.T) {
	got, err := ParseFloats("0.05, 0.5,0.95")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.05, 0.5, 0.95}, got)

	got, err = ParseFloats("-inf,-0.15,0,inf")
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.True(t, math.IsInf(got[0], -1))
	assert.Equal(t, -0.15, got[1])
	assert.True(t, math.IsInf(got[3], 1))

	got, err = ParseFloats("")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = ParseFloats("0.1,abc")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), `"abc"`)
}
