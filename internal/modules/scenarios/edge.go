package scenarios

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Edge is a bin boundary. In YAML it accepts plain numbers as well as
// "inf", "+inf", "-inf" and the YAML forms ".inf" / "-.inf".
type Edge float64

// UnmarshalYAML implements yaml.Unmarshaler
func (e *Edge) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: edge must be a scalar", node.Line)
	}

	v, err := parseEdge(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*e = Edge(v)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (e Edge) MarshalYAML() (interface{}, error) {
	v := float64(e)
	switch {
	case math.IsInf(v, 1):
		return "inf", nil
	case math.IsInf(v, -1):
		return "-inf", nil
	}
	return v, nil
}

func parseEdge(s string) (float64, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "inf", "+inf", ".inf", "+.inf", "infinity":
		return math.Inf(1), nil
	case "-inf", "-.inf", "-infinity":
		return math.Inf(-1), nil
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid edge %q", s)
	}
	if math.IsNaN(v) {
		return 0, fmt.Errorf("invalid edge %q", s)
	}
	return v, nil
}

func edgesToFloats(edges []Edge) []float64 {
	out := make([]float64, len(edges))
	for i, e := range edges {
		out[i] = float64(e)
	}
	return out
}

// formatPercent renders a fractional return as a percentage label, 0.15 -> "15%"
func formatPercent(v float64) string {
	pct := math.Round(v*10000) / 100
	return strconv.FormatFloat(pct, 'f', -1, 64) + "%"
}

// defaultLabels builds "<-15%", "-15% to 0%", ..., ">30%" style labels.
// Outer bins are open-ended regardless of the outer edge values.
func defaultLabels(edges []float64) []string {
	n := len(edges) - 1
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []string{"all"}
	}

	labels := make([]string, n)
	for i := 0; i < n; i++ {
		switch i {
		case 0:
			labels[i] = "<" + formatPercent(edges[1])
		case n - 1:
			labels[i] = ">" + formatPercent(edges[n-1])
		default:
			labels[i] = formatPercent(edges[i]) + " to " + formatPercent(edges[i+1])
		}
	}
	return labels
}
