package scenarios

import "math"

// Builtins returns the scenarios that ship with the tool, defaults applied.
// A fresh copy is returned on every call.
func Builtins() []Scenario {
	inf := Edge(math.Inf(1))
	ninf := Edge(math.Inf(-1))

	crash := 5.39
	list := []Scenario{
		{
			Name:          "bitcoin",
			Asset:         "bitcoin",
			Edges:         []Edge{ninf, -0.15, 0, 0.15, 0.3, inf},
			Labels:        []string{"<-15%", "-15% to 0%", "0% to 15%", "15% to 30%", ">30%"},
			Payoffs:       []float64{5.34, 0, 0, 0, 0},
			CrashCategory: 0,
			Sweep: SweepConfig{
				Allocations: Range{Min: 0, Max: 0.4, Steps: 41},
				Repeats:     10,
			},
			Boundary: BoundaryConfig{
				Scales:      Range{Min: 0.5, Max: 1, Steps: 51},
				Allocations: Range{Min: 0, Max: 0.4, Steps: 41},
				Repeats:     3,
			},
		},
		{
			Name:          "sp500",
			Asset:         "s&p 500",
			Edges:         []Edge{ninf, -0.15, 0, 0.15, 0.3, inf},
			Labels:        []string{"<-15%", "-15% to 0%", "0% to 15%", "15% to 30%", ">30%"},
			Payoffs:       []float64{8.62, 0, 0, 0, 0},
			CrashCategory: 0,
			FromYear:      1901,
			ToYear:        2020,
			Sweep: SweepConfig{
				Allocations: Range{Min: 0, Max: 0.2, Steps: 41},
				Repeats:     10,
			},
			Boundary: BoundaryConfig{
				Scales:      Range{Min: 0.5, Max: 1, Steps: 51},
				Allocations: Range{Min: 0, Max: 0.2, Steps: 41},
				Repeats:     3,
			},
		},
		{
			Name:  "bitcoin-fine",
			Asset: "bitcoin",
			Edges: []Edge{ninf, -0.5, -0.3, -0.15, 0, 0.15, 0.3, 0.5, inf},
			Labels: []string{
				"<-50%", "-50% to -30%", "-30% to -15%", "-15% to 0%",
				"0% to 15%", "15% to 30%", "30% to 50%", ">50%",
			},
			Payoffs:       []float64{crash, crash * 0.5, crash * 0.25, 0, 0, crash * 0.25, crash * 0.5, crash},
			CrashCategory: 0,
			Sweep: SweepConfig{
				Allocations: Range{Min: 0, Max: 0.2, Steps: 41},
				Repeats:     10,
			},
			Boundary: BoundaryConfig{
				Scales:      Range{Min: 0.5, Max: 1, Steps: 51},
				Allocations: Range{Min: 0, Max: 0.2, Steps: 41},
				Repeats:     3,
			},
		},
	}

	for i := range list {
		// built-ins are static; defaults.Set only fills what is left at zero
		_ = list[i].ApplyDefaults()
	}
	return list
}
