// Package scenarios holds the named hedging research setups: bin edges,
// hedge payoffs, horizons and the ranges swept by the optimizers.
package scenarios

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"

	"github.com/aristath/safehaven/internal/modules/bootstrap"
	"github.com/aristath/safehaven/pkg/formulas"
)

// ErrInvalidScenario is returned when a scenario fails validation
var ErrInvalidScenario = errors.New("invalid scenario")

// DefaultAllocation is the hedge fraction used when a scenario sets none
const DefaultAllocation = 0.035

var validate = validator.New()

// Range is an evenly spaced grid of Steps points from Min to Max inclusive
type Range struct {
	Min   float64 `yaml:"min"`
	Max   float64 `yaml:"max" validate:"gtefield=Min"`
	Steps int     `yaml:"steps" validate:"gte=1"`
}

// Values expands the range into its grid points
func (r Range) Values() []float64 {
	return formulas.Linspace(r.Min, r.Max, r.Steps)
}

// SweepConfig drives the allocation sweep
type SweepConfig struct {
	Allocations Range `yaml:"allocations"`
	Repeats     int   `yaml:"repeats" default:"10" validate:"gte=1"`
}

// BoundaryConfig drives the payoff x allocation grid
type BoundaryConfig struct {
	Scales      Range `yaml:"scales"`
	Allocations Range `yaml:"allocations"`
	Repeats     int   `yaml:"repeats" default:"3" validate:"gte=1"`
}

// Scenario is one research setup
type Scenario struct {
	Name          string    `yaml:"name" validate:"required"`
	Asset         string    `yaml:"asset" default:"risk asset"`
	Edges         []Edge    `yaml:"edges" validate:"min=2"`
	Labels        []string  `yaml:"labels"`
	Payoffs       []float64 `yaml:"payoffs" validate:"required,min=1"`
	CrashCategory int       `yaml:"crash_category" validate:"gte=0"`
	Allocation    *float64  `yaml:"allocation,omitempty" default:"0.035"`
	Years         int       `yaml:"years" default:"25" validate:"gte=1"`
	Samples       int       `yaml:"samples" default:"10000" validate:"gte=1"`
	Quantiles     []float64 `yaml:"quantiles" default:"[0.05,0.5,0.95]" validate:"min=1,dive,gte=0,lte=1"`
	FromYear      int       `yaml:"from_year" validate:"gte=0"`
	ToYear        int       `yaml:"to_year" validate:"gte=0"`

	Sweep    SweepConfig    `yaml:"sweep"`
	Boundary BoundaryConfig `yaml:"boundary"`
}

// ApplyDefaults fills zero-valued fields with their defaults, including the
// sweep and boundary grids
func (s *Scenario) ApplyDefaults() error {
	if err := defaults.Set(s); err != nil {
		return fmt.Errorf("failed to apply defaults to scenario %q: %w", s.Name, err)
	}

	if s.Sweep.Allocations.Steps == 0 && s.Sweep.Allocations.Max == 0 {
		s.Sweep.Allocations = Range{Min: 0, Max: 0.4, Steps: 41}
	}
	if s.Boundary.Scales.Steps == 0 && s.Boundary.Scales.Max == 0 {
		s.Boundary.Scales = Range{Min: 0.5, Max: 1, Steps: 11}
	}
	if s.Boundary.Allocations.Steps == 0 && s.Boundary.Allocations.Max == 0 {
		s.Boundary.Allocations = s.Sweep.Allocations
	}
	if len(s.Labels) == 0 && len(s.Edges) >= 2 {
		s.Labels = defaultLabels(edgesToFloats(s.Edges))
	}
	return nil
}

// Validate runs tag validation then the checks that span several fields
func (s *Scenario) Validate() error {
	if err := validate.Struct(s); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			msgs := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				msgs = append(msgs, describe(fe))
			}
			return fmt.Errorf("%w %q: %s", ErrInvalidScenario, s.Name, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w %q: %v", ErrInvalidScenario, s.Name, err)
	}

	b, err := s.Boundaries()
	if err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidScenario, s.Name, err)
	}
	bins := b.Categories()

	if len(s.Payoffs) != bins {
		return fmt.Errorf("%w %q: %d payoffs for %d bins", ErrInvalidScenario, s.Name, len(s.Payoffs), bins)
	}
	for i, p := range s.Payoffs {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return fmt.Errorf("%w %q: payoff %d is not finite", ErrInvalidScenario, s.Name, i)
		}
	}
	if len(s.Labels) != 0 && len(s.Labels) != bins {
		return fmt.Errorf("%w %q: %d labels for %d bins", ErrInvalidScenario, s.Name, len(s.Labels), bins)
	}
	if s.CrashCategory >= bins {
		return fmt.Errorf("%w %q: crash category %d outside [0, %d)", ErrInvalidScenario, s.Name, s.CrashCategory, bins)
	}
	if a := s.HedgeAllocation(); math.IsNaN(a) || a < 0 || a > 1 {
		return fmt.Errorf("%w %q: allocation %v outside [0, 1]", ErrInvalidScenario, s.Name, a)
	}
	if s.FromYear != 0 && s.ToYear != 0 && s.FromYear > s.ToYear {
		return fmt.Errorf("%w %q: from_year %d after to_year %d", ErrInvalidScenario, s.Name, s.FromYear, s.ToYear)
	}
	for _, r := range []Range{s.Sweep.Allocations, s.Boundary.Allocations} {
		if r.Min < 0 || r.Max > 1 {
			return fmt.Errorf("%w %q: allocation range [%v, %v] outside [0, 1]", ErrInvalidScenario, s.Name, r.Min, r.Max)
		}
	}
	return nil
}

// HedgeAllocation returns the configured hedge fraction. An explicit zero is
// kept; only an unset allocation falls back to DefaultAllocation.
func (s *Scenario) HedgeAllocation() float64 {
	if s.Allocation == nil {
		return DefaultAllocation
	}
	return *s.Allocation
}

// SetAllocation overrides the hedge fraction
func (s *Scenario) SetAllocation(a float64) {
	s.Allocation = &a
}

// Boundaries converts the scenario edges into categorizer boundaries
func (s *Scenario) Boundaries() (bootstrap.Boundaries, error) {
	return bootstrap.NewBoundaries(edgesToFloats(s.Edges)...)
}

// Params builds simulation parameters at the given allocation with the
// scenario's own payoffs
func (s *Scenario) Params(allocation float64) bootstrap.Params {
	return s.ScaledParams(allocation, 1)
}

// ScaledParams builds simulation parameters with every payoff multiplied by scale
func (s *Scenario) ScaledParams(allocation, scale float64) bootstrap.Params {
	payoffs := make([]float64, len(s.Payoffs))
	for i, p := range s.Payoffs {
		payoffs[i] = p * scale
	}
	return bootstrap.Params{
		Allocation: allocation,
		Payoffs:    payoffs,
		Years:      s.Years,
		Samples:    s.Samples,
	}
}

// Pool categorizes the given annual returns with the scenario's boundaries
func (s *Scenario) Pool(returns []float64) (bootstrap.Pool, error) {
	b, err := s.Boundaries()
	if err != nil {
		return bootstrap.Pool{}, err
	}
	return bootstrap.NewPool(returns, b)
}

// Label returns the display label of a category
func (s *Scenario) Label(category int) string {
	if category >= 0 && category < len(s.Labels) {
		return s.Labels[category]
	}
	return fmt.Sprintf("bin %d", category)
}

func describe(fe validator.FieldError) string {
	field := fe.Namespace()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must have at least %s entries", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
	case "gtefield":
		return fmt.Sprintf("%s must not be below %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}
}
