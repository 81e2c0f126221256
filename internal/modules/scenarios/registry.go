package scenarios

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// ErrUnknownScenario is returned when a name is not registered
var ErrUnknownScenario = errors.New("unknown scenario")

type file struct {
	Scenarios []Scenario `yaml:"scenarios"`
}

// Load decodes a YAML document with a top-level "scenarios" list, applies
// defaults and validates every entry
func Load(r io.Reader) ([]Scenario, error) {
	var f file
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to decode scenarios: %w", err)
	}

	for i := range f.Scenarios {
		s := &f.Scenarios[i]
		if err := s.ApplyDefaults(); err != nil {
			return nil, err
		}
		if err := s.Validate(); err != nil {
			return nil, err
		}
	}
	return f.Scenarios, nil
}

// LoadFile reads scenarios from a YAML file
func LoadFile(path string) ([]Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return Load(bytes.NewReader(data))
}

// Encode writes scenarios back out as YAML
func Encode(w io.Writer, list []Scenario) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(file{Scenarios: list}); err != nil {
		return fmt.Errorf("failed to encode scenarios: %w", err)
	}
	return enc.Close()
}

// Registry resolves scenarios by name
type Registry struct {
	byName map[string]Scenario
}

// NewRegistry registers the built-ins, then the given scenarios. A later
// scenario with the same name replaces an earlier one.
func NewRegistry(extra ...Scenario) *Registry {
	r := &Registry{byName: make(map[string]Scenario)}
	for _, s := range Builtins() {
		r.byName[s.Name] = s
	}
	for _, s := range extra {
		r.byName[s.Name] = s
	}
	return r
}

// NewRegistryFromFile is NewRegistry with the scenarios of a YAML file.
// An empty path yields the built-ins only.
func NewRegistryFromFile(path string) (*Registry, error) {
	if path == "" {
		return NewRegistry(), nil
	}
	list, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return NewRegistry(list...), nil
}

// Get returns a copy of the named scenario
func (r *Registry) Get(name string) (Scenario, error) {
	s, ok := r.byName[name]
	if !ok {
		return Scenario{}, fmt.Errorf("%w: %q (known: %v)", ErrUnknownScenario, name, r.Names())
	}
	return clone(s), nil
}

// Names returns registered names in sorted order
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for n := range r.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func clone(s Scenario) Scenario {
	out := s
	out.Edges = append([]Edge(nil), s.Edges...)
	out.Labels = append([]string(nil), s.Labels...)
	out.Payoffs = append([]float64(nil), s.Payoffs...)
	out.Quantiles = append([]float64(nil), s.Quantiles...)
	if s.Allocation != nil {
		out.SetAllocation(*s.Allocation)
	}
	return out
}
