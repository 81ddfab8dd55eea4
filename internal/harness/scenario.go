package harness

import (
	"bytes"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/galvan/internal/compiler"
)

// Scenario modes.
const (
	ModeCompile = "compile"
	ModeCheck   = "check"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Mode is compile (fail fast) or check (collect every diagnostic).
	Mode string `yaml:"mode,omitempty"`

	// AggregateUnit overrides the aggregate unit name.
	AggregateUnit string `yaml:"aggregate_unit,omitempty"`

	// Sources maps unit names to their text.
	Sources map[string]string `yaml:"sources"`

	// Expect holds the expected outcome.
	Expect Expect `yaml:"expect"`
}

// Expect describes the outcome of a scenario. A scenario expects either
// success (units, contains) or failure (error_code, error_unit, codes).
type Expect struct {
	// Units is the exact list of unit names, in emission order.
	Units []string `yaml:"units,omitempty"`

	// Contains maps unit names to substrings their content must contain.
	Contains map[string][]string `yaml:"contains,omitempty"`

	// ErrorCode is the diagnostic code of the first error.
	ErrorCode string `yaml:"error_code,omitempty"`

	// ErrorUnit is the unit the first error is attributed to.
	ErrorUnit string `yaml:"error_unit,omitempty"`

	// Codes lists every diagnostic code in report order (check mode only).
	Codes []string `yaml:"codes,omitempty"`
}

// Failure reports whether the scenario expects rejection.
func (e Expect) Failure() bool {
	return e.ErrorCode != "" || e.ErrorUnit != "" || len(e.Codes) > 0
}

// SortedSources returns the sources ordered by name.
func (s *Scenario) SortedSources() []compiler.Source {
	names := make([]string, 0, len(s.Sources))
	for name := range s.Sources {
		names = append(names, name)
	}
	slices.Sort(names)

	out := make([]compiler.Source, len(names))
	for i, name := range names {
		out[i] = compiler.Source{Name: name, Content: s.Sources[name]}
	}
	return out
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML with strict field validation.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Mode == "" {
		scenario.Mode = ModeCompile
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and consistent.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Mode != ModeCompile && s.Mode != ModeCheck {
		return fmt.Errorf("mode must be %q or %q, got %q", ModeCompile, ModeCheck, s.Mode)
	}
	if len(s.Sources) == 0 {
		return fmt.Errorf("sources map is required and must be non-empty")
	}

	e := s.Expect
	success := len(e.Units) > 0 || len(e.Contains) > 0
	if !success && !e.Failure() {
		return fmt.Errorf("expect must name units, contains, error_code or codes")
	}
	if success && e.Failure() {
		return fmt.Errorf("expect cannot describe both success and failure")
	}
	if len(e.Codes) > 0 && s.Mode != ModeCheck {
		return fmt.Errorf("expect.codes requires mode %q", ModeCheck)
	}
	for unit, subs := range e.Contains {
		if len(subs) == 0 {
			return fmt.Errorf("expect.contains[%s]: at least one substring is required", unit)
		}
	}
	return nil
}
