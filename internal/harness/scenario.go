package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/stepfield/internal/canvas"
	"github.com/roach88/stepfield/internal/geom"
)

// Scenario is one conformance scenario.
type Scenario struct {
	// Name identifies the scenario, its golden file, and its journal session.
	Name string `yaml:"name"`

	// Description explains what the scenario checks.
	Description string `yaml:"description"`

	// Config overrides engine settings. Zero fields keep the defaults.
	Config ScenarioConfig `yaml:"config,omitempty"`

	// Events are applied in order.
	Events []Step `yaml:"events"`

	// Assertions are evaluated against the final state.
	Assertions []Assertion `yaml:"assertions"`
}

// ScenarioConfig overrides engine settings for one scenario.
type ScenarioConfig struct {
	Subdivision int     `yaml:"subdivision,omitempty"`
	MaxRange    float64 `yaml:"max_range,omitempty"`
	NumSteps    int     `yaml:"num_steps,omitempty"`
}

// Step is one canvas edit.
type Step struct {
	Type string `yaml:"type"`

	// ID names the element (all types except clock_start).
	ID string `yaml:"id,omitempty"`

	// Element is the element type for create.
	Element canvas.Type `yaml:"element,omitempty"`

	// At is the position for create and move.
	At *geom.Point `yaml:"at,omitempty"`

	// LabelFor makes a created element a label of another shape.
	LabelFor string `yaml:"label_for,omitempty"`

	// Subdivision is the new attribute value for set_subdivision.
	Subdivision int `yaml:"subdivision,omitempty"`

	// NumSteps is the ring size announced by clock_start.
	NumSteps int `yaml:"num_steps,omitempty"`

	// Silent edits the canvas without delivering an event.
	Silent bool `yaml:"silent,omitempty"`

	// ExpectError marks an event the engine must reject.
	ExpectError bool `yaml:"expect_error,omitempty"`
}

// Step types.
const (
	StepClockStart     = "clock_start"
	StepCreate         = "create"
	StepMove           = "move"
	StepRemove         = "remove"
	StepSetSubdivision = "set_subdivision"
)

// Assertion checks the final state.
type Assertion struct {
	Type      string `yaml:"type"`
	Generator string `yaml:"generator,omitempty"`
	Element   string `yaml:"element,omitempty"`

	// Step is the expected step (step). A pointer because 0 is a step.
	Step *int `yaml:"step,omitempty"`

	// Steps is the expected full step map (step_map).
	Steps map[int][]string `yaml:"steps,omitempty"`

	// Count is the expected number (generator_count, connection_count).
	Count *int `yaml:"count,omitempty"`
}

// Assertion types.
const (
	AssertStep            = "step"
	AssertStepMap         = "step_map"
	AssertUnregistered    = "unregistered"
	AssertConnected       = "connected"
	AssertNotConnected    = "not_connected"
	AssertGeneratorCount  = "generator_count"
	AssertConnectionCount = "connection_count"
)

// LoadScenario reads and validates a scenario file. Unknown fields are
// rejected so typos fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("parse scenario YAML: %w", err)
	}
	if err := validateScenario(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &s, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Events) == 0 {
		return fmt.Errorf("events list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	if s.Config.Subdivision < 0 || s.Config.MaxRange < 0 || s.Config.NumSteps < 0 {
		return fmt.Errorf("config values must not be negative")
	}

	for i, step := range s.Events {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(i int, st Step) error {
	if st.Type != StepClockStart && st.ID == "" {
		return fmt.Errorf("events[%d]: id is required for %s", i, st.Type)
	}

	switch st.Type {
	case StepClockStart:
		if st.Silent {
			return fmt.Errorf("events[%d]: clock_start cannot be silent", i)
		}
	case StepCreate:
		switch st.Element {
		case canvas.TypeStartTrigger, canvas.TypeSound, canvas.TypeOther:
		default:
			return fmt.Errorf("events[%d]: unknown element type %q", i, st.Element)
		}
		if st.At == nil {
			return fmt.Errorf("events[%d]: at is required for create", i)
		}
	case StepMove:
		if st.At == nil {
			return fmt.Errorf("events[%d]: at is required for move", i)
		}
	case StepRemove:
	case StepSetSubdivision:
		if st.Subdivision < 0 {
			return fmt.Errorf("events[%d]: subdivision must not be negative", i)
		}
	case "":
		return fmt.Errorf("events[%d]: type is required", i)
	default:
		return fmt.Errorf("events[%d]: unknown event type %q", i, st.Type)
	}
	return nil
}

func validateAssertion(i int, a Assertion) error {
	needPair := func() error {
		if a.Generator == "" || a.Element == "" {
			return fmt.Errorf("assertions[%d]: generator and element are required for %s", i, a.Type)
		}
		return nil
	}

	switch a.Type {
	case AssertStep:
		if err := needPair(); err != nil {
			return err
		}
		if a.Step == nil {
			return fmt.Errorf("assertions[%d]: step is required for step", i)
		}
	case AssertStepMap:
		if a.Generator == "" {
			return fmt.Errorf("assertions[%d]: generator is required for step_map", i)
		}
	case AssertUnregistered, AssertConnected, AssertNotConnected:
		return needPair()
	case AssertGeneratorCount, AssertConnectionCount:
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for %s", i, a.Type)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", i)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", i, a.Type)
	}
	return nil
}
