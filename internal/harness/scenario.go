package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/lwgate/internal/gate"
)

// Scenario defines a gate conformance scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. Also names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Session is the browsing session id. Defaults to "scenario".
	Session string `yaml:"session,omitempty"`

	// Flow is the sequence of steps run against the gate.
	Flow []Step `yaml:"flow"`

	// Assertions validate the final trace and state.
	// Supported types: trace_contains, trace_order, trace_count, final_state, attempts
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one flow step. Exactly one of Verify, Load or Reset is set.
type Step struct {
	Verify *VerifyStep `yaml:"verify,omitempty"`

	// Load is the navigation type of a page load ("navigate", "reload", ...).
	Load string `yaml:"load,omitempty"`

	Reset bool `yaml:"reset,omitempty"`

	// Expect is checked after the step. Nil means no check.
	Expect *Expect `yaml:"expect,omitempty"`
}

// VerifyStep submits a machine id and code.
type VerifyStep struct {
	MC   string `yaml:"mc"`
	Code string `yaml:"code,omitempty"`

	// Derive submits the code derived from MC instead of Code.
	Derive bool `yaml:"derive,omitempty"`
}

// Expect is the expected outcome of a step.
type Expect struct {
	// Status is "locked" or "unlocked".
	Status string `yaml:"status"`

	// Reason is the refusal reason of a verify step.
	Reason string `yaml:"reason,omitempty"`
}

// Assertion validates trace or final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_contains": an event with Event (and Outcome, if set) is in the trace
	// - "trace_order": Events ("step:outcome") appear in order
	// - "trace_count": Event (and Outcome, if set) appears exactly Count times
	// - "final_state": the gate ends in Status (and MachineID, if set)
	// - "attempts": the audit log holds Count attempts
	Type string `yaml:"type"`

	Event     string   `yaml:"event,omitempty"`
	Outcome   string   `yaml:"outcome,omitempty"`
	Events    []string `yaml:"events,omitempty"`
	Count     int      `yaml:"count,omitempty"`
	Status    string   `yaml:"status,omitempty"`
	MachineID *string  `yaml:"machine_id,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
	AssertAttempts      = "attempts"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadDir loads every *.yaml scenario in dir, sorted by file name.
func LoadDir(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Flow {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

func validateStep(index int, step *Step) error {
	kinds := 0
	if step.Verify != nil {
		kinds++
	}
	if step.Load != "" {
		kinds++
	}
	if step.Reset {
		kinds++
	}
	if kinds != 1 {
		return fmt.Errorf("flow[%d]: exactly one of verify, load or reset is required", index)
	}

	if step.Verify != nil && step.Verify.Derive && step.Verify.Code != "" {
		return fmt.Errorf("flow[%d].verify: code and derive are mutually exclusive", index)
	}

	if step.Expect != nil {
		if !validStatus(step.Expect.Status) {
			return fmt.Errorf("flow[%d].expect: status must be locked or unlocked, got %q", index, step.Expect.Status)
		}
		if step.Expect.Reason != "" && step.Verify == nil {
			return fmt.Errorf("flow[%d].expect: reason only applies to verify steps", index)
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Event == "" {
			return fmt.Errorf("assertions[%d]: event is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Events) == 0 {
			return fmt.Errorf("assertions[%d]: events list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Event == "" {
			return fmt.Errorf("assertions[%d]: event is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalState:
		if !validStatus(a.Status) {
			return fmt.Errorf("assertions[%d]: status must be locked or unlocked for final_state", index)
		}
	case AssertAttempts:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for attempts", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

func validStatus(s string) bool {
	return s == gate.StatusLocked.String() || s == gate.StatusUnlocked.String()
}
