package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance scenario: one diagram, an optional
// configuration, and the expected compilation outcome.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Diagram is the path to the BPMN file to compile.
	Diagram string `yaml:"diagram"`

	// Config is an optional .yaml or .cue configuration file.
	Config string `yaml:"config,omitempty"`

	// Golden is an optional file holding the expected DDL document.
	Golden string `yaml:"golden,omitempty"`

	// Evaluate applies the compiled rules to fact assignments.
	Evaluate []EvaluateStep `yaml:"evaluate,omitempty"`

	// Assertions validate the compiled rule set.
	Assertions []Assertion `yaml:"assertions"`
}

// EvaluateStep checks which rule prevails for one fact assignment.
type EvaluateStep struct {
	Facts map[string]bool `yaml:"facts"`

	// Prevailing is the expected prevailing rule id; empty means no rule
	// applies.
	Prevailing string `yaml:"prevailing"`

	// Obligations are the expected "actor.name" keys of the prevailing rule,
	// in order. Nil skips the check.
	Obligations []string `yaml:"obligations,omitempty"`
}

// Assertion validates one property of the compilation.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Count is the expected number (rule_count, scenario_count, edge_count).
	Count int `yaml:"count,omitempty"`

	// Rule is the rule id (rule).
	Rule string `yaml:"rule,omitempty"`

	// Conditions are "actor.predicate=true|false" entries (rule).
	Conditions []string `yaml:"conditions,omitempty"`

	// Actions are "actor.name" entries (rule).
	Actions []string `yaml:"actions,omitempty"`

	// Pairs are "rX > rY" entries (precedence).
	Pairs []string `yaml:"pairs,omitempty"`

	// Code is a diagnostic code (diagnostic) or an error code (error).
	Code string `yaml:"code,omitempty"`

	// Node restricts a diagnostic assertion to one node.
	Node string `yaml:"node,omitempty"`

	// Absent inverts a diagnostic assertion.
	Absent bool `yaml:"absent,omitempty"`
}

// Assertion type constants.
const (
	AssertRuleCount     = "rule_count"
	AssertScenarioCount = "scenario_count"
	AssertEdgeCount     = "edge_count"
	AssertRule          = "rule"
	AssertPrecedence    = "precedence"
	AssertDiagnostic    = "diagnostic"
	AssertError         = "error"
)

// LoadScenario reads and parses a scenario YAML file. Diagram and config
// paths are resolved relative to the scenario file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Reject unknown fields (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	base := filepath.Dir(path)
	scenario.Diagram = resolve(base, scenario.Diagram)
	scenario.Config = resolve(base, scenario.Config)
	scenario.Golden = resolve(base, scenario.Golden)

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func resolve(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// MissingFileError reports a scenario path that does not exist.
type MissingFileError struct {
	Field string // "diagram", "config" or "golden"
	Path  string
}

func (e *MissingFileError) Error() string {
	return fmt.Sprintf("%s file not found: %s", e.Field, e.Path)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Diagram == "" {
		return fmt.Errorf("diagram is required")
	}
	if _, err := os.Stat(s.Diagram); os.IsNotExist(err) {
		return &MissingFileError{Field: "diagram", Path: s.Diagram}
	}
	if s.Config != "" {
		if _, err := os.Stat(s.Config); os.IsNotExist(err) {
			return &MissingFileError{Field: "config", Path: s.Config}
		}
	}
	if s.Golden != "" {
		if _, err := os.Stat(s.Golden); os.IsNotExist(err) {
			return &MissingFileError{Field: "golden", Path: s.Golden}
		}
	}
	if len(s.Assertions) == 0 && len(s.Evaluate) == 0 && s.Golden == "" {
		return fmt.Errorf("assertions, evaluate steps or a golden file are required")
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	for i, step := range s.Evaluate {
		if step.Facts == nil {
			return fmt.Errorf("evaluate[%d]: facts is required (use {} for none)", i)
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
	case AssertRuleCount, AssertScenarioCount, AssertEdgeCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	case AssertRule:
		if a.Rule == "" {
			return fmt.Errorf("assertions[%d]: rule is required for rule", index)
		}
		for _, c := range a.Conditions {
			if _, _, err := parseCondition(c); err != nil {
				return fmt.Errorf("assertions[%d]: %w", index, err)
			}
		}
	case AssertPrecedence:
		for _, p := range a.Pairs {
			if _, err := parsePair(p); err != nil {
				return fmt.Errorf("assertions[%d]: %w", index, err)
			}
		}
	case AssertDiagnostic, AssertError:
		if a.Code == "" {
			return fmt.Errorf("assertions[%d]: code is required for %s", index, a.Type)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
