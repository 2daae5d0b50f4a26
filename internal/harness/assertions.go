package harness

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/roach88/deonto/internal/compiler"
	"github.com/roach88/deonto/internal/export"
	"github.com/roach88/deonto/internal/ir"
)

// AssertionError is returned when an assertion fails.
// It includes the rendered rules to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	DDL      string // Rendered rules, if compilation succeeded
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	if e.DDL != "" {
		fmt.Fprintf(&buf, "\nRules:\n%s", e.DDL)
	}
	return buf.String()
}

// checkAssertion evaluates one assertion against a finished run.
func checkAssertion(r *Result, a Assertion) error {
	fail := func(expected, actual string) error {
		return &AssertionError{Type: a.Type, Expected: expected, Actual: actual, DDL: r.DDL}
	}

	if a.Type == AssertError {
		if string(r.ErrorCode) != a.Code {
			return fail("error "+a.Code, errorOrNone(r.ErrorCode))
		}
		return nil
	}
	if r.ErrorCode != "" && a.Type != AssertDiagnostic {
		return fail(a.Type+" to hold", "compilation failed with "+string(r.ErrorCode))
	}

	switch a.Type {
	case AssertRuleCount:
		if n := len(r.RuleSet.Rules); n != a.Count {
			return fail(fmt.Sprintf("%d rules", a.Count), fmt.Sprintf("%d rules", n))
		}
	case AssertScenarioCount:
		if r.ScenarioCount != a.Count {
			return fail(fmt.Sprintf("%d scenarios", a.Count), fmt.Sprintf("%d scenarios", r.ScenarioCount))
		}
	case AssertEdgeCount:
		if r.EdgeCount != a.Count {
			return fail(fmt.Sprintf("%d reduced edges", a.Count), fmt.Sprintf("%d reduced edges", r.EdgeCount))
		}
	case AssertRule:
		return assertRule(r, a, fail)
	case AssertPrecedence:
		want := make([]string, len(a.Pairs))
		for i, p := range a.Pairs {
			pair, _ := parsePair(p)
			want[i] = export.Superiority(pair)
		}
		got := make([]string, len(r.RuleSet.Precedence))
		for i, p := range r.RuleSet.Precedence {
			got[i] = export.Superiority(p)
		}
		if !slices.Equal(want, got) {
			return fail(fmt.Sprintf("precedence %v", want), fmt.Sprintf("precedence %v", got))
		}
	case AssertDiagnostic:
		found := slices.ContainsFunc(r.Diagnostics, func(d compiler.Diagnostic) bool {
			return string(d.Code) == a.Code && (a.Node == "" || d.NodeID == a.Node)
		})
		what := "diagnostic " + a.Code
		if a.Node != "" {
			what += " on " + a.Node
		}
		if found == a.Absent {
			if a.Absent {
				return fail("no "+what, what+" reported")
			}
			return fail(what, fmt.Sprintf("diagnostics %v", diagnosticCodes(r.Diagnostics)))
		}
	}
	return nil
}

func assertRule(r *Result, a Assertion, fail func(string, string) error) error {
	rule, ok := r.RuleSet.Rule(a.Rule)
	if !ok {
		return fail("rule "+a.Rule, "no such rule")
	}

	if a.Conditions != nil {
		want := make([]string, len(a.Conditions))
		for i, c := range a.Conditions {
			key, value, _ := parseCondition(c)
			want[i] = key + "=" + strconv.FormatBool(value)
		}
		got := make([]string, len(rule.Conditions))
		for i, c := range rule.Conditions {
			got[i] = c.Key() + "=" + strconv.FormatBool(c.Value)
		}
		if !slices.Equal(want, got) {
			return fail(fmt.Sprintf("%s conditions %v", a.Rule, want), fmt.Sprintf("%v", got))
		}
	}

	if a.Actions != nil {
		got := actionKeys(rule.Actions)
		if !slices.Equal(a.Actions, got) {
			return fail(fmt.Sprintf("%s actions %v", a.Rule, a.Actions), fmt.Sprintf("%v", got))
		}
	}
	return nil
}

// parseCondition parses "actor.predicate=true". A bare key means true.
func parseCondition(s string) (string, bool, error) {
	key, raw, found := strings.Cut(s, "=")
	if key == "" {
		return "", false, fmt.Errorf("condition %q: empty key", s)
	}
	if !found {
		return key, true, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return "", false, fmt.Errorf("condition %q: value must be true or false", s)
	}
	return key, v, nil
}

// parsePair parses "r1 > r2".
func parsePair(s string) (ir.Precedence, error) {
	sup, inf, found := strings.Cut(s, ">")
	sup, inf = strings.TrimSpace(sup), strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(inf), "."))
	if !found || sup == "" || inf == "" {
		return ir.Precedence{}, fmt.Errorf("precedence pair %q: want \"rX > rY\"", s)
	}
	return ir.Precedence{Superior: sup, Inferior: inf}, nil
}

func actionKeys(actions []ir.Action) []string {
	keys := make([]string, len(actions))
	for i, a := range actions {
		keys[i] = a.Key()
	}
	return keys
}

func diagnosticCodes(diags []compiler.Diagnostic) []string {
	codes := make([]string, len(diags))
	for i, d := range diags {
		codes[i] = string(d.Code)
		if d.NodeID != "" {
			codes[i] += "@" + d.NodeID
		}
	}
	return codes
}

func errorOrNone(code compiler.ErrorCode) string {
	if code == "" {
		return "no error"
	}
	return "error " + string(code)
}
