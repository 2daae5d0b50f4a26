// Package evaluate decides which rules of a compiled rule set apply to a
// fact assignment and which one prevails under the precedence chain.
//
// Each rule antecedent is compiled to a CEL expression over
// facts: map(string, bool), keyed "actor.predicate". A condition holds only
// when its key is present with the required value, so an unknown fact never
// satisfies a rule.
package evaluate

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/cel-go/cel"

	"github.com/roach88/deonto/internal/ir"
)

// Facts assigns truth values to "actor.predicate" keys.
type Facts map[string]bool

// Outcome is the result of evaluating a rule set against facts.
type Outcome struct {
	// Applicable lists every rule whose antecedent holds, in precedence order.
	Applicable []string `json:"applicable"`

	// Prevailing is the applicable rule no other applicable rule overrides.
	// Empty when nothing applies.
	Prevailing string `json:"prevailing,omitempty"`

	// Defeated lists the applicable rules overridden by Prevailing.
	Defeated []string `json:"defeated"`

	// Obligations are the actions of the prevailing rule.
	Obligations []ir.Action `json:"obligations"`
}

type compiledRule struct {
	rule    ir.Rule
	expr    string
	program cel.Program
}

// Evaluator holds the compiled antecedents of one rule set.
// It is safe for concurrent use.
type Evaluator struct {
	rules []compiledRule // precedence order
}

// New compiles every rule antecedent of rs.
func New(rs ir.RuleSet) (*Evaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable("facts", cel.MapType(cel.StringType, cel.BoolType)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	e := &Evaluator{}
	for _, r := range precedenceOrder(rs) {
		expr := Expression(r)
		ast, issues := env.Compile(expr)
		if issues != nil && issues.Err() != nil {
			return nil, fmt.Errorf("compile %s: %w", r.ID, issues.Err())
		}
		if !ast.OutputType().IsExactType(cel.BoolType) {
			return nil, fmt.Errorf("compile %s: antecedent has type %s, want bool", r.ID, ast.OutputType())
		}
		prg, err := env.Program(ast, cel.CostLimit(100000))
		if err != nil {
			return nil, fmt.Errorf("program %s: %w", r.ID, err)
		}
		e.rules = append(e.rules, compiledRule{rule: r, expr: expr, program: prg})
	}
	return e, nil
}

// Expression returns the CEL antecedent of r. A rule without conditions
// compiles to "true".
func Expression(r ir.Rule) string {
	if len(r.Conditions) == 0 {
		return "true"
	}
	terms := make([]string, len(r.Conditions))
	for i, c := range r.Conditions {
		key := strconv.Quote(c.Key())
		lookup := "facts[" + key + "]"
		if !c.Value {
			lookup = "!" + lookup
		}
		terms[i] = "(" + key + " in facts && " + lookup + ")"
	}
	return strings.Join(terms, " && ")
}

// Expressions returns the antecedent of every rule, keyed by rule id.
func (e *Evaluator) Expressions() map[string]string {
	out := make(map[string]string, len(e.rules))
	for _, cr := range e.rules {
		out[cr.rule.ID] = cr.expr
	}
	return out
}

// Evaluate applies every rule to facts. The first applicable rule in
// precedence order prevails and defeats every other applicable rule.
func (e *Evaluator) Evaluate(ctx context.Context, facts Facts) (Outcome, error) {
	if facts == nil {
		facts = Facts{}
	}
	input := map[string]any{"facts": map[string]bool(facts)}

	out := Outcome{
		Applicable:  []string{},
		Defeated:    []string{},
		Obligations: []ir.Action{},
	}
	for _, cr := range e.rules {
		if err := ctx.Err(); err != nil {
			return Outcome{}, err
		}
		val, _, err := cr.program.ContextEval(ctx, input)
		if err != nil {
			return Outcome{}, fmt.Errorf("evaluate %s: %w", cr.rule.ID, err)
		}
		holds, ok := val.Value().(bool)
		if !ok {
			return Outcome{}, fmt.Errorf("evaluate %s: result %v is not bool", cr.rule.ID, val)
		}
		if !holds {
			continue
		}

		out.Applicable = append(out.Applicable, cr.rule.ID)
		if out.Prevailing == "" {
			out.Prevailing = cr.rule.ID
			out.Obligations = append(out.Obligations, cr.rule.Actions...)
			continue
		}
		out.Defeated = append(out.Defeated, cr.rule.ID)
	}
	return out, nil
}

// precedenceOrder walks the superiority chain from its head. Rules outside
// the chain follow in rule-set order.
func precedenceOrder(rs ir.RuleSet) []ir.Rule {
	next := make(map[string]string, len(rs.Precedence))
	hasSuperior := make(map[string]bool, len(rs.Precedence))
	for _, p := range rs.Precedence {
		if _, dup := next[p.Superior]; !dup {
			next[p.Superior] = p.Inferior
		}
		hasSuperior[p.Inferior] = true
	}

	byID := make(map[string]ir.Rule, len(rs.Rules))
	for _, r := range rs.Rules {
		byID[r.ID] = r
	}

	placed := make(map[string]bool, len(rs.Rules))
	order := make([]ir.Rule, 0, len(rs.Rules))
	for _, r := range rs.Rules {
		if hasSuperior[r.ID] || placed[r.ID] {
			continue
		}
		for id := r.ID; id != "" && !placed[id]; id = next[id] {
			rule, ok := byID[id]
			if !ok {
				break
			}
			placed[id] = true
			order = append(order, rule)
		}
	}
	for _, r := range rs.Rules {
		if !placed[r.ID] {
			placed[r.ID] = true
			order = append(order, r)
		}
	}
	return order
}
