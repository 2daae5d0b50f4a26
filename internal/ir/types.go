package ir

import (
	"cmp"
	"slices"
	"strconv"
)

// Condition is one guard of a rule: actor.predicate must hold with Value.
type Condition struct {
	Actor     string `json:"actor"`
	Predicate string `json:"predicate"`
	Value     bool   `json:"value"`
}

// Key returns the "actor.predicate" fact key of the condition.
func (c Condition) Key() string {
	return c.Actor + "." + c.Predicate
}

// Compare orders conditions by actor, predicate, then false before true.
func (c Condition) Compare(o Condition) int {
	if n := cmp.Compare(c.Actor, o.Actor); n != 0 {
		return n
	}
	if n := cmp.Compare(c.Predicate, o.Predicate); n != 0 {
		return n
	}
	switch {
	case c.Value == o.Value:
		return 0
	case !c.Value:
		return -1
	default:
		return 1
	}
}

// Action is one obligation of a rule: actor is obliged to perform Name.
type Action struct {
	Actor string `json:"actor"`
	Name  string `json:"name"`
}

// Key returns the "actor.name" key of the action.
func (a Action) Key() string {
	return a.Actor + "." + a.Name
}

// Compare orders actions by actor, then name.
func (a Action) Compare(o Action) int {
	if n := cmp.Compare(a.Actor, o.Actor); n != 0 {
		return n
	}
	return cmp.Compare(a.Name, o.Name)
}

// Rule is the normative reading of one entry-to-exit scenario:
// if every condition holds, every action is obligatory.
type Rule struct {
	ID         string      `json:"id"`
	Conditions []Condition `json:"conditions"`
	Actions    []Action    `json:"actions"`
}

// Equal reports structural equality, including condition and action order.
func (r Rule) Equal(o Rule) bool {
	return r.ID == o.ID &&
		slices.Equal(r.Conditions, o.Conditions) &&
		slices.Equal(r.Actions, o.Actions)
}

// Vacuous reports whether the rule carries no obligation.
func (r Rule) Vacuous() bool {
	return len(r.Actions) == 0
}

// Precedence states that Superior overrides Inferior when both apply.
type Precedence struct {
	Superior string `json:"superior"`
	Inferior string `json:"inferior"`
}

// RuleSet is the complete output of one compilation.
type RuleSet struct {
	Rules      []Rule       `json:"rules"`
	Precedence []Precedence `json:"precedence"`
}

// Rule returns the rule with the given id.
func (rs RuleSet) Rule(id string) (Rule, bool) {
	for _, r := range rs.Rules {
		if r.ID == id {
			return r, true
		}
	}
	return Rule{}, false
}

// Equal reports structural equality of two rule sets.
func (rs RuleSet) Equal(o RuleSet) bool {
	return slices.EqualFunc(rs.Rules, o.Rules, Rule.Equal) &&
		slices.Equal(rs.Precedence, o.Precedence)
}

// RuleID returns the sequential rule identifier for the n-th rule (1-based).
func RuleID(n int) string {
	return "r" + strconv.Itoa(n)
}
