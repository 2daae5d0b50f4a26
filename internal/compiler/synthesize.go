package compiler

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/deonto/internal/bpmn"
	"github.com/roach88/deonto/internal/ir"
)

// Result is the outcome of rule synthesis over one reduced graph.
type Result struct {
	Graph   *ReducedGraph
	RuleSet ir.RuleSet

	// Paths holds the edges of each scenario when Options.CollectPaths is
	// set, otherwise nil.
	Paths [][]ReducedEdge

	// ScenarioCount is the number of enumerated scenarios, including any
	// suppressed ones.
	ScenarioCount int

	// Suppressed lists the indexes of obligation-free scenarios that did not
	// produce a rule.
	Suppressed []int

	Diagnostics []Diagnostic
}

// synthesizer accumulates rules and the precedence chain across scenarios.
type synthesizer struct {
	g    *ReducedGraph
	opts Options
	log  *slog.Logger

	result   *Result
	lastRule string
	reported map[string]bool
}

// Synthesize enumerates every scenario of g and turns each into a rule.
// Rule ids follow completion order and each rule is preceded in the chain by
// the rule completed just before it.
func Synthesize(g *ReducedGraph, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	s := &synthesizer{
		g:    g,
		opts: opts,
		log:  opts.logger(),
		result: &Result{
			Graph:       g,
			RuleSet:     ir.RuleSet{Rules: []ir.Rule{}, Precedence: []ir.Precedence{}},
			Suppressed:  []int{},
			Diagnostics: []Diagnostic{},
		},
		reported: make(map[string]bool),
	}
	if opts.CollectPaths {
		s.result.Paths = [][]ReducedEdge{}
	}

	for sc := range NewEnumerator(g).Scenarios() {
		if err := s.add(sc); err != nil {
			return nil, err
		}
	}

	s.log.Debug("synthesized rules",
		"scenarios", s.result.ScenarioCount,
		"rules", len(s.result.RuleSet.Rules),
		"suppressed", len(s.result.Suppressed))
	return s.result, nil
}

func (s *synthesizer) add(sc Scenario) error {
	s.result.ScenarioCount++
	if s.opts.CollectPaths {
		s.result.Paths = append(s.result.Paths, slices.Clone(sc.Edges))
	}

	conds, err := s.conditions(sc.Edges)
	if err != nil {
		return err
	}
	acts := s.actions(sc.Edges)

	if len(acts) == 0 && s.opts.ObligationFree == ObligationFreeSuppress {
		s.result.Suppressed = append(s.result.Suppressed, sc.Index)
		s.diag(Diagnostic{
			Code:    DiagNoObligation,
			Level:   LevelInfo,
			NodeID:  sc.Exit,
			Message: fmt.Sprintf("scenario %d has no obligation; no rule generated", sc.Index),
		})
		return nil
	}

	id := ir.RuleID(len(s.result.RuleSet.Rules) + 1)
	s.result.RuleSet.Rules = append(s.result.RuleSet.Rules, ir.Rule{
		ID:         id,
		Conditions: conds,
		Actions:    acts,
	})
	if s.lastRule != "" {
		s.result.RuleSet.Precedence = append(s.result.RuleSet.Precedence,
			ir.Precedence{Superior: s.lastRule, Inferior: id})
	}
	s.lastRule = id
	return nil
}

// conditions derives the guards of a path. Conditions are unique by
// (actor, predicate); the first occurrence wins.
func (s *synthesizer) conditions(path []ReducedEdge) ([]ir.Condition, error) {
	type conditionKey struct{ actor, predicate string }

	out := []ir.Condition{}
	index := make(map[conditionKey]int)

	for _, e := range path {
		node := s.g.Nodes[e.Src]
		if node.Kind != bpmn.KindDecision || !e.Guarded {
			continue
		}

		var value bool
		switch e.Guard {
		case s.opts.AffirmativeLabel:
			value = true
		case s.opts.NegativeLabel:
			value = false
		default:
			// A decision with a single outgoing flow is a merge, not a choice.
			if s.g.Branches[e.Src] <= 1 {
				continue
			}
			msg := fmt.Sprintf("branch label %q is neither %q nor %q",
				e.Guard, s.opts.AffirmativeLabel, s.opts.NegativeLabel)
			if s.opts.BranchLabels == BranchStrict {
				return nil, &Error{Code: CodeUnrecognizedBranch, NodeID: e.Src, Message: msg}
			}
			s.diagOnce(e.Src+"\x00"+e.Guard, Diagnostic{
				Code:    DiagUnrecognizedBranch,
				Level:   LevelWarning,
				NodeID:  e.Src,
				Message: msg + "; no condition derived",
			})
			continue
		}

		actor, pred, ok := SplitActorPredicate(node.Label, s.opts.PlaceholderActor)
		if !ok {
			s.labelWarning(e.Src, node.Label, actor, pred)
		}
		c := ir.Condition{Actor: actor, Predicate: pred, Value: value}
		key := conditionKey{actor, pred}

		if i, dup := index[key]; dup {
			if out[i].Value != c.Value {
				s.diagOnce("conflict\x00"+actor+"\x00"+pred, Diagnostic{
					Code:    DiagConditionConflict,
					Level:   LevelWarning,
					NodeID:  e.Src,
					Message: fmt.Sprintf("condition %s is both true and false on one path; keeping %t", c.Key(), out[i].Value),
				})
			}
			continue
		}
		index[key] = len(out)
		out = append(out, c)
	}
	return out, nil
}

// actions derives the obligations of a path, unique by (actor, name).
func (s *synthesizer) actions(path []ReducedEdge) []ir.Action {
	out := []ir.Action{}
	seen := make(map[ir.Action]bool)
	for _, e := range path {
		for i, label := range e.Obligations {
			actor, name, ok := SplitActorAction(label, s.opts.PlaceholderActor)
			if !ok {
				nodeID := ""
				if i < len(e.ObligationNodes) {
					nodeID = e.ObligationNodes[i]
				}
				s.labelWarning(nodeID, label, actor, name)
			}
			a := ir.Action{Actor: actor, Name: name}
			if seen[a] {
				continue
			}
			seen[a] = true
			out = append(out, a)
		}
	}
	return out
}

func (s *synthesizer) labelWarning(nodeID, label, actor, symbol string) {
	if s.diagOnce("label\x00"+nodeID+"\x00"+label, labelDiagnostic(nodeID, label, actor, symbol)) {
		s.log.Warn("label lacks actor", "label", label, "node", nodeID, "fallback", actor+" "+symbol)
	}
}

// diagOnce records d unless key was already reported, and reports whether it
// recorded it.
func (s *synthesizer) diagOnce(key string, d Diagnostic) bool {
	if s.reported[key] {
		return false
	}
	s.reported[key] = true
	s.diag(d)
	return true
}

func (s *synthesizer) diag(d Diagnostic) {
	s.result.Diagnostics = append(s.result.Diagnostics, d)
}
