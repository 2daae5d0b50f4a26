package compiler

import (
	"fmt"

	"github.com/roach88/deonto/internal/bpmn"
)

// Check runs the static diagram checks without synthesizing rules.
//
// The structural checks of Reduce are fatal and returned as an error; every
// other finding is a diagnostic, in this order: cycles, unreachable nodes,
// decisions without declared branch order, labels without an actor.
func Check(d *bpmn.Diagram, opts Options) ([]Diagnostic, error) {
	opts = opts.withDefaults()

	entries := d.NodesOfKind(bpmn.KindEntry)
	if len(entries) != 1 {
		return nil, structuralError("expected exactly 1 entry node; got %d", len(entries))
	}
	if len(d.NodesOfKind(bpmn.KindExit)) == 0 {
		return nil, structuralError("expected at least 1 exit node; got 0")
	}

	diags := AnalyzeCycles(d)
	diags = append(diags, unreachable(d, entries[0])...)

	for _, id := range d.NodeIDs() {
		n := d.Nodes[id]
		switch n.Kind {
		case bpmn.KindDecision:
			if len(d.Outgoing[id]) > 1 && len(d.BranchOrder[id]) == 0 {
				diags = append(diags, Diagnostic{
					Code:    DiagMissingBranchOrder,
					Level:   LevelWarning,
					NodeID:  id,
					Message: "decision declares no outgoing order; scenarios follow target id, then branch label order",
				})
			}
			if len(d.Outgoing[id]) > 1 {
				if actor, pred, ok := SplitActorPredicate(n.Label, opts.PlaceholderActor); !ok {
					diags = append(diags, labelDiagnostic(id, n.Label, actor, pred))
				}
			}
		case bpmn.KindObligation:
			if actor, name, ok := SplitActorAction(n.Label, opts.PlaceholderActor); !ok {
				diags = append(diags, labelDiagnostic(id, n.Label, actor, name))
			}
		}
	}
	return diags, nil
}

func labelDiagnostic(id, label, actor, symbol string) Diagnostic {
	return Diagnostic{
		Code:    DiagLabelFormat,
		Level:   LevelWarning,
		NodeID:  id,
		Message: fmt.Sprintf("label %q has no actor; using %q", label, actor+" "+symbol),
	}
}

// unreachable reports nodes that no flow path from the entry reaches.
func unreachable(d *bpmn.Diagram, entry string) []Diagnostic {
	seen := map[string]bool{entry: true}
	queue := []string{entry}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, fid := range d.Outgoing[u] {
			v := d.Flows[fid].Target
			if !seen[v] {
				seen[v] = true
				queue = append(queue, v)
			}
		}
	}

	diags := []Diagnostic{}
	for _, id := range d.NodeIDs() {
		if !seen[id] {
			diags = append(diags, Diagnostic{
				Code:    DiagUnreachable,
				Level:   LevelWarning,
				NodeID:  id,
				Message: "node is not reachable from the entry",
			})
		}
	}
	return diags
}
