package compiler

import (
	"cmp"
	"slices"
	"strings"

	"github.com/roach88/deonto/internal/bpmn"
)

// ReducedEdge summarizes every path between two kept nodes that shares the
// same guard and obligation sequence.
type ReducedEdge struct {
	Src string `json:"src"`
	Dst string `json:"dst"`

	// Guard is the label of the first flow leaving Src. It is meaningful
	// only when Guarded, which holds iff Src is a decision node.
	Guard   string `json:"guard,omitempty"`
	Guarded bool   `json:"guarded"`

	Obligations []string `json:"obligations"`
	// ObligationNodes holds the node id of each entry of Obligations.
	ObligationNodes []string `json:"obligation_nodes"`
	ViaFlows        []string `json:"via_flows"`
}

// key identifies an edge up to its traversed flows.
func (e ReducedEdge) key() string {
	var b strings.Builder
	b.WriteString(e.Src)
	b.WriteByte(0)
	b.WriteString(e.Dst)
	b.WriteByte(0)
	if e.Guarded {
		b.WriteByte('g')
	}
	b.WriteString(e.Guard)
	for _, o := range e.Obligations {
		b.WriteByte(0)
		b.WriteString(o)
	}
	return b.String()
}

func compareEdges(a, b ReducedEdge) int {
	if n := cmp.Compare(a.Src, b.Src); n != 0 {
		return n
	}
	if n := cmp.Compare(a.Dst, b.Dst); n != 0 {
		return n
	}
	if n := cmp.Compare(a.Guard, b.Guard); n != 0 {
		return n
	}
	return slices.Compare(a.Obligations, b.Obligations)
}

// ReducedGraph is the control-flow graph restricted to entry, exit and
// decision nodes.
type ReducedGraph struct {
	Entry string
	Exits []string

	// Nodes holds the kept nodes; NodeIDs lists them in document order.
	Nodes   map[string]bpmn.Node
	NodeIDs []string

	// Edges is sorted by (src, dst, guard, obligations).
	Edges []ReducedEdge

	// BranchOrder is the diagram's declared branch order, unchanged.
	BranchOrder map[string]map[string]int

	// Branches counts the outgoing flows of each decision node.
	Branches map[string]int
}

// IsExit reports whether id is an exit node.
func (g *ReducedGraph) IsExit(id string) bool {
	return g.Nodes[id].Kind == bpmn.KindExit
}

// walkFrame is one pending step of a reduction walk.
type walkFrame struct {
	node        string
	obligations []string
	nodes       []string // obligation node ids, parallel to obligations
	via         []string
}

type walkState struct {
	node     string
	lastFlow string
}

// Reduce collapses every non-kept node of d onto edges between kept nodes.
//
// From each kept node k and each flow f0 leaving it, a walk follows every
// outgoing flow until it reaches a kept node other than k. Each walk
// remembers the (node, last flow) states it has expanded and never expands
// one twice, so reduction terminates on cyclic diagrams. Edges equal in
// (src, dst, guard, obligations) collapse into the first one discovered.
func Reduce(d *bpmn.Diagram) (*ReducedGraph, error) {
	g := &ReducedGraph{
		Nodes:       make(map[string]bpmn.Node),
		NodeIDs:     []string{},
		Exits:       []string{},
		Edges:       []ReducedEdge{},
		BranchOrder: d.BranchOrder,
		Branches:    make(map[string]int),
	}

	var entries []string
	for _, id := range d.NodeIDs() {
		n := d.Nodes[id]
		if !n.Kind.Kept() {
			continue
		}
		g.Nodes[id] = n
		g.NodeIDs = append(g.NodeIDs, id)
		switch n.Kind {
		case bpmn.KindEntry:
			entries = append(entries, id)
		case bpmn.KindExit:
			g.Exits = append(g.Exits, id)
		case bpmn.KindDecision:
			g.Branches[id] = len(d.Outgoing[id])
		}
	}

	if len(entries) != 1 {
		return nil, structuralError("expected exactly 1 entry node; got %d", len(entries))
	}
	if len(g.Exits) == 0 {
		return nil, structuralError("expected at least 1 exit node; got 0")
	}
	g.Entry = entries[0]

	seen := make(map[string]bool)
	for _, src := range g.NodeIDs {
		for _, fid := range d.Outgoing[src] {
			for _, e := range walk(d, g, src, d.Flows[fid]) {
				if k := e.key(); !seen[k] {
					seen[k] = true
					g.Edges = append(g.Edges, e)
				}
			}
		}
	}
	slices.SortStableFunc(g.Edges, compareEdges)

	return g, nil
}

// walk returns the reduced edges reachable from src through f0, in
// depth-first pre-order.
func walk(d *bpmn.Diagram, g *ReducedGraph, src string, f0 bpmn.Flow) []ReducedEdge {
	guarded := g.Nodes[src].Kind == bpmn.KindDecision
	guard := ""
	if guarded {
		guard = f0.Label
	}

	var out []ReducedEdge
	seen := make(map[walkState]bool)
	first := walkFrame{node: f0.Target, via: []string{f0.ID}}
	first.obligations, first.nodes = appendObligation(d, nil, nil, f0.Target)
	stack := []walkFrame{first}

	for len(stack) > 0 {
		fr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		st := walkState{node: fr.node, lastFlow: fr.via[len(fr.via)-1]}
		if seen[st] {
			continue
		}
		seen[st] = true

		if _, kept := g.Nodes[fr.node]; kept && fr.node != src {
			obligations, nodes := fr.obligations, fr.nodes
			if obligations == nil {
				obligations, nodes = []string{}, []string{}
			}
			out = append(out, ReducedEdge{
				Src:             src,
				Dst:             fr.node,
				Guard:           guard,
				Guarded:         guarded,
				Obligations:     obligations,
				ObligationNodes: nodes,
				ViaFlows:        fr.via,
			})
			continue
		}

		// Push in reverse so the first outgoing flow is expanded first.
		outs := d.Outgoing[fr.node]
		for i := len(outs) - 1; i >= 0; i-- {
			f := d.Flows[outs[i]]
			next := walkFrame{node: f.Target, via: append(slices.Clip(fr.via), f.ID)}
			next.obligations, next.nodes = appendObligation(d, fr.obligations, fr.nodes, f.Target)
			stack = append(stack, next)
		}
	}
	return out
}

// appendObligation returns obligations and their node ids extended by node
// when it is an obligation node. The input slices are never modified.
func appendObligation(d *bpmn.Diagram, obligations, nodes []string, node string) ([]string, []string) {
	n, ok := d.Nodes[node]
	if !ok || n.Kind != bpmn.KindObligation {
		return obligations, nodes
	}
	return append(slices.Clip(obligations), n.Label), append(slices.Clip(nodes), node)
}
