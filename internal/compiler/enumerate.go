package compiler

import (
	"cmp"
	"iter"
	"math"
	"slices"

	"github.com/roach88/deonto/internal/bpmn"
)

// Scenario is one complete entry-to-exit traversal of the reduced graph.
type Scenario struct {
	// Index is the 1-based position of the scenario in enumeration order.
	Index int

	// Edges is the path from the entry to Exit. The slice is reused by the
	// enumerator and is only valid until the next iteration; clone it to
	// keep it.
	Edges []ReducedEdge

	Exit string
}

// Enumerator walks every scenario of a reduced graph in a fixed order.
type Enumerator struct {
	g     *ReducedGraph
	depth map[string]int
	adj   map[string][]ReducedEdge
}

// NewEnumerator computes the ordering metadata of g: the minimum hop
// distance of every node from the entry, and each node's outgoing edges
// sorted by declared branch position when the source is a decision.
func NewEnumerator(g *ReducedGraph) *Enumerator {
	e := &Enumerator{
		g:     g,
		depth: make(map[string]int),
		adj:   make(map[string][]ReducedEdge),
	}
	for _, edge := range g.Edges {
		e.adj[edge.Src] = append(e.adj[edge.Src], edge)
	}

	e.depth[g.Entry] = 0
	queue := []string{g.Entry}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, edge := range e.adj[u] {
			if _, ok := e.depth[edge.Dst]; !ok {
				e.depth[edge.Dst] = e.depth[u] + 1
				queue = append(queue, edge.Dst)
			}
		}
	}

	for src, edges := range e.adj {
		slices.SortStableFunc(edges, func(a, b ReducedEdge) int {
			pa, pb := e.priority(a), e.priority(b)
			if n := cmp.Compare(pa[0], pb[0]); n != 0 {
				return n
			}
			return cmp.Compare(pa[1], pb[1])
		})
		e.adj[src] = edges
	}
	return e
}

// priority ranks an edge among its siblings. Unranked components sort last.
func (e *Enumerator) priority(edge ReducedEdge) [2]int {
	const unranked = math.MaxInt
	if e.g.Nodes[edge.Src].Kind != bpmn.KindDecision {
		return [2]int{unranked, unranked}
	}
	d, ok := e.depth[edge.Src]
	if !ok {
		d = unranked
	}
	if len(edge.ViaFlows) == 0 {
		return [2]int{d, unranked}
	}
	idx, ok := e.g.BranchOrder[edge.Src][edge.ViaFlows[0]]
	if !ok {
		idx = unranked
	}
	return [2]int{d, idx}
}

// Depth returns the minimum hop distance of id from the entry.
func (e *Enumerator) Depth(id string) (int, bool) {
	d, ok := e.depth[id]
	return d, ok
}

// Scenarios yields every entry-to-exit path depth-first over the sorted
// adjacency. A node already on the current path ends that branch without a
// scenario; reaching an exit always yields one.
func (e *Enumerator) Scenarios() iter.Seq[Scenario] {
	return func(yield func(Scenario) bool) {
		var (
			path    []ReducedEdge
			onPath  = make(map[string]bool)
			index   int
			visitFn func(cur string) bool
		)
		visitFn = func(cur string) bool {
			if e.g.IsExit(cur) {
				index++
				return yield(Scenario{Index: index, Edges: path, Exit: cur})
			}
			if onPath[cur] {
				return true
			}
			onPath[cur] = true
			for _, edge := range e.adj[cur] {
				path = append(path, edge)
				ok := visitFn(edge.Dst)
				path = path[:len(path)-1]
				if !ok {
					return false
				}
			}
			delete(onPath, cur)
			return true
		}
		visitFn(e.g.Entry)
	}
}
