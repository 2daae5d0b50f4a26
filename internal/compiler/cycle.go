package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/deonto/internal/bpmn"
)

// AnalyzeCycles reports every cycle of the full flow graph.
//
// Cycles are warnings, not errors: reduction terminates on them, but its
// (node, last flow) guard may prune distinct paths through heavily cyclic
// regions, and the enumerator drops any scenario that revisits a kept node.
//
// The algorithm:
//  1. Build node → successor graph from sequence flows, in document order
//  2. Use Tarjan's algorithm to find strongly connected components
//  3. Report each SCC with size > 1 or a self-loop
//
// An acyclic diagram returns an empty list.
func AnalyzeCycles(d *bpmn.Diagram) []Diagnostic {
	graph, order := buildFlowGraph(d)
	diags := []Diagnostic{}
	for _, scc := range tarjanSCC(graph, order) {
		if len(scc) > 1 || hasSelfLoop(scc[0], graph) {
			diags = append(diags, cycleToDiagnostic(scc, graph))
		}
	}
	return diags
}

// flowGraph maps node id → successor node ids.
type flowGraph map[string][]string

// buildFlowGraph returns the successor graph and a deterministic visit order:
// nodes in document order, then flow endpoints that are not nodes.
func buildFlowGraph(d *bpmn.Diagram) (flowGraph, []string) {
	graph := make(flowGraph)
	var order []string
	add := func(id string) {
		if _, ok := graph[id]; !ok {
			graph[id] = []string{}
			order = append(order, id)
		}
	}
	for _, id := range d.NodeIDs() {
		add(id)
	}
	for _, fid := range d.FlowIDs() {
		f := d.Flows[fid]
		add(f.Source)
		add(f.Target)
		graph[f.Source] = append(graph[f.Source], f.Target)
	}
	return graph, order
}

func hasSelfLoop(node string, graph flowGraph) bool {
	for _, neighbor := range graph[node] {
		if neighbor == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm,
// visiting roots in the given order.
func tarjanSCC(graph flowGraph, order []string) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, node := range order {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}

func cycleToDiagnostic(scc []string, graph flowGraph) Diagnostic {
	path := []string{scc[0], scc[0]}
	if len(scc) > 1 {
		path = reconstructCyclePath(scc, graph)
	}
	return Diagnostic{
		Code:    DiagCycle,
		Level:   LevelWarning,
		NodeID:  path[0],
		Path:    path,
		Message: fmt.Sprintf("cycle detected: %s", strings.Join(path, " → ")),
	}
}

// reconstructCyclePath returns a shortest closed walk from the SCC root
// back to itself, searching breadth-first over edges inside the SCC.
func reconstructCyclePath(scc []string, graph flowGraph) []string {
	members := make(map[string]bool, len(scc))
	for _, n := range scc {
		members[n] = true
	}

	start := scc[len(scc)-1]
	parent := map[string]string{start: ""}
	queue := []string{start}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, neighbor := range graph[current] {
			if !members[neighbor] {
				continue
			}
			if neighbor == start {
				var path []string
				for n := current; n != ""; n = parent[n] {
					path = append(path, n)
				}
				slices.Reverse(path)
				return append(path, start)
			}
			if _, seen := parent[neighbor]; !seen {
				parent[neighbor] = current
				queue = append(queue, neighbor)
			}
		}
	}
	// Unreachable for a strongly connected component.
	return []string{start, start}
}
