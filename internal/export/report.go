package export

import (
	"fmt"
	"strings"

	"github.com/roach88/deonto/internal/compiler"
)

// Report renders a human-readable inspection of one compilation: kept nodes,
// reduced edges, enumerated paths (when collected), diagnostics, and the DDL
// document.
func Report(res *compiler.Result) string {
	g := res.Graph
	var b strings.Builder

	b.WriteString("=== REDUCED NODES ===\n")
	for _, id := range g.NodeIDs {
		n := g.Nodes[id]
		fmt.Fprintf(&b, "- %-18s | %-10s | %s\n", n.ID, n.Kind, n.Label)
	}

	b.WriteString("\n=== REDUCED EDGES ===\n")
	for _, e := range g.Edges {
		fmt.Fprintf(&b, "%s%s -> %s | src=%q dst=%q | obligations: %s | via_flows: %s\n",
			e.Src, guardSuffix(e), e.Dst,
			g.Nodes[e.Src].Label, g.Nodes[e.Dst].Label,
			listOr(e.Obligations, "(none)"), listOr(e.ViaFlows, "(none)"))
	}

	if res.Paths != nil {
		fmt.Fprintf(&b, "\n=== PATHS (%d) ===\n", len(res.Paths))
		for i, path := range res.Paths {
			fmt.Fprintf(&b, "\nPath %d:\n", i+1)
			for _, e := range path {
				fmt.Fprintf(&b, "  %s%s -> %s | obligations: %s\n",
					e.Src, guardSuffix(e), e.Dst, listOr(e.Obligations, "(none)"))
			}
		}
	} else {
		fmt.Fprintf(&b, "\n=== PATHS (%d, not collected) ===\n", res.ScenarioCount)
	}

	if len(res.Diagnostics) > 0 {
		b.WriteString("\n=== DIAGNOSTICS ===\n")
		for _, d := range res.Diagnostics {
			b.WriteString(d.String())
			b.WriteByte('\n')
		}
	}

	b.WriteByte('\n')
	b.WriteString(DDLDocument(res.RuleSet))
	return b.String()
}

func guardSuffix(e compiler.ReducedEdge) string {
	if !e.Guarded {
		return ""
	}
	return " [" + e.Guard + "]"
}

func listOr(items []string, empty string) string {
	if len(items) == 0 {
		return empty
	}
	return strings.Join(items, ", ")
}
