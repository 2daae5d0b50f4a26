package export

import (
	"strings"

	"github.com/roach88/deonto/internal/compiler"
	"github.com/roach88/deonto/internal/ir"
)

// NoObligation is the consequent of a rule without actions.
const NoObligation = "O(none)"

// DDL renders one rule as a defeasible deontic logic clause:
//
//	r1: AIsystem_generatesContent => O(AIprovider_markContent).
//
// A rule without conditions has the antecedent "true"; false conditions are
// prefixed with "not".
func DDL(r ir.Rule) string {
	ant := "true"
	if len(r.Conditions) > 0 {
		atoms := make([]string, len(r.Conditions))
		for i, c := range r.Conditions {
			atom := compiler.ToSymbol(c.Actor + " " + c.Predicate)
			if !c.Value {
				atom = "not " + atom
			}
			atoms[i] = atom
		}
		ant = strings.Join(atoms, ", ")
	}

	head := NoObligation
	if len(r.Actions) > 0 {
		atoms := make([]string, len(r.Actions))
		for i, a := range r.Actions {
			atoms[i] = "O(" + compiler.ToSymbol(a.Actor+" "+a.Name) + ")"
		}
		head = strings.Join(atoms, " & ")
	}

	return r.ID + ": " + ant + " => " + head + "."
}

// Superiority renders a precedence pair as "r1 > r2.".
func Superiority(p ir.Precedence) string {
	return p.Superior + " > " + p.Inferior + "."
}

// DDLDocument renders the rules section followed by the superiority section.
func DDLDocument(rs ir.RuleSet) string {
	var b strings.Builder
	b.WriteString("% RULES\n")
	for _, r := range rs.Rules {
		b.WriteString(DDL(r))
		b.WriteByte('\n')
	}
	b.WriteString("\n% SUPERIORITY\n")
	for _, p := range rs.Precedence {
		b.WriteString(Superiority(p))
		b.WriteByte('\n')
	}
	return b.String()
}
