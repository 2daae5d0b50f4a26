package export

import (
	"regexp"

	"github.com/roach88/deonto/internal/ir"
)

var unsafeKey = regexp.MustCompile(`[^A-Za-z0-9_.\-]`)

func statementKey(id string) string {
	if id == "" {
		return "unnamed"
	}
	return unsafeKey.ReplaceAllString(id, "_")
}

type ruleMLAtom struct {
	rel, variable, datatype, data string
}

// LegalRuleML renders one lrml:PrescriptiveStatement per rule and one
// lrml:OverrideStatement per precedence pair, with the superior rule as
// "over". A rule without conditions has no ruleml:if block; a rule without
// actions has no ruleml:then block.
func LegalRuleML(rs ir.RuleSet, opts Options) string {
	opts = opts.withDefaults()

	w := &xmlWriter{}
	w.raw(`<?xml version="1.0" encoding="UTF-8"?>`)
	w.raw(`<lrml:LegalRuleML`)
	w.raw(`  xmlns:lrml="http://docs.oasis-open.org/legalruleml/ns/v1.0/"`)
	w.raw(`  xmlns:ruleml="http://ruleml.org/spec"`)
	w.raw(`  xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">`)
	w.depth = 1
	w.open("lrml:Statements")

	for _, r := range rs.Rules {
		var ifAtoms, thenAtoms []ruleMLAtom
		for _, c := range r.Conditions {
			data := "false"
			if c.Value {
				data = "true"
			}
			ifAtoms = append(ifAtoms, ruleMLAtom{c.Predicate, c.Actor, "xs:boolean", data})
		}
		for _, a := range r.Actions {
			thenAtoms = append(thenAtoms, ruleMLAtom{opts.TaskPredicate, a.Actor, "xs:string", a.Name})
		}

		key := statementKey(r.ID)
		w.open("lrml:PrescriptiveStatement", "key", key)
		w.open("ruleml:Rule", "key", key)
		if len(ifAtoms) > 0 {
			w.open("ruleml:if")
			writeConjunction(w, ifAtoms)
			w.close("ruleml:if")
		}
		if len(thenAtoms) > 0 {
			w.open("ruleml:then")
			writeConjunction(w, thenAtoms)
			w.close("ruleml:then")
		}
		w.close("ruleml:Rule")
		w.close("lrml:PrescriptiveStatement")
	}

	for _, p := range rs.Precedence {
		w.open("lrml:OverrideStatement")
		w.empty("lrml:Override", "over", "#"+p.Superior, "under", "#"+p.Inferior)
		w.close("lrml:OverrideStatement")
	}

	w.close("lrml:Statements")
	w.depth = 0
	w.raw("</lrml:LegalRuleML>")
	return w.String()
}

// writeConjunction wraps more than one atom in ruleml:And.
func writeConjunction(w *xmlWriter, atoms []ruleMLAtom) {
	if len(atoms) > 1 {
		w.open("ruleml:And")
		defer w.close("ruleml:And")
	}
	for _, a := range atoms {
		w.open("ruleml:Atom")
		w.text("ruleml:Rel", a.rel)
		w.text("ruleml:Var", a.variable)
		w.text("ruleml:Data", a.data, "xsi:type", a.datatype)
		w.close("ruleml:Atom")
	}
}
