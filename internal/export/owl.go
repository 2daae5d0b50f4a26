package export

import (
	"slices"

	"github.com/roach88/deonto/internal/ir"
)

const (
	nsRDF     = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	rdfNil    = nsRDF + "nil"
	xsdBool   = "http://www.w3.org/2001/XMLSchema#boolean"
	xsdString = "http://www.w3.org/2001/XMLSchema#string"
)

// swrlAtom is one DatavaluedPropertyAtom: predicate(?actor, value).
type swrlAtom struct {
	predicate string
	actor     string
	datatype  string
	value     string
}

// OWL renders the rule set as an RDF/XML ontology with one swrl:Imp per
// rule. A condition becomes predicate(?actor, true|false); an action becomes
// task(?actor, "name"). Properties and variables are declared in sorted
// order; an empty atom list is rdf:nil.
func OWL(rs ir.RuleSet, opts Options) string {
	opts = opts.withDefaults()
	base := opts.BaseIRI
	actors, predicates := ontologyTerms(rs, opts.TaskPredicate)

	w := &xmlWriter{}
	w.raw(`<?xml version="1.0"?>`)
	w.raw(`<rdf:RDF`)
	w.raw(`  xmlns:rdf="` + nsRDF + `"`)
	w.raw(`  xmlns:owl="http://www.w3.org/2002/07/owl#"`)
	w.raw(`  xmlns:xsd="http://www.w3.org/2001/XMLSchema#"`)
	w.raw(`  xmlns:rdfs="http://www.w3.org/2000/01/rdf-schema#"`)
	w.raw(`  xmlns:swrl="http://www.w3.org/2003/11/swrl#"`)
	w.b.WriteString(`  xml:base="`)
	escape(&w.b, base)
	w.raw(`">`)
	w.depth = 1

	w.blank()
	w.empty("owl:Ontology", "rdf:about", base)

	w.blank()
	for _, p := range predicates {
		w.empty("owl:DatatypeProperty", "rdf:about", base+"#"+p)
	}

	w.blank()
	for _, a := range actors {
		w.empty("swrl:Variable", "rdf:about", variableIRI(base, a))
	}

	for _, r := range rs.Rules {
		body := make([]swrlAtom, len(r.Conditions))
		for i, c := range r.Conditions {
			value := "false"
			if c.Value {
				value = "true"
			}
			body[i] = swrlAtom{predicate: c.Predicate, actor: c.Actor, datatype: xsdBool, value: value}
		}
		head := make([]swrlAtom, len(r.Actions))
		for i, a := range r.Actions {
			head[i] = swrlAtom{predicate: opts.TaskPredicate, actor: a.Actor, datatype: xsdString, value: a.Name}
		}

		w.blank()
		w.open("swrl:Imp", "rdf:about", base+"#"+r.ID)
		w.open("swrl:body")
		writeAtomList(w, base, body)
		w.close("swrl:body")
		w.open("swrl:head")
		writeAtomList(w, base, head)
		w.close("swrl:head")
		w.close("swrl:Imp")
	}

	w.depth = 0
	w.raw("</rdf:RDF>")
	return w.String()
}

// writeAtomList writes atoms as a proper RDF list.
func writeAtomList(w *xmlWriter, base string, atoms []swrlAtom) {
	if len(atoms) == 0 {
		w.empty("rdf:Description", "rdf:about", rdfNil)
		return
	}
	w.open("swrl:AtomList")
	w.open("rdf:first")
	a := atoms[0]
	w.open("swrl:DatavaluedPropertyAtom")
	w.empty("swrl:propertyPredicate", "rdf:resource", base+"#"+a.predicate)
	w.empty("swrl:argument1", "rdf:resource", variableIRI(base, a.actor))
	w.text("swrl:argument2", a.value, "rdf:datatype", a.datatype)
	w.close("swrl:DatavaluedPropertyAtom")
	w.close("rdf:first")
	if len(atoms) == 1 {
		w.empty("rdf:rest", "rdf:resource", rdfNil)
	} else {
		w.open("rdf:rest")
		writeAtomList(w, base, atoms[1:])
		w.close("rdf:rest")
	}
	w.close("swrl:AtomList")
}

func variableIRI(base, actor string) string {
	return base + "#var_" + actor
}

// ontologyTerms returns the sorted actors and the sorted condition
// predicates plus the task predicate.
func ontologyTerms(rs ir.RuleSet, taskPredicate string) (actors, predicates []string) {
	actorSet := map[string]bool{}
	predSet := map[string]bool{taskPredicate: true}
	for _, r := range rs.Rules {
		for _, c := range r.Conditions {
			actorSet[c.Actor] = true
			predSet[c.Predicate] = true
		}
		for _, a := range r.Actions {
			actorSet[a.Actor] = true
		}
	}
	for a := range actorSet {
		actors = append(actors, a)
	}
	for p := range predSet {
		predicates = append(predicates, p)
	}
	slices.Sort(actors)
	slices.Sort(predicates)
	return actors, predicates
}
