// Package export renders a rule set in the formats downstream reasoners
// consume: defeasible deontic logic text (DDL), an OWL ontology carrying SWRL
// implications, LegalRuleML, and a JSON document validated against an
// embedded JSON Schema.
//
// Every renderer is a pure function of the rule set and its options; equal
// inputs render byte-identical output.
package export
