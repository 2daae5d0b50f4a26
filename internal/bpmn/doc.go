// Package bpmn is the diagram front-end: it scans BPMN 2.0 XML into node and
// flow tables, adjacency lists, and the declared branch order of every
// exclusive gateway.
//
// Only the first process container is read. BPMN-DI is ignored; control flow
// comes from sequenceFlow sourceRef/targetRef alone. Elements missing a
// required attribute are skipped rather than reported.
package bpmn
