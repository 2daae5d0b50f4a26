// Package harness runs conformance scenarios against the compiler.
//
// # Scenario Format
//
// Scenarios are YAML files. Paths are relative to the scenario file:
//
//	name: ai_content
//	description: "Yes/No decision with one obligation per branch"
//	diagram: ../diagrams/ai_content.bpmn
//	config: ../config/suppress.cue      # optional
//	golden: ../golden/ai_content.golden # expected DDL document
//	evaluate:
//	  - facts: { AIsystem.generatesContent: true }
//	    prevailing: r1
//	    obligations: [AIprovider.markContent]
//	assertions:
//	  - type: rule_count
//	    count: 2
//	  - type: rule
//	    rule: r1
//	    conditions: [AIsystem.generatesContent=true]
//	    actions: [AIprovider.markContent]
//	  - type: precedence
//	    pairs: ["r1 > r2"]
//
// # Assertion Types
//
//   - rule_count: exact number of rules
//   - scenario_count: exact number of enumerated scenarios
//   - edge_count: exact number of reduced edges
//   - rule: conditions and actions of one rule, in order
//   - precedence: the full superiority chain, in order
//   - diagnostic: a diagnostic with the code (and node) is reported, or with
//     absent: true, is not
//   - error: compilation fails with the given error code
//
// # Determinism
//
// Every successful run is recorded in an in-memory store with sequential
// run ids and replayed; a replay whose digest differs fails the scenario.
package harness
