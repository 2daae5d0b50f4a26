// Package ir provides the canonical rule intermediate representation for deonto.
//
// This package contains value types only. The front-end, compiler, exporters,
// evaluator and store all import ir; ir imports nothing internal. A RuleSet is
// the sole interface between the compiler and every serializer.
//
// Key design constraints:
//   - Rules are immutable once synthesized
//   - Conditions and actions are ordered and unique within a rule
//   - The precedence chain is a single total order, earlier rule first
//   - All JSON tags use snake_case
//   - Identity (Digest) is computed over RFC 8785 canonical JSON only
package ir
