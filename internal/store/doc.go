// Package store provides SQLite-backed persistence of compilation runs.
//
// Each run records the diagram source, the configuration it was compiled
// under, every rule in order, the precedence chain, and the rule-set digest.
// Replaying a run recompiles the stored source and compares digests.
//
// # Determinism
//
//   - Runs are ordered by seq (insertion order), never by timestamps
//   - Rules and precedence pairs are ordered by their position in the rule set
//   - Conditions and actions are stored as RFC 8785 canonical JSON
//   - Reads return empty slices, not nil
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
