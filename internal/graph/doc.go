// Package graph holds the formula knowledge graph: an immutable store of
// formula records plus the derivation-chain validator that checks the
// graph's structural invariants.
//
// The store enforces the record-local invariants at registration time:
//
//	I1: ESTABLISHED records declare no parents (they are axioms)
//	I2: every other record declares at least one dependency
//
// The whole-graph invariants are checked by Validate in a single pass:
//
//	I3: the dependency graph is acyclic
//	I4: every non-ESTABLISHED record's ancestry reaches an ESTABLISHED one
//
// Validation never aborts on the first violation: every cycle, dangling
// reference and unrooted chain across the whole graph is collected before
// the summary is returned, so one run surfaces every problem.
package graph
