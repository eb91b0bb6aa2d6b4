// Package store persists the audit history ledger.
//
// Each audit run appends one row: when it ran, which inputs it saw (paths
// plus the snapshot fingerprint), the per-category violation counts, and
// the report fingerprint. Comparing report hashes between successive rows
// is how the ledger supports diff-based regression checks: identical
// inputs must produce identical hashes, so a changed hash means the audit
// outcome changed.
//
// The ledger is optional and strictly additive; the audit report itself
// never reads it, so report determinism is unaffected.
package store
