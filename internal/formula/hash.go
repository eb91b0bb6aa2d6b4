package formula

import (
	"crypto/sha256"
	"encoding/hex"
)

// Domain prefixes for content fingerprints.
// Version suffix enables future algorithm migration.
const (
	DomainSnapshot = "formulaudit/snapshot/v1"
	DomainReport   = "formulaudit/report/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data). The null byte separator prevents
// domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// SnapshotHash fingerprints the serialized bytes of a database snapshot.
// Equal bytes always produce equal hashes, so the history ledger can tell
// whether two audit runs saw the same database.
func SnapshotHash(serialized []byte) string {
	return hashWithDomain(DomainSnapshot, serialized)
}

// ReportHash fingerprints the serialized bytes of an audit report.
// Used by the history ledger for diff-based regression checks between
// successive runs.
func ReportHash(serialized []byte) string {
	return hashWithDomain(DomainReport, serialized)
}
