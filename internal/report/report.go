// Package report assembles the derivation validation summary and the
// cross-source reconciliation into one stable, serializable audit report.
//
// Ordering contract: source-only occurrences sort by (document, section,
// occurrence index), target-only ids lexicographically, and violation lists
// by offending id. Two runs over unchanged inputs therefore produce
// byte-identical serialized reports, which is what enables diff-based
// regression checks between successive audits.
package report

import (
	"sort"

	"github.com/physics-archive/formulaudit/internal/extract"
	"github.com/physics-archive/formulaudit/internal/graph"
	"github.com/physics-archive/formulaudit/internal/match"
)

// Registration collects the structural findings raised while the snapshot
// was loaded into the store: records rejected for breaking the
// record-local invariants, display variants claimed by two ids, and
// snapshot entries that failed to compile at all.
type Registration struct {
	InvariantViolations []*graph.InvariantViolation       `json:"invariant_violations"`
	DisplayConflicts    []*graph.DuplicateDisplayConflict `json:"display_conflicts"`
	CompileErrors       []string                          `json:"compile_errors"`
}

// Clean reports whether snapshot loading raised no structural findings.
func (r *Registration) Clean() bool {
	return len(r.InvariantViolations) == 0 && len(r.DisplayConflicts) == 0 && len(r.CompileErrors) == 0
}

// Report is the complete audit output.
type Report struct {
	Registration *Registration         `json:"registration"`
	Derivation   *graph.Summary        `json:"derivation"`
	Consistency  *match.Reconciliation `json:"consistency"`

	// ExtractionWarnings lists malformed math regions. Warnings are
	// informational: they never affect the exit code.
	ExtractionWarnings []extract.Warning `json:"extraction_warnings"`
}

// Build assembles a report, enforcing the ordering contract on the parts
// the pipeline produced in corpus-arrival order.
func Build(reg *Registration, summary *graph.Summary, rec *match.Reconciliation, warnings []extract.Warning) *Report {
	if reg == nil {
		reg = &Registration{}
	}
	normalized := &Registration{
		InvariantViolations: append([]*graph.InvariantViolation{}, reg.InvariantViolations...),
		DisplayConflicts:    append([]*graph.DuplicateDisplayConflict{}, reg.DisplayConflicts...),
		CompileErrors:       append([]string{}, reg.CompileErrors...),
	}
	sort.SliceStable(normalized.InvariantViolations, func(i, j int) bool {
		return normalized.InvariantViolations[i].ID < normalized.InvariantViolations[j].ID
	})
	sort.SliceStable(normalized.DisplayConflicts, func(i, j int) bool {
		return normalized.DisplayConflicts[i].NewID < normalized.DisplayConflicts[j].NewID
	})
	sort.Strings(normalized.CompileErrors)

	sorted := append([]extract.Warning{}, warnings...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Document != sorted[j].Document {
			return sorted[i].Document < sorted[j].Document
		}
		return sorted[i].Offset < sorted[j].Offset
	})

	return &Report{
		Registration:       normalized,
		Derivation:         summary,
		Consistency:        rec,
		ExtractionWarnings: sorted,
	}
}

// Failing reports whether the audit should exit non-zero. Structural
// violations always fail; source-only equations fail only under strict
// mode. Warnings and target-only entries never fail.
func (r *Report) Failing(strict bool) bool {
	if !r.Registration.Clean() || !r.Derivation.Clean() {
		return true
	}
	return strict && len(r.Consistency.SourceOnly) > 0
}
