// Package match reconciles extracted equation occurrences against the
// knowledge graph's display index.
//
// Matching is exact string comparison after normalization, nothing more:
// the auditor deliberately has no notion of algebraic equivalence, so a+b
// and b+a stay distinct. An occurrence either hits exactly one formula id
// or lands in the source-only partition.
package match

import (
	"sort"

	"github.com/physics-archive/formulaudit/internal/extract"
	"github.com/physics-archive/formulaudit/internal/graph"
	"github.com/physics-archive/formulaudit/internal/normalize"
)

// Pair links one occurrence to the formula it matched.
type Pair struct {
	Occurrence extract.Occurrence `json:"occurrence"`
	FormulaID  string             `json:"formula_id"`

	// Normalized is the canonical string both sides reduced to.
	Normalized string `json:"normalized"`
}

// Reconciliation partitions the corpus against the store.
type Reconciliation struct {
	// MatchedPairs holds every occurrence that hit a formula, ordered by
	// (document, section, occurrence index).
	MatchedPairs []Pair `json:"matched_pairs"`

	// SourceOnly holds occurrences with no database entry, in the same
	// (document, section, occurrence index) order.
	SourceOnly []extract.Occurrence `json:"source_only"`

	// TargetOnly holds formula ids never matched by any occurrence,
	// sorted lexicographically.
	TargetOnly []string `json:"target_only"`
}

// Reconcile matches every occurrence against the store's display index.
// The index is one-to-one by construction (conflicting display variants are
// rejected at registration), so each occurrence resolves to at most one id.
// After the whole corpus is processed, formula ids never matched are
// collected into TargetOnly.
func Reconcile(store *graph.Store, occurrences []extract.Occurrence) *Reconciliation {
	index := store.DisplayIndex()
	matched := make(map[string]bool, store.Len())

	rec := &Reconciliation{
		MatchedPairs: []Pair{},
		SourceOnly:   []extract.Occurrence{},
		TargetOnly:   []string{},
	}

	ordered := append([]extract.Occurrence(nil), occurrences...)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Document != ordered[j].Document {
			return ordered[i].Document < ordered[j].Document
		}
		if ordered[i].Section != ordered[j].Section {
			return ordered[i].Section < ordered[j].Section
		}
		return ordered[i].Index < ordered[j].Index
	})

	for _, occ := range ordered {
		key := normalize.Normalize(occ.Raw)
		if id, ok := index[key]; ok {
			matched[id] = true
			rec.MatchedPairs = append(rec.MatchedPairs, Pair{
				Occurrence: occ,
				FormulaID:  id,
				Normalized: key,
			})
			continue
		}
		rec.SourceOnly = append(rec.SourceOnly, occ)
	}

	// Insertion order then sort keeps the partition reproducible no
	// matter how the corpus was fanned out across workers.
	for _, id := range store.AllIDs() {
		if !matched[id] {
			rec.TargetOnly = append(rec.TargetOnly, id)
		}
	}
	sort.Strings(rec.TargetOnly)

	return rec
}
