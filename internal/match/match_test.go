package match_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/physics-archive/formulaudit/internal/extract"
	"github.com/physics-archive/formulaudit/internal/match"
	"github.com/physics-archive/formulaudit/internal/testutil"
)

// TestReconcile_OneOfThreeMatches covers the canonical case: a document with
// three equations, one of which matches a formula's LaTeX variant after
// normalization; exactly one pair and two source-only entries result.
func TestReconcile_OneOfThreeMatches(t *testing.T) {
	store := testutil.NewStore(t,
		testutil.Established("einstein", `$$E   =   mc^2$$`),
	)

	res := extract.Scan("relativity.md", "# Mass\n\n$E = mc^2$ and $p = mv$ and $$F = ma$$\n")
	require.Len(t, res.Occurrences, 3)

	rec := match.Reconcile(store, res.Occurrences)
	require.Len(t, rec.MatchedPairs, 1)
	assert.Equal(t, "einstein", rec.MatchedPairs[0].FormulaID)
	assert.Equal(t, "E = mc^2", rec.MatchedPairs[0].Normalized)
	require.Len(t, rec.SourceOnly, 2)
	assert.Equal(t, "p = mv", rec.SourceOnly[0].Raw)
	assert.Empty(t, rec.TargetOnly)
}

// TestReconcile_TargetOnly tests that formulas never matched by any
// occurrence are reported, sorted lexicographically.
func TestReconcile_TargetOnly(t *testing.T) {
	store := testutil.NewStore(t,
		testutil.Established("zeta-axiom", "z = 0"),
		testutil.Established("alpha-axiom", "a = 0"),
	)

	rec := match.Reconcile(store, nil)
	assert.Empty(t, rec.MatchedPairs)
	assert.Empty(t, rec.SourceOnly)
	assert.Equal(t, []string{"alpha-axiom", "zeta-axiom"}, rec.TargetOnly)
}

// TestReconcile_CorpusOrder tests the sort contract on source-only
// entries: document path, then section, then occurrence index.
func TestReconcile_CorpusOrder(t *testing.T) {
	store := testutil.NewStore(t, testutil.Established("known", "k = 1"))

	var occs []extract.Occurrence
	occs = append(occs, extract.Scan("b.md", "$x = 2$\n").Occurrences...)
	occs = append(occs, extract.Scan("a.md", "$y = 3$ then $k = 1$\n").Occurrences...)

	rec := match.Reconcile(store, occs)
	require.Len(t, rec.SourceOnly, 2)
	assert.Equal(t, "a.md", rec.SourceOnly[0].Document)
	assert.Equal(t, "b.md", rec.SourceOnly[1].Document)
	require.Len(t, rec.MatchedPairs, 1)
	assert.Equal(t, "known", rec.MatchedPairs[0].FormulaID)
}

// TestReconcile_SectionOrderWithinDocument tests that sections sort as the
// middle key: a document whose headings appear in reverse lexicographic
// order still emits its entries section-sorted, not in scan order.
func TestReconcile_SectionOrderWithinDocument(t *testing.T) {
	store := testutil.NewStore(t, testutil.Established("known", "k = 1"))

	res := extract.Scan("cosmo.md",
		"# Zeta\n\n$z = 1$ and $k = 1$\n\n# Alpha\n\n$a = 1$\n")
	require.Len(t, res.Occurrences, 3)

	rec := match.Reconcile(store, res.Occurrences)

	require.Len(t, rec.SourceOnly, 2)
	assert.Equal(t, "Alpha", rec.SourceOnly[0].Section)
	assert.Equal(t, "a = 1", rec.SourceOnly[0].Raw)
	assert.Equal(t, "Zeta", rec.SourceOnly[1].Section)
	assert.Equal(t, "z = 1", rec.SourceOnly[1].Raw)

	require.Len(t, rec.MatchedPairs, 1)
	assert.Equal(t, "Zeta", rec.MatchedPairs[0].Occurrence.Section)
}

// TestReconcile_MultipleOccurrencesOneFormula tests that repeated matches
// of a single formula produce a pair each but no target-only entry.
func TestReconcile_MultipleOccurrencesOneFormula(t *testing.T) {
	store := testutil.NewStore(t, testutil.Established("newton-2", "F = ma"))

	res := extract.Scan("doc.md", "$F = ma$ and again $$F = ma$$\n")
	rec := match.Reconcile(store, res.Occurrences)
	assert.Len(t, rec.MatchedPairs, 2)
	assert.Empty(t, rec.TargetOnly)
}
