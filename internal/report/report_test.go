package report_test

import (
	"bytes"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/physics-archive/formulaudit/internal/extract"
	"github.com/physics-archive/formulaudit/internal/graph"
	"github.com/physics-archive/formulaudit/internal/match"
	"github.com/physics-archive/formulaudit/internal/report"
	"github.com/physics-archive/formulaudit/internal/testutil"
)

// buildFixtureReport runs the full pipeline over a tiny snapshot and corpus.
func buildFixtureReport(t *testing.T) *report.Report {
	t.Helper()
	store := testutil.NewStore(t,
		testutil.Established("newton-second-law", "F = ma"),
		testutil.Derived("momentum-rate", `F = \frac{dp}{dt}`, "newton-second-law"),
	)

	res := extract.Scan("mechanics.md", "# Forces\n\n$F = ma$ and $W = mg$\n")
	require.Empty(t, res.Warnings)

	summary := graph.Validate(store)
	rec := match.Reconcile(store, res.Occurrences)
	return report.Build(nil, summary, rec, res.Warnings)
}

// TestRenderJSON_Golden locks the serialized JSON report byte-for-byte.
func TestRenderJSON_Golden(t *testing.T) {
	r := buildFixtureReport(t)

	var buf bytes.Buffer
	require.NoError(t, report.RenderJSON(&buf, r))

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "audit_json", buf.Bytes())
}

// TestRenderMarkdown_Golden locks the Markdown report byte-for-byte.
func TestRenderMarkdown_Golden(t *testing.T) {
	r := buildFixtureReport(t)

	var buf bytes.Buffer
	require.NoError(t, report.RenderMarkdown(&buf, r))

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "audit_markdown", buf.Bytes())
}

// TestRender_Deterministic tests that rendering the same pipeline output
// twice produces identical bytes in both formats.
func TestRender_Deterministic(t *testing.T) {
	first := buildFixtureReport(t)
	second := buildFixtureReport(t)

	var j1, j2, m1, m2 bytes.Buffer
	require.NoError(t, report.RenderJSON(&j1, first))
	require.NoError(t, report.RenderJSON(&j2, second))
	require.NoError(t, report.RenderMarkdown(&m1, first))
	require.NoError(t, report.RenderMarkdown(&m2, second))

	assert.Equal(t, j1.Bytes(), j2.Bytes())
	assert.Equal(t, m1.Bytes(), m2.Bytes())
}

// TestReport_Failing tests the exit-code policy: structural violations
// always fail, source-only entries fail only under strict.
func TestReport_Failing(t *testing.T) {
	r := buildFixtureReport(t)
	assert.False(t, r.Failing(false), "clean graph with source-only entries passes by default")
	assert.True(t, r.Failing(true), "strict mode turns source-only entries into a failure")

	broken := testutil.NewStore(t,
		testutil.Derived("loop", "l = l", "loop"),
	)
	summary := graph.Validate(broken)
	rec := match.Reconcile(broken, nil)
	dirty := report.Build(nil, summary, rec, nil)
	assert.True(t, dirty.Failing(false), "cycles fail regardless of strict")

	conflicted := report.Build(&report.Registration{
		DisplayConflicts: []*graph.DuplicateDisplayConflict{
			{Display: "E = mc^2", ExistingID: "mass-energy", NewID: "rest-energy"},
		},
	}, graph.Validate(buildCleanStore(t)), match.Reconcile(buildCleanStore(t), nil), nil)
	assert.True(t, conflicted.Failing(false), "display conflicts fail regardless of strict")
}

func buildCleanStore(t *testing.T) *graph.Store {
	t.Helper()
	return testutil.NewStore(t, testutil.Established("axiom", "a = 1"))
}

// TestBuild_SortsWarnings tests the warning ordering contract.
func TestBuild_SortsWarnings(t *testing.T) {
	warnings := []extract.Warning{
		{Document: "b.md", Offset: 4},
		{Document: "a.md", Offset: 9},
		{Document: "a.md", Offset: 2},
	}
	store := testutil.NewStore(t, testutil.Established("a", "a = 1"))
	r := report.Build(nil, graph.Validate(store), match.Reconcile(store, nil), warnings)

	require.Len(t, r.ExtractionWarnings, 3)
	assert.Equal(t, "a.md", r.ExtractionWarnings[0].Document)
	assert.Equal(t, 2, r.ExtractionWarnings[0].Offset)
	assert.Equal(t, "a.md", r.ExtractionWarnings[1].Document)
	assert.Equal(t, 9, r.ExtractionWarnings[1].Offset)
	assert.Equal(t, "b.md", r.ExtractionWarnings[2].Document)
}
