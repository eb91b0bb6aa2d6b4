// Package testutil provides fixture builders shared by tests across the
// internal packages.
package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/physics-archive/formulaudit/internal/formula"
	"github.com/physics-archive/formulaudit/internal/graph"
)

// Record builds a formula record with a single display variant.
func Record(id string, category formula.Category, display string, parents ...string) formula.Record {
	return formula.Record{
		ID:               id,
		Category:         category,
		DisplayVariants:  []string{display},
		ParentFormulaIDs: parents,
	}
}

// Established builds an axiomatic record with no parents.
func Established(id, display string) formula.Record {
	return Record(id, formula.Established, display)
}

// Derived builds a DERIVED record depending on the given parents.
func Derived(id, display string, parents ...string) formula.Record {
	return Record(id, formula.Derived, display, parents...)
}

// NewStore registers the given records into a fresh store, failing the test
// on any registration error.
func NewStore(t *testing.T, records ...formula.Record) *graph.Store {
	t.Helper()
	store := graph.NewStore()
	for _, rec := range records {
		require.NoError(t, store.Register(rec), "register %s", rec.ID)
	}
	return store
}
