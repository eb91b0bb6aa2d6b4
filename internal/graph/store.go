package graph

import (
	"fmt"

	"github.com/physics-archive/formulaudit/internal/formula"
	"github.com/physics-archive/formulaudit/internal/normalize"
)

// Store is the knowledge graph store. It is populated once from a database
// snapshot and read-only afterwards; nothing in the audit pipeline mutates
// it, so concurrent readers need no locking.
type Store struct {
	records map[string]*formula.Record
	order   []string          // insertion order, drives deterministic iteration
	display map[string]string // normalized display string -> formula id
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		records: make(map[string]*formula.Record),
		display: make(map[string]string),
	}
}

// Register adds a record to the store.
//
// The record-local invariants are checked immediately:
//   - I1: an ESTABLISHED record declaring parents is rejected
//   - I2: a non-ESTABLISHED record declaring no dependency is rejected
//
// Each of the record's display variants is normalized and entered into the
// display index; a variant that already maps to a different id is rejected
// with a DuplicateDisplayConflict. The whole-graph invariants I3/I4 need
// full-graph context and are deferred to Validate.
func (s *Store) Register(rec formula.Record) error {
	if rec.ID == "" {
		return &InvariantViolation{
			Invariant: InvariantNeedsParent,
			ID:        rec.ID,
			Field:     "id",
			Message:   "formula id must be non-empty",
		}
	}
	if !rec.Category.Valid() {
		return fmt.Errorf("formula %q: unknown category %q", rec.ID, rec.Category)
	}
	if len(rec.DisplayVariants) == 0 {
		return &InvariantViolation{
			Invariant: InvariantNeedsParent,
			ID:        rec.ID,
			Field:     "display_variants",
			Message:   "at least one display variant is required",
		}
	}

	if rec.Category == formula.Established {
		if len(rec.ParentFormulaIDs) > 0 {
			return &InvariantViolation{
				Invariant: InvariantAxiomNoParents,
				ID:        rec.ID,
				Field:     "parent_formula_ids",
				Message:   "ESTABLISHED formulas are axioms and may not declare parents",
			}
		}
		if len(rec.EstablishedPhysicsIDs) > 0 {
			return &InvariantViolation{
				Invariant: InvariantAxiomNoParents,
				ID:        rec.ID,
				Field:     "established_physics_ids",
				Message:   "ESTABLISHED formulas are axioms and may not cite established physics",
			}
		}
	} else if len(rec.Dependencies()) == 0 {
		return &InvariantViolation{
			Invariant: InvariantNeedsParent,
			ID:        rec.ID,
			Field:     "parent_formula_ids",
			Message:   "non-ESTABLISHED formulas require at least one parent or established-physics id",
		}
	}

	if existing, ok := s.records[rec.ID]; ok {
		return &DuplicateDisplayConflict{
			Display:    normalize.Normalize(existing.DisplayVariants[0]),
			ExistingID: existing.ID,
			NewID:      rec.ID,
		}
	}

	// Check every variant before touching the index so a rejected record
	// leaves the store unchanged.
	normalized := make([]string, len(rec.DisplayVariants))
	for i, variant := range rec.DisplayVariants {
		key := normalize.Normalize(variant)
		if owner, ok := s.display[key]; ok && owner != rec.ID {
			return &DuplicateDisplayConflict{
				Display:    key,
				ExistingID: owner,
				NewID:      rec.ID,
			}
		}
		normalized[i] = key
	}

	stored := rec
	s.records[rec.ID] = &stored
	s.order = append(s.order, rec.ID)
	for _, key := range normalized {
		s.display[key] = rec.ID
	}
	return nil
}

// Get returns the record for id, or a NotFoundError.
func (s *Store) Get(id string) (*formula.Record, error) {
	rec, ok := s.records[id]
	if !ok {
		return nil, &NotFoundError{ID: id}
	}
	return rec, nil
}

// ParentsOf returns the record's dependency edge set: parent ids and
// established-physics ids, deduplicated, in declaration order.
func (s *Store) ParentsOf(id string) ([]string, error) {
	rec, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	return rec.Dependencies(), nil
}

// AllIDs returns every registered id in insertion order. Snapshot order is
// deterministic, so iteration order is reproducible across runs.
func (s *Store) AllIDs() []string {
	ids := make([]string, len(s.order))
	copy(ids, s.order)
	return ids
}

// Len returns the number of registered records.
func (s *Store) Len() int {
	return len(s.records)
}

// DisplayIndex returns the normalized-display-string → id map. The map is
// shared, not copied: it is built during registration and never mutated
// afterwards, so concurrent readers are safe.
func (s *Store) DisplayIndex() map[string]string {
	return s.display
}
