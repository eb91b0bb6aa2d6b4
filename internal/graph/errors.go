package graph

import (
	"errors"
	"fmt"
	"strings"
)

// Invariant names the record-local invariants checked at registration.
type Invariant string

const (
	// InvariantAxiomNoParents (I1): ESTABLISHED records must not declare
	// parent or established-physics ids.
	InvariantAxiomNoParents Invariant = "I1_AXIOM_NO_PARENTS"

	// InvariantNeedsParent (I2): non-ESTABLISHED records must declare at
	// least one dependency.
	InvariantNeedsParent Invariant = "I2_NEEDS_PARENT"
)

// InvariantViolation reports a record that breaks I1 or I2 at registration.
// It names both the invariant and the offending field so the remediation is
// unambiguous.
type InvariantViolation struct {
	Invariant Invariant `json:"invariant"`
	ID        string    `json:"id"`
	Field     string    `json:"field"`
	Message   string    `json:"message"`
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("%s: formula %q: %s: %s", e.Invariant, e.ID, e.Field, e.Message)
}

// DuplicateDisplayConflict reports two different formula ids claiming the
// same normalized display string. Raised eagerly at registration so the
// display index is one-to-one by construction at match time.
type DuplicateDisplayConflict struct {
	Display    string `json:"display"` // normalized display string
	ExistingID string `json:"existing_id"`
	NewID      string `json:"new_id"`
}

func (e *DuplicateDisplayConflict) Error() string {
	return fmt.Sprintf("display conflict: %q already registered for %q, rejected for %q",
		e.Display, e.ExistingID, e.NewID)
}

// NotFoundError reports a lookup of an id absent from the store.
type NotFoundError struct {
	ID string `json:"id"`
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("formula %q not found", e.ID)
}

// IsNotFound reports whether err is a NotFoundError.
// Uses errors.As to handle wrapped errors.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// CycleDetected reports a dependency cycle (I3 violation). Path lists the
// ids in cycle order, starting and ending at the repeated id.
type CycleDetected struct {
	Path []string `json:"path"`
}

// ID returns the cycle's reporting id: its lexicographically smallest
// member. Violation lists are sorted by this.
func (c CycleDetected) ID() string {
	if len(c.Path) == 0 {
		return ""
	}
	return c.Path[0]
}

func (c CycleDetected) String() string {
	return "cycle: " + strings.Join(c.Path, " -> ")
}

// ReferenceError reports a record depending on an id absent from the store.
// Reported distinctly from cycles because the remediation differs: add the
// missing formula rather than break a cycle.
type ReferenceError struct {
	ID              string `json:"id"`
	MissingParentID string `json:"missing_parent_id"`
}

func (r ReferenceError) String() string {
	return fmt.Sprintf("formula %q references missing parent %q", r.ID, r.MissingParentID)
}

// UnrootedChain reports a non-ESTABLISHED record whose ancestry never
// reaches an ESTABLISHED record (I4 violation).
type UnrootedChain struct {
	ID string `json:"id"`
}

func (u UnrootedChain) String() string {
	return fmt.Sprintf("formula %q has no established ancestor", u.ID)
}
