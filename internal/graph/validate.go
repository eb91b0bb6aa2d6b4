package graph

import (
	"sort"
	"strings"

	"github.com/physics-archive/formulaudit/internal/formula"
)

// Summary is the outcome of validating the whole store. All violation lists
// are sorted by offending id so two runs over the same snapshot serialize
// identically.
type Summary struct {
	Total           int              `json:"total"`
	ValidCount      int              `json:"valid_count"`
	Cycles          []CycleDetected  `json:"cycles"`
	Unrooted        []UnrootedChain  `json:"unrooted"`
	ReferenceErrors []ReferenceError `json:"reference_errors"`

	// Chains maps each valid id to its derivation chain: the shortest path
	// to the lexicographically smallest ESTABLISHED ancestor at minimal
	// depth. ESTABLISHED ids map to a single-element chain.
	Chains map[string][]string `json:"chains"`
}

// Clean reports whether the summary contains no structural violations.
func (s *Summary) Clean() bool {
	return len(s.Cycles) == 0 && len(s.Unrooted) == 0 && len(s.ReferenceErrors) == 0
}

// node colors for the DFS. White nodes are unvisited, gray nodes are on the
// current recursion stack, black nodes are fully processed.
type color uint8

const (
	white color = iota
	gray
	black
)

// validator carries the traversal state for one Validate pass.
type validator struct {
	store *Store

	colors  map[string]color
	stack   []string        // current DFS path, for cycle extraction
	onStack map[string]int  // id -> index in stack
	rooted  map[string]bool // id -> ancestry reaches an ESTABLISHED record

	cycleSeen   map[string]bool // canonical cycle key -> already reported
	cycleMember map[string]bool
	refErrSeen  map[string]bool // "id\x00missing" -> already reported

	cycles   []CycleDetected
	refErrs  []ReferenceError
	unrooted []UnrootedChain
}

// Validate checks the whole-graph invariants I3 (acyclicity) and I4
// (rootedness) over every record in the store.
//
// The pass is a single three-color DFS from every id, O(V+E). It never
// stops at the first violation: every cycle, every dangling parent
// reference and every unrooted chain is collected before the summary is
// returned. Each distinct cycle is reported exactly once, with its full
// path normalized to start and end at its lexicographically smallest
// member.
func Validate(store *Store) *Summary {
	v := &validator{
		store:       store,
		colors:      make(map[string]color, store.Len()),
		onStack:     make(map[string]int),
		rooted:      make(map[string]bool, store.Len()),
		cycleSeen:   make(map[string]bool),
		cycleMember: make(map[string]bool),
		refErrSeen:  make(map[string]bool),
	}

	ids := store.AllIDs()
	for _, id := range ids {
		if v.colors[id] == white {
			v.visit(id)
		}
	}

	// Empty slices, not nil: violation lists serialize as [] so clean and
	// dirty reports share a shape.
	summary := &Summary{
		Total:           len(ids),
		Cycles:          append([]CycleDetected{}, v.cycles...),
		Unrooted:        []UnrootedChain{},
		ReferenceErrors: append([]ReferenceError{}, v.refErrs...),
		Chains:          make(map[string][]string),
	}

	// Reference errors by (id, missing parent).
	sort.Slice(summary.ReferenceErrors, func(i, j int) bool {
		a, b := summary.ReferenceErrors[i], summary.ReferenceErrors[j]
		if a.ID != b.ID {
			return a.ID < b.ID
		}
		return a.MissingParentID < b.MissingParentID
	})
	sort.Slice(summary.Cycles, func(i, j int) bool {
		return summary.Cycles[i].ID() < summary.Cycles[j].ID()
	})

	directRefErr := make(map[string]bool, len(v.refErrs))
	for _, re := range v.refErrs {
		directRefErr[re.ID] = true
	}

	for _, id := range ids {
		rec, err := store.Get(id)
		if err != nil {
			continue
		}
		switch {
		case v.cycleMember[id]:
			// Cycle membership is already reported as CycleDetected.
		case directRefErr[id]:
			// Remediation is "add the missing formula"; an unrooted
			// finding on top of that would point the wrong way.
		case rec.Category != formula.Established && !v.rooted[id]:
			summary.Unrooted = append(summary.Unrooted, UnrootedChain{ID: id})
		default:
			if chain, ok := chainToRoot(store, id); ok {
				summary.Chains[id] = chain
				summary.ValidCount++
			}
		}
	}

	sort.Slice(summary.Unrooted, func(i, j int) bool {
		return summary.Unrooted[i].ID < summary.Unrooted[j].ID
	})

	return summary
}

// visit is the recursive core of the three-color DFS. On return the node is
// black and v.rooted[id] records whether its ancestry reached an
// ESTABLISHED record.
func (v *validator) visit(id string) {
	v.colors[id] = gray
	v.onStack[id] = len(v.stack)
	v.stack = append(v.stack, id)

	rec, err := v.store.Get(id)
	if err == nil {
		if rec.Category == formula.Established {
			v.rooted[id] = true
		}
		for _, parent := range rec.Dependencies() {
			switch v.colors[parent] {
			case white:
				if _, err := v.store.Get(parent); err != nil {
					v.referenceError(id, parent)
					continue
				}
				v.visit(parent)
				if v.rooted[parent] {
					v.rooted[id] = true
				}
			case gray:
				// Back edge: the current stack from parent onward forms
				// a cycle.
				v.recordCycle(parent)
			case black:
				if v.rooted[parent] {
					v.rooted[id] = true
				}
			}
		}
	}

	v.stack = v.stack[:len(v.stack)-1]
	delete(v.onStack, id)
	v.colors[id] = black
}

// referenceError reports a dangling parent id once per (id, missing) pair.
func (v *validator) referenceError(id, missing string) {
	key := id + "\x00" + missing
	if v.refErrSeen[key] {
		return
	}
	v.refErrSeen[key] = true
	v.refErrs = append(v.refErrs, ReferenceError{ID: id, MissingParentID: missing})
}

// recordCycle extracts the cycle from the current stack, starting at the
// revisited gray node, and reports it once. The path is rotated to begin at
// the cycle's lexicographically smallest member and closed by repeating
// that member at the end.
func (v *validator) recordCycle(repeated string) {
	start := v.onStack[repeated]
	members := append([]string(nil), v.stack[start:]...)

	// Rotate so the smallest member leads; the cycle identity is then a
	// plain string key.
	smallest := 0
	for i, id := range members {
		if id < members[smallest] {
			smallest = i
		}
	}
	rotated := append(append([]string(nil), members[smallest:]...), members[:smallest]...)
	key := strings.Join(rotated, "\x00")
	if v.cycleSeen[key] {
		return
	}
	v.cycleSeen[key] = true

	for _, id := range rotated {
		v.cycleMember[id] = true
	}
	v.cycles = append(v.cycles, CycleDetected{Path: append(rotated, rotated[0])})
}
