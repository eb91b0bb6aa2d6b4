package graph

import (
	"sort"

	"github.com/physics-archive/formulaudit/internal/formula"
)

// chainToRoot computes the derivation chain for id: the shortest path
// through the dependency graph to an ESTABLISHED ancestor. When several
// established ancestors sit at the same minimal depth, the
// lexicographically smallest id wins; parents are always expanded in
// lexicographic order, so the predecessor links (and therefore the chain
// itself) are reproducible across runs.
//
// ESTABLISHED ids yield a single-element chain. The second return value is
// false when no established ancestor is reachable.
func chainToRoot(store *Store, id string) ([]string, bool) {
	rec, err := store.Get(id)
	if err != nil {
		return nil, false
	}
	if rec.Category == formula.Established {
		return []string{id}, true
	}

	// Breadth-first over parents: the first established node dequeued is
	// at minimal depth. Candidates at the same depth are resolved below.
	pred := map[string]string{id: ""}
	queue := []string{id}
	var (
		found      []string
		foundDepth = -1
	)
	depth := map[string]int{id: 0}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if foundDepth >= 0 && depth[cur] >= foundDepth {
			// Anything at or past the found depth cannot improve.
			continue
		}

		parents, err := store.ParentsOf(cur)
		if err != nil {
			continue
		}
		sorted := append([]string(nil), parents...)
		sort.Strings(sorted)

		for _, p := range sorted {
			if _, seen := pred[p]; seen {
				continue
			}
			prec, err := store.Get(p)
			if err != nil {
				continue
			}
			pred[p] = cur
			depth[p] = depth[cur] + 1
			if prec.Category == formula.Established {
				if foundDepth < 0 || depth[p] < foundDepth ||
					(depth[p] == foundDepth && p < found[len(found)-1]) {
					found = buildChain(pred, id, p)
					foundDepth = depth[p]
				}
				continue
			}
			queue = append(queue, p)
		}
	}

	if found == nil {
		return nil, false
	}
	return found, true
}

// buildChain walks predecessor links back from the established ancestor to
// the starting id, returning the chain ordered from id to root.
func buildChain(pred map[string]string, id, root string) []string {
	var rev []string
	for cur := root; cur != ""; cur = pred[cur] {
		rev = append(rev, cur)
		if cur == id {
			break
		}
	}
	chain := make([]string, len(rev))
	for i, v := range rev {
		chain[len(rev)-1-i] = v
	}
	return chain
}
