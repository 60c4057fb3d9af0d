package stages

import (
	"cmp"
	"slices"
)

// Sort orders stages ascending by priority and removes duplicate names,
// keeping the highest-priority definition when names collide. Ties in
// priority preserve discovery order. An empty input yields an empty,
// valid pipeline.
func Sort(in []Stage) []Stage {
	sorted := slices.Clone(in)
	slices.SortStableFunc(sorted, func(a, b Stage) int {
		return cmp.Compare(a.Priority(), b.Priority())
	})

	// Scan from the high-priority end so the first occurrence of each
	// name wins, then restore ascending order.
	seen := make(map[string]bool, len(sorted))
	var filtered []Stage
	for i := len(sorted) - 1; i >= 0; i-- {
		s := sorted[i]
		if seen[s.Name()] {
			continue
		}
		seen[s.Name()] = true
		filtered = append(filtered, s)
	}
	slices.Reverse(filtered)
	return filtered
}

// Reversed returns the destroy ordering: the exact reverse of the deploy
// ordering produced by Sort.
func Reversed(in []Stage) []Stage {
	out := slices.Clone(in)
	slices.Reverse(out)
	return out
}
