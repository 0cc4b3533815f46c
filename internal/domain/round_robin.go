package domain

import (
	"errors"
	"sort"
)

// ErrNoCandidates signals an empty candidate list handed to the
// round-robin policy, a programmer error rather than a business outcome.
var ErrNoCandidates = errors.New("cannot pick from an empty candidate list")

// PickNext deterministically selects a manager from candidates.
//
//  1. Candidates are sorted by (current_load ASC, id ASC), a stable
//     order, so two contenders at equal load alternate predictably.
//  2. The index is counter mod len(candidates).
//
// Returns the chosen manager and the advanced counter.
func PickNext(candidates []Manager, counter int64) (Manager, int64, error) {
	if len(candidates) == 0 {
		return Manager{}, counter, ErrNoCandidates
	}

	sorted := make([]Manager, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].CurrentLoad != sorted[j].CurrentLoad {
			return sorted[i].CurrentLoad < sorted[j].CurrentLoad
		}
		return sorted[i].ID < sorted[j].ID
	})

	chosen := sorted[counter%int64(len(sorted))]
	return chosen, counter + 1, nil
}

// SortByLoad returns candidates ordered by (current_load ASC, id ASC),
// the order the shortlist is cut from.
func SortByLoad(candidates []Manager) []Manager {
	sorted := make([]Manager, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].CurrentLoad != sorted[j].CurrentLoad {
			return sorted[i].CurrentLoad < sorted[j].CurrentLoad
		}
		return sorted[i].ID < sorted[j].ID
	})
	return sorted
}
