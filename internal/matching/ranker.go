package matching

import "sort"

// Ranker orders adjusted candidates deterministically and demotes recently
// served candidates so consecutive lists rotate instead of repeating.
type Ranker struct{}

func NewRanker() *Ranker {
	return &Ranker{}
}

// Rank sorts candidates descending by adjusted score with a total tie-break
// order (raw score, activity recency, ascending id), then demotes candidates
// served in recent lists toward the bottom third. The returned slice is a
// new slice; the input is not reordered.
func (r *Ranker) Rank(candidates []*ScoredCandidate, recentlyServed map[int64]bool) []*ScoredCandidate {
	ranked := make([]*ScoredCandidate, len(candidates))
	copy(ranked, candidates)

	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Adjusted != b.Adjusted {
			return a.Adjusted > b.Adjusted
		}
		if a.RawScore != b.RawScore {
			return a.RawScore > b.RawScore
		}
		if !a.Profile.LastActive.Equal(b.Profile.LastActive) {
			return a.Profile.LastActive.After(b.Profile.LastActive)
		}
		return a.Profile.ID < b.Profile.ID
	})

	if len(recentlyServed) == 0 {
		return ranked
	}

	return r.rotate(ranked, recentlyServed)
}

// rotate moves recently served candidates behind everyone fresh, preserving
// relative order within both groups. With a fresh majority this lands the
// demoted candidates in the bottom third; they are never removed outright.
func (r *Ranker) rotate(ranked []*ScoredCandidate, recentlyServed map[int64]bool) []*ScoredCandidate {
	fresh := make([]*ScoredCandidate, 0, len(ranked))
	demoted := make([]*ScoredCandidate, 0)

	for _, c := range ranked {
		if recentlyServed[c.Profile.ID] {
			demoted = append(demoted, c)
		} else {
			fresh = append(fresh, c)
		}
	}

	return append(fresh, demoted...)
}

// Page truncates a ranked list to the requested size. Asking for more than
// is available returns everything without error.
func (r *Ranker) Page(ranked []*ScoredCandidate, pageSize int) []*ScoredCandidate {
	if pageSize >= len(ranked) {
		return ranked
	}
	return ranked[:pageSize]
}
