package matching

import (
	"context"
	"fmt"
	"time"

	"github.com/sparkdhq/sparkd-backend/internal/profile"
)

// CandidateFilter narrows the user universe to the feasible candidate set
// for one requester: preference constraints, distance, and exclusion of
// already-swiped and blocked users. Read-only; no side effects.
type CandidateFilter struct {
	profiles     profile.Store
	interactions InteractionStore
	poolLimit    int
}

func NewCandidateFilter(profiles profile.Store, interactions InteractionStore, poolLimit int) *CandidateFilter {
	return &CandidateFilter{
		profiles:     profiles,
		interactions: interactions,
		poolLimit:    poolLimit,
	}
}

// Filter returns the candidates eligible to be shown to the requester.
// An empty result is a valid outcome, not an error.
func (f *CandidateFilter) Filter(ctx context.Context, requester *profile.Profile, prefs *profile.Preferences, now time.Time) ([]*profile.Profile, error) {
	// Gender, age range and active status are filtered at the storage layer
	pool, err := f.profiles.ListCandidates(ctx, profile.CandidateQuery{
		ExcludeUserID: requester.ID,
		Gender:        prefs.PreferredGender,
		MinAge:        prefs.MinAge,
		MaxAge:        prefs.MaxAge,
		Limit:         f.poolLimit,
		Now:           now,
	})
	if err != nil {
		return nil, fmt.Errorf("list candidate pool: %w", err)
	}

	swiped, err := f.interactions.ListSwipedTargets(ctx, requester.ID)
	if err != nil {
		return nil, fmt.Errorf("list swiped targets: %w", err)
	}

	blocked, err := f.interactions.ListBlockedEither(ctx, requester.ID)
	if err != nil {
		return nil, fmt.Errorf("list blocked users: %w", err)
	}

	dealbreakers := make(map[string]bool, len(prefs.DealbreakerTags))
	for _, tag := range prefs.DealbreakerTags {
		dealbreakers[tag] = true
	}

	candidates := make([]*profile.Profile, 0, len(pool))
	for _, candidate := range pool {
		if swiped[candidate.ID] || blocked[candidate.ID] {
			continue
		}
		if hasAnyTag(candidate.Interests, dealbreakers) {
			continue
		}
		if !f.withinDistance(requester, candidate, prefs.MaxDistanceKm) {
			continue
		}
		candidates = append(candidates, candidate)
	}

	return candidates, nil
}

// withinDistance applies the distance constraint. When either side has no
// coordinate the constraint is treated as satisfied, so users without
// location are not starved out of everyone's lists.
func (f *CandidateFilter) withinDistance(requester, candidate *profile.Profile, maxDistanceKm float64) bool {
	if maxDistanceKm <= 0 {
		return true
	}
	if !requester.HasCoordinate() || !candidate.HasCoordinate() {
		return true
	}

	distance := haversineKm(
		*requester.Latitude, *requester.Longitude,
		*candidate.Latitude, *candidate.Longitude,
	)
	return distance <= maxDistanceKm
}

func hasAnyTag(tags []string, wanted map[string]bool) bool {
	if len(wanted) == 0 {
		return false
	}
	for _, tag := range tags {
		if wanted[tag] {
			return true
		}
	}
	return false
}
