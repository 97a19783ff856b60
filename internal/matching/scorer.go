package matching

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/sparkdhq/sparkd-backend/internal/profile"
)

const (
	neutralScore = 50.0

	// Activity is considered fully fresh within this window
	freshActivityWindow = 24 * time.Hour
)

// ScoreWeights are the per-factor weights of the compatibility score.
// They must sum to 1.0 (enforced by config validation).
type ScoreWeights struct {
	Interests   float64
	Age         float64
	Proximity   float64
	Activity    float64
	Reciprocity float64
}

// DefaultWeights is the documented five-factor split
var DefaultWeights = ScoreWeights{
	Interests:   0.35,
	Age:         0.20,
	Proximity:   0.20,
	Activity:    0.15,
	Reciprocity: 0.10,
}

// CompatibilityScorer computes raw compatibility scores in [0,100].
// It is a pure function of its inputs: identical snapshots, preferences,
// stats and clock always produce identical scores.
type CompatibilityScorer struct {
	weights          ScoreWeights
	inactivityWindow time.Duration
}

func NewCompatibilityScorer(weights ScoreWeights, inactivityWindow time.Duration) *CompatibilityScorer {
	return &CompatibilityScorer{
		weights:          weights,
		inactivityWindow: inactivityWindow,
	}
}

// Score computes the raw compatibility of one candidate for the requester
func (s *CompatibilityScorer) Score(requester *profile.Profile, prefs *profile.Preferences, candidate *profile.Profile, stats PopulationStats, now time.Time) (float64, ScoreFactors) {
	factors := ScoreFactors{
		InterestOverlap:  s.interestScore(requester.Interests, candidate.Interests),
		AgeCompatibility: s.ageScore(candidate.Age(now), prefs.MinAge, prefs.MaxAge),
		Proximity:        s.proximityScore(requester, candidate, prefs.MaxDistanceKm),
		ActivityRecency:  s.activityScore(candidate.LastActive, now),
		ReciprocityHint:  s.reciprocityScore(candidate.EngagementRate, stats.AvgEngagementRate),
	}

	raw := factors.InterestOverlap*s.weights.Interests +
		factors.AgeCompatibility*s.weights.Age +
		factors.Proximity*s.weights.Proximity +
		factors.ActivityRecency*s.weights.Activity +
		factors.ReciprocityHint*s.weights.Reciprocity

	return clampScore(raw), factors
}

// ScoreCandidates scores every candidate concurrently, one goroutine per
// candidate; each invocation is pure so no locking beyond result collection
// is needed. Output order is by ascending candidate id so identical inputs
// give identical output regardless of goroutine interleaving. A cancelled
// context returns the context error with no partial results.
func (s *CompatibilityScorer) ScoreCandidates(ctx context.Context, requester *profile.Profile, prefs *profile.Preferences, candidates []*profile.Profile, stats PopulationStats, now time.Time) ([]*ScoredCandidate, error) {
	scored := make([]*ScoredCandidate, len(candidates))

	var wg sync.WaitGroup
	for i, candidate := range candidates {
		wg.Add(1)
		go func(i int, candidate *profile.Profile) {
			defer wg.Done()
			raw, factors := s.Score(requester, prefs, candidate, stats, now)
			scored[i] = &ScoredCandidate{
				Profile:  candidate,
				RawScore: raw,
				Factors:  factors,
			}
		}(i, candidate)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(scored, func(i, j int) bool {
		return scored[i].Profile.ID < scored[j].Profile.ID
	})

	return scored, nil
}

// interestScore is Jaccard overlap between tag sets scaled to 0-100.
// Either side having no tags gives a neutral score instead of zero so
// sparse profiles aren't buried.
func (s *CompatibilityScorer) interestScore(interests1, interests2 []string) float64 {
	if len(interests1) == 0 || len(interests2) == 0 {
		return neutralScore
	}

	set := make(map[string]bool, len(interests1))
	for _, interest := range interests1 {
		set[interest] = true
	}

	matches := 0
	seen := make(map[string]bool, len(interests2))
	for _, interest := range interests2 {
		if seen[interest] {
			continue
		}
		seen[interest] = true
		if set[interest] {
			matches++
		}
	}

	union := len(set) + len(seen) - matches
	if union == 0 {
		return 0
	}

	return 100 * float64(matches) / float64(union)
}

// ageScore is 100 at the midpoint of the preferred range, decaying linearly
// to 0 at the boundary
func (s *CompatibilityScorer) ageScore(age, minAge, maxAge int) float64 {
	mid := float64(minAge+maxAge) / 2
	halfWidth := float64(maxAge-minAge) / 2
	if halfWidth == 0 {
		if float64(age) == mid {
			return 100
		}
		return 0
	}

	penalty := math.Abs(float64(age)-mid) / halfWidth
	return clampScore(100 * (1 - penalty))
}

// proximityScore is 100 at zero distance, decaying linearly to 0 at the
// preferred max distance. Unknown distance scores neutral rather than zero.
func (s *CompatibilityScorer) proximityScore(requester, candidate *profile.Profile, maxDistanceKm float64) float64 {
	if !requester.HasCoordinate() || !candidate.HasCoordinate() || maxDistanceKm <= 0 {
		return neutralScore
	}

	distance := haversineKm(
		*requester.Latitude, *requester.Longitude,
		*candidate.Latitude, *candidate.Longitude,
	)

	return clampScore(100 * (1 - distance/maxDistanceKm))
}

// activityScore is 100 within the last 24h, decaying linearly to 0 over the
// configured inactivity window
func (s *CompatibilityScorer) activityScore(lastActive, now time.Time) float64 {
	sinceActive := now.Sub(lastActive)
	if sinceActive <= freshActivityWindow {
		return 100
	}
	if sinceActive >= s.inactivityWindow {
		return 0
	}

	decayRange := float64(s.inactivityWindow - freshActivityWindow)
	return clampScore(100 * (1 - float64(sinceActive-freshActivityWindow)/decayRange))
}

// reciprocityScore is a coarse hint: full marks when the candidate engages
// above the population mean, neutral otherwise
func (s *CompatibilityScorer) reciprocityScore(engagementRate, populationMean float64) float64 {
	if populationMean > 0 && engagementRate > populationMean {
		return 100
	}
	return neutralScore
}

// haversineKm is the great-circle distance between two coordinates
func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadius = 6371 // km

	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadius * c
}

func clampScore(score float64) float64 {
	return math.Max(0, math.Min(100, score))
}
