package matching

import "time"

// FairnessAdjuster counteracts popularity skew with a single additive boost
// tier per candidate: new users get the onboarding boost, otherwise
// under-liked users get the exposure boost. Tiers never stack, and adjusted
// scores are re-clamped to [0,100].
type FairnessAdjuster struct {
	newUserBoost     float64
	underLikedBoost  float64
	onboardingWindow time.Duration
}

func NewFairnessAdjuster(newUserBoost, underLikedBoost float64, onboardingWindow time.Duration) *FairnessAdjuster {
	return &FairnessAdjuster{
		newUserBoost:     newUserBoost,
		underLikedBoost:  underLikedBoost,
		onboardingWindow: onboardingWindow,
	}
}

// Adjust fills in the adjusted score for every candidate. The adjusted score
// is always derived from the raw score, so applying Adjust twice is a no-op.
func (f *FairnessAdjuster) Adjust(candidates []*ScoredCandidate, stats PopulationStats, now time.Time) {
	for _, c := range candidates {
		c.Adjusted = clampScore(c.RawScore + f.boostFor(c, stats, now))
	}
}

func (f *FairnessAdjuster) boostFor(c *ScoredCandidate, stats PopulationStats, now time.Time) float64 {
	if c.Profile.IsNewUser(now, f.onboardingWindow) {
		return f.newUserBoost
	}

	likeRate := c.Profile.LikeRate()
	if likeRate >= 0 && stats.AvgLikeRate > 0 && likeRate < stats.AvgLikeRate {
		return f.underLikedBoost
	}

	return 0
}
