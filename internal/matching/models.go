package matching

import (
	"time"

	"github.com/google/uuid"

	"github.com/sparkdhq/sparkd-backend/internal/profile"
)

// SwipeAction is a user's directional decision on another user
type SwipeAction string

const (
	ActionLike      SwipeAction = "like"
	ActionSuperLike SwipeAction = "super_like"
	ActionPass      SwipeAction = "pass"
)

// IsLike reports whether the action can participate in a match
func (a SwipeAction) IsLike() bool {
	return a == ActionLike || a == ActionSuperLike
}

// Valid reports whether the action is a known swipe action
func (a SwipeAction) Valid() bool {
	switch a {
	case ActionLike, ActionSuperLike, ActionPass:
		return true
	}
	return false
}

// Swipe is a recorded decision. At most one row exists per (actor, target)
// pair; a repeat swipe overwrites the action.
type Swipe struct {
	ActorID   int64       `json:"actor_id" db:"actor_id"`
	TargetID  int64       `json:"target_id" db:"target_id"`
	Action    SwipeAction `json:"action" db:"action"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt time.Time   `json:"updated_at" db:"updated_at"`
}

// MatchStatus tracks the lifecycle of a match. Transitions out of ACTIVE
// (unmatch, block) are driven by the safety service, not this core.
type MatchStatus string

const (
	MatchActive    MatchStatus = "active"
	MatchUnmatched MatchStatus = "unmatched"
	MatchBlocked   MatchStatus = "blocked"
)

// Match is the canonical record of a mutual like. UserLow < UserHigh always,
// so exactly one row can exist per pair regardless of which side created it.
type Match struct {
	ID        uuid.UUID   `json:"id" db:"id"`
	UserLow   int64       `json:"user_low" db:"user_low"`
	UserHigh  int64       `json:"user_high" db:"user_high"`
	Status    MatchStatus `json:"status" db:"status"`
	MatchedAt time.Time   `json:"matched_at" db:"matched_at"`
}

// PairOf normalizes two user ids into canonical match order
func PairOf(a, b int64) (low, high int64) {
	if a > b {
		return b, a
	}
	return a, b
}

// SwipeResult is what a caller gets back from recording a swipe
type SwipeResult struct {
	IsMatch bool       `json:"is_match"`
	MatchID *uuid.UUID `json:"match_id,omitempty"`
}

// ScoreFactors is the per-factor breakdown of a raw compatibility score,
// each on a 0-100 scale before weighting
type ScoreFactors struct {
	InterestOverlap  float64 `json:"interest_overlap"`
	AgeCompatibility float64 `json:"age_compatibility"`
	Proximity        float64 `json:"proximity"`
	ActivityRecency  float64 `json:"activity_recency"`
	ReciprocityHint  float64 `json:"reciprocity_hint"`
}

// ScoredCandidate is ephemeral scoring state for one recommendation request.
// Never persisted to durable storage; cache entries keep only id and scores.
type ScoredCandidate struct {
	Profile  *profile.Profile `json:"-"`
	RawScore float64          `json:"raw_score"`
	Adjusted float64          `json:"adjusted_score"`
	Factors  ScoreFactors     `json:"factors"`
}

// PopulationStats carries the population-wide averages the fairness adjuster
// and reciprocity factor compare against. Produced by the aggregation job,
// passed in as a parameter so scoring stays a pure function.
type PopulationStats struct {
	AvgEngagementRate float64 `db:"avg_engagement_rate"`
	AvgLikeRate       float64 `db:"avg_like_rate"`
	ComputedAt        time.Time
}
