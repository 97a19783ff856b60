package profile

import (
	"time"

	"github.com/lib/pq"
)

// Profile is a read-only snapshot of a user as the matching core sees it.
// Profile writes (signup, edits, photo handling) live in a separate service.
type Profile struct {
	ID          int64          `json:"id" db:"id"`
	DisplayName string         `json:"display_name" db:"display_name"`
	BirthDate   time.Time      `json:"birth_date" db:"birth_date"`
	Gender      string         `json:"gender" db:"gender"`
	Interests   pq.StringArray `json:"interests" db:"interests"`

	// Location is optional; users who never granted location have neither set.
	Latitude  *float64 `json:"latitude,omitempty" db:"location_lat"`
	Longitude *float64 `json:"longitude,omitempty" db:"location_lng"`

	LastActive time.Time `json:"last_active" db:"last_active"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	IsActive   bool      `json:"is_active" db:"is_active"`

	// Engagement rate is maintained by the analytics pipeline (replies sent
	// relative to swipes received); read-only here.
	EngagementRate float64 `json:"engagement_rate" db:"engagement_rate"`

	// Exposure counters for fairness adjustment
	SwipesReceived int64 `json:"swipes_received" db:"swipes_received"`
	LikesReceived  int64 `json:"likes_received" db:"likes_received"`
}

// Age returns the profile's age in whole years at the given time
func (p *Profile) Age(now time.Time) int {
	age := now.Year() - p.BirthDate.Year()
	if now.YearDay() < p.BirthDate.YearDay() {
		age--
	}
	return age
}

// HasCoordinate reports whether the user has granted location
func (p *Profile) HasCoordinate() bool {
	return p.Latitude != nil && p.Longitude != nil
}

// IsNewUser reports whether the profile is still inside the onboarding window
func (p *Profile) IsNewUser(now time.Time, window time.Duration) bool {
	return now.Sub(p.CreatedAt) < window
}

// LikeRate is the fraction of received swipes that were likes.
// Returns -1 when the user has no exposure yet, so callers can tell
// "no data" apart from "never liked".
func (p *Profile) LikeRate() float64 {
	if p.SwipesReceived == 0 {
		return -1
	}
	return float64(p.LikesReceived) / float64(p.SwipesReceived)
}

// Preferences holds a user's matching preferences, one-to-one with Profile
type Preferences struct {
	UserID          int64          `json:"user_id" db:"user_id"`
	MinAge          int            `json:"min_age" db:"min_age"`
	MaxAge          int            `json:"max_age" db:"max_age"`
	PreferredGender string         `json:"preferred_gender" db:"preferred_gender"` // "any" disables the gender filter
	MaxDistanceKm   float64        `json:"max_distance_km" db:"max_distance_km"`
	DealbreakerTags pq.StringArray `json:"dealbreaker_tags,omitempty" db:"dealbreaker_tags"`
}
