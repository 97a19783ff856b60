package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var ErrProfileNotFound = errors.New("profile not found")

// CandidateQuery narrows the candidate pool at the storage layer before
// in-process filtering and scoring.
type CandidateQuery struct {
	ExcludeUserID int64
	Gender        string // empty or "any" matches every gender
	MinAge        int
	MaxAge        int
	Limit         int
	Now           time.Time
}

// Store is the read-only profile source the matching core consumes
type Store interface {
	GetProfile(ctx context.Context, userID int64) (*Profile, error)
	GetPreferences(ctx context.Context, userID int64) (*Preferences, error)
	BatchGetProfiles(ctx context.Context, userIDs []int64) ([]*Profile, error)
	ListCandidates(ctx context.Context, q CandidateQuery) ([]*Profile, error)
}

type postgresStore struct {
	db *sqlx.DB
}

func NewPostgresStore(db *sqlx.DB) Store {
	return &postgresStore{db: db}
}

const profileColumns = `
	p.id, p.display_name, p.birth_date, p.gender, p.interests,
	p.location_lat, p.location_lng, p.last_active, p.created_at, p.is_active,
	p.engagement_rate,
	COALESCE(sr.swipes_received, 0) AS swipes_received,
	COALESCE(sr.likes_received, 0) AS likes_received
`

const profileExposureJoin = `
	LEFT JOIN (
		SELECT target_id,
		       COUNT(*) AS swipes_received,
		       COUNT(*) FILTER (WHERE action IN ('like', 'super_like')) AS likes_received
		FROM swipes
		GROUP BY target_id
	) sr ON sr.target_id = p.id
`

func (s *postgresStore) GetProfile(ctx context.Context, userID int64) (*Profile, error) {
	var p Profile
	query := `SELECT ` + profileColumns + ` FROM profiles p ` + profileExposureJoin + ` WHERE p.id = $1`

	err := s.db.GetContext(ctx, &p, query, userID)
	if err == sql.ErrNoRows {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile %d: %w", userID, err)
	}

	return &p, nil
}

func (s *postgresStore) GetPreferences(ctx context.Context, userID int64) (*Preferences, error) {
	var prefs Preferences
	query := `
		SELECT user_id, min_age, max_age, preferred_gender, max_distance_km, dealbreaker_tags
		FROM preferences
		WHERE user_id = $1
	`

	err := s.db.GetContext(ctx, &prefs, query, userID)
	if err == sql.ErrNoRows {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get preferences %d: %w", userID, err)
	}

	return &prefs, nil
}

func (s *postgresStore) BatchGetProfiles(ctx context.Context, userIDs []int64) ([]*Profile, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	query := `SELECT ` + profileColumns + ` FROM profiles p ` + profileExposureJoin + `
		WHERE p.id = ANY($1) AND p.is_active = TRUE`

	var profiles []*Profile
	if err := s.db.SelectContext(ctx, &profiles, query, pq.Array(userIDs)); err != nil {
		return nil, fmt.Errorf("batch get profiles: %w", err)
	}

	// Missing ids are silently omitted; scoring drops unloadable candidates
	return profiles, nil
}

func (s *postgresStore) ListCandidates(ctx context.Context, q CandidateQuery) ([]*Profile, error) {
	// Age bounds translate to birth-date bounds: someone aged exactly MinAge
	// was born at most MinAge years ago, someone aged MaxAge at least
	// (MaxAge+1) years ago (exclusive).
	latestBirth := q.Now.AddDate(-q.MinAge, 0, 0)
	earliestBirth := q.Now.AddDate(-(q.MaxAge + 1), 0, 0)

	query := `SELECT ` + profileColumns + ` FROM profiles p ` + profileExposureJoin + `
		WHERE p.id != $1
		  AND p.is_active = TRUE
		  AND p.birth_date <= $2
		  AND p.birth_date > $3
	`
	args := []interface{}{q.ExcludeUserID, latestBirth, earliestBirth}

	if q.Gender != "" && q.Gender != "any" {
		query += fmt.Sprintf(" AND p.gender = $%d", len(args)+1)
		args = append(args, q.Gender)
	}

	query += fmt.Sprintf(" ORDER BY p.last_active DESC LIMIT $%d", len(args)+1)
	args = append(args, q.Limit)

	var profiles []*Profile
	if err := s.db.SelectContext(ctx, &profiles, query, args...); err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}

	return profiles, nil
}
