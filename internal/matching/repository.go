package matching

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// InteractionStore persists swipes and matches and provides the uniqueness
// guarantees match detection relies on. The (user_low, user_high) unique
// constraint is the single synchronization primitive for match creation.
type InteractionStore interface {
	UpsertSwipe(ctx context.Context, actorID, targetID int64, action SwipeAction, at time.Time) (*Swipe, error)
	FindSwipe(ctx context.Context, actorID, targetID int64) (*Swipe, error)

	// InsertMatchIfAbsent creates the canonical match row for the pair, or
	// returns the existing one. The returned bool is true only for the
	// caller whose insert actually won.
	InsertMatchIfAbsent(ctx context.Context, userLow, userHigh int64, matchedAt time.Time) (*Match, bool, error)

	ListSwipedTargets(ctx context.Context, userID int64) (map[int64]bool, error)
	ListBlockedEither(ctx context.Context, userID int64) (map[int64]bool, error)
	ListMatches(ctx context.Context, userID int64) ([]*Match, error)

	AggregatePopulationStats(ctx context.Context) (PopulationStats, error)
}

type postgresStore struct {
	db *sqlx.DB
}

func NewPostgresStore(db *sqlx.DB) InteractionStore {
	return &postgresStore{db: db}
}

func (s *postgresStore) UpsertSwipe(ctx context.Context, actorID, targetID int64, action SwipeAction, at time.Time) (*Swipe, error) {
	swipe := &Swipe{ActorID: actorID, TargetID: targetID, Action: action}

	query := `
		INSERT INTO swipes (actor_id, target_id, action, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (actor_id, target_id)
		DO UPDATE SET action = EXCLUDED.action, updated_at = EXCLUDED.updated_at
		RETURNING created_at, updated_at
	`

	err := s.db.QueryRowxContext(ctx, query, actorID, targetID, action, at).
		Scan(&swipe.CreatedAt, &swipe.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert swipe (%d -> %d): %w", actorID, targetID, err)
	}

	return swipe, nil
}

func (s *postgresStore) FindSwipe(ctx context.Context, actorID, targetID int64) (*Swipe, error) {
	var swipe Swipe
	query := `
		SELECT actor_id, target_id, action, created_at, updated_at
		FROM swipes
		WHERE actor_id = $1 AND target_id = $2
	`

	err := s.db.GetContext(ctx, &swipe, query, actorID, targetID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find swipe (%d -> %d): %w", actorID, targetID, err)
	}

	return &swipe, nil
}

func (s *postgresStore) InsertMatchIfAbsent(ctx context.Context, userLow, userHigh int64, matchedAt time.Time) (*Match, bool, error) {
	match := &Match{
		ID:       uuid.New(),
		UserLow:  userLow,
		UserHigh: userHigh,
		Status:   MatchActive,
	}

	query := `
		INSERT INTO matches (id, user_low, user_high, status, matched_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_low, user_high) DO NOTHING
		RETURNING matched_at
	`

	err := s.db.QueryRowxContext(ctx, query, match.ID, userLow, userHigh, match.Status, matchedAt).
		Scan(&match.MatchedAt)
	if err == nil {
		return match, true, nil
	}
	if err != sql.ErrNoRows {
		return nil, false, fmt.Errorf("insert match (%d, %d): %w", userLow, userHigh, err)
	}

	// Lost the race: the other side's detection already created the row.
	// Report the existing match as success.
	var existing Match
	selectQuery := `
		SELECT id, user_low, user_high, status, matched_at
		FROM matches
		WHERE user_low = $1 AND user_high = $2
	`
	if err := s.db.GetContext(ctx, &existing, selectQuery, userLow, userHigh); err != nil {
		return nil, false, fmt.Errorf("load existing match (%d, %d): %w", userLow, userHigh, err)
	}

	return &existing, false, nil
}

func (s *postgresStore) ListSwipedTargets(ctx context.Context, userID int64) (map[int64]bool, error) {
	var ids []int64
	query := `SELECT target_id FROM swipes WHERE actor_id = $1`

	if err := s.db.SelectContext(ctx, &ids, query, userID); err != nil {
		return nil, fmt.Errorf("list swiped targets for %d: %w", userID, err)
	}

	return idSet(ids), nil
}

func (s *postgresStore) ListBlockedEither(ctx context.Context, userID int64) (map[int64]bool, error) {
	var ids []int64
	query := `
		SELECT CASE WHEN blocker_id = $1 THEN blocked_id ELSE blocker_id END
		FROM blocks
		WHERE blocker_id = $1 OR blocked_id = $1
	`

	if err := s.db.SelectContext(ctx, &ids, query, userID); err != nil {
		return nil, fmt.Errorf("list blocks for %d: %w", userID, err)
	}

	return idSet(ids), nil
}

func (s *postgresStore) ListMatches(ctx context.Context, userID int64) ([]*Match, error) {
	var matches []*Match
	query := `
		SELECT id, user_low, user_high, status, matched_at
		FROM matches
		WHERE (user_low = $1 OR user_high = $1) AND status = 'active'
		ORDER BY matched_at DESC
	`

	if err := s.db.SelectContext(ctx, &matches, query, userID); err != nil {
		return nil, fmt.Errorf("list matches for %d: %w", userID, err)
	}

	return matches, nil
}

func (s *postgresStore) AggregatePopulationStats(ctx context.Context) (PopulationStats, error) {
	var stats PopulationStats
	query := `
		SELECT
			COALESCE((SELECT AVG(engagement_rate) FROM profiles WHERE is_active), 0) AS avg_engagement_rate,
			COALESCE((
				SELECT AVG(like_rate) FROM (
					SELECT COUNT(*) FILTER (WHERE action IN ('like', 'super_like'))::float / COUNT(*) AS like_rate
					FROM swipes
					GROUP BY target_id
				) per_target
			), 0) AS avg_like_rate
	`

	if err := s.db.GetContext(ctx, &stats, query); err != nil {
		return PopulationStats{}, fmt.Errorf("aggregate population stats: %w", err)
	}

	return stats, nil
}

func idSet(ids []int64) map[int64]bool {
	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
