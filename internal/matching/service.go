// internal/matching/service.go

package matching

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/sparkdhq/sparkd-backend/internal/profile"
)

type Service interface {
	// GetCandidates returns the requester's ranked recommendation list,
	// served from cache when fresh and rebuilt otherwise.
	GetCandidates(ctx context.Context, userID int64, pageSize int) ([]CachedCandidate, error)

	// RecordSwipe records the actor's decision and reports whether it
	// completed a mutual like. Safe to retry: repeat swipes on the same
	// pair overwrite, and match detection is idempotent.
	RecordSwipe(ctx context.Context, actorID, targetID int64, action SwipeAction) (*SwipeResult, error)

	GetMatches(ctx context.Context, userID int64) ([]*Match, error)
}

// ServiceConfig carries the tunables of the recommendation pipeline
type ServiceConfig struct {
	Weights          ScoreWeights
	NewUserBoost     float64
	UnderLikedBoost  float64
	OnboardingWindow time.Duration
	InactivityWindow time.Duration

	CacheTTL        time.Duration
	DefaultPageSize int
	MaxPageSize     int
	CandidatePool   int
	ScoringTimeout  time.Duration

	// Now is the injected clock; defaults to time.Now
	Now func() time.Time
}

type service struct {
	profiles     profile.Store
	interactions InteractionStore
	cache        RecommendationCache
	stats        *StatsProvider

	filter   *CandidateFilter
	scorer   *CompatibilityScorer
	adjuster *FairnessAdjuster
	ranker   *Ranker
	detector *MatchDetector

	cfg ServiceConfig
	now func() time.Time
}

func NewService(profiles profile.Store, interactions InteractionStore, cache RecommendationCache, stats *StatsProvider, events EventSink, cfg ServiceConfig) Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	if events == nil {
		events = NopSink{}
	}

	return &service{
		profiles:     profiles,
		interactions: interactions,
		cache:        cache,
		stats:        stats,
		filter:       NewCandidateFilter(profiles, interactions, cfg.CandidatePool),
		scorer:       NewCompatibilityScorer(cfg.Weights, cfg.InactivityWindow),
		adjuster:     NewFairnessAdjuster(cfg.NewUserBoost, cfg.UnderLikedBoost, cfg.OnboardingWindow),
		ranker:       NewRanker(),
		detector:     NewMatchDetector(interactions, events),
		cfg:          cfg,
		now:          now,
	}
}

func (s *service) GetCandidates(ctx context.Context, userID int64, pageSize int) ([]CachedCandidate, error) {
	if pageSize <= 0 {
		pageSize = s.cfg.DefaultPageSize
	}
	if pageSize > s.cfg.MaxPageSize {
		pageSize = s.cfg.MaxPageSize
	}

	cached, hit, err := s.cache.Get(ctx, userID)
	if err != nil {
		// A broken cache degrades to recompute, never to request failure
		log.Printf("Recommendation cache get failed for user %d: %v", userID, err)
		hit = false
	}
	recordCacheLookup(hit)

	if !hit {
		cached, err = s.buildRecommendations(ctx, userID)
		if err != nil {
			return nil, err
		}

		if err := s.cache.Put(ctx, cached, s.cfg.CacheTTL); err != nil {
			log.Printf("Recommendation cache put failed for user %d: %v", userID, err)
		}
	}

	page := cached.Candidates
	if pageSize < len(page) {
		page = page[:pageSize]
	}

	servedIDs := make([]int64, len(page))
	for i, c := range page {
		servedIDs[i] = c.CandidateID
	}
	if err := s.cache.RecordServed(ctx, userID, servedIDs); err != nil {
		log.Printf("Recording served list failed for user %d: %v", userID, err)
	}

	recordCandidatesReturned(len(page))
	return page, nil
}

// buildRecommendations runs the full pipeline: filter, score, adjust, rank.
// The whole computation shares one deadline; on timeout partial results are
// discarded so an incompletely ranked list is never served.
func (s *service) buildRecommendations(ctx context.Context, userID int64) (*CachedList, error) {
	started := time.Now()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.ScoringTimeout)
	defer cancel()

	requester, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, profile.ErrProfileNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, s.wrapDeadline(err)
	}

	prefs, err := s.profiles.GetPreferences(ctx, userID)
	if err != nil {
		if errors.Is(err, profile.ErrProfileNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, s.wrapDeadline(err)
	}

	now := s.now()
	stats := s.stats.Current()

	candidates, err := s.filter.Filter(ctx, requester, prefs, now)
	if err != nil {
		return nil, s.wrapDeadline(err)
	}

	scored, err := s.scorer.ScoreCandidates(ctx, requester, prefs, candidates, stats, now)
	if err != nil {
		return nil, s.wrapDeadline(err)
	}

	s.adjuster.Adjust(scored, stats, now)

	recentlyServed, err := s.cache.RecentlyServed(ctx, userID)
	if err != nil {
		// Rotation is best-effort; a fresh deterministic ranking still holds
		log.Printf("Loading served history failed for user %d: %v", userID, err)
		recentlyServed = nil
	}

	ranked := s.ranker.Rank(scored, recentlyServed)

	list := &CachedList{
		UserID:     userID,
		Candidates: make([]CachedCandidate, len(ranked)),
		ComputedAt: now,
	}
	for i, c := range ranked {
		list.Candidates[i] = CachedCandidate{
			CandidateID: c.Profile.ID,
			Score:       c.Adjusted,
			RawScore:    c.RawScore,
		}
	}

	recordRecommendationLatency(time.Since(started))
	return list, nil
}

func (s *service) wrapDeadline(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrScoringTimeout, err)
	}
	return err
}

func (s *service) RecordSwipe(ctx context.Context, actorID, targetID int64, action SwipeAction) (*SwipeResult, error) {
	if actorID == targetID {
		return nil, ErrSelfSwipe
	}
	if !action.Valid() {
		return nil, ErrInvalidAction
	}

	if _, err := s.profiles.GetProfile(ctx, targetID); err != nil {
		if errors.Is(err, profile.ErrProfileNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	now := s.now()
	if _, err := s.interactions.UpsertSwipe(ctx, actorID, targetID, action, now); err != nil {
		// A failed write is a failed swipe; no match may exist without
		// the durably recorded swipe. Retrying is safe (upsert).
		return nil, err
	}
	recordSwipe(action)

	result := &SwipeResult{}
	if action.IsLike() {
		match, found, err := s.detector.Detect(ctx, actorID, targetID, now)
		if err != nil {
			return nil, err
		}
		if found {
			result.IsMatch = true
			result.MatchID = &match.ID
		}
	}

	// The swiped candidate must disappear from the actor's list. Eviction
	// failure is logged, never surfaced: a stale entry until TTL expiry is
	// an accepted staleness bound.
	if err := s.cache.Invalidate(ctx, actorID); err != nil {
		log.Printf("Cache invalidation failed for user %d: %v", actorID, err)
	}

	return result, nil
}

func (s *service) GetMatches(ctx context.Context, userID int64) ([]*Match, error) {
	return s.interactions.ListMatches(ctx, userID)
}
