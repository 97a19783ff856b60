package matching

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sparkdhq/sparkd-backend/internal/profile"
)

// Fixed clock for deterministic scoring
var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

type profileOpt func(*profile.Profile)

func withInterests(tags ...string) profileOpt {
	return func(p *profile.Profile) { p.Interests = tags }
}

func withCoordinate(lat, lng float64) profileOpt {
	return func(p *profile.Profile) {
		p.Latitude = ptr(lat)
		p.Longitude = ptr(lng)
	}
}

func withLastActive(t time.Time) profileOpt {
	return func(p *profile.Profile) { p.LastActive = t }
}

func withCreatedAt(t time.Time) profileOpt {
	return func(p *profile.Profile) { p.CreatedAt = t }
}

func withGender(g string) profileOpt {
	return func(p *profile.Profile) { p.Gender = g }
}

func withExposure(swipes, likes int64) profileOpt {
	return func(p *profile.Profile) {
		p.SwipesReceived = swipes
		p.LikesReceived = likes
	}
}

func withEngagement(rate float64) profileOpt {
	return func(p *profile.Profile) { p.EngagementRate = rate }
}

func newProfile(id int64, age int, opts ...profileOpt) *profile.Profile {
	p := &profile.Profile{
		ID:          id,
		DisplayName: "user",
		BirthDate:   testNow.AddDate(-age, 0, 0),
		Gender:      "female",
		LastActive:  testNow,
		CreatedAt:   testNow.AddDate(-1, 0, 0),
		IsActive:    true,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func defaultPrefs(userID int64) *profile.Preferences {
	return &profile.Preferences{
		UserID:          userID,
		MinAge:          18,
		MaxAge:          100,
		PreferredGender: "any",
		MaxDistanceKm:   100,
	}
}

// fakeProfileStore is an in-memory profile.Store
type fakeProfileStore struct {
	mu       sync.Mutex
	profiles map[int64]*profile.Profile
	prefs    map[int64]*profile.Preferences
}

func newFakeProfileStore() *fakeProfileStore {
	return &fakeProfileStore{
		profiles: make(map[int64]*profile.Profile),
		prefs:    make(map[int64]*profile.Preferences),
	}
}

func (s *fakeProfileStore) add(p *profile.Profile, prefs *profile.Preferences) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.ID] = p
	if prefs == nil {
		prefs = defaultPrefs(p.ID)
	}
	s.prefs[p.ID] = prefs
}

func (s *fakeProfileStore) GetProfile(ctx context.Context, userID int64) (*profile.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, profile.ErrProfileNotFound
	}
	return p, nil
}

func (s *fakeProfileStore) GetPreferences(ctx context.Context, userID int64) (*profile.Preferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prefs, ok := s.prefs[userID]
	if !ok {
		return nil, profile.ErrProfileNotFound
	}
	return prefs, nil
}

func (s *fakeProfileStore) BatchGetProfiles(ctx context.Context, userIDs []int64) ([]*profile.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*profile.Profile
	for _, id := range userIDs {
		if p, ok := s.profiles[id]; ok && p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *fakeProfileStore) ListCandidates(ctx context.Context, q profile.CandidateQuery) ([]*profile.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*profile.Profile
	for _, p := range s.profiles {
		if p.ID == q.ExcludeUserID || !p.IsActive {
			continue
		}
		if q.Gender != "" && q.Gender != "any" && p.Gender != q.Gender {
			continue
		}
		age := p.Age(q.Now)
		if age < q.MinAge || age > q.MaxAge {
			continue
		}
		out = append(out, p)
		if q.Limit > 0 && len(out) >= q.Limit {
			break
		}
	}
	return out, nil
}

// memInteractionStore is an in-memory InteractionStore. Its mutex stands in
// for the database uniqueness constraint: InsertMatchIfAbsent is atomic.
type memInteractionStore struct {
	mu      sync.Mutex
	swipes  map[[2]int64]*Swipe
	matches map[[2]int64]*Match
	blocks  map[[2]int64]bool
}

func newMemInteractionStore() *memInteractionStore {
	return &memInteractionStore{
		swipes:  make(map[[2]int64]*Swipe),
		matches: make(map[[2]int64]*Match),
		blocks:  make(map[[2]int64]bool),
	}
}

func (s *memInteractionStore) block(blockerID, blockedID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blocks[[2]int64{blockerID, blockedID}] = true
}

func (s *memInteractionStore) UpsertSwipe(ctx context.Context, actorID, targetID int64, action SwipeAction, at time.Time) (*Swipe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := [2]int64{actorID, targetID}
	if existing, ok := s.swipes[key]; ok {
		existing.Action = action
		existing.UpdatedAt = at
		return existing, nil
	}

	swipe := &Swipe{ActorID: actorID, TargetID: targetID, Action: action, CreatedAt: at, UpdatedAt: at}
	s.swipes[key] = swipe
	return swipe, nil
}

func (s *memInteractionStore) FindSwipe(ctx context.Context, actorID, targetID int64) (*Swipe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.swipes[[2]int64{actorID, targetID}], nil
}

func (s *memInteractionStore) InsertMatchIfAbsent(ctx context.Context, userLow, userHigh int64, matchedAt time.Time) (*Match, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := [2]int64{userLow, userHigh}
	if existing, ok := s.matches[key]; ok {
		return existing, false, nil
	}

	match := &Match{
		ID:        uuid.New(),
		UserLow:   userLow,
		UserHigh:  userHigh,
		Status:    MatchActive,
		MatchedAt: matchedAt,
	}
	s.matches[key] = match
	return match, true, nil
}

func (s *memInteractionStore) ListSwipedTargets(ctx context.Context, userID int64) (map[int64]bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int64]bool)
	for key := range s.swipes {
		if key[0] == userID {
			out[key[1]] = true
		}
	}
	return out, nil
}

func (s *memInteractionStore) ListBlockedEither(ctx context.Context, userID int64) (map[int64]bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int64]bool)
	for key := range s.blocks {
		if key[0] == userID {
			out[key[1]] = true
		}
		if key[1] == userID {
			out[key[0]] = true
		}
	}
	return out, nil
}

func (s *memInteractionStore) ListMatches(ctx context.Context, userID int64) ([]*Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Match
	for _, m := range s.matches {
		if (m.UserLow == userID || m.UserHigh == userID) && m.Status == MatchActive {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *memInteractionStore) AggregatePopulationStats(ctx context.Context) (PopulationStats, error) {
	return PopulationStats{}, nil
}

func testServiceConfig() ServiceConfig {
	return ServiceConfig{
		Weights:          DefaultWeights,
		NewUserBoost:     20,
		UnderLikedBoost:  10,
		OnboardingWindow: 7 * 24 * time.Hour,
		InactivityWindow: 30 * 24 * time.Hour,
		CacheTTL:         5 * time.Minute,
		DefaultPageSize:  10,
		MaxPageSize:      100,
		CandidatePool:    500,
		ScoringTimeout:   2 * time.Second,
		Now:              func() time.Time { return testNow },
	}
}

func newTestService(profiles *fakeProfileStore, interactions *memInteractionStore) Service {
	cache := NewMemoryCache(1, func() time.Time { return testNow })
	stats := NewStatsProvider(interactions)
	return NewService(profiles, interactions, cache, stats, NopSink{}, testServiceConfig())
}
