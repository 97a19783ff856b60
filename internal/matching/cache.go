package matching

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// CachedCandidate is one entry of a memoized recommendation list
type CachedCandidate struct {
	CandidateID int64   `json:"candidate_id"`
	Score       float64 `json:"score"`
	RawScore    float64 `json:"raw_score"`
}

// CachedList is a user's ranked recommendation list as stored in the cache
type CachedList struct {
	UserID     int64             `json:"user_id"`
	Candidates []CachedCandidate `json:"candidates"`
	ComputedAt time.Time         `json:"computed_at"`
}

// RecommendationCache memoizes ranked lists per user and remembers which
// candidates were recently served, for rotation. Implementations must make
// Invalidate a plain key deletion that cannot block the caller's operation.
type RecommendationCache interface {
	Get(ctx context.Context, userID int64) (*CachedList, bool, error)
	Put(ctx context.Context, list *CachedList, ttl time.Duration) error
	Invalidate(ctx context.Context, userID int64) error

	// Served history survives invalidation: a fresh recompute should still
	// rotate away from what the user just saw.
	RecordServed(ctx context.Context, userID int64, candidateIDs []int64) error
	RecentlyServed(ctx context.Context, userID int64) (map[int64]bool, error)
}

// redisCache is the production cache backed by Redis
type redisCache struct {
	client       *redis.Client
	historyDepth int
}

func NewRedisCache(client *redis.Client, historyDepth int) RecommendationCache {
	return &redisCache{client: client, historyDepth: historyDepth}
}

func listKey(userID int64) string   { return fmt.Sprintf("rec:list:%d", userID) }
func servedKey(userID int64) string { return fmt.Sprintf("rec:served:%d", userID) }

// Served history outlives list entries but should not linger forever
const servedHistoryTTL = time.Hour

func (c *redisCache) Get(ctx context.Context, userID int64) (*CachedList, bool, error) {
	data, err := c.client.Get(ctx, listKey(userID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get %d: %w", userID, err)
	}

	var list CachedList
	if err := json.Unmarshal(data, &list); err != nil {
		// Corrupt entry behaves as a miss; it will be overwritten
		return nil, false, nil
	}

	return &list, true, nil
}

func (c *redisCache) Put(ctx context.Context, list *CachedList, ttl time.Duration) error {
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("cache encode %d: %w", list.UserID, err)
	}

	if err := c.client.Set(ctx, listKey(list.UserID), data, ttl).Err(); err != nil {
		return fmt.Errorf("cache put %d: %w", list.UserID, err)
	}

	return nil
}

func (c *redisCache) Invalidate(ctx context.Context, userID int64) error {
	if err := c.client.Del(ctx, listKey(userID)).Err(); err != nil {
		return fmt.Errorf("cache invalidate %d: %w", userID, err)
	}
	return nil
}

func (c *redisCache) RecordServed(ctx context.Context, userID int64, candidateIDs []int64) error {
	if c.historyDepth == 0 || len(candidateIDs) == 0 {
		return nil
	}

	data, err := json.Marshal(candidateIDs)
	if err != nil {
		return fmt.Errorf("encode served list %d: %w", userID, err)
	}

	key := servedKey(userID)
	pipe := c.client.TxPipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, int64(c.historyDepth)-1)
	pipe.Expire(ctx, key, servedHistoryTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record served %d: %w", userID, err)
	}

	return nil
}

func (c *redisCache) RecentlyServed(ctx context.Context, userID int64) (map[int64]bool, error) {
	entries, err := c.client.LRange(ctx, servedKey(userID), 0, int64(c.historyDepth)-1).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("recently served %d: %w", userID, err)
	}

	served := make(map[int64]bool)
	for _, entry := range entries {
		var ids []int64
		if err := json.Unmarshal([]byte(entry), &ids); err != nil {
			continue
		}
		for _, id := range ids {
			served[id] = true
		}
	}

	return served, nil
}

// memoryCache is an in-process cache with an injected clock. It backs tests
// and deployments without Redis (Redis is optional at bootstrap).
type memoryCache struct {
	mu           sync.Mutex
	entries      map[int64]memoryEntry
	served       map[int64][][]int64
	historyDepth int
	now          func() time.Time
}

type memoryEntry struct {
	list      *CachedList
	expiresAt time.Time
}

func NewMemoryCache(historyDepth int, now func() time.Time) RecommendationCache {
	if now == nil {
		now = time.Now
	}
	return &memoryCache{
		entries:      make(map[int64]memoryEntry),
		served:       make(map[int64][][]int64),
		historyDepth: historyDepth,
		now:          now,
	}
}

func (c *memoryCache) Get(ctx context.Context, userID int64) (*CachedList, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[userID]
	if !ok {
		return nil, false, nil
	}
	if c.now().After(entry.expiresAt) {
		delete(c.entries, userID)
		return nil, false, nil
	}

	return entry.list, true, nil
}

func (c *memoryCache) Put(ctx context.Context, list *CachedList, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[list.UserID] = memoryEntry{
		list:      list,
		expiresAt: c.now().Add(ttl),
	}
	return nil
}

func (c *memoryCache) Invalidate(ctx context.Context, userID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, userID)
	return nil
}

func (c *memoryCache) RecordServed(ctx context.Context, userID int64, candidateIDs []int64) error {
	if c.historyDepth == 0 || len(candidateIDs) == 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	history := append([][]int64{candidateIDs}, c.served[userID]...)
	if len(history) > c.historyDepth {
		history = history[:c.historyDepth]
	}
	c.served[userID] = history
	return nil
}

func (c *memoryCache) RecentlyServed(ctx context.Context, userID int64) (map[int64]bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	served := make(map[int64]bool)
	for _, ids := range c.served[userID] {
		for _, id := range ids {
			served[id] = true
		}
	}
	return served, nil
}
