package matching

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectNoReverseSwipe(t *testing.T) {
	interactions := newMemInteractionStore()
	detector := NewMatchDetector(interactions, NopSink{})

	match, found, err := detector.Detect(context.Background(), 1, 2, testNow)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, match)
}

func TestDetectReversePassIsNotAMatch(t *testing.T) {
	interactions := newMemInteractionStore()
	detector := NewMatchDetector(interactions, NopSink{})

	_, err := interactions.UpsertSwipe(context.Background(), 2, 1, ActionPass, testNow)
	require.NoError(t, err)

	_, found, err := detector.Detect(context.Background(), 1, 2, testNow)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDetectMutualLikeCreatesCanonicalMatch(t *testing.T) {
	interactions := newMemInteractionStore()
	detector := NewMatchDetector(interactions, NopSink{})
	ctx := context.Background()

	_, err := interactions.UpsertSwipe(ctx, 7, 3, ActionSuperLike, testNow)
	require.NoError(t, err)

	// User 3's like completes the pair; the row is canonical (low, high)
	match, found, err := detector.Detect(ctx, 3, 7, testNow)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int64(3), match.UserLow)
	assert.Equal(t, int64(7), match.UserHigh)
	assert.Equal(t, MatchActive, match.Status)
}

func TestDetectIdempotent(t *testing.T) {
	interactions := newMemInteractionStore()
	detector := NewMatchDetector(interactions, NopSink{})
	ctx := context.Background()

	_, err := interactions.UpsertSwipe(ctx, 2, 1, ActionLike, testNow)
	require.NoError(t, err)
	_, err = interactions.UpsertSwipe(ctx, 1, 2, ActionLike, testNow)
	require.NoError(t, err)

	first, found, err := detector.Detect(ctx, 1, 2, testNow)
	require.NoError(t, err)
	require.True(t, found)

	// Redundant detection from the other side reports the same match
	second, found, err := detector.Detect(ctx, 2, 1, testNow)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, first.ID, second.ID)

	matches, err := interactions.ListMatches(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestDetectConcurrentBothSidesAgree(t *testing.T) {
	interactions := newMemInteractionStore()
	detector := NewMatchDetector(interactions, NopSink{})
	ctx := context.Background()

	// Both like-class swipes are durably written before detection fires
	_, err := interactions.UpsertSwipe(ctx, 1, 2, ActionLike, testNow)
	require.NoError(t, err)
	_, err = interactions.UpsertSwipe(ctx, 2, 1, ActionLike, testNow)
	require.NoError(t, err)

	results := make([]*Match, 2)
	var wg sync.WaitGroup
	for i, pair := range [][2]int64{{1, 2}, {2, 1}} {
		wg.Add(1)
		go func(i int, actor, target int64) {
			defer wg.Done()
			match, found, err := detector.Detect(ctx, actor, target, testNow)
			assert.NoError(t, err)
			assert.True(t, found)
			results[i] = match
		}(i, pair[0], pair[1])
	}
	wg.Wait()

	// Exactly one row, both sides report it
	require.NotNil(t, results[0])
	require.NotNil(t, results[1])
	assert.Equal(t, results[0].ID, results[1].ID)

	matches, err := interactions.ListMatches(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}
