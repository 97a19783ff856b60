package matching

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rankedIDs(candidates []*ScoredCandidate) []int64 {
	ids := make([]int64, len(candidates))
	for i, c := range candidates {
		ids[i] = c.Profile.ID
	}
	return ids
}

func candidate(id int64, adjusted, raw float64, lastActive time.Time) *ScoredCandidate {
	return &ScoredCandidate{
		Profile:  newProfile(id, 30, withLastActive(lastActive)),
		RawScore: raw,
		Adjusted: adjusted,
	}
}

func TestRankOrdersByAdjustedScore(t *testing.T) {
	ranker := NewRanker()

	ranked := ranker.Rank([]*ScoredCandidate{
		candidate(1, 50, 50, testNow),
		candidate(2, 90, 90, testNow),
		candidate(3, 70, 70, testNow),
	}, nil)

	assert.Equal(t, []int64{2, 3, 1}, rankedIDs(ranked))
}

func TestRankTieBreakOrder(t *testing.T) {
	ranker := NewRanker()

	earlier := testNow.Add(-2 * time.Hour)

	tests := []struct {
		name  string
		input []*ScoredCandidate
		want  []int64
	}{
		{
			name: "equal adjusted, higher raw wins",
			input: []*ScoredCandidate{
				candidate(1, 60, 40, testNow),
				candidate(2, 60, 55, testNow),
			},
			want: []int64{2, 1},
		},
		{
			name: "equal adjusted and raw, more recent activity wins",
			input: []*ScoredCandidate{
				candidate(1, 60, 60, earlier),
				candidate(2, 60, 60, testNow),
			},
			want: []int64{2, 1},
		},
		{
			name: "full tie resolved by ascending id",
			input: []*ScoredCandidate{
				candidate(9, 60, 60, testNow),
				candidate(4, 60, 60, testNow),
				candidate(7, 60, 60, testNow),
			},
			want: []int64{4, 7, 9},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rankedIDs(ranker.Rank(tt.input, nil)))
		})
	}
}

func TestRankIsDeterministic(t *testing.T) {
	ranker := NewRanker()

	input := []*ScoredCandidate{
		candidate(5, 60, 60, testNow),
		candidate(1, 60, 60, testNow),
		candidate(3, 80, 70, testNow),
		candidate(2, 60, 55, testNow),
	}

	first := rankedIDs(ranker.Rank(input, nil))
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, rankedIDs(ranker.Rank(input, nil)))
	}
}

func TestRankRotationDemotesRecentlyServed(t *testing.T) {
	ranker := NewRanker()

	input := []*ScoredCandidate{
		candidate(1, 90, 90, testNow),
		candidate(2, 80, 80, testNow),
		candidate(3, 70, 70, testNow),
		candidate(4, 60, 60, testNow),
		candidate(5, 50, 50, testNow),
		candidate(6, 40, 40, testNow),
	}

	// The top scorer was just served, so it drops behind all fresh candidates
	ranked := ranker.Rank(input, map[int64]bool{1: true})

	require.Equal(t, []int64{2, 3, 4, 5, 6, 1}, rankedIDs(ranked))
}

func TestRankRotationKeepsDemotedCandidates(t *testing.T) {
	ranker := NewRanker()

	input := []*ScoredCandidate{
		candidate(1, 90, 90, testNow),
		candidate(2, 80, 80, testNow),
	}

	// Demotion never removes candidates, even when everyone was served
	ranked := ranker.Rank(input, map[int64]bool{1: true, 2: true})
	assert.Equal(t, []int64{1, 2}, rankedIDs(ranked))
}

func TestPageTruncation(t *testing.T) {
	ranker := NewRanker()

	input := []*ScoredCandidate{
		candidate(1, 90, 90, testNow),
		candidate(2, 80, 80, testNow),
		candidate(3, 70, 70, testNow),
	}
	ranked := ranker.Rank(input, nil)

	assert.Len(t, ranker.Page(ranked, 2), 2)
	assert.Len(t, ranker.Page(ranked, 3), 3)

	// Requesting more than available returns everything with no error
	assert.Len(t, ranker.Page(ranked, 10), 3)
}

func TestRankDoesNotMutateInput(t *testing.T) {
	ranker := NewRanker()

	input := []*ScoredCandidate{
		candidate(1, 10, 10, testNow),
		candidate(2, 90, 90, testNow),
	}

	ranker.Rank(input, nil)
	assert.Equal(t, []int64{1, 2}, rankedIDs(input))
}
