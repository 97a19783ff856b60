package matching

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

// StatsProvider holds the latest population-stats snapshot. The aggregation
// job refreshes it periodically; scorer and adjuster receive the snapshot as
// a plain value, so a refresh mid-request never changes in-flight results.
type StatsProvider struct {
	interactions InteractionStore
	snapshot     atomic.Value // PopulationStats
}

func NewStatsProvider(interactions InteractionStore) *StatsProvider {
	p := &StatsProvider{interactions: interactions}
	p.snapshot.Store(PopulationStats{})
	return p
}

// Current returns the latest snapshot. Before the first refresh all averages
// are zero, which disables the comparisons that depend on them.
func (p *StatsProvider) Current() PopulationStats {
	return p.snapshot.Load().(PopulationStats)
}

// Refresh recomputes the population averages from storage
func (p *StatsProvider) Refresh(ctx context.Context) error {
	stats, err := p.interactions.AggregatePopulationStats(ctx)
	if err != nil {
		return fmt.Errorf("refresh population stats: %w", err)
	}

	stats.ComputedAt = time.Now()
	p.snapshot.Store(stats)
	return nil
}
