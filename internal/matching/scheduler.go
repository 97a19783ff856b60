package matching

import (
	"context"
	"log"
	"time"
)

// Scheduler runs the matching core's background jobs. Currently that is the
// population-stats aggregation feeding the fairness adjuster.
type Scheduler struct {
	stats    *StatsProvider
	interval time.Duration
}

func NewScheduler(stats *StatsProvider, interval time.Duration) *Scheduler {
	return &Scheduler{stats: stats, interval: interval}
}

func (s *Scheduler) Start(ctx context.Context) {
	go s.runEvery(ctx, s.interval, s.stats.Refresh)
}

func (s *Scheduler) runEvery(ctx context.Context, interval time.Duration, task func(context.Context) error) {
	// Prime once at startup so the first requests don't see empty stats
	if err := task(ctx); err != nil {
		log.Printf("Scheduled task failed: %v", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := task(ctx); err != nil {
				log.Printf("Scheduled task failed: %v", err)
			}
		case <-ctx.Done():
			return
		}
	}
}
