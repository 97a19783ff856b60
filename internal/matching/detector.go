package matching

import (
	"context"
	"fmt"
	"time"
)

// MatchDetector decides whether a just-recorded swipe completes a mutual
// like. It is idempotent and safe to invoke redundantly from both sides of
// the pair: the storage layer's insert-if-absent is the only arbiter of who
// created the row, and losing that race is reported as success.
type MatchDetector struct {
	interactions InteractionStore
	events       EventSink
}

func NewMatchDetector(interactions InteractionStore, events EventSink) *MatchDetector {
	return &MatchDetector{interactions: interactions, events: events}
}

// Detect runs after the actor's like-class swipe is durably written.
// Returns the match and whether one exists; (nil, false) means the other
// side has not liked back yet.
func (d *MatchDetector) Detect(ctx context.Context, actorID, targetID int64, now time.Time) (*Match, bool, error) {
	reverse, err := d.interactions.FindSwipe(ctx, targetID, actorID)
	if err != nil {
		return nil, false, fmt.Errorf("find reverse swipe: %w", err)
	}
	if reverse == nil || !reverse.Action.IsLike() {
		return nil, false, nil
	}

	low, high := PairOf(actorID, targetID)
	match, created, err := d.interactions.InsertMatchIfAbsent(ctx, low, high, now)
	if err != nil {
		return nil, false, fmt.Errorf("insert match: %w", err)
	}

	if created {
		recordMatchCreated()
		// Fire-and-forget; the match row is the source of truth either way
		d.events.MatchCreated(match)
	}

	return match, true, nil
}
