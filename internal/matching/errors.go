package matching

import "errors"

var (
	// Validation errors, surfaced to the caller and never retried
	ErrSelfSwipe     = errors.New("cannot swipe on yourself")
	ErrInvalidAction = errors.New("invalid swipe action")
	ErrUserNotFound  = errors.New("user not found")

	// ErrScoringTimeout means the recommendation pipeline exceeded its
	// deadline. Partial results are discarded; the caller may retry.
	ErrScoringTimeout = errors.New("candidate scoring timed out")
)
