// internal/matching/dto.go
package matching

// DTOs for API requests/responses

type SwipeDTO struct {
	TargetID int64  `json:"target_id" validate:"required,gt=0"`
	Action   string `json:"action" validate:"required,oneof=like super_like pass"`
}

type CandidatesResponseDTO struct {
	Candidates []CachedCandidate `json:"candidates"`
}
