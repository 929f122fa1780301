package article

import (
	"fmt"

	"github.com/inkpress-ai/inkpress/internal/domain"
)

// validStatuses enumerates all valid article statuses.
var validStatuses = map[Status]bool{
	StatusPending:          true,
	StatusResearching:      true,
	StatusDrafting:         true,
	StatusAssessing:        true,
	StatusRefining:         true,
	StatusAwaitingApproval: true,
	StatusApproved:         true,
	StatusRejected:         true,
	StatusPublished:        true,
	StatusFailed:           true,
	StatusCancelled:        true,
	StatusOnHold:           true,
}

// validPhases enumerates all valid pipeline phases.
var validPhases = map[Phase]bool{
	PhaseResearch: true,
	PhaseDraft:    true,
	PhaseAssess:   true,
	PhaseRefine:   true,
	PhaseFinalize: true,
}

const (
	minTargetWords = 100
	maxTargetWords = 20000
)

// Validate checks that a CreateRequest has all required fields.
func (r *CreateRequest) Validate() error {
	if r.Topic == "" {
		return fmt.Errorf("topic is required: %w", domain.ErrValidation)
	}
	if r.TargetWordCount < minTargetWords || r.TargetWordCount > maxTargetWords {
		return fmt.Errorf("target_word_count must be between %d and %d: %w",
			minTargetWords, maxTargetWords, domain.ErrValidation)
	}
	if r.QualityPreference == "" && len(r.ModelOverrides) == 0 {
		return fmt.Errorf("quality_preference or model_overrides is required: %w", domain.ErrValidation)
	}
	if r.QualityPreference != "" && len(r.ModelOverrides) > 0 {
		return fmt.Errorf("quality_preference and model_overrides are mutually exclusive: %w", domain.ErrValidation)
	}
	if r.MaxBudgetUSD < 0 {
		return fmt.Errorf("max_budget_usd must be non-negative: %w", domain.ErrValidation)
	}
	for phase := range r.ModelOverrides {
		if !validPhases[Phase(phase)] {
			return fmt.Errorf("unknown phase %q in model_overrides: %w", phase, domain.ErrValidation)
		}
	}
	return nil
}

// Validate checks that a TransitionRequest names valid statuses.
func (r *TransitionRequest) Validate() error {
	if !validStatuses[r.ExpectedStatus] {
		return fmt.Errorf("invalid expected_status %q: %w", r.ExpectedStatus, domain.ErrValidation)
	}
	if !validStatuses[r.TargetStatus] {
		return fmt.Errorf("invalid target_status %q: %w", r.TargetStatus, domain.ErrValidation)
	}
	return nil
}
