package article

import (
	"fmt"

	"github.com/inkpress-ai/inkpress/internal/domain"
)

// legalEdges is the complete transition table of the pipeline state machine.
// Every status write must travel one of these edges; the store's versioned
// compare-and-swap rejects lost updates underneath it.
var legalEdges = map[Status][]Status{
	StatusPending:          {StatusResearching, StatusOnHold, StatusCancelled, StatusFailed},
	StatusResearching:      {StatusDrafting, StatusOnHold, StatusCancelled, StatusFailed},
	StatusDrafting:         {StatusAssessing, StatusOnHold, StatusCancelled, StatusFailed},
	StatusAssessing:        {StatusRefining, StatusAwaitingApproval, StatusCancelled, StatusFailed},
	StatusRefining:         {StatusAssessing, StatusCancelled, StatusFailed},
	StatusAwaitingApproval: {StatusApproved, StatusRejected, StatusCancelled, StatusFailed},
	StatusApproved:         {StatusPublished, StatusCancelled, StatusFailed},
	StatusRejected:         {StatusCancelled},
	StatusOnHold:           {StatusPending, StatusResearching, StatusDrafting, StatusCancelled, StatusFailed},
	StatusPublished:        {},
	StatusFailed:           {},
	StatusCancelled:        {},
}

// CanTransition reports whether from -> to is a legal edge.
func CanTransition(from, to Status) bool {
	for _, next := range legalEdges[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CheckTransition returns a typed error when from -> to is not a legal edge.
func CheckTransition(from, to Status) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%s -> %s: %w", from, to, domain.ErrIllegalTransition)
	}
	return nil
}

// ResumeStatus maps a held article back to the status it was paused in.
// Completed phases are never re-run: the recorded current phase decides
// where execution picks up.
func ResumeStatus(current Phase) Status {
	switch current {
	case PhaseResearch:
		return StatusResearching
	case PhaseDraft:
		return StatusDrafting
	default:
		return StatusPending
	}
}

// PhaseStatus maps an executing phase to the status the article holds while
// that phase runs.
func PhaseStatus(p Phase) Status {
	switch p {
	case PhaseResearch:
		return StatusResearching
	case PhaseDraft:
		return StatusDrafting
	case PhaseAssess:
		return StatusAssessing
	case PhaseRefine:
		return StatusRefining
	case PhaseFinalize:
		return StatusApproved
	default:
		return StatusPending
	}
}
