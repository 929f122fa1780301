package article

import (
	"errors"
	"testing"

	"github.com/inkpress-ai/inkpress/internal/domain"
)

func TestCanTransitionLegalEdges(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusResearching, true},
		{StatusResearching, StatusDrafting, true},
		{StatusDrafting, StatusAssessing, true},
		{StatusAssessing, StatusRefining, true},
		{StatusAssessing, StatusAwaitingApproval, true},
		{StatusRefining, StatusAssessing, true},
		{StatusAwaitingApproval, StatusApproved, true},
		{StatusAwaitingApproval, StatusRejected, true},
		{StatusApproved, StatusPublished, true},
		{StatusRejected, StatusCancelled, true},
		{StatusOnHold, StatusResearching, true},

		// Illegal jumps
		{StatusPending, StatusDrafting, false},
		{StatusPending, StatusPublished, false},
		{StatusResearching, StatusAssessing, false},
		{StatusDrafting, StatusRefining, false},
		{StatusRefining, StatusAwaitingApproval, false},
		{StatusAwaitingApproval, StatusPublished, false},
		{StatusRejected, StatusApproved, false},
		{StatusApproved, StatusRejected, false},
	}

	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestTerminalStatesHaveNoEdges(t *testing.T) {
	terminals := []Status{StatusPublished, StatusFailed, StatusCancelled}
	all := []Status{
		StatusPending, StatusResearching, StatusDrafting, StatusAssessing,
		StatusRefining, StatusAwaitingApproval, StatusApproved, StatusRejected,
		StatusPublished, StatusFailed, StatusCancelled, StatusOnHold,
	}

	for _, from := range terminals {
		if !from.Terminal() {
			t.Errorf("%s should report Terminal()", from)
		}
		for _, to := range all {
			if CanTransition(from, to) {
				t.Errorf("terminal %s must not transition to %s", from, to)
			}
		}
	}
}

func TestCheckTransitionError(t *testing.T) {
	if err := CheckTransition(StatusPending, StatusResearching); err != nil {
		t.Fatalf("unexpected error on legal edge: %v", err)
	}

	err := CheckTransition(StatusPublished, StatusPending)
	if err == nil {
		t.Fatal("expected error on illegal edge")
	}
	if !errors.Is(err, domain.ErrIllegalTransition) {
		t.Fatalf("expected ErrIllegalTransition, got %v", err)
	}
}

func TestResumeStatus(t *testing.T) {
	cases := []struct {
		phase Phase
		want  Status
	}{
		{PhaseResearch, StatusResearching},
		{PhaseDraft, StatusDrafting},
		{"", StatusPending},
	}
	for _, tc := range cases {
		if got := ResumeStatus(tc.phase); got != tc.want {
			t.Errorf("ResumeStatus(%q) = %s, want %s", tc.phase, got, tc.want)
		}
	}
}

func TestBodyPrefersLatestRefine(t *testing.T) {
	a := &Article{
		PhaseOutputs: []PhaseOutput{
			{Phase: PhaseResearch, Output: "notes"},
			{Phase: PhaseDraft, Output: "first draft"},
			{Phase: PhaseRefine, Output: "refined once"},
			{Phase: PhaseRefine, Output: "refined twice"},
		},
	}

	body, ok := a.Body()
	if !ok || body != "refined twice" {
		t.Fatalf("Body() = %q, %v; want latest refine output", body, ok)
	}

	draft := &Article{
		PhaseOutputs: []PhaseOutput{
			{Phase: PhaseDraft, Output: "first draft"},
		},
	}
	body, ok = draft.Body()
	if !ok || body != "first draft" {
		t.Fatalf("Body() = %q, %v; want draft output", body, ok)
	}

	if _, ok := (&Article{}).Body(); ok {
		t.Fatal("Body() on empty history should report no output")
	}
}
