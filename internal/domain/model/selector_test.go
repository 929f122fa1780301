package model

import (
	"errors"
	"testing"

	"github.com/inkpress-ai/inkpress/internal/domain"
	"github.com/inkpress-ai/inkpress/internal/domain/article"
)

func TestResolveTierCoversAllPhases(t *testing.T) {
	for _, tier := range []Tier{TierBudget, TierBalanced, TierQuality, TierPremium} {
		resolved, err := Resolve(Preference{Tier: tier})
		if err != nil {
			t.Fatalf("tier %s: unexpected error: %v", tier, err)
		}
		for _, phase := range article.Phases {
			id, ok := resolved[phase]
			if !ok {
				t.Errorf("tier %s: phase %s has no model", tier, phase)
				continue
			}
			if _, known := Lookup(id); !known {
				t.Errorf("tier %s: phase %s resolved to unknown model %q", tier, phase, id)
			}
		}
	}
}

func TestResolveBudgetTierIsAllLocal(t *testing.T) {
	resolved, err := Resolve(Preference{Tier: TierBudget})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for phase, id := range resolved {
		info, _ := Lookup(id)
		if !info.Local || info.CostPer1KUSD != 0 {
			t.Errorf("budget tier phase %s uses non-local paid model %q", phase, id)
		}
	}
}

func TestResolveUnknownTier(t *testing.T) {
	_, err := Resolve(Preference{Tier: "platinum"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestResolveOverrides(t *testing.T) {
	full := map[article.Phase]string{
		article.PhaseResearch: ModelLocalLlama,
		article.PhaseDraft:    ModelClaudeSonnet,
		article.PhaseAssess:   ModelGPT4oMini,
		article.PhaseRefine:   ModelGPT4o,
		article.PhaseFinalize: ModelClaudeHaiku,
	}
	resolved, err := Resolve(Preference{Overrides: full})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved[article.PhaseDraft] != ModelClaudeSonnet {
		t.Fatalf("draft = %q, want %q", resolved[article.PhaseDraft], ModelClaudeSonnet)
	}
}

func TestResolveOverridesMustCoverEveryPhase(t *testing.T) {
	partial := map[article.Phase]string{
		article.PhaseDraft: ModelGPT4o,
	}
	_, err := Resolve(Preference{Overrides: partial})
	if err == nil {
		t.Fatal("expected error for partial overrides")
	}

	var selErr *SelectionError
	if !errors.As(err, &selErr) {
		t.Fatalf("expected SelectionError, got %T", err)
	}
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("SelectionError should unwrap to ErrValidation, got %v", err)
	}
}

func TestResolveOverridesRejectUnknownModel(t *testing.T) {
	overrides := map[article.Phase]string{
		article.PhaseResearch: ModelLocalLlama,
		article.PhaseDraft:    "openai/gpt-9",
		article.PhaseAssess:   ModelGPT4oMini,
		article.PhaseRefine:   ModelGPT4o,
		article.PhaseFinalize: ModelLocalLlama,
	}
	_, err := Resolve(Preference{Overrides: overrides})

	var selErr *SelectionError
	if !errors.As(err, &selErr) {
		t.Fatalf("expected SelectionError, got %v", err)
	}
	if selErr.Phase != article.PhaseDraft || selErr.Model != "openai/gpt-9" {
		t.Fatalf("SelectionError = %+v, want draft/openai/gpt-9", selErr)
	}
}

func TestPreferenceFromRequest(t *testing.T) {
	p := PreferenceFromRequest("quality", nil)
	if p.Tier != TierQuality || p.Overrides != nil {
		t.Fatalf("tier preference = %+v", p)
	}

	p = PreferenceFromRequest("", map[string]string{"draft": ModelGPT4o})
	if p.Tier != "" || p.Overrides[article.PhaseDraft] != ModelGPT4o {
		t.Fatalf("override preference = %+v", p)
	}
}
