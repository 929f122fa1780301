package model

import (
	"fmt"

	"github.com/inkpress-ai/inkpress/internal/domain"
	"github.com/inkpress-ai/inkpress/internal/domain/article"
)

// Preference is either a named tier or explicit per-phase overrides.
// Exactly one of the two fields is set.
type Preference struct {
	Tier      Tier
	Overrides map[article.Phase]string
}

// Resolved maps every pipeline phase to the concrete model that will run it.
type Resolved map[article.Phase]string

// SelectionError reports an invalid per-phase model override. The whole
// resolution is rejected; no partial selection is ever returned.
type SelectionError struct {
	Phase  article.Phase
	Model  string
	Reason string
}

func (e *SelectionError) Error() string {
	return fmt.Sprintf("invalid model selection for phase %s: %s (%s)", e.Phase, e.Model, e.Reason)
}

func (e *SelectionError) Unwrap() error { return domain.ErrValidation }

// Resolve picks a model for each of the five phases. Explicit overrides are
// validated against the registry and must cover every phase; a tier is
// resolved through the static tier table.
func Resolve(pref Preference) (Resolved, error) {
	if len(pref.Overrides) > 0 {
		resolved := make(Resolved, len(article.Phases))
		for _, phase := range article.Phases {
			id, ok := pref.Overrides[phase]
			if !ok {
				return nil, &SelectionError{Phase: phase, Reason: "no model specified"}
			}
			if _, known := Lookup(id); !known {
				return nil, &SelectionError{Phase: phase, Model: id, Reason: "unknown model identifier"}
			}
			resolved[phase] = id
		}
		return resolved, nil
	}

	table, ok := tierModels[pref.Tier]
	if !ok {
		return nil, fmt.Errorf("unknown quality tier %q: %w", pref.Tier, domain.ErrValidation)
	}
	resolved := make(Resolved, len(table))
	for phase, id := range table {
		resolved[phase] = id
	}
	return resolved, nil
}

// PreferenceFromRequest converts the wire-level preference fields of a
// create request into a Preference.
func PreferenceFromRequest(tier string, overrides map[string]string) Preference {
	if len(overrides) > 0 {
		m := make(map[article.Phase]string, len(overrides))
		for phase, id := range overrides {
			m[article.Phase(phase)] = id
		}
		return Preference{Overrides: m}
	}
	return Preference{Tier: Tier(tier)}
}
