// Package model holds the static model registry, the quality-tier tables,
// and the pure selection and cost-estimation logic. Everything here is
// table-driven and deterministic: no I/O, no mutable package state.
package model

import (
	"github.com/inkpress-ai/inkpress/internal/domain/article"
)

// Tier is a named quality/cost tradeoff policy.
type Tier string

const (
	TierBudget   Tier = "budget"
	TierBalanced Tier = "balanced"
	TierQuality  Tier = "quality"
	TierPremium  Tier = "premium"
)

// validTiers enumerates all valid tiers.
var validTiers = map[Tier]bool{
	TierBudget:   true,
	TierBalanced: true,
	TierQuality:  true,
	TierPremium:  true,
}

// Known model identifiers, named the way the LiteLLM proxy routes them.
const (
	ModelLocalLlama   = "ollama/llama3.1-8b"
	ModelGPT4oMini    = "openai/gpt-4o-mini"
	ModelGPT4o        = "openai/gpt-4o"
	ModelClaudeHaiku  = "anthropic/claude-3-haiku"
	ModelClaudeSonnet = "anthropic/claude-3-5-sonnet"
)

// Info describes one registry entry.
type Info struct {
	ID           string  `json:"id"`
	Provider     string  `json:"provider"`
	Local        bool    `json:"local"`
	CostPer1KUSD float64 `json:"cost_per_1k_usd"` // blended prompt+completion rate
}

// registry is the static table of known models. Read-only after init.
var registry = map[string]Info{
	ModelLocalLlama:   {ID: ModelLocalLlama, Provider: "ollama", Local: true, CostPer1KUSD: 0},
	ModelGPT4oMini:    {ID: ModelGPT4oMini, Provider: "openai", CostPer1KUSD: 0.0006},
	ModelClaudeHaiku:  {ID: ModelClaudeHaiku, Provider: "anthropic", CostPer1KUSD: 0.00125},
	ModelGPT4o:        {ID: ModelGPT4o, Provider: "openai", CostPer1KUSD: 0.0100},
	ModelClaudeSonnet: {ID: ModelClaudeSonnet, Provider: "anthropic", CostPer1KUSD: 0.0150},
}

// tierModels maps each tier to its per-phase model choice. Budget runs the
// zero-marginal-cost local model everywhere; premium runs the strongest
// model everywhere; the middle tiers keep cheap models on research and
// finalize and spend on draft, assess, and refine.
var tierModels = map[Tier]map[article.Phase]string{
	TierBudget: {
		article.PhaseResearch: ModelLocalLlama,
		article.PhaseDraft:    ModelLocalLlama,
		article.PhaseAssess:   ModelLocalLlama,
		article.PhaseRefine:   ModelLocalLlama,
		article.PhaseFinalize: ModelLocalLlama,
	},
	TierBalanced: {
		article.PhaseResearch: ModelLocalLlama,
		article.PhaseDraft:    ModelGPT4oMini,
		article.PhaseAssess:   ModelGPT4oMini,
		article.PhaseRefine:   ModelGPT4oMini,
		article.PhaseFinalize: ModelLocalLlama,
	},
	TierQuality: {
		article.PhaseResearch: ModelGPT4oMini,
		article.PhaseDraft:    ModelGPT4o,
		article.PhaseAssess:   ModelGPT4oMini,
		article.PhaseRefine:   ModelGPT4o,
		article.PhaseFinalize: ModelGPT4oMini,
	},
	TierPremium: {
		article.PhaseResearch: ModelClaudeSonnet,
		article.PhaseDraft:    ModelClaudeSonnet,
		article.PhaseAssess:   ModelClaudeSonnet,
		article.PhaseRefine:   ModelClaudeSonnet,
		article.PhaseFinalize: ModelClaudeSonnet,
	},
}

// Lookup returns the registry entry for a model ID.
func Lookup(id string) (Info, bool) {
	info, ok := registry[id]
	return info, ok
}

// Registry returns a copy of all known models.
func Registry() []Info {
	out := make([]Info, 0, len(registry))
	for _, id := range []string{ModelLocalLlama, ModelGPT4oMini, ModelClaudeHaiku, ModelGPT4o, ModelClaudeSonnet} {
		out = append(out, registry[id])
	}
	return out
}

// ValidTier reports whether t names a known tier.
func ValidTier(t Tier) bool {
	return validTiers[t]
}
