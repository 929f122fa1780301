package model

import "github.com/inkpress-ai/inkpress/internal/domain/article"

// tokensPerWord is the fixed expansion ratio from target word count to
// estimated completion tokens.
const tokensPerWord = 1.3

// phaseTokenOverhead covers the prompt scaffolding each phase sends
// regardless of article length.
const phaseTokenOverhead = 256

// phaseShare scales the per-phase token estimate relative to the target
// length: a draft emits roughly the whole article, research notes about
// half, an assessment far less.
var phaseShare = map[article.Phase]float64{
	article.PhaseResearch: 0.5,
	article.PhaseDraft:    1.0,
	article.PhaseAssess:   0.25,
	article.PhaseRefine:   0.6,
	article.PhaseFinalize: 0.1,
}

// PhaseCost is the estimate for a single phase.
type PhaseCost struct {
	Phase   article.Phase `json:"phase"`
	Model   string        `json:"model"`
	Tokens  int           `json:"tokens"`
	CostUSD float64       `json:"cost_usd"`
}

// Breakdown is the pre-execution cost estimate for a whole article.
type Breakdown struct {
	Phases   []PhaseCost `json:"phases"`
	TotalUSD float64     `json:"total_usd"`
}

// EstimateTokens returns the token estimate for one phase at the given
// target word count.
func EstimateTokens(phase article.Phase, targetWords int) int {
	return int(float64(targetWords)*tokensPerWord*phaseShare[phase]) + phaseTokenOverhead
}

// EstimateCost produces the per-phase and total cost estimate for a resolved
// model map. Pure function of its inputs and the static pricing table; it is
// surfaced to the caller before any generation call is made.
func EstimateCost(resolved Resolved, targetWords int) Breakdown {
	var b Breakdown
	for _, phase := range article.Phases {
		id := resolved[phase]
		info, _ := Lookup(id)
		tokens := EstimateTokens(phase, targetWords)
		cost := float64(tokens) / 1000 * info.CostPer1KUSD
		b.Phases = append(b.Phases, PhaseCost{
			Phase:   phase,
			Model:   id,
			Tokens:  tokens,
			CostUSD: cost,
		})
		b.TotalUSD += cost
	}
	return b
}

// PhaseEstimate returns the estimated cost of a single phase under the
// resolved map, used when appending ledger entries.
func PhaseEstimate(resolved Resolved, phase article.Phase, targetWords int) float64 {
	info, _ := Lookup(resolved[phase])
	return float64(EstimateTokens(phase, targetWords)) / 1000 * info.CostPer1KUSD
}
