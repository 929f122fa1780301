// Package article defines the Article domain entity: a unit of long-form
// content driven through the research/draft/assess/refine/finalize pipeline.
package article

import "time"

// Status represents the current state of an article in the pipeline.
type Status string

const (
	StatusPending          Status = "pending"
	StatusResearching      Status = "researching"
	StatusDrafting         Status = "drafting"
	StatusAssessing        Status = "assessing"
	StatusRefining         Status = "refining"
	StatusAwaitingApproval Status = "awaiting_approval"
	StatusApproved         Status = "approved"
	StatusRejected         Status = "rejected"
	StatusPublished        Status = "published"
	StatusFailed           Status = "failed"
	StatusCancelled        Status = "cancelled"
	StatusOnHold           Status = "on_hold"
)

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusPublished || s == StatusFailed || s == StatusCancelled
}

// Phase names one discrete step of the content pipeline.
type Phase string

const (
	PhaseResearch Phase = "research"
	PhaseDraft    Phase = "draft"
	PhaseAssess   Phase = "assess"
	PhaseRefine   Phase = "refine"
	PhaseFinalize Phase = "finalize"
)

// Phases lists all pipeline phases in execution order.
var Phases = []Phase{PhaseResearch, PhaseDraft, PhaseAssess, PhaseRefine, PhaseFinalize}

// ErrorKind classifies a terminal failure.
type ErrorKind string

const (
	ErrorKindProvider   ErrorKind = "provider_error"
	ErrorKindPublish    ErrorKind = "publish_error"
	ErrorKindStorage    ErrorKind = "storage_error"
	ErrorKindValidation ErrorKind = "validation_error"
	ErrorKindQuality    ErrorKind = "quality_error"
)

// Error records why an article entered the failed state.
type Error struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Phase   Phase     `json:"phase,omitempty"`
}

// PhaseOutput is one entry of the append-only phase output history.
// Refine appends a new entry rather than rewriting the draft's, so the full
// trail survives for audit.
type PhaseOutput struct {
	Phase     Phase     `json:"phase"`
	Output    string    `json:"output"`
	Model     string    `json:"model,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// CostEntry is one append-only row of the article's cost ledger.
type CostEntry struct {
	ID            string    `json:"id"`
	Phase         Phase     `json:"phase"`
	Model         string    `json:"model"`
	EstimatedCost float64   `json:"estimated_cost"`
	ActualCost    float64   `json:"actual_cost"`
	Success       bool      `json:"success"`
	CreatedAt     time.Time `json:"created_at"`
}

// Params holds the creation-time parameters. Immutable after creation.
type Params struct {
	Topic           string   `json:"topic"`
	Audience        string   `json:"audience,omitempty"`
	Keywords        []string `json:"keywords,omitempty"`
	TargetWordCount int      `json:"target_word_count"`
	Style           string   `json:"style,omitempty"`
	Tone            string   `json:"tone,omitempty"`
}

// Deficiency is one failed rubric dimension, carried from Assess to Refine.
type Deficiency struct {
	Dimension string `json:"dimension"`
	Detail    string `json:"detail"`
}

// Metadata holds the publish metadata produced during Assess.
type Metadata struct {
	SEOTitle       string   `json:"seo_title,omitempty"`
	SEODescription string   `json:"seo_description,omitempty"`
	Tags           []string `json:"tags,omitempty"`
}

// Article is the unit of work.
type Article struct {
	ID     string `json:"id"`
	Params Params `json:"params"`

	// Preference is either a named tier or explicit per-phase overrides,
	// resolved once at creation. Immutable after creation.
	QualityPreference string           `json:"quality_preference,omitempty"`
	ModelOverrides    map[Phase]string `json:"model_overrides,omitempty"`

	Status          Status `json:"status"`
	CurrentPhase    Phase  `json:"current_phase,omitempty"`
	RefinementCount int    `json:"refinement_count"`
	MaxRefinements  int    `json:"max_refinements"`

	PhaseOutputs []PhaseOutput    `json:"phase_outputs,omitempty"`
	ModelsUsed   map[Phase]string `json:"models_used,omitempty"`
	CostLedger   []CostEntry      `json:"cost_ledger,omitempty"`

	// Derived sums over CostLedger, recomputed on each append.
	TotalCostEstimated float64 `json:"total_cost_estimated"`
	TotalCostActual    float64 `json:"total_cost_actual"`

	QualityScore     float64      `json:"quality_score"`
	QualityFeedback  []Deficiency `json:"quality_feedback,omitempty"`
	QualityThreshold float64      `json:"quality_threshold"`

	Metadata  Metadata `json:"metadata"`
	Artifact  string   `json:"artifact,omitempty"` // publish-ready output of Finalize
	PostID    string   `json:"post_id,omitempty"`  // set on successful publish
	MaxBudget float64  `json:"max_budget_usd,omitempty"`

	Error *Error `json:"error,omitempty"`

	Version     int        `json:"version"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// LatestOutput returns the most recent output recorded for the given phase.
func (a *Article) LatestOutput(p Phase) (string, bool) {
	for i := len(a.PhaseOutputs) - 1; i >= 0; i-- {
		if a.PhaseOutputs[i].Phase == p {
			return a.PhaseOutputs[i].Output, true
		}
	}
	return "", false
}

// Body returns the current working text: the latest Refine output if any,
// otherwise the latest Draft output.
func (a *Article) Body() (string, bool) {
	if out, ok := a.LatestOutput(PhaseRefine); ok {
		return out, true
	}
	return a.LatestOutput(PhaseDraft)
}

// CreateRequest holds the fields needed to create a new article.
type CreateRequest struct {
	Topic             string            `json:"topic"`
	Audience          string            `json:"audience,omitempty"`
	Keywords          []string          `json:"keywords,omitempty"`
	TargetWordCount   int               `json:"target_word_count"`
	Style             string            `json:"style,omitempty"`
	Tone              string            `json:"tone,omitempty"`
	QualityPreference string            `json:"quality_preference,omitempty"`
	ModelOverrides    map[string]string `json:"model_overrides,omitempty"`
	MaxBudgetUSD      float64           `json:"max_budget_usd,omitempty"`
}

// TransitionRequest asks the orchestrator to apply one externally driven
// status change (approval workflow, cancel, hold, resume).
type TransitionRequest struct {
	ExpectedStatus Status `json:"expected_status"`
	TargetStatus   Status `json:"target_status"`
	Reason         string `json:"reason,omitempty"`
}
