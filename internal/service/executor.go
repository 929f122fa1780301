package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/inkpress-ai/inkpress/internal/config"
	"github.com/inkpress-ai/inkpress/internal/domain/article"
	"github.com/inkpress-ai/inkpress/internal/domain/model"
	"github.com/inkpress-ai/inkpress/internal/domain/quality"
	"github.com/inkpress-ai/inkpress/internal/port/provider"
	"github.com/inkpress-ai/inkpress/internal/resilience"
)

// Executor runs individual pipeline phases against the generation provider.
// It is stateless; all article state lives with the caller.
type Executor struct {
	gen    provider.Generator
	rubric quality.Rubric
	cfg    *config.Pipeline
}

// NewExecutor creates an Executor.
func NewExecutor(gen provider.Generator, rubric quality.Rubric, cfg *config.Pipeline) *Executor {
	return &Executor{gen: gen, rubric: rubric, cfg: cfg}
}

// generate runs one provider call with the phase deadline and transient
// retry policy applied.
func (e *Executor) generate(ctx context.Context, phase article.Phase, modelID, prompt string, targetWords int) (*provider.Result, error) {
	callCtx, cancel := context.WithTimeout(ctx, e.cfg.PhaseTimeout)
	defer cancel()

	var res *provider.Result
	err := resilience.Retry(callCtx, e.cfg.ProviderRetries, e.cfg.RetryBackoff, provider.IsTransient, func() error {
		var genErr error
		res, genErr = e.gen.Generate(callCtx, provider.Request{
			Prompt:    prompt,
			Model:     modelID,
			MaxTokens: model.EstimateTokens(phase, targetWords),
		})
		return genErr
	})
	if err != nil {
		return nil, fmt.Errorf("%s phase: %w", phase, err)
	}
	return res, nil
}

// Research produces the outline and fact sheet the draft builds on.
func (e *Executor) Research(ctx context.Context, a *article.Article, modelID string) (*provider.Result, error) {
	return e.generate(ctx, article.PhaseResearch, modelID, buildResearchPrompt(a.Params), a.Params.TargetWordCount)
}

// Draft writes the first full article text from the research output.
func (e *Executor) Draft(ctx context.Context, a *article.Article, modelID string) (*provider.Result, error) {
	research, ok := a.LatestOutput(article.PhaseResearch)
	if !ok {
		return nil, fmt.Errorf("draft phase: no research output recorded")
	}
	return e.generate(ctx, article.PhaseDraft, modelID, buildDraftPrompt(a.Params, research), a.Params.TargetWordCount)
}

// Refine revises the current body against the recorded deficiencies.
func (e *Executor) Refine(ctx context.Context, a *article.Article, modelID string) (*provider.Result, error) {
	body, ok := a.Body()
	if !ok {
		return nil, fmt.Errorf("refine phase: no draft output recorded")
	}
	return e.generate(ctx, article.PhaseRefine, modelID, buildRefinePrompt(a.Params, body, a.QualityFeedback), a.Params.TargetWordCount)
}

// Assessment is the outcome of the Assess phase: the rubric result plus
// SEO metadata when enabled. The rubric score is deterministic; only the
// metadata side involves a provider call.
type Assessment struct {
	Result   quality.Result
	Metadata article.Metadata
	Provider *provider.Result // nil when no provider call was made
}

// Assess scores the current body and, when configured, generates publish
// metadata in the same pass.
func (e *Executor) Assess(ctx context.Context, a *article.Article, modelID string) (*Assessment, error) {
	body, ok := a.Body()
	if !ok {
		return nil, fmt.Errorf("assess phase: no draft output recorded")
	}

	as := &Assessment{
		Result: e.rubric.Evaluate(body, a.Params.TargetWordCount, a.Params.Topic),
	}

	if !e.cfg.SEOExtras {
		return as, nil
	}

	res, err := e.generate(ctx, article.PhaseAssess, modelID, buildSEOPrompt(a.Params, body), a.Params.TargetWordCount)
	if err != nil {
		// Metadata is a nice-to-have; the assessment itself already
		// succeeded, so fall back to derived metadata.
		as.Metadata = fallbackMetadata(a.Params)
		return as, nil
	}
	as.Provider = res
	as.Metadata = parseSEOResponse(res.Text, a.Params)
	return as, nil
}

// Finalize copy-edits the approved body into the publish-ready artifact.
func (e *Executor) Finalize(ctx context.Context, a *article.Article, modelID string) (*provider.Result, error) {
	body, ok := a.Body()
	if !ok {
		return nil, fmt.Errorf("finalize phase: no draft output recorded")
	}
	return e.generate(ctx, article.PhaseFinalize, modelID, buildFinalizePrompt(a.Params, body), a.Params.TargetWordCount)
}

// assembleArtifact wraps the finalized body in YAML front matter built from
// the article's publish metadata.
func assembleArtifact(a *article.Article, body string) string {
	var b strings.Builder
	b.WriteString("---\n")
	title := a.Metadata.SEOTitle
	if title == "" {
		title = a.Params.Topic
	}
	fmt.Fprintf(&b, "title: %q\n", title)
	if a.Metadata.SEODescription != "" {
		fmt.Fprintf(&b, "description: %q\n", a.Metadata.SEODescription)
	}
	if len(a.Metadata.Tags) > 0 {
		b.WriteString("tags:\n")
		for _, tag := range a.Metadata.Tags {
			fmt.Fprintf(&b, "  - %q\n", tag)
		}
	}
	b.WriteString("---\n\n")
	b.WriteString(body)
	return b.String()
}

// parseSEOResponse extracts the metadata JSON from a model response,
// tolerating surrounding prose or code fences. Unparseable responses fall
// back to derived metadata rather than failing the phase.
func parseSEOResponse(text string, p article.Params) article.Metadata {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return fallbackMetadata(p)
	}

	var md article.Metadata
	if err := json.Unmarshal([]byte(text[start:end+1]), &md); err != nil {
		return fallbackMetadata(p)
	}
	if md.SEOTitle == "" {
		md.SEOTitle = p.Topic
	}
	if len(md.Tags) > 5 {
		md.Tags = md.Tags[:5]
	}
	return md
}

func fallbackMetadata(p article.Params) article.Metadata {
	tags := p.Keywords
	if len(tags) > 5 {
		tags = tags[:5]
	}
	return article.Metadata{
		SEOTitle: p.Topic,
		Tags:     tags,
	}
}

// phaseClock is swapped in tests to make durations deterministic.
var phaseClock = time.Now
