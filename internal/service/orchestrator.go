package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/inkpress-ai/inkpress/internal/adapter/ws"
	"github.com/inkpress-ai/inkpress/internal/config"
	"github.com/inkpress-ai/inkpress/internal/domain"
	"github.com/inkpress-ai/inkpress/internal/domain/article"
	"github.com/inkpress-ai/inkpress/internal/domain/event"
	"github.com/inkpress-ai/inkpress/internal/domain/model"
	"github.com/inkpress-ai/inkpress/internal/logger"
	"github.com/inkpress-ai/inkpress/internal/port/broadcast"
	"github.com/inkpress-ai/inkpress/internal/port/database"
	"github.com/inkpress-ai/inkpress/internal/port/eventstore"
	"github.com/inkpress-ai/inkpress/internal/port/messagequeue"
	"github.com/inkpress-ai/inkpress/internal/port/provider"
	"github.com/inkpress-ai/inkpress/internal/port/publisher"

	otelx "github.com/inkpress-ai/inkpress/internal/adapter/otel"
)

// errInterrupted signals that another writer moved the article out from
// under the worker (cancel, hold). The worker drops the article silently.
var errInterrupted = errors.New("article interrupted")

// Orchestrator drives articles through the generation pipeline. Ready
// article IDs arrive over the queue; a bounded worker pool picks them up
// and runs phases until the article parks at awaiting_approval, terminates,
// or is interrupted.
type Orchestrator struct {
	store   database.Store
	events  eventstore.Store
	queue   messagequeue.Queue
	hub     broadcast.Broadcaster
	exec    *Executor
	pub     publisher.Publisher
	cfg     *config.Pipeline
	metrics *otelx.Metrics

	sem     *semaphore.Weighted
	cancels sync.Map // article ID -> context.CancelFunc
	wg      sync.WaitGroup
}

// NewOrchestrator creates an Orchestrator. metrics may be nil when
// telemetry is disabled.
func NewOrchestrator(
	store database.Store,
	events eventstore.Store,
	queue messagequeue.Queue,
	hub broadcast.Broadcaster,
	exec *Executor,
	pub publisher.Publisher,
	cfg *config.Pipeline,
	metrics *otelx.Metrics,
) *Orchestrator {
	return &Orchestrator{
		store:   store,
		events:  events,
		queue:   queue,
		hub:     hub,
		exec:    exec,
		pub:     pub,
		cfg:     cfg,
		metrics: metrics,
		sem:     semaphore.NewWeighted(int64(cfg.Workers)),
	}
}

// Start subscribes to the ready and cancel subjects. The returned stop
// function cancels both subscriptions and waits for in-flight workers.
func (s *Orchestrator) Start(ctx context.Context) (func(), error) {
	cancelReady, err := s.queue.Subscribe(ctx, messagequeue.SubjectArticleReady, s.handleReady)
	if err != nil {
		return nil, fmt.Errorf("subscribe ready: %w", err)
	}
	// Cancel requests fan out to every instance; the one driving the
	// article interrupts its worker, the rest ignore the ID.
	cancelCancel, err := s.queue.SubscribeBroadcast(ctx, messagequeue.SubjectArticleCancel, s.handleCancel)
	if err != nil {
		cancelReady()
		return nil, fmt.Errorf("subscribe cancel: %w", err)
	}

	slog.Info("orchestrator started", "workers", s.cfg.Workers)
	var once sync.Once
	return func() {
		once.Do(func() {
			cancelReady()
			cancelCancel()
			s.wg.Wait()
		})
	}, nil
}

// handleReady picks up a ready article ID and dispatches a worker for it.
// The semaphore bounds concurrent pipelines; acquisition blocks so queue
// redelivery backs off naturally when the pool is full.
func (s *Orchestrator) handleReady(ctx context.Context, _ string, data []byte) error {
	var payload messagequeue.ReadyPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("unmarshal ready payload: %w", err)
	}

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.sem.Release(1)
		s.drive(context.WithoutCancel(ctx), payload.ArticleID)
	}()
	return nil
}

// handleCancel aborts the in-flight worker for the article, if any. The
// status write happened on the API side; this only interrupts generation.
func (s *Orchestrator) handleCancel(_ context.Context, _ string, data []byte) error {
	var payload messagequeue.CancelPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("unmarshal cancel payload: %w", err)
	}
	if cancel, ok := s.cancels.Load(payload.ArticleID); ok {
		cancel.(context.CancelFunc)()
		slog.Info("in-flight article interrupted", "article_id", payload.ArticleID, "reason", payload.Reason)
	}
	return nil
}

// drive runs one article as far as it can go in a single worker pass.
func (s *Orchestrator) drive(ctx context.Context, articleID string) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.cancels.Store(articleID, cancel)
	defer s.cancels.Delete(articleID)

	a, err := s.store.GetArticle(ctx, articleID)
	if err != nil {
		slog.Error("load ready article", "article_id", articleID, "error", err)
		return
	}

	ctx, span := otelx.StartArticleSpan(ctx, a.ID, a.QualityPreference)
	defer span.End()

	resolved, err := s.resolveModels(a)
	if err != nil {
		s.fail(ctx, a, article.ErrorKindValidation, "", err)
		return
	}

	switch a.Status {
	case article.StatusPending, article.StatusResearching:
		s.runPipeline(ctx, a, resolved, article.PhaseResearch)
	case article.StatusDrafting:
		s.runPipeline(ctx, a, resolved, article.PhaseDraft)
	case article.StatusAssessing, article.StatusRefining:
		s.runPipeline(ctx, a, resolved, article.PhaseAssess)
	case article.StatusApproved:
		s.finalizeAndPublish(ctx, a, resolved)
	default:
		// Stale or duplicate delivery; nothing to do.
		slog.Debug("ready message ignored", "article_id", a.ID, "status", a.Status)
	}
}

// runPipeline executes phases from the given entry point through the
// assess/refine loop, parking the article at awaiting_approval on success.
// A phase whose output is already committed is skipped, not re-run: a hold
// or redelivery can land between a phase's output commit and the next
// status transition, and the worker must continue past the paid work.
func (s *Orchestrator) runPipeline(ctx context.Context, a *article.Article, resolved model.Resolved, from article.Phase) {
	if from == article.PhaseResearch {
		if _, done := a.LatestOutput(article.PhaseResearch); done {
			slog.Info("phase output already committed", "article_id", a.ID, "phase", article.PhaseResearch)
		} else if err := s.runGeneration(ctx, a, resolved, article.PhaseResearch, s.exec.Research); err != nil {
			s.handlePhaseError(ctx, a, article.PhaseResearch, err)
			return
		}
		from = article.PhaseDraft
	}

	if from == article.PhaseDraft {
		if _, done := a.LatestOutput(article.PhaseDraft); done {
			slog.Info("phase output already committed", "article_id", a.ID, "phase", article.PhaseDraft)
		} else if err := s.runGeneration(ctx, a, resolved, article.PhaseDraft, s.exec.Draft); err != nil {
			s.handlePhaseError(ctx, a, article.PhaseDraft, err)
			return
		}
	}

	s.assessLoop(ctx, a, resolved)
}

// runGeneration runs one text-producing phase: transition in, call the
// provider, append the output and ledger entry, emit events.
func (s *Orchestrator) runGeneration(ctx context.Context, a *article.Article, resolved model.Resolved, phase article.Phase, fn func(context.Context, *article.Article, string) (*provider.Result, error)) error {
	modelID := resolved[phase]
	if err := s.transition(ctx, a, article.PhaseStatus(phase), phase); err != nil {
		return err
	}

	phaseCtx, span := otelx.StartPhaseSpan(ctx, a.ID, string(phase), modelID)
	defer span.End()

	started := phaseClock()
	res, err := fn(phaseCtx, a, modelID)
	s.recordPhaseMetrics(ctx, started)

	estimated := model.PhaseEstimate(resolved, phase, a.Params.TargetWordCount)
	if err != nil {
		// An aborted call billed nothing; only real attempts go in the ledger.
		if !errors.Is(err, context.Canceled) {
			s.appendCost(ctx, a, phase, modelID, estimated, 0, false)
		}
		return err
	}

	a.PhaseOutputs = append(a.PhaseOutputs, article.PhaseOutput{
		Phase:     phase,
		Output:    res.Text,
		Model:     modelID,
		CreatedAt: time.Now().UTC(),
	})
	if a.ModelsUsed == nil {
		a.ModelsUsed = make(map[article.Phase]string)
	}
	a.ModelsUsed[phase] = modelID

	if err := s.update(ctx, a); err != nil {
		// The phase lost its commit, but the provider cost was incurred and
		// must stay on the ledger.
		if errors.Is(err, errInterrupted) {
			s.appendCost(ctx, a, phase, modelID, estimated, res.CostUSD, false)
		}
		return err
	}
	s.appendCost(ctx, a, phase, modelID, estimated, res.CostUSD, true)

	s.appendEvent(ctx, a.ID, event.TypePhaseCompleted, map[string]any{
		"phase":  string(phase),
		"model":  modelID,
		"tokens": res.TokensUsed,
		"cost":   res.CostUSD,
	})
	s.hub.BroadcastEvent(ctx, ws.EventArticlePhase, ws.ArticlePhaseEvent{
		ArticleID: a.ID,
		Phase:     string(phase),
		Model:     modelID,
		CostUSD:   res.CostUSD,
		Words:     len(res.Text) / 5, // rough
	})

	slog.Info("phase completed", "article_id", a.ID, "phase", phase,
		"model", modelID, "cost", res.CostUSD)
	return nil
}

// assessLoop alternates assessment and refinement until the rubric passes
// or the refinement bound is hit.
func (s *Orchestrator) assessLoop(ctx context.Context, a *article.Article, resolved model.Resolved) {
	for {
		if err := s.transition(ctx, a, article.StatusAssessing, article.PhaseAssess); err != nil {
			s.handlePhaseError(ctx, a, article.PhaseAssess, err)
			return
		}

		modelID := resolved[article.PhaseAssess]
		started := phaseClock()
		as, err := s.exec.Assess(ctx, a, modelID)
		s.recordPhaseMetrics(ctx, started)
		if err != nil {
			s.handlePhaseError(ctx, a, article.PhaseAssess, err)
			return
		}

		a.QualityScore = as.Result.Score
		a.QualityFeedback = as.Result.Deficiencies
		a.Metadata = as.Metadata
		if a.ModelsUsed == nil {
			a.ModelsUsed = make(map[article.Phase]string)
		}
		a.ModelsUsed[article.PhaseAssess] = modelID

		if as.Provider != nil {
			s.appendCost(ctx, a, article.PhaseAssess, modelID,
				model.PhaseEstimate(resolved, article.PhaseAssess, a.Params.TargetWordCount),
				as.Provider.CostUSD, true)
		}
		if s.metrics != nil {
			s.metrics.QualityScore.Record(ctx, as.Result.Score)
		}

		if as.Result.Passed {
			s.park(ctx, a, "quality threshold met")
			return
		}

		if a.RefinementCount >= a.MaxRefinements {
			if s.cfg.AcceptOnMaxRefinements {
				slog.Warn("refinement bound hit, accepting best effort",
					"article_id", a.ID, "score", a.QualityScore)
				s.park(ctx, a, "refinement bound hit")
				return
			}
			s.fail(ctx, a, article.ErrorKindQuality, article.PhaseAssess,
				fmt.Errorf("quality %.1f below threshold %.1f after %d refinements",
					a.QualityScore, a.QualityThreshold, a.RefinementCount))
			return
		}

		a.RefinementCount++
		if s.metrics != nil {
			s.metrics.Refinements.Add(ctx, 1)
		}
		if err := s.runGeneration(ctx, a, resolved, article.PhaseRefine, s.exec.Refine); err != nil {
			s.handlePhaseError(ctx, a, article.PhaseRefine, err)
			return
		}
	}
}

// park moves the article to awaiting_approval and releases the worker.
func (s *Orchestrator) park(ctx context.Context, a *article.Article, reason string) {
	a.CurrentPhase = article.PhaseAssess
	if err := s.setStatus(ctx, a, article.StatusAwaitingApproval); err != nil {
		s.handlePhaseError(ctx, a, article.PhaseAssess, err)
		return
	}
	s.appendEvent(ctx, a.ID, event.TypeApprovalRequested, map[string]any{
		"score":  a.QualityScore,
		"reason": reason,
	})
	slog.Info("article awaiting approval", "article_id", a.ID,
		"score", a.QualityScore, "refinements", a.RefinementCount)
}

// finalizeAndPublish handles an approved article: finalize phase, then the
// one-shot CMS publish.
func (s *Orchestrator) finalizeAndPublish(ctx context.Context, a *article.Article, resolved model.Resolved) {
	modelID := resolved[article.PhaseFinalize]
	a.CurrentPhase = article.PhaseFinalize

	phaseCtx, span := otelx.StartPhaseSpan(ctx, a.ID, string(article.PhaseFinalize), modelID)
	started := phaseClock()
	res, err := s.exec.Finalize(phaseCtx, a, modelID)
	s.recordPhaseMetrics(ctx, started)
	span.End()

	estimated := model.PhaseEstimate(resolved, article.PhaseFinalize, a.Params.TargetWordCount)
	if err != nil {
		s.appendCost(ctx, a, article.PhaseFinalize, modelID, estimated, 0, false)
		s.handlePhaseError(ctx, a, article.PhaseFinalize, err)
		return
	}

	a.Artifact = assembleArtifact(a, res.Text)
	if a.ModelsUsed == nil {
		a.ModelsUsed = make(map[article.Phase]string)
	}
	a.ModelsUsed[article.PhaseFinalize] = modelID
	if err := s.update(ctx, a); err != nil {
		s.handlePhaseError(ctx, a, article.PhaseFinalize, err)
		return
	}
	s.appendCost(ctx, a, article.PhaseFinalize, modelID, estimated, res.CostUSD, true)

	postID, err := s.pub.Publish(ctx, a)
	if err != nil {
		s.fail(ctx, a, article.ErrorKindPublish, article.PhaseFinalize, err)
		return
	}

	a.PostID = postID
	now := time.Now().UTC()
	a.CompletedAt = &now
	if err := s.setStatus(ctx, a, article.StatusPublished); err != nil {
		s.handlePhaseError(ctx, a, article.PhaseFinalize, err)
		return
	}

	s.appendEvent(ctx, a.ID, event.TypeArticlePublished, map[string]any{
		"post_id":    postID,
		"total_cost": a.TotalCostActual,
	})
	if s.metrics != nil {
		s.metrics.ArticlesPublished.Add(ctx, 1)
	}
	slog.Info("article published", "article_id", a.ID, "post_id", postID)
}

// RequestTransition applies one externally driven status change: approval,
// rejection, or any other legal edge the API exposes directly.
func (s *Orchestrator) RequestTransition(ctx context.Context, id string, req article.TransitionRequest) (*article.Article, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	a, err := s.store.GetArticle(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status != req.ExpectedStatus {
		return nil, fmt.Errorf("article %s is %s, expected %s: %w",
			id, a.Status, req.ExpectedStatus, domain.ErrConflict)
	}
	if err := article.CheckTransition(a.Status, req.TargetStatus); err != nil {
		return nil, err
	}

	from := a.Status
	if req.TargetStatus.Terminal() {
		now := time.Now().UTC()
		a.CompletedAt = &now
	}
	if err := s.setStatus(ctx, a, req.TargetStatus); err != nil {
		return nil, err
	}

	switch req.TargetStatus {
	case article.StatusApproved, article.StatusRejected:
		s.appendEvent(ctx, a.ID, event.TypeApprovalResolved, map[string]any{
			"decision": string(req.TargetStatus),
			"reason":   req.Reason,
		})
	default:
		s.appendEvent(ctx, a.ID, event.TypeStatusChanged, event.StatusChange{
			From:   string(from),
			To:     string(req.TargetStatus),
			Reason: req.Reason,
		})
	}

	// An approval puts the article back on the queue for finalize + publish.
	if req.TargetStatus == article.StatusApproved {
		s.publishReady(ctx, a.ID)
	}

	slog.Info("transition applied", "article_id", a.ID, "from", from, "to", req.TargetStatus)
	return a, nil
}

// Cancel moves the article to cancelled and interrupts any in-flight worker.
func (s *Orchestrator) Cancel(ctx context.Context, id, reason string) (*article.Article, error) {
	a, err := s.store.GetArticle(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := article.CheckTransition(a.Status, article.StatusCancelled); err != nil {
		return nil, err
	}

	from := a.Status
	now := time.Now().UTC()
	a.CompletedAt = &now
	if err := s.setStatus(ctx, a, article.StatusCancelled); err != nil {
		return nil, err
	}

	s.appendEvent(ctx, a.ID, event.TypeStatusChanged, event.StatusChange{
		From:   string(from),
		To:     string(article.StatusCancelled),
		Reason: reason,
	})

	payload, _ := json.Marshal(messagequeue.CancelPayload{ArticleID: id, Reason: reason})
	if err := s.queue.Publish(ctx, messagequeue.SubjectArticleCancel, payload); err != nil {
		slog.Error("publish cancel", "article_id", id, "error", err)
	}

	slog.Info("article cancelled", "article_id", id, "from", from, "reason", reason)
	return a, nil
}

// Hold parks a pre-approval article on hold, interrupting the worker.
func (s *Orchestrator) Hold(ctx context.Context, id, reason string) (*article.Article, error) {
	a, err := s.store.GetArticle(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := article.CheckTransition(a.Status, article.StatusOnHold); err != nil {
		return nil, err
	}

	from := a.Status
	if err := s.setStatus(ctx, a, article.StatusOnHold); err != nil {
		return nil, err
	}
	s.appendEvent(ctx, a.ID, event.TypeStatusChanged, event.StatusChange{
		From:   string(from),
		To:     string(article.StatusOnHold),
		Phase:  string(a.CurrentPhase),
		Reason: reason,
	})

	payload, _ := json.Marshal(messagequeue.CancelPayload{ArticleID: id, Reason: "held: " + reason})
	if err := s.queue.Publish(ctx, messagequeue.SubjectArticleCancel, payload); err != nil {
		slog.Error("publish hold interrupt", "article_id", id, "error", err)
	}
	return a, nil
}

// Resume puts a held article back in the status it was paused in and
// re-queues it.
func (s *Orchestrator) Resume(ctx context.Context, id string) (*article.Article, error) {
	a, err := s.store.GetArticle(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status != article.StatusOnHold {
		return nil, fmt.Errorf("article %s is %s, expected on_hold: %w", id, a.Status, domain.ErrConflict)
	}

	target := article.ResumeStatus(a.CurrentPhase)
	if err := article.CheckTransition(a.Status, target); err != nil {
		return nil, err
	}
	if err := s.setStatus(ctx, a, target); err != nil {
		return nil, err
	}
	s.appendEvent(ctx, a.ID, event.TypeStatusChanged, event.StatusChange{
		From:  string(article.StatusOnHold),
		To:    string(target),
		Phase: string(a.CurrentPhase),
	})

	s.publishReady(ctx, a.ID)
	slog.Info("article resumed", "article_id", id, "status", target)
	return a, nil
}

// --- internals ---

func (s *Orchestrator) resolveModels(a *article.Article) (model.Resolved, error) {
	pref := model.Preference{Tier: model.Tier(a.QualityPreference)}
	if len(a.ModelOverrides) > 0 {
		pref = model.Preference{Overrides: a.ModelOverrides}
	}
	return model.Resolve(pref)
}

// transition moves the article into a phase-execution status.
func (s *Orchestrator) transition(ctx context.Context, a *article.Article, to article.Status, phase article.Phase) error {
	if a.Status == to {
		// Re-entry after a crash or redelivery; the status write already
		// happened.
		a.CurrentPhase = phase
		return nil
	}
	if err := article.CheckTransition(a.Status, to); err != nil {
		return err
	}
	from := a.Status
	a.CurrentPhase = phase
	if err := s.setStatus(ctx, a, to); err != nil {
		return err
	}
	s.appendEvent(ctx, a.ID, event.TypeStatusChanged, event.StatusChange{
		From:  string(from),
		To:    string(to),
		Phase: string(phase),
	})
	return nil
}

// setStatus writes the status change with the version guard and broadcasts
// the new state.
func (s *Orchestrator) setStatus(ctx context.Context, a *article.Article, to article.Status) error {
	a.Status = to
	if err := s.update(ctx, a); err != nil {
		return err
	}
	s.hub.BroadcastEvent(ctx, ws.EventArticleStatus, ws.ArticleStatusEvent{
		ArticleID:       a.ID,
		Status:          string(a.Status),
		Phase:           string(a.CurrentPhase),
		RefinementCount: a.RefinementCount,
		QualityScore:    a.QualityScore,
	})
	return nil
}

// update persists the article. A version conflict means another writer won
// the race; the worker reloads to see whether it was cancelled or held, and
// backs off either way.
func (s *Orchestrator) update(ctx context.Context, a *article.Article) error {
	err := s.store.UpdateArticle(ctx, a)
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrConflict) {
		if current, loadErr := s.store.GetArticle(ctx, a.ID); loadErr == nil {
			*a = *current
		}
		return errInterrupted
	}
	return err
}

func (s *Orchestrator) appendCost(ctx context.Context, a *article.Article, phase article.Phase, modelID string, estimated, actual float64, success bool) {
	e := article.CostEntry{
		Phase:         phase,
		Model:         modelID,
		EstimatedCost: estimated,
		ActualCost:    actual,
		Success:       success,
	}
	if err := s.store.AppendCostEntry(ctx, a.ID, e); err != nil {
		slog.Error("append cost entry", "article_id", a.ID, "phase", phase, "error", err)
		return
	}
	a.TotalCostEstimated += estimated
	a.TotalCostActual += actual

	s.appendEvent(ctx, a.ID, event.TypeCostRecorded, map[string]any{
		"phase":     string(phase),
		"model":     modelID,
		"estimated": estimated,
		"actual":    actual,
		"success":   success,
	})
	s.hub.BroadcastEvent(ctx, ws.EventArticleCost, ws.ArticleCostEvent{
		ArticleID:     a.ID,
		Phase:         string(phase),
		Model:         modelID,
		EstimatedCost: estimated,
		ActualCost:    actual,
		TotalActual:   a.TotalCostActual,
	})
	if s.metrics != nil && actual > 0 {
		s.metrics.PhaseCost.Record(ctx, actual)
	}
}

// handlePhaseError sorts a phase failure into interruption (drop quietly)
// or terminal failure.
func (s *Orchestrator) handlePhaseError(ctx context.Context, a *article.Article, phase article.Phase, err error) {
	switch {
	case errors.Is(err, errInterrupted):
		slog.Info("worker released", "article_id", a.ID, "status", a.Status, "phase", phase)
	case errors.Is(err, context.Canceled):
		// Interrupted mid-generation; the status write that caused it
		// already landed.
		slog.Info("generation aborted", "article_id", a.ID, "phase", phase)
	default:
		kind := article.ErrorKindProvider
		if errors.Is(err, domain.ErrIllegalTransition) {
			kind = article.ErrorKindValidation
		}
		s.fail(ctx, a, kind, phase, err)
	}
}

// fail drives the article to the terminal failed state.
func (s *Orchestrator) fail(ctx context.Context, a *article.Article, kind article.ErrorKind, phase article.Phase, cause error) {
	if a.Status.Terminal() {
		return
	}
	if !article.CanTransition(a.Status, article.StatusFailed) {
		slog.Error("cannot fail article", "article_id", a.ID, "status", a.Status, "cause", cause)
		return
	}

	a.Error = &article.Error{Kind: kind, Message: cause.Error(), Phase: phase}
	now := time.Now().UTC()
	a.CompletedAt = &now
	if err := s.setStatus(ctx, a, article.StatusFailed); err != nil {
		slog.Error("persist failure state", "article_id", a.ID, "error", err)
		return
	}

	s.appendEvent(ctx, a.ID, event.TypeArticleFailed, map[string]any{
		"kind":    string(kind),
		"phase":   string(phase),
		"message": cause.Error(),
	})
	if s.metrics != nil {
		s.metrics.ArticlesFailed.Add(ctx, 1)
	}
	slog.Error("article failed", "article_id", a.ID, "kind", kind, "phase", phase, "error", cause)
}

func (s *Orchestrator) publishReady(ctx context.Context, articleID string) {
	payload, _ := json.Marshal(messagequeue.ReadyPayload{ArticleID: articleID})
	if err := s.queue.Publish(ctx, messagequeue.SubjectArticleReady, payload); err != nil {
		slog.Error("publish ready", "article_id", articleID, "error", err)
	}
}

func (s *Orchestrator) recordPhaseMetrics(ctx context.Context, started time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.PhaseDuration.Record(ctx, time.Since(started).Seconds())
}

func (s *Orchestrator) appendEvent(ctx context.Context, articleID string, t event.Type, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal event payload", "article_id", articleID, "type", t, "error", err)
		return
	}
	ev := &event.ArticleEvent{ArticleID: articleID, Type: t, Payload: data, RequestID: logger.RequestID(ctx)}
	if err := s.events.Append(ctx, ev); err != nil {
		slog.Error("append event", "article_id", articleID, "type", t, "error", err)
	}
}
