// Package service implements the business logic behind the HTTP API: article
// lifecycle, cost accounting, and the generation pipeline orchestrator.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/inkpress-ai/inkpress/internal/config"
	"github.com/inkpress-ai/inkpress/internal/domain"
	"github.com/inkpress-ai/inkpress/internal/domain/article"
	"github.com/inkpress-ai/inkpress/internal/domain/event"
	"github.com/inkpress-ai/inkpress/internal/domain/model"
	"github.com/inkpress-ai/inkpress/internal/logger"
	"github.com/inkpress-ai/inkpress/internal/port/cache"
	"github.com/inkpress-ai/inkpress/internal/port/database"
	"github.com/inkpress-ai/inkpress/internal/port/eventstore"
	"github.com/inkpress-ai/inkpress/internal/port/messagequeue"

	otelx "github.com/inkpress-ai/inkpress/internal/adapter/otel"
)

// ArticleService handles article creation, reads, and cost reporting.
type ArticleService struct {
	store       database.Store
	events      eventstore.Store
	queue       messagequeue.Queue
	cache       cache.Cache
	cfg         *config.Pipeline
	snapshotTTL time.Duration
	metrics     *otelx.Metrics
}

// NewArticleService creates a new ArticleService. cache and metrics may be
// nil to disable snapshot caching and telemetry.
func NewArticleService(store database.Store, events eventstore.Store, queue messagequeue.Queue, c cache.Cache, cfg *config.Pipeline, snapshotTTL time.Duration, metrics *otelx.Metrics) *ArticleService {
	return &ArticleService{
		store:       store,
		events:      events,
		queue:       queue,
		cache:       c,
		cfg:         cfg,
		snapshotTTL: snapshotTTL,
		metrics:     metrics,
	}
}

// Create validates the request, resolves models, estimates cost against the
// budget cap, persists the article, and hands it to the worker queue.
func (s *ArticleService) Create(ctx context.Context, req article.CreateRequest) (*article.Article, error) {
	if req.QualityPreference == "" && len(req.ModelOverrides) == 0 {
		req.QualityPreference = s.cfg.DefaultTier
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	resolved, err := model.Resolve(model.PreferenceFromRequest(req.QualityPreference, req.ModelOverrides))
	if err != nil {
		return nil, err
	}

	estimate := model.EstimateCost(resolved, req.TargetWordCount)
	if req.MaxBudgetUSD > 0 && estimate.TotalUSD > req.MaxBudgetUSD {
		return nil, fmt.Errorf("estimated cost $%.4f exceeds budget $%.4f: %w",
			estimate.TotalUSD, req.MaxBudgetUSD, domain.ErrValidation)
	}

	a := &article.Article{
		Params: article.Params{
			Topic:           req.Topic,
			Audience:        req.Audience,
			Keywords:        req.Keywords,
			TargetWordCount: req.TargetWordCount,
			Style:           req.Style,
			Tone:            req.Tone,
		},
		QualityPreference:  req.QualityPreference,
		ModelOverrides:     overridesFromRequest(req.ModelOverrides),
		Status:             article.StatusPending,
		MaxRefinements:     s.cfg.MaxRefinements,
		TotalCostEstimated: estimate.TotalUSD,
		QualityThreshold:   s.cfg.QualityThreshold,
		MaxBudget:          req.MaxBudgetUSD,
	}

	if err := s.store.CreateArticle(ctx, a); err != nil {
		return nil, fmt.Errorf("store article: %w", err)
	}

	s.appendEvent(ctx, a.ID, event.TypeArticleCreated, map[string]any{
		"topic":          a.Params.Topic,
		"tier":           a.QualityPreference,
		"estimated_cost": a.TotalCostEstimated,
	})

	payload, err := json.Marshal(messagequeue.ReadyPayload{ArticleID: a.ID})
	if err != nil {
		return a, fmt.Errorf("marshal ready payload: %w", err)
	}
	if err := s.queue.Publish(ctx, messagequeue.SubjectArticleReady, payload); err != nil {
		// The article is saved; a queue hiccup leaves it pending and
		// retryable, so return it anyway.
		slog.Error("failed to publish article to queue", "article_id", a.ID, "error", err)
	}

	if s.metrics != nil {
		s.metrics.ArticlesCreated.Add(ctx, 1)
	}
	slog.Info("article created", "article_id", a.ID, "topic", a.Params.Topic,
		"tier", a.QualityPreference, "estimated_cost", a.TotalCostEstimated)
	return a, nil
}

// Get returns an article by ID, serving recent snapshots from cache.
func (s *ArticleService) Get(ctx context.Context, id string) (*article.Article, error) {
	if s.cache != nil {
		if data, ok, _ := s.cache.Get(ctx, snapshotKey(id)); ok {
			var a article.Article
			if err := json.Unmarshal(data, &a); err == nil {
				return &a, nil
			}
		}
	}

	a, err := s.store.GetArticle(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(a); err == nil {
			_ = s.cache.Set(ctx, snapshotKey(id), data, s.snapshotTTL)
		}
	}
	return a, nil
}

// List returns all articles, newest first.
func (s *ArticleService) List(ctx context.Context) ([]article.Article, error) {
	return s.store.ListArticles(ctx)
}

// CostReport is the per-article cost summary returned by Costs.
type CostReport struct {
	ArticleID      string              `json:"article_id"`
	Entries        []article.CostEntry `json:"entries"`
	TotalEstimated float64             `json:"total_estimated"`
	TotalActual    float64             `json:"total_actual"`
}

// Costs returns the full cost ledger plus the folded totals.
func (s *ArticleService) Costs(ctx context.Context, id string) (*CostReport, error) {
	a, err := s.store.GetArticle(ctx, id)
	if err != nil {
		return nil, err
	}
	entries, err := s.store.ListCostEntries(ctx, id)
	if err != nil {
		return nil, err
	}
	return &CostReport{
		ArticleID:      id,
		Entries:        entries,
		TotalEstimated: a.TotalCostEstimated,
		TotalActual:    a.TotalCostActual,
	}, nil
}

// Events returns the article's audit trail, oldest first.
func (s *ArticleService) Events(ctx context.Context, id string) ([]event.ArticleEvent, error) {
	if _, err := s.store.GetArticle(ctx, id); err != nil {
		return nil, err
	}
	return s.events.LoadByArticle(ctx, id)
}

// Estimate is the dry-run cost estimate: same validation and resolution as
// Create, but nothing is persisted and no worker is dispatched.
func (s *ArticleService) Estimate(ctx context.Context, req article.CreateRequest) (*model.Breakdown, error) {
	if req.QualityPreference == "" && len(req.ModelOverrides) == 0 {
		req.QualityPreference = s.cfg.DefaultTier
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	resolved, err := model.Resolve(model.PreferenceFromRequest(req.QualityPreference, req.ModelOverrides))
	if err != nil {
		return nil, err
	}
	b := model.EstimateCost(resolved, req.TargetWordCount)
	return &b, nil
}

// Models returns the static model registry for API consumers.
func (s *ArticleService) Models() []model.Info {
	return model.Registry()
}

// appendEvent records an audit event, logging rather than failing the
// caller when the append itself fails.
func (s *ArticleService) appendEvent(ctx context.Context, articleID string, t event.Type, payload any) {
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

func snapshotKey(id string) string { return "article:" + id }

func overridesFromRequest(m map[string]string) map[article.Phase]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[article.Phase]string, len(m))
	for k, v := range m {
		out[article.Phase(k)] = v
	}
	return out
}
