package service

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/inkpress-ai/inkpress/internal/domain"
	"github.com/inkpress-ai/inkpress/internal/domain/article"
	"github.com/inkpress-ai/inkpress/internal/domain/event"
	"github.com/inkpress-ai/inkpress/internal/port/messagequeue"
)

// memCache implements cache.Cache in memory, ignoring TTLs.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]byte)}
}

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	c.sets++
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

type svcFixture struct {
	store  *memStore
	events *memEvents
	queue  *mockQueue
	cache  *memCache
	svc    *ArticleService
}

func newSvcFixture() *svcFixture {
	f := &svcFixture{
		store:  newMemStore(),
		events: &memEvents{},
		queue:  &mockQueue{},
		cache:  newMemCache(),
	}
	f.svc = NewArticleService(f.store, f.events, f.queue, f.cache, testPipelineConfig(), 5*time.Second, nil)
	return f
}

func validCreate() article.CreateRequest {
	return article.CreateRequest{
		Topic:           "observability on a budget",
		TargetWordCount: 1200,
		Keywords:        []string{"metrics", "tracing"},
	}
}

func TestCreateDefaultsTierAndQueues(t *testing.T) {
	f := newSvcFixture()

	a, err := f.svc.Create(context.Background(), validCreate())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.ID == "" || a.Version != 1 {
		t.Fatalf("article not persisted: id=%q version=%d", a.ID, a.Version)
	}
	if a.Status != article.StatusPending {
		t.Fatalf("status = %s, want pending", a.Status)
	}
	if a.QualityPreference != "balanced" {
		t.Fatalf("tier = %q, want default balanced", a.QualityPreference)
	}
	if a.TotalCostEstimated <= 0 {
		t.Fatal("expected a nonzero upfront estimate for the balanced tier")
	}
	if a.MaxRefinements != 3 || a.QualityThreshold != 7.0 {
		t.Fatalf("pipeline defaults not applied: %+v", a)
	}

	if f.queue.count(messagequeue.SubjectArticleReady) != 1 {
		t.Fatal("creation must enqueue one ready message")
	}
	var payload messagequeue.ReadyPayload
	if err := json.Unmarshal(f.queue.published[0].data, &payload); err != nil {
		t.Fatalf("bad ready payload: %v", err)
	}
	if payload.ArticleID != a.ID {
		t.Fatalf("ready payload targets %q, want %q", payload.ArticleID, a.ID)
	}

	types := f.events.types(a.ID)
	if len(types) != 1 || types[0] != event.TypeArticleCreated {
		t.Fatalf("expected a single article_created event, got %v", types)
	}
}

func TestCreateHonorsExplicitOverrides(t *testing.T) {
	f := newSvcFixture()

	req := validCreate()
	req.ModelOverrides = map[string]string{
		"research": "ollama/llama3.1-8b",
		"draft":    "ollama/llama3.1-8b",
		"assess":   "ollama/llama3.1-8b",
		"refine":   "ollama/llama3.1-8b",
		"finalize": "ollama/llama3.1-8b",
	}

	a, err := f.svc.Create(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.QualityPreference != "" {
		t.Fatalf("tier = %q, want empty when overrides are given", a.QualityPreference)
	}
	if a.TotalCostEstimated != 0 {
		t.Fatalf("estimate = %f, want 0 for an all-local selection", a.TotalCostEstimated)
	}
}

func TestCreateRejectsOverBudget(t *testing.T) {
	f := newSvcFixture()

	req := validCreate()
	req.QualityPreference = "premium"
	req.MaxBudgetUSD = 0.0001

	_, err := f.svc.Create(context.Background(), req)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if len(f.store.articles) != 0 {
		t.Fatal("over-budget request must not be persisted")
	}
	if f.queue.count(messagequeue.SubjectArticleReady) != 0 {
		t.Fatal("over-budget request must not be queued")
	}
}

func TestCreateRejectsInvalidRequest(t *testing.T) {
	f := newSvcFixture()

	req := validCreate()
	req.Topic = ""

	_, err := f.svc.Create(context.Background(), req)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestGetServesSnapshotFromCache(t *testing.T) {
	f := newSvcFixture()
	a, err := f.svc.Create(context.Background(), validCreate())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	first, err := f.svc.Get(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if f.cache.sets != 1 {
		t.Fatalf("expected one snapshot write, got %d", f.cache.sets)
	}

	// A direct store write is invisible until the snapshot expires.
	f.store.setStatus(a.ID, article.StatusCancelled)
	second, err := f.svc.Get(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if second.Status != first.Status {
		t.Fatalf("expected cached status %s, got %s", first.Status, second.Status)
	}
}

func TestGetUnknownArticle(t *testing.T) {
	f := newSvcFixture()

	_, err := f.svc.Get(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCostsReportsLedgerAndTotals(t *testing.T) {
	f := newSvcFixture()
	a, err := f.svc.Create(context.Background(), validCreate())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	for _, e := range []article.CostEntry{
		{Phase: article.PhaseResearch, Model: "openai/gpt-4o-mini", EstimatedCost: 0.002, ActualCost: 0.0015, Success: true},
		{Phase: article.PhaseDraft, Model: "openai/gpt-4o-mini", EstimatedCost: 0.004, ActualCost: 0.005, Success: true},
	} {
		if err := f.store.AppendCostEntry(context.Background(), a.ID, e); err != nil {
			t.Fatalf("append cost: %v", err)
		}
	}

	report, err := f.svc.Costs(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("costs: %v", err)
	}
	if len(report.Entries) != 2 {
		t.Fatalf("expected 2 ledger entries, got %d", len(report.Entries))
	}
	if math.Abs(report.TotalActual-0.0065) > 1e-9 {
		t.Fatalf("total actual = %f, want 0.0065", report.TotalActual)
	}
}

func TestEventsRequiresExistingArticle(t *testing.T) {
	f := newSvcFixture()

	_, err := f.svc.Events(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestEstimateIsDryRun(t *testing.T) {
	f := newSvcFixture()

	b, err := f.svc.Estimate(context.Background(), validCreate())
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	if b.TotalUSD <= 0 {
		t.Fatal("expected a nonzero estimate for the default tier")
	}
	if len(f.store.articles) != 0 {
		t.Fatal("estimate must not persist anything")
	}
	if len(f.queue.published) != 0 {
		t.Fatal("estimate must not enqueue anything")
	}
}

func TestModelsReturnsRegistry(t *testing.T) {
	f := newSvcFixture()

	models := f.svc.Models()
	if len(models) == 0 {
		t.Fatal("expected a populated model registry")
	}
}
