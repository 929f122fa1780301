package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/inkpress-ai/inkpress/internal/adapter/ws"
	"github.com/inkpress-ai/inkpress/internal/config"
	"github.com/inkpress-ai/inkpress/internal/domain"
	"github.com/inkpress-ai/inkpress/internal/domain/article"
	"github.com/inkpress-ai/inkpress/internal/domain/event"
	"github.com/inkpress-ai/inkpress/internal/domain/quality"
	"github.com/inkpress-ai/inkpress/internal/port/messagequeue"
	"github.com/inkpress-ai/inkpress/internal/port/provider"
	"github.com/inkpress-ai/inkpress/internal/service"
)

// stubStore implements database.Store in memory.
type stubStore struct {
	mu       sync.Mutex
	nextID   int
	articles map[string]article.Article
	costs    map[string][]article.CostEntry
}

func newStubStore() *stubStore {
	return &stubStore{
		articles: make(map[string]article.Article),
		costs:    make(map[string][]article.CostEntry),
	}
}

func (s *stubStore) ListArticles(_ context.Context) ([]article.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]article.Article, 0, len(s.articles))
	for _, a := range s.articles {
		out = append(out, a)
	}
	return out, nil
}

func (s *stubStore) GetArticle(_ context.Context, id string) (*article.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.articles[id]
	if !ok {
		return nil, fmt.Errorf("article %s: %w", id, domain.ErrNotFound)
	}
	cp := a
	return &cp, nil
}

func (s *stubStore) CreateArticle(_ context.Context, a *article.Article) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	a.ID = fmt.Sprintf("a%d", s.nextID)
	a.Version = 1
	a.CreatedAt = time.Now().UTC()
	s.articles[a.ID] = *a
	return nil
}

func (s *stubStore) UpdateArticle(_ context.Context, a *article.Article) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.articles[a.ID]
	if !ok {
		return fmt.Errorf("article %s: %w", a.ID, domain.ErrNotFound)
	}
	if stored.Version != a.Version {
		return fmt.Errorf("article %s: %w", a.ID, domain.ErrConflict)
	}
	a.Version++
	s.articles[a.ID] = *a
	return nil
}

func (s *stubStore) AppendCostEntry(_ context.Context, articleID string, e article.CostEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.articles[articleID]; !ok {
		return fmt.Errorf("article %s: %w", articleID, domain.ErrNotFound)
	}
	s.costs[articleID] = append(s.costs[articleID], e)
	return nil
}

func (s *stubStore) ListCostEntries(_ context.Context, articleID string) ([]article.CostEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.costs[articleID], nil
}

// stubEvents implements eventstore.Store.
type stubEvents struct {
	mu     sync.Mutex
	events []event.ArticleEvent
}

func (s *stubEvents) Append(_ context.Context, ev *event.ArticleEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev.Version = len(s.events) + 1
	s.events = append(s.events, *ev)
	return nil
}

func (s *stubEvents) LoadByArticle(_ context.Context, articleID string) ([]event.ArticleEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []event.ArticleEvent
	for _, ev := range s.events {
		if ev.ArticleID == articleID {
			out = append(out, ev)
		}
	}
	return out, nil
}

// stubQueue implements messagequeue.Queue.
type stubQueue struct{}

func (stubQueue) Publish(_ context.Context, _ string, _ []byte) error { return nil }
func (stubQueue) Subscribe(_ context.Context, _ string, _ messagequeue.Handler) (func(), error) {
	return func() {}, nil
}
func (stubQueue) SubscribeBroadcast(_ context.Context, _ string, _ messagequeue.Handler) (func(), error) {
	return func() {}, nil
}
func (stubQueue) Drain() error      { return nil }
func (stubQueue) Close() error      { return nil }
func (stubQueue) IsConnected() bool { return true }

type stubGen struct{}

func (stubGen) Generate(_ context.Context, req provider.Request) (*provider.Result, error) {
	return &provider.Result{Text: "generated", TokensUsed: 10, CostUSD: 0.001}, nil
}

type stubRubric struct{}

func (stubRubric) Evaluate(_ string, _ int, _ string) quality.Result {
	return quality.Result{Score: 10, Passed: true}
}

type stubPublisher struct{}

func (stubPublisher) Publish(_ context.Context, _ *article.Article) (string, error) {
	return "post-1", nil
}

type fixture struct {
	store  *stubStore
	router chi.Router
}

func newFixture(healthErr error) *fixture {
	cfg := &config.Pipeline{
		Workers:          1,
		QualityThreshold: 7.0,
		MaxRefinements:   3,
		PhaseTimeout:     time.Second,
		RetryBackoff:     time.Millisecond,
		DefaultTier:      "balanced",
	}

	store := newStubStore()
	events := &stubEvents{}
	queue := stubQueue{}

	exec := service.NewExecutor(stubGen{}, stubRubric{}, cfg)
	hub := ws.NewHub()
	orch := service.NewOrchestrator(store, events, queue, hub, exec, stubPublisher{}, cfg, nil)
	articles := service.NewArticleService(store, events, queue, nil, cfg, time.Second, nil)

	h := NewHandlers(articles, orch, hub, func() error { return healthErr })
	r := chi.NewRouter()
	MountRoutes(r, h)
	return &fixture{store: store, router: r}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) seed(t *testing.T, status article.Status) string {
	t.Helper()
	a := &article.Article{
		Params:            article.Params{Topic: "seeded", TargetWordCount: 800},
		QualityPreference: "balanced",
		Status:            status,
		MaxRefinements:    3,
		QualityThreshold:  7.0,
	}
	if err := f.store.CreateArticle(context.Background(), a); err != nil {
		t.Fatalf("seed article: %v", err)
	}
	return a.ID
}

func TestCreateArticleEndpoint(t *testing.T) {
	f := newFixture(nil)

	rec := f.do(t, http.MethodPost, "/api/v1/articles", article.CreateRequest{
		Topic:           "kubernetes cost control",
		TargetWordCount: 1500,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var a article.Article
	if err := json.Unmarshal(rec.Body.Bytes(), &a); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if a.ID == "" || a.Status != article.StatusPending {
		t.Fatalf("unexpected article: %+v", a)
	}
}

func TestCreateArticleValidationError(t *testing.T) {
	f := newFixture(nil)

	rec := f.do(t, http.MethodPost, "/api/v1/articles", article.CreateRequest{
		TargetWordCount: 1500, // no topic
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "topic") {
		t.Fatalf("error body should name the bad field: %s", rec.Body.String())
	}
}

func TestCreateArticleMalformedJSON(t *testing.T) {
	f := newFixture(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/articles", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGetArticleNotFound(t *testing.T) {
	f := newFixture(nil)

	rec := f.do(t, http.MethodGet, "/api/v1/articles/nope", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestListArticlesEmptyIsArray(t *testing.T) {
	f := newFixture(nil)

	rec := f.do(t, http.MethodGet, "/api/v1/articles", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) == "null" {
		t.Fatal("empty list must serialize as [], not null")
	}
}

func TestTransitionEndpointApproves(t *testing.T) {
	f := newFixture(nil)
	id := f.seed(t, article.StatusAwaitingApproval)

	rec := f.do(t, http.MethodPost, "/api/v1/articles/"+id+"/transition", article.TransitionRequest{
		ExpectedStatus: article.StatusAwaitingApproval,
		TargetStatus:   article.StatusApproved,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var a article.Article
	if err := json.Unmarshal(rec.Body.Bytes(), &a); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if a.Status != article.StatusApproved {
		t.Fatalf("status = %s, want approved", a.Status)
	}
}

func TestTransitionEndpointConflict(t *testing.T) {
	f := newFixture(nil)
	id := f.seed(t, article.StatusDrafting)

	rec := f.do(t, http.MethodPost, "/api/v1/articles/"+id+"/transition", article.TransitionRequest{
		ExpectedStatus: article.StatusAwaitingApproval,
		TargetStatus:   article.StatusApproved,
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestCancelEndpointAcceptsEmptyBody(t *testing.T) {
	f := newFixture(nil)
	id := f.seed(t, article.StatusDrafting)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/articles/"+id+"/cancel", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCancelEndpointIllegalFromTerminal(t *testing.T) {
	f := newFixture(nil)
	id := f.seed(t, article.StatusPublished)

	rec := f.do(t, http.MethodPost, "/api/v1/articles/"+id+"/cancel", map[string]string{"reason": "x"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestHoldAndResumeEndpoints(t *testing.T) {
	f := newFixture(nil)
	id := f.seed(t, article.StatusResearching)
	// An article in researching always carries its executing phase; Resume
	// maps the recorded phase back to the paused status.
	f.store.mu.Lock()
	seeded := f.store.articles[id]
	seeded.CurrentPhase = article.PhaseResearch
	f.store.articles[id] = seeded
	f.store.mu.Unlock()

	rec := f.do(t, http.MethodPost, "/api/v1/articles/"+id+"/hold", map[string]string{"reason": "paused"})
	if rec.Code != http.StatusOK {
		t.Fatalf("hold: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = f.do(t, http.MethodPost, "/api/v1/articles/"+id+"/resume", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("resume: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var a article.Article
	if err := json.Unmarshal(rec.Body.Bytes(), &a); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if a.Status != article.StatusResearching {
		t.Fatalf("status = %s, want researching", a.Status)
	}
}

func TestEstimateEndpoint(t *testing.T) {
	f := newFixture(nil)

	rec := f.do(t, http.MethodPost, "/api/v1/estimate", article.CreateRequest{
		Topic:           "topic",
		TargetWordCount: 1000,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "total_usd") {
		t.Fatalf("expected a cost breakdown, got %s", rec.Body.String())
	}
}

func TestModelsEndpoint(t *testing.T) {
	f := newFixture(nil)

	rec := f.do(t, http.MethodGet, "/api/v1/models", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestCostsEndpointEmptyLedger(t *testing.T) {
	f := newFixture(nil)
	id := f.seed(t, article.StatusPending)

	rec := f.do(t, http.MethodGet, "/api/v1/articles/"+id+"/costs", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), `"entries":null`) {
		t.Fatal("empty ledger must serialize as [], not null")
	}
}

func TestHealthEndpoint(t *testing.T) {
	f := newFixture(nil)
	rec := f.do(t, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	broken := newFixture(errors.New("nats disconnected"))
	rec = broken.do(t, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}
