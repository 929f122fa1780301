package http

import (
	"net/http"

	"github.com/inkpress-ai/inkpress/internal/adapter/ws"
	"github.com/inkpress-ai/inkpress/internal/domain/article"
	"github.com/inkpress-ai/inkpress/internal/service"
)

// Handlers bundles the services the HTTP layer exposes.
type Handlers struct {
	articles     *service.ArticleService
	orchestrator *service.Orchestrator
	hub          *ws.Hub
	health       func() error
}

// NewHandlers creates the Handlers. health is invoked by the health
// endpoint to check downstream readiness; nil means always healthy.
func NewHandlers(articles *service.ArticleService, orchestrator *service.Orchestrator, hub *ws.Hub, health func() error) *Handlers {
	return &Handlers{
		articles:     articles,
		orchestrator: orchestrator,
		hub:          hub,
		health:       health,
	}
}

// CreateArticle handles POST /api/v1/articles.
func (h *Handlers) CreateArticle(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[article.CreateRequest](w, r)
	if !ok {
		return
	}

	a, err := h.articles.Create(r.Context(), req)
	if err != nil {
		writeDomainError(w, err, "article not found")
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// ListArticles handles GET /api/v1/articles.
func (h *Handlers) ListArticles(w http.ResponseWriter, r *http.Request) {
	articles, err := h.articles.List(r.Context())
	if err != nil {
		writeDomainError(w, err, "articles not found")
		return
	}
	if articles == nil {
		articles = []article.Article{}
	}
	writeJSON(w, http.StatusOK, articles)
}

// GetArticle handles GET /api/v1/articles/{id}.
func (h *Handlers) GetArticle(w http.ResponseWriter, r *http.Request) {
	a, err := h.articles.Get(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "article not found")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// TransitionArticle handles POST /api/v1/articles/{id}/transition: the
// approval workflow plus any other legal externally driven edge.
func (h *Handlers) TransitionArticle(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[article.TransitionRequest](w, r)
	if !ok {
		return
	}

	a, err := h.orchestrator.RequestTransition(r.Context(), urlParam(r, "id"), req)
	if err != nil {
		writeDomainError(w, err, "article not found")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

type reasonRequest struct {
	Reason string `json:"reason,omitempty"`
}

// CancelArticle handles POST /api/v1/articles/{id}/cancel.
func (h *Handlers) CancelArticle(w http.ResponseWriter, r *http.Request) {
	req := readOptionalJSON[reasonRequest](r)

	a, err := h.orchestrator.Cancel(r.Context(), urlParam(r, "id"), req.Reason)
	if err != nil {
		writeDomainError(w, err, "article not found")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// HoldArticle handles POST /api/v1/articles/{id}/hold.
func (h *Handlers) HoldArticle(w http.ResponseWriter, r *http.Request) {
	req := readOptionalJSON[reasonRequest](r)

	a, err := h.orchestrator.Hold(r.Context(), urlParam(r, "id"), req.Reason)
	if err != nil {
		writeDomainError(w, err, "article not found")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// ResumeArticle handles POST /api/v1/articles/{id}/resume.
func (h *Handlers) ResumeArticle(w http.ResponseWriter, r *http.Request) {
	a, err := h.orchestrator.Resume(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "article not found")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// ListArticleEvents handles GET /api/v1/articles/{id}/events.
func (h *Handlers) ListArticleEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.articles.Events(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "article not found")
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// Health handles GET /health.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health(); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "degraded",
				"error":  err.Error(),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
