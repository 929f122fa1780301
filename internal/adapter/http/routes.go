package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Get("/health", h.Health)
	r.Get("/ws", h.hub.HandleWS)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"version":"0.1.0"}`))
		})

		// Articles
		r.Post("/articles", h.CreateArticle)
		r.Get("/articles", h.ListArticles)
		r.Get("/articles/{id}", h.GetArticle)
		r.Get("/articles/{id}/costs", h.GetArticleCosts)
		r.Get("/articles/{id}/events", h.ListArticleEvents)

		// Lifecycle
		r.Post("/articles/{id}/transition", h.TransitionArticle)
		r.Post("/articles/{id}/cancel", h.CancelArticle)
		r.Post("/articles/{id}/hold", h.HoldArticle)
		r.Post("/articles/{id}/resume", h.ResumeArticle)

		// Cost and model tooling
		r.Post("/estimate", h.EstimateCost)
		r.Get("/models", h.ListModels)
	})
}
