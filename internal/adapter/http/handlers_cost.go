package http

import (
	"net/http"

	"github.com/inkpress-ai/inkpress/internal/domain/article"
)

// GetArticleCosts handles GET /api/v1/articles/{id}/costs.
func (h *Handlers) GetArticleCosts(w http.ResponseWriter, r *http.Request) {
	report, err := h.articles.Costs(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "article not found")
		return
	}
	if report.Entries == nil {
		report.Entries = []article.CostEntry{}
	}
	writeJSON(w, http.StatusOK, report)
}

// EstimateCost handles POST /api/v1/estimate: the dry-run cost estimate.
// Same validation as article creation, nothing persisted.
func (h *Handlers) EstimateCost(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[article.CreateRequest](w, r)
	if !ok {
		return
	}

	breakdown, err := h.articles.Estimate(r.Context(), req)
	if err != nil {
		writeDomainError(w, err, "estimate failed")
		return
	}
	writeJSON(w, http.StatusOK, breakdown)
}

// ListModels handles GET /api/v1/models: the static model registry with
// pricing, so clients can build override requests.
func (h *Handlers) ListModels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.articles.Models())
}
