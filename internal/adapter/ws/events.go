package ws

import (
	"context"
	"encoding/json"
	"log/slog"
)

// Event type constants for WebSocket messages.
const (
	EventArticleStatus = "article.status"
	EventArticlePhase  = "article.phase"
	EventArticleCost   = "article.cost"
)

// ArticleStatusEvent is broadcast when an article's status changes.
type ArticleStatusEvent struct {
	ArticleID       string  `json:"article_id"`
	Status          string  `json:"status"`
	Phase           string  `json:"phase,omitempty"`
	RefinementCount int     `json:"refinement_count"`
	QualityScore    float64 `json:"quality_score,omitempty"`
}

// ArticlePhaseEvent is broadcast when a phase completes.
type ArticlePhaseEvent struct {
	ArticleID string  `json:"article_id"`
	Phase     string  `json:"phase"`
	Model     string  `json:"model"`
	CostUSD   float64 `json:"cost_usd"`
	Words     int     `json:"words"`
}

// ArticleCostEvent is broadcast when a ledger entry is appended.
type ArticleCostEvent struct {
	ArticleID     string  `json:"article_id"`
	Phase         string  `json:"phase"`
	Model         string  `json:"model"`
	EstimatedCost float64 `json:"estimated_cost"`
	ActualCost    float64 `json:"actual_cost"`
	TotalActual   float64 `json:"total_actual"`
}

func (e ArticleStatusEvent) scope() string { return e.ArticleID }
func (e ArticlePhaseEvent) scope() string  { return e.ArticleID }
func (e ArticleCostEvent) scope() string   { return e.ArticleID }

// BroadcastEvent is a convenience method that marshals a typed event and broadcasts it.
func (h *Hub) BroadcastEvent(ctx context.Context, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal ws event payload", "type", eventType, "error", err)
		return
	}

	msg := Message{
		Type:    eventType,
		Payload: json.RawMessage(data),
	}
	if scoped, ok := payload.(interface{ scope() string }); ok {
		msg.ArticleID = scoped.scope()
	}
	h.Broadcast(ctx, msg)
}
