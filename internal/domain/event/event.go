// Package event defines the ArticleEvent domain entity for the append-only
// transition audit trail.
package event

import (
	"encoding/json"
	"time"
)

// Type identifies the kind of article event.
type Type string

const (
	TypeArticleCreated    Type = "article.created"
	TypeStatusChanged     Type = "article.status_changed"
	TypePhaseCompleted    Type = "article.phase_completed"
	TypeCostRecorded      Type = "article.cost_recorded"
	TypeApprovalRequested Type = "article.approval_requested"
	TypeApprovalResolved  Type = "article.approval_resolved"
	TypeArticlePublished  Type = "article.published"
	TypeArticleFailed     Type = "article.failed"
)

// ArticleEvent is a single immutable entry in an article's audit trail.
// Events are never updated or deleted; terminal articles keep their full
// trail.
type ArticleEvent struct {
	ID        string          `json:"id"`
	ArticleID string          `json:"article_id"`
	Type      Type            `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	RequestID string          `json:"request_id,omitempty"`
	Version   int             `json:"version"`
	CreatedAt time.Time       `json:"created_at"`
}

// StatusChange is the payload of a status_changed event.
type StatusChange struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Phase  string `json:"phase,omitempty"`
	Reason string `json:"reason,omitempty"`
}
