// Package eventstore defines the port interface for the append-only audit
// event store.
package eventstore

import (
	"context"

	"github.com/inkpress-ai/inkpress/internal/domain/event"
)

// Store is the port interface for appending and loading article events.
type Store interface {
	// Append persists a new event to the store.
	Append(ctx context.Context, ev *event.ArticleEvent) error

	// LoadByArticle returns all events for the given article, ordered by
	// version.
	LoadByArticle(ctx context.Context, articleID string) ([]event.ArticleEvent, error)
}
