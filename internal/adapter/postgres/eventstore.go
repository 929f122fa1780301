package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inkpress-ai/inkpress/internal/domain/event"
)

// EventStore implements eventstore.Store using PostgreSQL (append-only).
type EventStore struct {
	pool *pgxpool.Pool
}

// NewEventStore creates a new EventStore backed by the given connection pool.
func NewEventStore(pool *pgxpool.Pool) *EventStore {
	return &EventStore{pool: pool}
}

// Append inserts a new event into the article_events table. The per-article
// version is assigned in the insert so trails stay gapless under concurrent
// writers.
func (s *EventStore) Append(ctx context.Context, ev *event.ArticleEvent) error {
	payload := ev.Payload
	if len(payload) == 0 {
		payload = []byte(`{}`)
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO article_events (article_id, event_type, payload, request_id, version)
		 VALUES ($1, $2, $3, $4,
		         (SELECT COALESCE(MAX(version), 0) + 1 FROM article_events WHERE article_id = $1))
		 RETURNING id, version, created_at`,
		ev.ArticleID, string(ev.Type), payload, ev.RequestID).
		Scan(&ev.ID, &ev.Version, &ev.CreatedAt)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// eventColumns is the SELECT column list for article_events queries.
const eventColumns = `id, article_id, event_type, payload, request_id, version, created_at`

func scanEvent(scanner scannable, ev *event.ArticleEvent) error {
	return scanner.Scan(
		&ev.ID, &ev.ArticleID, &ev.Type, &ev.Payload, &ev.RequestID, &ev.Version, &ev.CreatedAt,
	)
}

// LoadByArticle returns all events for the given article, ordered by version ascending.
func (s *EventStore) LoadByArticle(ctx context.Context, articleID string) ([]event.ArticleEvent, error) {
	rows, err := s.pool.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM article_events WHERE article_id = $1 ORDER BY version ASC`, eventColumns), articleID)
	if err != nil {
		return nil, fmt.Errorf("load events by article %s: %w", articleID, err)
	}
	defer rows.Close()

	var events []event.ArticleEvent
	for rows.Next() {
		var ev event.ArticleEvent
		if err := scanEvent(rows, &ev); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
