// Package messagequeue defines the message queue port (interface).
package messagequeue

import "context"

// Handler processes a message received from the queue.
type Handler func(ctx context.Context, subject string, data []byte) error

// Queue is the port interface for publishing and subscribing to messages.
type Queue interface {
	// Publish sends a message to the given subject.
	Publish(ctx context.Context, subject string, data []byte) error

	// Subscribe registers a handler for messages on the given subject with
	// work-queue semantics: each message is delivered to one subscriber
	// across all instances. The returned function cancels the subscription.
	Subscribe(ctx context.Context, subject string, handler Handler) (cancel func(), err error)

	// SubscribeBroadcast registers a handler that receives every message on
	// the subject in this instance, regardless of other subscribers.
	SubscribeBroadcast(ctx context.Context, subject string, handler Handler) (cancel func(), err error)

	// Drain gracefully drains all subscriptions before closing.
	Drain() error

	// Close shuts down the queue connection immediately.
	Close() error

	// IsConnected reports whether the queue is currently connected.
	IsConnected() bool
}

// Subject constants for NATS subjects used by InkPress.
const (
	// SubjectArticleReady carries article IDs that are ready for a worker to
	// pick up: freshly created, resumed from hold, or approved and awaiting
	// finalize + publish.
	SubjectArticleReady = "articles.ready"

	// SubjectArticleCancel fans out cancellation requests so the worker
	// currently driving the article can abort its in-flight phase.
	SubjectArticleCancel = "articles.cancel"
)

// ReadyPayload is the message body on SubjectArticleReady.
type ReadyPayload struct {
	ArticleID string `json:"article_id"`
}

// CancelPayload is the message body on SubjectArticleCancel.
type CancelPayload struct {
	ArticleID string `json:"article_id"`
	Reason    string `json:"reason,omitempty"`
}
