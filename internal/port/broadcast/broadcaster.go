// Package broadcast defines the port for pushing article lifecycle events
// to connected dashboard clients.
package broadcast

import "context"

// Broadcaster fans an event out to every connected client whose
// subscription matches it. Implementations must not block the caller;
// the orchestrator publishes from worker goroutines.
type Broadcaster interface {
	BroadcastEvent(ctx context.Context, eventType string, payload any)
}
