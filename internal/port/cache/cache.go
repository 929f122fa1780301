// Package cache defines the port for the article snapshot cache.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key-value store with per-entry TTLs. Lookups
// report a miss rather than an error when the key is absent, so callers
// can fall through to the database without branching on error values.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
