// Package ristretto implements the cache port using dgraph-io/ristretto as
// an in-process L1 cache for article snapshots on the hot read paths.
package ristretto

import (
	"context"
	"log/slog"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// avgSnapshotBytes sizes the admission counters. Article snapshots are
// small JSON blobs; phase outputs dominate and rarely exceed a few KB.
const avgSnapshotBytes = 4096

// Cache wraps a ristretto cache holding marshaled article snapshots.
type Cache struct {
	c *ristretto.Cache[string, []byte]
}

// New creates a ristretto-backed snapshot cache. maxCostBytes is the
// maximum total size of cached values in bytes.
func New(maxCostBytes int64) (*Cache, error) {
	c, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		// ~10x the expected number of snapshots for admission tracking.
		NumCounters: maxCostBytes / avgSnapshotBytes * 10,
		MaxCost:     maxCostBytes,
		BufferItems: 64,
		Metrics:     true,
	})
	if err != nil {
		return nil, err
	}
	return &Cache{c: c}, nil
}

// Get retrieves a snapshot from the cache.
func (c *Cache) Get(_ context.Context, key string) (data []byte, ok bool, err error) {
	val, found := c.c.Get(key)
	if !found {
		return nil, false, nil
	}
	return val, true, nil
}

// Set stores a snapshot with the given TTL, costed by its encoded size.
func (c *Cache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.c.SetWithTTL(key, value, int64(len(value)), ttl)
	return nil
}

// Delete removes a snapshot from the cache.
func (c *Cache) Delete(_ context.Context, key string) error {
	c.c.Del(key)
	return nil
}

// Close logs the session hit ratio and releases cache resources.
func (c *Cache) Close() {
	m := c.c.Metrics
	slog.Info("snapshot cache closed",
		"hits", m.Hits(), "misses", m.Misses(), "ratio", m.Ratio())
	c.c.Close()
}
