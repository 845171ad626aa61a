package cache

import (
	"context"
	"slices"
	"sync"
	"time"

	"travel-planner-backend/internal/metrics"
	"travel-planner-backend/internal/store"

	"github.com/rs/zerolog/log"
)

// Source is a collection the cache reads through
type Source[T any] interface {
	Name() string
	Load(ctx context.Context) store.LoadResult[T]
}

// TTL memoizes a full collection load for a fixed duration.
//
// Get serves the cached records while now-lastLoadedAt < ttl and reloads
// from the source otherwise. A failed reload keeps serving the previous
// records and is retried on the next call.
type TTL[T any] struct {
	lastLoadedAt time.Time
	source       Source[T]
	now          func() time.Time
	data         []T
	ttl          time.Duration
	mu           sync.Mutex
	loaded       bool
}

// New creates a cache over source. A nil now uses time.Now.
func New[T any](source Source[T], ttl time.Duration, now func() time.Time) *TTL[T] {
	if now == nil {
		now = time.Now
	}
	return &TTL[T]{
		source: source,
		ttl:    ttl,
		now:    now,
	}
}

// ForCollection creates a cache over c that is invalidated by every write to c
func ForCollection[T store.Record[T]](c *store.Collection[T], ttl time.Duration, now func() time.Time) *TTL[T] {
	cache := New[T](c, ttl, now)
	c.OnWrite(cache.Invalidate)
	return cache
}

// Get returns the cached records, reloading them when stale.
// The returned slice is a copy.
func (c *TTL[T]) Get(ctx context.Context) []T {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if c.loaded && now.Sub(c.lastLoadedAt) < c.ttl {
		metrics.CacheLookups.WithLabelValues(c.source.Name(), "hit").Inc()
		return slices.Clone(c.data)
	}

	res := c.source.Load(ctx)
	if res.Status == store.LoadReadError {
		metrics.CacheLookups.WithLabelValues(c.source.Name(), "reload_error").Inc()
		log.Warn().
			Err(res.Err).
			Str("cache", c.source.Name()).
			Bool("serving_stale", c.loaded).
			Msg("Failed to reload cache")
		if c.loaded {
			return slices.Clone(c.data)
		}
		return res.Records
	}

	metrics.CacheLookups.WithLabelValues(c.source.Name(), "miss").Inc()
	log.Debug().
		Str("cache", c.source.Name()).
		Int("records", len(res.Records)).
		Msg("Cache reloaded")

	c.data = res.Records
	c.lastLoadedAt = now
	c.loaded = true
	return slices.Clone(c.data)
}

// Invalidate marks the cache stale so that the next Get reloads
func (c *TTL[T]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loaded = false
	c.data = nil
}

// Warm reloads the cache immediately
func (c *TTL[T]) Warm(ctx context.Context) {
	c.Invalidate()
	c.Get(ctx)
}
