// Package cache provides an expiring, get-or-populate cache with per-key
// single-flight population.
//
// A Cache never stores a failed population, never returns an expired entry,
// and never holds a lock while a populate function runs: concurrent callers
// for the same key share one in-flight population, while callers for other
// keys proceed independently.
package cache

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/statsmith/statsmith/internal/apperr"
	"github.com/statsmith/statsmith/internal/stats"
)

// PopulateFunc produces a fresh value for a key on a cache miss.
type PopulateFunc[V any] func(ctx context.Context) (V, error)

// Normalizer maps a caller key to its canonical form. Keys that normalize to
// the same string share one entry.
type Normalizer func(key string) string

// FoldCase is the default Normalizer: trimmed and lower-cased.
func FoldCase(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// Cache is an expiring cache with a fixed TTL for all of its entries.
// A Cache is safe for concurrent use by multiple goroutines.
type Cache[V any] struct {
	name      string
	ttl       time.Duration
	backend   Backend[V]
	group     singleflight.Group
	normalize Normalizer
	cacheable func(V) bool
	now       func() time.Time
	collector stats.Collector
	logger    *zap.Logger

	// flights tracks running populations so Invalidate can mark them stale.
	mu      sync.Mutex
	flights map[string]*flight

	hits        atomic.Int64
	misses      atomic.Int64
	populations atomic.Int64
	failures    atomic.Int64
}

type flight struct {
	stale bool
}

// New creates a cache named name whose entries live for ttl.
func New[V any](name string, ttl time.Duration, backend Backend[V], opts ...Option) *Cache[V] {
	cfg := defaultOptions()
	for _, opt := range opts {
		opt.apply(&cfg)
	}
	return &Cache[V]{
		name:      name,
		ttl:       ttl,
		backend:   backend,
		normalize: cfg.normalize,
		now:       cfg.now,
		collector: cfg.collector,
		logger:    cfg.logger.With(zap.String("cache", name)),
		flights:   make(map[string]*flight),
	}
}

// WithCacheable installs a predicate deciding whether a successfully
// populated value may be stored. Values rejected by fn are returned to the
// caller but not cached, so the next Get populates again.
func (c *Cache[V]) WithCacheable(fn func(V) bool) *Cache[V] {
	c.cacheable = fn
	return c
}

// Name returns the cache name.
func (c *Cache[V]) Name() string {
	return c.name
}

// TTL returns the fixed time-to-live of this cache's entries.
func (c *Cache[V]) TTL() time.Duration {
	return c.ttl
}

// Get returns the live value for key, or invokes populate once to build it.
// Concurrent calls for the same normalized key share a single populate
// call and receive its result. Failures are returned and never stored.
func (c *Cache[V]) Get(ctx context.Context, key string, populate PopulateFunc[V]) (V, error) {
	var zero V

	k := c.normalize(key)
	if k == "" {
		return zero, apperr.Invalid("empty cache key")
	}

	if v, ok := c.lookup(ctx, k); ok {
		c.hits.Add(1)
		c.collector.IncCounter(c.metric(stats.MetricCacheHits), 1)
		return v, nil
	}
	c.misses.Add(1)
	c.collector.IncCounter(c.metric(stats.MetricCacheMisses), 1)

	res, err, shared := c.group.Do(k, func() (any, error) {
		// A flight that finished between lookup and Do may have stored it.
		if v, ok := c.lookup(ctx, k); ok {
			return v, nil
		}
		return c.populate(ctx, k, populate)
	})
	if shared {
		c.logger.Debug("shared in-flight population", zap.String("key", k))
	}
	if err != nil {
		return zero, err
	}
	v, _ := res.(V)
	return v, nil
}

// populate runs fn detached from the caller's cancellation, since other
// callers may be waiting on the same flight, and stores the result on
// success. A population invalidated while running is returned to its
// callers but not stored.
func (c *Cache[V]) populate(ctx context.Context, key string, fn PopulateFunc[V]) (V, error) {
	c.populations.Add(1)
	c.collector.IncCounter(c.metric(stats.MetricCachePopulations), 1)

	f := c.begin(key)
	v, err := fn(context.WithoutCancel(ctx))
	stale := c.end(key, f)
	if err != nil {
		c.failures.Add(1)
		c.collector.IncCounter(c.metric(stats.MetricCacheFailures), 1)
		c.logger.Debug("populate failed", zap.String("key", key), zap.Error(err))
		return v, err
	}

	if c.cacheable != nil && !c.cacheable(v) {
		c.logger.Debug("value not cacheable", zap.String("key", key))
		return v, nil
	}
	if stale {
		c.logger.Debug("population invalidated while running", zap.String("key", key))
		return v, nil
	}

	c.backend.Set(ctx, key, NewEntry(v, c.now(), c.ttl))
	c.collector.SetGauge(c.metric(stats.MetricCacheSize), int64(c.backend.Len()))
	return v, nil
}

func (c *Cache[V]) begin(key string) *flight {
	f := &flight{}
	c.mu.Lock()
	c.flights[key] = f
	c.mu.Unlock()
	return f
}

// end unregisters f and reports whether it was invalidated.
func (c *Cache[V]) end(key string, f *flight) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.flights[key] == f {
		delete(c.flights, key)
	}
	return f.stale
}

// lookup returns a live value for an already normalized key, evicting the
// entry if it has expired.
func (c *Cache[V]) lookup(ctx context.Context, key string) (V, bool) {
	var zero V
	entry, ok := c.backend.Get(ctx, key)
	if !ok {
		return zero, false
	}
	if entry.Expired(c.now()) {
		c.backend.Delete(ctx, key)
		c.collector.IncCounter(c.metric(stats.MetricCacheEvictions), 1)
		return zero, false
	}
	return entry.Value, true
}

// Peek returns the live value for key without populating.
func (c *Cache[V]) Peek(ctx context.Context, key string) (V, bool) {
	return c.lookup(ctx, c.normalize(key))
}

// Invalidate evicts the entry for key regardless of its age. A population
// already running for key is not stored; the next Get populates afresh.
func (c *Cache[V]) Invalidate(ctx context.Context, key string) {
	k := c.normalize(key)
	c.mu.Lock()
	if f, ok := c.flights[k]; ok {
		f.stale = true
	}
	c.mu.Unlock()
	c.backend.Delete(ctx, k)
	c.group.Forget(k)
	c.collector.IncCounter(c.metric(stats.MetricCacheEvictions), 1)
}

// Sweep removes every expired entry if the backend supports enumeration.
// It returns the number of entries removed.
func (c *Cache[V]) Sweep(ctx context.Context) int {
	sw, ok := c.backend.(Sweeper)
	if !ok {
		return 0
	}
	n := sw.Sweep(ctx, c.now())
	if n > 0 {
		c.collector.IncCounter(c.metric(stats.MetricCacheEvictions), int64(n))
		c.collector.SetGauge(c.metric(stats.MetricCacheSize), int64(c.backend.Len()))
	}
	return n
}

// Len returns the number of stored entries, including expired entries not
// yet evicted.
func (c *Cache[V]) Len() int {
	return c.backend.Len()
}

// Stats returns cache statistics.
func (c *Cache[V]) Stats() Stats {
	return Stats{
		Hits:        c.hits.Load(),
		Misses:      c.misses.Load(),
		Populations: c.populations.Load(),
		Failures:    c.failures.Load(),
		Size:        c.backend.Len(),
	}
}

func (c *Cache[V]) metric(name string) string {
	return stats.Prefixed(c.name, name)
}
