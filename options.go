package statsmith

import (
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/statsmith/statsmith/internal/alert"
	"github.com/statsmith/statsmith/internal/cache"
	"github.com/statsmith/statsmith/internal/cache/memory"
	"github.com/statsmith/statsmith/internal/cache/rediscache"
	"github.com/statsmith/statsmith/internal/card"
	"github.com/statsmith/statsmith/internal/leaderboard"
	"github.com/statsmith/statsmith/internal/leaderboard/memstore"
	"github.com/statsmith/statsmith/internal/stats"
	"github.com/statsmith/statsmith/internal/upstream"
)

// TTLs sets how long each kind of response stays cached.
type TTLs struct {
	Player   time.Duration
	Card     time.Duration
	Guild    time.Duration
	SkyBlock time.Duration
	Name     time.Duration
}

// DefaultTTLs returns the default cache lifetimes.
func DefaultTTLs() TTLs {
	return TTLs{
		Player:   5 * time.Minute,
		Card:     15 * time.Minute,
		Guild:    60 * time.Minute,
		SkyBlock: 5 * time.Minute,
		Name:     60 * time.Minute,
	}
}

// Option configures a Service.
type Option interface {
	apply(*options)
}

// options holds the service configuration.
type options struct {
	source    Source
	resolver  upstream.Resolver
	rows      leaderboard.RowStore
	registry  *leaderboard.Registry
	publisher *leaderboard.Publisher
	staleness time.Duration
	renderer  *card.Renderer
	notifier  alert.Notifier
	redis     *redis.Client
	capacity  int
	ttls      TTLs
	now       func() time.Time
	stats     stats.Collector
	logger    *zap.Logger
}

// defaultOptions returns the default configuration.
func defaultOptions() options {
	return options{
		rows:     memstore.New(),
		registry: leaderboard.Default(),
		renderer: card.NewRenderer(nil),
		notifier: alert.Noop{},
		capacity: memory.DefaultCapacity,
		ttls:     DefaultTTLs(),
		now:      time.Now,
		stats:    stats.NewNoop(),
		logger:   zap.NewNop(),
	}
}

// optionFunc wraps a function to implement Option.
type optionFunc func(*options)

// Compile-time check that optionFunc implements Option.
var _ Option = optionFunc(nil)

func (f optionFunc) apply(o *options) { f(o) }

// WithSource sets the Hypixel data source. Required.
func WithSource(src Source) Option {
	return optionFunc(func(o *options) {
		o.source = src
	})
}

// WithResolver sets the name to uuid resolver. Required.
func WithResolver(r upstream.Resolver) Option {
	return optionFunc(func(o *options) {
		o.resolver = r
	})
}

// WithRowStore sets the leaderboard row store.
// If not set, rows are kept in memory.
func WithRowStore(rs leaderboard.RowStore) Option {
	return optionFunc(func(o *options) {
		o.rows = rs
	})
}

// WithRegistry sets the leaderboard definitions.
// If not set, leaderboard.Default is used.
func WithRegistry(r *leaderboard.Registry) Option {
	return optionFunc(func(o *options) {
		o.registry = r
	})
}

// WithPublisher publishes leaderboard snapshots after each rebuild and
// restores rows from them at startup.
func WithPublisher(p *leaderboard.Publisher) Option {
	return optionFunc(func(o *options) {
		o.publisher = p
	})
}

// WithStaleness lets leaderboard queries reuse a snapshot that misses
// recent lookups for up to d.
func WithStaleness(d time.Duration) Option {
	return optionFunc(func(o *options) {
		o.staleness = d
	})
}

// WithRenderer sets the card renderer.
func WithRenderer(r *card.Renderer) Option {
	return optionFunc(func(o *options) {
		o.renderer = r
	})
}

// WithNotifier sets where alerts and usage summaries are sent.
func WithNotifier(n alert.Notifier) Option {
	return optionFunc(func(o *options) {
		o.notifier = n
	})
}

// WithRedis stores cache entries in Redis instead of process memory, so
// replicas share them.
func WithRedis(client *redis.Client) Option {
	return optionFunc(func(o *options) {
		o.redis = client
	})
}

// WithCacheCapacity sets the entry limit of each in-memory cache.
func WithCacheCapacity(n int) Option {
	return optionFunc(func(o *options) {
		o.capacity = n
	})
}

// WithTTLs sets the cache lifetimes.
func WithTTLs(t TTLs) Option {
	return optionFunc(func(o *options) {
		o.ttls = t
	})
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return optionFunc(func(o *options) {
		o.now = now
	})
}

// WithStats sets the stats collector.
// If not set, a no-op collector is used.
func WithStats(c stats.Collector) Option {
	return optionFunc(func(o *options) {
		o.stats = c
	})
}

// WithLogger sets the logger.
// If not set, a no-op logger is used.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(o *options) {
		o.logger = l
	})
}

// newCache builds a cache on the configured backend.
func newCache[V any](o options, name string, ttl time.Duration, extra ...cache.Option) (*cache.Cache[V], error) {
	var backend cache.Backend[V]
	if o.redis != nil {
		backend = rediscache.New[V](o.redis, name, o.logger)
	} else {
		b, err := memory.New[V](o.capacity)
		if err != nil {
			return nil, fmt.Errorf("creating %s cache: %w", name, err)
		}
		backend = b
	}
	opts := append([]cache.Option{
		cache.WithClock(o.now),
		cache.WithStats(o.stats),
		cache.WithLogger(o.logger),
	}, extra...)
	return cache.New(name, ttl, backend, opts...), nil
}
