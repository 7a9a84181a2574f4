package cache

import (
	"context"
	"time"
)

// Backend defines the interface for cache storage backends.
// Implementations handle storage (memory, redis) and any capacity bound;
// expiry decisions are made by Cache.
type Backend[V any] interface {
	// Get retrieves an entry. Returns false if not present.
	Get(ctx context.Context, key string) (Entry[V], bool)

	// Set stores an entry, replacing any previous entry for key.
	Set(ctx context.Context, key string, entry Entry[V])

	// Delete removes the entry for key, if any.
	Delete(ctx context.Context, key string)

	// Len returns the number of stored entries.
	Len() int
}

// Sweeper is implemented by backends that can enumerate their entries and
// drop every entry expired at now. It returns the number removed.
type Sweeper interface {
	Sweep(ctx context.Context, now time.Time) int
}

// Stats contains cache statistics.
type Stats struct {
	Hits        int64
	Misses      int64
	Populations int64
	Failures    int64
	Size        int
}

// HitRate returns the cache hit rate as a percentage.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}
