package cache

import "time"

// Entry is a cached value together with the time it was stored and the TTL
// of the cache that stored it. Entries are never mutated; a stale entry is
// replaced by a new one.
type Entry[V any] struct {
	Value     V             `json:"value"`
	CreatedAt time.Time     `json:"created_at"`
	TTL       time.Duration `json:"ttl"`
}

// NewEntry returns an entry created at now.
func NewEntry[V any](value V, now time.Time, ttl time.Duration) Entry[V] {
	return Entry[V]{Value: value, CreatedAt: now, TTL: ttl}
}

// Expired reports whether now >= CreatedAt + TTL.
func (e Entry[V]) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt())
}

// ExpiresAt returns the instant the entry stops being served.
func (e Entry[V]) ExpiresAt() time.Time {
	return e.CreatedAt.Add(e.TTL)
}
