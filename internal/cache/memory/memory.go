// Package memory implements a bounded in-memory cache backend.
package memory

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/statsmith/statsmith/internal/cache"
)

// DefaultCapacity bounds a backend when no capacity is given.
const DefaultCapacity = 10000

// Backend is a thread-safe in-memory cache backend. When full, the least
// recently used entry is evicted to make room.
type Backend[V any] struct {
	lru *lru.Cache[string, cache.Entry[V]]
}

// Compile-time checks.
var (
	_ cache.Backend[int] = (*Backend[int])(nil)
	_ cache.Sweeper      = (*Backend[int])(nil)
)

// New creates a memory backend holding at most capacity entries.
func New[V any](capacity int) (*Backend[V], error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	c, err := lru.New[string, cache.Entry[V]](capacity)
	if err != nil {
		return nil, err
	}
	return &Backend[V]{lru: c}, nil
}

// Get retrieves an entry and marks it recently used.
func (b *Backend[V]) Get(_ context.Context, key string) (cache.Entry[V], bool) {
	return b.lru.Get(key)
}

// Set stores an entry.
func (b *Backend[V]) Set(_ context.Context, key string, entry cache.Entry[V]) {
	b.lru.Add(key, entry)
}

// Delete removes an entry.
func (b *Backend[V]) Delete(_ context.Context, key string) {
	b.lru.Remove(key)
}

// Len returns the number of entries.
func (b *Backend[V]) Len() int {
	return b.lru.Len()
}

// Sweep removes all entries expired at now.
func (b *Backend[V]) Sweep(_ context.Context, now time.Time) int {
	removed := 0
	for _, key := range b.lru.Keys() {
		if entry, ok := b.lru.Peek(key); ok && entry.Expired(now) {
			b.lru.Remove(key)
			removed++
		}
	}
	return removed
}
