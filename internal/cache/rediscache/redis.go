// Package rediscache implements a Redis cache backend so several service
// replicas can share one set of cached upstream responses.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/statsmith/statsmith/internal/cache"
)

// Backend stores JSON-encoded entries in Redis under a key prefix. Redis
// expiry is set to the entry TTL so stale keys do not accumulate; expiry of
// served values is still decided by the cache.
type Backend[V any] struct {
	client *redis.Client
	prefix string
	logger *zap.Logger

	// size tracks entries written by this process; Redis is shared, so an
	// exact count would need a SCAN.
	size atomic.Int64
}

// Compile-time check that Backend implements cache.Backend.
var _ cache.Backend[int] = (*Backend[int])(nil)

// New creates a Redis backend. prefix namespaces the keys, e.g. "player".
func New[V any](client *redis.Client, prefix string, logger *zap.Logger) *Backend[V] {
	if logger == nil {
		logger = zap.NewNop()
	}
	prefix = strings.TrimSuffix(prefix, ":")
	if prefix != "" {
		prefix += ":"
	}
	return &Backend[V]{client: client, prefix: "statsmith:" + prefix, logger: logger}
}

// Get retrieves an entry. Redis errors are logged and treated as a miss.
func (b *Backend[V]) Get(ctx context.Context, key string) (cache.Entry[V], bool) {
	var entry cache.Entry[V]
	data, err := b.client.Get(ctx, b.key(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			b.logger.Warn("redis get failed", zap.String("key", key), zap.Error(err))
		}
		return entry, false
	}
	if err := json.Unmarshal(data, &entry); err != nil {
		b.logger.Warn("discarding undecodable cache entry", zap.String("key", key), zap.Error(err))
		return entry, false
	}
	return entry, true
}

// Set stores an entry with a Redis expiry matching its TTL. Only keys that
// did not exist before count towards Len.
func (b *Backend[V]) Set(ctx context.Context, key string, entry cache.Entry[V]) {
	data, err := json.Marshal(entry)
	if err != nil {
		b.logger.Warn("encoding cache entry", zap.String("key", key), zap.Error(err))
		return
	}
	ttl := time.Until(entry.ExpiresAt())
	if ttl <= 0 {
		return
	}
	var exists *redis.IntCmd
	_, err = b.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		exists = pipe.Exists(ctx, b.key(key))
		pipe.Set(ctx, b.key(key), data, ttl)
		return nil
	})
	if err != nil {
		b.logger.Warn("redis set failed", zap.String("key", key), zap.Error(err))
		return
	}
	if exists.Val() == 0 {
		b.size.Add(1)
	}
}

// Delete removes an entry.
func (b *Backend[V]) Delete(ctx context.Context, key string) {
	n, err := b.client.Del(ctx, b.key(key)).Result()
	if err != nil {
		b.logger.Warn("redis del failed", zap.String("key", key), zap.Error(err))
		return
	}
	b.size.Add(-n)
}

// Len returns an approximate count of entries written by this process.
func (b *Backend[V]) Len() int {
	n := b.size.Load()
	if n < 0 {
		return 0
	}
	return int(n)
}

// key returns the full Redis key for a cache key.
func (b *Backend[V]) key(key string) string {
	return b.prefix + key
}
