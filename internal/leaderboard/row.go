package leaderboard

import (
	"context"
	"maps"
	"time"
)

// Row is the stored statistics of one player. A Row is replaced wholesale on
// every successful lookup and never patched, so fields that disappear
// upstream disappear here too.
type Row struct {
	UUID        string             `json:"uuid" bson:"_id"`
	DisplayName string             `json:"displayName" bson:"displayName"`
	LastUpdated time.Time          `json:"lastUpdated" bson:"lastUpdated"`
	Stats       map[string]float64 `json:"stats" bson:"stats"`
}

// Clone returns a copy of r that shares no memory with it.
func (r Row) Clone() Row {
	r.Stats = maps.Clone(r.Stats)
	return r
}

// RowStore is the authoritative store of player rows.
type RowStore interface {
	// Replace removes any row with row.UUID and stores row in its place.
	// Calls for different UUIDs must be safe to run concurrently.
	Replace(ctx context.Context, row Row) error

	// All returns every stored row.
	All(ctx context.Context) ([]Row, error)

	// Count returns the number of stored rows.
	Count(ctx context.Context) (int, error)

	// Close releases any resources held by the store.
	Close() error
}
