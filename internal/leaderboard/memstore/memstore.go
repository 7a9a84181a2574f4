// Package memstore provides an in-memory leaderboard row store.
package memstore

import (
	"context"
	"sync"

	"github.com/statsmith/statsmith/internal/leaderboard"
)

// Compile-time check that Store implements leaderboard.RowStore.
var _ leaderboard.RowStore = (*Store)(nil)

// Store keeps rows in a map keyed by uuid.
type Store struct {
	mu   sync.RWMutex
	rows map[string]leaderboard.Row
}

// New creates an empty store.
func New() *Store {
	return &Store{rows: make(map[string]leaderboard.Row)}
}

// Replace stores a copy of row.
func (s *Store) Replace(_ context.Context, row leaderboard.Row) error {
	row = row.Clone()
	s.mu.Lock()
	s.rows[row.UUID] = row
	s.mu.Unlock()
	return nil
}

// All returns copies of every row.
func (s *Store) All(_ context.Context) ([]leaderboard.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := make([]leaderboard.Row, 0, len(s.rows))
	for _, row := range s.rows {
		rows = append(rows, row.Clone())
	}
	return rows, nil
}

// Count returns the number of rows.
func (s *Store) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows), nil
}

// Close is a no-op for the memory store.
func (s *Store) Close() error {
	return nil
}
