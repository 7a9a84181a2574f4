// Package memartifact provides an in-memory artifact store for tests and
// for deployments that do not publish snapshots.
package memartifact

import (
	"context"
	"strings"
	"sync"

	"github.com/statsmith/statsmith/internal/artifact"
)

// Compile-time check that Store implements artifact.Store.
var _ artifact.Store = (*Store)(nil)

// Store is an in-memory artifact store.
type Store struct {
	mu    sync.RWMutex
	items map[string][]byte
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{items: make(map[string][]byte)}
}

// Write stores a copy of data so caller mutations do not affect the store.
func (s *Store) Write(_ context.Context, name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := make([]byte, len(data))
	copy(copied, data)
	s.items[name] = copied
	return nil
}

// Read returns the stored data.
func (s *Store) Read(_ context.Context, name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.items[name]
	if !ok {
		return nil, artifact.ErrNotFound
	}
	return data, nil
}

// List returns the names starting with prefix.
func (s *Store) List(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var names []string
	for name := range s.items {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	return artifact.Sorted(names), nil
}

// Delete removes name.
func (s *Store) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, name)
	return nil
}

// Close is a no-op for the memory store.
func (s *Store) Close() error {
	return nil
}
