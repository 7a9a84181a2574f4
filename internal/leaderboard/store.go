// Package leaderboard ranks players on fixed leaderboard definitions.
//
// Rows live in a RowStore. Queries are answered from an immutable Snapshot
// that is rebuilt off to the side and swapped in atomically, so readers and
// writers never wait on a rebuild's sort.
package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/statsmith/statsmith/internal/apperr"
	"github.com/statsmith/statsmith/internal/stats"
)

// PageSize is the number of entries on a leaderboard page.
const PageSize = 100

// ErrRebuildInProgress is returned by Rebuild when another rebuild is
// still running.
var ErrRebuildInProgress = errors.New("leaderboard: rebuild in progress")

// Page is one page of a ranked leaderboard.
type Page struct {
	Leaderboard string      `json:"leaderboard"`
	Category    Category    `json:"category"`
	Page        int         `json:"page"`
	PageSize    int         `json:"pageSize"`
	TotalCount  int         `json:"totalCount"`
	Entries     []PageEntry `json:"entries"`
}

// PageEntry is one ranked player.
type PageEntry struct {
	UUID        string  `json:"uuid"`
	DisplayName string  `json:"displayName"`
	Rank        int     `json:"rank"`
	Percentile  float64 `json:"percentile"`
	Value       float64 `json:"value"`
}

// Store ranks the rows of a RowStore.
// A Store is safe for concurrent use by multiple goroutines.
type Store struct {
	rows     RowStore
	registry *Registry
	opts     options

	snapshot   atomic.Pointer[Snapshot]
	generation atomic.Uint64
	rebuildMu  sync.Mutex
}

// New creates a store over rows ranking the leaderboards of registry.
func New(rows RowStore, registry *Registry, opts ...Option) *Store {
	o := defaultOptions()
	for _, opt := range opts {
		opt.apply(&o)
	}
	o.logger = o.logger.Named("leaderboard")
	return &Store{rows: rows, registry: registry, opts: o}
}

// Registry returns the leaderboard definitions of the store.
func (s *Store) Registry() *Registry {
	return s.registry
}

// InsertOrReplace stores row in place of any previous row for row.UUID.
func (s *Store) InsertOrReplace(ctx context.Context, row Row) error {
	row.UUID = strings.ToLower(strings.TrimSpace(row.UUID))
	if row.UUID == "" {
		return apperr.Invalid("row without uuid")
	}
	if row.LastUpdated.IsZero() {
		row.LastUpdated = s.opts.now()
	}
	if err := s.rows.Replace(ctx, row.Clone()); err != nil {
		return fmt.Errorf("replacing row %s: %w", row.UUID, err)
	}
	s.generation.Add(1)
	return nil
}

// Query returns page of the leaderboard named name.
func (s *Store) Query(ctx context.Context, name string, page int) (*Page, error) {
	if page < 1 {
		return nil, apperr.Invalid("page must be at least 1, got %d", page)
	}
	def, ok := s.registry.Lookup(name)
	if !ok {
		return nil, apperr.NotFound("unknown leaderboard %q", name)
	}

	snap, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	s.opts.collector.IncCounter(stats.MetricLeaderboardQueries, 1)
	return snap.page(def, page, s.opts.pageSize), nil
}

// Rows returns the number of rows in the row store.
func (s *Store) Rows(ctx context.Context) (int, error) {
	return s.rows.Count(ctx)
}

// Snapshot returns the current snapshot, or nil before the first build.
func (s *Store) Snapshot() *Snapshot {
	return s.snapshot.Load()
}

// Rebuild reads every row and swaps in a fresh snapshot. It returns
// ErrRebuildInProgress instead of waiting if a rebuild is already running.
func (s *Store) Rebuild(ctx context.Context) (*Snapshot, error) {
	if !s.rebuildMu.TryLock() {
		return nil, ErrRebuildInProgress
	}
	defer s.rebuildMu.Unlock()
	return s.build(ctx)
}

// Close closes the row store.
func (s *Store) Close() error {
	return s.rows.Close()
}

// current returns the snapshot to answer a query from. A stale snapshot is
// refreshed only if no rebuild is running; otherwise it is served as is.
// Queries wait on a rebuild only before the first snapshot exists.
func (s *Store) current(ctx context.Context) (*Snapshot, error) {
	snap := s.snapshot.Load()
	if s.fresh(snap) {
		return snap, nil
	}

	if snap == nil {
		s.rebuildMu.Lock()
	} else if !s.rebuildMu.TryLock() {
		return snap, nil
	}
	defer s.rebuildMu.Unlock()

	if latest := s.snapshot.Load(); s.fresh(latest) {
		return latest, nil
	}
	next, err := s.build(ctx)
	if err != nil {
		if snap != nil {
			return snap, nil
		}
		return nil, err
	}
	return next, nil
}

func (s *Store) fresh(snap *Snapshot) bool {
	if snap == nil {
		return false
	}
	if snap.Generation >= s.generation.Load() {
		return true
	}
	return s.opts.staleness > 0 && s.opts.now().Sub(snap.BuiltAt) < s.opts.staleness
}

// build must be called with rebuildMu held.
func (s *Store) build(ctx context.Context) (*Snapshot, error) {
	start := time.Now()

	// Read the generation first: rows inserted while All runs bump it again,
	// so the next query still sees them.
	gen := s.generation.Load()
	rows, err := s.rows.All(ctx)
	if err != nil {
		s.opts.logger.Warn("rebuild failed", zap.Error(err))
		return nil, fmt.Errorf("loading rows: %w", err)
	}

	snap := newSnapshot(gen, s.opts.now(), rows, s.registry)
	s.snapshot.Store(snap)

	elapsed := time.Since(start)
	s.opts.collector.IncCounter(stats.MetricLeaderboardRebuilds, 1)
	s.opts.collector.SetGauge(stats.MetricLeaderboardRows, int64(len(rows)))
	s.opts.collector.ObserveHistogram(stats.MetricLeaderboardSeconds, elapsed.Seconds())
	s.opts.logger.Debug("snapshot rebuilt",
		zap.Uint64("generation", gen),
		zap.Int("rows", len(rows)),
		zap.Duration("elapsed", elapsed),
	)
	return snap, nil
}
