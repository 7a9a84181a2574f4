package leaderboard_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/statsmith/statsmith/internal/apperr"
	"github.com/statsmith/statsmith/internal/leaderboard"
	"github.com/statsmith/statsmith/internal/leaderboard/memstore"
)

func row(uuid string, stats map[string]float64) leaderboard.Row {
	return leaderboard.Row{UUID: uuid, DisplayName: "player_" + uuid, Stats: stats}
}

func newStore(t *testing.T, opts ...leaderboard.Option) *leaderboard.Store {
	t.Helper()
	return leaderboard.New(memstore.New(), leaderboard.Default(), opts...)
}

func TestStore_Query_FiltersAbsentAndZero(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	s.InsertOrReplace(ctx, row("a", map[string]float64{"bedwars.wins": 10}))
	s.InsertOrReplace(ctx, row("b", map[string]float64{"bedwars.losses": 4}))
	s.InsertOrReplace(ctx, row("c", map[string]float64{"bedwars.wins": 25}))
	s.InsertOrReplace(ctx, row("d", map[string]float64{"bedwars.wins": 0}))

	page, err := s.Query(ctx, "bedwars_wins", 1)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if page.TotalCount != 2 {
		t.Fatalf("TotalCount = %d, want 2", page.TotalCount)
	}
	want := []struct {
		uuid  string
		rank  int
		value float64
	}{
		{"c", 1, 25},
		{"a", 2, 10},
	}
	for i, w := range want {
		e := page.Entries[i]
		if e.UUID != w.uuid || e.Rank != w.rank || e.Value != w.value {
			t.Errorf("Entries[%d] = %+v, want uuid=%s rank=%d value=%v", i, e, w.uuid, w.rank, w.value)
		}
	}
	if page.Entries[0].Percentile != 50 || page.Entries[1].Percentile != 0 {
		t.Errorf("percentiles = %v, %v, want 50, 0", page.Entries[0].Percentile, page.Entries[1].Percentile)
	}
}

func TestStore_Query_Ascending(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	s.InsertOrReplace(ctx, row("late", map[string]float64{"network.first_login": 3000}))
	s.InsertOrReplace(ctx, row("early", map[string]float64{"network.first_login": 1000}))
	s.InsertOrReplace(ctx, row("mid", map[string]float64{"network.first_login": 2000}))

	page, err := s.Query(ctx, "network_first_login", 1)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	got := []string{page.Entries[0].UUID, page.Entries[1].UUID, page.Entries[2].UUID}
	want := []string{"early", "mid", "late"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestStore_Query_PaginationDeterministic(t *testing.T) {
	s := newStore(t, leaderboard.WithPageSize(100))
	ctx := context.Background()

	// Values repeat every 10 rows so ties must be broken by uuid.
	for i := range 200 {
		uuid := fmt.Sprintf("%032x", i)
		s.InsertOrReplace(ctx, row(uuid, map[string]float64{"duels.wins": float64(1 + i%10)}))
	}

	first, err := s.Query(ctx, "duels_wins", 1)
	if err != nil {
		t.Fatalf("Query(page 1) error = %v", err)
	}
	second, err := s.Query(ctx, "duels_wins", 2)
	if err != nil {
		t.Fatalf("Query(page 2) error = %v", err)
	}
	again, _ := s.Query(ctx, "duels_wins", 1)

	if len(first.Entries) != 100 || len(second.Entries) != 100 {
		t.Fatalf("page sizes = %d, %d, want 100, 100", len(first.Entries), len(second.Entries))
	}

	seen := make(map[string]bool)
	for _, p := range []*leaderboard.Page{first, second} {
		for _, e := range p.Entries {
			if seen[e.UUID] {
				t.Fatalf("uuid %s appears on more than one page", e.UUID)
			}
			seen[e.UUID] = true
		}
	}
	if len(seen) != 200 {
		t.Errorf("distinct entries = %d, want 200", len(seen))
	}

	for i := range first.Entries {
		if first.Entries[i] != again.Entries[i] {
			t.Fatalf("Entries[%d] differs between identical queries: %+v vs %+v", i, first.Entries[i], again.Entries[i])
		}
	}

	for i, e := range first.Entries {
		if e.Rank != i+1 {
			t.Errorf("page 1 Entries[%d].Rank = %d, want %d", i, e.Rank, i+1)
		}
		if i > 0 {
			prev := first.Entries[i-1]
			if prev.Value == e.Value && prev.UUID >= e.UUID {
				t.Errorf("tie at value %v not ordered by uuid: %s before %s", e.Value, prev.UUID, e.UUID)
			}
		}
	}
	if second.Entries[0].Rank != 101 {
		t.Errorf("page 2 first rank = %d, want 101", second.Entries[0].Rank)
	}

	if first.Entries[0].Percentile != 99.5 {
		t.Errorf("rank 1 percentile = %v, want 99.5", first.Entries[0].Percentile)
	}
	if last := second.Entries[99]; last.Rank != 200 || last.Percentile != 0 {
		t.Errorf("last entry = rank %d percentile %v, want rank 200 percentile 0", last.Rank, last.Percentile)
	}

	beyond, err := s.Query(ctx, "duels_wins", 3)
	if err != nil {
		t.Fatalf("Query(page 3) error = %v", err)
	}
	if len(beyond.Entries) != 0 || beyond.TotalCount != 200 {
		t.Errorf("page 3 = %d entries, total %d, want 0 entries, total 200", len(beyond.Entries), beyond.TotalCount)
	}
}

func TestStore_Query_Errors(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		board   string
		page    int
		wantErr error
	}{
		{"unknown leaderboard", "bedwars_nope", 1, apperr.ErrNotFound},
		{"page zero", "bedwars_wins", 0, apperr.ErrInvalidArgument},
		{"negative page", "bedwars_wins", -3, apperr.ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Query(ctx, tt.board, tt.page)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Query() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestStore_InsertOrReplace_LastWriteWins(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	s.InsertOrReplace(ctx, row("a", map[string]float64{"skywars.wins": 5, "skywars.kills": 9}))
	if _, err := s.Query(ctx, "skywars_kills", 1); err != nil {
		t.Fatal(err)
	}
	s.InsertOrReplace(ctx, row("A", map[string]float64{"skywars.wins": 7}))

	wins, _ := s.Query(ctx, "skywars_wins", 1)
	if wins.TotalCount != 1 || wins.Entries[0].Value != 7 {
		t.Errorf("skywars_wins = %+v, want one entry with value 7", wins.Entries)
	}
	kills, _ := s.Query(ctx, "skywars_kills", 1)
	if kills.TotalCount != 0 {
		t.Errorf("skywars_kills TotalCount = %d, want 0 after replacement dropped the field", kills.TotalCount)
	}
}

func TestStore_InsertOrReplace_EmptyUUID(t *testing.T) {
	err := newStore(t).InsertOrReplace(context.Background(), row(" ", nil))
	if !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Errorf("InsertOrReplace() error = %v, want ErrInvalidArgument", err)
	}
}

func TestStore_InsertOrReplace_Concurrent(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 64 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.InsertOrReplace(ctx, row(fmt.Sprintf("p%02d", i), map[string]float64{"network.level": float64(i + 1)}))
		}()
	}
	wg.Wait()

	page, err := s.Query(ctx, "network_level", 1)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if page.TotalCount != 64 {
		t.Errorf("TotalCount = %d, want 64", page.TotalCount)
	}
}

func TestStore_Staleness(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	s := newStore(t, leaderboard.WithStaleness(time.Minute), leaderboard.WithClock(clock))
	ctx := context.Background()

	s.InsertOrReplace(ctx, row("a", map[string]float64{"duels.kills": 1}))
	s.Query(ctx, "duels_kills", 1)

	s.InsertOrReplace(ctx, row("b", map[string]float64{"duels.kills": 2}))
	page, _ := s.Query(ctx, "duels_kills", 1)
	if page.TotalCount != 1 {
		t.Errorf("TotalCount within staleness = %d, want 1", page.TotalCount)
	}

	now = now.Add(time.Minute)
	page, _ = s.Query(ctx, "duels_kills", 1)
	if page.TotalCount != 2 {
		t.Errorf("TotalCount after staleness = %d, want 2", page.TotalCount)
	}
}

// blockingRows blocks All until release is closed.
type blockingRows struct {
	*memstore.Store
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingRows) All(ctx context.Context) ([]leaderboard.Row, error) {
	b.once.Do(func() { close(b.entered) })
	<-b.release
	return b.Store.All(ctx)
}

func TestStore_Rebuild_NoOverlap(t *testing.T) {
	rows := &blockingRows{
		Store:   memstore.New(),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	s := leaderboard.New(rows, leaderboard.Default())
	ctx := context.Background()

	done := make(chan error)
	go func() {
		_, err := s.Rebuild(ctx)
		done <- err
	}()
	<-rows.entered

	if _, err := s.Rebuild(ctx); !errors.Is(err, leaderboard.ErrRebuildInProgress) {
		t.Errorf("overlapping Rebuild() error = %v, want ErrRebuildInProgress", err)
	}

	close(rows.release)
	if err := <-done; err != nil {
		t.Fatalf("first Rebuild() error = %v", err)
	}
	if _, err := s.Rebuild(ctx); err != nil {
		t.Errorf("Rebuild() after completion error = %v", err)
	}
}

func TestStore_QueryNotBlockedByRebuild(t *testing.T) {
	rows := &blockingRows{
		Store:   memstore.New(),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	rows.Store.Replace(context.Background(), row("a", map[string]float64{"bedwars.level": 100}))

	s := leaderboard.New(rows, leaderboard.Default())
	ctx := context.Background()

	// Prime a snapshot before the row store starts blocking.
	close(rows.release)
	if _, err := s.Rebuild(ctx); err != nil {
		t.Fatal(err)
	}
	rows.release = make(chan struct{})
	rows.entered = make(chan struct{})
	rows.once = sync.Once{}

	go s.Rebuild(ctx)
	<-rows.entered

	result := make(chan *leaderboard.Page, 1)
	go func() {
		page, _ := s.Query(ctx, "bedwars_level", 1)
		result <- page
	}()

	select {
	case page := <-result:
		if page.TotalCount != 1 {
			t.Errorf("TotalCount = %d, want 1", page.TotalCount)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Query() blocked behind a running rebuild")
	}
	close(rows.release)
}

// gatedRows blocks All while blocking is set, until release is closed.
type gatedRows struct {
	*memstore.Store
	blocking atomic.Bool
	entered  chan struct{}
	release  chan struct{}
}

func (g *gatedRows) All(ctx context.Context) ([]leaderboard.Row, error) {
	if g.blocking.Load() {
		g.entered <- struct{}{}
		<-g.release
	}
	return g.Store.All(ctx)
}

func TestStore_StaleQueryNotBlockedByRebuild(t *testing.T) {
	rows := &gatedRows{
		Store:   memstore.New(),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	s := leaderboard.New(rows, leaderboard.Default())
	ctx := context.Background()

	if err := s.InsertOrReplace(ctx, row("a", map[string]float64{"bedwars.level": 100})); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Rebuild(ctx); err != nil {
		t.Fatal(err)
	}

	rows.blocking.Store(true)
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Rebuild(ctx)
	}()
	<-rows.entered
	rows.blocking.Store(false)

	// The insert makes the snapshot stale while the rebuild is still running.
	if err := s.InsertOrReplace(ctx, row("b", map[string]float64{"bedwars.level": 50})); err != nil {
		t.Fatal(err)
	}

	result := make(chan *leaderboard.Page, 1)
	go func() {
		page, _ := s.Query(ctx, "bedwars_level", 1)
		result <- page
	}()
	select {
	case page := <-result:
		if page == nil || page.TotalCount != 1 {
			t.Errorf("Query() during rebuild = %+v, want the previous snapshot with 1 row", page)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("stale Query() waited for the running rebuild")
	}

	close(rows.release)
	<-done

	page, err := s.Query(ctx, "bedwars_level", 1)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if page.TotalCount != 2 {
		t.Errorf("TotalCount after rebuild = %d, want 2", page.TotalCount)
	}
}
