package leaderboard

import (
	"cmp"
	"slices"
	"sync"
	"time"
)

// Snapshot is an immutable view of every row at one row-store generation.
// Rankings are computed lazily, once per leaderboard.
type Snapshot struct {
	// Generation is the row-store generation the rows were read at.
	Generation uint64

	// BuiltAt is when the snapshot was taken.
	BuiltAt time.Time

	rows     []Row
	rankings map[string]*ranking
}

// ranking is the sorted, filtered order of one leaderboard.
type ranking struct {
	once    sync.Once
	entries []scored
}

type scored struct {
	row   int
	value float64
}

func newSnapshot(gen uint64, builtAt time.Time, rows []Row, registry *Registry) *Snapshot {
	s := &Snapshot{
		Generation: gen,
		BuiltAt:    builtAt,
		rows:       rows,
		rankings:   make(map[string]*ranking, registry.Len()),
	}
	for _, name := range registry.Names() {
		s.rankings[name] = &ranking{}
	}
	return s
}

// Rows returns the rows of the snapshot. Callers must not modify them.
func (s *Snapshot) Rows() []Row {
	return s.rows
}

// Len returns the number of rows.
func (s *Snapshot) Len() int {
	return len(s.rows)
}

// rank returns the ranking of def, computing it on first use.
func (s *Snapshot) rank(def Definition) []scored {
	r := s.rankings[def.Name]
	r.once.Do(func() {
		r.entries = s.score(def)
	})
	return r.entries
}

// score drops rows without a non-zero value and sorts the rest in the
// definition's direction with ties broken by uuid ascending.
func (s *Snapshot) score(def Definition) []scored {
	entries := make([]scored, 0, len(s.rows))
	for i, row := range s.rows {
		v, ok := def.Extract(row)
		if !ok || v == 0 {
			continue
		}
		entries = append(entries, scored{row: i, value: v})
	}

	slices.SortFunc(entries, func(a, b scored) int {
		c := cmp.Compare(a.value, b.value)
		if def.Direction == Descending {
			c = -c
		}
		if c != 0 {
			return c
		}
		return cmp.Compare(s.rows[a.row].UUID, s.rows[b.row].UUID)
	})
	return entries
}

// page slices one page out of the ranking of def.
func (s *Snapshot) page(def Definition, page, size int) *Page {
	ranked := s.rank(def)
	total := len(ranked)

	p := &Page{
		Leaderboard: def.Name,
		Category:    def.Category,
		Page:        page,
		PageSize:    size,
		TotalCount:  total,
		Entries:     []PageEntry{},
	}

	start := (page - 1) * size
	if start >= total {
		return p
	}
	end := min(start+size, total)

	p.Entries = make([]PageEntry, 0, end-start)
	for i, e := range ranked[start:end] {
		row := s.rows[e.row]
		rank := start + i + 1
		p.Entries = append(p.Entries, PageEntry{
			UUID:        row.UUID,
			DisplayName: row.DisplayName,
			Rank:        rank,
			Percentile:  Percentile(rank, total),
			Value:       e.value,
		})
	}
	return p
}

// Percentile returns the share of ranked players below rank, in percent.
func Percentile(rank, total int) float64 {
	if total == 0 {
		return 0
	}
	return 100 - float64(rank)/float64(total)*100
}
