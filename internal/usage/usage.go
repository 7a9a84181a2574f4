// Package usage counts requests per endpoint kind and summarizes them once
// a day.
package usage

import (
	"slices"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/statsmith/statsmith/internal/stats"
)

// Kind identifies the endpoint a request was made to.
type Kind string

// Request kinds.
const (
	KindStats       Kind = "stats"
	KindGuild       Kind = "guild"
	KindSkyBlock    Kind = "skyblock"
	KindCard        Kind = "card"
	KindLeaderboard Kind = "leaderboard"
)

// Record is one registered request.
type Record struct {
	Kind     Kind
	Identity string
	At       time.Time
}

// Summary describes the requests registered between two flushes.
type Summary struct {
	From  time.Time    `json:"from"`
	To    time.Time    `json:"to"`
	Total int          `json:"total"`
	Kinds map[Kind]int `json:"kinds"`

	// Hourly counts requests by local hour of day.
	Hourly [24]int `json:"hourly"`

	// Unique counts distinct identities per kind.
	Unique map[Kind]int `json:"unique"`

	// HourlyMean and HourlyStdDev describe the spread of Hourly.
	HourlyMean   float64 `json:"hourlyMean"`
	HourlyStdDev float64 `json:"hourlyStdDev"`

	// Busiest is the hour with the most requests.
	Busiest int `json:"busiest"`
}

// Aggregator is an append-only log of requests.
// An Aggregator is safe for concurrent use by multiple goroutines.
type Aggregator struct {
	mu        sync.Mutex
	records   []Record
	since     time.Time
	now       func() time.Time
	collector stats.Collector
}

// New creates an empty aggregator. collector may be nil.
func New(collector stats.Collector, now func() time.Time) *Aggregator {
	if collector == nil {
		collector = stats.NewNoop()
	}
	if now == nil {
		now = time.Now
	}
	return &Aggregator{now: now, since: now(), collector: collector}
}

// Register appends a request of kind for identity.
func (a *Aggregator) Register(kind Kind, identity string) {
	rec := Record{Kind: kind, Identity: identity, At: a.now()}
	a.mu.Lock()
	a.records = append(a.records, rec)
	a.mu.Unlock()
	a.collector.IncCounter(stats.Prefixed(string(kind), stats.MetricRequests), 1)
}

// Len returns the number of records registered since the last flush.
func (a *Aggregator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.records)
}

// Flush swaps the log for an empty one and summarizes the swapped-out
// records. Registrations that race with Flush land either in this summary
// or in the next, never in both.
func (a *Aggregator) Flush() Summary {
	now := a.now()

	a.mu.Lock()
	records := a.records
	since := a.since
	a.records = nil
	a.since = now
	a.mu.Unlock()

	return Summarize(records, since, now)
}

// Summarize computes the summary of records taken between from and to.
func Summarize(records []Record, from, to time.Time) Summary {
	s := Summary{
		From:   from,
		To:     to,
		Total:  len(records),
		Kinds:  make(map[Kind]int),
		Unique: make(map[Kind]int),
	}

	seen := make(map[Kind]map[string]struct{})
	for _, r := range records {
		s.Kinds[r.Kind]++
		s.Hourly[r.At.Local().Hour()]++
		if seen[r.Kind] == nil {
			seen[r.Kind] = make(map[string]struct{})
		}
		seen[r.Kind][r.Identity] = struct{}{}
	}
	for kind, ids := range seen {
		s.Unique[kind] = len(ids)
	}

	hourly := make([]float64, len(s.Hourly))
	for i, n := range s.Hourly {
		hourly[i] = float64(n)
	}
	s.HourlyMean, s.HourlyStdDev = stat.MeanStdDev(hourly, nil)
	s.Busiest = slices.Index(s.Hourly[:], slices.Max(s.Hourly[:]))
	return s
}
