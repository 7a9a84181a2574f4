package leaderboard

import (
	"time"

	"go.uber.org/zap"

	"github.com/statsmith/statsmith/internal/stats"
)

// Option configures a Store.
type Option interface {
	apply(*options)
}

type options struct {
	pageSize  int
	staleness time.Duration
	now       func() time.Time
	collector stats.Collector
	logger    *zap.Logger
}

func defaultOptions() options {
	return options{
		pageSize:  PageSize,
		now:       time.Now,
		collector: stats.NewNoop(),
		logger:    zap.NewNop(),
	}
}

type optionFunc func(*options)

// Compile-time check that optionFunc implements Option.
var _ Option = optionFunc(nil)

func (f optionFunc) apply(o *options) { f(o) }

// WithPageSize overrides PageSize. Intended for tests.
func WithPageSize(n int) Option {
	return optionFunc(func(o *options) {
		if n > 0 {
			o.pageSize = n
		}
	})
}

// WithStaleness lets queries use a snapshot that misses recent inserts as
// long as it is younger than d. Default is 0: every query sees every
// completed insert.
func WithStaleness(d time.Duration) Option {
	return optionFunc(func(o *options) {
		o.staleness = d
	})
}

// WithClock sets the time source for row and snapshot timestamps.
func WithClock(now func() time.Time) Option {
	return optionFunc(func(o *options) {
		o.now = now
	})
}

// WithStats sets the stats collector.
func WithStats(c stats.Collector) Option {
	return optionFunc(func(o *options) {
		o.collector = c
	})
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(o *options) {
		o.logger = l
	})
}
