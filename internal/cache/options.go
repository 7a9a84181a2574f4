package cache

import (
	"time"

	"go.uber.org/zap"

	"github.com/statsmith/statsmith/internal/stats"
)

// Option configures a Cache.
type Option interface {
	apply(*options)
}

type options struct {
	normalize Normalizer
	now       func() time.Time
	collector stats.Collector
	logger    *zap.Logger
}

func defaultOptions() options {
	return options{
		normalize: FoldCase,
		now:       time.Now,
		collector: stats.NewNoop(),
		logger:    zap.NewNop(),
	}
}

type optionFunc func(*options)

// Compile-time check that optionFunc implements Option.
var _ Option = optionFunc(nil)

func (f optionFunc) apply(o *options) { f(o) }

// WithNormalizer sets the key normalizer. Default is FoldCase.
func WithNormalizer(n Normalizer) Option {
	return optionFunc(func(o *options) {
		o.normalize = n
	})
}

// WithClock sets the time source used for entry creation and expiry.
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
