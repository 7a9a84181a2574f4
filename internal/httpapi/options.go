package httpapi

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/statsmith/statsmith/internal/alert"
	"github.com/statsmith/statsmith/internal/stats"
)

// Option configures a Server.
type Option interface {
	apply(*options)
}

type options struct {
	gatherer prometheus.Gatherer
	notifier alert.Notifier
	stats    stats.Collector
	logger   *zap.Logger
}

func defaultOptions() options {
	return options{
		notifier: alert.Noop{},
		stats:    stats.NewNoop(),
		logger:   zap.NewNop(),
	}
}

type optionFunc func(*options)

func (f optionFunc) apply(o *options) { f(o) }

// WithGatherer serves the metrics of g on /metrics. Without it the route
// is not registered.
func WithGatherer(g prometheus.Gatherer) Option {
	return optionFunc(func(o *options) {
		o.gatherer = g
	})
}

// WithNotifier sets where panics and internal failures are reported.
func WithNotifier(n alert.Notifier) Option {
	return optionFunc(func(o *options) {
		o.notifier = n
	})
}

// WithStats sets the stats collector.
func WithStats(c stats.Collector) Option {
	return optionFunc(func(o *options) {
		o.stats = c
	})
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(o *options) {
		o.logger = l
	})
}
