package upstream

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/statsmith/statsmith/internal/stats"
)

// Option configures a Client.
type Option interface {
	apply(*options)
}

type options struct {
	http      *http.Client
	timeout   time.Duration
	headers   http.Header
	collector stats.Collector
	logger    *zap.Logger
}

func defaultOptions() options {
	return options{
		http:      http.DefaultClient,
		timeout:   DefaultTimeout,
		headers:   make(http.Header),
		collector: stats.NewNoop(),
		logger:    zap.NewNop(),
	}
}

type optionFunc func(*options)

// Compile-time check that optionFunc implements Option.
var _ Option = optionFunc(nil)

func (f optionFunc) apply(o *options) { f(o) }

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(c *http.Client) Option {
	return optionFunc(func(o *options) {
		if c != nil {
			o.http = c
		}
	})
}

// WithTimeout sets the per-request deadline. Default is DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return optionFunc(func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	})
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) Option {
	return optionFunc(func(o *options) {
		o.headers.Set(key, value)
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
