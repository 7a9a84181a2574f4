// Package prometheus provides a Prometheus-based stats collector.
package prometheus

import (
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/statsmith/statsmith/internal/stats"
)

// Collector implements stats.Collector using Prometheus metrics. Metrics are
// created lazily on first use and registered under the collector namespace.
type Collector struct {
	registry  prometheus.Registerer
	namespace string

	mu         sync.RWMutex
	counters   map[string]prometheus.Counter
	gauges     map[string]prometheus.Gauge
	histograms map[string]prometheus.Histogram
}

// Compile-time check that Collector implements stats.Collector.
var _ stats.Collector = (*Collector)(nil)

// New creates a new Prometheus collector.
// If registry is nil, prometheus.DefaultRegisterer is used.
func New(registry prometheus.Registerer, namespace string) *Collector {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	return &Collector{
		registry:   registry,
		namespace:  namespace,
		counters:   make(map[string]prometheus.Counter),
		gauges:     make(map[string]prometheus.Gauge),
		histograms: make(map[string]prometheus.Histogram),
	}
}

// IncCounter increments a counter metric.
func (c *Collector) IncCounter(name string, delta int64) {
	counter := getOrCreate(c, c.counters, name, func(opts prometheus.Opts) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts(opts))
	})
	counter.Add(float64(delta))
}

// SetGauge sets a gauge metric.
func (c *Collector) SetGauge(name string, value int64) {
	gauge := getOrCreate(c, c.gauges, name, func(opts prometheus.Opts) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts(opts))
	})
	gauge.Set(float64(value))
}

// ObserveHistogram records a value in a histogram.
func (c *Collector) ObserveHistogram(name string, value float64) {
	histogram := getOrCreate(c, c.histograms, name, func(opts prometheus.Opts) prometheus.Histogram {
		return prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: opts.Namespace,
			Name:      opts.Name,
			Help:      opts.Help,
			Buckets:   prometheus.DefBuckets,
		})
	})
	histogram.Observe(value)
}

// getOrCreate returns the metric registered under name, creating and
// registering it on first use. If an identical metric is already registered
// elsewhere, the existing one is reused.
func getOrCreate[M prometheus.Collector](c *Collector, metrics map[string]M, name string, create func(prometheus.Opts) M) M {
	c.mu.RLock()
	m, ok := metrics[name]
	c.mu.RUnlock()
	if ok {
		return m
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check after acquiring write lock.
	if m, ok = metrics[name]; ok {
		return m
	}

	m = create(prometheus.Opts{Namespace: c.namespace, Name: name, Help: name})
	if err := c.registry.Register(m); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(M); ok {
				m = existing
			}
		}
	}
	metrics[name] = m
	return m
}
