// Package stats provides a unified interface for collecting metrics.
package stats

// Metric names used throughout the service.
const (
	// Cache metrics. Each cache reports under its own name via CacheMetric.
	MetricCacheHits        = "cache_hits_total"
	MetricCacheMisses      = "cache_misses_total"
	MetricCachePopulations = "cache_populations_total"
	MetricCacheFailures    = "cache_populate_failures_total"
	MetricCacheEvictions   = "cache_evictions_total"
	MetricCacheSize        = "cache_size"

	// Upstream metrics.
	MetricUpstreamRequests = "upstream_requests_total"
	MetricUpstreamErrors   = "upstream_errors_total"
	MetricUpstreamSeconds  = "upstream_request_seconds"

	// Leaderboard metrics.
	MetricLeaderboardRows     = "leaderboard_rows"
	MetricLeaderboardRebuilds = "leaderboard_rebuilds_total"
	MetricLeaderboardSeconds  = "leaderboard_rebuild_seconds"
	MetricLeaderboardQueries  = "leaderboard_queries_total"

	// Usage metrics.
	MetricRequests = "requests_total"

	// HTTP metrics.
	MetricHTTPRequests = "http_requests_total"
	MetricHTTPErrors   = "http_errors_total"
	MetricHTTPPanics   = "http_panics_total"
	MetricHTTPSeconds  = "http_request_seconds"
)

// Collector defines the interface for collecting metrics.
type Collector interface {
	// IncCounter increments a counter metric by delta.
	IncCounter(name string, delta int64)

	// SetGauge sets a gauge metric to value.
	SetGauge(name string, value int64)

	// ObserveHistogram records a value in a histogram metric.
	ObserveHistogram(name string, value float64)
}

// Prefixed returns a metric name scoped to a component, e.g.
// Prefixed("player", MetricCacheHits) == "player_cache_hits_total".
func Prefixed(component, metric string) string {
	if component == "" {
		return metric
	}
	return component + "_" + metric
}
