package prometheus

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func gather(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	for _, m := range metrics {
		if m.GetName() == name {
			return m
		}
	}
	return nil
}

func TestNew_DefaultRegistry(t *testing.T) {
	c := New(nil, "")
	if c.registry == nil {
		t.Error("registry should not be nil")
	}
}

func TestCollector_IncCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg, "statsmith")

	c.IncCounter("player_cache_hits_total", 5)
	c.IncCounter("player_cache_hits_total", 3)

	m := gather(t, reg, "statsmith_player_cache_hits_total")
	if m == nil {
		t.Fatal("counter statsmith_player_cache_hits_total not found in registry")
	}
	if val := m.GetMetric()[0].GetCounter().GetValue(); val != 8 {
		t.Errorf("counter value = %v, want 8", val)
	}
}

func TestCollector_SetGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg, "")

	c.SetGauge("leaderboard_rows", 42)

	m := gather(t, reg, "leaderboard_rows")
	if m == nil {
		t.Fatal("gauge leaderboard_rows not found in registry")
	}
	if val := m.GetMetric()[0].GetGauge().GetValue(); val != 42 {
		t.Errorf("gauge value = %v, want 42", val)
	}
}

func TestCollector_ObserveHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg, "")

	c.ObserveHistogram("upstream_request_seconds", 0.5)
	c.ObserveHistogram("upstream_request_seconds", 1.5)
	c.ObserveHistogram("upstream_request_seconds", 2.5)

	m := gather(t, reg, "upstream_request_seconds")
	if m == nil {
		t.Fatal("histogram upstream_request_seconds not found in registry")
	}
	if count := m.GetMetric()[0].GetHistogram().GetSampleCount(); count != 3 {
		t.Errorf("histogram count = %v, want 3", count)
	}
}

func TestCollector_ConcurrentAccess(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg, "")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.IncCounter("concurrent_counter", 1)
				c.SetGauge("concurrent_gauge", int64(j))
			}
		}()
	}
	wg.Wait()

	m := gather(t, reg, "concurrent_counter")
	if m == nil {
		t.Fatal("concurrent_counter not found")
	}
	if val := m.GetMetric()[0].GetCounter().GetValue(); val != 1000 {
		t.Errorf("counter value = %v, want 1000", val)
	}
	if gather(t, reg, "concurrent_gauge") == nil {
		t.Error("concurrent_gauge not found")
	}
}

func TestCollector_AlreadyRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()

	existing := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "preexisting_counter",
		Help: "preexisting_counter",
	})
	reg.MustRegister(existing)
	existing.Add(100)

	c := New(reg, "")
	c.IncCounter("preexisting_counter", 5)

	m := gather(t, reg, "preexisting_counter")
	if m == nil {
		t.Fatal("preexisting_counter not found")
	}
	if val := m.GetMetric()[0].GetCounter().GetValue(); val != 105 {
		t.Errorf("counter value = %v, want 105", val)
	}
}
