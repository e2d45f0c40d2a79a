package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, vec *prometheus.CounterVec, labels ...string) float64 {
	t.Helper()
	var m dto.Metric
	if err := vec.WithLabelValues(labels...).Write(&m); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestContactMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewContactMetrics(reg)

	m.ObserveSubmission(OutcomePersisted)
	m.ObserveSubmission(OutcomePersisted)
	m.ObserveSubmission(OutcomeFallback)
	m.ObserveFallback("create")
	m.ObserveStoreLatency("create", "ok", 0.01)

	if got := counterValue(t, m.submissionsTotal, OutcomePersisted); got != 2 {
		t.Fatalf("expected 2 persisted, got %v", got)
	}
	if got := counterValue(t, m.submissionsTotal, OutcomeFallback); got != 1 {
		t.Fatalf("expected 1 fallback, got %v", got)
	}
}

func TestContactMetricsNilSafe(t *testing.T) {
	var m *ContactMetrics
	m.ObserveSubmission(OutcomeFailed)
	m.ObserveFallback("list")
	m.ObserveStoreLatency("list", "error", 1)
}

func TestSnapshotFallbacks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewContactMetrics(reg)

	if got := SnapshotFallbacks(reg); len(got) != 0 {
		t.Fatalf("expected empty snapshot before any fallback, got %v", got)
	}

	m.ObserveFallback("create")
	m.ObserveFallback("create")
	m.ObserveFallback("list")

	got := SnapshotFallbacks(reg)
	if got["create"] != 2 || got["list"] != 1 {
		t.Fatalf("unexpected snapshot %v", got)
	}
}
