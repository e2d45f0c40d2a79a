package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

const (
	namespace = "allsafe"
	subsystem = "contacts"

	fallbackMetricName = namespace + "_" + subsystem + "_store_fallback_total"
)

// Submission outcomes.
const (
	OutcomePersisted = "persisted"
	OutcomeFallback  = "fallback"
	OutcomeRejected  = "rejected"
	OutcomeFailed    = "failed"
)

// ContactMetrics exposes counters/histograms for the intake flow and its store.
type ContactMetrics struct {
	submissionsTotal *prometheus.CounterVec
	fallbackTotal    *prometheus.CounterVec
	storeLatency     *prometheus.HistogramVec
}

func NewContactMetrics(reg prometheus.Registerer) *ContactMetrics {
	m := &ContactMetrics{
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "submissions_total",
			Help:      "Contact form submissions by outcome",
		}, []string{"outcome"}),
		fallbackTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "store_fallback_total",
			Help:      "Store operations answered from the degraded-mode source",
		}, []string{"operation"}),
		storeLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "store_latency_seconds",
			Help:      "Latency of contact store statements",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "result"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submissionsTotal, m.fallbackTotal, m.storeLatency)
	return m
}

func (m *ContactMetrics) ObserveSubmission(outcome string) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(outcome).Inc()
}

func (m *ContactMetrics) ObserveFallback(operation string) {
	if m == nil {
		return
	}
	m.fallbackTotal.WithLabelValues(operation).Inc()
}

func (m *ContactMetrics) ObserveStoreLatency(operation, result string, seconds float64) {
	if m == nil {
		return
	}
	m.storeLatency.WithLabelValues(operation, result).Observe(seconds)
}

// SnapshotFallbacks reads the fallback counters from gatherer, keyed by
// operation. Missing metrics yield an empty map.
func SnapshotFallbacks(gatherer prometheus.Gatherer) map[string]float64 {
	out := map[string]float64{}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	families, err := gatherer.Gather()
	if err != nil {
		return out
	}
	var family *dto.MetricFamily
	for _, f := range families {
		if f.GetName() == fallbackMetricName {
			family = f
			break
		}
	}
	if family == nil {
		return out
	}
	for _, metric := range family.GetMetric() {
		op := labelValue(metric, "operation")
		if op == "" || metric.GetCounter() == nil {
			continue
		}
		out[op] += metric.GetCounter().GetValue()
	}
	return out
}

func labelValue(metric *dto.Metric, name string) string {
	for _, label := range metric.GetLabel() {
		if label.GetName() == name {
			return label.GetValue()
		}
	}
	return ""
}

// SubmissionCount returns the current submissions counter for outcome.
func (m *ContactMetrics) SubmissionCount(outcome string) float64 {
	if m == nil {
		return 0
	}
	var metric dto.Metric
	if err := m.submissionsTotal.WithLabelValues(outcome).Write(&metric); err != nil {
		return 0
	}
	return metric.GetCounter().GetValue()
}
