// Package metrics provides Prometheus collectors for the trust
// pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/peerbench/peerbench/internal/ports"
)

var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)

// PrometheusMetrics implements the MetricsCollector interface using
// Prometheus. It provides real-time monitoring of submission ingestion
// outcomes and aggregation performance.
type PrometheusMetrics struct {
	ingestionsTotal    *prometheus.CounterVec
	ingestionLatency   prometheus.Histogram
	aggregationGroups  prometheus.Gauge
	aggregationLatency prometheus.Histogram
}

// NewPrometheusMetrics creates a PrometheusMetrics instance and
// registers all metrics in the global Prometheus registry.
func NewPrometheusMetrics() *PrometheusMetrics {
	return &PrometheusMetrics{
		ingestionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "peerbench_ingestions_total",
				Help: "Total number of submission ingestion attempts by outcome.",
			},
			[]string{"status", "reason"},
		),
		ingestionLatency: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "peerbench_ingestion_duration_seconds",
				Help:    "Duration of submission ingestion, including integrity and signature checks.",
				Buckets: prometheus.DefBuckets,
			},
		),
		aggregationGroups: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "peerbench_aggregation_groups",
				Help: "Number of entity groups produced by the most recent aggregation fold.",
			},
		),
		aggregationLatency: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "peerbench_aggregation_duration_seconds",
				Help:    "Duration of leaderboard aggregation folds.",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
}

// RecordIngestion counts one ingestion outcome.
func (m *PrometheusMetrics) RecordIngestion(status, reason string) {
	m.ingestionsTotal.WithLabelValues(status, reason).Inc()
}

// RecordIngestionLatency observes one ingestion duration.
func (m *PrometheusMetrics) RecordIngestionLatency(seconds float64) {
	m.ingestionLatency.Observe(seconds)
}

// RecordAggregation observes one aggregation fold.
func (m *PrometheusMetrics) RecordAggregation(groups int, seconds float64) {
	m.aggregationGroups.Set(float64(groups))
	m.aggregationLatency.Observe(seconds)
}

// NopMetrics is a MetricsCollector that discards all observations.
// Simulation runs and tests use it to avoid polluting the global
// Prometheus registry.
type NopMetrics struct{}

var _ ports.MetricsCollector = NopMetrics{}

// RecordIngestion discards the observation.
func (NopMetrics) RecordIngestion(status, reason string) {}

// RecordIngestionLatency discards the observation.
func (NopMetrics) RecordIngestionLatency(seconds float64) {}

// RecordAggregation discards the observation.
func (NopMetrics) RecordAggregation(groups int, seconds float64) {}
