// internal/monitoring/metrics.go

// Package monitoring exposes Prometheus metrics for pipeline runs:
// adapter outcomes, merge discards, classifications, and escalations.
package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the pipeline's Prometheus collectors.
type Metrics struct {
	adapterOutcomes    *prometheus.CounterVec
	recordsExtracted   *prometheus.CounterVec
	extractionDuration *prometheus.HistogramVec
	mergeDiscards      *prometheus.CounterVec
	classifications    *prometheus.CounterVec
	escalations        *prometheus.CounterVec
	runsTotal          *prometheus.CounterVec
	runDuration        prometheus.Histogram

	registry *prometheus.Registry
}

var (
	defaultMetrics *Metrics
	defaultOnce    sync.Once
)

// Default returns the process-wide metrics instance.
func Default() *Metrics {
	defaultOnce.Do(func() {
		defaultMetrics = New(prometheus.NewRegistry())
	})
	return defaultMetrics
}

// New builds metrics registered on the given registry.
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		adapterOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "catalogpipe",
			Name:      "adapter_outcomes_total",
			Help:      "Adapter invocations by kind and outcome status",
		}, []string{"adapter", "status"}),

		recordsExtracted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "catalogpipe",
			Name:      "records_extracted_total",
			Help:      "Raw records produced by each adapter",
		}, []string{"adapter"}),

		extractionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "catalogpipe",
			Name:      "extraction_duration_seconds",
			Help:      "Per-adapter extraction duration",
			Buckets:   prometheus.DefBuckets,
		}, []string{"adapter"}),

		mergeDiscards: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "catalogpipe",
			Name:      "merge_discards_total",
			Help:      "Candidates discarded during merge, by reason",
		}, []string{"reason"}),

		classifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "catalogpipe",
			Name:      "classifications_total",
			Help:      "Candidate classifications by kind",
		}, []string{"kind"}),

		escalations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "catalogpipe",
			Name:      "strategy_escalations_total",
			Help:      "Escalations to a fallback adapter, by kind escalated to",
		}, []string{"adapter"}),

		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "catalogpipe",
			Name:      "runs_total",
			Help:      "Catalog page runs by result",
		}, []string{"result"}),

		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "catalogpipe",
			Name:      "run_duration_seconds",
			Help:      "End-to-end catalog page run duration",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),

		registry: registry,
	}

	registry.MustRegister(
		m.adapterOutcomes, m.recordsExtracted, m.extractionDuration,
		m.mergeDiscards, m.classifications, m.escalations,
		m.runsTotal, m.runDuration,
	)

	return m
}

// Registry exposes the backing registry for the HTTP handler.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveAdapter records one adapter invocation.
func (m *Metrics) ObserveAdapter(adapter, status string, records int, duration time.Duration) {
	m.adapterOutcomes.WithLabelValues(adapter, status).Inc()
	m.recordsExtracted.WithLabelValues(adapter).Add(float64(records))
	m.extractionDuration.WithLabelValues(adapter).Observe(duration.Seconds())
}

// ObserveDiscard records one merge discard.
func (m *Metrics) ObserveDiscard(reason string) {
	m.mergeDiscards.WithLabelValues(reason).Inc()
}

// ObserveClassification records one classification decision.
func (m *Metrics) ObserveClassification(kind string) {
	m.classifications.WithLabelValues(kind).Inc()
}

// ObserveEscalation records one fallback to the given adapter.
func (m *Metrics) ObserveEscalation(adapter string) {
	m.escalations.WithLabelValues(adapter).Inc()
}

// ObserveRun records one completed run.
func (m *Metrics) ObserveRun(result string, duration time.Duration) {
	m.runsTotal.WithLabelValues(result).Inc()
	m.runDuration.Observe(duration.Seconds())
}
