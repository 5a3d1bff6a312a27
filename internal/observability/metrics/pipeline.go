package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillkom/civic-issues/internal/core/domain"
)

// PipelineMetrics counts upload and extraction outcomes and the retry and
// breaker activity around the vision model and the queue.
type PipelineMetrics struct {
	service string

	uploadsTotal     *prometheus.CounterVec
	extractionsTotal *prometheus.CounterVec
	retriesTotal     *prometheus.CounterVec
	breakerOpen      *prometheus.GaugeVec
}

func NewPipelineMetrics(service string, registerer prometheus.Registerer) *PipelineMetrics {
	uploadsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "uploads_total",
			Help:      "Uploaded images by outcome (success, extraction_error, failed).",
		},
		[]string{"service", "outcome"},
	)
	extractionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "extractions_total",
			Help:      "Watermark extraction attempts by outcome.",
		},
		[]string{"service", "outcome"},
	)
	retriesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resilience",
			Name:      "retries_total",
			Help:      "Retried calls to external dependencies.",
		},
		[]string{"service", "operation"},
	)
	breakerOpen := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "resilience",
			Name:      "breaker_open",
			Help:      "1 while the circuit breaker of an operation is open or half-open.",
		},
		[]string{"service", "operation"},
	)

	registerer.MustRegister(uploadsTotal, extractionsTotal, retriesTotal, breakerOpen)

	return &PipelineMetrics{
		service:          service,
		uploadsTotal:     uploadsTotal,
		extractionsTotal: extractionsTotal,
		retriesTotal:     retriesTotal,
		breakerOpen:      breakerOpen,
	}
}

func (m *PipelineMetrics) RecordUpload(outcome string) {
	m.uploadsTotal.WithLabelValues(m.service, outcome).Inc()
}

func (m *PipelineMetrics) RecordExtraction(outcome domain.ExtractionOutcome) {
	if outcome == "" {
		outcome = "unknown"
	}
	m.extractionsTotal.WithLabelValues(m.service, string(outcome)).Inc()
}

func (m *PipelineMetrics) Retry(operation string) {
	m.retriesTotal.WithLabelValues(m.service, operation).Inc()
}

func (m *PipelineMetrics) BreakerStateChanged(operation, to string) {
	value := 1.0
	if to == "closed" {
		value = 0
	}
	m.breakerOpen.WithLabelValues(m.service, operation).Set(value)
}
