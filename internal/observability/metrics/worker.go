package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	reprocessTotal    *prometheus.CounterVec
	reprocessDuration *prometheus.HistogramVec
	reprocessInFlight prometheus.Gauge
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	reprocessTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "reprocess_total",
			Help:      "Total reprocessed issues by status.",
		},
		[]string{"service", "status"},
	)
	reprocessDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "reprocess_duration_seconds",
			Help:      "Issue reprocessing duration in seconds by status.",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"service", "status"},
	)
	reprocessInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "reprocess_in_flight",
			Help:      "Number of in-flight reprocess tasks.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)

	registry.MustRegister(reprocessTotal, reprocessDuration, reprocessInFlight)

	return &WorkerMetrics{
		registry:          registry,
		reprocessTotal:    reprocessTotal,
		reprocessDuration: reprocessDuration,
		reprocessInFlight: reprocessInFlight,
	}
}

func (m *WorkerMetrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartReprocess() {
	m.reprocessInFlight.Inc()
}

func (m *WorkerMetrics) FinishReprocess(service string, duration time.Duration, err error) {
	m.reprocessInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.reprocessTotal.WithLabelValues(service, status).Inc()
	m.reprocessDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}
