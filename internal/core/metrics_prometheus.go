package core

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetricsRecorder exports operation latency and outcomes as
// Prometheus collectors registered on its own registry.
type PrometheusMetricsRecorder struct {
	registry *prometheus.Registry
	latency  *prometheus.HistogramVec
	outcomes *prometheus.CounterVec
}

// NewPrometheusMetricsRecorder registers collectors on reg, or on a fresh
// registry when reg is nil.
func NewPrometheusMetricsRecorder(reg *prometheus.Registry) *PrometheusMetricsRecorder {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)
	return &PrometheusMetricsRecorder{
		registry: reg,
		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "btocore_operation_duration_seconds",
			Help:    "Duration of allocation engine operations",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"operation"}),
		outcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "btocore_operations_total",
			Help: "Allocation engine operations by outcome",
		}, []string{"operation", "status"}),
	}
}

// Registry returns the registry the collectors live on.
func (r *PrometheusMetricsRecorder) Registry() *prometheus.Registry { return r.registry }

// Observe implements MetricsRecorder.
func (r *PrometheusMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if r == nil || operation == "" {
		return
	}
	status := AuditStatusError
	if success {
		status = AuditStatusSuccess
	}
	r.latency.WithLabelValues(operation).Observe(duration.Seconds())
	r.outcomes.WithLabelValues(operation, string(status)).Inc()
}

// WriteTextfile writes the current metrics in the text exposition format,
// for collection by a node exporter textfile collector.
func (r *PrometheusMetricsRecorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
