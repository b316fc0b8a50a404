// Package metrics provides Prometheus-backed metrics collection. Metric
// names are prefixed with the component name and registered with the
// default registry, so they appear on the /metrics endpoint.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetrics pre-defines the counters, histograms and gauges the
// worker reports.
type PrometheusMetrics struct {
	component string

	processedTotal  *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	durationSeconds *prometheus.HistogramVec
	fileSizeBytes   *prometheus.HistogramVec
	inProgress      *prometheus.GaugeVec
}

// New creates and registers metrics for a component. Registration panics on
// duplicate component names, which indicates a wiring bug.
func New(component string) *PrometheusMetrics {
	m := &PrometheusMetrics{component: component}

	m.processedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_processed_total", component),
			Help: fmt.Sprintf("Total processed operations in %s", component),
		},
		[]string{"status", "operation"},
	)

	m.errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_errors_total", component),
			Help: fmt.Sprintf("Total errors in %s", component),
		},
		[]string{"operation", "error_type"},
	)

	m.durationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    fmt.Sprintf("%s_duration_seconds", component),
			Help:    fmt.Sprintf("Operation duration in %s", component),
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	m.fileSizeBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: fmt.Sprintf("%s_file_size_bytes", component),
			Help: fmt.Sprintf("File sizes handled by %s", component),
			Buckets: []float64{
				1 << 10, // 1KB
				1 << 16, // 64KB
				1 << 20, // 1MB
				1 << 23, // 8MB
				1 << 26, // 64MB
				1 << 30, // 1GB
			},
		},
		[]string{"file_type"},
	)

	m.inProgress = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: fmt.Sprintf("%s_in_progress", component),
			Help: fmt.Sprintf("Operations in progress in %s", component),
		},
		[]string{"operation"},
	)

	prometheus.MustRegister(
		m.processedTotal,
		m.errorsTotal,
		m.durationSeconds,
		m.fileSizeBytes,
		m.inProgress,
	)

	return m
}

// RecordSuccess increments the success counter for an operation.
func (m *PrometheusMetrics) RecordSuccess(operation string) {
	m.processedTotal.WithLabelValues("success", operation).Inc()
}

// RecordError increments the error counters for an operation.
func (m *PrometheusMetrics) RecordError(operation, errorType string) {
	m.processedTotal.WithLabelValues("error", operation).Inc()
	m.errorsTotal.WithLabelValues(operation, errorType).Inc()
}

// RecordDuration records an operation duration in seconds.
func (m *PrometheusMetrics) RecordDuration(operation string, seconds float64) {
	m.durationSeconds.WithLabelValues(operation).Observe(seconds)
}

// RecordFileSize records the size of a handled file.
func (m *PrometheusMetrics) RecordFileSize(fileType string, bytes int64) {
	m.fileSizeBytes.WithLabelValues(fileType).Observe(float64(bytes))
}

// StartOperation increments the in-progress gauge.
func (m *PrometheusMetrics) StartOperation(operation string) {
	m.inProgress.WithLabelValues(operation).Inc()
}

// EndOperation decrements the in-progress gauge.
func (m *PrometheusMetrics) EndOperation(operation string) {
	m.inProgress.WithLabelValues(operation).Dec()
}
