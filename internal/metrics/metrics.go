// Package metrics provides Prometheus metrics for a single invocation.
//
// Metrics live in a private registry; the CLI can dump it in text exposition
// format for the node_exporter textfile collector.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "yttranscript"

// Metrics holds all Prometheus metrics for the pipeline.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// Source metrics
	SourceRequests *prometheus.CounterVec
	RetrySleeps    *prometheus.CounterVec

	// Pipeline metrics
	PipelineDuration *prometheus.HistogramVec
	Segments         prometheus.Gauge
}

// New creates and registers all metrics on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		SourceRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_requests_total",
			Help:      "Transcript source calls by operation and outcome",
		}, []string{"op", "outcome"}),
		RetrySleeps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retry_sleeps_total",
			Help:      "Backoff sleeps taken before retrying a source call",
		}, []string{"op"}),

		PipelineDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_duration_seconds",
			Help:      "Duration of extraction and listing operations in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"op"}),
		Segments: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "segments",
			Help:      "Number of segments in the last assembled transcript",
		}),
	}
}

// RecordSourceRequest records one source call.
func (m *Metrics) RecordSourceRequest(op, outcome string) {
	if m == nil {
		return
	}
	m.SourceRequests.WithLabelValues(op, outcome).Inc()
}

// RecordRetrySleep records a backoff sleep.
func (m *Metrics) RecordRetrySleep(op string) {
	if m == nil {
		return
	}
	m.RetrySleeps.WithLabelValues(op).Inc()
}

// ObserveDuration records how long an operation took.
func (m *Metrics) ObserveDuration(op string, d time.Duration) {
	if m == nil {
		return
	}
	m.PipelineDuration.WithLabelValues(op).Observe(d.Seconds())
}

// SetSegments records the size of the assembled transcript.
func (m *Metrics) SetSegments(n int) {
	if m == nil {
		return
	}
	m.Segments.Set(float64(n))
}

// WriteFile writes the registry to path in text exposition format.
func (m *Metrics) WriteFile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
