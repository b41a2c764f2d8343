// Package metrics holds the Prometheus collectors exported at /metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Metrics groups the service collectors under one registry.
type Metrics struct {
	registry      *prometheus.Registry
	pipelineRuns  *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	datasetLoads  *prometheus.CounterVec
	sessions      prometheus.Gauge
}

// New creates a registry with the service collectors plus the Go runtime and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		pipelineRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "datachat_pipeline_runs_total",
			Help: "Pipeline runs by routing label and outcome.",
		}, []string{"label", "outcome"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "datachat_pipeline_stage_duration_seconds",
			Help:    "Duration of pipeline steps.",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"stage"}),
		datasetLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "datachat_dataset_loads_total",
			Help: "Dataset loads by origin and outcome.",
		}, []string{"origin", "outcome"}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "datachat_sessions",
			Help: "Number of registered sessions.",
		}),
	}
	m.registry.MustRegister(
		m.pipelineRuns,
		m.stageDuration,
		m.datasetLoads,
		m.sessions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRun counts a finished pipeline run. An empty label means the run
// failed before classification.
func (m *Metrics) ObserveRun(label string, err error) {
	if label == "" {
		label = "none"
	}
	m.pipelineRuns.WithLabelValues(label, outcome(err)).Inc()
}

// ObserveStage records how long a pipeline step took.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// ObserveDatasetLoad counts a dataset load attempt.
func (m *Metrics) ObserveDatasetLoad(origin string, err error) {
	m.datasetLoads.WithLabelValues(origin, outcome(err)).Inc()
}

// SetSessions sets the registered session gauge.
func (m *Metrics) SetSessions(n int) {
	m.sessions.Set(float64(n))
}

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeOK
}
