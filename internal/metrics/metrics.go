// Package metrics exposes verification runs as Prometheus metrics.
//
// Each Metrics value owns its registry so that a run can be exported to a
// node_exporter textfile without picking up the process collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"clusterverify/internal/report"
)

const (
	namespace = "clusterverify"
)

// Phases label node queries.
const (
	PhaseServer       = "server"
	PhaseStorage      = "storage"
	PhaseConnectivity = "connectivity"
)

// Metrics holds the collectors for one verifier process.
type Metrics struct {
	reg *prometheus.Registry

	// NodeQueries counts node queries by phase and result (success/error/incomplete)
	NodeQueries *prometheus.CounterVec

	// NodeQueryDuration measures node query latency
	NodeQueryDuration *prometheus.HistogramVec

	// CheckFailures tracks failed outcomes of the last run per check
	CheckFailures *prometheus.GaugeVec

	LastRunSuccess   prometheus.Gauge
	LastRunTimestamp prometheus.Gauge
}

// New creates a Metrics with its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		reg: reg,
		NodeQueries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "node_queries_total",
				Help:      "Total number of node queries issued",
			},
			[]string{"phase", "result"},
		),
		NodeQueryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "node_query_duration_seconds",
				Help:      "Node query latency in seconds",
				Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10},
			},
			[]string{"phase"},
		),
		CheckFailures: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "check_failures",
				Help:      "Failed outcomes per check in the last run",
			},
			[]string{"check"},
		),
		LastRunSuccess: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_run_success",
				Help:      "1 if the last verification run passed, 0 otherwise",
			},
		),
		LastRunTimestamp: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_run_timestamp_seconds",
				Help:      "Unix time the last verification run finished",
			},
		),
	}
}

// Registry returns the registry the collectors are registered with.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// ObserveNodeQuery records one completed node query. A nil Metrics is a no-op.
func (m *Metrics) ObserveNodeQuery(phase string, d time.Duration, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	m.NodeQueries.WithLabelValues(phase, result).Inc()
	m.NodeQueryDuration.WithLabelValues(phase).Observe(d.Seconds())
}

// ObserveIncomplete records a node query that had not finished when its phase joined.
func (m *Metrics) ObserveIncomplete(phase string) {
	if m == nil {
		return
	}
	m.NodeQueries.WithLabelValues(phase, "incomplete").Inc()
}

// RecordRun publishes the outcome of a rendered run.
func (m *Metrics) RecordRun(sum report.Summary, finished time.Time) {
	if m == nil {
		return
	}
	for _, kind := range report.Kinds {
		m.CheckFailures.WithLabelValues(kind.String()).Set(float64(sum.FailuresByKind[kind]))
	}
	if sum.Passed {
		m.LastRunSuccess.Set(1)
	} else {
		m.LastRunSuccess.Set(0)
	}
	m.LastRunTimestamp.Set(float64(finished.Unix()))
}

// WriteTextfile writes every metric to path in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.reg)
}
