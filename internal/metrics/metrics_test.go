package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clusterverify/internal/report"
)

func gather(t *testing.T, m *Metrics) map[string]*dto.MetricFamily {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	out := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		out[f.GetName()] = f
	}
	return out
}

func labelValue(metric *dto.Metric, name string) string {
	for _, l := range metric.GetLabel() {
		if l.GetName() == name {
			return l.GetValue()
		}
	}
	return ""
}

func TestObserveNodeQuery(t *testing.T) {
	m := New()
	m.ObserveNodeQuery(PhaseServer, 10*time.Millisecond, nil)
	m.ObserveNodeQuery(PhaseServer, 20*time.Millisecond, nil)
	m.ObserveNodeQuery(PhaseStorage, time.Second, errors.New("refused"))
	m.ObserveIncomplete(PhaseStorage)

	families := gather(t, m)

	counts := make(map[string]float64)
	for _, metric := range families["clusterverify_node_queries_total"].GetMetric() {
		key := labelValue(metric, "phase") + "/" + labelValue(metric, "result")
		counts[key] = metric.GetCounter().GetValue()
	}
	assert.Equal(t, map[string]float64{
		"server/success":     2,
		"storage/error":      1,
		"storage/incomplete": 1,
	}, counts)

	for _, metric := range families["clusterverify_node_query_duration_seconds"].GetMetric() {
		if labelValue(metric, "phase") == PhaseServer {
			assert.Equal(t, uint64(2), metric.GetHistogram().GetSampleCount())
		}
	}
}

func TestRecordRun(t *testing.T) {
	m := New()
	finished := time.Unix(1700000000, 0)
	m.RecordRun(report.Summary{
		Partitions:     4,
		Failures:       3,
		FailuresByKind: map[report.CheckKind]int{report.QuorumStatus: 2, report.ServerConsistency: 1},
	}, finished)

	families := gather(t, m)
	assert.Equal(t, 0.0, families["clusterverify_last_run_success"].GetMetric()[0].GetGauge().GetValue())
	assert.Equal(t, 1700000000.0, families["clusterverify_last_run_timestamp_seconds"].GetMetric()[0].GetGauge().GetValue())

	failures := make(map[string]float64)
	for _, metric := range families["clusterverify_check_failures"].GetMetric() {
		failures[labelValue(metric, "check")] = metric.GetGauge().GetValue()
	}
	assert.Equal(t, map[string]float64{
		"ASSIGNMENT_VALIDITY": 0,
		"SERVER_CONSISTENCY":  1,
		"STORAGE_CONSISTENCY": 0,
		"QUORUM_STATUS":       2,
	}, failures)

	m.RecordRun(report.Summary{Passed: true, FailuresByKind: map[report.CheckKind]int{}}, finished)
	families = gather(t, m)
	assert.Equal(t, 1.0, families["clusterverify_last_run_success"].GetMetric()[0].GetGauge().GetValue())
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveNodeQuery(PhaseServer, time.Millisecond, nil)
		m.ObserveIncomplete(PhaseServer)
		m.RecordRun(report.Summary{}, time.Now())
	})
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.ObserveNodeQuery(PhaseConnectivity, time.Millisecond, nil)

	path := filepath.Join(t.TempDir(), "clusterverify.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `clusterverify_node_queries_total{phase="connectivity",result="success"} 1`)
}
