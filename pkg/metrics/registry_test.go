package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	require.NotNil(t, r)
	assert.NotNil(t, r.RunsTotal)
	assert.NotNil(t, r.TrialsTotal)
	assert.NotNil(t, r.GetPrometheusRegistry())
	assert.Same(t, DefaultRegistry(), DefaultRegistry())
}

func TestRecordRun(t *testing.T) {
	r := NewRegistry()
	r.RecordRun("ok", 20*time.Millisecond, RunSummary{Accepted: 3, Rejected: 2, Clusters: 3, EdgesRemoved: 40, PowerSteps: 15})
	r.RecordRun("ok", 10*time.Millisecond, RunSummary{Clusters: 1})

	assert.Equal(t, 2.0, testutil.ToFloat64(r.RunsTotal.WithLabelValues("ok")))
	assert.Equal(t, 4.0, testutil.ToFloat64(r.ClustersTotal))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.RegionsTotal.WithLabelValues("accepted")))
	assert.Equal(t, 40.0, testutil.ToFloat64(r.EdgesRemovedTotal))
	assert.Equal(t, 1, testutil.CollectAndCount(r.RunDuration))
}

func TestRecordSolver(t *testing.T) {
	r := NewRegistry()
	r.RecordSolver("clustiflor", time.Second, 0.9, nil)
	r.RecordSolver("isa", 0, 0, errors.New("exit status 1"))
	r.RecordTrial("failed")

	assert.Equal(t, 1.0, testutil.ToFloat64(r.ReferenceFailuresTotal.WithLabelValues("isa")))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.ReferenceFailuresTotal.WithLabelValues("clustiflor")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.TrialsTotal.WithLabelValues("failed")))
}

func TestNilRegistryIsNoop(t *testing.T) {
	var r *Registry
	assert.NotPanics(t, func() {
		r.RecordRun("ok", time.Second, RunSummary{})
		r.RecordTrial("ok")
		r.RecordSolver("x", time.Second, 1, nil)
	})
	assert.NoError(t, r.WriteTextfile(filepath.Join(t.TempDir(), "never.prom")))
}

func TestWriteTextfile(t *testing.T) {
	r := NewRegistry()
	r.RecordRun("ok", time.Millisecond, RunSummary{Clusters: 2})

	path := filepath.Join(t.TempDir(), "clustiflor.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "clustiflor_clusters_emitted_total 2"))
}
