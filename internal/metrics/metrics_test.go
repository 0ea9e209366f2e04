package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord(t *testing.T) {
	m := New()

	m.RecordSourceRequest("list", "ok")
	m.RecordSourceRequest("list", "ok")
	m.RecordSourceRequest("fetch", "transient")
	m.RecordRetrySleep("fetch")
	m.SetSegments(42)
	m.ObserveDuration("extract", 1500*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.SourceRequests.WithLabelValues("list", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SourceRequests.WithLabelValues("fetch", "transient")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RetrySleeps.WithLabelValues("fetch")))
	assert.Equal(t, 42.0, testutil.ToFloat64(m.Segments))
	assert.Equal(t, 1, testutil.CollectAndCount(m.PipelineDuration))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.RecordSourceRequest("list", "ok")
	m.RecordRetrySleep("list")
	m.ObserveDuration("extract", time.Second)
	m.SetSegments(1)
	assert.NoError(t, m.WriteFile("/nonexistent/metrics.prom"))
}

func TestRegistriesAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.RecordRetrySleep("list")
	assert.Equal(t, 0.0, testutil.ToFloat64(b.RetrySleeps.WithLabelValues("list")))
}

func TestWriteFile(t *testing.T) {
	m := New()
	m.RecordSourceRequest("fetch", "ok")
	m.SetSegments(3)

	path := filepath.Join(t.TempDir(), "yttranscript.prom")
	require.NoError(t, m.WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.True(t, strings.Contains(out, `yttranscript_source_requests_total{op="fetch",outcome="ok"} 1`), out)
	assert.True(t, strings.Contains(out, "yttranscript_segments 3"), out)
}
