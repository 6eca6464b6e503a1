package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRecorderCounts(t *testing.T) {
	r := NewRecorder()
	r.AddRows("chem", 6)
	r.AddRows("chem", 2)
	r.AddRows("link", 17)
	r.SampleDone()
	r.ArtifactSkipped()
	r.ArtifactSkipped()

	require.Equal(t, 8.0, testutil.ToFloat64(r.rows.WithLabelValues("chem")))
	require.Equal(t, 17.0, testutil.ToFloat64(r.rows.WithLabelValues("link")))
	require.Equal(t, 1.0, testutil.ToFloat64(r.samples))
	require.Equal(t, 2.0, testutil.ToFloat64(r.artifactsSkipped))
}

func TestWriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.AddRows("action", 12)
	r.ObserveStage("features", 1500*time.Millisecond)

	path := filepath.Join(t.TempDir(), "labgraph.prom")
	require.NoError(t, r.WriteTextfile(path))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(b)
	require.True(t, strings.Contains(text, `labgraph_rows_total{table="action"} 12`), text)
	require.True(t, strings.Contains(text, `labgraph_stage_duration_seconds{stage="features"} 1.5`), text)
}

func TestWriteTextfileBadDir(t *testing.T) {
	err := NewRecorder().WriteTextfile(filepath.Join(t.TempDir(), "missing", "x.prom"))
	require.Error(t, err)
}
