package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveStageDuration("transform", 150*time.Millisecond)
	pr.ObserveBuildDuration(500 * time.Millisecond)
	pr.IncStageResult("transform", ResultSuccess)
	pr.IncBuildOutcome(BuildOutcomeSuccess)
	pr.ObserveHookDuration("apidoc", 20*time.Millisecond, true)
	pr.IncDuplicateDone("kss")
	pr.AddTransformFiles(2, 5)

	assert.Equal(t, 1.0, testutil.ToFloat64(pr.stageResults.WithLabelValues("transform", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pr.buildOutcome.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pr.duplicateDone.WithLabelValues("kss")))
	assert.Equal(t, 2.0, testutil.ToFloat64(pr.transformedFiles.WithLabelValues("expanded")))
	assert.Equal(t, 5.0, testutil.ToFloat64(pr.transformedFiles.WithLabelValues("produced")))

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, mfs)
}

func TestPrometheusRecorder_WriteTextfile(t *testing.T) {
	pr := NewPrometheusRecorder(nil)
	pr.IncBuildOutcome(BuildOutcomeFailed)

	path := filepath.Join(t.TempDir(), "kapi.prom")
	require.NoError(t, pr.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `kapi_build_outcomes_total{outcome="failed"} 1`)
}

func TestPrometheusRecorder_NilSafe(t *testing.T) {
	var pr *PrometheusRecorder
	assert.NotPanics(t, func() {
		pr.IncBuildOutcome(BuildOutcomeSuccess)
		pr.ObserveHookDuration("k", time.Second, false)
		assert.NoError(t, pr.WriteTextfile("unused"))
	})
}
