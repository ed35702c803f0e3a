package metrics

import (
	"fmt"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	reg              *prom.Registry
	stageDuration    *prom.HistogramVec
	stageResults     *prom.CounterVec
	buildDuration    prom.Histogram
	buildOutcome     *prom.CounterVec
	hookDuration     *prom.HistogramVec
	duplicateDone    *prom.CounterVec
	transformedFiles *prom.CounterVec
}

// NewPrometheusRecorder constructs the kapi metrics and registers them on reg.
// A nil reg gets a fresh registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{reg: reg}
	pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: "kapi",
		Name:      "stage_duration_seconds",
		Help:      "Duration of individual build stages",
		Buckets:   prom.DefBuckets,
	}, []string{"stage"})
	pr.stageResults = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "kapi",
		Name:      "stage_results_total",
		Help:      "Stage result counts by outcome",
	}, []string{"stage", "result"})
	pr.buildDuration = prom.NewHistogram(prom.HistogramOpts{
		Namespace: "kapi",
		Name:      "build_duration_seconds",
		Help:      "Total build duration",
		Buckets:   prom.DefBuckets,
	})
	pr.buildOutcome = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "kapi",
		Name:      "build_outcomes_total",
		Help:      "Build outcomes by final status",
	}, []string{"outcome"})
	pr.hookDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: "kapi",
		Name:      "hook_duration_seconds",
		Help:      "Duration of settings hook invocations from call to completion",
		Buckets:   prom.DefBuckets,
	}, []string{"key", "result"})
	pr.duplicateDone = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "kapi",
		Name:      "hook_duplicate_done_total",
		Help:      "Completion signals received after a hook had already completed",
	}, []string{"key"})
	pr.transformedFiles = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "kapi",
		Name:      "transform_files_total",
		Help:      "Files handled by the file transformer",
	}, []string{"kind"})
	reg.MustRegister(pr.stageDuration, pr.stageResults, pr.buildDuration, pr.buildOutcome,
		pr.hookDuration, pr.duplicateDone, pr.transformedFiles)
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil || p.stageResults == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil || p.buildDuration == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome BuildOutcomeLabel) {
	if p == nil || p.buildOutcome == nil {
		return
	}
	p.buildOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) ObserveHookDuration(key string, d time.Duration, success bool) {
	if p == nil || p.hookDuration == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.hookDuration.WithLabelValues(key, res).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncDuplicateDone(key string) {
	if p == nil || p.duplicateDone == nil {
		return
	}
	p.duplicateDone.WithLabelValues(key).Inc()
}

func (p *PrometheusRecorder) AddTransformFiles(expanded, produced int) {
	if p == nil || p.transformedFiles == nil {
		return
	}
	p.transformedFiles.WithLabelValues("expanded").Add(float64(expanded))
	p.transformedFiles.WithLabelValues("produced").Add(float64(produced))
}

// WriteTextfile writes every metric gathered from the recorder's registry to
// filename in the Prometheus text exposition format.
func (p *PrometheusRecorder) WriteTextfile(filename string) error {
	if p == nil || p.reg == nil {
		return nil
	}
	if err := prom.WriteToTextfile(filename, p.reg); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
