package build

import (
	"context"
	stderrors "errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/kapi/internal/config"
	"git.home.luguber.info/inful/kapi/internal/eventstore"
	"git.home.luguber.info/inful/kapi/internal/foundation/errors"
	"git.home.luguber.info/inful/kapi/internal/hooks"
	"git.home.luguber.info/inful/kapi/internal/logfields"
	"git.home.luguber.info/inful/kapi/internal/metrics"
	"git.home.luguber.info/inful/kapi/internal/observability"
	"git.home.luguber.info/inful/kapi/internal/plugin"
)

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(rec metrics.Recorder) Option {
	return func(b *Builder) {
		if rec != nil {
			b.recorder = rec
		}
	}
}

// WithStore records run events in store.
func WithStore(store eventstore.Store) Option {
	return func(b *Builder) { b.store = store }
}

// WithTrigger labels runs with what started them.
func WithTrigger(trigger string) Option {
	return func(b *Builder) { b.trigger = trigger }
}

// Builder executes builds of one configuration.
type Builder struct {
	cfg      *config.Config
	catalog  *plugin.Catalog
	logger   *slog.Logger
	recorder metrics.Recorder
	store    eventstore.Store
	trigger  string
	newRunID func() string
}

// New creates a Builder for cfg using the plugins of catalog.
func New(cfg *config.Config, catalog *plugin.Catalog, opts ...Option) *Builder {
	b := &Builder{
		cfg:      cfg,
		catalog:  catalog,
		logger:   slog.Default(),
		recorder: metrics.NoopRecorder{},
		newRunID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Run executes one build. The report is returned even when the run fails.
func (b *Builder) Run(ctx context.Context) (*Report, error) {
	report := &Report{RunID: b.newRunID(), StartedAt: time.Now()}

	if b.cfg == nil || b.catalog == nil {
		report.Status = StatusFailed
		b.recorder.IncBuildOutcome(metrics.BuildOutcomeFailed)
		return report, errors.InternalError("builder requires a configuration and a plugin catalog").Build()
	}

	ctx = observability.WithRunID(ctx, report.RunID)
	if b.trigger != "" {
		ctx = observability.WithTrigger(ctx, b.trigger)
	}
	observability.Log(ctx, b.logger, slog.LevelInfo, "Build started",
		logfields.Path(b.cfg.Path),
		slog.String("destination", b.cfg.Destination))
	b.emit(ctx, func() (*eventstore.BaseEvent, error) {
		return eventstore.NewBuildStarted(report.RunID, eventstore.BuildStartedPayload{
			Config:      b.cfg.Path,
			Destination: b.cfg.Destination,
			Trigger:     b.trigger,
		})
	})

	registry := hooks.NewRegistry()
	if err := b.catalog.Install(registry); err != nil {
		return b.fail(ctx, report, StageRegister, err)
	}
	registry.Freeze()

	r := &run{cfg: b.cfg, registry: registry, logger: b.logger, recorder: b.recorder, report: report}
	for _, s := range r.stages() {
		if err := ctx.Err(); err != nil {
			return b.fail(ctx, report, s.name, err)
		}

		stageCtx := observability.WithStage(ctx, s.name)
		start := time.Now()
		err := s.fn(stageCtx)
		elapsed := time.Since(start)
		b.recorder.ObserveStageDuration(s.name, elapsed)

		if err != nil {
			b.recorder.IncStageResult(s.name, stageResult(err))
			return b.fail(stageCtx, report, s.name, err)
		}
		b.recorder.IncStageResult(s.name, metrics.ResultSuccess)
		report.Stages = append(report.Stages, StageResult{Name: s.name, Duration: elapsed})

		observability.Log(stageCtx, b.logger, slog.LevelDebug, "Stage completed",
			logfields.DurationMS(float64(elapsed.Microseconds())/1000))
		b.emit(ctx, func() (*eventstore.BaseEvent, error) {
			return eventstore.NewStageCompleted(report.RunID, s.name, elapsed)
		})
	}

	report.Status = StatusSuccess
	report.Duration = time.Since(report.StartedAt)
	b.recorder.ObserveBuildDuration(report.Duration)
	b.recorder.IncBuildOutcome(metrics.BuildOutcomeSuccess)

	observability.Log(ctx, b.logger, slog.LevelInfo, "Build finished",
		logfields.Path(report.Output),
		logfields.Count(report.Files),
		slog.Int("collections", report.Collections),
		logfields.DurationMS(float64(report.Duration.Microseconds())/1000))
	b.emit(ctx, func() (*eventstore.BaseEvent, error) {
		return eventstore.NewBuildFinished(report.RunID, eventstore.BuildFinishedPayload{
			DurationMS:  report.Duration.Milliseconds(),
			Files:       report.Files,
			Collections: report.Collections,
		})
	})
	return report, nil
}

func (b *Builder) fail(ctx context.Context, report *Report, stage string, err error) (*Report, error) {
	err = classify(stage, err)

	report.FailedStage = stage
	report.Duration = time.Since(report.StartedAt)
	b.recorder.ObserveBuildDuration(report.Duration)
	if isCanceled(err) {
		report.Status = StatusCanceled
		b.recorder.IncBuildOutcome(metrics.BuildOutcomeCanceled)
	} else {
		report.Status = StatusFailed
		b.recorder.IncBuildOutcome(metrics.BuildOutcomeFailed)
	}

	observability.Log(ctx, b.logger, slog.LevelError, "Build failed",
		logfields.Stage(stage),
		logfields.Error(err))
	b.emit(context.WithoutCancel(ctx), func() (*eventstore.BaseEvent, error) {
		return eventstore.NewBuildFailed(report.RunID, eventstore.BuildFailedPayload{
			Stage:      stage,
			Category:   string(errors.GetCategory(err)),
			Error:      err.Error(),
			DurationMS: report.Duration.Milliseconds(),
		})
	})
	return report, err
}

// emit appends an event when a store is configured. History failures are
// logged and never fail the build.
func (b *Builder) emit(ctx context.Context, newEvent func() (*eventstore.BaseEvent, error)) {
	if b.store == nil {
		return
	}
	event, err := newEvent()
	if err == nil {
		err = b.store.Append(ctx, event)
	}
	if err != nil {
		observability.Log(ctx, b.logger, slog.LevelWarn, "Failed to record build event", logfields.Error(err))
	}
}

// classify tags err with the stage it came from. Errors without a category
// become build errors; context errors are returned unchanged.
func classify(stage string, err error) error {
	if isCanceled(err) {
		return err
	}
	if classified, ok := errors.AsClassified(err); ok {
		if _, has := classified.Context().Get("stage"); has {
			return classified
		}
		return classified.WithContext("stage", stage)
	}
	return errors.WrapError(err, errors.CategoryBuild, "build stage failed").
		WithContext("stage", stage).
		Build()
}

func isCanceled(err error) bool {
	return stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded)
}

func stageResult(err error) metrics.ResultLabel {
	if isCanceled(err) {
		return metrics.ResultCanceled
	}
	return metrics.ResultFatal
}
