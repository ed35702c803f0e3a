package build

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/kapi/internal/config"
	"git.home.luguber.info/inful/kapi/internal/eventstore"
	"git.home.luguber.info/inful/kapi/internal/foundation/errors"
	"git.home.luguber.info/inful/kapi/internal/hooks"
	"git.home.luguber.info/inful/kapi/internal/jsonx"
	"git.home.luguber.info/inful/kapi/internal/metrics"
	"git.home.luguber.info/inful/kapi/internal/plugin"
	"git.home.luguber.info/inful/kapi/internal/plugins/builtin"
	"git.home.luguber.info/inful/kapi/internal/site"
	"git.home.luguber.info/inful/kapi/internal/testutil"
)

// pagesPlugin writes its configuration value to pages.json and turns every
// member into a page of the "pages" collection.
type pagesPlugin struct {
	registerErr error
}

func (p *pagesPlugin) Metadata() plugin.Metadata {
	return plugin.Metadata{Name: "pages", Version: "v0.0.1", Keys: []string{"pages"}}
}

func (p *pagesPlugin) Register(r *hooks.Registry) error {
	if p.registerErr != nil {
		return p.registerErr
	}
	r.RegisterSettingsHook("pages", hooks.Sync(func(_ context.Context, value any, destination string) error {
		if s, ok := value.(string); ok {
			return fmt.Errorf("pages: %s", s)
		}
		data, err := json.Marshal(value)
		if err != nil {
			return err
		}
		return os.WriteFile(filepath.Join(destination, "pages.json"), data, 0o644)
	}))
	r.RegisterFileRule("pages.json", hooks.Rule{
		NameOf: func(record any) (string, error) {
			return "pages/" + jsonx.Keys(record)[0] + ".md", nil
		},
		MetaOf: func(record any) (site.Metadata, error) {
			key := jsonx.Keys(record)[0]
			body, _ := jsonx.Lookup(record, key)
			return site.Metadata{
				site.KeyTitle:      key,
				site.KeyCollection: "pages",
				site.KeyContents:   jsonx.String(body),
			}, nil
		},
	})
	return nil
}

type countingRecorder struct {
	metrics.NoopRecorder
	mu       sync.Mutex
	stages   map[string]metrics.ResultLabel
	outcomes []metrics.BuildOutcomeLabel
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{stages: make(map[string]metrics.ResultLabel)}
}

func (c *countingRecorder) IncStageResult(stage string, result metrics.ResultLabel) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stages[stage] = result
}

func (c *countingRecorder) IncBuildOutcome(outcome metrics.BuildOutcomeLabel) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outcomes = append(c.outcomes, outcome)
}

func setup(t *testing.T, doc string, extra ...plugin.Plugin) (*config.Config, *plugin.Catalog) {
	t.Helper()
	dir := t.TempDir()
	testutil.WriteFile(t, filepath.Join(dir, "theme", "css", "site.css"), "body{}")

	cfg, err := config.Parse([]byte(doc), dir)
	require.NoError(t, err)
	cat, err := builtin.Catalog(cfg)
	require.NoError(t, err)
	for _, p := range extra {
		require.NoError(t, cat.Add(p))
	}
	return cfg, cat
}

func newStore(t *testing.T) *eventstore.SQLiteStore {
	t.Helper()
	store, err := eventstore.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func eventTypes(t *testing.T, store eventstore.Store, runID string) []string {
	t.Helper()
	events, err := store.GetByRunID(context.Background(), runID)
	require.NoError(t, err)
	types := make([]string, 0, len(events))
	for _, e := range events {
		types = append(types, e.Type())
	}
	return types
}

func TestRun_FullBuild(t *testing.T) {
	cfg, cat := setup(t, `{
  "destination": "out",
  "folders": ["theme"],
  "pages": {"intro": "Hello", "usage": "Run kapi build"}
}`, &pagesPlugin{})
	store := newStore(t)
	rec := newCountingRecorder()

	report, err := New(cfg, cat, WithStore(store), WithRecorder(rec), WithTrigger("test")).Run(t.Context())
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, report.Status)
	assert.True(t, report.Status.IsSuccess())
	_, err = uuid.Parse(report.RunID)
	require.NoError(t, err)

	var names []string
	for _, s := range report.Stages {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{StagePrepare, StageCollect, StageHooks, StageLoad, StageTransform, StageWrite}, names)
	assert.Equal(t, 2, report.Files)
	assert.Equal(t, 1, report.Collections)
	assert.Equal(t, 1, report.Expanded)
	assert.Equal(t, 2, report.Produced)
	assert.Equal(t, cfg.BuildDir(), report.Output)

	testutil.NewFileAssertions(t, cfg.Destination).
		AssertFileExists("theme/css/site.css").
		AssertFileExists("src/pages.json").
		AssertFileNotExists("build/pages.json")

	out := testutil.NewFileAssertions(t, cfg.BuildDir())
	out.AssertField("pages/intro.md", "title", "intro")
	_, body := out.Frontmatter("pages/intro.md")
	assert.Contains(t, body, "Hello")

	collections, err := os.ReadFile(filepath.Join(cfg.BuildDir(), site.DefaultCollectionsPath))
	require.NoError(t, err)
	assert.Contains(t, string(collections), `"pages"`)

	assert.Equal(t, []string{
		eventstore.TypeBuildStarted,
		eventstore.TypeStageCompleted, eventstore.TypeStageCompleted, eventstore.TypeStageCompleted,
		eventstore.TypeStageCompleted, eventstore.TypeStageCompleted, eventstore.TypeStageCompleted,
		eventstore.TypeBuildFinished,
	}, eventTypes(t, store, report.RunID))

	assert.Equal(t, []metrics.BuildOutcomeLabel{metrics.BuildOutcomeSuccess}, rec.outcomes)
	assert.Equal(t, metrics.ResultSuccess, rec.stages[StageWrite])
}

func TestRun_HookFailureStopsBuild(t *testing.T) {
	cfg, cat := setup(t, `{"destination": "out", "pages": "boom"}`, &pagesPlugin{})
	store := newStore(t)
	rec := newCountingRecorder()

	report, err := New(cfg, cat, WithStore(store), WithRecorder(rec)).Run(t.Context())
	require.Error(t, err)

	assert.True(t, errors.HasCategory(err, errors.CategoryHook))
	assert.Contains(t, err.Error(), "pages: boom")
	assert.Equal(t, StatusFailed, report.Status)
	assert.Equal(t, StageHooks, report.FailedStage)
	assert.Len(t, report.Stages, 2)
	assert.NoDirExists(t, cfg.BuildDir())

	types := eventTypes(t, store, report.RunID)
	assert.Equal(t, eventstore.TypeBuildFailed, types[len(types)-1])
	assert.Equal(t, []metrics.BuildOutcomeLabel{metrics.BuildOutcomeFailed}, rec.outcomes)
	assert.Equal(t, metrics.ResultFatal, rec.stages[StageHooks])

	run, ok, err := eventstore.Run(t.Context(), store, report.RunID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, StageHooks, run.ErrorStage)
}

func TestRun_RegisterFailure(t *testing.T) {
	cfg, cat := setup(t, `{"destination": "out"}`, &pagesPlugin{registerErr: fmt.Errorf("no")})

	report, err := New(cfg, cat).Run(t.Context())
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryPlugin))
	assert.Equal(t, StageRegister, report.FailedStage)
	assert.Empty(t, report.Stages)
}

func TestRun_CleanRemovesStaleOutput(t *testing.T) {
	cfg, cat := setup(t, `{"destination": "out", "clean": true}`)
	testutil.WriteFile(t, filepath.Join(cfg.Destination, "stale.txt"), "old")
	testutil.WriteFile(t, filepath.Join(cfg.SourceDir(), "old.md"), "old")

	_, err := New(cfg, cat).Run(t.Context())
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(cfg.Destination, "stale.txt"))
	assert.NoFileExists(t, filepath.Join(cfg.BuildDir(), "old.md"))
}

func TestRun_SourceDirIsResetWithoutClean(t *testing.T) {
	cfg, cat := setup(t, `{"destination": "out"}`)
	testutil.WriteFile(t, filepath.Join(cfg.Destination, "keep.txt"), "kept")
	testutil.WriteFile(t, filepath.Join(cfg.SourceDir(), "old.md"), "old")

	report, err := New(cfg, cat).Run(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Files)
	assert.FileExists(t, filepath.Join(cfg.Destination, "keep.txt"))
}

func TestRun_RefusesToCleanConfigDir(t *testing.T) {
	cfg, cat := setup(t, `{"destination": ".", "clean": true}`)

	report, err := New(cfg, cat).Run(t.Context())
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
	assert.Equal(t, StagePrepare, report.FailedStage)
	assert.DirExists(t, filepath.Join(cfg.Dir, "theme"))
}

func TestRun_Canceled(t *testing.T) {
	cfg, cat := setup(t, `{"destination": "out"}`)
	rec := newCountingRecorder()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := New(cfg, cat, WithRecorder(rec)).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StatusCanceled, report.Status)
	assert.Equal(t, StagePrepare, report.FailedStage)
	assert.Equal(t, []metrics.BuildOutcomeLabel{metrics.BuildOutcomeCanceled}, rec.outcomes)
}

func TestRun_HookTimeout(t *testing.T) {
	stall := &stallPlugin{}
	cfg, cat := setup(t, `{"destination": "out", "stall": true}`, stall)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	report, err := New(cfg, cat).Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, StatusCanceled, report.Status)
	assert.Equal(t, StageHooks, report.FailedStage)
}

func TestRun_MissingDependencies(t *testing.T) {
	_, err := New(nil, nil).Run(t.Context())
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryInternal))
}

// stallPlugin registers a hook that never signals completion.
type stallPlugin struct{}

func (stallPlugin) Metadata() plugin.Metadata {
	return plugin.Metadata{Name: "stall", Version: "v0.0.1"}
}

func (stallPlugin) Register(r *hooks.Registry) error {
	r.RegisterSettingsHook("stall", func(context.Context, any, string, hooks.Done) error { return nil })
	return nil
}
