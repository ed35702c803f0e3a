package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/kapi/internal/config"
)

func writeConfig(t *testing.T, dir, doc string) string {
	t.Helper()
	path := filepath.Join(dir, config.DefaultFile)
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path
}

func TestTargets(t *testing.T) {
	dir := t.TempDir()
	for _, d := range []string{"docs", "theme", "styles", "out/src"} {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, d), 0o755))
	}
	absStyles := filepath.Join(dir, "styles")

	cfg, err := config.Parse([]byte(`{
  "destination": "out",
  "apidoc": "docs",
  "kss": "`+absStyles+`",
  "folders": ["theme", "missing", "docs"],
  "scratch": "out/src",
  "title": "not a directory"
}`), dir)
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(dir, "docs"),
		absStyles,
		filepath.Join(dir, "theme"),
	}, Targets(cfg))
}

func TestRelevant(t *testing.T) {
	dir := t.TempDir()
	w, err := New(filepath.Join(dir, "kapi.yaml"), nil)
	require.NoError(t, err)
	w.roots = []string{filepath.Join(dir, "docs")}
	w.ignore = filepath.Join(dir, "out")

	tests := []struct {
		name string
		ev   fsnotify.Event
		want bool
	}{
		{"config write", fsnotify.Event{Name: filepath.Join(dir, "kapi.yaml"), Op: fsnotify.Write}, true},
		{"dotenv", fsnotify.Event{Name: filepath.Join(dir, ".env.local"), Op: fsnotify.Create}, true},
		{"other file beside config", fsnotify.Event{Name: filepath.Join(dir, "notes.txt"), Op: fsnotify.Write}, false},
		{"watched root", fsnotify.Event{Name: filepath.Join(dir, "docs", "a", "b.go"), Op: fsnotify.Write}, true},
		{"destination", fsnotify.Event{Name: filepath.Join(dir, "out", "build", "x.md"), Op: fsnotify.Create}, false},
		{"chmod only", fsnotify.Event{Name: filepath.Join(dir, "docs", "b.go"), Op: fsnotify.Chmod}, false},
		{"sibling prefix", fsnotify.Event{Name: filepath.Join(dir, "docs2", "b.go"), Op: fsnotify.Write}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, w.relevant(tt.ev))
		})
	}
}

func TestWorker_CoalescesRequestsDuringBuild(t *testing.T) {
	release := make(chan struct{})
	started := make(chan string, 10)
	var mu sync.Mutex
	var triggers []string

	w, err := New(filepath.Join(t.TempDir(), "kapi.json"), func(_ context.Context, trigger string) (*config.Config, error) {
		mu.Lock()
		triggers = append(triggers, trigger)
		first := len(triggers) == 1
		mu.Unlock()
		started <- trigger
		if first {
			<-release
		}
		return nil, nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.worker(ctx)
	}()

	w.request(TriggerInitial)
	<-started

	w.request(TriggerChange)
	w.request(TriggerSchedule)
	w.request(TriggerChange)
	close(release)

	<-started
	assert.Never(t, func() bool { return w.Builds() > 2 }, 100*time.Millisecond, 10*time.Millisecond)

	mu.Lock()
	assert.Equal(t, []string{TriggerInitial, TriggerChange}, triggers)
	mu.Unlock()

	cancel()
	<-done
}

func TestRun_RebuildsOnChange(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "docs"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "out"), 0o755))
	path := writeConfig(t, dir, `{"destination": "out", "apidoc": "docs"}`)

	builds := make(chan string, 10)
	w, err := New(path, func(_ context.Context, trigger string) (*config.Config, error) {
		cfg, err := config.Load(path)
		builds <- trigger
		return cfg, err
	}, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errc := make(chan error, 1)
	go func() { errc <- w.Run(ctx) }()

	select {
	case trigger := <-builds:
		assert.Equal(t, TriggerInitial, trigger)
	case <-time.After(5 * time.Second):
		t.Fatal("initial build did not run")
	}
	require.Eventually(t, func() bool {
		w.mu.RLock()
		defer w.mu.RUnlock()
		_, ok := w.watched[filepath.Join(dir, "docs")]
		return ok
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "out", "ignored.md"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "docs", "api.go"), []byte("// @api {get} /x X"), 0o644))

	select {
	case trigger := <-builds:
		assert.Equal(t, TriggerChange, trigger)
	case <-time.After(5 * time.Second):
		t.Fatal("change did not trigger a rebuild")
	}

	writeConfig(t, dir, `{"destination": "out", "apidoc": "docs", "clean": true}`)
	select {
	case trigger := <-builds:
		assert.Equal(t, TriggerChange, trigger)
	case <-time.After(5 * time.Second):
		t.Fatal("config edit did not trigger a rebuild")
	}

	cancel()
	require.NoError(t, <-errc)
}

func TestRun_ScheduledRebuilds(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `{"destination": "out"}`)

	w, err := New(path, func(context.Context, string) (*config.Config, error) {
		return nil, nil
	}, WithEvery(20*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- w.Run(ctx) }()

	assert.Eventually(t, func() bool { return w.Builds() >= 3 }, 5*time.Second, 10*time.Millisecond)
	cancel()
	require.NoError(t, <-errc)
}
