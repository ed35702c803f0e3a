// Package watch rebuilds a site when its inputs change.
//
// The watcher follows the configuration file, the dotenv files beside it and
// every directory named by a configuration value. Bursts of file events are
// debounced into one rebuild. Builds run on a single worker and never overlap;
// requests arriving during a build collapse into exactly one follow-up.
package watch

import (
	"context"
	stderrors "errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/kapi/internal/config"
	"git.home.luguber.info/inful/kapi/internal/foundation/errors"
	"git.home.luguber.info/inful/kapi/internal/logfields"
	"git.home.luguber.info/inful/kapi/internal/observability"
)

// Build triggers.
const (
	TriggerInitial  = "initial"
	TriggerChange   = "watch"
	TriggerSchedule = "schedule"
)

// DefaultDebounce is the quiet period after the last event before a rebuild.
const DefaultDebounce = 300 * time.Millisecond

// BuildFunc runs one build. It returns the configuration the build used so
// the watch list can follow it, or nil when the configuration could not be
// loaded.
type BuildFunc func(ctx context.Context, trigger string) (*config.Config, error)

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the debounce interval.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithEvery schedules a full rebuild at a fixed interval. Zero disables it.
func WithEvery(d time.Duration) Option {
	return func(w *Watcher) { w.every = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// Watcher drives rebuilds from file events and a schedule.
type Watcher struct {
	configPath string
	configDir  string
	build      BuildFunc
	debounce   time.Duration
	every      time.Duration
	logger     *slog.Logger

	fsw      *fsnotify.Watcher
	requests chan string
	builds   atomic.Int64

	mu      sync.RWMutex
	roots   []string
	ignore  string
	watched map[string]struct{}
}

// New creates a Watcher for the configuration at configPath.
func New(configPath string, build BuildFunc, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(configPath)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to resolve config path").
			WithContext("path", configPath).
			Build()
	}
	w := &Watcher{
		configPath: abs,
		configDir:  filepath.Dir(abs),
		build:      build,
		debounce:   DefaultDebounce,
		logger:     slog.Default(),
		requests:   make(chan string, 1),
		watched:    make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Builds returns the number of builds started so far.
func (w *Watcher) Builds() int64 {
	return w.builds.Load()
}

// Run performs an initial build and then rebuilds on change until ctx ends.
// Build failures are logged and do not stop the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.WrapError(err, errors.CategoryRuntime, "failed to create file watcher").Build()
	}
	w.fsw = fsw
	defer func() { _ = fsw.Close() }()

	if err := w.sync(nil, ""); err != nil {
		return err
	}

	if w.every > 0 {
		scheduler, err := w.schedule()
		if err != nil {
			return err
		}
		defer func() { _ = scheduler.Shutdown() }()
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.worker(ctx)
	}()

	w.logger.Info("Watching for changes",
		logfields.Path(w.configPath),
		slog.Duration("debounce", w.debounce),
		slog.Duration("every", w.every))
	w.request(TriggerInitial)
	w.eventLoop(ctx)

	wg.Wait()
	return nil
}

func (w *Watcher) schedule() (gocron.Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryRuntime, "failed to create scheduler").Build()
	}
	_, err = s.NewJob(
		gocron.DurationJob(w.every),
		gocron.NewTask(func() { w.request(TriggerSchedule) }),
		gocron.WithName("periodic-rebuild"),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, errors.WrapError(err, errors.CategoryRuntime, "failed to schedule periodic rebuild").
			WithContext("every", w.every.String()).
			Build()
	}
	s.Start()
	return s, nil
}

// request queues a build. While one is queued further requests are dropped,
// so any number of requests during a build yield one follow-up.
func (w *Watcher) request(trigger string) {
	select {
	case w.requests <- trigger:
	default:
	}
}

func (w *Watcher) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case trigger := <-w.requests:
			w.runBuild(ctx, trigger)
		}
	}
}

func (w *Watcher) runBuild(ctx context.Context, trigger string) {
	w.builds.Add(1)
	ctx = observability.WithTrigger(ctx, trigger)
	observability.Log(ctx, w.logger, slog.LevelDebug, "Rebuilding")

	cfg, err := w.build(ctx, trigger)
	if err != nil && ctx.Err() == nil {
		observability.Log(ctx, w.logger, slog.LevelError, "Build failed; waiting for changes", logfields.Error(err))
	}
	if cfg == nil {
		return
	}
	if err := w.sync(Targets(cfg), cfg.Destination); err != nil {
		observability.Log(ctx, w.logger, slog.LevelWarn, "Failed to update watch list", logfields.Error(err))
	}
}

func (w *Watcher) eventLoop(ctx context.Context) {
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(ev) {
				continue
			}
			if ev.Has(fsnotify.Create) {
				w.addTree(ev.Name)
			}
			w.logger.Debug("Change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
			timer.Reset(w.debounce)
		case <-timer.C:
			w.request(TriggerChange)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("File watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	name := filepath.Clean(ev.Name)

	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.ignore != "" && within(name, w.ignore) {
		return false
	}
	for _, root := range w.roots {
		if within(name, root) {
			return true
		}
	}
	if filepath.Dir(name) != w.configDir {
		return false
	}
	switch filepath.Base(name) {
	case filepath.Base(w.configPath), ".env", ".env.local":
		return true
	}
	return false
}

// sync replaces the watch list with the configuration directory plus every
// directory below roots, skipping the ignore subtree.
func (w *Watcher) sync(roots []string, ignore string) error {
	want := map[string]struct{}{w.configDir: {}}
	for _, root := range roots {
		for _, dir := range dirsBelow(root, ignore) {
			want[dir] = struct{}{}
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.roots = roots
	w.ignore = ignore
	for dir := range w.watched {
		if _, ok := want[dir]; !ok {
			_ = w.fsw.Remove(dir)
			delete(w.watched, dir)
		}
	}
	for dir := range want {
		if _, ok := w.watched[dir]; ok {
			continue
		}
		if err := w.fsw.Add(dir); err != nil {
			if dir == w.configDir {
				return errors.WrapError(err, errors.CategoryRuntime, "failed to watch configuration directory").
					WithContext("path", dir).
					Build()
			}
			w.logger.Warn("Failed to watch directory", logfields.Path(dir), logfields.Error(err))
			continue
		}
		w.watched[dir] = struct{}{}
	}
	return nil
}

// addTree starts watching a newly created directory and its subdirectories.
func (w *Watcher) addTree(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	for _, dir := range dirsBelow(path, w.ignore) {
		if _, ok := w.watched[dir]; ok {
			continue
		}
		if err := w.fsw.Add(dir); err == nil {
			w.watched[dir] = struct{}{}
		}
	}
}

func dirsBelow(root, ignore string) []string {
	var dirs []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if ignore != "" && within(p, ignore) {
			return filepath.SkipDir
		}
		dirs = append(dirs, p)
		return nil
	})
	if err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		slog.Debug("Failed to walk watch root", logfields.Path(root), logfields.Error(err))
	}
	return dirs
}

// Targets lists the existing directories named by top-level configuration
// values, either directly or as list elements. The destination is excluded.
func Targets(cfg *config.Config) []string {
	var out []string
	seen := make(map[string]struct{})
	add := func(v any) {
		s, ok := v.(string)
		if !ok || s == "" {
			return
		}
		p := filepath.Clean(cfg.Resolve(s))
		if _, dup := seen[p]; dup {
			return
		}
		if cfg.Destination != "" && within(p, filepath.Clean(cfg.Destination)) {
			return
		}
		if info, err := os.Stat(p); err != nil || !info.IsDir() {
			return
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}

	if cfg.Options == nil {
		return nil
	}
	for pair := cfg.Options.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Key == config.KeyDestination {
			continue
		}
		switch v := pair.Value.(type) {
		case string:
			add(v)
		case []any:
			for _, e := range v {
				add(e)
			}
		}
	}
	return out
}

func within(p, root string) bool {
	return p == root || strings.HasPrefix(p, root+string(filepath.Separator))
}
