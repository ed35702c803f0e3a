// Package commands implements the kapi command line.
package commands

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/kapi/internal/build"
	"git.home.luguber.info/inful/kapi/internal/config"
	"git.home.luguber.info/inful/kapi/internal/eventstore"
	"git.home.luguber.info/inful/kapi/internal/logfields"
	"git.home.luguber.info/inful/kapi/internal/metrics"
	"git.home.luguber.info/inful/kapi/internal/plugins/builtin"
)

// Global is shared state passed to every command.
type Global struct {
	Logger *slog.Logger
	Stdout io.Writer
}

func (g *Global) out() io.Writer {
	if g == nil || g.Stdout == nil {
		return os.Stdout
	}
	return g.Stdout
}

// CLI is the root command with the global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"kapi.json" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" default:"1" help:"Build the site once"`
	Watch   WatchCmd   `cmd:"" help:"Build, then rebuild whenever inputs change"`
	Init    InitCmd    `cmd:"" help:"Write an example configuration file"`
	Plugins PluginsCmd `cmd:"" help:"List installed plugins and what they register"`
	History HistoryCmd `cmd:"" help:"List recent builds from the history database"`
}

// AfterApply runs after flag parsing and installs the default logger. The
// configuration's logging section refines it once loaded.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

// loadConfig reads the configuration and applies its logging section.
func (c *CLI) loadConfig(g *Global) (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg.Logging, c.Verbose)
	slog.SetDefault(logger)
	if g != nil {
		g.Logger = logger
	}
	return cfg, nil
}

func newLogger(l config.Logging, verbose bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: l.SlogLevel()}
	if verbose {
		opts.Level = slog.LevelDebug
	}
	if l.JSON() {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// BuildFlags are shared by build and watch.
type BuildFlags struct {
	MetricsFile string `name:"metrics-file" help:"Write Prometheus metrics to this textfile after each build" type:"path"`
	History     string `name:"history" help:"SQLite build history database (overrides history.path)" type:"path"`
}

// session holds what a sequence of builds shares: the metrics recorder and
// the history store.
type session struct {
	flags    BuildFlags
	recorder *metrics.PrometheusRecorder
	store    *eventstore.SQLiteStore
	logger   *slog.Logger
}

func newSession(flags BuildFlags, logger *slog.Logger) *session {
	s := &session{flags: flags, logger: logger}
	if flags.MetricsFile != "" {
		s.recorder = metrics.NewPrometheusRecorder(prom.NewRegistry())
	}
	return s
}

// open lazily opens the history store named by the flag or the configuration.
func (s *session) open(cfg *config.Config) error {
	if s.store != nil {
		return nil
	}
	path := historyPath(s.flags.History, cfg)
	if path == "" {
		return nil
	}
	store, err := eventstore.NewSQLiteStore(path)
	if err != nil {
		return err
	}
	s.store = store
	return nil
}

func (s *session) build(ctx context.Context, cfg *config.Config, trigger string) (*build.Report, error) {
	if err := s.open(cfg); err != nil {
		return nil, err
	}
	catalog, err := builtin.Catalog(cfg)
	if err != nil {
		return nil, err
	}

	opts := []build.Option{build.WithLogger(s.logger), build.WithTrigger(trigger)}
	if s.recorder != nil {
		opts = append(opts, build.WithRecorder(s.recorder))
	}
	if s.store != nil {
		opts = append(opts, build.WithStore(s.store))
	}
	report, err := build.New(cfg, catalog, opts...).Run(ctx)

	if s.recorder != nil {
		if werr := s.recorder.WriteTextfile(s.flags.MetricsFile); werr != nil {
			s.logger.Warn("Failed to write metrics textfile", logfields.Path(s.flags.MetricsFile), logfields.Error(werr))
		}
	}
	return report, err
}

func (s *session) close() {
	if s.store != nil {
		_ = s.store.Close()
	}
}

func historyPath(flag string, cfg *config.Config) string {
	if flag != "" {
		return flag
	}
	if cfg != nil {
		return cfg.History.Path
	}
	return ""
}
