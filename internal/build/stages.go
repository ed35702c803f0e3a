package build

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"

	"git.home.luguber.info/inful/kapi/internal/chain"
	"git.home.luguber.info/inful/kapi/internal/collector"
	"git.home.luguber.info/inful/kapi/internal/config"
	"git.home.luguber.info/inful/kapi/internal/foundation/errors"
	"git.home.luguber.info/inful/kapi/internal/hooks"
	"git.home.luguber.info/inful/kapi/internal/metrics"
	"git.home.luguber.info/inful/kapi/internal/site"
	"git.home.luguber.info/inful/kapi/internal/transform"
)

type stage struct {
	name string
	fn   func(ctx context.Context) error
}

// run holds the state passed between the stages of one build.
type run struct {
	cfg      *config.Config
	registry *hooks.Registry
	logger   *slog.Logger
	recorder metrics.Recorder
	report   *Report

	files       *site.FileSet
	collections *site.Collections
}

func (r *run) stages() []stage {
	return []stage{
		{StagePrepare, r.prepare},
		{StageCollect, r.collect},
		{StageHooks, r.runHooks},
		{StageLoad, r.load},
		{StageTransform, r.transformFiles},
		{StageWrite, r.write},
	}
}

// prepare empties the hook output directory, removing the whole destination
// first when clean is set.
func (r *run) prepare(context.Context) error {
	if r.cfg.Clean {
		if err := r.checkCleanTarget(); err != nil {
			return err
		}
		if err := os.RemoveAll(r.cfg.Destination); err != nil {
			return fsError(err, "failed to clean destination", r.cfg.Destination)
		}
	}
	src := r.cfg.SourceDir()
	if err := os.RemoveAll(src); err != nil {
		return fsError(err, "failed to reset source directory", src)
	}
	if err := os.MkdirAll(src, 0o755); err != nil {
		return fsError(err, "failed to create source directory", src)
	}
	return nil
}

// checkCleanTarget refuses to remove a destination that contains the
// configuration file.
func (r *run) checkCleanTarget() error {
	dest := filepath.Clean(r.cfg.Destination)
	dir := filepath.Clean(r.cfg.Dir)
	if dir == dest || strings.HasPrefix(dir, dest+string(filepath.Separator)) {
		return errors.ValidationError("refusing to clean a destination that contains the configuration").
			WithContext("destination", dest).
			Build()
	}
	return nil
}

func (r *run) collect(context.Context) error {
	if err := os.MkdirAll(r.cfg.Destination, 0o755); err != nil {
		return fsError(err, "failed to create destination", r.cfg.Destination)
	}
	c := collector.New(r.registry.Folders(), collector.WithLogger(r.logger))
	return c.Collect(osfs.New(r.cfg.Destination))
}

func (r *run) runHooks(ctx context.Context) error {
	runner := chain.New(r.cfg.Options, r.registry, r.cfg.SourceDir(),
		chain.WithLogger(r.logger),
		chain.WithRecorder(r.recorder))
	err := runner.Run(ctx)
	r.report.DuplicateSignals = runner.DuplicateSignals()
	return err
}

func (r *run) load(context.Context) error {
	files, err := site.Load(os.DirFS(r.cfg.SourceDir()))
	if err != nil {
		return err
	}
	r.files = files
	return nil
}

func (r *run) transformFiles(context.Context) error {
	policy, err := transform.ParseCollisionPolicy(r.cfg.Collisions)
	if err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "invalid collision policy").
			WithContext("key", config.KeyCollisions).
			Build()
	}
	t := transform.New(r.registry.FileRules(),
		transform.WithCollisionPolicy(policy),
		transform.WithLogger(r.logger),
		transform.WithRecorder(r.recorder))
	result, err := t.Transform(r.files)
	if err != nil {
		return err
	}
	r.collections = result.Collections
	r.report.Expanded = result.Expanded
	r.report.Produced = result.Produced
	return nil
}

// write replaces the build directory with the transformed file set.
func (r *run) write(context.Context) error {
	out := r.cfg.BuildDir()
	if err := os.RemoveAll(out); err != nil {
		return fsError(err, "failed to reset build directory", out)
	}
	if err := os.MkdirAll(out, 0o755); err != nil {
		return fsError(err, "failed to create build directory", out)
	}
	if err := site.NewWriter(osfs.New(out)).Write(r.files, r.collections); err != nil {
		return fsError(err, "failed to write build output", out)
	}
	r.report.Output = out
	r.report.Files = r.files.Len()
	r.report.Collections = r.collections.Len()
	return nil
}

func fsError(err error, msg, path string) error {
	return errors.WrapError(err, errors.CategoryFileSystem, msg).
		WithContext("path", path).
		Build()
}
