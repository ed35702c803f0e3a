// Package collector copies registered folders into the build destination.
package collector

import (
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"git.home.luguber.info/inful/kapi/internal/foundation/errors"
	"git.home.luguber.info/inful/kapi/internal/logfields"
)

// Option configures a Collector.
type Option func(*Collector)

// WithSourceFS replaces os.DirFS as the way folders are opened.
func WithSourceFS(open func(dir string) fs.FS) Option {
	return func(c *Collector) {
		if open != nil {
			c.open = open
		}
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Collector) {
		if l != nil {
			c.logger = l
		}
	}
}

// Collector copies folders, each into a directory named after its basename.
type Collector struct {
	folders []string
	open    func(dir string) fs.FS
	logger  *slog.Logger
}

// New creates a collector for folders, copied in the given order.
func New(folders []string, opts ...Option) *Collector {
	c := &Collector{
		folders: folders,
		open:    os.DirFS,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Collect copies every folder recursively to <basename(folder)> under dest,
// overwriting existing files. The first failure aborts.
func (c *Collector) Collect(dest billy.Filesystem) error {
	for _, folder := range c.folders {
		dir := filepath.Clean(folder)
		base := filepath.Base(dir)
		if base == "." || base == string(filepath.Separator) {
			return errors.ValidationError("folder has no basename to collect into").
				WithContext("path", folder).
				Build()
		}
		n, err := copyTree(c.open(dir), dest, base)
		if err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "collect folder").
				WithContext("path", folder).
				Build()
		}
		c.logger.Debug("Collected folder", logfields.Path(folder), logfields.Count(n))
	}
	return nil
}

func copyTree(src fs.FS, dest billy.Filesystem, root string) (int, error) {
	info, err := fs.Stat(src, ".")
	if err != nil {
		return 0, err
	}
	if !info.IsDir() {
		return 0, &fs.PathError{Op: "collect", Path: root, Err: fs.ErrInvalid}
	}

	copied := 0
	err = fs.WalkDir(src, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		target := path.Join(root, p)
		if d.IsDir() {
			return dest.MkdirAll(target, 0o755)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		data, err := fs.ReadFile(src, p)
		if err != nil {
			return err
		}
		if err := util.WriteFile(dest, target, data, 0o644); err != nil {
			return err
		}
		copied++
		return nil
	})
	return copied, err
}
