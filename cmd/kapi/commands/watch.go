package commands

import (
	"context"
	"time"

	"git.home.luguber.info/inful/kapi/internal/config"
	"git.home.luguber.info/inful/kapi/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	BuildFlags `embed:""`

	Debounce time.Duration `help:"Quiet period after the last change before rebuilding" default:"300ms"`
	Every    time.Duration `help:"Also rebuild at this interval (0 disables)" default:"0s"`
}

func (w *WatchCmd) Run(ctx context.Context, g *Global, root *CLI) error {
	// Fail early on a broken configuration; later reload errors only skip a build.
	cfg, err := root.loadConfig(g)
	if err != nil {
		return err
	}

	s := newSession(w.BuildFlags, g.Logger)
	defer s.close()
	if err := s.open(cfg); err != nil {
		return err
	}

	rebuild := func(ctx context.Context, trigger string) (*config.Config, error) {
		cfg, err := config.Load(root.Config)
		if err != nil {
			return nil, err
		}
		_, err = s.build(ctx, cfg, trigger)
		return cfg, err
	}

	watcher, err := watch.New(cfg.Path, rebuild,
		watch.WithDebounce(w.Debounce),
		watch.WithEvery(w.Every),
		watch.WithLogger(g.Logger))
	if err != nil {
		return err
	}
	return watcher.Run(ctx)
}
