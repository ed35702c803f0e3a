package commands

import (
	"context"
	"fmt"
	"time"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	BuildFlags `embed:""`
}

func (b *BuildCmd) Run(ctx context.Context, g *Global, root *CLI) error {
	cfg, err := root.loadConfig(g)
	if err != nil {
		return err
	}

	s := newSession(b.BuildFlags, g.Logger)
	defer s.close()

	report, err := s.build(ctx, cfg, "cli")
	if err != nil {
		return err
	}
	fmt.Fprintf(g.out(), "Built %d files into %s in %s (run %s)\n",
		report.Files, report.Output, report.Duration.Round(time.Millisecond), report.RunID)
	return nil
}
