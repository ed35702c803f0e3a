package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/kapi/internal/config"
	"git.home.luguber.info/inful/kapi/internal/eventstore"
	"git.home.luguber.info/inful/kapi/internal/foundation/errors"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	History string `name:"history" help:"SQLite build history database (overrides history.path)" type:"path"`
	Limit   int    `short:"n" help:"Number of runs to show" default:"10"`
	RunID   string `name:"run" help:"Show a single run with its stages"`
	JSON    bool   `name:"json" help:"Print JSON instead of a table"`
}

func (h *HistoryCmd) Run(ctx context.Context, g *Global, root *CLI) error {
	var cfg *config.Config
	if h.History == "" {
		loaded, err := root.loadConfig(g)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	path := historyPath(h.History, cfg)
	if path == "" {
		return errors.ValidationError("no history database configured; set history.path or pass --history").Build()
	}

	store, err := eventstore.NewSQLiteStore(path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	var runs []*eventstore.RunSummary
	if h.RunID != "" {
		run, ok, err := eventstore.Run(ctx, store, h.RunID)
		if err != nil {
			return err
		}
		if !ok {
			return errors.NewError(errors.CategoryNotFound, "run not found").
				WithContext("run_id", h.RunID).
				Build()
		}
		runs = append(runs, run)
	} else {
		runs, err = eventstore.History(ctx, store, time.Time{}, h.Limit)
		if err != nil {
			return err
		}
	}

	if h.JSON {
		enc := json.NewEncoder(g.out())
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	tw := tabwriter.NewWriter(g.out(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSTATUS\tSTARTED\tDURATION\tFILES\tERROR")
	for _, r := range runs {
		errText := ""
		if r.ErrorStage != "" {
			errText = r.ErrorStage + ": " + r.ErrorMessage
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
			r.RunID, r.Status, r.StartedAt.Format(time.RFC3339), r.Duration.Round(time.Millisecond), r.Files, errText)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if h.RunID != "" && len(runs) == 1 {
		out := g.out()
		fmt.Fprintln(out)
		for _, st := range runs[0].Stages {
			fmt.Fprintf(out, "  %-10s %s\n", st.Stage, st.Duration)
		}
	}
	return nil
}
