// Command kapi builds documentation sites from plugin-generated artifacts.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/kapi/cmd/kapi/commands"
	"git.home.luguber.info/inful/kapi/internal/foundation/errors"
	"git.home.luguber.info/inful/kapi/internal/version"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cli := &commands.CLI{}
	parser, err := kong.New(cli,
		kong.Name("kapi"),
		kong.Description("Documentation site build orchestrator."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
		kong.BindTo(ctx, (*context.Context)(nil)),
	)
	if err != nil {
		return errors.NewCLIErrorAdapter(false, nil).Report(err)
	}

	kctx, err := parser.Parse(args)
	if err != nil {
		parser.Errorf("%s", err)
		return 2
	}

	global := &commands.Global{Logger: slog.Default(), Stdout: os.Stdout}
	err = kctx.Run(global, cli)
	return errors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).Report(err)
}
