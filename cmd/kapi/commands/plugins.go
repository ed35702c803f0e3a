package commands

import (
	"fmt"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"git.home.luguber.info/inful/kapi/internal/config"
	"git.home.luguber.info/inful/kapi/internal/foundation/errors"
	"git.home.luguber.info/inful/kapi/internal/hooks"
	"git.home.luguber.info/inful/kapi/internal/plugins/builtin"
)

// PluginsCmd implements the 'plugins' command.
type PluginsCmd struct{}

// Run lists the built-in plugins. Without a configuration file the plugins
// are shown with empty settings.
func (p *PluginsCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(g)
	if errors.HasCategory(err, errors.CategoryNotFound) {
		cfg = &config.Config{Dir: filepath.Dir(root.Config)}
	} else if err != nil {
		return err
	}

	catalog, err := builtin.Catalog(cfg)
	if err != nil {
		return err
	}
	registry := hooks.NewRegistry()
	if err := catalog.Install(registry); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(g.out(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PLUGIN\tVERSION\tCAPABILITIES\tDESCRIPTION")
	for _, pl := range catalog.List() {
		md := pl.Metadata()
		caps := make([]string, 0, len(md.Capabilities))
		for _, c := range md.Capabilities {
			caps = append(caps, c.String())
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", md.Name, md.Version, strings.Join(caps, ","), md.Description)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	out := g.out()
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Settings hooks:")
	for _, key := range registry.SettingsKeys() {
		fmt.Fprintf(out, "  %s (%d)\n", key, len(registry.SettingsHooks(key)))
	}
	fmt.Fprintln(out, "File rules:")
	for _, pr := range registry.FileRules() {
		fmt.Fprintf(out, "  %s\n", pr.Pattern)
	}
	fmt.Fprintln(out, "Folders:")
	for _, f := range registry.Folders() {
		fmt.Fprintf(out, "  %s\n", relTo(cfg.Dir, f))
	}
	return nil
}

func relTo(base, p string) string {
	if base == "" {
		return p
	}
	if rel, err := filepath.Rel(base, p); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return p
}

