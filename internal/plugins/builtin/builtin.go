// Package builtin assembles the plugins shipped with kapi.
package builtin

import (
	"git.home.luguber.info/inful/kapi/internal/config"
	"git.home.luguber.info/inful/kapi/internal/plugin"
	"git.home.luguber.info/inful/kapi/internal/plugins/apidoc"
	"git.home.luguber.info/inful/kapi/internal/plugins/kss"
	"git.home.luguber.info/inful/kapi/internal/plugins/rules"
	"git.home.luguber.info/inful/kapi/internal/plugins/static"
)

// Catalog returns the built-in plugins configured from cfg, in install order:
// static, apidoc, kss, rules. Declarative rules come last so a declaration
// with a built-in pattern replaces the built-in rule.
func Catalog(cfg *config.Config) (*plugin.Catalog, error) {
	c := plugin.NewCatalog()
	for _, p := range []plugin.Plugin{
		static.New(cfg.Dir, cfg.Folders...),
		apidoc.New(cfg.Dir),
		kss.New(cfg.Dir),
		rules.New(cfg.Rules),
	} {
		if err := c.Add(p); err != nil {
			return nil, err
		}
	}
	return c, nil
}
