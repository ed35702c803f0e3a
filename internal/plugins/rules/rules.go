// Package rules registers file rules declared in the configuration.
//
// Each declaration names a glob pattern, a JSONPath selector evaluated
// against the parsed artifact, and text/template strings computing each
// record's path and title. Templates see the record as dot and may call
// slug.
package rules

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/ohler55/ojg/jp"

	"git.home.luguber.info/inful/kapi/internal/config"
	"git.home.luguber.info/inful/kapi/internal/hooks"
	"git.home.luguber.info/inful/kapi/internal/jsonx"
	"git.home.luguber.info/inful/kapi/internal/plugin"
	"git.home.luguber.info/inful/kapi/internal/site"
	"git.home.luguber.info/inful/kapi/internal/slug"
)

var funcs = template.FuncMap{
	"slug":  slug.Make,
	"lower": strings.ToLower,
	"upper": strings.ToUpper,
}

// Plugin registers the declared rules.
type Plugin struct {
	decls []config.Rule
}

// New returns the plugin for decls.
func New(decls []config.Rule) *Plugin {
	return &Plugin{decls: decls}
}

func (p *Plugin) Metadata() plugin.Metadata {
	return plugin.Metadata{
		Name:         "rules",
		Version:      "v1.0.0",
		Description:  "File rules declared in the configuration",
		Capabilities: []plugin.Capability{plugin.CapabilityFileRule},
	}
}

// Register compiles every declaration before registering any, so a bad
// declaration leaves the registry untouched.
func (p *Plugin) Register(r *hooks.Registry) error {
	compiled := make([]hooks.PatternRule, 0, len(p.decls))
	for i, d := range p.decls {
		rule, err := Compile(d)
		if err != nil {
			return fmt.Errorf("rule %d (%s): %w", i, d.Pattern, err)
		}
		compiled = append(compiled, hooks.PatternRule{Pattern: d.Pattern, Rule: rule})
	}
	for _, pr := range compiled {
		r.RegisterFileRule(pr.Pattern, pr.Rule)
	}
	return nil
}

// Compile turns a declaration into a rule. Empty select and name fall back to
// the default rule's selector and naming.
func Compile(d config.Rule) (hooks.Rule, error) {
	var rule hooks.Rule

	if d.Select != "" {
		expr, err := jp.ParseString(d.Select)
		if err != nil {
			return rule, fmt.Errorf("select: %w", err)
		}
		rule.Select = func(doc any) ([]any, error) {
			return jsonx.Select(expr, doc), nil
		}
	}

	name, err := parseTemplate("name", d.Name)
	if err != nil {
		return rule, err
	}
	title, err := parseTemplate("title", d.Title)
	if err != nil {
		return rule, err
	}

	if name != nil {
		rule.NameOf = func(record any) (string, error) {
			return execute(name, record)
		}
	}
	rule.MetaOf = func(record any) (site.Metadata, error) {
		meta := site.Metadata{site.KeyData: jsonx.Plain(record)}
		if title != nil {
			t, err := execute(title, record)
			if err != nil {
				return nil, err
			}
			meta[site.KeyTitle] = t
		}
		if d.Layout != "" {
			meta[site.KeyLayout] = d.Layout
		}
		if d.Collection != "" {
			meta[site.KeyCollection] = d.Collection
		}
		return meta, nil
	}
	return rule, nil
}

func parseTemplate(name, text string) (*template.Template, error) {
	if text == "" {
		return nil, nil
	}
	t, err := template.New(name).Funcs(funcs).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("%s template: %w", name, err)
	}
	return t, nil
}

func execute(t *template.Template, record any) (string, error) {
	var b strings.Builder
	if err := t.Execute(&b, jsonx.Plain(record)); err != nil {
		return "", fmt.Errorf("%s template: %w", t.Name(), err)
	}
	return b.String(), nil
}
