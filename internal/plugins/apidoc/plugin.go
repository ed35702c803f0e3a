// Package apidoc documents REST APIs from @api comment blocks.
//
// The plugin hooks the "apidoc" configuration key, whose value names a source
// directory. The hook parses the sources and writes apidoc.json; the file rule
// then turns it into one page per API group.
package apidoc

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/kapi/internal/hooks"
	"git.home.luguber.info/inful/kapi/internal/jsonx"
	"git.home.luguber.info/inful/kapi/internal/plugin"
	"git.home.luguber.info/inful/kapi/internal/site"
	"git.home.luguber.info/inful/kapi/internal/slug"
)

const (
	// Key is the configuration key the plugin hooks.
	Key = "apidoc"
	// Filename is the artifact written by the hook.
	Filename = "apidoc.json"
	// Pattern matches the artifact in the file set.
	Pattern = "*apidoc.json"
	// Collection receives one record per API group.
	Collection = "apidoc"
	// Layout is the template hint for group pages.
	Layout = "layout_apidoc.html"
)

// Plugin is the apidoc plugin.
type Plugin struct {
	baseDir string
}

// New returns the plugin. Relative source directories resolve against baseDir.
func New(baseDir string) *Plugin {
	return &Plugin{baseDir: baseDir}
}

// Metadata describes the plugin.
func (p *Plugin) Metadata() plugin.Metadata {
	return plugin.Metadata{
		Name:         "apidoc",
		Version:      "v1.0.0",
		Description:  "REST API reference pages from @api comment blocks",
		Capabilities: []plugin.Capability{plugin.CapabilitySettingsHook, plugin.CapabilityFileRule},
		Keys:         []string{Key},
	}
}

// Register hooks the apidoc key and adds the rule for apidoc.json.
func (p *Plugin) Register(r *hooks.Registry) error {
	r.RegisterSettingsHook(Key, hooks.Sync(p.generate))
	r.RegisterFileRule(Pattern, Rule())
	return nil
}

func (p *Plugin) generate(_ context.Context, value any, destination string) error {
	src, ok := value.(string)
	if !ok || src == "" {
		return fmt.Errorf("apidoc: expected a source directory, got %T", value)
	}
	if !filepath.IsAbs(src) && p.baseDir != "" {
		src = filepath.Join(p.baseDir, src)
	}

	doc, err := Parse(os.DirFS(src), filepath.Base(src))
	if err != nil {
		return fmt.Errorf("apidoc: parse %s: %w", src, err)
	}
	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return fmt.Errorf("apidoc: encode: %w", err)
	}
	if err := os.MkdirAll(destination, 0o755); err != nil {
		return fmt.Errorf("apidoc: %w", err)
	}
	return os.WriteFile(filepath.Join(destination, Filename), data, 0o644)
}

// Rule groups the endpoints of an apidoc artifact by their group, in order of
// first appearance, producing one record per group.
func Rule() hooks.Rule {
	return hooks.Rule{
		Select: selectGroups,
		NameOf: func(record any) (string, error) {
			title := jsonx.String(field(record, "title"))
			name := slug.Make(title)
			if name == "" {
				return "", fmt.Errorf("apidoc: group %q has no usable name", title)
			}
			return "api/" + name + ".md", nil
		},
		MetaOf: func(record any) (site.Metadata, error) {
			return site.Metadata{
				site.KeyTitle:      jsonx.String(field(record, "title")),
				site.KeyCollection: Collection,
				site.KeyLayout:     Layout,
				site.KeyData:       field(record, "methods"),
				site.KeyContents:   "",
			}, nil
		},
	}
}

func selectGroups(doc any) ([]any, error) {
	data, ok := jsonx.Lookup(doc, "data")
	if !ok {
		return nil, fmt.Errorf("apidoc: artifact has no data member")
	}

	groups := jsonx.NewObject()
	for _, endpoint := range jsonx.Values(data) {
		name := jsonx.String(field(endpoint, "group"))
		existing, ok := groups.Get(name)
		if !ok {
			groups.Set(name, []any{endpoint})
			continue
		}
		groups.Set(name, append(existing.([]any), endpoint))
	}

	out := make([]any, 0, groups.Len())
	for pair := groups.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, jsonx.ObjectOf("title", pair.Key, "methods", pair.Value))
	}
	return out, nil
}

func field(v any, key string) any {
	val, _ := jsonx.Lookup(v, key)
	return val
}
