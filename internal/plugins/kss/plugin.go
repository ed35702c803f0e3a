// Package kss documents stylesheets from KSS comment blocks.
//
// The plugin hooks the "kss" configuration key, whose value names a
// stylesheet directory. Parsing runs on its own goroutine and reports back
// through the hook's completion signal. The file rule turns the resulting
// kss.json into one page per section.
package kss

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/kapi/internal/hooks"
	"git.home.luguber.info/inful/kapi/internal/jsonx"
	"git.home.luguber.info/inful/kapi/internal/logfields"
	"git.home.luguber.info/inful/kapi/internal/plugin"
	"git.home.luguber.info/inful/kapi/internal/site"
	"git.home.luguber.info/inful/kapi/internal/slug"
)

const (
	// Key is the configuration key the plugin hooks.
	Key = "kss"
	// Filename is the artifact written by the hook.
	Filename = "kss.json"
	// Pattern matches the artifact in the file set.
	Pattern = "*kss.json"
	// Collection receives one record per style guide section.
	Collection = "kss"
	// Layout is the template hint for section pages.
	Layout = "layout_kss.html"
)

// Plugin is the kss plugin.
type Plugin struct {
	baseDir string
}

// New returns the plugin. Relative stylesheet directories resolve against baseDir.
func New(baseDir string) *Plugin {
	return &Plugin{baseDir: baseDir}
}

// Metadata describes the plugin.
func (p *Plugin) Metadata() plugin.Metadata {
	return plugin.Metadata{
		Name:         "kss",
		Version:      "v1.0.0",
		Description:  "Style guide pages from KSS stylesheet comments",
		Capabilities: []plugin.Capability{plugin.CapabilitySettingsHook, plugin.CapabilityFileRule},
		Keys:         []string{Key},
	}
}

// Register hooks the kss key and adds the rule for kss.json. The hook
// completes asynchronously.
func (p *Plugin) Register(r *hooks.Registry) error {
	r.RegisterSettingsHook(Key, p.generate)
	r.RegisterFileRule(Pattern, Rule())
	return nil
}

func (p *Plugin) generate(_ context.Context, value any, destination string, done hooks.Done) error {
	src, ok := value.(string)
	if !ok || src == "" {
		return fmt.Errorf("kss: expected a stylesheet directory, got %T", value)
	}
	if !filepath.IsAbs(src) && p.baseDir != "" {
		src = filepath.Join(p.baseDir, src)
	}

	go func() {
		done(write(src, destination))
	}()
	return nil
}

func write(src, destination string) error {
	sg, err := Parse(os.DirFS(src))
	if err != nil {
		return fmt.Errorf("kss: parse %s: %w", src, err)
	}
	data, err := json.MarshalIndent(sg, "", "    ")
	if err != nil {
		return fmt.Errorf("kss: encode: %w", err)
	}
	if err := os.MkdirAll(destination, 0o755); err != nil {
		return fmt.Errorf("kss: %w", err)
	}
	if err := os.WriteFile(filepath.Join(destination, Filename), data, 0o644); err != nil {
		return fmt.Errorf("kss: %w", err)
	}
	slog.Debug("Style guide parsed", logfields.Path(src), logfields.Count(len(sg.Sections)))
	return nil
}

// Rule yields one record per section.
func Rule() hooks.Rule {
	return hooks.Rule{
		Select: func(doc any) ([]any, error) {
			sections, ok := jsonx.Lookup(doc, "sections")
			if !ok {
				return nil, fmt.Errorf("kss: artifact has no sections member")
			}
			return jsonx.Values(sections), nil
		},
		NameOf: func(record any) (string, error) {
			header := header(record)
			name := slug.Make(header)
			if name == "" {
				return "", fmt.Errorf("kss: section %q has no usable name", header)
			}
			return "styleguide/" + name + ".md", nil
		},
		MetaOf: func(record any) (site.Metadata, error) {
			return site.Metadata{
				site.KeyTitle:      header(record),
				site.KeyCollection: Collection,
				site.KeyLayout:     Layout,
				site.KeyData:       record,
				site.KeyContents:   "",
			}, nil
		},
	}
}

func header(record any) string {
	h, _ := jsonx.Lookup(record, "header")
	return jsonx.String(h)
}
