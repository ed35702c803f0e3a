// Package static registers the configured folders whose contents are copied
// verbatim into the build.
package static

import (
	"path/filepath"

	"git.home.luguber.info/inful/kapi/internal/hooks"
	"git.home.luguber.info/inful/kapi/internal/plugin"
)

// Plugin contributes folders to the collector.
type Plugin struct {
	baseDir string
	folders []string
}

// New returns the plugin. Relative folders resolve against baseDir.
func New(baseDir string, folders ...string) *Plugin {
	return &Plugin{baseDir: baseDir, folders: folders}
}

func (p *Plugin) Metadata() plugin.Metadata {
	return plugin.Metadata{
		Name:         "static",
		Version:      "v1.0.0",
		Description:  "Copies configured folders into the build",
		Capabilities: []plugin.Capability{plugin.CapabilityFolders},
	}
}

func (p *Plugin) Register(r *hooks.Registry) error {
	paths := make([]string, 0, len(p.folders))
	for _, f := range p.folders {
		if f == "" {
			continue
		}
		if !filepath.IsAbs(f) && p.baseDir != "" {
			f = filepath.Join(p.baseDir, f)
		}
		paths = append(paths, filepath.Clean(f))
	}
	r.RegisterFolders(paths...)
	return nil
}
