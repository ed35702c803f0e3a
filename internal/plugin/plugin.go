// Package plugin describes kapi plugins and the catalogue that installs them.
//
// A plugin contributes registrations to a hooks.Registry: settings hooks,
// folders to collect and file rules. Plugins are installed explicitly into the
// registry of one build; there is no process-wide plugin state.
package plugin

import (
	"fmt"

	"git.home.luguber.info/inful/kapi/internal/hooks"
)

// Plugin contributes registrations to a build.
type Plugin interface {
	// Metadata returns the plugin's identity and what it registers.
	Metadata() Metadata

	// Register adds the plugin's hooks, folders and rules to r.
	Register(r *hooks.Registry) error
}

// Metadata describes a plugin's identity and capabilities.
type Metadata struct {
	// Name is the unique plugin identifier (e.g., "apidoc", "kss").
	Name string

	// Version is the semantic version (e.g., "v1.0.0").
	Version string

	// Description provides a human-readable summary of the plugin's purpose.
	Description string

	// Capabilities lists the kinds of registration the plugin makes.
	Capabilities []Capability

	// Keys lists the configuration keys the plugin hooks into.
	Keys []string
}

// String returns a human-readable representation of the plugin metadata.
func (m Metadata) String() string {
	return fmt.Sprintf("%s@%s", m.Name, m.Version)
}

// Validate checks if the plugin metadata is valid.
func (m Metadata) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("plugin name is required")
	}
	if m.Version == "" {
		return fmt.Errorf("plugin version is required")
	}
	for _, c := range m.Capabilities {
		if !c.IsValid() {
			return fmt.Errorf("invalid plugin capability: %s", c)
		}
	}
	return nil
}

// Has reports whether the plugin declares capability c.
func (m Metadata) Has(c Capability) bool {
	for _, have := range m.Capabilities {
		if have == c {
			return true
		}
	}
	return false
}
