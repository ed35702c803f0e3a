package plugin

import (
	"fmt"
	"log/slog"
	"sync"

	"git.home.luguber.info/inful/kapi/internal/foundation/errors"
	"git.home.luguber.info/inful/kapi/internal/hooks"
	"git.home.luguber.info/inful/kapi/internal/logfields"
)

// Catalog is an ordered set of plugins, installed into a registry in the
// order they were added.
type Catalog struct {
	mu      sync.RWMutex
	plugins []Plugin
	byName  map[string]Plugin
}

// NewCatalog creates an empty catalogue.
func NewCatalog() *Catalog {
	return &Catalog{byName: make(map[string]Plugin)}
}

// Add appends a plugin. Plugins with invalid metadata or a name already in the
// catalogue are rejected.
func (c *Catalog) Add(p Plugin) error {
	if p == nil {
		return fmt.Errorf("cannot add nil plugin")
	}

	metadata := p.Metadata()
	if err := metadata.Validate(); err != nil {
		return fmt.Errorf("invalid plugin metadata: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.byName[metadata.Name]; ok {
		return fmt.Errorf("plugin %s already added as %s", metadata.Name, existing.Metadata())
	}
	c.byName[metadata.Name] = p
	c.plugins = append(c.plugins, p)
	return nil
}

// Get retrieves a plugin by name.
func (c *Catalog) Get(name string) (Plugin, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.byName[name]
	if !ok {
		return nil, fmt.Errorf("plugin %s not found", name)
	}
	return p, nil
}

// List returns the plugins in insertion order.
func (c *Catalog) List() []Plugin {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Plugin(nil), c.plugins...)
}

// Count returns the number of plugins.
func (c *Catalog) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.plugins)
}

// Install registers every plugin with r, in order. The first failure stops
// the installation and is returned as a plugin error.
func (c *Catalog) Install(r *hooks.Registry) error {
	for _, p := range c.List() {
		metadata := p.Metadata()
		if err := p.Register(r); err != nil {
			return errors.PluginError("plugin registration failed").
				WithCause(err).
				WithContext("plugin", metadata.Name).
				WithContext("version", metadata.Version).
				Build()
		}
		slog.Debug("Plugin installed", logfields.Plugin(metadata.Name), slog.String("version", metadata.Version))
	}
	return nil
}
