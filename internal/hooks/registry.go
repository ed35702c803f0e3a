package hooks

import (
	"log/slog"
	"slices"
	"sync"

	"git.home.luguber.info/inful/kapi/internal/logfields"
)

// Registry collects plugin registrations. The zero value is not usable; call
// NewRegistry.
type Registry struct {
	mu       sync.RWMutex
	frozen   bool
	settings map[string][]Hook
	keys     []string
	folders  []string
	rules    []PatternRule
	byGlob   map[string]int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		settings: make(map[string][]Hook),
		byGlob:   make(map[string]int),
	}
}

// RegisterSettingsHook appends hook to the chain for key. Any key is accepted.
func (r *Registry) RegisterSettingsHook(key string, hook Hook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mustBeOpen("RegisterSettingsHook")

	if _, ok := r.settings[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.settings[key] = append(r.settings[key], hook)
}

// RegisterFolders appends paths to the folders to collect. Duplicates are kept.
func (r *Registry) RegisterFolders(paths ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mustBeOpen("RegisterFolders")

	r.folders = append(r.folders, paths...)
}

// RegisterFileRule stores rule under pattern, filling unset fields from
// DefaultRule. Registering the same pattern again replaces its rule in place.
func (r *Registry) RegisterFileRule(pattern string, rule Rule) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mustBeOpen("RegisterFileRule")

	rule = rule.withDefaults()
	if idx, ok := r.byGlob[pattern]; ok {
		slog.Warn("File rule replaced", logfields.Pattern(pattern))
		r.rules[idx].Rule = rule
		return
	}
	r.byGlob[pattern] = len(r.rules)
	r.rules = append(r.rules, PatternRule{Pattern: pattern, Rule: rule})
}

// Freeze makes the registry immutable. Any later register call panics.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

// Frozen reports whether Freeze has been called.
func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// SettingsHooks returns a copy of the chain registered for key, empty when
// nothing was registered.
func (r *Registry) SettingsHooks(key string) []Hook {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.settings[key])
}

// SettingsKeys returns the keys that have hooks, in first-registration order.
func (r *Registry) SettingsKeys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.keys)
}

// Folders returns the registered folders in registration order.
func (r *Registry) Folders() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.folders)
}

// FileRules returns the file rules in registration order.
func (r *Registry) FileRules() []PatternRule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.rules)
}

func (r *Registry) mustBeOpen(op string) {
	if r.frozen {
		panic("hooks: " + op + " called after the registry was frozen")
	}
}
