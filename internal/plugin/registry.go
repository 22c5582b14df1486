package plugin

import (
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/joshuapare/hivebatch/internal/match"
)

// Registry holds the plugins available to one run, in registration order.
type Registry struct {
	log     *slog.Logger
	plugins []Plugin
	ids     map[string]Plugin
}

// NewRegistry returns a registry seeded with the statically registered
// plugins.
func NewRegistry(log *slog.Logger) *Registry {
	r := &Registry{log: log, ids: make(map[string]Plugin)}
	for _, p := range Builtins() {
		r.Register(p)
	}
	return r
}

// Register adds p. It returns false, logging a warning, when the ID is not a
// GUID or is already taken; the first plugin with an ID wins.
func (r *Registry) Register(p Plugin) bool {
	id := p.ID()
	parsed, err := uuid.Parse(id)
	if err != nil {
		r.log.Warn("plugin ID is not a GUID, skipping", "plugin", p.Name(), "id", id)
		return false
	}
	key := parsed.String()
	if prev, dup := r.ids[key]; dup {
		r.log.Warn("duplicate plugin ID, keeping first", "id", id, "kept", prev.Name(), "skipped", p.Name())
		return false
	}
	r.ids[key] = p
	r.plugins = append(r.plugins, p)
	r.log.Debug("registered plugin", "plugin", p.Name(), "id", id, "key_paths", strings.Join(p.KeyPaths(), ", "))
	return true
}

// Plugins returns the registered plugins in order.
func (r *Registry) Plugins() []Plugin {
	return append([]Plugin(nil), r.plugins...)
}

// Len returns the number of registered plugins.
func (r *Registry) Len() int { return len(r.plugins) }

// SelectFor returns, in registration order, each plugin with a key path
// pattern matching keyPath. valueName is the value filter of the rule being
// processed. A plugin appears at most once.
func (r *Registry) SelectFor(keyPath, valueName string) []Plugin {
	var out []Plugin
	for _, p := range r.plugins {
		for _, pattern := range p.KeyPaths() {
			if match.Matches(pattern, p.ValueName(), keyPath, valueName) {
				out = append(out, p)
				break
			}
		}
	}
	return out
}
