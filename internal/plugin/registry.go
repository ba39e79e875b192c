package plugin

import (
	"fmt"
	"sort"
	"sync"
)

// Registry manages plugin registration and hook lookup.
type Registry struct {
	mu      sync.RWMutex
	plugins map[string]Plugin
}

// NewRegistry creates a new empty plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		plugins: make(map[string]Plugin),
	}
}

// Register adds a plugin to the registry.
// Returns an error if a plugin with the same name already exists.
func (r *Registry) Register(p Plugin) error {
	if p == nil {
		return fmt.Errorf("cannot register nil plugin")
	}

	metadata := p.Metadata()
	if err := metadata.Validate(); err != nil {
		return fmt.Errorf("invalid plugin metadata: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, exists := r.plugins[metadata.Name]; exists {
		return fmt.Errorf("plugin %s already registered as %s", metadata.Name, existing.Metadata())
	}

	r.plugins[metadata.Name] = p
	return nil
}

// MustRegister registers every plugin, panicking on the first error.
func (r *Registry) MustRegister(plugins ...Plugin) {
	for _, p := range plugins {
		if err := r.Register(p); err != nil {
			panic(err)
		}
	}
}

// Get retrieves a plugin by name.
func (r *Registry) Get(name string) (Plugin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.plugins[name]
	if !ok {
		return nil, fmt.Errorf("plugin %s not found", name)
	}
	return p, nil
}

// Has checks if a plugin with the given name exists.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.plugins[name]
	return ok
}

// Unregister removes a plugin from the registry.
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.plugins[name]; !ok {
		return fmt.Errorf("plugin %s not found", name)
	}
	delete(r.plugins, name)
	return nil
}

// List returns all registered plugins ordered by priority (stable by name for equal priority).
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	items := make([]Plugin, 0, len(r.plugins))
	for _, p := range r.plugins {
		items = append(items, p)
	}
	r.mu.RUnlock()

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].Metadata(), items[j].Metadata()
		if a.Priority == b.Priority {
			return a.Name < b.Name
		}
		return a.Priority < b.Priority
	})
	return items
}

// ForHook returns the plugins implementing hook, in execution order.
func (r *Registry) ForHook(hook Hook) []Plugin {
	var out []Plugin
	for _, p := range r.List() {
		if Implements(p, hook) {
			out = append(out, p)
		}
	}
	return out
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}
