// Package settings is the process-wide configuration storage behind
// blueprint resolution. Values are keyed by (app, component): an application
// registers default options for a component, and resolution walks an ordered
// list of scopes looking those options up. The store is read-only from the
// resolver's point of view; absence of a scope or component is a valid
// outcome, never an error.
package settings

import (
	"sort"
	"sync"
)

// FrameworkScope is the app name under which framework-wide defaults live.
const FrameworkScope = "gazet"

// SubscriberComponent is the component key subscriber defaults live under.
const SubscriberComponent = "subscriber"

// Scope identifies one (app, component) lookup candidate.
type Scope struct {
	App       string
	Component string
}

// Store is the read-only lookup contract blueprint resolution depends on.
type Store interface {
	// Lookup returns the options configured for (app, component), or false
	// when nothing is configured there.
	Lookup(app, component string) (map[string]any, bool)
}

// Registry is an in-memory Store safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	values map[string]map[string]map[string]any
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{values: make(map[string]map[string]map[string]any)}
}

// Default is the process-wide registry used when no explicit store is
// supplied to a builder.
var Default = NewRegistry()

// Put replaces the options stored for (app, component).
func (r *Registry) Put(app, component string, values map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	components, ok := r.values[app]
	if !ok {
		components = make(map[string]map[string]any)
		r.values[app] = components
	}

	cloned := make(map[string]any, len(values))
	for k, v := range values {
		cloned[k] = v
	}
	components[component] = cloned
}

// Delete removes the options stored for (app, component).
func (r *Registry) Delete(app, component string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if components, ok := r.values[app]; ok {
		delete(components, component)
		if len(components) == 0 {
			delete(r.values, app)
		}
	}
}

// Lookup implements Store. The returned map is a copy; nested values are
// shared and must be treated as read-only.
func (r *Registry) Lookup(app, component string) (map[string]any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	components, ok := r.values[app]
	if !ok {
		return nil, false
	}
	values, ok := components[component]
	if !ok {
		return nil, false
	}

	cloned := make(map[string]any, len(values))
	for k, v := range values {
		cloned[k] = v
	}
	return cloned, true
}

// Apps returns the app names with at least one configured component, sorted.
func (r *Registry) Apps() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	apps := make([]string, 0, len(r.values))
	for app := range r.values {
		apps = append(apps, app)
	}
	sort.Strings(apps)
	return apps
}

// Put stores values in the Default registry.
func Put(app, component string, values map[string]any) {
	Default.Put(app, component, values)
}

// Delete removes values from the Default registry.
func Delete(app, component string) {
	Default.Delete(app, component)
}

// Lookup reads from the Default registry.
func Lookup(app, component string) (map[string]any, bool) {
	return Default.Lookup(app, component)
}
