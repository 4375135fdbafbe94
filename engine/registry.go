package engine

import (
	"fmt"
	"sort"
)

// Registry holds named engines so consumers receive their table clients
// by injection instead of through a process-wide cache. Build and
// populate it once at process start, then pass it by reference; it is
// not safe for concurrent registration.
type Registry struct {
	engines map[string]*Engine
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{engines: make(map[string]*Engine)}
}

// Register adds an engine under a name, replacing any previous entry.
func (r *Registry) Register(name string, e *Engine) {
	r.engines[name] = e
}

// Engine returns the engine registered under name.
func (r *Registry) Engine(name string) (*Engine, error) {
	e, ok := r.engines[name]
	if !ok {
		return nil, &ValidationError{Field: "name", Reason: fmt.Sprintf("no engine registered as %q", name)}
	}
	return e, nil
}

// Names returns the registered engine names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.engines))
	for name := range r.engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
