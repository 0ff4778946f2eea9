package transport

import (
	"sort"
	"sync"
)

// Registry maps script names to in-process logic.
type Registry struct {
	mu      sync.RWMutex
	scripts map[string]Func
}

func NewRegistry() *Registry {
	return &Registry{scripts: make(map[string]Func)}
}

// Register makes fn available under name, replacing any previous registration.
func (r *Registry) Register(name string, fn Func) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scripts[name] = fn
	return r
}

func (r *Registry) Lookup(name string) (Func, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.scripts[name]
	return fn, ok
}

// Names returns the registered script names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.scripts))
	for name := range r.scripts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
