package require

import "sync"

// Registry is the in-memory file:// module source registry the host
// mutates out-of-band (spec.md §4.6: "file:// modules come from a
// registry the host mutates through out-of-band registration"). It has
// process lifetime, independent of any one invocation.
type Registry struct {
	mu      sync.RWMutex
	modules map[string]string
}

// NewRegistry constructs an empty file:// registry.
func NewRegistry() *Registry {
	return &Registry{modules: make(map[string]string)}
}

// Register associates name (the part of a file://NAME specifier after the
// scheme) with its Lua source.
func (r *Registry) Register(name, source string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modules[name] = source
}

// Unregister removes a previously-registered module.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.modules, name)
}

// Get looks up a registered module's source by name.
func (r *Registry) Get(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	src, ok := r.modules[name]
	return src, ok
}
