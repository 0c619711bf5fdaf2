package providers

import "sync"

// Registry holds one Runtime per provider ID so the Orchestrator can fan out
// fetches without knowing concrete client types.
type Registry struct {
	mu       sync.RWMutex
	runtimes map[string]*Runtime
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{runtimes: make(map[string]*Runtime)}
}

// Add registers a Runtime under its provider ID.
func (r *Registry) Add(rt *Runtime) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runtimes[rt.ProviderID()] = rt
}

// Get returns the Runtime for a provider, if registered.
func (r *Registry) Get(providerID string) (*Runtime, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rt, ok := r.runtimes[providerID]
	return rt, ok
}

// All returns every registered Runtime, order unspecified.
func (r *Registry) All() []*Runtime {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Runtime, 0, len(r.runtimes))
	for _, rt := range r.runtimes {
		out = append(out, rt)
	}
	return out
}

// IDs returns every registered provider ID.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.runtimes))
	for id := range r.runtimes {
		out = append(out, id)
	}
	return out
}
