package hooks

import "sync"

// Registry groups chains of the same callback type by name.
type Registry[F any] struct {
	mu     sync.RWMutex
	chains map[string]*Chain[F]
	order  []string
}

// NewRegistry creates an empty registry.
func NewRegistry[F any]() *Registry[F] {
	return &Registry[F]{
		chains: make(map[string]*Chain[F]),
	}
}

// Register returns the chain for name, creating it if needed.
// Registering an existing name keeps its callbacks.
func (r *Registry[F]) Register(name string) *Chain[F] {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.chains[name]; ok {
		return c
	}
	c := NewChain[F]()
	r.chains[name] = c
	r.order = append(r.order, name)
	return c
}

// Chain looks up a registered chain.
func (r *Registry[F]) Chain(name string) (*Chain[F], bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.chains[name]
	return c, ok
}

// Names lists registered names in registration order.
func (r *Registry[F]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}
