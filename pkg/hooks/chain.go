package hooks

import "sync"

// Option configures how a callback is added to a Chain.
type Option func(*addOptions)

type addOptions struct {
	last bool
}

// RunLast places the callback in the "always last" list.
func RunLast() Option {
	return func(o *addOptions) {
		o.last = true
	}
}

// AtLast is RunLast when last is true and a no-op otherwise.
func AtLast(last bool) Option {
	return func(o *addOptions) {
		o.last = o.last || last
	}
}

// Chain is an ordered list of callbacks of type F.
// Safe for concurrent use.
type Chain[F any] struct {
	mu     sync.RWMutex
	normal []F
	last   []F
}

// NewChain creates an empty chain.
func NewChain[F any]() *Chain[F] {
	return &Chain[F]{}
}

// Add appends fn to the normal list, or to the last list with RunLast.
func (c *Chain[F]) Add(fn F, opts ...Option) {
	var o addOptions
	for _, opt := range opts {
		opt(&o)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if o.last {
		c.last = append(c.last, fn)
		return
	}
	c.normal = append(c.normal, fn)
}

// Handlers returns a snapshot: normal callbacks, then last callbacks.
func (c *Chain[F]) Handlers() []F {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]F, 0, len(c.normal)+len(c.last))
	out = append(out, c.normal...)
	return append(out, c.last...)
}

// Len returns the number of registered callbacks.
func (c *Chain[F]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.normal) + len(c.last)
}

// Reset drops every callback, including the last ones.
func (c *Chain[F]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.normal = nil
	c.last = nil
}
