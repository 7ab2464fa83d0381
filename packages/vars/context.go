// Package vars holds the mutable variable context threaded between chained
// test steps. Sequential runs share one Context; parallel branches each get
// a Clone so concurrent steps never observe each other's extractions.
package vars

import "sync"

// Context is a thread-safe name -> value map. Values are always strings;
// extraction coerces whatever it pulls out of a response to string before
// it lands here.
type Context struct {
	mu     sync.RWMutex
	values map[string]string
}

// New creates a Context seeded with the given variables. The seed map is
// copied, never aliased.
func New(seed map[string]string) *Context {
	c := &Context{values: make(map[string]string, len(seed))}
	for k, v := range seed {
		c.values[k] = v
	}
	return c
}

func (c *Context) Get(name string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[name]
	return v, ok
}

func (c *Context) Set(name, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[name] = value
}

// SetAll merges the given map into the context, overwriting same-named keys.
func (c *Context) SetAll(values map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, v := range values {
		c.values[k] = v
	}
}

// Snapshot returns a copy of the current bindings. Mutating the returned map
// does not affect the context.
func (c *Context) Snapshot() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]string, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}

// Clone returns an independent copy of the context. Parallel branches run
// against clones, so sibling extractions stay invisible to each other.
func (c *Context) Clone() *Context {
	return New(c.Snapshot())
}

// Len returns the number of bound variables.
func (c *Context) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.values)
}
