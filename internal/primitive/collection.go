// Package primitive implements the name-indexed, change-observable
// collections that back the tool and prompt registries (spec.md §3
// "PrimitiveRegistry<T>", §4.5).
package primitive

import "sync"

// Collection is a concurrent-safe, insertion-ordered, name-unique set of
// values of type T (a tool or prompt descriptor-plus-invoker pair).
type Collection[T any] struct {
	mu      sync.RWMutex
	byName  map[string]T
	order   []string
	subs    []func()
	subsMu  sync.Mutex
}

// New creates an empty collection.
func New[T any]() *Collection[T] {
	return &Collection[T]{byName: make(map[string]T)}
}

// TryAdd adds name -> value if name is not already present, returning
// true on success. Duplicate names are rejected, never overwritten
// (spec.md §4.5 "Conflict on duplicate name returns false").
func (c *Collection[T]) TryAdd(name string, value T) bool {
	c.mu.Lock()
	if _, exists := c.byName[name]; exists {
		c.mu.Unlock()
		return false
	}
	c.byName[name] = value
	c.order = append(c.order, name)
	c.mu.Unlock()

	c.notify()
	return true
}

// Remove deletes name from the collection, returning true if it was present.
func (c *Collection[T]) Remove(name string) bool {
	c.mu.Lock()
	if _, exists := c.byName[name]; !exists {
		c.mu.Unlock()
		return false
	}
	delete(c.byName, name)
	for i, n := range c.order {
		if n == name {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	c.mu.Unlock()

	c.notify()
	return true
}

// TryGet looks up name, returning the zero value and false if absent.
func (c *Collection[T]) TryGet(name string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.byName[name]
	return v, ok
}

// Names returns the current names in insertion order.
func (c *Collection[T]) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Snapshot returns the current values in insertion order. The slice is a
// copy: concurrent mutation of the collection never produces a torn read.
func (c *Collection[T]) Snapshot() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.byName[name])
	}
	return out
}

// Len reports the current number of entries.
func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

// OnChanged registers a callback invoked once per successful Add/Remove.
// Callbacks run synchronously on the mutating goroutine (spec.md §5
// "Changed subscribers may be invoked from any thread"); callers wanting
// an MCP list_changed notification should make their callback just
// enqueue a write rather than do real work inline.
func (c *Collection[T]) OnChanged(fn func()) {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	c.subs = append(c.subs, fn)
}

func (c *Collection[T]) notify() {
	c.subsMu.Lock()
	subs := make([]func(), len(c.subs))
	copy(subs, c.subs)
	c.subsMu.Unlock()

	for _, fn := range subs {
		fn()
	}
}
