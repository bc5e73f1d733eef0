// Package registry implements the two handler tables the session
// dispatches through: the request-method table (C4, one handler per
// method) and the notification-method table (ordered list of handlers,
// safe to mutate concurrently with dispatch). See spec.md §4.4.
package registry

import (
	"context"
	"encoding/json"
	"sync"
)

// RequestHandler handles one inbound JSON-RPC request and returns either
// a JSON result to send back or an error (mapped to a JSON-RPC Error by
// the session per spec.md §7).
type RequestHandler func(ctx context.Context, params json.RawMessage) (json.RawMessage, error)

// RequestTable is a method -> handler map. Registration replaces any
// existing handler for the same method (spec.md §4.4: "Exactly one
// handler per method (later registration replaces earlier)"). Safe for
// concurrent registration and lookup.
type RequestTable struct {
	mu       sync.RWMutex
	handlers map[string]RequestHandler
}

// NewRequestTable creates an empty table.
func NewRequestTable() *RequestTable {
	return &RequestTable{handlers: make(map[string]RequestHandler)}
}

// Register installs handler for method, replacing any prior handler.
func (t *RequestTable) Register(method string, handler RequestHandler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlers[method] = handler
}

// Lookup returns the handler for method, if any.
func (t *RequestTable) Lookup(method string) (RequestHandler, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	h, ok := t.handlers[method]
	return h, ok
}
