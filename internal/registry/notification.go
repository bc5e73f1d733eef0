package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// NotificationHandler handles one inbound notification. Any error it
// returns is collected by the caller and logged, never propagated to the
// peer (spec.md §4.3 "Exceptions are collected and ... logged but do not
// stop dispatch").
type NotificationHandler func(ctx context.Context, params json.RawMessage) error

type notifEntry struct {
	handler NotificationHandler

	mu     sync.Mutex
	cond   *sync.Cond
	active int
	// removed marks the entry detached from future snapshots; an entry
	// already captured by an in-flight Dispatch snapshot keeps running
	// regardless (spec.md §4.4 invariant 2).
	removed bool
}

// Handle identifies one registered notification handler for later removal.
type Handle struct {
	method string
	entry  *notifEntry
}

// NotificationTable is a method -> ordered-list-of-handlers table.
// Registrations and removals are safe to perform concurrently with
// dispatch; see spec.md §4.4 for the three invariants this upholds.
type NotificationTable struct {
	mu       sync.Mutex
	byMethod map[string][]*notifEntry
}

// NewNotificationTable creates an empty table.
func NewNotificationTable() *NotificationTable {
	return &NotificationTable{byMethod: make(map[string][]*notifEntry)}
}

// Add appends handler to method's list, returning a Handle for later removal.
func (t *NotificationTable) Add(method string, handler NotificationHandler) Handle {
	e := &notifEntry{handler: handler}
	e.cond = sync.NewCond(&e.mu)

	t.mu.Lock()
	t.byMethod[method] = append(t.byMethod[method], e)
	t.mu.Unlock()

	return Handle{method: method, entry: e}
}

// reentryKey marks a context as originating from inside a notification
// handler invocation, so Remove called from within a handler never waits
// on itself (spec.md §4.4 invariant 1: "the removing caller, if itself
// inside a handler for any method, does not wait at all").
type reentryKey struct{}

func withReentry(ctx context.Context) context.Context {
	return context.WithValue(ctx, reentryKey{}, true)
}

func isReentrant(ctx context.Context) bool {
	v, _ := ctx.Value(reentryKey{}).(bool)
	return v
}

// Remove detaches h from future dispatch snapshots and, unless ctx marks
// the caller as already running inside a handler, blocks until every
// invocation that began before this call was made has completed.
func (t *NotificationTable) Remove(ctx context.Context, h Handle) bool {
	t.mu.Lock()
	list := t.byMethod[h.method]
	found := false
	for i, e := range list {
		if e == h.entry {
			t.byMethod[h.method] = append(list[:i], list[i+1:]...)
			found = true
			break
		}
	}
	t.mu.Unlock()
	if !found {
		return false
	}

	h.entry.mu.Lock()
	h.entry.removed = true
	h.entry.mu.Unlock()

	if isReentrant(ctx) {
		return true
	}

	h.entry.mu.Lock()
	for h.entry.active > 0 {
		h.entry.cond.Wait()
	}
	h.entry.mu.Unlock()
	return true
}

// Dispatch invokes every handler registered for method, in registration
// order, against a snapshot of the list taken at the start of this call
// (spec.md §4.4 invariant 3). Handler errors are returned to the caller
// to log; dispatch never stops early on an error. Returns the number of
// handlers invoked, for instrumentation (spec.md §9).
func (t *NotificationTable) Dispatch(ctx context.Context, method string, params json.RawMessage) (int, []error) {
	t.mu.Lock()
	snapshot := make([]*notifEntry, len(t.byMethod[method]))
	copy(snapshot, t.byMethod[method])
	t.mu.Unlock()

	reentrantCtx := withReentry(ctx)
	var errs []error
	for _, e := range snapshot {
		e.mu.Lock()
		e.active++
		e.mu.Unlock()

		err := invokeSafely(reentrantCtx, e.handler, params)

		e.mu.Lock()
		e.active--
		e.cond.Broadcast()
		e.mu.Unlock()

		if err != nil {
			errs = append(errs, err)
		}
	}
	return len(snapshot), errs
}

func invokeSafely(ctx context.Context, handler NotificationHandler, params json.RawMessage) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError{r}
		}
	}()
	return handler(ctx, params)
}

type panicError struct{ v any }

func (p panicError) Error() string {
	return fmt.Sprintf("notification handler panicked: %v", p.v)
}
