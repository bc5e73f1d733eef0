// Package session implements the JSON-RPC session that multiplexes
// in-flight requests, notifications and responses over a single
// transport (spec.md §4.3, C3). It correlates outbound requests with
// responses, fans incoming messages out to request/notification
// dispatch, propagates cancellation in both directions via
// `notifications/cancelled`, and tears down cleanly on shutdown.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/modelcontextprotocol/go-mcpserver/internal/jsonrpc"
	"github.com/modelcontextprotocol/go-mcpserver/internal/observe"
	"github.com/modelcontextprotocol/go-mcpserver/internal/registry"
	"github.com/modelcontextprotocol/go-mcpserver/internal/transport"
)

// CancelledMethod is the wire method name for the cancellation
// notification (spec.md refers to it in prose as `$/cancelled`; the
// wire table in §6 names it `notifications/cancelled`).
const CancelledMethod = "notifications/cancelled"

// ErrSessionEnded is returned by SendRequest/SendNotification once the
// session has finished shutting down.
var ErrSessionEnded = errors.New("session: ended")

// Logger is the minimal structured-logging surface the session needs
// for its own diagnostics (dropped replies, notification handler
// errors). A *zap.SugaredLogger satisfies this directly.
type Logger interface {
	Warnw(msg string, keysAndValues ...interface{})
	Debugw(msg string, keysAndValues ...interface{})
}

type noopLogger struct{}

func (noopLogger) Warnw(string, ...interface{}) {}
func (noopLogger) Debugw(string, ...interface{}) {}

type waiter struct {
	ch chan waiterResult
}

type waiterResult struct {
	msg jsonrpc.Message
	err error
}

type inflightEntry struct {
	cancel        context.CancelFunc
	peerCancelled boolFlag
}

// boolFlag is a tiny atomic bool without importing sync/atomic's Bool in
// every call site; kept local since it's only used for this one field.
type boolFlag struct {
	mu sync.Mutex
	v  bool
}

func (b *boolFlag) set()      { b.mu.Lock(); b.v = true; b.mu.Unlock() }
func (b *boolFlag) get() bool { b.mu.Lock(); defer b.mu.Unlock(); return b.v }

// Session is one live JSON-RPC conversation over a single transport.
type Session struct {
	transport     transport.Transport
	requests      *registry.RequestTable
	notifications *registry.NotificationTable
	idGen         *jsonrpc.IDGenerator
	hooks         observe.Hooks
	logger        Logger

	pendingMu sync.Mutex
	pending   map[jsonrpc.ID]*waiter

	inflightMu sync.Mutex
	inflight   map[jsonrpc.ID]*inflightEntry

	wg conc.WaitGroup

	endedMu sync.Mutex
	ended   bool
}

// Option configures a Session at construction.
type Option func(*Session)

// WithHooks installs instrumentation hooks.
func WithHooks(h observe.Hooks) Option { return func(s *Session) { s.hooks = h } }

// WithLogger installs a structured logger for session diagnostics.
func WithLogger(l Logger) Option { return func(s *Session) { s.logger = l } }

// New builds a Session over the given transport and handler tables. The
// tables are owned by the caller (typically the server facade) so that
// new methods can be registered before or after Run starts.
func New(t transport.Transport, requests *registry.RequestTable, notifications *registry.NotificationTable, opts ...Option) *Session {
	s := &Session{
		transport:     t,
		requests:      requests,
		notifications: notifications,
		idGen:         jsonrpc.NewIDGenerator(),
		logger:        noopLogger{},
		pending:       make(map[jsonrpc.ID]*waiter),
		inflight:      make(map[jsonrpc.ID]*inflightEntry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) hasEnded() bool {
	s.endedMu.Lock()
	defer s.endedMu.Unlock()
	return s.ended
}

// SendRequest stamps req with a fresh id if unset, writes it, and awaits
// the matching Response/Error. If ctx is cancelled after the write
// completes, a `notifications/cancelled` is sent to the peer and the
// call returns ctx.Err() locally without waiting further. If ctx is
// cancelled before the write completes, no cancellation notification is
// sent (spec.md §4.3, §9 Open Questions: cancel-after-write is
// authoritative).
func (s *Session) SendRequest(ctx context.Context, req jsonrpc.Message) (jsonrpc.Message, error) {
	if s.hasEnded() {
		return jsonrpc.Message{}, ErrSessionEnded
	}
	if req.ID().IsUnset() {
		req = req.WithID(s.idGen.Next())
	}
	id := req.ID()

	w := &waiter{ch: make(chan waiterResult, 1)}
	s.pendingMu.Lock()
	s.pending[id] = w
	s.pendingMu.Unlock()

	if err := s.transport.Write(ctx, req); err != nil {
		s.pendingMu.Lock()
		delete(s.pending, id)
		s.pendingMu.Unlock()
		return jsonrpc.Message{}, err
	}
	s.hooks.FireTransportWrite("request", req.Method())
	s.hooks.FireOutboundStart(req.Method(), id.String())
	start := time.Now()

	select {
	case r := <-w.ch:
		s.hooks.FireOutboundEnd(req.Method(), id.String(), time.Since(start), r.err)
		return r.msg, r.err
	case <-ctx.Done():
		s.pendingMu.Lock()
		delete(s.pending, id)
		s.pendingMu.Unlock()

		params, _ := json.Marshal(cancelledParams{RequestID: id})
		_ = s.transport.Write(context.Background(), jsonrpc.NewNotification(CancelledMethod, params))
		s.hooks.FireOutboundEnd(req.Method(), id.String(), time.Since(start), ctx.Err())
		return jsonrpc.Message{}, ctx.Err()
	}
}

// SendNotification writes notif once. If notif is itself a
// `notifications/cancelled`, the local Waiter for the referenced id (if
// any) is also completed with cancellation, so a cancelling caller never
// blocks on a response it has already abandoned (spec.md §4.3).
func (s *Session) SendNotification(ctx context.Context, notif jsonrpc.Message) error {
	if s.hasEnded() {
		return ErrSessionEnded
	}
	if err := s.transport.Write(ctx, notif); err != nil {
		return err
	}
	s.hooks.FireTransportWrite("notification", notif.Method())

	if notif.Method() == CancelledMethod {
		var p cancelledParams
		if err := json.Unmarshal(notif.Params(), &p); err == nil {
			s.completeWaiterLocally(p.RequestID, context.Canceled)
		}
	}
	return nil
}

func (s *Session) completeWaiterLocally(id jsonrpc.ID, err error) {
	s.pendingMu.Lock()
	w, ok := s.pending[id]
	if ok {
		delete(s.pending, id)
	}
	s.pendingMu.Unlock()
	if ok {
		w.ch <- waiterResult{err: err}
	}
}

type cancelledParams struct {
	RequestID jsonrpc.ID `json:"requestId"`
	Reason    string     `json:"reason,omitempty"`
}

// Run is the driver loop: reads messages until EOF or ctx is done,
// dispatching each on its own task so the reader is never blocked by
// handler execution, then tears the session down (spec.md §4.3 Run loop
// and Shutdown).
func (s *Session) Run(ctx context.Context) error {
	start := time.Now()
	defer s.hooks.FireSessionEnd(time.Since(start))

	var readErr error
loop:
	for {
		msg, err := s.transport.ReadNext(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				break loop
			}
			readErr = err
			break loop
		}
		s.dispatch(ctx, msg)
	}

	s.shutdown()
	return readErr
}

func (s *Session) dispatch(ctx context.Context, msg jsonrpc.Message) {
	switch {
	case msg.IsRequest():
		s.hooks.FireTransportRead("request", msg.Method())
		reqCtx, cancel := context.WithCancel(ctx)
		entry := &inflightEntry{cancel: cancel}
		id := msg.ID()
		s.inflightMu.Lock()
		s.inflight[id] = entry
		s.inflightMu.Unlock()

		s.wg.Go(func() {
			defer func() {
				s.inflightMu.Lock()
				delete(s.inflight, id)
				s.inflightMu.Unlock()
			}()
			s.handleRequest(reqCtx, msg, entry)
		})

	case msg.IsNotification():
		s.hooks.FireTransportRead("notification", msg.Method())
		s.wg.Go(func() {
			s.handleNotification(ctx, msg)
		})

	case msg.IsResponse(), msg.IsError():
		s.hooks.FireTransportRead("reply", "")
		s.handleReply(msg)

	default:
		s.logger.Warnw("dropping message of unrecognized shape")
	}
}

func (s *Session) handleReply(msg jsonrpc.Message) {
	id := msg.ID()
	s.pendingMu.Lock()
	w, ok := s.pending[id]
	if ok {
		delete(s.pending, id)
	}
	s.pendingMu.Unlock()

	if !ok {
		s.logger.Warnw("dropped reply for unknown request id", "id", id.String())
		return
	}
	if msg.IsError() {
		w.ch <- waiterResult{err: msg.Err()}
	} else {
		w.ch <- waiterResult{msg: msg}
	}
}

// shutdown performs the five-step teardown sequence from spec.md §4.3:
// stop reading (already true on entry), fail every pending Waiter,
// cancel every in-flight inbound handler, await handler tasks, close
// the transport.
func (s *Session) shutdown() {
	s.endedMu.Lock()
	s.ended = true
	s.endedMu.Unlock()

	s.pendingMu.Lock()
	pending := s.pending
	s.pending = make(map[jsonrpc.ID]*waiter)
	s.pendingMu.Unlock()
	for _, w := range pending {
		w.ch <- waiterResult{err: ErrSessionEnded}
	}

	s.inflightMu.Lock()
	inflight := make([]*inflightEntry, 0, len(s.inflight))
	for _, e := range s.inflight {
		inflight = append(inflight, e)
	}
	s.inflightMu.Unlock()
	for _, e := range inflight {
		e.cancel()
	}

	s.wg.Wait()
	_ = s.transport.Close()
}
