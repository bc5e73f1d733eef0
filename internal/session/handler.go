package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/modelcontextprotocol/go-mcpserver/internal/jsonrpc"
	"github.com/modelcontextprotocol/go-mcpserver/internal/registry"
)

// handleRequest looks up and invokes the registered handler for msg,
// writing back a Response or Error unless the peer cancelled the
// request before the handler completed (spec.md §4.3, §4.4 invariant 2:
// "unless the handler observed peer cancellation before completing").
func (s *Session) handleRequest(ctx context.Context, msg jsonrpc.Message, entry *inflightEntry) {
	method := msg.Method()
	id := msg.ID()
	start := time.Now()
	s.hooks.FireInboundStart(method, id.String())

	handler, ok := s.requests.Lookup(method)
	if !ok {
		err := jsonrpc.NewError(jsonrpc.CodeMethodNotFound, "method not found: "+method)
		s.hooks.FireInboundEnd(method, id.String(), time.Since(start), err)
		s.writeReply(jsonrpc.NewErrorMessage(id, err))
		return
	}

	result, err := invokeRequestSafely(ctx, handler, msg.Params())

	if entry.peerCancelled.get() {
		// Peer abandoned this request; writing a reply now would race an
		// id the peer has already forgotten, so it is dropped silently.
		s.hooks.FireInboundEnd(method, id.String(), time.Since(start), context.Canceled)
		return
	}

	s.hooks.FireInboundEnd(method, id.String(), time.Since(start), err)
	if err != nil {
		s.writeReply(jsonrpc.NewErrorMessage(id, toRPCError(method, err)))
		return
	}
	s.writeReply(jsonrpc.NewResponse(id, result))
}

func toRPCError(method string, err error) *jsonrpc.Error {
	var rpcErr *jsonrpc.Error
	if errors.As(err, &rpcErr) {
		return rpcErr
	}
	return jsonrpc.NewError(jsonrpc.CodeInternalError, "internal error handling "+method)
}

func (s *Session) writeReply(msg jsonrpc.Message) {
	if s.hasEnded() {
		return
	}
	if err := s.transport.Write(context.Background(), msg); err != nil {
		s.logger.Warnw("failed to write reply", "id", msg.ID().String(), "error", err)
		return
	}
	s.hooks.FireTransportWrite("reply", msg.Method())
}

func invokeRequestSafely(ctx context.Context, handler registry.RequestHandler, params json.RawMessage) (result json.RawMessage, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = jsonrpc.NewError(jsonrpc.CodeInternalError, "handler panicked")
		}
	}()
	return handler(ctx, params)
}

// handleNotification special-cases the cancellation protocol (applying
// it to the local inflight table before any user handler for the same
// method runs), then dispatches to every registered handler.
func (s *Session) handleNotification(ctx context.Context, msg jsonrpc.Message) {
	if msg.Method() == CancelledMethod {
		s.applyPeerCancellation(msg.Params())
	}

	count, errs := s.notifications.Dispatch(ctx, msg.Method(), msg.Params())
	for _, e := range errs {
		s.logger.Warnw("notification handler error", "method", msg.Method(), "error", e)
	}
	s.hooks.FireNotificationDispatched(msg.Method(), count)
}

func (s *Session) applyPeerCancellation(params json.RawMessage) {
	var p cancelledParams
	if err := json.Unmarshal(params, &p); err != nil {
		return
	}
	s.inflightMu.Lock()
	entry, ok := s.inflight[p.RequestID]
	s.inflightMu.Unlock()
	if !ok {
		return
	}
	entry.peerCancelled.set()
	entry.cancel()
}
