// Package observe exposes structural instrumentation hooks for the
// session and facade layers. The core has no opinion on how these are
// implemented (tracing, metrics, plain logging) — it only guarantees
// the named points are invoked synchronously when a Hooks value is
// supplied. See spec.md §9 "Instrumentation hooks".
package observe

import "time"

// Hooks is a set of optional callbacks invoked at fixed points in a
// session's lifecycle. Any nil field is simply skipped. Implementations
// must return quickly: these run on the hot path of message dispatch.
type Hooks struct {
	// InboundStart fires when a Request begins handling, before the
	// user handler runs.
	InboundStart func(method, id string)
	// InboundEnd fires when a Request's handler has returned, whether
	// by success, protocol error, or peer cancellation.
	InboundEnd func(method, id string, dur time.Duration, err error)
	// OutboundStart fires when SendRequest writes its message.
	OutboundStart func(method, id string)
	// OutboundEnd fires when the Waiter for an outbound request completes.
	OutboundEnd func(method, id string, dur time.Duration, err error)
	// NotificationDispatched fires once per inbound notification, after
	// all registered handlers have run.
	NotificationDispatched func(method string, handlerCount int)
	// TransportRead fires after a message is read off the transport.
	TransportRead func(kind, method string)
	// TransportWrite fires after a message is written to the transport.
	TransportWrite func(kind, method string)
	// SessionEnd fires once when Run returns, with the session's total duration.
	SessionEnd func(dur time.Duration)
}

// FireInboundStart invokes InboundStart if set.
func (h Hooks) FireInboundStart(method, id string) {
	if h.InboundStart != nil {
		h.InboundStart(method, id)
	}
}

// FireInboundEnd invokes InboundEnd if set.
func (h Hooks) FireInboundEnd(method, id string, dur time.Duration, err error) {
	if h.InboundEnd != nil {
		h.InboundEnd(method, id, dur, err)
	}
}

// FireOutboundStart invokes OutboundStart if set.
func (h Hooks) FireOutboundStart(method, id string) {
	if h.OutboundStart != nil {
		h.OutboundStart(method, id)
	}
}

// FireOutboundEnd invokes OutboundEnd if set.
func (h Hooks) FireOutboundEnd(method, id string, dur time.Duration, err error) {
	if h.OutboundEnd != nil {
		h.OutboundEnd(method, id, dur, err)
	}
}

// FireNotificationDispatched invokes NotificationDispatched if set.
func (h Hooks) FireNotificationDispatched(method string, handlerCount int) {
	if h.NotificationDispatched != nil {
		h.NotificationDispatched(method, handlerCount)
	}
}

// FireTransportRead invokes TransportRead if set.
func (h Hooks) FireTransportRead(kind, method string) {
	if h.TransportRead != nil {
		h.TransportRead(kind, method)
	}
}

// FireTransportWrite invokes TransportWrite if set.
func (h Hooks) FireTransportWrite(kind, method string) {
	if h.TransportWrite != nil {
		h.TransportWrite(kind, method)
	}
}

// FireSessionEnd invokes SessionEnd if set.
func (h Hooks) FireSessionEnd(dur time.Duration) {
	if h.SessionEnd != nil {
		h.SessionEnd(dur)
	}
}
