// Package mcpctx defines the small set of types shared across the
// session, registry, invocation and facade layers without creating
// import cycles between them: the per-request context record described
// in spec.md §3 "RequestContext<TParams>", the server handle it carries,
// and the scoped service resolver.
package mcpctx

import (
	"context"
	"encoding/json"
)

// ProgressFunc reports progress for the in-flight request it was handed
// out for for, tagging the notification with the caller's progress token
// if one was supplied (spec.md §3, §6 notifications/progress).
// RequestContext.Progress is nil when the request carried no
// progressToken; calling a nil ProgressFunc panics.
type ProgressFunc func(ctx context.Context, progress float64, total *float64, message string) error

// ServerHandle is the subset of the server facade a tool/prompt callable
// may use: emitting outbound requests gated by client capabilities.
// Defined here (rather than in the facade package) so invoke/primitive
// can depend on it without importing the facade.
type ServerHandle interface {
	RequestSampling(ctx context.Context, params json.RawMessage) (json.RawMessage, error)
	RequestRoots(ctx context.Context, params json.RawMessage) (json.RawMessage, error)
	Notify(ctx context.Context, method string, params json.RawMessage) error
}

// ServiceResolver resolves a named service from the request's scope.
// spec.md §9: "the core exposes a scoped service resolver per request
// context; no process-wide resolver is required."
type ServiceResolver interface {
	Resolve(key string) (any, bool)
}

// RequestContext is passed to every inbound tool/prompt callable invoked
// through the invocation adapter (spec.md §3).
type RequestContext struct {
	Server   ServerHandle
	Params   json.RawMessage
	Progress ProgressFunc
	Resolver ServiceResolver
}
