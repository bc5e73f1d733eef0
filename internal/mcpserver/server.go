package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/modelcontextprotocol/go-mcpserver/internal/content"
	"github.com/modelcontextprotocol/go-mcpserver/internal/jsonrpc"
	"github.com/modelcontextprotocol/go-mcpserver/internal/logging"
	"github.com/modelcontextprotocol/go-mcpserver/internal/mcpctx"
	"github.com/modelcontextprotocol/go-mcpserver/internal/primitive"
	"github.com/modelcontextprotocol/go-mcpserver/internal/registry"
	"github.com/modelcontextprotocol/go-mcpserver/internal/session"
	"github.com/modelcontextprotocol/go-mcpserver/internal/transport"
)

// Server is the facade over Session/registry/primitive/invoke: one live
// MCP server endpoint bound to a single transport (spec.md §4.7, C7).
// Grounded on the teacher's internal/mcp.Server, with its hardcoded
// method switch replaced by registry-backed dispatch and its
// single-collection tool table split into the generic tools/prompts
// collections plus caller-supplied resource handlers.
type Server struct {
	info            ServerInfo
	capabilities    Capabilities
	protocolVersion string
	instructions    string

	session       *session.Session
	requests      *registry.RequestTable
	notifications *registry.NotificationTable

	tools   *primitive.Collection[Tool]
	prompts *primitive.Collection[Prompt]

	toolsListHandler  func(ctx context.Context, cursor string) ([]Tool, string, error)
	toolsCallFallback func(ctx context.Context, name string, arguments json.RawMessage) (content.CallToolResult, error)

	promptsListHandler func(ctx context.Context, cursor string) ([]Prompt, string, error)
	promptsGetFallback func(ctx context.Context, name string, arguments json.RawMessage) (content.GetPromptResult, error)

	resources  ResourceHandlers
	completion func(ctx context.Context, ref CompletionRef, argument CompletionArgument) (CompletionResult, error)

	resolverFactory func(ctx context.Context) mcpctx.ServiceResolver
	pageSize        int

	mu                 sync.Mutex
	initialized        bool
	clientCapabilities Capabilities
	clientInfo         ClientInfo

	initializedNotified atomic.Bool
	logLevel            atomic.Int32
}

// New validates opts against spec.md §4.7's wiring rules, builds the
// underlying Session over t, and installs the fixed handler set.
func New(t transport.Transport, opts Options) (*Server, error) {
	if err := validate(opts); err != nil {
		return nil, err
	}

	tools := opts.Tools
	if tools == nil {
		tools = primitive.New[Tool]()
	}
	prompts := opts.Prompts
	if prompts == nil {
		prompts = primitive.New[Prompt]()
	}

	protocolVersion := opts.ProtocolVersion
	if protocolVersion == "" {
		protocolVersion = DefaultProtocolVersion
	}

	requests := registry.NewRequestTable()
	notifications := registry.NewNotificationTable()

	s := &Server{
		info:               opts.ServerInfo,
		capabilities:       opts.Capabilities,
		protocolVersion:    protocolVersion,
		instructions:       opts.Instructions,
		requests:           requests,
		notifications:      notifications,
		tools:              tools,
		prompts:            prompts,
		toolsListHandler:   opts.ToolsListHandler,
		toolsCallFallback:  opts.ToolsCallFallback,
		promptsListHandler: opts.PromptsListHandler,
		promptsGetFallback: opts.PromptsGetFallback,
		resources:          opts.Resources,
		completion:         opts.Completion,
		resolverFactory:    opts.ServiceResolverFactory,
		pageSize:           opts.PageSize,
	}
	s.logLevel.Store(int32(logging.LevelDebug))

	sessOpts := []session.Option{session.WithHooks(opts.Hooks)}
	if opts.Logger != nil {
		sessOpts = append(sessOpts, session.WithLogger(opts.Logger))
	}
	s.session = session.New(t, requests, notifications, sessOpts...)

	s.registerFixedHandlers()

	tools.OnChanged(func() { s.emitListChanged("notifications/tools/list_changed") })
	prompts.OnChanged(func() { s.emitListChanged("notifications/prompts/list_changed") })

	return s, nil
}

// Run drives the session until the transport is exhausted or ctx ends.
func (s *Server) Run(ctx context.Context) error { return s.session.Run(ctx) }

// Tools exposes the live tool collection for direct registration/removal.
func (s *Server) Tools() *primitive.Collection[Tool] { return s.tools }

// Prompts exposes the live prompt collection for direct registration/removal.
func (s *Server) Prompts() *primitive.Collection[Prompt] { return s.prompts }

func (s *Server) emitListChanged(method string) {
	if !s.initializedNotified.Load() {
		return
	}
	go func() {
		_ = s.session.SendNotification(context.Background(), jsonrpc.NewNotification(method, nil))
	}()
}

// NotifyResourceUpdated emits `notifications/resources/updated` for uri;
// callers with a subscribable resource collection call this after a
// mutation the resources/subscribe protocol promised to report.
func (s *Server) NotifyResourceUpdated(ctx context.Context, uri string) error {
	params, _ := json.Marshal(map[string]string{"uri": uri})
	return s.session.SendNotification(ctx, jsonrpc.NewNotification("notifications/resources/updated", params))
}

// RequestSampling issues an outbound sampling/createMessage request,
// failing with *PreconditionError if the client never advertised the
// sampling capability during initialize (spec.md §4.7, §7).
func (s *Server) RequestSampling(ctx context.Context, params json.RawMessage) (json.RawMessage, error) {
	s.mu.Lock()
	cc := s.clientCapabilities
	s.mu.Unlock()
	if cc.Sampling == nil {
		return nil, &PreconditionError{msg: "mcpserver: client did not advertise the sampling capability"}
	}
	return s.sendOutboundRequest(ctx, "sampling/createMessage", params)
}

// RequestRoots issues an outbound roots/list request, failing with
// *PreconditionError if the client never advertised the roots capability.
func (s *Server) RequestRoots(ctx context.Context, params json.RawMessage) (json.RawMessage, error) {
	s.mu.Lock()
	cc := s.clientCapabilities
	s.mu.Unlock()
	if cc.Roots == nil {
		return nil, &PreconditionError{msg: "mcpserver: client did not advertise the roots capability"}
	}
	return s.sendOutboundRequest(ctx, "roots/list", params)
}

func (s *Server) sendOutboundRequest(ctx context.Context, method string, params json.RawMessage) (json.RawMessage, error) {
	reply, err := s.session.SendRequest(ctx, jsonrpc.NewRequest(jsonrpc.ID{}, method, params))
	if err != nil {
		return nil, err
	}
	if reply.IsError() {
		return nil, reply.Err()
	}
	return reply.Result(), nil
}

// Notify satisfies mcpctx.ServerHandle for callables that want to send
// an arbitrary notification (e.g. a custom progress-adjacent signal).
func (s *Server) Notify(ctx context.Context, method string, params json.RawMessage) error {
	return s.session.SendNotification(ctx, jsonrpc.NewNotification(method, params))
}

// AsLoggerSink produces a sink that forwards records as
// notifications/message, gated by the minimum level negotiated through
// logging/setLevel (spec.md §4.7).
func (s *Server) AsLoggerSink() *LoggerSink { return &LoggerSink{server: s} }

// LoggerSink adapts the server's negotiated logging/setLevel threshold
// to an outbound notifications/message stream.
type LoggerSink struct{ server *Server }

// Log forwards one record if level is at least as severe as the
// client's configured minimum; records below threshold are dropped
// without marshalling or writing to the transport.
func (l *LoggerSink) Log(ctx context.Context, level logging.Level, loggerName string, data any) error {
	if int32(level) > l.server.logLevel.Load() {
		return nil
	}
	payload := struct {
		Level  string `json:"level"`
		Logger string `json:"logger,omitempty"`
		Data   any    `json:"data"`
	}{Level: level.String(), Logger: loggerName, Data: redactLogData(data)}

	params, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("mcpserver: failed to marshal log record: %w", err)
	}
	return l.server.session.SendNotification(ctx, jsonrpc.NewNotification("notifications/message", params))
}

// redactLogData round-trips data through JSON into the map[string]any/
// []any shape logging.RedactData expects, so a caller-supplied struct is
// masked the same as a map literal before it reaches the client. A value
// that fails to marshal (or isn't itself a container) is returned as-is;
// this path only ever widens what gets masked, never panics on the rest.
func redactLogData(data any) any {
	raw, err := json.Marshal(data)
	if err != nil {
		return data
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return data
	}
	return logging.RedactData(generic)
}

// emptyResolver is used when no ServiceResolverFactory is configured.
type emptyResolver struct{}

func (emptyResolver) Resolve(string) (any, bool) { return nil, false }

func (s *Server) requestContext(ctx context.Context, params json.RawMessage, progressToken json.RawMessage) mcpctx.RequestContext {
	var resolver mcpctx.ServiceResolver = emptyResolver{}
	if s.resolverFactory != nil {
		resolver = s.resolverFactory(ctx)
	}
	return mcpctx.RequestContext{
		Server:   s,
		Params:   params,
		Progress: s.progressFuncFor(progressToken),
		Resolver: resolver,
	}
}

func (s *Server) progressFuncFor(token json.RawMessage) mcpctx.ProgressFunc {
	if len(token) == 0 {
		return nil
	}
	return func(ctx context.Context, progress float64, total *float64, message string) error {
		payload := map[string]any{"progressToken": json.RawMessage(token), "progress": progress}
		if total != nil {
			payload["total"] = *total
		}
		if message != "" {
			payload["message"] = message
		}
		params, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		return s.session.SendNotification(ctx, jsonrpc.NewNotification("notifications/progress", params))
	}
}
