package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-mcpserver/internal/content"
	"github.com/modelcontextprotocol/go-mcpserver/internal/mcpctx"
	"github.com/modelcontextprotocol/go-mcpserver/internal/observe"
	"github.com/modelcontextprotocol/go-mcpserver/internal/primitive"
	"github.com/modelcontextprotocol/go-mcpserver/internal/session"
)

// Options configures a Server at construction (spec.md §4.7).
type Options struct {
	ServerInfo      ServerInfo
	ProtocolVersion string
	Capabilities    Capabilities
	Instructions    string

	// Tools, if nil, defaults to a fresh empty collection.
	Tools             *primitive.Collection[Tool]
	ToolsListHandler  func(ctx context.Context, cursor string) ([]Tool, string, error)
	ToolsCallFallback func(ctx context.Context, name string, arguments json.RawMessage) (content.CallToolResult, error)

	Prompts            *primitive.Collection[Prompt]
	PromptsListHandler func(ctx context.Context, cursor string) ([]Prompt, string, error)
	PromptsGetFallback func(ctx context.Context, name string, arguments json.RawMessage) (content.GetPromptResult, error)

	Resources  ResourceHandlers
	Completion func(ctx context.Context, ref CompletionRef, argument CompletionArgument) (CompletionResult, error)

	// ServiceResolverFactory, if set, builds the per-request
	// ServiceResolver layered under any per-invocation target
	// (spec.md §9).
	ServiceResolverFactory func(ctx context.Context) mcpctx.ServiceResolver

	// PageSize bounds tools/list and prompts/list pages. <= 0 means
	// unbounded. The first page always carries every entry returned by
	// ToolsListHandler/PromptsListHandler, even when those alone exceed
	// PageSize. resources/* listings are paged by the Resources handlers
	// themselves and ignore PageSize.
	PageSize int

	Hooks  observe.Hooks
	Logger session.Logger
}

// ConfigError is returned by New when the declared capabilities and the
// supplied handler set don't satisfy spec.md §4.7's wiring rules.
type ConfigError struct{ msg string }

func (e *ConfigError) Error() string { return "mcpserver: " + e.msg }

func configErrorf(format string, args ...any) *ConfigError {
	return &ConfigError{msg: fmt.Sprintf(format, args...)}
}

// PreconditionError is returned by the outbound helpers when the client
// never advertised the capability the call requires (spec.md §7
// "Precondition error").
type PreconditionError struct{ msg string }

func (e *PreconditionError) Error() string { return e.msg }

func validate(opts Options) error {
	if opts.Capabilities.Resources != nil {
		if opts.Resources.List == nil && opts.Resources.ListTemplates == nil {
			return configErrorf("resources capability declared without a listResources or listResourceTemplates handler")
		}
		if opts.Resources.Read == nil {
			return configErrorf("resources capability declared without a readResource handler")
		}
		if opts.Capabilities.Resources.Subscribe {
			if opts.Resources.Subscribe == nil || opts.Resources.Unsubscribe == nil {
				return configErrorf("resources.subscribe capability declared without subscribe/unsubscribe handlers")
			}
		}
	}
	return nil
}
