// Package mcpserver is the server facade (C7): it constructs a Session
// from options, installs the fixed set of protocol handlers
// (initialize, ping, tools/*, prompts/*, resources/*,
// completion/complete, logging/setLevel), mediates capability
// advertisement against client capabilities negotiated at initialize,
// and exposes outbound helpers for sampling/createMessage and
// roots/list (spec.md §4.7). Grounded on the teacher's internal/mcp.Server,
// generalized from its hardcoded switch in HandleMessage into
// registry-backed dispatch over the C3/C4/C5/C6 layers.
package mcpserver

import (
	"context"
	"encoding/json"
)

// DefaultProtocolVersion is the protocol date string used when the
// caller doesn't configure one and the peer's initialize request omits
// protocolVersion (spec.md §6).
const DefaultProtocolVersion = "2024-11-05"

// ServerInfo identifies this server in the initialize response.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ClientInfo identifies the peer, captured from its initialize request.
type ClientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ToolsCapability advertises tool-related support.
type ToolsCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

// PromptsCapability advertises prompt-related support.
type PromptsCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

// ResourcesCapability advertises resource-related support.
type ResourcesCapability struct {
	Subscribe   bool `json:"subscribe,omitempty"`
	ListChanged bool `json:"listChanged,omitempty"`
}

// RootsCapability is the client-side capability for listing filesystem roots.
type RootsCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

// Capabilities is the capability set exchanged during initialize
// (spec.md §3): server capabilities on the way out, client capabilities
// on the way in, using the same wire shape in both directions.
type Capabilities struct {
	Tools        *ToolsCapability           `json:"tools,omitempty"`
	Prompts      *PromptsCapability         `json:"prompts,omitempty"`
	Resources    *ResourcesCapability       `json:"resources,omitempty"`
	Logging      *struct{}                  `json:"logging,omitempty"`
	Completions  *struct{}                  `json:"completions,omitempty"`
	Sampling     *struct{}                  `json:"sampling,omitempty"`
	Roots        *RootsCapability           `json:"roots,omitempty"`
	Experimental map[string]json.RawMessage `json:"experimental,omitempty"`
}

// ToolAnnotations carries the advisory hints spec.md §3 lists for a tool
// descriptor. All fields are optional.
type ToolAnnotations struct {
	Title           string `json:"title,omitempty"`
	ReadOnlyHint    *bool  `json:"readOnlyHint,omitempty"`
	DestructiveHint *bool  `json:"destructiveHint,omitempty"`
	IdempotentHint  *bool  `json:"idempotentHint,omitempty"`
	OpenWorldHint   *bool  `json:"openWorldHint,omitempty"`
}

// Resource describes one entry returned from resources/list.
type Resource struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
}

// ResourceTemplate describes one entry returned from resources/templates/list.
type ResourceTemplate struct {
	URITemplate string `json:"uriTemplate"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
}

// ResourceContents is one item of a resources/read result.
type ResourceContents struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitempty"`
	Text     string `json:"text,omitempty"`
	Blob     string `json:"blob,omitempty"`
}

// CompletionRef names what a completion/complete request is completing
// against: a prompt argument or a resource template variable.
type CompletionRef struct {
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
	URI  string `json:"uri,omitempty"`
}

// CompletionArgument is the partially-typed argument to complete.
type CompletionArgument struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// CompletionResult is a completion handler's answer.
type CompletionResult struct {
	Values  []string `json:"values"`
	Total   *int     `json:"total,omitempty"`
	HasMore bool     `json:"hasMore,omitempty"`
}

// PromptArgument describes one named argument a prompt accepts, derived
// from its adapter's input schema at registration time.
type PromptArgument struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required,omitempty"`
}

// ResourceHandlers is the optional set of caller-supplied functions
// backing the resources/* methods (spec.md §4.7's wiring rules: a
// resources capability requires at least List or ListTemplates, plus
// Read; Subscribe requires both Subscribe and Unsubscribe).
type ResourceHandlers struct {
	List          func(ctx context.Context, cursor string) ([]Resource, string, error)
	ListTemplates func(ctx context.Context, cursor string) ([]ResourceTemplate, string, error)
	Read          func(ctx context.Context, uri string) ([]ResourceContents, error)
	Subscribe     func(ctx context.Context, uri string) error
	Unsubscribe   func(ctx context.Context, uri string) error
}
