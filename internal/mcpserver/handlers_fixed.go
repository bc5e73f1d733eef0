package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-mcpserver/internal/jsonrpc"
	"github.com/modelcontextprotocol/go-mcpserver/internal/logging"
)

// registerFixedHandlers installs every handler spec.md §4.7 names,
// gating the resource and completion methods on the handlers actually
// supplied (validate already rejected an incomplete resources wiring).
func (s *Server) registerFixedHandlers() {
	s.requests.Register("initialize", s.handleInitialize)
	s.notifications.Add("notifications/initialized", s.handleInitializedNotification)
	s.requests.Register("ping", s.handlePing)
	s.requests.Register("logging/setLevel", s.handleSetLevel)

	s.requests.Register("tools/list", s.handleToolsList)
	s.requests.Register("tools/call", s.handleToolsCall)
	s.requests.Register("prompts/list", s.handlePromptsList)
	s.requests.Register("prompts/get", s.handlePromptsGet)

	if s.capabilities.Resources != nil {
		s.requests.Register("resources/read", s.handleResourcesRead)
		if s.resources.List != nil {
			s.requests.Register("resources/list", s.handleResourcesList)
		}
		if s.resources.ListTemplates != nil {
			s.requests.Register("resources/templates/list", s.handleResourcesTemplatesList)
		}
		if s.resources.Subscribe != nil && s.resources.Unsubscribe != nil {
			s.requests.Register("resources/subscribe", s.handleResourcesSubscribe)
			s.requests.Register("resources/unsubscribe", s.handleResourcesUnsubscribe)
		}
	}

	if s.completion != nil {
		s.requests.Register("completion/complete", s.handleCompletionComplete)
	}
}

type initializeParams struct {
	ProtocolVersion string       `json:"protocolVersion"`
	Capabilities    Capabilities `json:"capabilities"`
	ClientInfo      ClientInfo   `json:"clientInfo"`
}

type initializeResult struct {
	ProtocolVersion string       `json:"protocolVersion"`
	Capabilities    Capabilities `json:"capabilities"`
	ServerInfo      ServerInfo   `json:"serverInfo"`
	Instructions    string       `json:"instructions,omitempty"`
}

// handleInitialize captures client capabilities/info and replies with
// this server's own. A second initialize on the same session is rejected
// with InvalidRequest. Requests for other methods are not held back
// until initialize has completed; they are dispatched as they arrive.
func (s *Server) handleInitialize(ctx context.Context, params json.RawMessage) (json.RawMessage, error) {
	s.mu.Lock()
	if s.initialized {
		s.mu.Unlock()
		return nil, jsonrpc.NewError(jsonrpc.CodeInvalidRequest, "initialize already completed for this session")
	}

	var p initializeParams
	if len(params) > 0 {
		if err := json.Unmarshal(params, &p); err != nil {
			s.mu.Unlock()
			return nil, jsonrpc.NewError(jsonrpc.CodeParseError, "malformed initialize params: "+err.Error())
		}
	}
	s.clientCapabilities = p.Capabilities
	s.clientInfo = p.ClientInfo
	s.initialized = true
	s.mu.Unlock()

	negotiated := s.protocolVersion
	if p.ProtocolVersion != "" {
		negotiated = p.ProtocolVersion
	}

	return json.Marshal(initializeResult{
		ProtocolVersion: negotiated,
		Capabilities:    s.capabilities,
		ServerInfo:      s.info,
		Instructions:    s.instructions,
	})
}

// handleInitializedNotification marks the point past which Changed
// subscribers start emitting list_changed notifications (spec.md §4.7).
func (s *Server) handleInitializedNotification(ctx context.Context, params json.RawMessage) error {
	s.initializedNotified.Store(true)
	return nil
}

func (s *Server) handlePing(ctx context.Context, params json.RawMessage) (json.RawMessage, error) {
	return json.RawMessage(`{}`), nil
}

type setLevelParams struct {
	Level string `json:"level"`
}

func (s *Server) handleSetLevel(ctx context.Context, params json.RawMessage) (json.RawMessage, error) {
	var p setLevelParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, jsonrpc.NewError(jsonrpc.CodeInvalidParams, "invalid logging/setLevel params: "+err.Error())
	}
	s.logLevel.Store(int32(logging.ParseLevel(p.Level)))
	return json.RawMessage(`{}`), nil
}

// ClientInfo returns the client info captured at initialize, or the
// zero value before initialize has completed.
func (s *Server) ClientInfo() ClientInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clientInfo
}

// ClientCapabilities returns the client capabilities captured at
// initialize, or the zero value before initialize has completed.
func (s *Server) ClientCapabilities() Capabilities {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clientCapabilities
}
