package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-mcpserver/internal/jsonrpc"
)

type resourcesListResult struct {
	Resources  []Resource `json:"resources"`
	NextCursor string     `json:"nextCursor,omitempty"`
}

type resourcesTemplatesListResult struct {
	ResourceTemplates []ResourceTemplate `json:"resourceTemplates"`
	NextCursor        string             `json:"nextCursor,omitempty"`
}

type resourceURIParams struct {
	URI string `json:"uri"`
}

type resourcesReadResult struct {
	Contents []ResourceContents `json:"contents"`
}

func (s *Server) handleResourcesList(ctx context.Context, params json.RawMessage) (json.RawMessage, error) {
	var p listParams
	if len(params) > 0 {
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, jsonrpc.NewError(jsonrpc.CodeInvalidParams, "malformed resources/list params: "+err.Error())
		}
	}
	items, next, err := s.resources.List(ctx, p.Cursor)
	if err != nil {
		return nil, jsonrpc.NewError(jsonrpc.CodeInternalError, "resources list failed: "+err.Error())
	}
	return json.Marshal(resourcesListResult{Resources: items, NextCursor: next})
}

func (s *Server) handleResourcesTemplatesList(ctx context.Context, params json.RawMessage) (json.RawMessage, error) {
	var p listParams
	if len(params) > 0 {
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, jsonrpc.NewError(jsonrpc.CodeInvalidParams, "malformed resources/templates/list params: "+err.Error())
		}
	}
	items, next, err := s.resources.ListTemplates(ctx, p.Cursor)
	if err != nil {
		return nil, jsonrpc.NewError(jsonrpc.CodeInternalError, "resource templates list failed: "+err.Error())
	}
	return json.Marshal(resourcesTemplatesListResult{ResourceTemplates: items, NextCursor: next})
}

func (s *Server) handleResourcesRead(ctx context.Context, params json.RawMessage) (json.RawMessage, error) {
	var p resourceURIParams
	if err := json.Unmarshal(params, &p); err != nil || p.URI == "" {
		return nil, jsonrpc.NewError(jsonrpc.CodeInvalidParams, "missing uri")
	}
	contents, err := s.resources.Read(ctx, p.URI)
	if err != nil {
		return nil, jsonrpc.NewError(jsonrpc.CodeInternalError, "resource read failed: "+err.Error())
	}
	return json.Marshal(resourcesReadResult{Contents: contents})
}

func (s *Server) handleResourcesSubscribe(ctx context.Context, params json.RawMessage) (json.RawMessage, error) {
	var p resourceURIParams
	if err := json.Unmarshal(params, &p); err != nil || p.URI == "" {
		return nil, jsonrpc.NewError(jsonrpc.CodeInvalidParams, "missing uri")
	}
	if err := s.resources.Subscribe(ctx, p.URI); err != nil {
		return nil, jsonrpc.NewError(jsonrpc.CodeInternalError, "resource subscribe failed: "+err.Error())
	}
	return json.RawMessage(`{}`), nil
}

func (s *Server) handleResourcesUnsubscribe(ctx context.Context, params json.RawMessage) (json.RawMessage, error) {
	var p resourceURIParams
	if err := json.Unmarshal(params, &p); err != nil || p.URI == "" {
		return nil, jsonrpc.NewError(jsonrpc.CodeInvalidParams, "missing uri")
	}
	if err := s.resources.Unsubscribe(ctx, p.URI); err != nil {
		return nil, jsonrpc.NewError(jsonrpc.CodeInternalError, "resource unsubscribe failed: "+err.Error())
	}
	return json.RawMessage(`{}`), nil
}
