package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-mcpserver/internal/jsonrpc"
)

type listParams struct {
	Cursor string `json:"cursor,omitempty"`
}

type callParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
	Meta      *struct {
		ProgressToken json.RawMessage `json:"progressToken,omitempty"`
	} `json:"_meta,omitempty"`
}

func (p callParams) progressToken() json.RawMessage {
	if p.Meta == nil {
		return nil
	}
	return p.Meta.ProgressToken
}

type toolsListResult struct {
	Tools      []Tool `json:"tools"`
	NextCursor string `json:"nextCursor,omitempty"`
}

// handleToolsList synthesizes a page from the caller's list handler
// (first page only) concatenated with the tools collection's snapshot
// (spec.md §4.7).
func (s *Server) handleToolsList(ctx context.Context, params json.RawMessage) (json.RawMessage, error) {
	var p listParams
	if len(params) > 0 {
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, jsonrpc.NewError(jsonrpc.CodeInvalidParams, "malformed tools/list params: "+err.Error())
		}
	}

	var prefix []Tool
	if p.Cursor == "" && s.toolsListHandler != nil {
		extra, _, err := s.toolsListHandler(ctx, "")
		if err != nil {
			return nil, jsonrpc.NewError(jsonrpc.CodeInternalError, "tools list handler failed: "+err.Error())
		}
		prefix = extra
	}

	page, next, err := paginate(prefix, s.tools.Snapshot(), p.Cursor, s.pageSize)
	if err != nil {
		return nil, err
	}
	return json.Marshal(toolsListResult{Tools: page, NextCursor: next})
}

// handleToolsCall dispatches by name to the tools collection, falling
// back to a caller-supplied handler, else a MethodNotFound-shaped error
// (spec.md §4.7 "tools/call synthesis").
func (s *Server) handleToolsCall(ctx context.Context, params json.RawMessage) (json.RawMessage, error) {
	var p callParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, jsonrpc.NewError(jsonrpc.CodeInvalidParams, "malformed tools/call params: "+err.Error())
	}
	if p.Name == "" {
		return nil, jsonrpc.NewError(jsonrpc.CodeInvalidParams, "missing tool name")
	}

	if tool, ok := s.tools.TryGet(p.Name); ok {
		rc := s.requestContext(ctx, p.Arguments, p.progressToken())
		result, err := tool.Adapter.InvokeTool(ctx, rc, p.Arguments)
		if err != nil {
			return nil, err
		}
		return json.Marshal(result)
	}

	if s.toolsCallFallback != nil {
		result, err := s.toolsCallFallback(ctx, p.Name, p.Arguments)
		if err != nil {
			return nil, err
		}
		return json.Marshal(result)
	}

	return nil, jsonrpc.NewError(jsonrpc.CodeMethodNotFound, fmt.Sprintf("unknown tool %q", p.Name))
}
