package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-mcpserver/internal/jsonrpc"
)

type promptsListResult struct {
	Prompts    []Prompt `json:"prompts"`
	NextCursor string   `json:"nextCursor,omitempty"`
}

// handlePromptsList is the prompts symmetric of handleToolsList.
func (s *Server) handlePromptsList(ctx context.Context, params json.RawMessage) (json.RawMessage, error) {
	var p listParams
	if len(params) > 0 {
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, jsonrpc.NewError(jsonrpc.CodeInvalidParams, "malformed prompts/list params: "+err.Error())
		}
	}

	var prefix []Prompt
	if p.Cursor == "" && s.promptsListHandler != nil {
		extra, _, err := s.promptsListHandler(ctx, "")
		if err != nil {
			return nil, jsonrpc.NewError(jsonrpc.CodeInternalError, "prompts list handler failed: "+err.Error())
		}
		prefix = extra
	}

	page, next, err := paginate(prefix, s.prompts.Snapshot(), p.Cursor, s.pageSize)
	if err != nil {
		return nil, err
	}
	return json.Marshal(promptsListResult{Prompts: page, NextCursor: next})
}

// handlePromptsGet is the prompts symmetric of handleToolsCall.
func (s *Server) handlePromptsGet(ctx context.Context, params json.RawMessage) (json.RawMessage, error) {
	var p callParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, jsonrpc.NewError(jsonrpc.CodeInvalidParams, "malformed prompts/get params: "+err.Error())
	}
	if p.Name == "" {
		return nil, jsonrpc.NewError(jsonrpc.CodeInvalidParams, "missing prompt name")
	}

	if prompt, ok := s.prompts.TryGet(p.Name); ok {
		rc := s.requestContext(ctx, p.Arguments, p.progressToken())
		result, err := prompt.Adapter.InvokePrompt(ctx, rc, p.Arguments)
		if err != nil {
			return nil, err
		}
		return json.Marshal(result)
	}

	if s.promptsGetFallback != nil {
		result, err := s.promptsGetFallback(ctx, p.Name, p.Arguments)
		if err != nil {
			return nil, err
		}
		return json.Marshal(result)
	}

	return nil, jsonrpc.NewError(jsonrpc.CodeMethodNotFound, fmt.Sprintf("unknown prompt %q", p.Name))
}
