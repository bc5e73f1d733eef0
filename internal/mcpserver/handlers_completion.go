package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-mcpserver/internal/jsonrpc"
)

type completeParams struct {
	Ref      CompletionRef      `json:"ref"`
	Argument CompletionArgument `json:"argument"`
}

type completeResultWire struct {
	Completion CompletionResult `json:"completion"`
}

func (s *Server) handleCompletionComplete(ctx context.Context, params json.RawMessage) (json.RawMessage, error) {
	var p completeParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, jsonrpc.NewError(jsonrpc.CodeInvalidParams, "malformed completion/complete params: "+err.Error())
	}
	result, err := s.completion(ctx, p.Ref, p.Argument)
	if err != nil {
		return nil, jsonrpc.NewError(jsonrpc.CodeInternalError, "completion failed: "+err.Error())
	}
	return json.Marshal(completeResultWire{Completion: result})
}
