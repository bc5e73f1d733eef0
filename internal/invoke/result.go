package invoke

import (
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-mcpserver/internal/content"
	"github.com/modelcontextprotocol/go-mcpserver/internal/jsonrpc"
)

// marshalToolResult implements spec.md §4.6's tool result table.
func marshalToolResult(result any) content.CallToolResult {
	switch v := result.(type) {
	case nil:
		return content.CallToolResult{Content: []content.Block{}}
	case string:
		return content.CallToolResult{Content: []content.Block{content.Text(v)}}
	case []string:
		blocks := make([]content.Block, len(v))
		for i, s := range v {
			blocks[i] = content.Text(s)
		}
		return content.CallToolResult{Content: blocks}
	case content.Block:
		return content.CallToolResult{Content: []content.Block{v}}
	case []content.Block:
		return content.CallToolResult{Content: v}
	case content.CallToolResult:
		return v
	default:
		return content.CallToolResult{Content: []content.Block{jsonFallbackBlock(v)}}
	}
}

// marshalPromptResult implements spec.md §4.6's prompt result table.
func marshalPromptResult(result any) (content.GetPromptResult, error) {
	switch v := result.(type) {
	case nil:
		return content.GetPromptResult{}, jsonrpc.NewError(jsonrpc.CodeInternalError, "prompt returned null")
	case string:
		return content.GetPromptResult{Messages: []content.PromptMessage{content.UserTextMessage(v)}}, nil
	case content.PromptMessage:
		return content.GetPromptResult{Messages: []content.PromptMessage{v}}, nil
	case []content.PromptMessage:
		return content.GetPromptResult{Messages: v}, nil
	case content.GetPromptResult:
		return v, nil
	default:
		return content.GetPromptResult{}, jsonrpc.NewError(jsonrpc.CodeInternalError, fmt.Sprintf("unsupported prompt return type %T", v))
	}
}

func jsonFallbackBlock(v any) content.Block {
	raw, err := json.Marshal(v)
	if err != nil {
		return content.Text(fmt.Sprintf("%v", v))
	}
	return content.Text(string(raw))
}
