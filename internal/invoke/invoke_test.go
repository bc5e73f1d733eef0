package invoke

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelcontextprotocol/go-mcpserver/internal/content"
	"github.com/modelcontextprotocol/go-mcpserver/internal/jsonrpc"
	"github.com/modelcontextprotocol/go-mcpserver/internal/mcpctx"
)

type method4Args struct {
	I int `json:"i"`
}

func TestAdaptPublishesSchemaForDataParameter(t *testing.T) {
	a, err := Adapt("Method4", func(ctx context.Context, args method4Args) (string, error) {
		return "", nil
	}, Options{})
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal(a.InputSchema(), &schema))
	assert.Equal(t, "object", schema["type"])
	props := schema["properties"].(map[string]any)
	assert.Contains(t, props, "i")
	assert.Equal(t, []any{"i"}, schema["required"])
}

func TestInvokeToolStringResult(t *testing.T) {
	a, err := Adapt("Method4", func(ctx context.Context, args method4Args) (string, error) {
		return "Method4 Result " + strconv.Itoa(args.I), nil
	}, Options{})
	require.NoError(t, err)

	result, err := a.InvokeTool(context.Background(), mcpctx.RequestContext{}, json.RawMessage(`{"i":42}`))
	require.NoError(t, err)
	require.Len(t, result.Content, 1)
	assert.Equal(t, "text", result.Content[0].Type)
	assert.Equal(t, "Method4 Result 42", result.Content[0].Text)
}

func TestInvokeToolMissingRequiredParamIsInvalidParams(t *testing.T) {
	a, err := Adapt("Method4", func(ctx context.Context, args method4Args) (string, error) {
		return "unreachable", nil
	}, Options{})
	require.NoError(t, err)

	_, err = a.InvokeTool(context.Background(), mcpctx.RequestContext{}, json.RawMessage(`{}`))
	require.Error(t, err)
	var rpcErr *jsonrpc.Error
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, jsonrpc.CodeInvalidParams, rpcErr.Code)
}

func TestInvokeToolCallableErrorBecomesIsErrorContent(t *testing.T) {
	var logged error
	a, err := Adapt("throwy", func(ctx context.Context) (string, error) {
		return "", errors.New("boom")
	}, Options{OnFailure: func(name string, e error) { logged = e }})
	require.NoError(t, err)

	result, err := a.InvokeTool(context.Background(), mcpctx.RequestContext{}, nil)
	require.NoError(t, err)
	assert.True(t, result.IsError)
	require.Len(t, result.Content, 1)
	assert.Equal(t, "An error occurred invoking 'throwy'.", result.Content[0].Text)
	assert.EqualError(t, logged, "boom")
}

func TestInvokeToolPanicBecomesIsErrorContent(t *testing.T) {
	a, err := Adapt("panicky", func(ctx context.Context) (string, error) {
		panic("kaboom")
	}, Options{})
	require.NoError(t, err)

	result, err := a.InvokeTool(context.Background(), mcpctx.RequestContext{}, nil)
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestInvokeToolNoDataParamIgnoresArguments(t *testing.T) {
	a, err := Adapt("ping", func(ctx context.Context) (string, error) {
		return "pong", nil
	}, Options{})
	require.NoError(t, err)

	result, err := a.InvokeTool(context.Background(), mcpctx.RequestContext{}, json.RawMessage(`{"unused":1}`))
	require.NoError(t, err)
	assert.Equal(t, "pong", result.Content[0].Text)
}

func TestInvokeToolPassthroughCallToolResult(t *testing.T) {
	want := content.CallToolResult{Content: []content.Block{content.Text("x")}}
	a, err := Adapt("direct", func(ctx context.Context) (content.CallToolResult, error) {
		return want, nil
	}, Options{})
	require.NoError(t, err)

	result, err := a.InvokeTool(context.Background(), mcpctx.RequestContext{}, nil)
	require.NoError(t, err)
	assert.Equal(t, want, result)
}

func TestInvokeToolStringSliceResult(t *testing.T) {
	a, err := Adapt("many", func(ctx context.Context) ([]string, error) {
		return []string{"a", "b"}, nil
	}, Options{})
	require.NoError(t, err)

	result, err := a.InvokeTool(context.Background(), mcpctx.RequestContext{}, nil)
	require.NoError(t, err)
	require.Len(t, result.Content, 2)
	assert.Equal(t, "a", result.Content[0].Text)
	assert.Equal(t, "b", result.Content[1].Text)
}

func TestInvokeToolFallbackToJSONForUnknownShape(t *testing.T) {
	type custom struct {
		N int `json:"n"`
	}
	a, err := Adapt("custom", func(ctx context.Context) (custom, error) {
		return custom{N: 5}, nil
	}, Options{})
	require.NoError(t, err)

	result, err := a.InvokeTool(context.Background(), mcpctx.RequestContext{}, nil)
	require.NoError(t, err)
	require.Len(t, result.Content, 1)
	assert.JSONEq(t, `{"n":5}`, result.Content[0].Text)
}

func TestInvokePromptStringResult(t *testing.T) {
	a, err := Adapt("greeting", func(ctx context.Context) (string, error) {
		return "hello", nil
	}, Options{})
	require.NoError(t, err)

	result, err := a.InvokePrompt(context.Background(), mcpctx.RequestContext{}, nil)
	require.NoError(t, err)
	require.Len(t, result.Messages, 1)
	assert.Equal(t, "user", result.Messages[0].Role)
}

func TestInvokePromptNullIsInternalError(t *testing.T) {
	a, err := Adapt("nullprompt", func(ctx context.Context) (any, error) {
		return nil, nil
	}, Options{})
	require.NoError(t, err)

	_, err = a.InvokePrompt(context.Background(), mcpctx.RequestContext{}, nil)
	require.Error(t, err)
	var rpcErr *jsonrpc.Error
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, jsonrpc.CodeInternalError, rpcErr.Code)
}

func TestAdaptRejectsMultipleDataParams(t *testing.T) {
	_, err := Adapt("bad", func(ctx context.Context, a method4Args, b method4Args) (string, error) {
		return "", nil
	}, Options{})
	assert.ErrorIs(t, err, errMultipleDataParams)
}

func TestAdaptRejectsBadReturnShape(t *testing.T) {
	_, err := Adapt("bad", func(ctx context.Context) string {
		return ""
	}, Options{})
	assert.ErrorIs(t, err, errBadReturnShape)
}

type disposableTarget struct {
	closed bool
}

func (d *disposableTarget) Close() error {
	d.closed = true
	return nil
}

func TestPerInvocationTargetIsDisposedAfterCall(t *testing.T) {
	built := &disposableTarget{}
	a, err := Adapt("withTarget", func(ctx context.Context, rc mcpctx.RequestContext) (string, error) {
		target, ok := rc.Resolver.Resolve("target")
		if !ok {
			return "", errors.New("target not resolved")
		}
		_ = target
		return "ok", nil
	}, Options{NewTarget: func() (any, error) { return built, nil }})
	require.NoError(t, err)

	result, err := a.InvokeTool(context.Background(), mcpctx.RequestContext{}, nil)
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.True(t, built.closed)
}
