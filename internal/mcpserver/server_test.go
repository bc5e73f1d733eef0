package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelcontextprotocol/go-mcpserver/internal/content"
	"github.com/modelcontextprotocol/go-mcpserver/internal/invoke"
	"github.com/modelcontextprotocol/go-mcpserver/internal/jsonrpc"
	"github.com/modelcontextprotocol/go-mcpserver/internal/logging"
)

// pipeTransport mirrors internal/session's in-memory test transport:
// two ends of a channel pair standing in for a live connection.
type pipeTransport struct {
	mu     sync.Mutex
	inbox  chan jsonrpc.Message
	peer   *pipeTransport
	closed bool
}

func newPipePair() (*pipeTransport, *pipeTransport) {
	a := &pipeTransport{inbox: make(chan jsonrpc.Message, 16)}
	b := &pipeTransport{inbox: make(chan jsonrpc.Message, 16)}
	a.peer = b
	b.peer = a
	return a, b
}

func (p *pipeTransport) ReadNext(ctx context.Context) (jsonrpc.Message, error) {
	select {
	case msg, ok := <-p.inbox:
		if !ok {
			return jsonrpc.Message{}, errEOF
		}
		return msg, nil
	case <-ctx.Done():
		return jsonrpc.Message{}, ctx.Err()
	}
}

func (p *pipeTransport) Write(ctx context.Context, msg jsonrpc.Message) error {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return errClosed
	}
	p.peer.inbox <- msg
	return nil
}

func (p *pipeTransport) IsConnected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.closed
}

func (p *pipeTransport) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	close(p.inbox)
	return nil
}

type sentinelErr string

func (e sentinelErr) Error() string { return string(e) }

const (
	errEOF    = sentinelErr("pipe: eof")
	errClosed = sentinelErr("pipe: closed")
)

type method4Args struct {
	I int `json:"i"`
}

func newTestServer(t *testing.T, configure func(*Options)) (*Server, *pipeTransport) {
	t.Helper()
	client, serverSide := newPipePair()

	opts := Options{
		ServerInfo:   ServerInfo{Name: "test-server", Version: "0.0.1"},
		Capabilities: Capabilities{Tools: &ToolsCapability{ListChanged: true}, Prompts: &PromptsCapability{ListChanged: true}},
		PageSize:     50,
	}
	if configure != nil {
		configure(&opts)
	}

	srv, err := New(serverSide, opts)
	require.NoError(t, err)
	return srv, client
}

func callRequest(t *testing.T, client *pipeTransport, ctx context.Context, id jsonrpc.ID, method string, params json.RawMessage) jsonrpc.Message {
	t.Helper()
	require.NoError(t, client.Write(ctx, jsonrpc.NewRequest(id, method, params)))
	reply, err := client.ReadNext(ctx)
	require.NoError(t, err)
	return reply
}

// S1: initialize handshake.
func TestInitializeHandshake(t *testing.T) {
	srv, client := newTestServer(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.Run(ctx)

	reqID := jsonrpc.NewIntID(1)
	params, _ := json.Marshal(initializeParams{
		ProtocolVersion: "2024-11-05",
		ClientInfo:      ClientInfo{Name: "test-client", Version: "1.0"},
		Capabilities:    Capabilities{Sampling: &struct{}{}},
	})
	reply := callRequest(t, client, ctx, reqID, "initialize", params)
	require.True(t, reply.IsResponse())

	var result initializeResult
	require.NoError(t, json.Unmarshal(reply.Result(), &result))
	assert.Equal(t, "2024-11-05", result.ProtocolVersion)
	assert.Equal(t, "test-server", result.ServerInfo.Name)
	assert.NotNil(t, result.Capabilities.Tools)

	// a second initialize on the same session is an error.
	reply2 := callRequest(t, client, ctx, jsonrpc.NewIntID(2), "initialize", params)
	require.True(t, reply2.IsError())
	assert.Equal(t, jsonrpc.CodeInvalidRequest, reply2.Err().Code)

	assert.Equal(t, "test-client", srv.ClientInfo().Name)
	assert.NotNil(t, srv.ClientCapabilities().Sampling)
}

// S2: tool listing and call against a Method4(i int) -> string style tool.
func TestToolsListAndCall(t *testing.T) {
	srv, client := newTestServer(t, nil)
	require.NoError(t, srv.RegisterTool("method4", "multiplies i by 4", func(ctx context.Context, a method4Args) (any, error) {
		return fmt.Sprintf("%d", a.I*4), nil
	}, invoke.Options{}, nil))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.Run(ctx)

	listReply := callRequest(t, client, ctx, jsonrpc.NewIntID(1), "tools/list", nil)
	require.True(t, listReply.IsResponse())
	var list toolsListResult
	require.NoError(t, json.Unmarshal(listReply.Result(), &list))
	require.Len(t, list.Tools, 1)
	assert.Equal(t, "method4", list.Tools[0].Name)
	assert.JSONEq(t, `{"type":"object","properties":{"i":{"type":"integer"}},"required":["i"]}`, string(list.Tools[0].InputSchema))

	callParams, _ := json.Marshal(map[string]any{"name": "method4", "arguments": map[string]any{"i": 3}})
	callReply := callRequest(t, client, ctx, jsonrpc.NewIntID(2), "tools/call", callParams)
	require.True(t, callReply.IsResponse())

	var result content.CallToolResult
	require.NoError(t, json.Unmarshal(callReply.Result(), &result))
	require.Len(t, result.Content, 1)
	assert.Equal(t, "12", result.Content[0].Text)
	assert.False(t, result.IsError)
}

// S3: a peer-cancelled tool call gets no reply.
func TestToolCallPeerCancelled(t *testing.T) {
	srv, client := newTestServer(t, nil)
	started := make(chan struct{})
	release := make(chan struct{})
	require.NoError(t, srv.RegisterTool("slow", "", func(ctx context.Context) (any, error) {
		close(started)
		select {
		case <-release:
			return "done", nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}, invoke.Options{}, nil))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.Run(ctx)

	reqID := jsonrpc.NewIntID(1)
	callParams, _ := json.Marshal(map[string]any{"name": "slow"})
	require.NoError(t, client.Write(ctx, jsonrpc.NewRequest(reqID, "tools/call", callParams)))
	<-started

	type cancelledParams struct {
		RequestID jsonrpc.ID `json:"requestId"`
	}
	cp, _ := json.Marshal(cancelledParams{RequestID: reqID})
	require.NoError(t, client.Write(ctx, jsonrpc.NewNotification("notifications/cancelled", cp)))
	close(release)

	select {
	case reply := <-client.inbox:
		t.Fatalf("unexpected reply delivered after peer cancellation: %+v", reply)
	case <-time.After(100 * time.Millisecond):
	}
}

// S4: an exception in a tool becomes a successful isError result, never a protocol error.
func TestToolCallExceptionBecomesIsError(t *testing.T) {
	srv, client := newTestServer(t, nil)
	require.NoError(t, srv.RegisterTool("boom", "", func(ctx context.Context) (any, error) {
		return nil, fmt.Errorf("kaboom")
	}, invoke.Options{}, nil))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.Run(ctx)

	callParams, _ := json.Marshal(map[string]any{"name": "boom"})
	reply := callRequest(t, client, ctx, jsonrpc.NewIntID(1), "tools/call", callParams)
	require.True(t, reply.IsResponse())

	var result content.CallToolResult
	require.NoError(t, json.Unmarshal(reply.Result(), &result))
	assert.True(t, result.IsError)
	require.Len(t, result.Content, 1)
	assert.Contains(t, result.Content[0].Text, "boom")
}

// S5: registering a tool after initialized emits a list_changed notification.
func TestListChangedNotificationAfterInitialized(t *testing.T) {
	srv, client := newTestServer(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.Run(ctx)

	require.NoError(t, client.Write(ctx, jsonrpc.NewNotification("notifications/initialized", nil)))
	time.Sleep(10 * time.Millisecond) // let the notification land before registering

	require.NoError(t, srv.RegisterTool("late", "", func(ctx context.Context) (any, error) {
		return "ok", nil
	}, invoke.Options{}, nil))

	msg, err := client.ReadNext(ctx)
	require.NoError(t, err)
	assert.True(t, msg.IsNotification())
	assert.Equal(t, "notifications/tools/list_changed", msg.Method())
}

// S6: outbound sampling without the client capability fails with a precondition error.
func TestRequestSamplingWithoutCapabilityFails(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	_, err := srv.RequestSampling(context.Background(), json.RawMessage(`{}`))
	require.Error(t, err)
	var precondition *PreconditionError
	assert.ErrorAs(t, err, &precondition)
}

func TestConstructionFailsWithoutResourceHandlers(t *testing.T) {
	client, serverSide := newPipePair()
	_ = client
	_, err := New(serverSide, Options{
		ServerInfo:   ServerInfo{Name: "x", Version: "1"},
		Capabilities: Capabilities{Resources: &ResourcesCapability{}},
	})
	require.Error(t, err)
	var configErr *ConfigError
	assert.ErrorAs(t, err, &configErr)
}

func TestPaginationAcrossPages(t *testing.T) {
	srv, client := newTestServer(t, func(o *Options) { o.PageSize = 2 })
	for i := 0; i < 5; i++ {
		i := i
		require.NoError(t, srv.RegisterTool(fmt.Sprintf("tool%d", i), "", func(ctx context.Context) (any, error) {
			return "ok", nil
		}, invoke.Options{}, nil))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.Run(ctx)

	seen := map[string]bool{}
	cursor := ""
	for {
		params, _ := json.Marshal(listParams{Cursor: cursor})
		reply := callRequest(t, client, ctx, jsonrpc.NewIntID(1), "tools/list", params)
		require.True(t, reply.IsResponse())
		var page toolsListResult
		require.NoError(t, json.Unmarshal(reply.Result(), &page))
		for _, tl := range page.Tools {
			seen[tl.Name] = true
		}
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}
	assert.Len(t, seen, 5)
}

// LoggerSink.Log must mask sensitive fields before a notifications/message
// payload leaves the process.
func TestLoggerSinkLogRedactsSensitiveFields(t *testing.T) {
	srv, client := newTestServer(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.Run(ctx)

	sink := srv.AsLoggerSink()
	require.NoError(t, sink.Log(ctx, logging.LevelInfo, "test", map[string]any{
		"tool":  "echo",
		"token": "super-secret-token",
	}))

	msg, err := client.ReadNext(ctx)
	require.NoError(t, err)
	require.True(t, msg.IsNotification())
	assert.Equal(t, "notifications/message", msg.Method())

	var payload struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(msg.Params(), &payload))
	assert.Equal(t, "echo", payload.Data["tool"])
	assert.NotEqual(t, "super-secret-token", payload.Data["token"])
}
