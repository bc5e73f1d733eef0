// Package httpsse implements transport.Transport as the MCP "Streamable
// HTTP" transport: JSON-RPC requests arrive as HTTP POSTs to a single
// endpoint, responses are written back on the same HTTP round trip, and
// a GET to the same endpoint opens a Server-Sent-Events stream used to
// deliver messages that have no in-flight HTTP request to ride on
// (server-initiated requests and notifications). Adapted from the
// teacher's internal/transport/http/streamable.go and sse.go.
package httpsse

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-mcpserver/internal/jsonrpc"
	"github.com/modelcontextprotocol/go-mcpserver/internal/transport"
)

// Transport serves one MCP conversation over HTTP. Unlike stdio, many
// physical HTTP connections multiplex onto the single logical
// ReadNext/Write conduit the Transport interface promises: inbound
// POST bodies feed a shared queue, and Write either answers the POST
// that is still open for a given request id or, if none is open
// (outbound server requests, notifications), fans it out over the
// open SSE streams.
type Transport struct {
	addr   string
	server *http.Server

	mu       sync.Mutex
	pending  map[jsonrpc.ID]chan jsonrpc.Message // request id -> channel the HTTP handler is blocked on
	streams  map[string]*sseStream
	closed   bool
	incoming chan jsonrpc.Message
}

type sseStream struct {
	flusher http.Flusher
	w       http.ResponseWriter
	done    chan struct{}
}

// New builds an HTTP transport for addr. The MCP endpoint path is given
// to Serve, which also starts listening.
func New(addr string) *Transport {
	return &Transport{
		addr:     addr,
		pending:  make(map[jsonrpc.ID]chan jsonrpc.Message),
		streams:  make(map[string]*sseStream),
		incoming: make(chan jsonrpc.Message, 64),
	}
}

// Serve starts the HTTP listener in the background. It returns once the
// listener is accepting; callers should arrange for Close to be invoked
// on shutdown (the session's teardown sequence does this automatically).
func (t *Transport) Serve(path string) error {
	mux := http.NewServeMux()
	mux.HandleFunc(path, t.handleMCP)
	t.server = &http.Server{Addr: t.addr, Handler: mux}

	ln, err := net.Listen("tcp", t.addr)
	if err != nil {
		return err
	}
	go t.server.Serve(ln)
	return nil
}

func (t *Transport) handleMCP(w http.ResponseWriter, r *http.Request) {
	if !isLocalhost(r.Host) && !isLocalhost(r.RemoteAddr) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
	}
	switch r.Method {
	case http.MethodGet:
		t.handleSSE(w, r)
	case http.MethodPost:
		t.handlePost(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (t *Transport) handlePost(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var msg jsonrpc.Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		http.Error(w, fmt.Sprintf("invalid JSON-RPC message: %v", err), http.StatusBadRequest)
		return
	}

	var waitCh chan jsonrpc.Message
	if msg.IsRequest() {
		waitCh = make(chan jsonrpc.Message, 1)
		t.mu.Lock()
		t.pending[msg.ID()] = waitCh
		t.mu.Unlock()
	}

	select {
	case t.incoming <- msg:
	case <-r.Context().Done():
		return
	}

	if waitCh == nil {
		// Notification: nothing to correlate a response with.
		w.WriteHeader(http.StatusAccepted)
		return
	}

	select {
	case resp := <-waitCh:
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	case <-r.Context().Done():
		t.mu.Lock()
		delete(t.pending, msg.ID())
		t.mu.Unlock()
	}
}

func (t *Transport) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	stream := &sseStream{flusher: flusher, w: w, done: make(chan struct{})}
	id := fmt.Sprintf("%p", stream)
	t.mu.Lock()
	t.streams[id] = stream
	t.mu.Unlock()
	defer func() {
		t.mu.Lock()
		delete(t.streams, id)
		t.mu.Unlock()
		close(stream.done)
	}()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ":ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// ReadNext returns the next message received from any HTTP POST. SSE
// streams only carry outbound messages and never feed ReadNext.
func (t *Transport) ReadNext(ctx context.Context) (jsonrpc.Message, error) {
	select {
	case msg, ok := <-t.incoming:
		if !ok {
			return jsonrpc.Message{}, io.EOF
		}
		return msg, nil
	case <-ctx.Done():
		return jsonrpc.Message{}, ctx.Err()
	}
}

// Write answers the HTTP POST awaiting this response's id, if any;
// otherwise (outbound server-initiated requests, notifications) it
// fans the message out to every open SSE stream.
func (t *Transport) Write(ctx context.Context, msg jsonrpc.Message) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return transport.ErrNotConnected
	}

	if msg.IsResponse() || msg.IsError() {
		if ch, ok := t.pending[msg.ID()]; ok {
			delete(t.pending, msg.ID())
			t.mu.Unlock()
			ch <- msg
			return nil
		}
	}
	streams := make([]*sseStream, 0, len(t.streams))
	for _, s := range t.streams {
		streams = append(streams, s)
	}
	t.mu.Unlock()

	if len(streams) == 0 {
		return nil
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	for _, s := range streams {
		fmt.Fprintf(s.w, "event: message\ndata: %s\n\n", data)
		s.flusher.Flush()
	}
	return nil
}

// IsConnected reports whether Close has not been called. Whether any SSE
// stream is open is not consulted.
func (t *Transport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.closed
}

// Close shuts the HTTP server down. Idempotent.
func (t *Transport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	close(t.incoming)
	t.mu.Unlock()

	if t.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return t.server.Shutdown(ctx)
}

// isLocalhost matches the teacher's security-header gate for non-localhost
// connections, kept here so the HTTP transport stays safe-by-default
// when exposed beyond loopback without extra wiring.
func isLocalhost(hostport string) bool {
	return strings.HasPrefix(hostport, "127.") ||
		strings.HasPrefix(hostport, "localhost") ||
		strings.HasPrefix(hostport, "[::1]") ||
		strings.HasPrefix(hostport, "::1")
}
