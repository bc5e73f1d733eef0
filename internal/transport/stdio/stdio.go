// Package stdio implements transport.Transport over the process's
// standard input and output, the way MCP servers are conventionally
// launched by a desktop client. Adapted from the teacher's
// internal/transport/stdio/stdio.go line-delimited JSON reader/writer.
package stdio

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"sync"
	"sync/atomic"

	"github.com/modelcontextprotocol/go-mcpserver/internal/jsonrpc"
	"github.com/modelcontextprotocol/go-mcpserver/internal/transport"
)

// Transport reads and writes newline-delimited JSON-RPC messages over
// the given reader/writer pair (os.Stdin/os.Stdout in production).
type Transport struct {
	reader *bufio.Reader
	writer io.Writer
	mu     sync.Mutex // serializes writes, per transport.Transport's contract
	closed atomic.Bool
}

// New builds a stdio transport over the given reader and writer.
func New(r io.Reader, w io.Writer) *Transport {
	return &Transport{reader: bufio.NewReader(r), writer: w}
}

// ReadNext reads one newline-delimited JSON message. Returns io.EOF when
// the stream ends, matching transport.Transport's ReadNext contract.
func (t *Transport) ReadNext(ctx context.Context) (jsonrpc.Message, error) {
	if t.closed.Load() {
		return jsonrpc.Message{}, io.EOF
	}

	type result struct {
		line []byte
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		line, err := t.reader.ReadBytes('\n')
		ch <- result{line, err}
	}()

	select {
	case <-ctx.Done():
		return jsonrpc.Message{}, ctx.Err()
	case r := <-ch:
		if r.err != nil {
			return jsonrpc.Message{}, r.err
		}
		var msg jsonrpc.Message
		if err := json.Unmarshal(r.line, &msg); err != nil {
			return jsonrpc.Message{}, err
		}
		return msg, nil
	}
}

// Write serializes msg as a single line of JSON terminated by '\n'.
func (t *Transport) Write(ctx context.Context, msg jsonrpc.Message) error {
	if t.closed.Load() {
		return transport.ErrNotConnected
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	t.mu.Lock()
	defer t.mu.Unlock()
	_, err = t.writer.Write(data)
	return err
}

// IsConnected reports whether Close has not yet been called. Stdio has
// no separate handshake; the pipe is "connected" until closed.
func (t *Transport) IsConnected() bool { return !t.closed.Load() }

// Close marks the transport closed. Idempotent.
func (t *Transport) Close() error {
	t.closed.Store(true)
	return nil
}
