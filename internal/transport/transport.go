// Package transport defines the byte-transport abstraction the session
// layer consumes. Concrete transports (stdio, Streamable HTTP, in-memory
// pipes) live in subpackages; this package only states the contract
// (spec.md §1, §4.2).
package transport

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-mcpserver/internal/jsonrpc"
)

// ErrNotConnected is returned by Write when the transport has no live
// peer connection.
var ErrNotConnected = errors.New("transport: not connected")

// ErrClosed is a closed-transport error for Transport implementations to
// use. The stdio and httpsse transports do not return it: after Close
// their ReadNext returns io.EOF and their Write returns ErrNotConnected.
var ErrClosed = errors.New("transport: closed")

// Transport is an asynchronous framed-message channel: one logical
// reader and one logical writer over a bidirectional byte stream.
//
// ReadNext has a single-reader contract: the session calls it from one
// goroutine in a loop. Write may be called concurrently by multiple
// goroutines (the session's Run loop and any outbound SendRequest/
// SendNotification call); the transport is responsible for serializing
// those writes onto the wire, the session does not.
type Transport interface {
	// ReadNext blocks until the next framed message is available, ctx
	// is cancelled, or the stream ends. On end of stream it returns
	// io.EOF (see the io package); callers distinguish that from a
	// genuine read error to exit cleanly.
	ReadNext(ctx context.Context) (jsonrpc.Message, error)

	// Write serializes and sends one framed message. Returns
	// ErrNotConnected if the transport has no live peer.
	Write(ctx context.Context, msg jsonrpc.Message) error

	// IsConnected reports whether the transport currently has a live peer.
	IsConnected() bool

	// Close shuts the transport down. Idempotent: a second call returns nil.
	Close() error
}
