package stdio

import (
	"bytes"
	"context"
	"testing"

	"github.com/modelcontextprotocol/go-mcpserver/internal/jsonrpc"
	"github.com/stretchr/testify/require"
)

func TestWriteThenReadRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	writer := New(nil, &buf)

	msg := jsonrpc.NewRequest(jsonrpc.NewIntID(1), "ping", nil)
	require.NoError(t, writer.Write(context.Background(), msg))

	reader := New(bytes.NewReader(buf.Bytes()), nil)
	got, err := reader.ReadNext(context.Background())
	require.NoError(t, err)
	require.True(t, got.IsRequest())
	require.Equal(t, "ping", got.Method())
}

func TestCloseIsIdempotentAndDisconnects(t *testing.T) {
	tr := New(bytes.NewReader(nil), &bytes.Buffer{})
	require.True(t, tr.IsConnected())
	require.NoError(t, tr.Close())
	require.NoError(t, tr.Close())
	require.False(t, tr.IsConnected())

	err := tr.Write(context.Background(), jsonrpc.NewNotification("notifications/initialized", nil))
	require.Error(t, err)
}
