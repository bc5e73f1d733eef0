package jsonrpc

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
	}{
		{
			name: "request with integer id 0",
			msg:  NewRequest(NewIntID(0), "ping", nil),
		},
		{
			name: "request with empty string id",
			msg:  NewRequest(NewStringID(""), "tools/list", json.RawMessage(`{"cursor":"abc"}`)),
		},
		{
			name: "response",
			msg:  NewResponse(NewIntID(42), json.RawMessage(`{"ok":true}`)),
		},
		{
			name: "error",
			msg:  NewErrorMessage(NewIntID(7), NewError(CodeMethodNotFound, "unknown method")),
		},
		{
			name: "notification",
			msg:  NewNotification("notifications/initialized", nil),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.msg)
			require.NoError(t, err)

			var decoded Message
			require.NoError(t, json.Unmarshal(data, &decoded))

			assert.Equal(t, tt.msg.Kind(), decoded.Kind())
			assert.True(t, tt.msg.ID().Equal(decoded.ID()))
			assert.Equal(t, tt.msg.Method(), decoded.Method())
		})
	}
}

func TestUnmarshalRejectsMalformed(t *testing.T) {
	var m Message
	err := json.Unmarshal([]byte(`{"jsonrpc":"2.0","foo":"bar"}`), &m)
	require.Error(t, err)

	var rpcErr *Error
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, CodeParseError, rpcErr.Code)
}

func TestIDZeroAndEmptyAreDistinguishableAndValid(t *testing.T) {
	zero := NewIntID(0)
	empty := NewStringID("")

	assert.False(t, zero.Equal(empty))
	assert.False(t, zero.IsUnset())
	assert.False(t, empty.IsUnset())
}

func TestIDGeneratorProducesUniqueIDs(t *testing.T) {
	gen := NewIDGenerator()
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := gen.Next()
		assert.False(t, seen[id.String()], "duplicate id generated: %s", id)
		seen[id.String()] = true
	}
}
