// Package jsonrpc implements the JSON-RPC 2.0 message model used by the
// MCP session layer: request ids, the four wire message shapes, and a
// canonical codec between them.
package jsonrpc

import (
	"encoding/json"
	"fmt"
)

// ID is a JSON-RPC request id: either a signed integer or a string.
// The zero value is the "unset" id, used to mark a request that still
// needs a fresh id stamped onto it before it is written.
type ID struct {
	kind   idKind
	number int64
	text   string
}

type idKind int

const (
	idUnset idKind = iota
	idNumber
	idString
)

// NewIntID builds a numeric request id. Id 0 is a valid, distinguishable id.
func NewIntID(n int64) ID { return ID{kind: idNumber, number: n} }

// NewStringID builds a string request id. The empty string is a valid,
// distinguishable id.
func NewStringID(s string) ID { return ID{kind: idString, text: s} }

// IsUnset reports whether this is the distinguished "no id assigned yet" value.
func (id ID) IsUnset() bool { return id.kind == idUnset }

// Equal reports whether two ids have the same kind and value.
func (id ID) Equal(other ID) bool {
	if id.kind != other.kind {
		return false
	}
	switch id.kind {
	case idNumber:
		return id.number == other.number
	case idString:
		return id.text == other.text
	default:
		return true // both unset
	}
}

func (id ID) String() string {
	switch id.kind {
	case idNumber:
		return fmt.Sprintf("%d", id.number)
	case idString:
		return id.text
	default:
		return "<unset>"
	}
}

// MarshalJSON encodes numeric ids as JSON numbers and string ids as JSON
// strings. An unset id marshals to JSON null; callers should never write
// a message with an unset id to the wire.
func (id ID) MarshalJSON() ([]byte, error) {
	switch id.kind {
	case idNumber:
		return json.Marshal(id.number)
	case idString:
		return json.Marshal(id.text)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes a JSON number into a numeric id or a JSON string
// into a string id. Any other shape (bool, object, array, float with a
// fractional part) fails.
func (id *ID) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case nil:
		*id = ID{}
	case string:
		*id = NewStringID(v)
	case float64:
		if v != float64(int64(v)) {
			return fmt.Errorf("jsonrpc: request id %v is not an integer", v)
		}
		*id = NewIntID(int64(v))
	default:
		return fmt.Errorf("jsonrpc: request id must be a number or string, got %T", raw)
	}
	return nil
}
