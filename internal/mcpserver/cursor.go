package mcpserver

import (
	"encoding/base64"
	"strconv"

	"github.com/modelcontextprotocol/go-mcpserver/internal/jsonrpc"
)

// Cursors encode a plain offset into a primitive collection's stable
// snapshot (SPEC_FULL.md's pagination section): the wire format says
// cursors are opaque, so any reversible scheme is a valid choice, and a
// base64-wrapped decimal offset is the simplest one that still rejects
// garbage input.
func encodeCursor(offset int) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.Itoa(offset)))
}

func decodeCursor(cursor string) (int, error) {
	if cursor == "" {
		return 0, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return 0, jsonrpc.NewError(jsonrpc.CodeInvalidParams, "invalid cursor")
	}
	offset, err := strconv.Atoi(string(raw))
	if err != nil || offset < 0 {
		return 0, jsonrpc.NewError(jsonrpc.CodeInvalidParams, "invalid cursor")
	}
	return offset, nil
}

// paginate implements the first-page-concatenates-caller-prefix rule
// from spec.md §4.7: on the first page (empty cursor), a caller-supplied
// handler's results are concatenated ahead of the collection's snapshot;
// subsequent pages paginate the collection snapshot alone, since the
// caller prefix was already delivered in full on page one.
func paginate[T any](prefix, collection []T, cursor string, pageSize int) ([]T, string, error) {
	offset, err := decodeCursor(cursor)
	if err != nil {
		return nil, "", err
	}

	if cursor == "" {
		combined := make([]T, 0, len(prefix)+len(collection))
		combined = append(combined, prefix...)
		combined = append(combined, collection...)

		if pageSize <= 0 || pageSize >= len(combined) {
			return combined, "", nil
		}
		consumed := pageSize - len(prefix)
		if consumed < 0 {
			consumed = 0
		}
		page := combined[:len(prefix)+consumed]
		if consumed < len(collection) {
			return page, encodeCursor(consumed), nil
		}
		return page, "", nil
	}

	if offset >= len(collection) {
		return []T{}, "", nil
	}
	remaining := collection[offset:]
	if pageSize <= 0 || pageSize >= len(remaining) {
		return remaining, "", nil
	}
	page := remaining[:pageSize]
	next := offset + pageSize
	if next < len(collection) {
		return page, encodeCursor(next), nil
	}
	return page, "", nil
}
