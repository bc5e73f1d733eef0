package jsonrpc

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDGenerator produces session-unique request ids: a random prefix
// established once per session combined with a monotonic counter, so
// that ids are unique within the session even across id-space reuse by
// the peer (spec.md §3 PendingOutbound invariant).
type IDGenerator struct {
	prefix  string
	counter atomic.Int64
}

// NewIDGenerator creates a generator with a fresh random session prefix.
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{prefix: uuid.NewString()[:8]}
}

// Next returns the next id for this session.
func (g *IDGenerator) Next() ID {
	n := g.counter.Add(1)
	return NewStringID(fmt.Sprintf("%s-%d", g.prefix, n))
}
