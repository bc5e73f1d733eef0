package invoke

import "github.com/modelcontextprotocol/go-mcpserver/internal/mcpctx"

// targetKey is the fixed resolver key a per-invocation target is
// published under (spec.md §4.6 "Resource discipline").
const targetKey = "target"

// targetResolver layers a single per-invocation value over the caller's
// scoped resolver, without mutating it.
type targetResolver struct {
	target any
	next   mcpctx.ServiceResolver
}

func (r targetResolver) Resolve(key string) (any, bool) {
	if key == targetKey {
		return r.target, true
	}
	if r.next != nil {
		return r.next.Resolve(key)
	}
	return nil, false
}

// Disposer is the disposal protocol a per-invocation target may
// implement; Close is called on the exit path of every invocation for
// which the target was freshly constructed (spec.md §4.6). Any type
// satisfying io.Closer's shape also satisfies this.
type Disposer interface {
	Close() error
}
