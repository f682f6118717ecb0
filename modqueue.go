package ecsched

import (
	"context"

	"github.com/oriumgames/ecsched/internal/modqueue"
)

// DeferredQueue is the public alias for the internal modqueue.Queue: the
// buffer a single system's task records its deferred world mutations into.
type DeferredQueue = modqueue.Queue

// DeferredPool is the public alias for the internal modqueue.Pool, a
// concrete ModQueuePool implementation.
type DeferredPool = modqueue.Pool

// Mutation is a single deferred operation a system wants applied to the
// world once the current run has finished.
type Mutation = modqueue.Mutation

// NewDeferredPool constructs a new, empty DeferredPool.
func NewDeferredPool() *DeferredPool {
	return modqueue.NewPool()
}

type modQueuePoolCtxKey struct{}

// WithDeferredPool attaches pool to ctx for system bodies that expect to
// find their ModQueuePool there rather than threaded through explicitly.
func WithDeferredPool(parent context.Context, pool *DeferredPool) context.Context {
	return context.WithValue(parent, modQueuePoolCtxKey{}, pool)
}

// DeferredPoolFrom extracts the DeferredPool attached to ctx, or nil.
func DeferredPoolFrom(ctx context.Context) *DeferredPool {
	if v := ctx.Value(modQueuePoolCtxKey{}); v != nil {
		if p, ok := v.(*DeferredPool); ok {
			return p
		}
	}
	return nil
}
