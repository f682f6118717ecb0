package ecsched

import (
	"context"

	"github.com/oriumgames/ecsched/internal/workerscope"
)

// WorkerScope is the public alias for the default Scope implementation: a
// fixed-size worker pool built on errgroup and a weighted semaphore.
type WorkerScope = workerscope.Scope

// NewWorkerScope creates a WorkerScope bounded to workers concurrently
// running system tasks.
func NewWorkerScope(ctx context.Context, workers int) *WorkerScope {
	return workerscope.New(ctx, workers)
}
