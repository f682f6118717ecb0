// Package workerscope provides the default Scope collaborator the parallel
// dispatcher spawns system tasks onto: a fixed-size worker pool built on
// errgroup and a weighted semaphore.
package workerscope

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Scope bounds concurrently running tasks to a fixed worker count and joins
// every spawned task through an errgroup.
type Scope struct {
	ctx context.Context
	sem *semaphore.Weighted
	g   *errgroup.Group
}

// New creates a Scope that runs at most workers tasks at a time. ctx governs
// semaphore acquisition; if it is cancelled before a task acquires its slot,
// that task never runs and Wait reports the cancellation.
func New(ctx context.Context, workers int) *Scope {
	if workers < 1 {
		workers = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	return &Scope{ctx: gctx, sem: semaphore.NewWeighted(int64(workers)), g: g}
}

// Spawn runs task on a worker goroutine once a slot is free.
func (s *Scope) Spawn(task func()) {
	s.g.Go(func() error {
		if err := s.sem.Acquire(s.ctx, 1); err != nil {
			return err
		}
		defer s.sem.Release(1)
		task()
		return nil
	})
}

// Wait blocks until every spawned task has returned, and reports the first
// semaphore-acquisition error (e.g. context cancellation) if any occurred.
// System errors themselves are not surfaced here; the dispatcher already
// collects those through its own completion channel.
func (s *Scope) Wait() error {
	return s.g.Wait()
}
