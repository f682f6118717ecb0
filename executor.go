// Package ecsched schedules ECS systems: it resolves a handle-keyed,
// dependency-ordered registry of systems into either a strict sequential
// pass or a parallel dispatch that respects both dependency order and each
// system's declared resource/component borrows.
package ecsched

import (
	"context"

	"github.com/oriumgames/ecsched/internal/scheduler"
)

// System is a unit of scheduled work.
type System = scheduler.System

// World is the capability the scheduler needs from the ECS world: an
// archetype-generation counter and a per-archetype component-membership
// probe, used to keep component-borrow conflicts accurate as archetypes
// appear.
type World = scheduler.World

// Resources is the capability surface of the external resource store a
// system body borrows from.
type Resources = scheduler.Resources

// ModQueuePool is the per-run pool systems acquire deferred world-mutation
// buffers from. See package modqueue for a concrete implementation.
type ModQueuePool = scheduler.ModQueuePool

// Scope hosts the short-lived tasks a parallel dispatch spawns. See package
// workerscope for a concrete implementation.
type Scope = scheduler.Scope

// NoSuchSystem is returned by queries and mutators keyed by an unknown handle.
type NoSuchSystem = scheduler.NoSuchSystem

// CyclicDependency is returned by an insertion that would make the
// dependency graph non-acyclic.
type CyclicDependency = scheduler.CyclicDependency

// DependencyNotFound is returned by an insertion whose declared dependency
// does not resolve to any handle currently registered.
type DependencyNotFound = scheduler.DependencyNotFound

// Executor owns a handle-keyed registry of systems and dispatches them,
// either sequentially (Run) or in parallel across a Scope (RunWithScope),
// respecting the dependency order and conflict relation derived from their
// declared access at insertion time.
type Executor[H comparable] struct {
	inner *scheduler.Executor[H]
}

// NewExecutor creates an empty Executor configured by opts.
func NewExecutor[H comparable](opts ...Option) *Executor[H] {
	cfg := newConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	inner := scheduler.NewExecutor[H](cfg.diagnostics)
	for _, t := range cfg.typeIndexHints {
		inner.TypeIndex().IndexOf(t)
	}
	return &Executor[H]{inner: inner}
}

// Insert registers system with no handle and no dependencies.
func (e *Executor[H]) Insert(system System, access *AccessBuilder) error {
	return e.inner.Insert(system, access)
}

// InsertWithHandle registers system under handle, with no dependencies.
// Reusing a handle already in the registry replaces that system in place.
func (e *Executor[H]) InsertWithHandle(system System, access *AccessBuilder, handle H) error {
	return e.inner.InsertWithHandle(system, access, handle)
}

// InsertWithDeps registers system with no handle of its own, ordered after
// every system named in deps.
func (e *Executor[H]) InsertWithDeps(system System, access *AccessBuilder, deps []H) error {
	return e.inner.InsertWithDeps(system, access, deps)
}

// InsertWithHandleAndDeps registers system under handle, ordered after every
// system named in deps. If this replaces a prior system registered under the
// same handle, replaced reports that and replacedDeps carries its prior
// dependency list.
func (e *Executor[H]) InsertWithHandleAndDeps(system System, access *AccessBuilder, handle H, deps []H) (replaced bool, replacedDeps []H, err error) {
	return e.inner.InsertWithHandleAndDeps(system, access, handle, deps)
}

// Remove drops the system registered under handle, if any, and reports
// whether one was found.
func (e *Executor[H]) Remove(handle H) bool { return e.inner.Remove(handle) }

// Contains reports whether handle currently names a registered system.
func (e *Executor[H]) Contains(handle H) bool { return e.inner.Contains(handle) }

// GetMut returns the system registered under handle, for in-place mutation
// through its own methods. Its declared access shape is unaffected.
func (e *Executor[H]) GetMut(handle H) (System, error) { return e.inner.GetMut(handle) }

// IsActive reports whether the system at handle currently runs.
func (e *Executor[H]) IsActive(handle H) (bool, error) { return e.inner.IsActive(handle) }

// SetActive flips the execution flag for the system at handle. Inactive
// systems are skipped but stay registered.
func (e *Executor[H]) SetActive(handle H, active bool) error {
	return e.inner.SetActive(handle, active)
}

// Run executes every active system once, strictly in dependency order,
// stopping at the first error.
func (e *Executor[H]) Run(ctx context.Context, w World, r Resources, mq ModQueuePool) error {
	return e.inner.Run(ctx, w, r, mq)
}

// RunWithScope dispatches every active system onto scope, running systems in
// parallel wherever dependency order and declared borrows both allow it. It
// returns the first error any system reports, after letting systems already
// running finish. If scope also implements an optional Wait() error method
// (as workerscope.Scope does), RunWithScope calls it after dispatch and
// folds any error it reports in, so scope-level failures (such as context
// cancellation while waiting for a worker slot) are not silently dropped.
func (e *Executor[H]) RunWithScope(ctx context.Context, w World, r Resources, mq ModQueuePool, scope Scope) error {
	runErr := e.inner.RunWithScope(ctx, w, r, mq, scope)
	if waiter, ok := scope.(interface{ Wait() error }); ok {
		if waitErr := waiter.Wait(); waitErr != nil && runErr == nil {
			return waitErr
		}
	}
	return runErr
}
