package scheduler

import (
	"context"
	"fmt"
	"time"
)

// Run executes every active system once, strictly in topological order. It
// stops and returns the first error a system reports; the systems after it
// in the order do not run on that pass.
func (e *Executor[H]) Run(ctx context.Context, w World, res Resources, mq ModQueuePool) error {
	for _, idx := range e.registry.Sorted() {
		c := e.registry.containerAt(idx)
		if c == nil || !c.active {
			continue
		}
		name := e.registry.HandleString(idx)
		start := time.Now()
		e.diagnostics.SystemStart(name)
		err := c.system.Run(ctx, w, res, mq)
		e.diagnostics.SystemEnd(name, err, time.Since(start))
		if err != nil {
			return err
		}
	}
	return nil
}

type completion struct {
	idx SystemIndex
	err error
}

// RunWithScope dispatches every active system onto scope, admitting a
// system only once every system it depends on has finished, it conflicts
// with nothing currently running, and it conflicts with no earlier,
// not-yet-admitted system still being considered in the same admission
// pass — preserving the declared topological order wherever a conflict
// forces a choice, instead of letting a later system race ahead of one it
// can't safely run alongside. It refreshes archetype masks and rebuilds the
// conflict matrix first if the world has gained archetypes since the last
// call. A system error halts further admission but lets already-running
// systems drain before returning; the first error observed is returned.
func (e *Executor[H]) RunWithScope(ctx context.Context, w World, res Resources, mq ModQueuePool, scope Scope) error {
	e.refreshArchetypes(w)

	sorted := e.registry.Sorted()
	finished := make(map[SystemIndex]bool, len(sorted))
	running := make(map[SystemIndex]bool)

	remaining := 0
	for _, idx := range sorted {
		c := e.registry.containerAt(idx)
		if c == nil {
			continue
		}
		if !c.active {
			finished[idx] = true
			continue
		}
		remaining++
	}
	if remaining == 0 {
		return nil
	}

	completions := make(chan completion, remaining)
	var firstErr error

	for remaining > 0 {
		progressed := false
		if firstErr == nil {
			blockedThisPass := make(map[SystemIndex]bool)
			for _, idx := range sorted {
				if finished[idx] || running[idx] {
					continue
				}
				c := e.registry.containerAt(idx)
				if c == nil || !c.active {
					continue
				}
				if !e.dependenciesFinished(c, finished) {
					blockedThisPass[idx] = true
					continue
				}
				if e.conflictsWithAny(idx, running) || e.conflictsWithAny(idx, blockedThisPass) {
					blockedThisPass[idx] = true
					continue
				}
				running[idx] = true
				progressed = true
				e.spawnSystem(ctx, w, res, mq, scope, idx, c, completions)
			}
		}

		if len(running) == 0 {
			if firstErr != nil {
				break
			}
			if !progressed {
				return fmt.Errorf("ecsched: dispatch stuck with %d systems neither running nor finished", remaining)
			}
			continue
		}

		comp := <-completions
		delete(running, comp.idx)
		finished[comp.idx] = true
		remaining--
		if comp.err != nil && firstErr == nil {
			firstErr = comp.err
			e.diagnostics.RunRejected(comp.err)
		}
	}
	return firstErr
}

func (e *Executor[H]) dependenciesFinished(c *SystemContainer[H], finished map[SystemIndex]bool) bool {
	for _, h := range c.Dependencies() {
		idx, err := e.registry.resolve(h)
		if err != nil {
			// The dependency was removed since this system was inserted;
			// nothing to wait on any more.
			continue
		}
		if !finished[idx] {
			return false
		}
	}
	return true
}

// conflictsWithAny reports whether idx conflicts with any index in set. It
// is used both against the currently running set and, within a single
// admission pass, against the set of candidates already considered and held
// back this pass, so a later candidate can't jump ahead of an earlier one it
// conflicts with just because that earlier one hasn't been admitted yet.
func (e *Executor[H]) conflictsWithAny(idx SystemIndex, set map[SystemIndex]bool) bool {
	for other := range set {
		if e.conflicts.Conflicts(idx, other) {
			return true
		}
	}
	return false
}

func (e *Executor[H]) spawnSystem(ctx context.Context, w World, res Resources, mq ModQueuePool, scope Scope, idx SystemIndex, c *SystemContainer[H], completions chan completion) {
	name := e.registry.HandleString(idx)
	start := time.Now()
	e.diagnostics.SystemStart(name)
	system := c.system

	scope.Spawn(func() {
		var runErr error
		func() {
			defer func() {
				if rec := recover(); rec != nil {
					runErr = fmt.Errorf("ecsched: system %s panicked: %v", name, rec)
				}
			}()
			runErr = system.Run(ctx, w, res, mq)
		}()
		e.diagnostics.SystemEnd(name, runErr, time.Since(start))
		completions <- completion{idx: idx, err: runErr}
	})
}

// refreshArchetypes recomputes every registered system's archetype mask if
// the world's archetype generation has advanced since the last call, then
// rebuilds the conflict matrix so component-borrow conflicts reflect the
// current archetype overlap.
func (e *Executor[H]) refreshArchetypes(w World) {
	gen := w.ArchetypesGeneration()
	if e.everRefreshed && gen == e.lastWorldGen {
		return
	}
	for i := 0; i < e.registry.Len(); i++ {
		c := e.registry.containerAt(SystemIndex(i))
		if c == nil || c.borrow == nil {
			continue
		}
		c.borrow.RefreshArchetypes(w)
	}
	e.lastWorldGen = gen
	e.everRefreshed = true
	e.rebuildConflicts()
}
