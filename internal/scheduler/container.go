package scheduler

import "context"

// System is the capability surface a registered unit of work exposes to the
// scheduler. Everything about turning a closure or method value into a
// System happens above this interface, in the caller's own adapter; the
// scheduler only ever calls Run.
type System interface {
	Run(ctx context.Context, w World, r Resources, mq ModQueuePool) error
}

// SystemContainer wraps a System with its handle-level dependency list and
// active flag. The registry owns these exclusively; a system is born at
// insertion and dies on removal or replacement.
type SystemContainer[H comparable] struct {
	system       System
	dependencies []H
	active       bool
	borrow       *BorrowDescriptor
}

func newSystemContainer[H comparable](system System, deps []H, borrow *BorrowDescriptor) *SystemContainer[H] {
	return &SystemContainer[H]{
		system:       system,
		dependencies: deps,
		active:       true,
		borrow:       borrow,
	}
}

// System returns the wrapped system body. Mutating it through its own
// methods is exactly what GetMut exposes; the borrow descriptor is not
// refreshed as a result, since a system's declared access shape is fixed at
// insertion and the conflict matrix is built from that fixed shape.
func (c *SystemContainer[H]) System() System { return c.system }

// Dependencies returns the handle-level dependency list this container was
// last (re)installed with.
func (c *SystemContainer[H]) Dependencies() []H { return c.dependencies }
