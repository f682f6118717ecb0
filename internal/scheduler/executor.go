package scheduler

import "fmt"

// Executor owns the registry, the derived conflict matrix, and everything
// needed to dispatch a run. It is the single stateful type the rest of this
// package's operations hang off of.
type Executor[H comparable] struct {
	registry      *Registry[H]
	conflicts     *ConflictMatrix
	lastWorldGen  uint64
	everRefreshed bool
	diagnostics   Diagnostics
}

// NewExecutor creates an empty executor. diagnostics may be nil, in which
// case NopDiagnostics is used.
func NewExecutor[H comparable](diagnostics Diagnostics) *Executor[H] {
	if diagnostics == nil {
		diagnostics = NopDiagnostics{}
	}
	return &Executor[H]{
		registry:    NewRegistry[H](),
		conflicts:   &ConflictMatrix{},
		diagnostics: diagnostics,
	}
}

// TypeIndex exposes the executor's shared type index so callers can build
// BorrowDescriptors with AccessBuilder.Build before insertion.
func (e *Executor[H]) TypeIndex() *TypeIndex { return e.registry.TypeIndex() }

func (e *Executor[H]) rebuildConflicts() {
	e.conflicts = BuildConflictMatrix(e.registry)
}

// Insert registers system with no handle and no dependencies.
func (e *Executor[H]) Insert(system System, access *AccessBuilder) error {
	_, err := e.insert(system, access, nil, nil)
	return err
}

// InsertWithHandle registers system under handle, with no dependencies.
// Re-using a handle already in the registry replaces that system in place.
func (e *Executor[H]) InsertWithHandle(system System, access *AccessBuilder, handle H) error {
	_, err := e.insert(system, access, &handle, nil)
	return err
}

// InsertWithDeps registers system with no handle of its own, ordered after
// every system named in deps.
func (e *Executor[H]) InsertWithDeps(system System, access *AccessBuilder, deps []H) error {
	_, err := e.insert(system, access, nil, deps)
	return err
}

// InsertWithHandleAndDeps registers system under handle, ordered after every
// system named in deps. On success, a prior system that was replaced (same
// handle) is reported via replaced/replacedDeps; neither is meaningful if
// replaced is false.
func (e *Executor[H]) InsertWithHandleAndDeps(system System, access *AccessBuilder, handle H, deps []H) (replaced bool, replacedDeps []H, err error) {
	res, err := e.insert(system, access, &handle, deps)
	if err != nil {
		return false, nil, err
	}
	return res.replaced, res.prevDeps, nil
}

func (e *Executor[H]) insert(system System, access *AccessBuilder, handle *H, deps []H) (insertResult[H], error) {
	if access == nil {
		access = NewAccessBuilder()
	}
	borrow, err := access.Build(e.registry.typeIndex)
	if err != nil {
		return insertResult[H]{}, err
	}
	res, err := e.registry.insertInner(system, borrow, handle, deps)
	if err != nil {
		return insertResult[H]{}, err
	}
	e.rebuildConflicts()
	return res, nil
}

// Remove drops the system registered under handle, if any.
func (e *Executor[H]) Remove(handle H) (existed bool) {
	_, _, existed = e.registry.Remove(handle)
	if existed {
		e.rebuildConflicts()
	}
	return existed
}

// Contains reports whether handle currently names a registered system.
func (e *Executor[H]) Contains(handle H) bool { return e.registry.Contains(handle) }

// GetMut returns the system registered under handle.
func (e *Executor[H]) GetMut(handle H) (System, error) { return e.registry.GetMut(handle) }

// IsActive reports whether the system at handle currently runs.
func (e *Executor[H]) IsActive(handle H) (bool, error) { return e.registry.IsActive(handle) }

// SetActive flips the execution flag for the system at handle.
func (e *Executor[H]) SetActive(handle H, active bool) error {
	return e.registry.SetActive(handle, active)
}

// Builder accumulates insertions that must all succeed, panicking at the
// first one that doesn't. It exists for callers who want to describe a fixed
// system set up front and treat a malformed graph as a programming error
// rather than a runtime one worth plumbing an error return through.
type Builder[H comparable] struct {
	executor *Executor[H]
}

// NewBuilder starts a Builder around a fresh Executor.
func NewBuilder[H comparable](diagnostics Diagnostics) *Builder[H] {
	return &Builder[H]{executor: NewExecutor[H](diagnostics)}
}

// System registers system with no handle and no dependencies, panicking on
// error. With no handle and no dependencies the only possible error is an
// access declaration that both reads and writes the same resource type.
func (b *Builder[H]) System(system System, access *AccessBuilder) *Builder[H] {
	if err := b.executor.Insert(system, access); err != nil {
		panic(fmt.Sprintf("ecsched: builder: %v", err))
	}
	return b
}

// SystemWithHandle registers system under handle, panicking on error.
func (b *Builder[H]) SystemWithHandle(system System, access *AccessBuilder, handle H) *Builder[H] {
	if err := b.executor.InsertWithHandle(system, access, handle); err != nil {
		panic(fmt.Sprintf("ecsched: builder: %v", err))
	}
	return b
}

// SystemWithDeps registers system ordered after deps, panicking on error.
func (b *Builder[H]) SystemWithDeps(system System, access *AccessBuilder, deps []H) *Builder[H] {
	if err := b.executor.InsertWithDeps(system, access, deps); err != nil {
		panic(fmt.Sprintf("ecsched: builder: %v", err))
	}
	return b
}

// SystemWithHandleAndDeps registers system under handle, ordered after deps,
// panicking on error.
func (b *Builder[H]) SystemWithHandleAndDeps(system System, access *AccessBuilder, handle H, deps []H) *Builder[H] {
	if _, _, err := b.executor.InsertWithHandleAndDeps(system, access, handle, deps); err != nil {
		panic(fmt.Sprintf("ecsched: builder: %v", err))
	}
	return b
}

// Build returns the assembled executor.
func (b *Builder[H]) Build() *Executor[H] {
	return b.executor
}
