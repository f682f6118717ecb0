package ecsched

import "github.com/oriumgames/ecsched/internal/scheduler"

// Builder accumulates insertions that must all succeed, panicking at the
// first one that doesn't. It is for callers who want to describe a fixed
// system set up front and treat a malformed dependency graph as a
// programming error rather than a runtime one worth plumbing an error
// return through.
type Builder[H comparable] struct {
	inner *scheduler.Builder[H]
}

// NewBuilder starts a Builder configured by opts.
func NewBuilder[H comparable](opts ...Option) *Builder[H] {
	cfg := newConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	inner := scheduler.NewBuilder[H](cfg.diagnostics)
	ti := inner.Build().TypeIndex()
	for _, t := range cfg.typeIndexHints {
		ti.IndexOf(t)
	}
	return &Builder[H]{inner: inner}
}

// System registers system with no handle and no dependencies.
func (b *Builder[H]) System(system System, access *AccessBuilder) *Builder[H] {
	b.inner.System(system, access)
	return b
}

// SystemWithHandle registers system under handle, panicking on error.
func (b *Builder[H]) SystemWithHandle(system System, access *AccessBuilder, handle H) *Builder[H] {
	b.inner.SystemWithHandle(system, access, handle)
	return b
}

// SystemWithDeps registers system ordered after deps, panicking on error.
func (b *Builder[H]) SystemWithDeps(system System, access *AccessBuilder, deps []H) *Builder[H] {
	b.inner.SystemWithDeps(system, access, deps)
	return b
}

// SystemWithHandleAndDeps registers system under handle, ordered after deps,
// panicking on error.
func (b *Builder[H]) SystemWithHandleAndDeps(system System, access *AccessBuilder, handle H, deps []H) *Builder[H] {
	b.inner.SystemWithHandleAndDeps(system, access, handle, deps)
	return b
}

// Build returns the assembled Executor.
func (b *Builder[H]) Build() *Executor[H] {
	return &Executor[H]{inner: b.inner.Build()}
}
