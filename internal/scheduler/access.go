package scheduler

import "reflect"

// Mode marks whether a declared access is shared (read) or exclusive (write).
type Mode int

const (
	Read Mode = iota
	Write
)

// queryAccess is one query's contribution to a system's access: the set of
// component types it requires to be present (for archetype matching) split
// into the subset read and the subset written.
type queryAccess struct {
	required []reflect.Type
	reads    []reflect.Type
	writes   []reflect.Type
}

// AccessBuilder accumulates a system's declared resource and query borrows at
// value level: the caller makes one builder call per resource binding and
// one BeginQuery/End pair per query, rather than the scheduler trying to
// infer access from a function signature.
type AccessBuilder struct {
	resourcesRead    []reflect.Type
	resourcesWritten []reflect.Type
	componentsRead   []reflect.Type
	componentsWriten []reflect.Type
	queries          []queryAccess
}

// NewAccessBuilder creates an empty builder.
func NewAccessBuilder() *AccessBuilder {
	return &AccessBuilder{}
}

// ReadResource declares a shared borrow of resource type T.
func ReadResource[T any](b *AccessBuilder) *AccessBuilder {
	b.resourcesRead = append(b.resourcesRead, typeOf[T]())
	return b
}

// WriteResource declares an exclusive borrow of resource type T.
func WriteResource[T any](b *AccessBuilder) *AccessBuilder {
	b.resourcesWritten = append(b.resourcesWritten, typeOf[T]())
	return b
}

// QueryBuilder accumulates the component reads and writes of a single query
// before it is folded back into the parent AccessBuilder via End.
type QueryBuilder struct {
	parent *AccessBuilder
	q      queryAccess
}

// BeginQuery starts declaring a new query's component access.
func (b *AccessBuilder) BeginQuery() *QueryBuilder {
	return &QueryBuilder{parent: b}
}

// QueryRead declares that the query requires component type T present and
// reads it.
func QueryRead[T any](q *QueryBuilder) *QueryBuilder {
	t := typeOf[T]()
	q.q.required = append(q.q.required, t)
	q.q.reads = append(q.q.reads, t)
	return q
}

// QueryWrite declares that the query requires component type T present and
// writes it.
func QueryWrite[T any](q *QueryBuilder) *QueryBuilder {
	t := typeOf[T]()
	q.q.required = append(q.q.required, t)
	q.q.writes = append(q.q.writes, t)
	return q
}

// End folds the query's access into the parent builder and returns it.
func (q *QueryBuilder) End() *AccessBuilder {
	q.parent.queries = append(q.parent.queries, q.q)
	q.parent.componentsRead = append(q.parent.componentsRead, q.q.reads...)
	q.parent.componentsWriten = append(q.parent.componentsWriten, q.q.writes...)
	return q.parent
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func containsType(types []reflect.Type, t reflect.Type) bool {
	for _, x := range types {
		if x == t {
			return true
		}
	}
	return false
}

// Build freezes the builder into a BorrowDescriptor, condensing every
// declared type into ti's compact indices. It refuses to build a descriptor
// that both reads and writes the same resource type: that declaration is
// almost certainly a mistake in the caller, and catching it here is cheaper
// than chasing a deadlock or an unsound conflict check downstream.
func (b *AccessBuilder) Build(ti *TypeIndex) (*BorrowDescriptor, error) {
	for _, t := range b.resourcesRead {
		if containsType(b.resourcesWritten, t) {
			return nil, &accessConflictError{kind: "resource", typ: t}
		}
	}

	d := &BorrowDescriptor{
		resourcesRead:    ti.bitsFor(b.resourcesRead),
		resourcesWritten: ti.bitsFor(b.resourcesWritten),
		componentsRead:   ti.bitsFor(b.componentsRead),
		componentsWriten: ti.bitsFor(b.componentsWriten),
		queries:          append([]queryAccess(nil), b.queries...),
	}
	return d, nil
}

type accessConflictError struct {
	kind string
	typ  reflect.Type
}

func (e *accessConflictError) Error() string {
	return "ecsched: system both reads and writes " + e.kind + " type " + e.typ.String()
}

// BorrowDescriptor is the frozen, per-system record of which resources and
// components it reads or writes, derived once at insertion. It is immutable
// after construction; a system's declared access shape never changes across
// its lifetime, even across GetMut mutation of its body.
type BorrowDescriptor struct {
	resourcesRead    *BitSet
	resourcesWritten *BitSet
	componentsRead   *BitSet
	componentsWriten *BitSet

	queries []queryAccess

	archetypes    *BitSet
	archetypesGen uint64
	refreshed     bool
}

// Empty reports whether the descriptor declares no borrows at all. A system
// with no borrows conflicts with nothing, and can run alongside anything.
func (d *BorrowDescriptor) Empty() bool {
	return d.resourcesRead.IsEmpty() && d.resourcesWritten.IsEmpty() &&
		d.componentsRead.IsEmpty() && d.componentsWriten.IsEmpty()
}

// RefreshArchetypes recomputes which of the world's current archetypes this
// descriptor's queries touch, if the world's archetype generation has moved
// on since the last refresh. Caching this mask is what keeps Conflicts cheap:
// without it every conflict check would have to re-scan every archetype. A
// no-op when already current.
func (d *BorrowDescriptor) RefreshArchetypes(w World) {
	gen := w.ArchetypesGeneration()
	if d.refreshed && d.archetypesGen == gen {
		return
	}
	mask := &BitSet{}
	n := w.ArchetypeCount()
	for _, q := range d.queries {
		for a := 0; a < n; a++ {
			touches := true
			for _, t := range q.required {
				if !w.HasComponent(a, t) {
					touches = false
					break
				}
			}
			if touches {
				mask.Set(a)
			}
		}
	}
	d.archetypes = mask
	d.archetypesGen = gen
	d.refreshed = true
}

// Conflicts reports whether d and other may not run concurrently:
// exclusive-vs-any on a shared resource type always conflicts;
// exclusive-vs-any on a shared component type conflicts only if the two
// systems' archetype masks overlap. Two shared borrows never conflict, and a
// borrow-less descriptor conflicts with nothing.
func (d *BorrowDescriptor) Conflicts(other *BorrowDescriptor) bool {
	if d.resourcesWritten.Intersects(other.resourcesRead) ||
		d.resourcesWritten.Intersects(other.resourcesWritten) ||
		d.resourcesRead.Intersects(other.resourcesWritten) {
		return true
	}

	componentTypeConflict := d.componentsWriten.Intersects(other.componentsRead) ||
		d.componentsWriten.Intersects(other.componentsWriten) ||
		d.componentsRead.Intersects(other.componentsWriten)
	if !componentTypeConflict {
		return false
	}

	// Component type sets overlap incompatibly; this only matters if the two
	// systems can actually touch the same archetype. Treat an unrefreshed
	// mask (sequential mode, or before the first parallel run) as "touches
	// everything" so we never under-report a conflict.
	if !d.refreshed || !other.refreshed {
		return true
	}
	return d.archetypes.Intersects(other.archetypes)
}
