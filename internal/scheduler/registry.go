package scheduler

import "fmt"

// SystemIndex is an opaque, stable small integer identifying a slot in the
// registry. Indices of removed systems are pushed onto a free list and
// reused by subsequent insertions, so the slot array never grows unbounded
// under churn.
type SystemIndex int

// Registry maps opaque handles of type H to stable SystemIndex slots and
// owns every SystemContainer exclusively. It maintains sorted, a
// topological order of the current dependency graph, as an invariant that
// holds after every successful mutation, so dispatch never has to sort on
// the hot path.
type Registry[H comparable] struct {
	containers   []*SystemContainer[H]
	handles      map[H]SystemIndex
	indexHandles map[SystemIndex]H
	free         []SystemIndex
	sorted       []SystemIndex
	typeIndex    *TypeIndex
}

// NewRegistry creates an empty registry.
func NewRegistry[H comparable]() *Registry[H] {
	return &Registry[H]{
		handles:      make(map[H]SystemIndex),
		indexHandles: make(map[SystemIndex]H),
		typeIndex:    NewTypeIndex(),
	}
}

// HandleString renders idx's handle for diagnostics, or a positional
// placeholder if it was registered without one.
func (r *Registry[H]) HandleString(idx SystemIndex) string {
	if h, ok := r.indexHandles[idx]; ok {
		return fmt.Sprintf("%v", h)
	}
	return fmt.Sprintf("system#%d", idx)
}

// TypeIndex returns the registry's shared type-to-bit index, so callers can
// build BorrowDescriptors compatible with systems already registered.
func (r *Registry[H]) TypeIndex() *TypeIndex { return r.typeIndex }

// Len returns the size of the slot array, including freed slots. It is the
// upper bound SystemIndex values are valid under, not the number of systems
// currently registered (use Count for that).
func (r *Registry[H]) Len() int { return len(r.containers) }

// Count returns the number of systems currently registered.
func (r *Registry[H]) Count() int {
	n := 0
	for _, c := range r.containers {
		if c != nil {
			n++
		}
	}
	return n
}

// Sorted returns a copy of systems_sorted, the current topological order.
func (r *Registry[H]) Sorted() []SystemIndex {
	out := make([]SystemIndex, len(r.sorted))
	copy(out, r.sorted)
	return out
}

func (r *Registry[H]) containerAt(idx SystemIndex) *SystemContainer[H] {
	if int(idx) < 0 || int(idx) >= len(r.containers) {
		return nil
	}
	return r.containers[idx]
}

// Container exposes the container at idx for dispatch; nil if idx is free.
func (r *Registry[H]) Container(idx SystemIndex) *SystemContainer[H] {
	return r.containerAt(idx)
}

func (r *Registry[H]) allocIndex() SystemIndex {
	if n := len(r.free); n > 0 {
		idx := r.free[n-1]
		r.free = r.free[:n-1]
		return idx
	}
	idx := SystemIndex(len(r.containers))
	r.containers = append(r.containers, nil)
	return idx
}

func (r *Registry[H]) releaseIndex(idx SystemIndex) {
	r.containers[idx] = nil
	r.free = append(r.free, idx)
}

func (r *Registry[H]) removeFromSorted(idx SystemIndex) {
	out := r.sorted[:0:0]
	for _, s := range r.sorted {
		if s != idx {
			out = append(out, s)
		}
	}
	r.sorted = out
}

// insertResult carries what insertInner needs to report and what Executor
// needs to know to finish building a BorrowDescriptor-bearing container.
type insertResult[H comparable] struct {
	index      SystemIndex
	replaced   bool
	prevDeps   []H
	prevSystem System
}

// insertInner is the shared body of the four public insertion variants. It
// derives nothing itself — the caller passes an already-built
// BorrowDescriptor — and performs, in order: index allocation/reuse, handle
// binding, container install, and (if dependencies is non-empty) a full
// re-sort, rolling back to a bit-identical prior state on any failure so a
// rejected insertion never leaves the registry half-updated.
func (r *Registry[H]) insertInner(system System, borrow *BorrowDescriptor, handle *H, deps []H) (insertResult[H], error) {
	var newIndex SystemIndex
	isNewSlot := true
	boundNewHandle := false
	prevLen := len(r.containers)

	if handle != nil {
		if idx, ok := r.handles[*handle]; ok {
			newIndex = idx
			isNewSlot = false
		} else {
			newIndex = r.allocIndex()
			r.handles[*handle] = newIndex
			r.indexHandles[newIndex] = *handle
			boundNewHandle = true
		}
	} else {
		newIndex = r.allocIndex()
	}

	prevContainer := r.containerAt(newIndex)
	r.containers[newIndex] = newSystemContainer[H](system, deps, borrow)

	hasDeps := len(deps) > 0
	if hasDeps {
		newSorted, err := r.topologicalSort(newIndex)
		if err != nil {
			// Roll back: public state must be bit-identical to pre-call.
			r.containers[newIndex] = prevContainer
			if isNewSlot {
				if int(newIndex) >= prevLen {
					// The slot was appended by this call: drop it again
					// instead of leaving it on the free list.
					r.containers = r.containers[:prevLen]
				} else {
					r.releaseIndex(newIndex)
				}
			}
			if boundNewHandle {
				delete(r.handles, *handle)
				delete(r.indexHandles, newIndex)
			}
			return insertResult[H]{}, err
		}
		r.sorted = newSorted
	} else if isNewSlot {
		r.sorted = append(r.sorted, newIndex)
	}
	// Replacing an existing slot with an empty dependency list needs no
	// re-sort and no change to its position: removing outgoing constraints
	// never invalidates an already-valid topological order, and leaving the
	// slot where it was avoids reinserting a duplicate entry into sorted.

	res := insertResult[H]{index: newIndex}
	if prevContainer != nil {
		res.replaced = true
		res.prevDeps = prevContainer.Dependencies()
		res.prevSystem = prevContainer.System()
	}
	return res, nil
}

// Remove looks up and frees the index bound to handle, drops its container
// and entry from sorted. It does not revalidate other systems' dependency
// lists — re-checking every remaining system on every removal would make
// teardown of a large graph quadratic for no benefit, since a dangling
// reference only matters once something tries to depend on it again, and
// that surfaces naturally the next time a re-sort runs.
func (r *Registry[H]) Remove(handle H) (deps []H, system System, existed bool) {
	idx, ok := r.handles[handle]
	if !ok {
		return nil, nil, false
	}
	c := r.containers[idx]
	delete(r.handles, handle)
	delete(r.indexHandles, idx)
	r.releaseIndex(idx)
	r.removeFromSorted(idx)
	return c.Dependencies(), c.System(), true
}

// Contains reports whether handle currently names a registered system.
func (r *Registry[H]) Contains(handle H) bool {
	_, ok := r.handles[handle]
	return ok
}

// resolve resolves handle to its SystemIndex, or NoSuchSystem.
func (r *Registry[H]) resolve(handle H) (SystemIndex, error) {
	idx, ok := r.handles[handle]
	if !ok {
		return 0, NoSuchSystem{}
	}
	return idx, nil
}

// GetMut returns the system body registered at handle. Its borrow descriptor
// is not refreshed as a result: a system's declared access shape is fixed at
// insertion time, since the conflict matrix is built from it and recomputing
// that matrix on every mutation of a system's internal state would be both
// surprising and wasteful.
func (r *Registry[H]) GetMut(handle H) (System, error) {
	idx, err := r.resolve(handle)
	if err != nil {
		return nil, err
	}
	return r.containers[idx].System(), nil
}

// IsActive reports whether the system at handle currently runs.
func (r *Registry[H]) IsActive(handle H) (bool, error) {
	idx, err := r.resolve(handle)
	if err != nil {
		return false, err
	}
	return r.containers[idx].active, nil
}

// SetActive flips the execution flag for the system at handle. Inactive
// systems are skipped during a run but remain in sorted and the conflict
// matrix, so reactivating one later needs no re-sort or rebuild.
func (r *Registry[H]) SetActive(handle H, active bool) error {
	idx, err := r.resolve(handle)
	if err != nil {
		return err
	}
	r.containers[idx].active = active
	return nil
}

// topologicalSort computes a fresh topological order over every currently
// registered index using indegree counts with a smallest-ready-index
// tie-break, so the same insertion history always yields the same ordering
// rather than depending on map iteration order. Each placement scans the
// slot array for the smallest ready index, so the sort is O(V² + E).
// Dangling dependencies of inserted (the index being inserted) are detected
// while building the adjacency list, before any placement is attempted, so
// a handle that never resolves is reported as DependencyNotFound rather than
// masquerading as a cycle. A dependency of any other system on a handle
// removed since it was inserted is treated as already satisfied.
func (r *Registry[H]) topologicalSort(inserted SystemIndex) ([]SystemIndex, error) {
	n := len(r.containers)
	alive := make([]bool, n)
	aliveCount := 0
	for i, c := range r.containers {
		if c != nil {
			alive[i] = true
			aliveCount++
		}
	}

	indegree := make([]int, n)
	outgoing := make([][]SystemIndex, n)
	for i, c := range r.containers {
		if c == nil {
			continue
		}
		for _, h := range c.Dependencies() {
			j, ok := r.handles[h]
			if !ok || int(j) >= n || !alive[j] {
				if SystemIndex(i) != inserted {
					continue
				}
				return nil, DependencyNotFound{Handle: fmt.Sprintf("%v", h)}
			}
			outgoing[j] = append(outgoing[j], SystemIndex(i))
			indegree[i]++
		}
	}

	placed := make([]bool, n)
	result := make([]SystemIndex, 0, aliveCount)
	for len(result) < aliveCount {
		next := -1
		for i := 0; i < n; i++ {
			if alive[i] && !placed[i] && indegree[i] == 0 {
				next = i
				break
			}
		}
		if next == -1 {
			return nil, CyclicDependency{}
		}
		placed[next] = true
		result = append(result, SystemIndex(next))
		for _, nb := range outgoing[next] {
			indegree[nb]--
		}
	}
	return result, nil
}
