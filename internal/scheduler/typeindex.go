package scheduler

import (
	"reflect"
	"sync"
)

// TypeIndex maps a reflect.Type to a small, stable, process-lifetime integer
// so that resource and component type sets can be condensed into
// BitSets instead of carried around as map[reflect.Type]struct{}. One
// TypeIndex is shared by every BorrowDescriptor an Executor derives, which is
// what lets the ConflictMatrix compare two systems' borrows with a handful of
// word-wise ANDs.
type TypeIndex struct {
	mu  sync.Mutex
	ids map[reflect.Type]int
}

// NewTypeIndex creates an empty TypeIndex.
func NewTypeIndex() *TypeIndex {
	return &TypeIndex{ids: make(map[reflect.Type]int)}
}

// IndexOf returns the stable index for t, allocating a new one on first use.
func (ti *TypeIndex) IndexOf(t reflect.Type) int {
	ti.mu.Lock()
	defer ti.mu.Unlock()
	if idx, ok := ti.ids[t]; ok {
		return idx
	}
	idx := len(ti.ids)
	ti.ids[t] = idx
	return idx
}

// bitsFor builds a BitSet with the index of every type in types set, or nil
// if types is empty (mirrors the nil-means-empty convention the rest of the
// package uses to avoid allocating for systems with no borrows in a given
// category).
func (ti *TypeIndex) bitsFor(types []reflect.Type) *BitSet {
	if len(types) == 0 {
		return nil
	}
	b := &BitSet{}
	for _, t := range types {
		b.Set(ti.IndexOf(t))
	}
	return b
}
