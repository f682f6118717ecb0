package scheduler

// ConflictMatrix is the symmetric relation over registered indices recording
// which pairs may not run concurrently. Row i holds, as a BitSet, the set of
// indices that conflict with i; an absent row (nil) means index i conflicts
// with nothing, which is also true for freed slots since nothing queries
// them. Precomputing this once turns a per-pair conflict check during
// dispatch into a single bit test instead of a full borrow comparison.
type ConflictMatrix struct {
	rows []*BitSet
}

// BuildConflictMatrix derives a fresh ConflictMatrix from every currently
// registered system's BorrowDescriptor. It is rebuilt wholesale after any
// insertion or removal; archetype-dependent rows additionally go stale
// whenever the world's archetype generation advances, which the dispatcher
// accounts for by refreshing descriptors before rebuilding.
func BuildConflictMatrix[H comparable](r *Registry[H]) *ConflictMatrix {
	n := r.Len()
	rows := make([]*BitSet, n)
	for i := 0; i < n; i++ {
		ci := r.containerAt(SystemIndex(i))
		if ci == nil || ci.borrow == nil {
			continue
		}
		row := &BitSet{}
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			cj := r.containerAt(SystemIndex(j))
			if cj == nil || cj.borrow == nil {
				continue
			}
			if ci.borrow.Conflicts(cj.borrow) {
				row.Set(j)
			}
		}
		rows[i] = row
	}
	return &ConflictMatrix{rows: rows}
}

// Conflicts reports whether i and j may not run concurrently. Always false
// for i == j's own reflexive entry and for any index missing a row.
func (m *ConflictMatrix) Conflicts(i, j SystemIndex) bool {
	if int(i) < 0 || int(i) >= len(m.rows) {
		return false
	}
	row := m.rows[i]
	if row == nil {
		return false
	}
	return row.Has(int(j))
}
