package scheduler

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unboundedScope runs every spawned task on its own goroutine and is used
// only to exercise the dispatcher's own admission and completion logic,
// independent of any particular worker-pool implementation.
type unboundedScope struct {
	wg sync.WaitGroup
}

func (s *unboundedScope) Spawn(task func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		task()
	}()
}

type fnSystem struct {
	fn func(ctx context.Context) error
}

func (s fnSystem) Run(ctx context.Context, _ World, _ Resources, _ ModQueuePool) error {
	return s.fn(ctx)
}

func TestRunExecutesInDependencyOrder(t *testing.T) {
	e := NewExecutor[string](nil)
	var mu sync.Mutex
	var order []string
	record := func(name string) fnSystem {
		return fnSystem{fn: func(context.Context) error {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil
		}}
	}

	require.NoError(t, e.InsertWithHandle(record("a"), NewAccessBuilder(), "a"))
	require.NoError(t, e.InsertWithHandleAndDeps2(record("b"), "b", []string{"a"}))
	require.NoError(t, e.InsertWithHandleAndDeps2(record("c"), "c", []string{"b"}))

	require.NoError(t, e.Run(context.Background(), nil, nil, nil))
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

// InsertWithHandleAndDeps2 is a test convenience over InsertWithHandleAndDeps
// that discards the replacement-reporting return values.
func (e *Executor[H]) InsertWithHandleAndDeps2(system System, handle H, deps []H) error {
	_, _, err := e.InsertWithHandleAndDeps(system, NewAccessBuilder(), handle, deps)
	return err
}

func TestRunSkipsInactiveSystems(t *testing.T) {
	e := NewExecutor[string](nil)
	var ran []string
	record := func(name string) fnSystem {
		return fnSystem{fn: func(context.Context) error {
			ran = append(ran, name)
			return nil
		}}
	}
	require.NoError(t, e.InsertWithHandle(record("a"), NewAccessBuilder(), "a"))
	require.NoError(t, e.InsertWithHandle(record("b"), NewAccessBuilder(), "b"))
	require.NoError(t, e.SetActive("a", false))

	require.NoError(t, e.Run(context.Background(), nil, nil, nil))
	assert.Equal(t, []string{"b"}, ran)
}

func TestRunStopsAtFirstError(t *testing.T) {
	e := NewExecutor[string](nil)
	boom := fmt.Errorf("boom")
	var ranB bool
	require.NoError(t, e.InsertWithHandle(fnSystem{fn: func(context.Context) error { return boom }}, NewAccessBuilder(), "a"))
	require.NoError(t, e.InsertWithHandleAndDeps2(fnSystem{fn: func(context.Context) error { ranB = true; return nil }}, "b", []string{"a"}))

	err := e.Run(context.Background(), nil, nil, nil)
	assert.ErrorIs(t, err, boom)
	assert.False(t, ranB)
}

func TestRunWithScopeRespectsConflicts(t *testing.T) {
	e := NewExecutor[string](nil)
	ti := e.TypeIndex()

	var mu sync.Mutex
	var concurrent int
	var maxConcurrent int
	enter := func() {
		mu.Lock()
		concurrent++
		if concurrent > maxConcurrent {
			maxConcurrent = concurrent
		}
		mu.Unlock()
	}
	leave := func() {
		mu.Lock()
		concurrent--
		mu.Unlock()
	}

	writer := fnSystem{fn: func(context.Context) error {
		enter()
		defer leave()
		return nil
	}}
	access, err := WriteResource[Health](NewAccessBuilder()).Build(ti)
	require.NoError(t, err)
	require.NoError(t, e.insertBuilt(writer, access, "w1"))

	writer2 := fnSystem{fn: func(context.Context) error {
		enter()
		defer leave()
		return nil
	}}
	access2, err := WriteResource[Health](NewAccessBuilder()).Build(ti)
	require.NoError(t, err)
	require.NoError(t, e.insertBuilt(writer2, access2, "w2"))

	scope := &unboundedScope{}
	err = e.RunWithScope(context.Background(), &fakeWorld{gen: 1}, nil, nil, scope)
	scope.wg.Wait()
	require.NoError(t, err)
	assert.Equal(t, 1, maxConcurrent)
}

// insertBuilt is a test convenience that installs a pre-built
// BorrowDescriptor directly, bypassing AccessBuilder, for tests that need
// descriptors sharing a TypeIndex across independently declared accesses.
func (e *Executor[H]) insertBuilt(system System, borrow *BorrowDescriptor, handle H) error {
	return e.insertBuiltWithDeps(system, borrow, handle, nil)
}

// insertBuiltWithDeps is insertBuilt plus a dependency list, for tests that
// need both a pre-built descriptor and ordering against other handles.
func (e *Executor[H]) insertBuiltWithDeps(system System, borrow *BorrowDescriptor, handle H, deps []H) error {
	_, err := e.registry.insertInner(system, borrow, &handle, deps)
	if err != nil {
		return err
	}
	e.rebuildConflicts()
	return nil
}

func TestRunWithScopeAllowsNonConflictingParallelism(t *testing.T) {
	e := NewExecutor[string](nil)
	ti := e.TypeIndex()

	var mu sync.Mutex
	var maxConcurrent, concurrent int
	gate := make(chan struct{})
	var once sync.Once
	track := func() {
		mu.Lock()
		concurrent++
		if concurrent > maxConcurrent {
			maxConcurrent = concurrent
		}
		if concurrent == 2 {
			once.Do(func() { close(gate) })
		}
		mu.Unlock()
		<-gate
		mu.Lock()
		concurrent--
		mu.Unlock()
	}

	access1, err := ReadResource[Health](NewAccessBuilder()).Build(ti)
	require.NoError(t, err)
	require.NoError(t, e.insertBuilt(fnSystem{fn: func(context.Context) error { track(); return nil }}, access1, "r1"))

	access2, err := ReadResource[Health](NewAccessBuilder()).Build(ti)
	require.NoError(t, err)
	require.NoError(t, e.insertBuilt(fnSystem{fn: func(context.Context) error { track(); return nil }}, access2, "r2"))

	scope := &unboundedScope{}
	err = e.RunWithScope(context.Background(), &fakeWorld{gen: 1}, nil, nil, scope)
	scope.wg.Wait()
	require.NoError(t, err)
	assert.Equal(t, 2, maxConcurrent)
}

func TestRunWithScopeRecoversPanic(t *testing.T) {
	e := NewExecutor[string](nil)
	require.NoError(t, e.InsertWithHandle(fnSystem{fn: func(context.Context) error {
		panic("kaboom")
	}}, NewAccessBuilder(), "a"))

	scope := &unboundedScope{}
	err := e.RunWithScope(context.Background(), &fakeWorld{gen: 1}, nil, nil, scope)
	scope.wg.Wait()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kaboom")
}

// TestRunWithScopeDoesNotLetLaterCandidateJumpAnEarlierBlockedConflict
// reproduces a system inserted with no dependencies that conflicts with a
// second, not-yet-ready system earlier in the sorted order. Insertion order
// is x (no deps), a (deps=[x]), b (no deps, conflicts with a on Health), so
// the topological order is [x, a, b]. On the first admission pass x
// admits; a is held back because x hasn't finished; b must also be held
// back even though it never conflicts with x, because it conflicts with a,
// which is still an earlier, unadmitted candidate in this same pass. If the
// admission loop only checked conflicts against the running set, b would
// wrongly run concurrently with x, before a ever gets a chance to run.
func TestRunWithScopeDoesNotLetLaterCandidateJumpAnEarlierBlockedConflict(t *testing.T) {
	e := NewExecutor[string](nil)
	ti := e.TypeIndex()

	var mu sync.Mutex
	var order []string
	record := func(name string) func(context.Context) error {
		return func(context.Context) error {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil
		}
	}

	xAccess, err := NewAccessBuilder().Build(ti)
	require.NoError(t, err)
	require.NoError(t, e.insertBuilt(fnSystem{fn: record("x")}, xAccess, "x"))

	aAccess, err := WriteResource[Health](NewAccessBuilder()).Build(ti)
	require.NoError(t, err)
	require.NoError(t, e.insertBuiltWithDeps(fnSystem{fn: record("a")}, aAccess, "a", []string{"x"}))

	bAccess, err := WriteResource[Health](NewAccessBuilder()).Build(ti)
	require.NoError(t, err)
	require.NoError(t, e.insertBuilt(fnSystem{fn: record("b")}, bAccess, "b"))

	require.Equal(t, []string{"x", "a", "b"}, func() []string {
		sorted := e.registry.Sorted()
		names := make([]string, len(sorted))
		for i, idx := range sorted {
			names[i] = e.registry.HandleString(idx)
		}
		return names
	}())

	scope := &unboundedScope{}
	err = e.RunWithScope(context.Background(), &fakeWorld{gen: 1}, nil, nil, scope)
	scope.wg.Wait()
	require.NoError(t, err)

	posA, posB := -1, -1
	for i, name := range order {
		switch name {
		case "a":
			posA = i
		case "b":
			posB = i
		}
	}
	require.NotEqual(t, -1, posA)
	require.NotEqual(t, -1, posB)
	assert.Less(t, posA, posB, "b conflicts with a and must not run before a, even though b never conflicts with x")
}

func TestRunWithScopeRemovedDependencyDuringSessionStillAdmits(t *testing.T) {
	e := NewExecutor[string](nil)
	require.NoError(t, e.InsertWithHandle(fnSystem{fn: func(context.Context) error { return nil }}, NewAccessBuilder(), "a"))
	require.NoError(t, e.InsertWithHandleAndDeps2(fnSystem{fn: func(context.Context) error { return nil }}, "b", []string{"a"}))

	assert.True(t, e.Remove("a"))

	scope := &unboundedScope{}
	err := e.RunWithScope(context.Background(), &fakeWorld{gen: 1}, nil, nil, scope)
	scope.wg.Wait()
	require.NoError(t, err)
}
