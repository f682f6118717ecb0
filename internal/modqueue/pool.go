// Package modqueue implements the scheduler's ModQueuePool collaborator: a
// pool of deferred-mutation buffers systems acquire instead of mutating a
// World directly while other systems may be running against it concurrently.
// It is double-buffered so queues filled during one run can be drained while
// the next run's systems fill a fresh set, and it pools its Queue values with
// sync.Pool to avoid a fresh allocation per system per run.
package modqueue

import "sync"

// Mutation is a single deferred operation a system wants applied to the
// world once the current run has finished.
type Mutation func(w any)

// Queue accumulates the mutations recorded by one system's task. It is
// acquired from a Pool for the duration of a single run and must not be
// retained past it.
type Queue struct {
	mu        sync.Mutex
	mutations []Mutation
}

// Defer records a mutation to be applied after the current run completes.
func (q *Queue) Defer(m Mutation) {
	q.mu.Lock()
	q.mutations = append(q.mutations, m)
	q.mu.Unlock()
}

func (q *Queue) reset() {
	q.mutations = q.mutations[:0]
}

// Pool is a concrete, double-buffered ModQueuePool: queues acquired and
// filled during one dispatch are drained into the world while the next
// dispatch's systems acquire a fresh set, so in-flight mutations from the
// run that just finished can be applied without blocking the next run's
// systems on the same lock.
type Pool struct {
	mu       sync.Mutex
	pool     sync.Pool
	acquired []*Queue
	draining []*Queue
}

// NewPool creates an empty Pool.
func NewPool() *Pool {
	p := &Pool{}
	p.pool.New = func() any { return &Queue{} }
	return p
}

// Acquire hands out a Queue for the duration of one system's run.
func (p *Pool) Acquire() *Queue {
	q := p.pool.Get().(*Queue)
	p.mu.Lock()
	p.acquired = append(p.acquired, q)
	p.mu.Unlock()
	return q
}

// Advance moves every queue acquired since the last Advance into the
// draining set, ready for Drain, and clears the acquired set for the next
// run's systems to fill.
func (p *Pool) Advance() {
	p.mu.Lock()
	p.draining, p.acquired = p.acquired, p.draining[:0]
	p.mu.Unlock()
}

// Drain applies every mutation recorded in the draining set to w, in
// acquisition order, then returns each Queue to the pool for reuse. Call
// this once the run that filled those queues has fully completed.
func (p *Pool) Drain(w any) {
	p.mu.Lock()
	queues := p.draining
	p.draining = nil
	p.mu.Unlock()

	for _, q := range queues {
		for _, m := range q.mutations {
			m(w)
		}
		q.reset()
		p.pool.Put(q)
	}
}
