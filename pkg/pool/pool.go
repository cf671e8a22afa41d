package pool

import (
	"runtime"
	"sync/atomic"
)

// task asks a worker to evaluate f at index i and store the result.
type task struct {
	i int
	f func(int) interface{}
	// Decremented once the result has been stored.
	ctr *int64
	// Destination for results, indexed by i.
	results []interface{}
}

// worker evaluates tasks until the task channel is closed, signalling each
// completion on done.
func worker(tasks <-chan task, done chan<- struct{}) {
	for t := range tasks {
		t.results[t.i] = t.f(t.i)
		atomic.AddInt64(t.ctr, -1)
		done <- struct{}{}
	}
}

// parallelizeAlone is the serial fallback used by a nil pool.
func parallelizeAlone(count int, f func(int) interface{}) []interface{} {
	results := make([]interface{}, count)
	for i := 0; i < count; i++ {
		results[i] = f(i)
	}
	return results
}

// Pool is a fixed-size pool of workers for parallelizing the independent
// operations of one tree level.
//
// Functions taking a *Pool accept a nil receiver, doing the equivalent work
// serially on the calling goroutine instead. Creating the pool once and
// sharing it across phases avoids spinning up goroutines per level.
type Pool struct {
	// The common channel workers pull tasks from, making this a
	// work-stealing pool.
	tasks chan task
	// Signalled once per completed task.
	done chan struct{}

	workerCount int
}

// New creates a pool with the given number of workers.
//
// If count <= 0, the number of available CPUs is used instead.
func New(count int) *Pool {
	if count <= 0 {
		count = runtime.NumCPU()
	}

	p := &Pool{
		tasks:       make(chan task),
		done:        make(chan struct{}),
		workerCount: count,
	}
	for i := 0; i < count; i++ {
		go worker(p.tasks, p.done)
	}
	return p
}

// Workers returns the number of workers in the pool, or 1 for a nil pool.
func (p *Pool) Workers() int {
	if p == nil {
		return 1
	}
	return p.workerCount
}

// TearDown cleanly tears down the pool, releasing its workers.
func (p *Pool) TearDown() {
	close(p.tasks)
}

// Parallelize calls f with every index in 0..count-1, returning
// [f(0), f(1), ..., f(count-1)].
//
// It does not return until every call has completed, so it doubles as the
// barrier between tree levels: no work from the next level can be submitted
// while results from the current one are still outstanding.
func (p *Pool) Parallelize(count int, f func(int) interface{}) []interface{} {
	if p == nil {
		return parallelizeAlone(count, f)
	}

	results := make([]interface{}, count)
	ctr := int64(count)

	sent := 0
	for sent < count {
		t := task{
			i:       sent,
			f:       f,
			ctr:     &ctr,
			results: results,
		}
		// Sending all tasks without blocking is impossible once every
		// worker is busy, so interleave draining completions to free
		// workers up to receive the remainder.
		select {
		case p.tasks <- t:
			sent++
		case <-p.done:
		}
	}
	for atomic.LoadInt64(&ctr) > 0 {
		<-p.done
	}

	return results
}
