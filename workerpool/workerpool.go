// Package workerpool provides a persistent, bounded pool of goroutines used to
// fan out independent tasks and wait for all of them at a single barrier.
//
// A Pool is created once and may be reused across many sort calls:
//
//	pool := workerpool.New(runtime.GOMAXPROCS(0))
//	defer pool.Close()
//
//	if err := pool.Run(taskA, taskB); err != nil {
//	    ...
//	}
package workerpool

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
)

var (
	// ErrTaskPanicked is returned by Run and ParallelFor when at least one task panicked.
	ErrTaskPanicked = errors.New("worker task panicked")
)

// Pool is a persistent worker pool. Workers are spawned by New and live until Close.
type Pool struct {
	numWorkers int
	workC      chan workItem
	// mu is held for reading while a batch is queued and for writing while workC is closed.
	mu     sync.RWMutex
	closed bool
}

// Range is the half-open interval [Start, End).
type Range struct {
	Start int
	End   int
}

// Split divides [0, n) into at most parts contiguous ranges of ceil(n/parts) elements, the
// last one possibly shorter. A parts below 1 is treated as 1. Split returns nil when n <= 0.
func Split(n, parts int) []Range {
	if n <= 0 {
		return nil
	}
	parts = min(max(parts, 1), n)
	size := (n + parts - 1) / parts
	ranges := make([]Range, 0, parts)
	for start := 0; start < n; start += size {
		ranges = append(ranges, Range{Start: start, End: min(start+size, n)})
	}

	return ranges
}

type workItem struct {
	fn      func()
	barrier *barrier
}

// barrier joins one batch of tasks and keeps the first panic seen in it.
type barrier struct {
	wg    sync.WaitGroup
	once  sync.Once
	cause any
}

func (b *barrier) run(fn func()) {
	defer b.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			b.once.Do(func() { b.cause = r })
		}
	}()
	fn()
}

func (b *barrier) wait() error {
	b.wg.Wait()
	if b.cause != nil {
		return fmt.Errorf("%w: %v", ErrTaskPanicked, b.cause)
	}
	return nil
}

// New creates a pool with numWorkers goroutines. If numWorkers <= 0, GOMAXPROCS is used.
func New(numWorkers int) *Pool {
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	p := &Pool{
		numWorkers: numWorkers,
		workC:      make(chan workItem, numWorkers*2),
	}
	for range numWorkers {
		go p.worker()
	}

	return p
}

func (p *Pool) worker() {
	for item := range p.workC {
		item.barrier.run(item.fn)
	}
}

// NumWorkers returns the number of workers in the pool.
func (p *Pool) NumWorkers() int {
	return p.numWorkers
}

// Close stops the workers once pending work drains. Calling Close more than once is safe.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.workC)
}

// Run executes every task on the pool and blocks until all of them have returned.
// Tasks may finish in any order. A closed pool runs the tasks sequentially on the caller.
// Close may be called concurrently with Run: a batch already being queued is still drained
// by the workers before they exit.
func (p *Pool) Run(tasks ...func()) error {
	b := &barrier{}
	b.wg.Add(len(tasks))
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		for _, fn := range tasks {
			b.run(fn)
		}
		return b.wait()
	}
	for _, fn := range tasks {
		p.workC <- workItem{fn: fn, barrier: b}
	}
	p.mu.RUnlock()

	return b.wait()
}

// ParallelFor calls fn once for every range Split(n, parts) returns and waits for all of them.
func (p *Pool) ParallelFor(n, parts int, fn func(start, end int)) error {
	ranges := Split(n, parts)
	tasks := make([]func(), len(ranges))
	for i, r := range ranges {
		tasks[i] = func() { fn(r.Start, r.End) }
	}

	return p.Run(tasks...)
}
