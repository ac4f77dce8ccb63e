package parallel

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/pkg/errors"
)

var (
	// ErrWorkerFailure marks a unit of work that crashed inside a worker.
	ErrWorkerFailure = errors.New("worker failure")
	// ErrPoolClosed is returned by Run after Close.
	ErrPoolClosed = errors.New("worker pool closed")
)

// PanicError is a recovered panic, converted into an error at the worker
// boundary. It matches ErrWorkerFailure under errors.Is.
type PanicError struct {
	Worker int
	Value  any
	Stack  []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("worker %d: panic: %v", e.Worker, e.Value)
}

// Is reports whether target is ErrWorkerFailure.
func (e *PanicError) Is(target error) bool {
	return target == ErrWorkerFailure
}

// Safely runs fn, converting a panic into a *PanicError tagged with worker.
func Safely(worker int, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Worker: worker, Value: r, Stack: debug.Stack()}
		}
	}()
	return fn()
}

// Task is one unit handed to a pool worker. worker is the index of the
// goroutine running it, in [0, Size()).
type Task func(ctx context.Context, worker int) error

type job struct {
	ctx   context.Context
	tasks []int
	fns   []Task
	done  chan<- result
}

type result struct {
	task int
	err  error
}

// Pool is a fixed set of goroutines created up front and reused by every Run.
//
// Task i of a Run always goes to worker i % Size(), so the assignment is
// deterministic; the order in which tasks finish is not. A panic in a task is
// recovered and reported as that task's error; other tasks are unaffected.
type Pool struct {
	size   int
	queues []chan job
	wg     sync.WaitGroup

	runMu sync.Mutex // serializes Run

	mu     sync.RWMutex // guards closed against in-flight dispatch
	closed bool
}

// NewPool starts size workers. size < 1 is treated as 1.
func NewPool(size int) *Pool {
	if size < 1 {
		size = 1
	}
	p := &Pool{size: size, queues: make([]chan job, size)}
	for w := range p.queues {
		q := make(chan job, 1)
		p.queues[w] = q
		p.wg.Add(1)
		go p.work(w, q)
	}
	return p
}

func (p *Pool) work(worker int, q <-chan job) {
	defer p.wg.Done()
	for j := range q {
		for k, fn := range j.fns {
			err := Safely(worker, func() error { return fn(j.ctx, worker) })
			j.done <- result{task: j.tasks[k], err: err}
		}
	}
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return p.size
}

// Run executes tasks on the pool and blocks until all of them have returned.
// The returned slice holds each task's error at the task's index.
//
// Run does not stop tasks itself when ctx is cancelled; tasks observe ctx
// and return early.
func (p *Pool) Run(ctx context.Context, tasks []Task) ([]error, error) {
	p.runMu.Lock()
	defer p.runMu.Unlock()

	errs := make([]error, len(tasks))
	if len(tasks) == 0 {
		return errs, nil
	}
	done := make(chan result, len(tasks))

	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return nil, ErrPoolClosed
	}
	for w := 0; w < p.size && w < len(tasks); w++ {
		j := job{ctx: ctx, done: done}
		for i := w; i < len(tasks); i += p.size {
			j.tasks = append(j.tasks, i)
			j.fns = append(j.fns, tasks[i])
		}
		p.queues[w] <- j
	}
	p.mu.RUnlock()

	for range tasks {
		r := <-done
		errs[r.task] = r.err
	}
	return errs, nil
}

// Close stops the workers after any in-flight Run finishes its tasks.
// It is safe to call more than once.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	for _, q := range p.queues {
		close(q)
	}
	p.mu.Unlock()
	p.wg.Wait()
}
