package pools

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// ErrPoolClosed is returned by Submit after Close
var ErrPoolClosed = errors.New("worker pool closed")

// Task represents a unit of work
type Task func()

// PanicHandler receives the recovered value of a task that panicked
type PanicHandler func(workerID int, recovered any)

// WorkerPool runs tasks on a fixed set of goroutines draining one shared
// FIFO queue. Every submitted task runs exactly once on exactly one worker.
type WorkerPool struct {
	numWorkers int
	tasks      chan Task
	quit       chan struct{}
	onPanic    PanicHandler

	mu     sync.RWMutex // held for reading while a Submit is in flight
	closed bool
	wg     sync.WaitGroup

	// Statistics
	stats struct {
		tasksSubmitted atomic.Uint64
		tasksCompleted atomic.Uint64
		tasksPanicked  atomic.Uint64
	}
}

// Option configures a WorkerPool
type Option func(*WorkerPool)

// WithPanicHandler sets the function called when a task panics
func WithPanicHandler(h PanicHandler) Option {
	return func(p *WorkerPool) {
		p.onPanic = h
	}
}

// NewWorkerPool starts numWorkers workers sharing a queue of queueSize
// pending tasks. A queueSize of zero hands each task directly to an idle
// worker. numWorkers must be positive.
func NewWorkerPool(numWorkers, queueSize int, opts ...Option) *WorkerPool {
	if numWorkers <= 0 {
		panic(fmt.Sprintf("pools: worker count must be positive, got %d", numWorkers))
	}
	if queueSize < 0 {
		queueSize = 0
	}

	pool := &WorkerPool{
		numWorkers: numWorkers,
		tasks:      make(chan Task, queueSize),
		quit:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(pool)
	}

	pool.wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go pool.worker(i)
	}

	return pool
}

// Submit enqueues a task, blocking while the queue is full
func (p *WorkerPool) Submit(task Task) error {
	if task == nil {
		return errors.New("pools: nil task")
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPoolClosed
	}

	// Workers keep draining until Close, which cannot proceed while we
	// hold the read lock, so this send always completes.
	p.tasks <- task
	p.stats.tasksSubmitted.Add(1)
	return nil
}

// worker is the main loop for a worker goroutine
func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	for {
		select {
		case task := <-p.tasks:
			p.run(id, task)
		case <-p.quit:
			// Drain what was queued before Close
			for {
				select {
				case task := <-p.tasks:
					p.run(id, task)
				default:
					return
				}
			}
		}
	}
}

// run executes one task, isolating the worker from its panics
func (p *WorkerPool) run(id int, task Task) {
	defer func() {
		if r := recover(); r != nil {
			p.stats.tasksPanicked.Add(1)
			if p.onPanic != nil {
				p.onPanic(id, r)
			}
		}
		p.stats.tasksCompleted.Add(1)
	}()

	task()
}

// Close stops accepting tasks, runs the ones already queued and waits for
// every worker to exit. Calling Close more than once is safe.
func (p *WorkerPool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.wg.Wait()
		return
	}
	p.closed = true
	close(p.quit)
	p.mu.Unlock()

	p.wg.Wait()
}

// Stats returns pool statistics
func (p *WorkerPool) Stats() WorkerPoolStats {
	submitted := p.stats.tasksSubmitted.Load()
	completed := p.stats.tasksCompleted.Load()
	return WorkerPoolStats{
		NumWorkers:     p.numWorkers,
		QueueCapacity:  cap(p.tasks),
		TasksSubmitted: submitted,
		TasksCompleted: completed,
		TasksPanicked:  p.stats.tasksPanicked.Load(),
		TasksPending:   submitted - min(submitted, completed),
	}
}

// WorkerPoolStats contains pool statistics
type WorkerPoolStats struct {
	NumWorkers     int    `json:"num_workers"`
	QueueCapacity  int    `json:"queue_capacity"`
	TasksSubmitted uint64 `json:"tasks_submitted"`
	TasksCompleted uint64 `json:"tasks_completed"`
	TasksPanicked  uint64 `json:"tasks_panicked"`
	TasksPending   uint64 `json:"tasks_pending"`
}
