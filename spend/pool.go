package spend

import (
	"sync"

	"github.com/cobaltwallet/libcobalt-go/config"
)

// queueFactor sizes the task queue as a multiple of the worker count.
const queueFactor = 16

// Pool is a bounded worker pool for signing and broadcast tasks. Tasks are
// queued on a buffered channel and executed by a fixed number of workers;
// a task accepted by Submit always runs, even when the pool is stopped
// while it is still queued.
type Pool struct {
	mu      sync.Mutex
	stopped bool

	tasks chan func()
	quit  chan struct{}

	started  sync.Once
	shutdown sync.Once
	wg       sync.WaitGroup

	size int
}

// NewPool creates a pool with the given number of workers. A size of zero
// or less falls back to config.DefaultWorkers. The pool must be started
// before it accepts tasks.
func NewPool(size int) *Pool {
	if size <= 0 {
		size = config.DefaultWorkers
	}
	return &Pool{
		tasks: make(chan func(), size*queueFactor),
		quit:  make(chan struct{}),
		size:  size,
	}
}

// Size returns the number of workers.
func (p *Pool) Size() int { return p.size }

// Start spins up the worker goroutines. Safe to call more than once.
func (p *Pool) Start() {
	p.started.Do(func() {
		for i := 0; i < p.size; i++ {
			p.wg.Add(1)
			go p.worker()
		}
	})
}

// Stop rejects further submissions, drains tasks already queued, and waits
// for all workers to exit. Safe to call more than once.
func (p *Pool) Stop() {
	p.shutdown.Do(func() {
		p.mu.Lock()
		p.stopped = true
		p.mu.Unlock()

		close(p.quit)
		p.wg.Wait()
	})
}

// Submit queues a task for execution. Returns ErrPoolStopped after Stop and
// ErrPoolBusy when the queue is full; in both cases the task was not
// accepted and will never run.
func (p *Pool) Submit(task func()) error {
	if task == nil {
		return ErrNilParam
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return ErrPoolStopped
	}
	select {
	case p.tasks <- task:
		return nil
	default:
		return ErrPoolBusy
	}
}

// worker executes queued tasks until the pool stops, then drains whatever
// is left in the queue before exiting.
func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case task := <-p.tasks:
			task()
		case <-p.quit:
			for {
				select {
				case task := <-p.tasks:
					task()
				default:
					return
				}
			}
		}
	}
}
