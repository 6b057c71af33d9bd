package http

import (
	"log/slog"
	"runtime/debug"
	"sync"
)

// Pool runs submitted tasks on a fixed number of worker goroutines. The
// queue is unbounded, so Submit never waits for a free worker.
type Pool struct {
	size   int
	logger *slog.Logger

	mu     sync.Mutex
	ready  *sync.Cond
	queue  []func()
	closed bool

	workers sync.WaitGroup
}

func NewPool(size int, logger *slog.Logger) (*Pool, error) {
	if size <= 0 {
		return nil, ErrInvalidPoolSize
	}
	if logger == nil {
		logger = slog.Default()
	}

	p := &Pool{
		size:   size,
		logger: logger,
		queue:  make([]func(), 0, size),
	}
	p.ready = sync.NewCond(&p.mu)

	p.workers.Add(size)
	for id := range size {
		go p.work(id)
	}

	return p, nil
}

// Submit enqueues task. It fails with ErrPoolClosed once Close has been called.
func (p *Pool) Submit(task func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPoolClosed
	}
	p.queue = append(p.queue, task)
	p.ready.Signal()
	return nil
}

// Close stops accepting tasks and blocks until the queue is drained and every
// worker has exited.
func (p *Pool) Close() {
	p.mu.Lock()
	p.closed = true
	p.ready.Broadcast()
	p.mu.Unlock()

	p.workers.Wait()
}

func (p *Pool) Size() int {
	return p.size
}

// Pending returns the number of queued tasks not yet picked up by a worker.
func (p *Pool) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

func (p *Pool) next() (func(), bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for len(p.queue) == 0 {
		if p.closed {
			return nil, false
		}
		p.ready.Wait()
	}

	task := p.queue[0]
	p.queue[0] = nil
	p.queue = p.queue[1:]
	return task, true
}

func (p *Pool) work(id int) {
	defer p.workers.Done()

	for {
		task, ok := p.next()
		if !ok {
			return
		}
		p.run(id, task)
	}
}

func (p *Pool) run(id int, task func()) {
	defer func() {
		if recovered := recover(); recovered != nil {
			p.logger.Error("task panicked", "worker", id, "panic", recovered, "stack", string(debug.Stack()))
		}
	}()

	task()
}
