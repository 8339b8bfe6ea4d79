package utils

import (
	"context"
	"runtime"
	"sync"
)

// maxPoolSize caps the goroutine count regardless of what the config asks
// for; optimization passes are I/O heavy and stop scaling long before this.
const maxPoolSize = 32

// WorkerPool fans tasks out to a bounded set of goroutines. Submit blocks
// when the queue is full, so a tree walk feeding the pool never loads the
// whole site into memory at once.
type WorkerPool[T any] struct {
	ctx  context.Context
	jobs chan T
	work func(T)
	size int

	wg       sync.WaitGroup
	stopOnce sync.Once
}

func NewWorkerPool[T any](ctx context.Context, size int, work func(T)) *WorkerPool[T] {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	if size > maxPoolSize {
		size = maxPoolSize
	}
	return &WorkerPool[T]{
		ctx:  ctx,
		jobs: make(chan T, size*4),
		work: work,
		size: size,
	}
}

// Start launches the pool's goroutines. Call once, before any Submit.
func (p *WorkerPool[T]) Start() {
	p.wg.Add(p.size)
	for i := 0; i < p.size; i++ {
		go p.drain()
	}
}

func (p *WorkerPool[T]) drain() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			p.work(job)
		}
	}
}

// Submit queues one task. Tasks submitted after the pool's context is
// cancelled are dropped.
func (p *WorkerPool[T]) Submit(job T) {
	select {
	case <-p.ctx.Done():
	case p.jobs <- job:
	}
}

// Stop closes the queue and waits for in-flight work to finish. Safe to
// call more than once.
func (p *WorkerPool[T]) Stop() {
	p.stopOnce.Do(func() {
		close(p.jobs)
	})
	p.wg.Wait()
}
