// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package parallel provides the worker pool behind the CPU executors and the
// workgroup dispatchers that mirror compute-shader dispatch on it.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// WorkerPool runs batches of work items on a fixed set of goroutines. Each
// worker owns a queue; a worker whose queue runs dry takes items from the
// other queues, so one slow item does not hold up the rest of its batch.
//
// ExecuteAll may be called from several goroutines at once. It must not be
// called concurrently with Close, nor from inside a work item.
type WorkerPool struct {
	queues  []chan func()
	done    chan struct{}
	wg      sync.WaitGroup
	running atomic.Bool
	once    sync.Once
}

// NewWorkerPool starts a pool with the given number of workers.
// GOMAXPROCS workers are used when workers <= 0.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	depth := max(workers*4, 16)

	p := &WorkerPool{
		queues: make([]chan func(), workers),
		done:   make(chan struct{}),
	}
	for i := range p.queues {
		p.queues[i] = make(chan func(), depth)
	}
	p.running.Store(true)
	p.wg.Add(workers)
	for id := range workers {
		go p.loop(id)
	}
	return p
}

func (p *WorkerPool) loop(id int) {
	defer p.wg.Done()
	own := p.queues[id]
	for {
		if fn := p.take(id); fn != nil {
			fn()
			continue
		}
		select {
		case fn := <-own:
			fn()
		case <-p.done:
			for {
				select {
				case fn := <-own:
					fn()
				default:
					return
				}
			}
		}
	}
}

// take returns a queued item without blocking, looking at the worker's own
// queue first and then at the others in order. It returns nil when every
// queue is empty.
func (p *WorkerPool) take(id int) func() {
	n := len(p.queues)
	for k := range n {
		select {
		case fn := <-p.queues[(id+k)%n]:
			return fn
		default:
		}
	}
	return nil
}

// ExecuteAll runs every item of work and returns once all of them have
// finished. Items are dealt round-robin over the worker queues. ExecuteAll
// does nothing on a closed pool.
func (p *WorkerPool) ExecuteAll(work []func()) {
	if len(work) == 0 || !p.running.Load() {
		return
	}

	var pending sync.WaitGroup
	pending.Add(len(work))
	for i, fn := range work {
		item := func() {
			defer pending.Done()
			fn()
		}
		select {
		case p.queues[i%len(p.queues)] <- item:
		case <-p.done:
			pending.Done()
		}
	}
	pending.Wait()
}

// Close stops the workers after the queued items have run and waits for
// them to exit. Close is safe to call multiple times.
func (p *WorkerPool) Close() {
	p.once.Do(func() {
		p.running.Store(false)
		close(p.done)
		p.wg.Wait()
	})
}

// Workers returns the number of worker goroutines.
func (p *WorkerPool) Workers() int { return len(p.queues) }

// IsRunning reports whether the pool accepts work.
func (p *WorkerPool) IsRunning() bool { return p.running.Load() }
