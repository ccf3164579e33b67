package workpool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// DefaultSize is the number of remote calls allowed in flight at once.
const DefaultSize = 3

var ErrClosed = errors.New("worker pool is closed")

// Metrics is a snapshot of pool load.
type Metrics struct {
	ActiveTasks    int64   `json:"active_tasks"`
	MaxTasks       int64   `json:"max_tasks"`
	QueuedTasks    int64   `json:"queued_tasks"`
	LoadPercentage float64 `json:"load_percentage"`
}

// Pool bounds how many submitted tasks run concurrently. Tasks beyond the
// limit wait for a free slot. A Pool is shared by all requests and must be
// closed on shutdown.
type Pool struct {
	sem    *semaphore.Weighted
	size   int64
	active atomic.Int64
	queued atomic.Int64

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func New(size int) *Pool {
	if size <= 0 {
		size = DefaultSize
	}
	return &Pool{
		sem:  semaphore.NewWeighted(int64(size)),
		size: int64(size),
	}
}

// Do runs fn on the caller's goroutine once a slot is free. ctx bounds the
// wait for a slot only: a started task runs to completion on a context that
// keeps ctx's values but not its cancellation.
func (p *Pool) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return ErrClosed
	}
	p.wg.Add(1)
	p.mu.RUnlock()
	defer p.wg.Done()

	p.queued.Add(1)
	err := p.sem.Acquire(ctx, 1)
	p.queued.Add(-1)
	if err != nil {
		return err
	}
	p.active.Add(1)
	defer func() {
		p.active.Add(-1)
		p.sem.Release(1)
	}()

	return fn(context.WithoutCancel(ctx))
}

// Close stops accepting work and waits for running and queued tasks.
func (p *Pool) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *Pool) Metrics() Metrics {
	active := p.active.Load()
	load := 0.0
	if p.size > 0 {
		load = float64(active) / float64(p.size) * 100.0
	}
	return Metrics{
		ActiveTasks:    active,
		MaxTasks:       p.size,
		QueuedTasks:    p.queued.Load(),
		LoadPercentage: load,
	}
}
