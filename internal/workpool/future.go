package workpool

import "context"

// Future is the pending result of a submitted task.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Wait blocks until the task has finished.
func (f *Future[T]) Wait() (T, error) {
	<-f.done
	return f.val, f.err
}

// Submit starts fn on its own goroutine, gated by the pool.
func Submit[T any](ctx context.Context, p *Pool, fn func(ctx context.Context) (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.err = p.Do(ctx, func(ctx context.Context) error {
			v, err := fn(ctx)
			f.val = v
			return err
		})
	}()
	return f
}
