package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ErrPanic marks a task that panicked instead of returning.
var ErrPanic = errors.New("task panicked")

// Pool bounds how many tasks of a dispatch run at once.
type Pool struct {
	workers int
}

// Result is the outcome of the task at Index.
type Result[T any] struct {
	Index int
	Value T
	Err   error
}

// Func is a single indexed task.
type Func[T any] func(ctx context.Context, index int) (T, error)

// DoneFunc observes task completions. Calls are serialized; done counts completions so far.
type DoneFunc[T any] func(result Result[T], done, total int)

// New creates a pool capped at workers concurrent tasks.
func New(workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	return &Pool{workers: workers}
}

// Workers returns the concurrency cap.
func (p *Pool) Workers() int {
	return p.workers
}

// Map runs fn for every index in [0, n) and returns results ordered by index.
// A failing task records its error and never stops its siblings. Once ctx is
// done, undispatched indices resolve to ctx.Err() without running.
func Map[T any](ctx context.Context, p *Pool, n int, fn Func[T], onDone ...DoneFunc[T]) []Result[T] {
	if p == nil {
		p = New(1)
	}
	results := make([]Result[T], n)
	if n == 0 {
		return results
	}

	var (
		mu   sync.Mutex
		done int
	)
	finish := func(result Result[T]) {
		results[result.Index] = result
		mu.Lock()
		defer mu.Unlock()
		done++
		for _, observe := range onDone {
			if observe != nil {
				observe(result, done, n)
			}
		}
	}

	var group errgroup.Group
	group.SetLimit(p.workers)
	for i := 0; i < n; i++ {
		index := i
		if err := ctx.Err(); err != nil {
			finish(Result[T]{Index: index, Err: err})
			continue
		}
		group.Go(func() error {
			value, err := invoke(ctx, fn, index)
			finish(Result[T]{Index: index, Value: value, Err: err})
			return nil
		})
	}
	_ = group.Wait()
	return results
}

// invoke runs fn and converts a panic into ErrPanic.
func invoke[T any](ctx context.Context, fn Func[T], index int) (value T, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			var zero T
			value = zero
			err = fmt.Errorf("%w: %v", ErrPanic, recovered)
		}
	}()
	return fn(ctx, index)
}

// Errors returns the non-nil errors in index order.
func Errors[T any](results []Result[T]) []error {
	var errs []error
	for _, result := range results {
		if result.Err != nil {
			errs = append(errs, result.Err)
		}
	}
	return errs
}
