package quorum

import (
	"context"
	"errors"
	"sync"
)

// ErrNotCompleted marks a target whose task had not finished when Gather returned.
var ErrNotCompleted = errors.New("node query did not complete")

// Result is the outcome of one target's task.
type Result[T any] struct {
	Target string
	Value  T
	Err    error
	// Done is false when the task was still running when the join returned.
	Done bool
}

// TaskFunc queries a single target.
type TaskFunc[T any] func(ctx context.Context, target string) (T, error)

// Gather runs fn for every target in parallel and waits until all of them
// have finished or ctx is done, whichever comes first. Results are returned
// in target order. Tasks still running at that point are reported with
// Done=false and ErrNotCompleted; whatever they produce later is discarded.
func Gather[T any](ctx context.Context, targets []string, fn TaskFunc[T]) []Result[T] {
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make([]Result[T], len(targets))
	)

	for i, target := range targets {
		results[i] = Result[T]{Target: target, Err: ErrNotCompleted}
	}

	// Fanout to all targets
	for i, target := range targets {
		wg.Add(1)
		go func(idx int, target string) {
			defer wg.Done()

			value, err := fn(ctx, target)
			mu.Lock()
			defer mu.Unlock()
			results[idx] = Result[T]{Target: target, Value: value, Err: err, Done: true}
		}(i, target)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
	}

	mu.Lock()
	defer mu.Unlock()
	out := make([]Result[T], len(results))
	copy(out, results)
	return out
}

// Required returns the smallest count that is a strict majority of total.
func Required(total int) int {
	return total/2 + 1
}

// Achieved reports whether available is a strict majority of total.
func Achieved(available, total int) bool {
	return available > total/2
}
