package dataflow

import (
	"context"
	"sync"
	"time"
)

// Stream is a read-only channel of messages.
type Stream[T any] <-chan T

// From creates a stream from a slice of data.
func From[T any](ctx context.Context, items ...T) Stream[T] {
	out := make(chan T, len(items))
	go func() {
		defer close(out)
		for _, item := range items {
			select {
			case <-ctx.Done():
				return
			case out <- item:
			}
		}
	}()
	return out
}

// call runs fn once and then up to maxRetries more times while it fails.
// alive is false when ctx was cancelled during a backoff.
func call[R any](ctx context.Context, cfg *config, fn func() (R, error)) (res R, alive bool, err error) {
	res, err = fn()
	for i := 1; err != nil && i <= cfg.maxRetries; i++ {
		if cfg.backoff != nil {
			select {
			case <-ctx.Done():
				return res, false, err
			case <-time.After(cfg.backoff(i)):
			}
		}
		res, err = fn()
	}
	return res, true, err
}

// Map transforms the stream using the provided function.
// Supports parallelism via WithWorkers; output order is not preserved when
// more than one worker runs. Failed items are dropped after the error
// handler (if any) has seen them.
func Map[T, R any](ctx context.Context, input Stream[T], fn func(T) (R, error), opts ...Option) Stream[R] {
	cfg := newConfig(opts)

	out := make(chan R, cfg.bufferSize)
	var wg sync.WaitGroup

	worker := func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-input:
				if !ok {
					return
				}
				res, alive, err := call(ctx, cfg, func() (R, error) { return fn(msg) })
				if !alive {
					return
				}
				if err != nil {
					if cfg.onError != nil {
						cfg.onError(err)
					}
					continue
				}
				select {
				case <-ctx.Done():
					return
				case out <- res:
				}
			}
		}
	}

	wg.Add(cfg.workers)
	for i := 0; i < cfg.workers; i++ {
		go worker()
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	return out
}

// ForEach executes an action for every item in the stream.
// It blocks until the stream is exhausted or context cancelled, and returns
// the first error no handler swallowed.
func ForEach[T any](ctx context.Context, input Stream[T], fn func(T) error, opts ...Option) error {
	cfg := newConfig(opts)

	var wg sync.WaitGroup
	var errOnce sync.Once
	var firstErr error

	worker := func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-input:
				if !ok {
					return
				}
				_, alive, err := call(ctx, cfg, func() (struct{}, error) { return struct{}{}, fn(msg) })
				if !alive {
					return
				}
				if err == nil {
					continue
				}
				if cfg.onError != nil && cfg.onError(err) {
					continue
				}
				errOnce.Do(func() {
					firstErr = err
				})
			}
		}
	}

	wg.Add(cfg.workers)
	for i := 0; i < cfg.workers; i++ {
		go worker()
	}

	wg.Wait()

	if ctx.Err() != nil {
		return ctx.Err()
	}
	return firstErr
}

// Collect drains the stream into a slice.
func Collect[T any](ctx context.Context, input Stream[T]) ([]T, error) {
	var out []T
	err := ForEach(ctx, input, func(item T) error {
		out = append(out, item)
		return nil
	})
	return out, err
}
