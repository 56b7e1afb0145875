package dataflow

import (
	"time"
)

// Option tunes a single stage.
type Option func(*config)

type config struct {
	workers    int
	bufferSize int

	maxRetries int
	backoff    Backoff

	// onError sees every failed item. In ForEach a true return swallows
	// the error; Map always drops the failed item.
	onError func(error) bool
}

func newConfig(opts []Option) *config {
	cfg := &config{workers: 1}
	for _, o := range opts {
		o(cfg)
	}
	return cfg
}

// Backoff returns the pause before retry attempt n (starting at 1).
type Backoff func(attempt int) time.Duration

// ConstantBackoff waits d before every retry.
func ConstantBackoff(d time.Duration) Backoff {
	return func(int) time.Duration { return d }
}

// WithWorkers runs the stage on n goroutines. Values below 1 are ignored.
func WithWorkers(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithBufferSize sets the capacity of the stage's output channel.
func WithBufferSize(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.bufferSize = n
		}
	}
}

// WithRetry re-runs a failing item up to maxRetries times. A nil backoff
// retries immediately.
func WithRetry(maxRetries int, backoff Backoff) Option {
	return func(c *config) {
		if maxRetries < 0 {
			maxRetries = 0
		}
		c.maxRetries = maxRetries
		c.backoff = backoff
	}
}

// WithErrorHandler installs h as the stage's error callback.
func WithErrorHandler(h func(error) bool) Option {
	return func(c *config) {
		c.onError = h
	}
}
