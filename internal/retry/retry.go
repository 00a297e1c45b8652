// Package retry provides retry mechanisms with exponential backoff for
// transient storage failures. The suggestion requester's fixed attempt loop
// is its own contract and does not use this package.
package retry

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// Config holds retry configuration
type Config struct {
	MaxAttempts     int              // Maximum number of attempts
	InitialDelay    time.Duration    // Initial delay between retries
	MaxDelay        time.Duration    // Maximum delay between retries
	Multiplier      float64          // Backoff multiplier
	RandomizeFactor float64          // Jitter factor (0-1)
	RetryIf         func(error) bool // Determines if an error is retryable
}

// DefaultConfig returns a default retry configuration. RetryIf is left nil;
// New treats nil as retry-everything and callers usually install their own
// predicate.
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts:     3,
		InitialDelay:    100 * time.Millisecond,
		MaxDelay:        5 * time.Second,
		Multiplier:      2.0,
		RandomizeFactor: 0.1,
	}
}

// Operation represents a retryable operation
type Operation func(ctx context.Context) error

// Retrier provides retry functionality
type Retrier struct {
	config *Config
}

// New creates a new retrier with the given configuration
func New(config *Config) *Retrier {
	if config == nil {
		config = DefaultConfig()
	}
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}
	if config.Multiplier < 1 {
		config.Multiplier = 1
	}
	if config.RandomizeFactor < 0 {
		config.RandomizeFactor = 0
	} else if config.RandomizeFactor > 1 {
		config.RandomizeFactor = 1
	}
	if config.RetryIf == nil {
		config.RetryIf = func(error) bool { return true }
	}
	return &Retrier{config: config}
}

// Do executes the operation with retries
func (r *Retrier) Do(ctx context.Context, op Operation) error {
	var lastErr error
	delay := r.config.InitialDelay

	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("context cancelled: %w", err)
		}

		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !r.config.RetryIf(err) || attempt == r.config.MaxAttempts {
			break
		}

		select {
		case <-time.After(r.jitter(delay)):
			delay = r.nextDelay(delay)
		case <-ctx.Done():
			return fmt.Errorf("context cancelled during retry delay: %w", ctx.Err())
		}
	}

	return lastErr
}

// jitter randomizes delay by the configured factor
func (r *Retrier) jitter(delay time.Duration) time.Duration {
	if r.config.RandomizeFactor == 0 {
		return delay
	}
	delta := float64(delay) * r.config.RandomizeFactor
	return time.Duration(float64(delay) - delta + rand.Float64()*2*delta)
}

// nextDelay calculates the next delay with exponential backoff
func (r *Retrier) nextDelay(currentDelay time.Duration) time.Duration {
	next := time.Duration(float64(currentDelay) * r.config.Multiplier)
	if next > r.config.MaxDelay {
		return r.config.MaxDelay
	}
	return next
}
