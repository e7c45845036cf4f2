// Package retry provides retries with exponential backoff and jitter.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// Config holds retry behavior.
type Config struct {
	MaxAttempts     int              // total attempts, minimum 1
	InitialDelay    time.Duration    // delay before the second attempt
	MaxDelay        time.Duration    // backoff ceiling
	Multiplier      float64          // backoff multiplier, minimum 1
	RandomizeFactor float64          // jitter fraction in [0,1]
	RetryIf         func(error) bool // retryability predicate
}

// DefaultConfig returns the retry settings used for engine calls.
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts:     3,
		InitialDelay:    200 * time.Millisecond,
		MaxDelay:        5 * time.Second,
		Multiplier:      2.0,
		RandomizeFactor: 0.1,
		RetryIf:         DefaultRetryIf,
	}
}

// Operation is a retryable unit of work.
type Operation func(ctx context.Context) error

// Retrier executes operations with backoff between attempts.
type Retrier struct {
	config *Config
}

// New creates a Retrier, sanitizing the configuration.
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
		config.RetryIf = DefaultRetryIf
	}
	return &Retrier{config: config}
}

// Do runs op until it succeeds, exhausts attempts, hits a non-retryable
// error, or the context is done.
func (r *Retrier) Do(ctx context.Context, op Operation) error {
	delay := r.config.InitialDelay

	var lastErr error
	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("retry aborted: %w", err)
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if !r.config.RetryIf(lastErr) {
			return lastErr
		}
		if attempt == r.config.MaxAttempts {
			break
		}

		select {
		case <-time.After(r.jitter(delay)):
			delay = time.Duration(float64(delay) * r.config.Multiplier)
			if delay > r.config.MaxDelay {
				delay = r.config.MaxDelay
			}
		case <-ctx.Done():
			return fmt.Errorf("retry aborted during backoff: %w", ctx.Err())
		}
	}
	return lastErr
}

func (r *Retrier) jitter(delay time.Duration) time.Duration {
	if r.config.RandomizeFactor == 0 {
		return delay
	}
	delta := float64(delay) * r.config.RandomizeFactor
	return time.Duration(float64(delay) - delta + rand.Float64()*2*delta)
}

// TemporaryError marks an error as retryable.
type TemporaryError struct {
	Err error
}

func (e *TemporaryError) Error() string   { return fmt.Sprintf("temporary: %v", e.Err) }
func (e *TemporaryError) Unwrap() error   { return e.Err }
func (e *TemporaryError) Temporary() bool { return true }

// PermanentError marks an error as not worth retrying.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return fmt.Sprintf("permanent: %v", e.Err) }
func (e *PermanentError) Unwrap() error { return e.Err }

// DefaultRetryIf retries temporary errors, refuses permanent ones, and
// retries anything unclassified.
func DefaultRetryIf(err error) bool {
	if err == nil {
		return false
	}
	var tempErr *TemporaryError
	if errors.As(err, &tempErr) {
		return true
	}
	var permErr *PermanentError
	if errors.As(err, &permErr) {
		return false
	}
	type temporary interface{ Temporary() bool }
	var te temporary
	if errors.As(err, &te) {
		return te.Temporary()
	}
	return true
}

// Do executes op with the default configuration.
func Do(ctx context.Context, op Operation) error {
	return New(DefaultConfig()).Do(ctx, op)
}
