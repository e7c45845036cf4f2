// Package circuitbreaker guards the completion engine against repeated
// failures by rejecting calls while the upstream is known to be down.
package circuitbreaker

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// ErrOpen is returned when the breaker rejects a call.
var ErrOpen = errors.New("circuit breaker is open")

// State of the breaker.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// Config holds breaker thresholds.
type Config struct {
	FailureThreshold int           // consecutive failures before opening
	SuccessThreshold int           // successes in half-open before closing
	ResetTimeout     time.Duration // open duration before probing again
}

// DefaultConfig returns the thresholds used for engine calls.
func DefaultConfig() *Config {
	return &Config{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		ResetTimeout:     30 * time.Second,
	}
}

// Breaker implements a closed/open/half-open circuit breaker.
type Breaker struct {
	config *Config

	state           int32
	lastFailureNano int64

	consecutiveFailures  int32
	consecutiveSuccesses int32
}

// New creates a Breaker in the closed state.
func New(config *Config) *Breaker {
	if config == nil {
		config = DefaultConfig()
	}
	return &Breaker{config: config, state: int32(StateClosed)}
}

// Execute runs fn under breaker protection. While open, calls fail fast
// with ErrOpen until the reset timeout elapses.
func (b *Breaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if err := b.allow(); err != nil {
		return err
	}

	err := fn(ctx)
	if err != nil {
		b.recordFailure()
	} else {
		b.recordSuccess()
	}
	return err
}

// State returns the breaker's current state.
func (b *Breaker) State() State {
	return State(atomic.LoadInt32(&b.state))
}

func (b *Breaker) allow() error {
	switch b.State() {
	case StateOpen:
		last := atomic.LoadInt64(&b.lastFailureNano)
		if last != 0 && time.Since(time.Unix(0, last)) < b.config.ResetTimeout {
			return ErrOpen
		}
		b.transition(StateHalfOpen)
		return nil
	default:
		return nil
	}
}

func (b *Breaker) recordSuccess() {
	switch b.State() {
	case StateClosed:
		atomic.StoreInt32(&b.consecutiveFailures, 0)
	case StateHalfOpen:
		if atomic.AddInt32(&b.consecutiveSuccesses, 1) >= int32(b.config.SuccessThreshold) {
			b.transition(StateClosed)
		}
	case StateOpen:
	}
}

func (b *Breaker) recordFailure() {
	atomic.StoreInt64(&b.lastFailureNano, time.Now().UnixNano())

	switch b.State() {
	case StateClosed:
		if atomic.AddInt32(&b.consecutiveFailures, 1) >= int32(b.config.FailureThreshold) {
			b.transition(StateOpen)
		}
	case StateHalfOpen:
		// any probe failure reopens
		b.transition(StateOpen)
	case StateOpen:
	}
}

func (b *Breaker) transition(to State) {
	atomic.StoreInt32(&b.state, int32(to))
	atomic.StoreInt32(&b.consecutiveSuccesses, 0)
	if to == StateClosed {
		atomic.StoreInt32(&b.consecutiveFailures, 0)
	}
}
