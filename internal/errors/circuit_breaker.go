package errors

import (
	"errors"
	"sync"
	"time"
)

const (
	ErrorThreshold      = 0.5
	MinRequests         = 10
	TimeoutDuration     = 30 * time.Second
	HalfOpenMaxRequests = 3
)

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

var (
	errCircuitOpen    = errors.New("circuit breaker is open")
	errHalfOpenBudget = errors.New("half-open probe budget exhausted")
)

// CircuitBreaker guards an unreliable downstream. It trips open once the
// failure rate over at least MinRequests calls reaches ErrorThreshold,
// rejects calls for TimeoutDuration, then lets a handful of probes
// through before closing again.
type CircuitBreaker struct {
	mu        sync.Mutex
	state     State
	failures  int
	successes int
	requests  int
	openedAt  time.Time
}

// NewCircuitBreaker returns a breaker in the closed state.
func NewCircuitBreaker() *CircuitBreaker {
	return &CircuitBreaker{state: StateClosed}
}

// Call invokes fn if the breaker admits it and folds the outcome into
// the breaker state.
func (cb *CircuitBreaker) Call(fn func() error) error {
	if fn == nil {
		return nil
	}

	if err := cb.allow(); err != nil {
		return err
	}

	err := fn()
	cb.record(err)
	return err
}

// State returns the current breaker state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateOpen:
		if time.Since(cb.openedAt) < TimeoutDuration {
			return errCircuitOpen
		}
		cb.state = StateHalfOpen
		cb.reset()
	case StateHalfOpen:
		if cb.requests >= HalfOpenMaxRequests {
			return errHalfOpenBudget
		}
	}

	return nil
}

func (cb *CircuitBreaker) record(callErr error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.requests++

	if callErr != nil {
		cb.failures++

		// Any failed probe re-opens immediately.
		if cb.state == StateHalfOpen {
			cb.trip()
			return
		}

		if cb.requests >= MinRequests &&
			float64(cb.failures)/float64(cb.requests) >= ErrorThreshold {
			cb.trip()
		}
		return
	}

	cb.successes++
	if cb.state == StateHalfOpen && cb.successes >= HalfOpenMaxRequests {
		cb.state = StateClosed
		cb.reset()
	}
}

func (cb *CircuitBreaker) trip() {
	cb.state = StateOpen
	cb.openedAt = time.Now()
	cb.reset()
}

func (cb *CircuitBreaker) reset() {
	cb.failures = 0
	cb.successes = 0
	cb.requests = 0
}
