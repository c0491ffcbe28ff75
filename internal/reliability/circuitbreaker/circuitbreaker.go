// Package circuitbreaker sheds translator calls while the upstream
// endpoint keeps failing. An open breaker answers locally instead of
// queueing interactive requests behind a dead dependency.
package circuitbreaker

import (
	"sync"
	"time"
)

// State is the breaker position.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Breaker trips open after a run of consecutive failures. Once the
// cooldown has passed it moves half-open and admits trial requests
// until enough consecutive successes close it again.
type Breaker struct {
	mu        sync.Mutex
	state     State
	failures  int
	successes int
	openedAt  time.Time

	failureThreshold int
	successThreshold int
	cooldown         time.Duration
}

// New creates a new closed breaker
func New(failureThreshold, successThreshold int, cooldown time.Duration) *Breaker {
	return &Breaker{
		state:            StateClosed,
		failureThreshold: failureThreshold,
		successThreshold: successThreshold,
		cooldown:         cooldown,
	}
}

// AllowRequest reports whether a call may go out. An open breaker past
// its cooldown moves to half-open and lets a trial request through.
func (b *Breaker) AllowRequest() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != StateOpen {
		return true
	}
	if time.Since(b.openedAt) > b.cooldown {
		b.state = StateHalfOpen
		b.failures = 0
		b.successes = 0
		return true
	}
	return false
}

// RecordSuccess resets the failure run; in half-open it counts toward
// closing the breaker.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case StateClosed:
		b.failures = 0
	case StateHalfOpen:
		b.successes++
		if b.successes >= b.successThreshold {
			b.state = StateClosed
			b.failures = 0
			b.successes = 0
		}
	}
}

// RecordFailure extends the failure run; a half-open trial failure
// re-opens immediately.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case StateClosed:
		b.failures++
		if b.failures >= b.failureThreshold {
			b.state = StateOpen
			b.openedAt = time.Now()
			b.failures = 0
		}
	case StateHalfOpen:
		b.state = StateOpen
		b.openedAt = time.Now()
		b.successes = 0
	}
}

// GetState returns the current position.
func (b *Breaker) GetState() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
