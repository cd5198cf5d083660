package httpclient

import (
	"sync"
	"time"
)

// CircuitState is the state of a CircuitBreaker.
type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

var circuitStateNames = [...]string{
	CircuitClosed:   "closed",
	CircuitOpen:     "open",
	CircuitHalfOpen: "half-open",
}

func (s CircuitState) String() string {
	if s < 0 || int(s) >= len(circuitStateNames) {
		return "unknown"
	}
	return circuitStateNames[s]
}

// CircuitBreaker rejects calls to an API that keeps failing with transport
// errors or 5xx responses. The zero value is not usable; see NewCircuitBreaker.
type CircuitBreaker struct {
	openAfter  int
	closeAfter int
	cooldown   time.Duration

	mu        sync.Mutex
	state     CircuitState
	streak    int // consecutive failures while closed, successful probes while half-open
	openUntil time.Time
}

// NewCircuitBreaker opens after failureThreshold consecutive failures, lets
// probes through once recoveryTimeout has passed and closes again after
// successThreshold successful probes. Non-positive values fall back to 5, 2
// and 30s.
func NewCircuitBreaker(failureThreshold, successThreshold int, recoveryTimeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		openAfter:  positiveOr(failureThreshold, 5),
		closeAfter: positiveOr(successThreshold, 2),
		cooldown:   positiveOr(recoveryTimeout, 30*time.Second),
	}
}

func positiveOr[T int | time.Duration](v, fallback T) T {
	if v > 0 {
		return v
	}
	return fallback
}

// Allow reports whether a call may go out.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state != CircuitOpen {
		return true
	}
	if time.Now().Before(cb.openUntil) {
		return false
	}
	cb.state, cb.streak = CircuitHalfOpen, 0
	return true
}

func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed:
		cb.streak = 0
	case CircuitHalfOpen:
		if cb.streak++; cb.streak >= cb.closeAfter {
			cb.state, cb.streak = CircuitClosed, 0
		}
	}
}

func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed:
		if cb.streak++; cb.streak < cb.openAfter {
			return
		}
	case CircuitOpen:
		return
	}
	cb.state, cb.streak = CircuitOpen, 0
	cb.openUntil = time.Now().Add(cb.cooldown)
}

// State reports half-open for an open breaker whose cooldown has passed, even
// before Allow lets the first probe through.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == CircuitOpen && !time.Now().Before(cb.openUntil) {
		return CircuitHalfOpen
	}
	return cb.state
}

// Reset closes the breaker and forgets past failures.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	cb.state, cb.streak, cb.openUntil = CircuitClosed, 0, time.Time{}
	cb.mu.Unlock()
}
