package infra

import (
	"errors"
	"sync"
	"time"
)

// ── Circuit Breaker ───────────────────────────────────────────────────────────
// Guards the relational connections: after repeated connection-level failures
// the breaker opens and every storage call fails immediately instead of
// waiting on a dead server for the driver timeout.
//
// States:
//   - Closed:    normal operation, calls pass through
//   - Open:      all calls fail immediately with ErrCircuitOpen
//   - Half-Open: probe calls allowed through to test recovery

// CBState represents the current circuit breaker state.
type CBState int

const (
	CBClosed CBState = iota
	CBOpen
	CBHalfOpen
)

// String returns a human-readable state name (for health endpoints / logs).
func (s CBState) String() string {
	switch s {
	case CBClosed:
		return "closed"
	case CBOpen:
		return "open"
	case CBHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen is returned when Execute is called while the CB is open.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreakerConfig holds tunable parameters.
type CircuitBreakerConfig struct {
	FailureThreshold int           // consecutive failures to trip open (default: 5)
	SuccessThreshold int           // consecutive successes in half-open to close (default: 1)
	OpenTimeout      time.Duration // how long to stay open before probing (default: 30s)
	// IsFailure decides which errors count toward tripping. Nil counts every error.
	IsFailure func(error) bool
	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

// DefaultCBConfig returns the defaults used for the relational backends.
func DefaultCBConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold: 5,
		SuccessThreshold: 1,
		OpenTimeout:      30 * time.Second,
	}
}

// CircuitBreaker implements the pattern with thread-safe state transitions.
type CircuitBreaker struct {
	mu              sync.Mutex
	state           CBState
	failureCount    int
	successCount    int
	lastFailureTime time.Time
	cfg             CircuitBreakerConfig
}

// NewCircuitBreaker creates a CB in Closed state.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 1
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	if cfg.IsFailure == nil {
		cfg.IsFailure = func(err error) bool { return err != nil }
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &CircuitBreaker{state: CBClosed, cfg: cfg}
}

// State returns the current CB state (safe for concurrent reads).
func (cb *CircuitBreaker) State() CBState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.currentState()
}

// currentState must be called under lock; it moves open -> half-open once the timeout elapsed.
func (cb *CircuitBreaker) currentState() CBState {
	if cb.state == CBOpen && cb.cfg.Now().Sub(cb.lastFailureTime) >= cb.cfg.OpenTimeout {
		cb.state = CBHalfOpen
		cb.successCount = 0
	}
	return cb.state
}

// Execute runs fn through the circuit breaker.
// Returns ErrCircuitOpen immediately if the CB is open.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if err := cb.Allow(); err != nil {
		return err
	}
	err := fn()
	cb.Record(err)
	return err
}

// Allow reports ErrCircuitOpen while the CB is open. Callers that cannot wrap
// their work in Execute pair it with Record.
func (cb *CircuitBreaker) Allow() error {
	if cb.State() == CBOpen {
		return ErrCircuitOpen
	}
	return nil
}

// Record feeds the outcome of one guarded call into the state machine.
func (cb *CircuitBreaker) Record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err != nil && cb.cfg.IsFailure(err) {
		cb.onFailure()
	} else {
		cb.onSuccess()
	}
}

// onFailure records a failure (must be called under lock).
func (cb *CircuitBreaker) onFailure() {
	cb.failureCount++
	cb.lastFailureTime = cb.cfg.Now()

	switch cb.state {
	case CBClosed:
		if cb.failureCount >= cb.cfg.FailureThreshold {
			cb.state = CBOpen
			cb.successCount = 0
		}
	case CBHalfOpen:
		cb.state = CBOpen
		cb.failureCount = 0
	}
}

// onSuccess records a success (must be called under lock).
func (cb *CircuitBreaker) onSuccess() {
	switch cb.state {
	case CBClosed:
		cb.failureCount = 0
	case CBHalfOpen:
		cb.successCount++
		if cb.successCount >= cb.cfg.SuccessThreshold {
			cb.state = CBClosed
			cb.failureCount = 0
			cb.successCount = 0
		}
	}
}
