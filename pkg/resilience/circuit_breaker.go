// Package resilience guards calls to unreliable upstream dependencies with
// a circuit breaker and a retry policy. The two compose but are independent;
// in this codebase retries run inside breaker protection, so one Execute is
// one call boundary regardless of how many attempts happen within it.
package resilience

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ghost-mcp/ghost-mcp/pkg/logger"
)

// State represents the state of a circuit breaker.
type State string

const (
	// StateClosed indicates normal operation - requests pass through
	StateClosed State = "CLOSED"
	// StateOpen indicates failing state - requests fail immediately
	StateOpen State = "OPEN"
	// StateHalfOpen indicates recovery testing - a single trial request is allowed
	StateHalfOpen State = "HALF_OPEN"
)

// ErrOpen is returned by Execute when the breaker rejects a call without
// invoking the wrapped function.
var ErrOpen = errors.New("Circuit breaker is OPEN")

// Breaker configuration defaults.
const (
	DefaultFailureThreshold = 5
	DefaultResetTimeout     = 60 * time.Second
	DefaultMonitoringPeriod = 10 * time.Second
)

// Config configures a CircuitBreaker. Zero values fall back to defaults.
type Config struct {
	// FailureThreshold is the number of consecutive recorded failures that
	// trips the breaker from CLOSED to OPEN.
	FailureThreshold int

	// ResetTimeout is how long an OPEN breaker rejects calls before allowing
	// a half-open trial.
	ResetTimeout time.Duration

	// MonitoringPeriod is accepted for configuration compatibility but is
	// not consulted by the transition logic.
	MonitoringPeriod time.Duration

	// OnStateChange, if set, is invoked after every state transition while
	// the breaker lock is held. Keep it cheap.
	OnStateChange func(name string, from, to State)
}

func (c Config) withDefaults() Config {
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = DefaultFailureThreshold
	}
	if c.ResetTimeout <= 0 {
		c.ResetTimeout = DefaultResetTimeout
	}
	if c.MonitoringPeriod <= 0 {
		c.MonitoringPeriod = DefaultMonitoringPeriod
	}
	return c
}

// CircuitBreaker fails fast once an upstream dependency is persistently
// broken. One instance guards one dependency and is mutated only through
// Execute; all state transitions happen under a single mutex so concurrent
// callers observe serialized read-modify-write of the counters.
type CircuitBreaker struct {
	mu sync.Mutex

	// name identifies the protected dependency in logs and snapshots.
	name string
	cfg  Config

	state           State
	failureCount    int
	lastFailureTime *time.Time
	nextAttempt     *time.Time

	// Only one trial call may run in half-open state.
	halfOpenInFlight bool
}

// NewCircuitBreaker creates a breaker for the named dependency.
func NewCircuitBreaker(name string, cfg Config) *CircuitBreaker {
	return &CircuitBreaker{
		name:  name,
		cfg:   cfg.withDefaults(),
		state: StateClosed,
	}
}

// Snapshot is a read-only view of breaker state for health endpoints.
type Snapshot struct {
	Name            string     `json:"name"`
	State           State      `json:"state"`
	FailureCount    int        `json:"failureCount"`
	LastFailureTime *time.Time `json:"lastFailureTime"`
	NextAttempt     *time.Time `json:"nextAttempt"`
}

// GetState returns a read-only snapshot of the breaker.
func (cb *CircuitBreaker) GetState() Snapshot {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return Snapshot{
		Name:            cb.name,
		State:           cb.state,
		FailureCount:    cb.failureCount,
		LastFailureTime: copyTime(cb.lastFailureTime),
		NextAttempt:     copyTime(cb.nextAttempt),
	}
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// Execute runs fn under breaker protection. When the breaker is OPEN and the
// reset deadline has not passed, fn is not invoked and ErrOpen is returned.
// The breaker does not classify why fn failed: any error counts as one
// failure.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if err := cb.beforeCall(); err != nil {
		return err
	}

	err := fn(ctx)
	cb.afterCall(err == nil)
	return err
}

// ExecuteValue runs fn under breaker protection and returns its result.
func ExecuteValue[T any](ctx context.Context, cb *CircuitBreaker, fn func(context.Context) (T, error)) (T, error) {
	var out T
	err := cb.Execute(ctx, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

func (cb *CircuitBreaker) beforeCall() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return nil

	case StateOpen:
		if cb.nextAttempt != nil && !time.Now().Before(*cb.nextAttempt) {
			cb.transition(StateHalfOpen)
			cb.halfOpenInFlight = true
			return nil
		}
		return ErrOpen

	case StateHalfOpen:
		if cb.halfOpenInFlight {
			return ErrOpen
		}
		cb.halfOpenInFlight = true
		return nil

	default:
		return ErrOpen
	}
}

func (cb *CircuitBreaker) afterCall(success bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if success {
		cb.halfOpenInFlight = false
		if cb.state == StateClosed {
			// A success in CLOSED does not reset the failure count; only a
			// recovered trial does.
			return
		}
		cb.failureCount = 0
		cb.lastFailureTime = nil
		cb.nextAttempt = nil
		cb.transition(StateClosed)
		logger.Infof("circuit breaker %s recovered", cb.name)
		return
	}

	now := time.Now()
	cb.failureCount++
	cb.lastFailureTime = &now
	cb.halfOpenInFlight = false

	switch cb.state {
	case StateHalfOpen:
		next := now.Add(cb.cfg.ResetTimeout)
		cb.nextAttempt = &next
		cb.transition(StateOpen)
		logger.Warnf("circuit breaker %s returned to OPEN (trial failed)", cb.name)

	case StateClosed:
		if cb.failureCount >= cb.cfg.FailureThreshold {
			next := now.Add(cb.cfg.ResetTimeout)
			cb.nextAttempt = &next
			cb.transition(StateOpen)
			logger.Warnf("circuit breaker %s OPENED after %d failures", cb.name, cb.failureCount)
		}
	}
}

// transition must be called with the lock held.
func (cb *CircuitBreaker) transition(to State) {
	from := cb.state
	if from == to {
		return
	}
	cb.state = to
	if cb.cfg.OnStateChange != nil {
		cb.cfg.OnStateChange(cb.name, from, to)
	}
}
