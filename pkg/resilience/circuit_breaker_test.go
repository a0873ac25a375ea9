package resilience

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errUpstream = errors.New("upstream failed")

func failingCall(_ context.Context) error { return errUpstream }
func passingCall(_ context.Context) error { return nil }

func TestCircuitBreakerInitialState(t *testing.T) {
	t.Parallel()

	cb := NewCircuitBreaker("ghost", Config{})
	snap := cb.GetState()

	assert.Equal(t, StateClosed, snap.State)
	assert.Equal(t, 0, snap.FailureCount)
	assert.Nil(t, snap.LastFailureTime)
	assert.Nil(t, snap.NextAttempt)
}

func TestCircuitBreakerDefaults(t *testing.T) {
	t.Parallel()

	cfg := Config{}.withDefaults()

	assert.Equal(t, 5, cfg.FailureThreshold)
	assert.Equal(t, 60*time.Second, cfg.ResetTimeout)
	assert.Equal(t, 10*time.Second, cfg.MonitoringPeriod)
}

func TestCircuitBreakerOpensAtThreshold(t *testing.T) {
	t.Parallel()

	cb := NewCircuitBreaker("ghost", Config{FailureThreshold: 3, ResetTimeout: time.Minute})

	calls := 0
	fail := func(_ context.Context) error {
		calls++
		return errUpstream
	}

	for i := 0; i < 3; i++ {
		err := cb.Execute(context.Background(), fail)
		require.ErrorIs(t, err, errUpstream)
	}

	snap := cb.GetState()
	assert.Equal(t, StateOpen, snap.State)
	assert.Equal(t, 3, snap.FailureCount)
	require.NotNil(t, snap.LastFailureTime)
	require.NotNil(t, snap.NextAttempt)

	// A fourth call is rejected without invoking the wrapped function.
	err := cb.Execute(context.Background(), fail)
	assert.ErrorIs(t, err, ErrOpen)
	assert.Equal(t, 3, calls)
}

func TestCircuitBreakerStaysClosedBelowThreshold(t *testing.T) {
	t.Parallel()

	cb := NewCircuitBreaker("ghost", Config{FailureThreshold: 3, ResetTimeout: time.Minute})

	require.Error(t, cb.Execute(context.Background(), failingCall))
	require.Error(t, cb.Execute(context.Background(), failingCall))

	snap := cb.GetState()
	assert.Equal(t, StateClosed, snap.State)
	assert.Equal(t, 2, snap.FailureCount)
}

func TestCircuitBreakerSuccessInClosedKeepsCount(t *testing.T) {
	t.Parallel()

	cb := NewCircuitBreaker("ghost", Config{FailureThreshold: 3, ResetTimeout: time.Minute})

	require.Error(t, cb.Execute(context.Background(), failingCall))
	require.NoError(t, cb.Execute(context.Background(), passingCall))

	snap := cb.GetState()
	assert.Equal(t, StateClosed, snap.State)
	assert.Equal(t, 1, snap.FailureCount)
}

func TestCircuitBreakerRecoversAfterResetTimeout(t *testing.T) {
	t.Parallel()

	cb := NewCircuitBreaker("ghost", Config{FailureThreshold: 2, ResetTimeout: 50 * time.Millisecond})

	require.Error(t, cb.Execute(context.Background(), failingCall))
	require.Error(t, cb.Execute(context.Background(), failingCall))
	require.Equal(t, StateOpen, cb.GetState().State)

	time.Sleep(80 * time.Millisecond)

	// Past the deadline, the next call is a half-open trial; its success
	// fully resets the breaker.
	require.NoError(t, cb.Execute(context.Background(), passingCall))

	snap := cb.GetState()
	assert.Equal(t, StateClosed, snap.State)
	assert.Equal(t, 0, snap.FailureCount)
	assert.Nil(t, snap.LastFailureTime)
	assert.Nil(t, snap.NextAttempt)
}

func TestCircuitBreakerFailedTrialReopens(t *testing.T) {
	t.Parallel()

	cb := NewCircuitBreaker("ghost", Config{FailureThreshold: 2, ResetTimeout: 50 * time.Millisecond})

	require.Error(t, cb.Execute(context.Background(), failingCall))
	require.Error(t, cb.Execute(context.Background(), failingCall))

	time.Sleep(80 * time.Millisecond)

	require.ErrorIs(t, cb.Execute(context.Background(), failingCall), errUpstream)

	snap := cb.GetState()
	assert.Equal(t, StateOpen, snap.State)
	require.NotNil(t, snap.NextAttempt)
	assert.True(t, snap.NextAttempt.After(time.Now()))

	// Still rejecting while the new window is in effect.
	assert.ErrorIs(t, cb.Execute(context.Background(), passingCall), ErrOpen)
}

func TestCircuitBreakerSingleHalfOpenTrial(t *testing.T) {
	t.Parallel()

	cb := NewCircuitBreaker("ghost", Config{FailureThreshold: 1, ResetTimeout: 30 * time.Millisecond})

	require.Error(t, cb.Execute(context.Background(), failingCall))
	time.Sleep(50 * time.Millisecond)

	release := make(chan struct{})
	trialStarted := make(chan struct{})

	go func() {
		_ = cb.Execute(context.Background(), func(_ context.Context) error {
			close(trialStarted)
			<-release
			return nil
		})
	}()

	<-trialStarted
	// While the trial is in flight, other callers are rejected.
	assert.ErrorIs(t, cb.Execute(context.Background(), passingCall), ErrOpen)
	close(release)
}

func TestCircuitBreakerConcurrentFailures(t *testing.T) {
	t.Parallel()

	cb := NewCircuitBreaker("ghost", Config{FailureThreshold: 100, ResetTimeout: time.Minute})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = cb.Execute(context.Background(), failingCall)
		}()
	}
	wg.Wait()

	// Every failure is counted exactly once.
	assert.Equal(t, 50, cb.GetState().FailureCount)
	assert.Equal(t, StateClosed, cb.GetState().State)
}

func TestCircuitBreakerOnStateChange(t *testing.T) {
	t.Parallel()

	type change struct{ from, to State }
	var changes []change

	cb := NewCircuitBreaker("ghost", Config{
		FailureThreshold: 1,
		ResetTimeout:     20 * time.Millisecond,
		OnStateChange: func(_ string, from, to State) {
			changes = append(changes, change{from, to})
		},
	})

	require.Error(t, cb.Execute(context.Background(), failingCall))
	time.Sleep(40 * time.Millisecond)
	require.NoError(t, cb.Execute(context.Background(), passingCall))

	require.Len(t, changes, 3)
	assert.Equal(t, change{StateClosed, StateOpen}, changes[0])
	assert.Equal(t, change{StateOpen, StateHalfOpen}, changes[1])
	assert.Equal(t, change{StateHalfOpen, StateClosed}, changes[2])
}

func TestExecuteValue(t *testing.T) {
	t.Parallel()

	cb := NewCircuitBreaker("ghost", Config{FailureThreshold: 1, ResetTimeout: time.Minute})

	v, err := ExecuteValue(context.Background(), cb, func(_ context.Context) (string, error) {
		return "post-1", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "post-1", v)

	_, err = ExecuteValue(context.Background(), cb, func(_ context.Context) (string, error) {
		return "", errUpstream
	})
	require.ErrorIs(t, err, errUpstream)

	// Breaker is now open; the function must not run.
	_, err = ExecuteValue(context.Background(), cb, func(_ context.Context) (string, error) {
		t.Fatal("should not be called")
		return "", nil
	})
	assert.ErrorIs(t, err, ErrOpen)
}
