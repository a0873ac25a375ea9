package resilience

import (
	"context"
	stderrors "errors"
	"math/rand/v2"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v5"

	ghosterrors "github.com/ghost-mcp/ghost-mcp/pkg/errors"
)

// Retry policy defaults and bounds.
const (
	// DefaultMaxAttempts is the total number of attempts, including the first.
	DefaultMaxAttempts = 3

	baseRetryDelayMillis = 1000
	maxRetryDelayMillis  = 30000
	retryJitterFraction  = 0.3
)

// OnRetryFunc is invoked before each retry with the number of the attempt
// that just failed and its error.
type OnRetryFunc func(attempt int, err error)

type retryConfig struct {
	maxAttempts int
	onRetry     OnRetryFunc
}

// RetryOption customizes RetryWithBackoff.
type RetryOption func(*retryConfig)

// WithMaxAttempts sets the total attempt budget (first call included).
func WithMaxAttempts(n int) RetryOption {
	return func(c *retryConfig) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithOnRetry registers a hook invoked before every retry.
func WithOnRetry(fn OnRetryFunc) RetryOption {
	return func(c *retryConfig) {
		c.onRetry = fn
	}
}

// IsRetryable reports whether an error is worth retrying. Retryability is a
// property of the error kind, not the call site: rate limits and
// external-service failures (the GhostAPIError family included) are
// transient; transport-level faults are retried by errno; everything else —
// validation errors in particular — fails fast.
func IsRetryable(err error) bool {
	if ghosterrors.IsRateLimit(err) || ghosterrors.IsExternalService(err) {
		return true
	}
	return isTransportError(err)
}

func isTransportError(err error) bool {
	return stderrors.Is(err, syscall.ECONNREFUSED) ||
		stderrors.Is(err, syscall.ECONNRESET) ||
		stderrors.Is(err, syscall.ETIMEDOUT)
}

// GetRetryDelay returns the delay in milliseconds before the retry following
// the given failed attempt (1-based). Rate-limit errors dictate their own
// delay exactly; everything else gets exponential backoff capped at 30s with
// up to 30% jitter to avoid synchronized retry storms.
func GetRetryDelay(attempt int, err error) int {
	if e, ok := ghosterrors.As(err); ok && ghosterrors.IsRateLimit(err) {
		return e.RetryAfter * 1000
	}

	base := baseRetryDelayMillis
	for i := 1; i < attempt && base < maxRetryDelayMillis; i++ {
		base *= 2
	}
	if base > maxRetryDelayMillis {
		base = maxRetryDelayMillis
	}

	jitter := rand.IntN(int(retryJitterFraction*float64(base)) + 1)
	return base + jitter
}

// retryDelayPolicy adapts GetRetryDelay to the backoff.BackOff interface.
// The retry loop is strictly sequential, so recording the last attempt and
// error without locking is safe.
type retryDelayPolicy struct {
	attempt int
	lastErr error
}

func (p *retryDelayPolicy) NextBackOff() time.Duration {
	return time.Duration(GetRetryDelay(p.attempt, p.lastErr)) * time.Millisecond
}

func (p *retryDelayPolicy) Reset() {
	p.attempt = 0
	p.lastErr = nil
}

// RetryWithBackoff runs fn until it succeeds, a non-retryable error occurs,
// the attempt budget is exhausted, or ctx is cancelled. Backoff waits are
// suspension points driven by the context, so a caller-supplied deadline
// aborts the wait rather than letting it run out.
func RetryWithBackoff[T any](ctx context.Context, fn func(context.Context) (T, error), opts ...RetryOption) (T, error) {
	cfg := retryConfig{maxAttempts: DefaultMaxAttempts}
	for _, opt := range opts {
		opt(&cfg)
	}

	policy := &retryDelayPolicy{}

	operation := func() (T, error) {
		policy.attempt++
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		policy.lastErr = err
		if !IsRetryable(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}

	result, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(uint(cfg.maxAttempts)), // #nosec G115 -- bounded small positive value
		backoff.WithNotify(func(err error, _ time.Duration) {
			if cfg.onRetry != nil {
				cfg.onRetry(policy.attempt, err)
			}
		}),
	)
	if err != nil {
		// Surface the original error, not the retry library's wrapper.
		var permanent *backoff.PermanentError
		if stderrors.As(err, &permanent) {
			err = permanent.Unwrap()
		}
	}
	return result, err
}
