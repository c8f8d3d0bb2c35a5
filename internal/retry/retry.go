// Package retry provides the shared retry policy applied to all collaborator
// calls (embedding, vector search, generation). Transient failures are retried
// with exponential backoff; permanent failures fail immediately.
package retry

import (
	"context"
	"errors"
	"net"
	"time"

	retrygo "github.com/avast/retry-go/v4"

	"reportqa/internal/contextutil"
)

// Policy configures retry behavior for collaborator calls.
type Policy struct {
	// Attempts is the total number of attempts, including the first.
	Attempts uint
	// BaseDelay is the initial backoff delay; subsequent delays grow exponentially.
	BaseDelay time.Duration
	// MaxDelay caps the backoff delay between attempts.
	MaxDelay time.Duration
	// Timeout bounds each individual attempt. Zero means no per-attempt timeout.
	Timeout time.Duration
}

// DefaultPolicy returns the policy used when configuration does not override it.
func DefaultPolicy() Policy {
	return Policy{
		Attempts:  3,
		BaseDelay: 500 * time.Millisecond,
		MaxDelay:  2 * time.Second,
		Timeout:   30 * time.Second,
	}
}

// transientError marks an error as retryable.
type transientError struct {
	err error
}

func (e *transientError) Error() string {
	return e.err.Error()
}

func (e *transientError) Unwrap() error {
	return e.err
}

// MarkTransient wraps err so the retry policy will retry it.
// Collaborator clients call this for timeouts, connection failures and
// 5xx-equivalent responses. Nil stays nil.
func MarkTransient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// IsTransient reports whether err should be retried. Errors explicitly marked
// with MarkTransient, network timeouts and deadline expirations qualify;
// everything else (auth failures, malformed requests) is permanent.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var marked *transientError
	if errors.As(err, &marked) {
		return true
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var opErr *net.OpError
	return errors.As(err, &opErr)
}

// Do runs op under the policy. Each attempt gets its own timeout context; a
// timed-out attempt counts as a failed attempt. The last error is returned
// once attempts are exhausted, with the transient marker stripped.
func Do(ctx context.Context, policy Policy, op func(ctx context.Context) error) error {
	logger := contextutil.LoggerFromContext(ctx)

	attempts := policy.Attempts
	if attempts == 0 {
		attempts = 1
	}

	err := retrygo.Do(
		func() error {
			attemptCtx := ctx
			if policy.Timeout > 0 {
				var cancel context.CancelFunc
				attemptCtx, cancel = context.WithTimeout(ctx, policy.Timeout)
				defer cancel()
			}
			return op(attemptCtx)
		},
		retrygo.Context(ctx),
		retrygo.Attempts(attempts),
		retrygo.Delay(policy.BaseDelay),
		retrygo.MaxDelay(policy.MaxDelay),
		retrygo.DelayType(retrygo.BackOffDelay),
		retrygo.LastErrorOnly(true),
		retrygo.RetryIf(IsTransient),
		retrygo.OnRetry(func(n uint, err error) {
			logger.WarnContext(ctx, "retrying collaborator call", "attempt", n+1, "error", err)
		}),
	)
	return unmark(err)
}

// unmark strips the transient wrapper so callers see the underlying error.
func unmark(err error) error {
	var marked *transientError
	if errors.As(err, &marked) {
		return marked.err
	}
	return err
}
