// Package retry provides a bounded retry-with-backoff combinator used by
// every remote operation against the target directory service. It replaces
// per-call-site retry loops with one policy applied uniformly.
package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/teamdir/groupsync/pkg/constants"
	"github.com/teamdir/groupsync/pkg/errors"
	"github.com/teamdir/groupsync/pkg/logging"
)

// Policy bounds a retried operation: how many attempts and the base delay.
// The delay between attempt n and n+1 is Delay×n, matching the target
// service's documented backoff guidance.
type Policy struct {
	Attempts int
	Delay    time.Duration

	// Clock is used to sleep between attempts. Nil means the real clock.
	Clock clockwork.Clock
}

// DefaultPolicy returns the policy used for target-service calls.
func DefaultPolicy() Policy {
	return Policy{
		Attempts: constants.MaxRetries,
		Delay:    constants.RetryDelay,
	}
}

// WithClock returns a copy of the policy using the given clock.
func (p Policy) WithClock(clock clockwork.Clock) Policy {
	p.Clock = clock
	return p
}

// Do runs op until it succeeds, the policy's attempts are exhausted, or ctx
// is canceled. The returned error wraps both the last failure and
// errors.ErrRetriesExhausted when every attempt failed.
func Do(ctx context.Context, policy Policy, op func(ctx context.Context) error) error {
	clock := policy.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	attempts := policy.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if !Retryable(lastErr) {
			return lastErr
		}
		if attempt == attempts {
			break
		}

		delay := policy.Delay * time.Duration(attempt)
		logging.FromContext(ctx).Warn().
			Err(lastErr).
			Int("attempt", attempt).
			Int("max_attempts", attempts).
			Dur("delay", delay).
			Msg("remote operation failed, retrying")

		select {
		case <-clock.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", errors.ErrRetriesExhausted, attempts, lastErr)
}

// Retryable reports whether an error is worth retrying. Client-side mistakes
// (validation, malformed requests) fail immediately; transient server and
// network conditions retry.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *errors.APIError
	if errors.As(err, &apiErr) {
		// 4xx responses other than 408 and 429 will not get better on retry.
		if apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 &&
			apiErr.StatusCode != 408 && apiErr.StatusCode != 429 {
			return false
		}
	}
	return true
}
