// Package retry runs exchange calls with jittered exponential backoff.
//
// The gateway never retries on its own; callers that can tolerate a repeated
// request (quote polling, relationship lookups) wrap the call in Do.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/rickgao/tickplant/internal/api"
)

// Defaults for Policy.
const (
	DefaultAttempts   = 3
	DefaultBackoff    = 500 * time.Millisecond
	DefaultMaxBackoff = 10 * time.Second
)

// Policy controls how many times and how patiently Do retries.
type Policy struct {
	Attempts   int           // Total attempts including the first
	Backoff    time.Duration // Base wait before the second attempt
	MaxBackoff time.Duration // Cap on the doubled wait

	// Retryable overrides the default error classification when set.
	Retryable func(error) bool

	Logger *slog.Logger
}

// DefaultPolicy returns a Policy with package defaults.
func DefaultPolicy() Policy {
	return Policy{
		Attempts:   DefaultAttempts,
		Backoff:    DefaultBackoff,
		MaxBackoff: DefaultMaxBackoff,
	}
}

// IsRetryable reports whether err is worth another attempt: an expired or
// rejected session (including on order placement), a 5xx/429 response, or
// a transport failure. Other order rejections, other 4xx responses and
// context cancellation are final.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, api.ErrPageLimit) {
		return false
	}

	if errors.Is(err, api.ErrUnauthorized) {
		return true
	}

	var placeErr *api.OrderPlaceError
	if errors.As(err, &placeErr) {
		return false
	}

	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsRetryable()
	}

	return true
}

// Do calls fn until it succeeds, returns a non-retryable error, or the
// attempts run out.
func Do(ctx context.Context, p Policy, op string, fn func(ctx context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = IsRetryable
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var lastErr error
	backoff := p.Backoff

	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			wait := jitter(backoff)
			logger.Debug("retrying call",
				"op", op,
				"attempt", attempt+1,
				"backoff", wait,
				"error", lastErr,
			)

			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}

			backoff *= 2
			if p.MaxBackoff > 0 && backoff > p.MaxBackoff {
				backoff = p.MaxBackoff
			}
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !retryable(err) {
			return err
		}
	}

	if attempts == 1 {
		return lastErr
	}
	return fmt.Errorf("%s: max retries exceeded: %w", op, lastErr)
}

// jitter spreads d over [d/2, 3d/2).
func jitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d/2 + time.Duration(rand.Int64N(int64(d)))
}
