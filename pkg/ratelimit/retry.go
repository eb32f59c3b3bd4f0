package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Max429Retries and MaxServerErrorRetries bound the two distinct retry
// ladders an LLM HTTP call may walk (§5): a 429 retries up to
// Max429Retries times honoring each response's retry-after, while a 5xx
// retries up to MaxServerErrorRetries times under ordinary exponential
// backoff.
const (
	Max429Retries        = 5
	MaxServerErrorRetries = 3
)

// StatusError is the minimal shape RetryCall needs from an HTTP-calling
// fn: a status code classification, so this package stays independent
// of net/http.
type StatusError struct {
	StatusCode int
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return "ratelimit: upstream returned a retryable status"
}

// RetryCall invokes fn, which returns a *StatusError to signal a
// retryable condition (429 or 5xx) and any other error as terminal.
// 429s are handled via l.Handle429 honoring the response's retry-after,
// bounded at Max429Retries and tracked independently of the 5xx ladder;
// 5xx responses are retried under exponential backoff via
// cenkalti/backoff, bounded at MaxServerErrorRetries. The two counters
// are independent: a call that alternates between 429 and 5xx responses
// gets the full budget of each.
func (l *Limiter) RetryCall(ctx context.Context, fn func() error) error {
	retries429 := 0
	serverErrorRetries := 0
	serverErrorBackoff := backoff.NewExponentialBackOff()

	for {
		err := fn()
		if err == nil {
			return nil
		}

		var statusErr *StatusError
		if !errors.As(err, &statusErr) {
			return err
		}

		switch {
		case statusErr.StatusCode == 429:
			if retries429 >= Max429Retries {
				return err
			}
			retries429++
			if waitErr := l.Handle429(ctx, statusErr.RetryAfter); waitErr != nil {
				return waitErr
			}

		case statusErr.StatusCode >= 500:
			if serverErrorRetries >= MaxServerErrorRetries {
				return err
			}
			serverErrorRetries++
			timer := time.NewTimer(serverErrorBackoff.NextBackOff())
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}

		default:
			return err
		}
	}
}
