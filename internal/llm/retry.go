package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"azusena/internal/contextutil"
)

const (
	defaultBaseDelay = 500 * time.Millisecond
	maxDelay         = 8 * time.Second
)

// StatusError is returned when the backend answers with a non-200 status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("bad status %d: %s", e.Code, e.Body)
}

// Retryable reports whether the status is worth another attempt.
func (e *StatusError) Retryable() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= http.StatusInternalServerError
}

// caller applies rate limiting and bounded retries to backend calls.
type caller struct {
	limiter    *rate.Limiter
	maxRetries int
	baseDelay  time.Duration
}

func newCaller(opts Options) *caller {
	c := &caller{
		maxRetries: max(opts.MaxRetries, 0),
		baseDelay:  opts.BaseDelay,
	}
	if c.baseDelay <= 0 {
		c.baseDelay = defaultBaseDelay
	}
	if opts.RateLimit > 0 {
		burst := int(math.Max(1, math.Ceil(opts.RateLimit)))
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return c
}

// do runs fn until it succeeds, fails with a permanent error, or retries run out.
func (c *caller) do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	logger := contextutil.LoggerFromContext(ctx)

	var err error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.backoff(attempt)
			logger.WarnContext(ctx, "retrying backend call", "op", op, "attempt", attempt, "delay", delay, "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		if c.limiter != nil {
			if werr := c.limiter.Wait(ctx); werr != nil {
				return fmt.Errorf("rate limiter: %w", werr)
			}
		}

		err = fn(ctx)
		if err == nil || !retryable(ctx, err) {
			return err
		}
	}
	return err
}

func (c *caller) backoff(attempt int) time.Duration {
	if attempt > 16 {
		return maxDelay
	}
	d := c.baseDelay << (attempt - 1)
	if d <= 0 || d > maxDelay {
		return maxDelay
	}
	return d
}

// retryable treats transport failures and 429/5xx responses as transient.
// Cancellation of the caller's context is final.
func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Retryable()
	}
	var permanent *permanentError
	return !errors.As(err, &permanent)
}

// permanentError marks failures that another attempt cannot fix, such as
// an undecodable response.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

func permanent(err error) error {
	return &permanentError{err: err}
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}
