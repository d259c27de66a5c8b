package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/amishk599/staywatch/internal/model"
)

// Ensure RetryNotifier implements model.Notifier.
var _ model.Notifier = (*RetryNotifier)(nil)

// RetryNotifier is a decorator that retries transient delivery failures with
// exponential backoff and jitter before giving up.
type RetryNotifier struct {
	inner      model.Notifier
	maxRetries int
	baseDelay  time.Duration
	logger     *slog.Logger
}

// NewRetryNotifier wraps a Notifier with retry logic.
// maxRetries is the number of additional attempts after the first failure.
// baseDelay is the delay before the first retry, doubled on each subsequent retry.
func NewRetryNotifier(inner model.Notifier, maxRetries int, baseDelay time.Duration, logger *slog.Logger) *RetryNotifier {
	return &RetryNotifier{
		inner:      inner,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		logger:     logger,
	}
}

// Deliver attempts delivery, retrying on transient errors. The last error is
// returned unchanged so callers still see the *model.DeliveryError.
func (n *RetryNotifier) Deliver(ctx context.Context, text string) error {
	err := n.inner.Deliver(ctx, text)
	if err == nil || !isRetryable(err) {
		return err
	}

	lastErr := err
	for attempt := 1; attempt <= n.maxRetries; attempt++ {
		delay := n.backoffDelay(attempt, lastErr)
		n.logger.Warn("retrying delivery after transient error",
			"attempt", attempt,
			"max_retries", n.maxRetries,
			"delay", delay,
			"error", lastErr,
		)

		select {
		case <-ctx.Done():
			return fmt.Errorf("retry cancelled: %w", errors.Join(ctx.Err(), lastErr))
		case <-time.After(delay):
		}

		err = n.inner.Deliver(ctx, text)
		if err == nil {
			return nil
		}
		if !isRetryable(err) {
			return err
		}
		lastErr = err
	}

	return lastErr
}

// backoffDelay computes the delay for a given attempt with ±30% jitter.
// If the error includes a Retry-After duration (HTTP 429), that takes precedence.
func (n *RetryNotifier) backoffDelay(attempt int, err error) time.Duration {
	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) && httpErr.RetryAfter > 0 {
		return httpErr.RetryAfter
	}

	// Exponential: baseDelay * 2^(attempt-1)
	delay := n.baseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
	}

	// Apply ±30% jitter
	jitter := float64(delay) * 0.3
	delay = time.Duration(float64(delay) + (rand.Float64()*2-1)*jitter)
	return delay
}

// isRetryable returns true if the error represents a transient failure worth retrying.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	// Context cancellation: never retry.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) {
		// 429 Too Many Requests and 5xx are retryable; other 4xx are not.
		return httpErr.StatusCode == 429 || httpErr.StatusCode >= 500
	}

	// Non-HTTP errors (network, DNS, etc.) are retryable.
	return true
}
