package model

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrCorruptStore means persisted seen state exists but cannot be parsed.
	ErrCorruptStore = errors.New("seen store is corrupt")

	// ErrMissingCredentials means a notifier was configured without the
	// credentials it needs to deliver anything.
	ErrMissingCredentials = errors.New("missing delivery credentials")

	// ErrPassInProgress is returned when a pass for the same site is already running.
	ErrPassInProgress = errors.New("pass already in progress")
)

// HTTPError wraps an HTTP status code so retry logic can inspect it.
type HTTPError struct {
	StatusCode int
	RetryAfter time.Duration // from Retry-After header, zero if absent
	Body       string
	Err        error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("HTTP %d: %v", e.StatusCode, e.Err)
	}
	if e.Body != "" {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// DeliveryError reports that a notifier could not deliver a message.
// The listing behind the message must not be marked as seen.
type DeliveryError struct {
	Channel string
	Err     error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("%s delivery failed: %v", e.Channel, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// BlockedError reports that a site served an anti-automation page instead
// of results.
type BlockedError struct {
	Site   string
	Marker string // the vocabulary entry found in the page
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("%s: blocked (matched %q)", e.Site, e.Marker)
}

// IsBlocked reports whether err is or wraps a *BlockedError.
func IsBlocked(err error) bool {
	var b *BlockedError
	return errors.As(err, &b)
}
