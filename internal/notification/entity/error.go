package entity

import "errors"

var (
	// ErrRateLimitExceeded blocks creation of a notification.
	ErrRateLimitExceeded = errors.New("notification: rate limit exceeded")

	// ErrDuplicateSuppressed marks a notification skipped inside its dedup window.
	ErrDuplicateSuppressed = errors.New("notification: duplicate suppressed")

	ErrUnmappedEventType = errors.New("notification: unmapped event type")

	ErrUnknownNotificationType = errors.New("notification: unknown notification type")

	// ErrRetryExhausted is logged when a pending item is dropped after its last attempt.
	ErrRetryExhausted = errors.New("notification: retry exhausted")

	// ErrDeliveryFailed means no enabled channel succeeded.
	ErrDeliveryFailed = errors.New("notification: all channels failed")

	ErrNoDeliveryChannel = errors.New("notification: no delivery channel enabled")

	ErrEmailNotFound = errors.New("notification: recipient has no email")
)
