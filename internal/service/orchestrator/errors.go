package orchestrator

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrUnavailable means model credentials are absent; the endpoint cannot
	// serve chat turns but no state is corrupted.
	ErrUnavailable = errors.New("model service is not configured")

	// ErrInvalidMode rejects an unknown persona mode before any state is
	// touched.
	ErrInvalidMode = errors.New("invalid mode selected")

	// ErrUpstream wraps a failed or timed-out model call; retryable by the
	// user, never fatal to the process.
	ErrUpstream = errors.New("failed to generate response")
)

// QuotaError reports an exhausted daily quota with the window reset time.
type QuotaError struct {
	ResetAt time.Time
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("daily message limit reached, resets at %s", e.ResetAt.Format(time.Kitchen))
}

// ModerationError carries the human-readable rejection reason. The quota slot
// consumed before moderation stays spent.
type ModerationError struct {
	Reason string
}

func (e *ModerationError) Error() string {
	return e.Reason
}
