package images

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"
)

// ErrImageUnavailable wraps every failure to produce an image. Callers
// treat it as non-fatal.
var ErrImageUnavailable = errors.New("image unavailable")

// RetryableError indicates a transient remote failure (429 or 5xx).
type RetryableError struct {
	StatusCode int
	URL        string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, e.URL)
}

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var retryErr *RetryableError
	return errors.As(err, &retryErr)
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * 250 * time.Millisecond
	if base > 4*time.Second {
		base = 4 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}

const MaxRetries = 3
