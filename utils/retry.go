package utils

import (
	"fmt"
	"time"
)

// RetryConfig retries flaky remote operations (page navigations, mostly)
// with doubling delays. Attempts are counted, not timed; the caller's
// context timeout is the overall bound.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Logger      *Logger
}

// Do runs fn until it succeeds or the attempt budget is spent. The name
// only labels log lines and the final error.
func (r *RetryConfig) Do(name string, fn func() error) error {
	delay := r.BaseDelay

	var err error
	for attempt := 1; ; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt >= r.MaxAttempts {
			break
		}

		r.Logger.Warn("[retry] %s (attempt %d/%d): %v — next try in %v",
			name, attempt, r.MaxAttempts, err, delay)
		time.Sleep(delay)
		delay *= 2
	}

	return fmt.Errorf("%s failed after %d attempts: %w", name, r.MaxAttempts, err)
}
