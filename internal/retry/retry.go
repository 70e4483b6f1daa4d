package retry

import (
	"context"
	"time"

	"github.com/kestrelhq/sessionvault/internal/errkind"
)

// Do runs op up to attempts times, sleeping attempt × base between tries.
// Non-transient errors abort immediately. The last error is returned when
// the budget is exhausted.
func Do(ctx context.Context, attempts int, base time.Duration, op func(ctx context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return lastErr
			}
			return err
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if !errkind.Retryable(lastErr) {
			return lastErr
		}
		if attempt == attempts {
			break
		}

		delay := time.Duration(attempt) * base
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return lastErr
		case <-timer.C:
		}
	}

	return lastErr
}
