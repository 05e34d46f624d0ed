package utils

import (
	"context"
	"time"

	"finance_tracker/internal/domain"

	"github.com/sirupsen/logrus"
)

// RetryPolicy retries transient storage failures with exponential backoff.
// Only errors for which domain.IsRetryable is true are retried; everything else returns at once.
type RetryPolicy struct {
	MaxAttempts int           // Total attempts, including the first
	BaseDelay   time.Duration // Delay before the second attempt; doubles afterwards
	Log         logrus.FieldLogger
}

// DefaultRetryPolicy mirrors the three attempts the storage layer has always used
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: 200 * time.Millisecond}
}

// Delay returns the pause before attempt n+1 (n counts from 1)
func (p RetryPolicy) Delay(n int) time.Duration {
	return p.BaseDelay << (n - 1)
}

// Do runs fn until it succeeds, fails with a non-retryable error, or attempts run out
func (p RetryPolicy) Do(ctx context.Context, op string, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for n := 1; n <= attempts; n++ {
		if err = fn(); err == nil || !domain.IsRetryable(err) {
			return err
		}
		if n == attempts {
			break
		}
		delay := p.Delay(n)
		if p.Log != nil {
			p.Log.WithFields(logrus.Fields{
				"op":      op,             // Operation name
				"attempt": n,              // Failed attempt number
				"delay":   delay.String(), // Pause before next attempt
				"error":   err.Error(),    // Error message
			}).Warn("Storage operation failed, retrying")
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
	}
	return err
}
