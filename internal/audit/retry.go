package audit

import (
	"context"
	"strings"
	"time"
)

// Outcome discriminates how a retried check terminated.
type Outcome string

// Retry outcomes.
const (
	OutcomeSucceeded        Outcome = "succeeded"
	OutcomeExhaustedRetries Outcome = "exhausted_retries"
	OutcomeNonRetryable     Outcome = "non_retryable"
)

// RetryPolicy bounds the retry loop around a Checker.
type RetryPolicy struct {
	// MaxRetries is the number of additional attempts after the first.
	MaxRetries int
	// Delay is the wait between consecutive attempts.
	Delay time.Duration
}

// Retryable reports whether a failure reason is worth another attempt.
// Invalid-shape and forbidden classifications exhaust immediately: the
// remote answer will not change without operator action.
func (p RetryPolicy) Retryable(reason string) bool {
	lower := strings.ToLower(reason)
	if strings.Contains(lower, "invalid") || strings.Contains(lower, "forbidden") {
		return false
	}
	return true
}

// CheckWithRetry runs checker repeatedly per policy and returns the last
// attempt's Result together with the loop's Outcome. It never returns an
// error; a canceled context ends the loop with the last failure.
func CheckWithRetry(ctx context.Context, checker Checker, target string, strategy Strategy, policy RetryPolicy) (Result, Outcome) {
	var result Result
	for attempt := 0; ; attempt++ {
		result = checker.Check(ctx, target, strategy)
		if result.Succeeded() {
			return result, OutcomeSucceeded
		}
		if !policy.Retryable(result.ErrorReason()) {
			return result, OutcomeNonRetryable
		}
		if attempt >= policy.MaxRetries {
			return result, OutcomeExhaustedRetries
		}
		if !sleep(ctx, policy.Delay) {
			return result, OutcomeExhaustedRetries
		}
	}
}

// sleep waits d unless ctx finishes first; it reports whether the full
// wait elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
