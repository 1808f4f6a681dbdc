package orchestrator

import (
	"time"

	"rollout.sh/internal/retry"
)

// retryDelay is the deterministic, unjittered backoff between instance
// update attempts (spec §4.3): min(2^(attempt-1) * base, 30s). Unlike the
// jittered retry.Backoff helper, the instance retry
// loop must be reproducible in tests, so no jitter is applied here.
func retryDelay(attempt int, base time.Duration) time.Duration {
	return retry.ExponentialDelay(attempt, base)
}
