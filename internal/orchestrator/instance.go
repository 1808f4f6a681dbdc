package orchestrator

import (
	"context"
	"log/slog"
	"time"

	"rollout.sh/internal/executor"
	"rollout.sh/internal/rolloutmodel"
)

// updateOutcome is the terminal result of driving a single instance
// through the retry/timeout wrapper.
type updateOutcome struct {
	instanceID string
	ok         bool
	reason     string
}

// updateInstance drives one instance through the retry/timeout state
// machine of spec §4.3: ATTEMPT -> success -> DONE_OK(healthy); failure
// with retries left -> DEGRADED, sleep the deterministic backoff, ATTEMPT
// again; failure on the final attempt, or a timeout at any attempt ->
// DONE_FAIL(failed).
//
// If cfg.TimeoutS is set, the whole call (all attempts) is bounded by a
// single context deadline; a timeout mid-retry ends the instance as
// failed immediately, it does not get to retry further.
func updateInstance(ctx context.Context, inst *rolloutmodel.InstanceState, desiredCode, desiredConfig string, cfg rolloutmodel.DeploymentConfig, exec executor.Executor) updateOutcome {
	if cfg.TimeoutS != nil && *cfg.TimeoutS > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(*cfg.TimeoutS*float64(time.Second)))
		defer cancel()
	}

	maxAttempts := cfg.RetryMaxAttempts + 1
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	baseDelay := time.Duration(cfg.RetryBaseDelayS * float64(time.Second))

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		ok, reason, err := attemptOnce(ctx, exec, inst.InstanceID, desiredCode, desiredConfig)
		if err != nil {
			// Context deadline/cancellation during the attempt itself.
			inst.Health = rolloutmodel.HealthFailed
			slog.Warn("instance update timed out", "instance", inst.InstanceID, "attempt", attempt)
			return updateOutcome{instanceID: inst.InstanceID, ok: false, reason: "timeout"}
		}

		if ok {
			inst.CodeVersion = desiredCode
			inst.ConfigurationVersion = desiredConfig
			inst.Health = rolloutmodel.HealthHealthy
			return updateOutcome{instanceID: inst.InstanceID, ok: true}
		}

		if attempt == maxAttempts {
			inst.Health = rolloutmodel.HealthFailed
			return updateOutcome{instanceID: inst.InstanceID, ok: false, reason: reason}
		}

		inst.Health = rolloutmodel.HealthDegraded
		slog.Debug("instance update attempt failed, retrying", "instance", inst.InstanceID, "attempt", attempt, "reason", reason)

		delay := retryDelay(attempt, baseDelay)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			inst.Health = rolloutmodel.HealthFailed
			return updateOutcome{instanceID: inst.InstanceID, ok: false, reason: "timeout"}
		}
	}

	// Unreachable: the loop always returns by the final attempt.
	inst.Health = rolloutmodel.HealthFailed
	return updateOutcome{instanceID: inst.InstanceID, ok: false, reason: "exhausted"}
}

// attemptOnce runs a single update attempt, applying the executor's own
// delay first, and translates context expiry into an error so the caller
// can distinguish "executor said no" from "ran out of time".
func attemptOnce(ctx context.Context, exec executor.Executor, instanceID, desiredCode, desiredConfig string) (ok bool, reason string, timedOut error) {
	if d := exec.DelaySeconds(); d > 0 {
		select {
		case <-time.After(time.Duration(d * float64(time.Second))):
		case <-ctx.Done():
			return false, "", ctx.Err()
		}
	}

	if err := ctx.Err(); err != nil {
		return false, "", err
	}

	ok, reason, err := exec.Update(ctx, instanceID, desiredCode, desiredConfig)
	if err != nil {
		if ctx.Err() != nil {
			return false, "", ctx.Err()
		}
		return false, err.Error(), nil
	}
	return ok, reason, nil
}
