// Package orchestrator implements the rollout engine's core: diffing a
// fleet against a desired version, planning batches, driving each
// instance through the retry/timeout wrapper, evaluating the failure
// threshold after every batch, and rolling back to a pre-deployment
// snapshot on an abort.
package orchestrator

import (
	"context"
	"fmt"
	"sync"

	"rollout.sh/internal/executor"
	"rollout.sh/internal/planner"
	"rollout.sh/internal/rollback"
	"rollout.sh/internal/rollerr"
	"rollout.sh/internal/rolloutmodel"
)

// Recorder observes a deployment as it runs without altering its outcome.
// internal/metrics implements this; nil is a valid no-op observer.
type Recorder interface {
	BatchStarted(batch, size int)
	BatchCompleted(batch, updated, failed int)
	InstanceUpdated()
	InstanceFailed()
	Aborted(reason string)
	DeploymentFinished(success bool)
}

// Orchestrator drives deployments against a fleet of instances.
type Orchestrator struct {
	Executor executor.Executor
	Metrics  Recorder
}

// New builds an Orchestrator with the given update executor.
func New(exec executor.Executor) *Orchestrator {
	return &Orchestrator{Executor: exec}
}

// Deploy drives instances toward (desiredCode, desiredConfig) under cfg,
// recording current's converged version and guarding re-entrancy through
// current's deployment-in-progress latch (spec §4.4).
// batch_size is validated only where batches are actually planned (Phase
// D), not at entry: a dry run or a no-op deploy can still succeed with an
// invalid batch_size, since neither ever reaches the planner. This
// matches the original engine's behavior, which raises the config error
// from plan_batches alone (see DESIGN.md, Open Question 1).
func (o *Orchestrator) Deploy(ctx context.Context, instances []*rolloutmodel.InstanceState, current *rolloutmodel.SystemState, desiredCode, desiredConfig string, cfg rolloutmodel.DeploymentConfig, dryRun bool) (*rolloutmodel.DeploymentResult, error) {
	if current.DeploymentInProgress() {
		return nil, rollerr.New(rollerr.CodeConcurrentDeployment, "a deployment is already in progress for this fleet")
	}

	snapshotView := toValues(instances)
	toUpdate := planner.Diff(snapshotView, desiredCode, desiredConfig)

	// Skipped is the complement of to_update — instances already at the
	// desired version — and is set once here, before branching on
	// dry_run/no-op, so it holds on every return path (spec §4.4 Phase A;
	// see _examples/original_source/deployment_engine/engine.py:256-257).
	result := &rolloutmodel.DeploymentResult{
		RunID:          rolloutmodel.NewRunID(),
		Skipped:        alreadyMatchingIDs(snapshotView, toUpdate),
		PerNodeHistory: make(map[string][]rolloutmodel.Event),
	}

	if dryRun {
		result.Success = true
		result.History = append(result.History, rolloutmodel.NewEvent("dry_run", "instances_planned", len(toUpdate)))
		return result, nil
	}

	if len(toUpdate) == 0 {
		result.Success = true
		result.History = append(result.History, rolloutmodel.NewEvent("no_updates_needed", "count", 0))
		current.SetVersions(desiredCode, desiredConfig)
		return result, nil
	}

	// The dry-run and no-op paths return above without ever setting the
	// deployment-in-progress latch. A mutating deployment sets it here with
	// an atomic check-and-set, so a caller that raced past the entry check
	// is still rejected before any instance is mutated.
	if !current.TryBeginDeployment() {
		return nil, rollerr.New(rollerr.CodeConcurrentDeployment, "a deployment is already in progress for this fleet")
	}
	defer current.EndDeployment()

	snapshot := rolloutmodel.Capture(snapshotView)

	batches, err := planner.PlanBatches(toUpdate, cfg.BatchSize)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*rolloutmodel.InstanceState, len(instances))
	for _, inst := range instances {
		byID[inst.InstanceID] = inst
	}

	var failedSoFar, updatedSoFar []string

	for batchNum, batch := range batches {
		result.History = append(result.History, rolloutmodel.NewEvent("batch_start", "batch", batchNum, "nodes", len(batch)))
		if o.Metrics != nil {
			o.Metrics.BatchStarted(batchNum, len(batch))
		}

		outcomes := o.runBatch(ctx, batch, desiredCode, desiredConfig, cfg, byID)

		for _, oc := range outcomes {
			var ev rolloutmodel.Event
			if oc.ok {
				updatedSoFar = append(updatedSoFar, oc.instanceID)
				ev = rolloutmodel.NewEvent("updated", "batch", batchNum)
				if o.Metrics != nil {
					o.Metrics.InstanceUpdated()
				}
			} else {
				failedSoFar = append(failedSoFar, oc.instanceID)
				ev = rolloutmodel.NewEvent("failed", "batch", batchNum, "error", oc.reason)
				if o.Metrics != nil {
					o.Metrics.InstanceFailed()
				}
			}
			result.PerNodeHistory[oc.instanceID] = append(result.PerNodeHistory[oc.instanceID], ev)
		}

		if breached, reason := checkFailureLimits(len(toUpdate), len(failedSoFar), cfg); breached {
			result.History = append(result.History, rolloutmodel.NewEvent("abort",
				"reason", reason, "failed_count", len(failedSoFar), "total_count", len(toUpdate)))
			if o.Metrics != nil {
				o.Metrics.Aborted(reason)
			}

			rollback.Execute(ctx, instances, snapshot, cfg.BatchSize)

			result.AbortedReason = reason
			result.RolledBack = true
			result.Updated = nil
			result.Failed = failedSoFar
			result.Success = false
			if o.Metrics != nil {
				o.Metrics.DeploymentFinished(false)
			}
			return result, nil
		}

		result.History = append(result.History, rolloutmodel.NewEvent("batch_completed",
			"batch", batchNum, "updated_so_far", len(updatedSoFar), "failed_so_far", len(failedSoFar)))
	}

	result.Updated = updatedSoFar
	result.Failed = failedSoFar
	result.Success = len(failedSoFar) == 0
	current.SetVersions(desiredCode, desiredConfig)

	if o.Metrics != nil {
		o.Metrics.DeploymentFinished(result.Success)
	}

	return result, nil
}

// runBatch fans out one goroutine per instance in the batch, bounded by
// the batch itself (batch size is already the concurrency bound per spec
// §5), and joins before returning — no result is observed until the
// whole batch settles.
func (o *Orchestrator) runBatch(ctx context.Context, batch []rolloutmodel.InstanceState, desiredCode, desiredConfig string, cfg rolloutmodel.DeploymentConfig, byID map[string]*rolloutmodel.InstanceState) []updateOutcome {
	outcomes := make([]updateOutcome, len(batch))
	var wg sync.WaitGroup

	for i, inst := range batch {
		i, inst := i, inst
		wg.Add(1)
		go func() {
			defer wg.Done()
			target := byID[inst.InstanceID]
			outcomes[i] = updateInstance(ctx, target, desiredCode, desiredConfig, cfg, o.Executor)
		}()
	}

	wg.Wait()
	return outcomes
}

// checkFailureLimits evaluates the threshold evaluator of spec §4.5: a
// breach requires failures, and is strict on both configured limits.
func checkFailureLimits(total, failed int, cfg rolloutmodel.DeploymentConfig) (bool, string) {
	if total == 0 || failed == 0 {
		return false, ""
	}
	if cfg.MaxFailures != nil && failed > *cfg.MaxFailures {
		return true, fmt.Sprintf("failed count %d exceeds max_failures %d", failed, *cfg.MaxFailures)
	}
	if cfg.FailurePercentage != nil {
		pct := float64(failed) / float64(total) * 100
		if pct > *cfg.FailurePercentage {
			return true, fmt.Sprintf("failure percentage %.2f exceeds threshold %.2f", pct, *cfg.FailurePercentage)
		}
	}
	return false, ""
}

func toValues(instances []*rolloutmodel.InstanceState) []rolloutmodel.InstanceState {
	out := make([]rolloutmodel.InstanceState, len(instances))
	for i, inst := range instances {
		out[i] = *inst
	}
	return out
}

// alreadyMatchingIDs returns the instance IDs in all that are not present
// in toUpdate, i.e. the instances the diff step found already at the
// desired version.
func alreadyMatchingIDs(all, toUpdate []rolloutmodel.InstanceState) []string {
	selected := make(map[string]struct{}, len(toUpdate))
	for _, inst := range toUpdate {
		selected[inst.InstanceID] = struct{}{}
	}
	out := make([]string, 0, len(all)-len(toUpdate))
	for _, inst := range all {
		if _, ok := selected[inst.InstanceID]; !ok {
			out = append(out, inst.InstanceID)
		}
	}
	return out
}
