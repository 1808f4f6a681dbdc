// Package planner splits the set of instances needing an update into
// fixed-size, ordered batches.
package planner

import (
	"rollout.sh/internal/rollerr"
	"rollout.sh/internal/rolloutmodel"
)

// Diff returns the instances whose code or configuration version does not
// match the desired versions, preserving input order.
func Diff(instances []rolloutmodel.InstanceState, desiredCode, desiredConfig string) []rolloutmodel.InstanceState {
	var out []rolloutmodel.InstanceState
	for _, inst := range instances {
		if inst.CodeVersion != desiredCode || inst.ConfigurationVersion != desiredConfig {
			out = append(out, inst)
		}
	}
	return out
}

// PlanBatches splits instances into consecutive batches of at most
// batchSize, preserving input order. batchSize must be positive.
func PlanBatches(instances []rolloutmodel.InstanceState, batchSize int) ([][]rolloutmodel.InstanceState, error) {
	if batchSize <= 0 {
		return nil, rollerr.Newf(rollerr.CodeConfig, "batch_size must be positive, got %d", batchSize)
	}
	if len(instances) == 0 {
		return nil, nil
	}

	var batches [][]rolloutmodel.InstanceState
	for start := 0; start < len(instances); start += batchSize {
		end := start + batchSize
		if end > len(instances) {
			end = len(instances)
		}
		batch := make([]rolloutmodel.InstanceState, end-start)
		copy(batch, instances[start:end])
		batches = append(batches, batch)
	}
	return batches, nil
}
