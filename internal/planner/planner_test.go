package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rollout.sh/internal/rolloutmodel"
)

func instances(ids ...string) []rolloutmodel.InstanceState {
	out := make([]rolloutmodel.InstanceState, len(ids))
	for i, id := range ids {
		out[i] = rolloutmodel.InstanceState{InstanceID: id, CodeVersion: "v1", ConfigurationVersion: "c1"}
	}
	return out
}

func TestPlanBatches_EvenSplit(t *testing.T) {
	batches, err := PlanBatches(instances("a", "b", "c", "d"), 2)
	require.NoError(t, err)
	require.Len(t, batches, 2)
	assert.Equal(t, []string{"a", "b"}, ids(batches[0]))
	assert.Equal(t, []string{"c", "d"}, ids(batches[1]))
}

func TestPlanBatches_UnevenLastBatch(t *testing.T) {
	batches, err := PlanBatches(instances("a", "b", "c"), 2)
	require.NoError(t, err)
	require.Len(t, batches, 2)
	assert.Equal(t, []string{"a", "b"}, ids(batches[0]))
	assert.Equal(t, []string{"c"}, ids(batches[1]))
}

func TestPlanBatches_EmptyInputYieldsNoBatches(t *testing.T) {
	batches, err := PlanBatches(nil, 2)
	require.NoError(t, err)
	assert.Empty(t, batches)
}

func TestPlanBatches_NonPositiveSizeRejected(t *testing.T) {
	_, err := PlanBatches(instances("a"), 0)
	require.Error(t, err)

	_, err = PlanBatches(instances("a"), -1)
	require.Error(t, err)
}

func TestDiff_SelectsOnlyMismatchedInstances(t *testing.T) {
	in := []rolloutmodel.InstanceState{
		{InstanceID: "a", CodeVersion: "v1", ConfigurationVersion: "c1"},
		{InstanceID: "b", CodeVersion: "v2", ConfigurationVersion: "c1"},
		{InstanceID: "c", CodeVersion: "v1", ConfigurationVersion: "c2"},
	}
	out := Diff(in, "v2", "c1")
	assert.Equal(t, []string{"a", "c"}, idsVal(out))
}

func ids(in []rolloutmodel.InstanceState) []string {
	return idsVal(in)
}

func idsVal(in []rolloutmodel.InstanceState) []string {
	out := make([]string, len(in))
	for i, inst := range in {
		out[i] = inst.InstanceID
	}
	return out
}
