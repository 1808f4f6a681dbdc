package rollback

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"rollout.sh/internal/rolloutmodel"
)

func TestExecute_RestoresFromSnapshot(t *testing.T) {
	snapshot := rolloutmodel.Snapshot{
		"a": {InstanceID: "a", CodeVersion: "v1", ConfigurationVersion: "c1", Health: rolloutmodel.HealthHealthy},
		"b": {InstanceID: "b", CodeVersion: "v1", ConfigurationVersion: "c1", Health: rolloutmodel.HealthHealthy},
	}
	instances := []*rolloutmodel.InstanceState{
		{InstanceID: "a", CodeVersion: "v2", ConfigurationVersion: "c2", Health: rolloutmodel.HealthDegraded},
		{InstanceID: "b", CodeVersion: "v2", ConfigurationVersion: "c2", Health: rolloutmodel.HealthFailed},
	}

	result := Execute(context.Background(), instances, snapshot, 2)

	assert.ElementsMatch(t, []string{"a", "b"}, result.RolledBack)
	assert.Empty(t, result.Missing)
	for _, inst := range instances {
		assert.Equal(t, "v1", inst.CodeVersion)
		assert.Equal(t, rolloutmodel.HealthHealthy, inst.Health)
	}
}

func TestExecute_MissingSnapshotEntryIsSkippedNotFatal(t *testing.T) {
	snapshot := rolloutmodel.Snapshot{
		"a": {InstanceID: "a", CodeVersion: "v1", ConfigurationVersion: "c1"},
	}
	instances := []*rolloutmodel.InstanceState{
		{InstanceID: "a", CodeVersion: "v2", ConfigurationVersion: "c2"},
		{InstanceID: "b", CodeVersion: "v2", ConfigurationVersion: "c2"},
	}

	result := Execute(context.Background(), instances, snapshot, 2)

	assert.Equal(t, []string{"a"}, result.RolledBack)
	assert.Equal(t, []string{"b"}, result.Missing)
	assert.Equal(t, "v2", instances[1].CodeVersion, "instance with no snapshot entry is left untouched")
}
