package historystore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rollout.sh/internal/rolloutmodel"
)

func TestStore_RecordAndList(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	result := &rolloutmodel.DeploymentResult{
		RunID:   "run-123",
		Success: true,
		Updated: []string{"a", "b"},
	}
	require.NoError(t, store.Record(ctx, "v2", "c2", result))

	runs, err := store.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "v2", runs[0].DesiredCodeVersion)
	assert.Equal(t, "run-123", runs[0].RunID)
	assert.True(t, runs[0].Result.Success)
	assert.ElementsMatch(t, []string{"a", "b"}, runs[0].Result.Updated)
}

func TestStore_ListNewestFirst(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.Record(ctx, "v1", "c1", &rolloutmodel.DeploymentResult{Success: true}))
	require.NoError(t, store.Record(ctx, "v2", "c2", &rolloutmodel.DeploymentResult{Success: false}))

	runs, err := store.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "v2", runs[0].DesiredCodeVersion)
	assert.Equal(t, "v1", runs[1].DesiredCodeVersion)
}

func TestStore_ListRespectsLimit(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Record(ctx, "v1", "c1", &rolloutmodel.DeploymentResult{Success: true}))
	}

	runs, err := store.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}
