package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wenwu/saas-platform/panel-service/internal/models"
)

func testNode() *models.Node {
	return &models.Node{
		ID:        "node-1",
		Name:      "de-fra-01",
		TotalRam:  4096,
		TotalDisk: 40960,
		TotalCpu:  400,
		Status:    models.NodeStatusOnline,
		IsPublic:  true,
	}
}

func TestCapacityReserveAndRelease(t *testing.T) {
	store := newFakeCapacityStore(testNode())
	tracker := NewCapacityTracker(store)
	ctx := context.Background()

	require.NoError(t, tracker.Reserve(ctx, "node-1", 1024, 10240, 100))

	node := store.node("node-1")
	require.Equal(t, int64(1024), node.UsedRam)
	require.Equal(t, int64(10240), node.UsedDisk)
	require.Equal(t, int64(100), node.UsedCpu)

	require.NoError(t, tracker.Release(ctx, "node-1", 1024, 10240, 100))

	node = store.node("node-1")
	require.Zero(t, node.UsedRam)
	require.Zero(t, node.UsedDisk)
	require.Zero(t, node.UsedCpu)
}

func TestCapacityReserveNamesDeficientDimensions(t *testing.T) {
	store := newFakeCapacityStore(testNode())
	tracker := NewCapacityTracker(store)
	ctx := context.Background()

	// RAM and CPU too large, disk fits.
	err := tracker.Reserve(ctx, "node-1", 8192, 1024, 500)
	require.Error(t, err)

	var capErr *InsufficientCapacityError
	require.True(t, errors.As(err, &capErr))
	require.Equal(t, "node-1", capErr.NodeID)
	require.Equal(t, []string{"ram", "cpu"}, capErr.Dimensions)

	// Failed reserve must not change usage in any dimension.
	node := store.node("node-1")
	require.Zero(t, node.UsedRam)
	require.Zero(t, node.UsedDisk)
	require.Zero(t, node.UsedCpu)
}

func TestCapacityReserveUnknownNode(t *testing.T) {
	tracker := NewCapacityTracker(newFakeCapacityStore())
	err := tracker.Reserve(context.Background(), "missing", 1, 1, 1)
	require.ErrorIs(t, err, ErrNotFound)
}

// Releasing more than was ever reserved clamps at zero instead of going
// negative; the caller still succeeds.
func TestCapacityReleaseClampsAtZero(t *testing.T) {
	store := newFakeCapacityStore(testNode())
	tracker := NewCapacityTracker(store)
	ctx := context.Background()

	require.NoError(t, tracker.Reserve(ctx, "node-1", 512, 512, 50))
	require.NoError(t, tracker.Release(ctx, "node-1", 1024, 1024, 100))

	node := store.node("node-1")
	require.Zero(t, node.UsedRam)
	require.Zero(t, node.UsedDisk)
	require.Zero(t, node.UsedCpu)
}
