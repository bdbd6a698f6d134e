package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/wenwu/saas-platform/panel-service/internal/repository"
)

// NodeCapacityStore is the persistence contract the capacity tracker
// needs: atomic, per-node serialized adjust operations.
type NodeCapacityStore interface {
	Reserve(ctx context.Context, nodeID string, ram, disk, cpu int64) (deficient []string, err error)
	Release(ctx context.Context, nodeID string, ram, disk, cpu int64) (clamped []string, err error)
}

// CapacityTracker owns node used-capacity accounting. No other component
// writes a node's used_* fields. It knows nothing about users or billing.
type CapacityTracker struct {
	nodes NodeCapacityStore
}

func NewCapacityTracker(nodes NodeCapacityStore) *CapacityTracker {
	return &CapacityTracker{nodes: nodes}
}

// Reserve holds ram/disk/cpu against a node. All three dimensions are
// checked together under the node lock; on failure nothing changes and
// the returned error names the deficient dimensions.
func (t *CapacityTracker) Reserve(ctx context.Context, nodeID string, ram, disk, cpu int64) error {
	deficient, err := t.nodes.Reserve(ctx, nodeID, ram, disk, cpu)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("reserve capacity: %w", err)
	}
	if len(deficient) > 0 {
		return &InsufficientCapacityError{NodeID: nodeID, Dimensions: deficient}
	}
	return nil
}

// Release returns ram/disk/cpu to a node. A release that would push usage
// negative is clamped at zero and logged as an invariant violation: it
// means something released capacity it never reserved, which is an
// accounting bug to alert on, not a reason to fail the caller.
func (t *CapacityTracker) Release(ctx context.Context, nodeID string, ram, disk, cpu int64) error {
	clamped, err := t.nodes.Release(ctx, nodeID, ram, disk, cpu)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("release capacity: %w", err)
	}
	if len(clamped) > 0 {
		log.Printf("[Capacity] INVARIANT VIOLATION: release on node %s clamped at zero for %v (ram=%d disk=%d cpu=%d)",
			nodeID, clamped, ram, disk, cpu)
	}
	return nil
}
