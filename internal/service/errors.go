package service

import (
	"errors"
	"fmt"
	"strings"
)

// Operation outcome taxonomy. All of these are terminal for a single
// request; the core never retries a financial operation on its own.
var (
	// ErrNotFound means a referenced entity does not exist
	ErrNotFound = errors.New("not found")

	// ErrForbidden means the requester may not touch the entity
	ErrForbidden = errors.New("access denied")

	// ErrInsufficientFunds means the ledger would go negative
	ErrInsufficientFunds = errors.New("insufficient credits")

	// ErrNodeInUse means a node still hosts servers and cannot be removed
	ErrNodeInUse = errors.New("node has active servers")

	// ErrInvalidAction means an unknown power action was requested
	ErrInvalidAction = errors.New("invalid server action")

	// ErrInvalidBillingCycle means an unknown billing cycle was requested
	ErrInvalidBillingCycle = errors.New("invalid billing cycle")
)

// InsufficientCapacityError reports which node dimensions cannot fit the
// requested allocation, so callers can tell "no room on this node" apart
// from "no money" and pick a different node.
type InsufficientCapacityError struct {
	NodeID     string
	Dimensions []string
}

func (e *InsufficientCapacityError) Error() string {
	return fmt.Sprintf("node %s has insufficient %s", e.NodeID, strings.Join(e.Dimensions, ", "))
}
