package models

import "time"

// Node status constants
const (
	NodeStatusOnline      = "online"
	NodeStatusOffline     = "offline"
	NodeStatusMaintenance = "maintenance"
)

// Node represents a physical or virtual host that servers are placed on.
// Used* never exceeds Total* and equals the sum of the allocations of all
// non-deleted servers on the node; both are maintained exclusively through
// the capacity tracker's reserve/release operations.
type Node struct {
	ID        string
	Name      string
	Location  string
	IPAddress string
	Port      int

	// Capacity in MB (RAM/disk) and CPU percent units
	TotalRam  int64
	TotalDisk int64
	TotalCpu  int64
	UsedRam   int64
	UsedDisk  int64
	UsedCpu   int64

	Status   string
	IsPublic bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// AvailableRam returns the unreserved RAM on the node.
func (n *Node) AvailableRam() int64 { return n.TotalRam - n.UsedRam }

// AvailableDisk returns the unreserved disk on the node.
func (n *Node) AvailableDisk() int64 { return n.TotalDisk - n.UsedDisk }

// AvailableCpu returns the unreserved CPU units on the node.
func (n *Node) AvailableCpu() int64 { return n.TotalCpu - n.UsedCpu }
