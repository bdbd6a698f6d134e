package models

import "time"

// Server status constants
const (
	ServerStatusInstalling = "installing"
	ServerStatusRunning    = "running"
	ServerStatusStopped    = "stopped"
	ServerStatusSuspended  = "suspended"
	ServerStatusError      = "error"
)

// Billing cycle constants
const (
	BillingCycleHourly  = "hourly"
	BillingCycleDaily   = "daily"
	BillingCycleMonthly = "monthly"
)

// Server power action constants (updateStatus)
const (
	ServerActionStart     = "start"
	ServerActionStop      = "stop"
	ServerActionRestart   = "restart"
	ServerActionReinstall = "reinstall"
)

// Server is a billable hosted instance owned by one user, placed on one
// node. Allocated* is a snapshot of the package at creation time and is
// fixed for the server's life; exactly these amounts are held against the
// node's used capacity until the server is deleted.
type Server struct {
	ID        string
	UserID    string
	NodeID    string
	PackageID string

	Name        string
	Description string
	ServerType  string
	ImageTag    string

	AllocatedRam  int64
	AllocatedDisk int64
	AllocatedCpu  int64

	Status       string
	BillingCycle string
	LastBilledAt time.Time
	ExpiresAt    time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// StatusForAction maps a power action to the resulting server status.
// The second return is false for an unknown action.
func StatusForAction(action string) (string, bool) {
	switch action {
	case ServerActionStart, ServerActionRestart:
		return ServerStatusRunning, true
	case ServerActionStop:
		return ServerStatusStopped, true
	case ServerActionReinstall:
		return ServerStatusInstalling, true
	default:
		return "", false
	}
}
