package models

import "time"

// Ticket status constants
const (
	TicketStatusOpen        = "open"
	TicketStatusInProgress  = "in_progress"
	TicketStatusWaitingUser = "waiting_user"
	TicketStatusClosed      = "closed"
)

// Ticket priority constants
const (
	TicketPriorityLow    = "low"
	TicketPriorityMedium = "medium"
	TicketPriorityHigh   = "high"
	TicketPriorityUrgent = "urgent"
)

// Ticket is a support ticket owned by a user.
type Ticket struct {
	ID              string
	UserID          string
	Subject         string
	Priority        string
	Category        string
	Status          string
	RelatedServerID *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ClosedAt        *time.Time
}

// TicketMessage is a single message in a ticket thread.
type TicketMessage struct {
	ID           string
	TicketID     string
	UserID       string
	Message      string
	IsStaffReply bool
	CreatedAt    time.Time
}
