package models

import "time"

// ActivityLog is an append-only audit entry written as a side effect of
// every mutating operation.
type ActivityLog struct {
	ID        string
	UserID    string
	Action    string
	Details   map[string]interface{}
	CreatedAt time.Time
}
