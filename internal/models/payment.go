package models

import "time"

// Payment status constants
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
)

// Payment records an external credit purchase. ProviderEventID carries the
// payment provider's event id and is unique, which is what makes webhook
// delivery idempotent: a replayed event cannot credit the user twice.
type Payment struct {
	ID              string
	UserID          string
	Amount          int64 // smallest currency unit
	Currency        string
	CreditsAmount   int64
	Status          string
	ProviderEventID *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
