package models

import "time"

// Credit transaction type constants
const (
	TransactionTypePurchase        = "purchase"
	TransactionTypeUsage           = "usage"
	TransactionTypeRefund          = "refund"
	TransactionTypeBonus           = "bonus"
	TransactionTypeAdminAdjustment = "admin_adjustment"
)

// CreditTransaction is an immutable ledger entry. For a given user the
// entries ordered by creation form a chain: each BalanceBefore equals the
// previous entry's BalanceAfter, and the user's current credits equal the
// latest entry's BalanceAfter.
type CreditTransaction struct {
	ID              string
	UserID          string
	Amount          int64
	Type            string
	Description     string
	BalanceBefore   int64
	BalanceAfter    int64
	RelatedServerID *string
	CreatedAt       time.Time
}
