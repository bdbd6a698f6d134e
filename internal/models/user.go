package models

import "time"

// User role constants
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a panel account. Credits is derived state: it always
// mirrors the balance_after of the user's most recent credit transaction
// and is only ever written by the ledger.
type User struct {
	ID          string
	Email       string
	Name        string
	Role        string
	Credits     int64
	LoginMethod string
	LastSignedIn *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
