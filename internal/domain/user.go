package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet holds a user's in-game funds. Balance is never negative.
type Wallet struct {
	Addr    string          `json:"wallet_addr"`
	Balance decimal.Decimal `json:"balance"`
}

// User represents an application user stored in the database.
// RoomID is set while the user is a member of exactly one non-closed room.
type User struct {
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	FirstName string    `json:"first_name"`
	Wallet    Wallet    `json:"wallet"`
	RoomID    *string   `json:"room_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// InRoom reports whether the user currently holds a room membership.
func (u *User) InRoom() bool {
	return u != nil && u.RoomID != nil && *u.RoomID != ""
}
