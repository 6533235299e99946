package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RoomState describes where a room is in its lifecycle. Transitions are
// monotonic: open -> active -> processing -> closed, never backward.
type RoomState string

const (
	RoomStateOpen       RoomState = "open"
	RoomStateActive     RoomState = "active"
	RoomStateProcessing RoomState = "processing"
	RoomStateClosed     RoomState = "closed"
)

var roomStateOrder = map[RoomState]int{
	RoomStateOpen:       0,
	RoomStateActive:     1,
	RoomStateProcessing: 2,
	RoomStateClosed:     3,
}

// Valid reports whether s is a known room state.
func (s RoomState) Valid() bool {
	_, ok := roomStateOrder[s]
	return ok
}

// CanTransitionTo reports whether moving from s to next is a legal
// single forward step in the lifecycle.
func (s RoomState) CanTransitionTo(next RoomState) bool {
	cur, ok := roomStateOrder[s]
	if !ok {
		return false
	}

	nxt, ok := roomStateOrder[next]
	if !ok {
		return false
	}

	return nxt == cur+1
}

// Pool is the aggregated deposit amount held by a room.
type Pool struct {
	Amount decimal.Decimal `json:"amount"`
	Symbol string          `json:"symbol"`
}

// Room is a bounded group of users pooling deposits for one settlement
// round. Players is ordered by join time and never exceeds Capacity.
type Room struct {
	ID         string          `json:"id"`
	Pool       Pool            `json:"pool"`
	WinRate    float64         `json:"win_rate"`
	Capacity   int             `json:"capacity"`
	Players    []int64         `json:"players"`
	MinDeposit decimal.Decimal `json:"min_deposit"`
	State      RoomState       `json:"state"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// IsFull reports whether the room reached its capacity.
func (r *Room) IsFull() bool {
	return r != nil && len(r.Players) >= r.Capacity
}

// Joinable reports whether the room still accepts new members.
func (r *Room) Joinable() bool {
	return r != nil && r.State == RoomStateOpen && !r.IsFull()
}
