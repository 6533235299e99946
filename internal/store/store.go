// Package store provides transactional persistence for users and rooms.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/limerc/rooms-bot/internal/domain"
)

// ErrNotFound is returned when a requested user or room does not exist.
var ErrNotFound = errors.New("store: not found")

// ErrInvalidTransition is returned when a room update would move the
// room backward or skip a lifecycle step.
var ErrInvalidTransition = errors.New("store: illegal room state transition")

// ValidateRoomTransition checks that moving a room from cur to next is
// legal: staying in place or one forward step, never backward.
func ValidateRoomTransition(cur, next domain.RoomState) error {
	if cur == next || cur.CanTransitionTo(next) {
		return nil
	}

	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, cur, next)
}

// Store is the single source of truth for all room and wallet state.
// All cross-entity mutation happens inside WithTx.
type Store interface {
	// WithTx runs fn inside a single transaction. A non-nil error from fn
	// aborts the transaction; otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// GetUser fetches a user outside a transaction, for read-only paths.
	GetUser(ctx context.Context, userID int64) (*domain.User, error)

	// UpsertUser inserts the user if missing and leaves an existing row
	// untouched.
	UpsertUser(ctx context.Context, user *domain.User) error

	// SaveRoom inserts a new room.
	SaveRoom(ctx context.Context, room *domain.Room) error

	// FindJoinableRooms lists open rooms that still have free seats.
	FindJoinableRooms(ctx context.Context) ([]domain.Room, error)

	// CountRoomsByState returns the current room count per lifecycle
	// state; states with no rooms are absent from the map.
	CountRoomsByState(ctx context.Context) (map[domain.RoomState]int, error)
}

// Tx exposes the operations that compose inside one transaction scope.
// ForUpdate reads take row locks; lock order is room before user.
type Tx interface {
	GetUserForUpdate(ctx context.Context, userID int64) (*domain.User, error)
	GetRoomForUpdate(ctx context.Context, roomID string) (*domain.Room, error)
	UpdateUser(ctx context.Context, user *domain.User) error
	UpdateRoom(ctx context.Context, room *domain.Room) error

	// FindRoomsByStateForUpdate locks and returns all rooms currently in
	// the given state.
	FindRoomsByStateForUpdate(ctx context.Context, state domain.RoomState) ([]domain.Room, error)

	// UpdateRoomsState bulk-moves the given rooms into state.
	UpdateRoomsState(ctx context.Context, roomIDs []string, state domain.RoomState) error

	// FindStuckProcessingForUpdate locks and returns rooms that have been
	// in the processing state since before cutoff.
	FindStuckProcessingForUpdate(ctx context.Context, cutoff time.Time) ([]domain.Room, error)

	ListUsersByIDs(ctx context.Context, userIDs []int64) ([]domain.User, error)

	// CreditUsers increments the wallet balance of every listed user.
	CreditUsers(ctx context.Context, userIDs []int64, amount decimal.Decimal) error

	// ClearUsersRoom removes the room membership of every listed user.
	ClearUsersRoom(ctx context.Context, userIDs []int64) error
}
