package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/limerc/rooms-bot/internal/domain"
	apperrors "github.com/limerc/rooms-bot/internal/errors"
	"github.com/limerc/rooms-bot/internal/jobs"
	"github.com/limerc/rooms-bot/internal/store"
	"github.com/limerc/rooms-bot/pkg/metrics"
)

// User-facing join messages.
const (
	MsgRoomFull            = "Oops, room is already full, please try another one."
	MsgInsufficientBalance = "⛔ You need a sufficient balance to join this room."
	MsgAlreadyInRoom       = "You already joined the room :)"
	MsgJoined              = "You joined the room\nWait for the results :)"
)

// joinOutcome classifies the result of a join attempt. Everything except
// outcomeError is a defined business outcome, not a failure.
type joinOutcome string

const (
	outcomeJoined       joinOutcome = "joined"
	outcomeRoomFull     joinOutcome = "room_full"
	outcomeInsufficient joinOutcome = "insufficient_balance"
	outcomeAlreadyIn    joinOutcome = "already_in_room"
	outcomeDuplicate    joinOutcome = "duplicate_delivery"
	outcomeError        joinOutcome = "error"
)

// JoinCoordinator executes balance- and capacity-checked transfers of a
// user into a room. Safe under concurrent and duplicate invocation: the
// room row lock serializes joins per room, and an already-applied join is
// detected via the user's current room membership.
type JoinCoordinator struct {
	store    store.Store
	notifier Notifier
	log      *slog.Logger
}

// NewJoinCoordinator constructs a JoinCoordinator.
func NewJoinCoordinator(st store.Store, notifier Notifier, log *slog.Logger) *JoinCoordinator {
	if log == nil {
		log = slog.Default()
	}

	return &JoinCoordinator{store: st, notifier: notifier, log: log}
}

// HandleJoin applies one join request inside a single transaction: debit
// the wallet, credit the pool, append the player, and flip the room to
// active when it fills. Either both the user and the room mutate, or
// neither does.
func (c *JoinCoordinator) HandleJoin(ctx context.Context, req jobs.JoinRoomPayload) error {
	var outcome joinOutcome

	err := c.store.WithTx(ctx, func(tx store.Tx) error {
		room, err := tx.GetRoomForUpdate(ctx, req.RoomID)
		if err != nil {
			return fmt.Errorf("load room %s: %w", req.RoomID, err)
		}

		user, err := tx.GetUserForUpdate(ctx, req.UserID)
		if err != nil {
			return fmt.Errorf("load user %d: %w", req.UserID, err)
		}

		// Re-delivery of an already-applied join must be a no-op.
		if user.RoomID != nil {
			if *user.RoomID == room.ID {
				outcome = outcomeDuplicate
			} else {
				outcome = outcomeAlreadyIn
			}
			return nil
		}

		if !room.Joinable() {
			outcome = outcomeRoomFull
			return nil
		}

		if user.Wallet.Balance.LessThan(room.MinDeposit) {
			outcome = outcomeInsufficient
			return nil
		}

		user.Wallet.Balance = user.Wallet.Balance.Sub(room.MinDeposit)
		room.Pool.Amount = room.Pool.Amount.Add(room.MinDeposit)
		room.Players = append(room.Players, user.UserID)
		user.RoomID = &room.ID

		if room.IsFull() {
			room.State = domain.RoomStateActive
		}

		if err := tx.UpdateUser(ctx, user); err != nil {
			return err
		}
		if err := tx.UpdateRoom(ctx, room); err != nil {
			return err
		}

		outcome = outcomeJoined
		return nil
	})
	if err != nil {
		outcome = outcomeError
		metrics.RecordJoin(string(outcome))

		if errors.Is(err, store.ErrNotFound) {
			// The room or user never existed; retrying cannot help.
			return apperrors.NewValidationError(err.Error())
		}

		return apperrors.NewDatabaseError(err)
	}

	metrics.RecordJoin(string(outcome))

	c.log.Info("join request handled",
		slog.Int64("user_id", req.UserID),
		slog.String("room_id", req.RoomID),
		slog.String("outcome", string(outcome)),
	)

	if msg := joinMessage(outcome); msg != "" {
		if err := c.notifier.NotifyUser(ctx, req.UserID, msg); err != nil {
			// The join already committed; delivery is best-effort here and
			// retried by the notification queue on its own schedule.
			c.log.Error("join notification enqueue failed",
				slog.Int64("user_id", req.UserID),
				slog.Any("error", err),
			)
		}
	}

	return nil
}

func joinMessage(outcome joinOutcome) string {
	switch outcome {
	case outcomeJoined:
		return MsgJoined
	case outcomeRoomFull:
		return MsgRoomFull
	case outcomeInsufficient:
		return MsgInsufficientBalance
	case outcomeAlreadyIn:
		return MsgAlreadyInRoom
	default:
		return ""
	}
}
