package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/limerc/rooms-bot/internal/domain"
	apperrors "github.com/limerc/rooms-bot/internal/errors"
	"github.com/limerc/rooms-bot/internal/store"
	"github.com/limerc/rooms-bot/pkg/metrics"
)

// MsgLose is sent to every loser after settlement.
const MsgLose = "You lose!"

// WinMessage renders the notification for a settlement winner, showing
// the credited bonus and the resulting balance.
func WinMessage(bonus, symbol, balance string) string {
	return fmt.Sprintf("You won! +%s %s\nYour balance: %s %s", bonus, symbol, balance, symbol)
}

// SettlementProcessor redistributes a full room's pool among winners and
// closes the room. Idempotent under redelivery: a room that already left
// the processing state is skipped without mutation.
type SettlementProcessor struct {
	store    store.Store
	notifier Notifier
	log      *slog.Logger

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewSettlementProcessor constructs a SettlementProcessor. A nil rng falls
// back to a time-seeded source.
func NewSettlementProcessor(st store.Store, notifier Notifier, rng *rand.Rand, log *slog.Logger) *SettlementProcessor {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if log == nil {
		log = slog.Default()
	}

	return &SettlementProcessor{
		store:    st,
		notifier: notifier,
		rng:      rng,
		log:      log,
	}
}

// HandleSettlement settles one room from its promotion-time snapshot.
func (p *SettlementProcessor) HandleSettlement(ctx context.Context, snap domain.Room) error {
	losers, winners := p.splitPlayers(snap.Players, snap.WinRate)
	bonus, remainder := SplitPool(snap.Pool.Amount, snap.Pool.Symbol, len(winners))

	settled := false
	winBalances := make(map[int64]decimal.Decimal, len(winners))
	err := p.store.WithTx(ctx, func(tx store.Tx) error {
		room, err := tx.GetRoomForUpdate(ctx, snap.ID)
		if err != nil {
			return fmt.Errorf("load room %s: %w", snap.ID, err)
		}

		// Stale or duplicate job: the room already moved on.
		if room.State != domain.RoomStateProcessing {
			return nil
		}

		if len(winners) > 0 {
			if err := tx.CreditUsers(ctx, winners, bonus); err != nil {
				return err
			}

			// Post-credit balances, reported back in the win messages.
			users, err := tx.ListUsersByIDs(ctx, winners)
			if err != nil {
				return err
			}
			for _, u := range users {
				winBalances[u.UserID] = u.Wallet.Balance
			}
		}

		if err := tx.ClearUsersRoom(ctx, snap.Players); err != nil {
			return err
		}

		room.State = domain.RoomStateClosed
		room.Pool.Amount = remainder
		if err := tx.UpdateRoom(ctx, room); err != nil {
			return err
		}

		settled = true
		return nil
	})
	if err != nil {
		metrics.RecordSettlement("error")

		if errors.Is(err, store.ErrNotFound) {
			return apperrors.NewValidationError(err.Error())
		}

		return apperrors.NewDatabaseError(err)
	}

	if !settled {
		metrics.RecordSettlement("stale_skipped")
		p.log.Warn("settlement skipped, room no longer processing",
			slog.String("room_id", snap.ID),
		)
		return nil
	}

	metrics.RecordSettlement("settled")

	p.log.Info("room settled",
		slog.String("room_id", snap.ID),
		slog.Int("winners", len(winners)),
		slog.Int("losers", len(losers)),
		slog.String("bonus", bonus.String()),
		slog.String("remainder", remainder.String()),
	)

	// Money movement is authoritative at this point; notifications are
	// best-effort and must not undo the commit.
	for _, userID := range winners {
		p.notify(ctx, userID, WinMessage(bonus.String(), snap.Pool.Symbol, winBalances[userID].String()))
	}
	for _, userID := range losers {
		p.notify(ctx, userID, MsgLose)
	}

	return nil
}

func (p *SettlementProcessor) notify(ctx context.Context, userID int64, message string) {
	if err := p.notifier.NotifyUser(ctx, userID, message); err != nil {
		p.log.Error("settlement notification enqueue failed",
			slog.Int64("user_id", userID),
			slog.Any("error", err),
		)
	}
}

// splitPlayers picks losersCount distinct losers uniformly at random,
// without replacement, by partially shuffling a copy of the player list.
// losersCount = n - floor(win_rate * n).
func (p *SettlementProcessor) splitPlayers(players []int64, winRate float64) (losers, winners []int64) {
	n := len(players)
	winnersCount := int(math.Floor(winRate * float64(n)))
	if winnersCount > n {
		winnersCount = n
	}
	losersCount := n - winnersCount

	shuffled := make([]int64, n)
	copy(shuffled, players)

	p.rngMu.Lock()
	p.rng.Shuffle(n, func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	p.rngMu.Unlock()

	return shuffled[:losersCount], shuffled[losersCount:]
}
