package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	telebot "gopkg.in/telebot.v3"

	"github.com/limerc/rooms-bot/internal/domain"
	"github.com/limerc/rooms-bot/internal/jobs"
	"github.com/limerc/rooms-bot/internal/store"
)

// RegisterRoomHandlers registers the find-room listing and the join
// callback. Joining only enqueues a job; the join coordinator owns the
// actual transfer.
func RegisterRoomHandlers(bot *telebot.Bot, deps Deps) {
	if bot == nil {
		return
	}

	bot.Handle(&BtnFindRoom, func(c telebot.Context) error {
		ctx := context.Background()

		if err := c.Send("🔍 Looking for a room..."); err != nil {
			return err
		}

		rooms, err := deps.Store.FindJoinableRooms(ctx)
		if err != nil {
			deps.logError("rooms.find", c.Sender().ID, err)
			msg, _ := deps.Errors.Handle(ctx, err)
			return c.Send(msg)
		}

		if len(rooms) == 0 {
			room, createErr := deps.createDefaultRoom(ctx)
			if createErr != nil {
				deps.logError("rooms.create", c.Sender().ID, createErr)
				msg, _ := deps.Errors.Handle(ctx, createErr)
				return c.Send(msg)
			}
			rooms = []domain.Room{*room}
		}

		text, markup := renderRooms(rooms)
		return c.Send(text, markup, telebot.ModeHTML)
	})

	bot.Handle(&BtnJoinRoom, func(c telebot.Context) error {
		ctx := context.Background()
		sender := c.Sender()
		if sender == nil {
			return nil
		}

		user, err := deps.Store.GetUser(ctx, sender.ID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return c.Send("Please hit /start first.")
			}
			deps.logError("rooms.join.get_user", sender.ID, err)
			msg, _ := deps.Errors.Handle(ctx, err)
			return c.Send(msg)
		}

		// Request-acceptance guard: one room per user, checked before the
		// join job is even enqueued.
		if user.InRoom() {
			return c.Send("You already joined the room :)")
		}

		roomID := strings.TrimSpace(c.Data())
		if roomID == "" {
			return c.Send("That room is gone, try /start again.")
		}

		task, err := jobs.NewJoinRoomTask(sender.ID, roomID)
		if err != nil {
			deps.logError("rooms.join.task", sender.ID, err)
			msg, _ := deps.Errors.Handle(ctx, err)
			return c.Send(msg)
		}

		if _, err := deps.Queue.Enqueue(ctx, task); err != nil {
			deps.logError("rooms.join.enqueue", sender.ID, err)
			msg, _ := deps.Errors.Handle(ctx, err)
			return c.Send(msg)
		}

		return c.Respond(&telebot.CallbackResponse{Text: "Joining..."})
	})
}

func (d Deps) createDefaultRoom(ctx context.Context) (*domain.Room, error) {
	minDeposit, err := decimal.NewFromString(d.Game.DefaultRoom.MinDeposit)
	if err != nil {
		return nil, fmt.Errorf("parse default room min_deposit: %w", err)
	}

	now := time.Now().UTC()
	room := &domain.Room{
		ID: uuid.NewString(),
		Pool: domain.Pool{
			Amount: decimal.Zero,
			Symbol: d.Game.DefaultRoom.Symbol,
		},
		WinRate:    d.Game.DefaultRoom.WinRate,
		Capacity:   d.Game.DefaultRoom.Capacity,
		Players:    []int64{},
		MinDeposit: minDeposit,
		State:      domain.RoomStateOpen,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := d.Store.SaveRoom(ctx, room); err != nil {
		return nil, err
	}

	return room, nil
}

func renderRooms(rooms []domain.Room) (string, *telebot.ReplyMarkup) {
	var sb strings.Builder
	markup := &telebot.ReplyMarkup{}
	rows := make([]telebot.Row, 0, len(rooms))

	for idx, room := range rooms {
		fmt.Fprintf(&sb, `🚪 Room: %d
📈 Win rate: %.0f%%
👥 Players: %d/%d
💰 Pool: %s %s
💵 Required Deposit: %s

`,
			idx+1,
			room.WinRate*100,
			len(room.Players),
			room.Capacity,
			room.Pool.Amount.String(),
			room.Pool.Symbol,
			room.MinDeposit.String(),
		)

		btn := markup.Data(fmt.Sprintf("🎮 Join room: %d", idx+1), BtnJoinRoom.Unique, room.ID)
		rows = append(rows, markup.Row(btn))
	}

	markup.Inline(rows...)

	return sb.String(), markup
}
