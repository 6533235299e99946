// Package handlers contains the Telegram command and callback handlers.
package handlers

import (
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	apperrors "github.com/limerc/rooms-bot/internal/errors"
	"github.com/limerc/rooms-bot/internal/jobs"
	"github.com/limerc/rooms-bot/internal/store"
	"github.com/limerc/rooms-bot/pkg/config"
)

// Deps bundles everything a handler may need.
type Deps struct {
	Store  store.Store
	Queue  jobs.Manager
	Errors *apperrors.Handler
	Game   config.GameConfig
	Log    *slog.Logger
}

// Menu callback buttons shared between the /start keyboard and their
// handlers. Unique values are part of the callback wire format.
var (
	BtnDeposit  = telebot.Btn{Unique: "start_deposit", Text: "💳 Deposit"}
	BtnWallet   = telebot.Btn{Unique: "start_wallet", Text: "💼 Wallet"}
	BtnFindRoom = telebot.Btn{Unique: "start_find_room", Text: "🔍 Find room"}
	BtnSupport  = telebot.Btn{Unique: "start_support", Text: "📞 Support"}
	BtnJoinRoom = telebot.Btn{Unique: "join_room"}
)

func (d Deps) logError(operation string, userID int64, err error) {
	if d.Log == nil || err == nil {
		return
	}

	d.Log.Error("bot handler failed",
		slog.String("operation", operation),
		slog.Int64("telegram_id", userID),
		slog.Any("error", err),
	)
}
