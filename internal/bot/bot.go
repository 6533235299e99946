// Package bot wires the Telegram surface: command and callback handlers
// that read state and enqueue jobs, never mutating rooms directly.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/limerc/rooms-bot/internal/bot/handlers"
	apperrors "github.com/limerc/rooms-bot/internal/errors"
	"github.com/limerc/rooms-bot/internal/jobs"
	"github.com/limerc/rooms-bot/internal/store"
	"github.com/limerc/rooms-bot/pkg/config"
)

// Bot wraps telebot.Bot with application dependencies required for handling updates.
type Bot struct {
	telebot *telebot.Bot
	log     *slog.Logger
}

// New builds a telegram bot instance configured according to the application settings.
func New(cfg config.Config, log *slog.Logger, st store.Store, queue jobs.Manager) (*Bot, error) {
	settings := telebot.Settings{
		Token: cfg.Bot.Token,
		Poller: &telebot.LongPoller{
			Timeout: cfg.Bot.Timeout,
		},
	}

	tb, err := telebot.NewBot(settings)
	if err != nil {
		return nil, fmt.Errorf("initialize telebot: %w", err)
	}

	deps := handlers.Deps{
		Store:  st,
		Queue:  queue,
		Errors: apperrors.NewHandler(log, cfg.Sentry.Enabled),
		Game:   cfg.Game,
		Log:    log,
	}

	handlers.RegisterStartHandler(tb, deps)
	handlers.RegisterRoomHandlers(tb, deps)
	handlers.RegisterWalletHandlers(tb, deps)

	return &Bot{telebot: tb, log: log}, nil
}

// Start begins long polling; it blocks until Stop is called.
func (b *Bot) Start() {
	b.log.Info("telegram bot: starting long polling")
	b.telebot.Start()
}

// Stop terminates long polling.
func (b *Bot) Stop() {
	b.log.Info("telegram bot: stopping")
	b.telebot.Stop()
}

// HealthCheck reports whether the bot session is initialized, satisfying
// the health checker contract.
func (b *Bot) HealthCheck(_ context.Context) error {
	if b == nil || b.telebot == nil || b.telebot.Me == nil {
		return errTelegramNotReady
	}

	return nil
}

var errTelegramNotReady = errors.New("telegram bot is not initialized or disconnected")

// SendMessage delivers text to the user, satisfying the notification
// dispatcher's sender contract.
func (b *Bot) SendMessage(_ context.Context, userID int64, message string) error {
	if _, err := b.telebot.Send(&telebot.User{ID: userID}, message); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}

	return nil
}
