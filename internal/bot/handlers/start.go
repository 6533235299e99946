package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	telebot "gopkg.in/telebot.v3"

	"github.com/limerc/rooms-bot/internal/domain"
)

func welcomeMessage(name string) string {
	return fmt.Sprintf(`Welcome, %s, to the funniest Telegram Casino!
Ready to win 🤑?
In <b>Casino</b> players deposit money into a virtual casino room. A random player loses, and their money goes to others based on deposits.
Notifications share wins or losses. The excitement continues as players plan for the next round.

Deposits function only in BTC!`, name)
}

// RegisterStartHandler registers /start: it creates the user profile when
// missing and shows the main menu.
func RegisterStartHandler(bot *telebot.Bot, deps Deps) {
	if bot == nil {
		return
	}

	bot.Handle("/start", func(c telebot.Context) error {
		sender := c.Sender()
		if sender == nil {
			return c.Send("An internal error occurred. Please try again later.")
		}

		user := &domain.User{
			UserID:    sender.ID,
			Username:  sender.Username,
			FirstName: sender.FirstName,
			Wallet: domain.Wallet{
				Addr:    "abc", // placeholder until real wallets exist
				Balance: decimal.Zero,
			},
			CreatedAt: time.Now().UTC(),
		}

		if err := deps.Store.UpsertUser(context.Background(), user); err != nil {
			deps.logError("start.upsert", sender.ID, err)
			msg, _ := deps.Errors.Handle(context.Background(), err)
			return c.Send(msg)
		}

		markup := &telebot.ReplyMarkup{}
		markup.Inline(
			markup.Row(BtnDeposit),
			markup.Row(BtnWallet),
			markup.Row(BtnFindRoom),
			markup.Row(BtnSupport),
		)

		return c.Send(welcomeMessage(sender.FirstName), markup, telebot.ModeHTML)
	})

	bot.Handle(&BtnSupport, func(c telebot.Context) error {
		return c.Send("For getting help please contact @limerc")
	})
}
