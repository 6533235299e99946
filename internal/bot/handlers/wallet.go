package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	telebot "gopkg.in/telebot.v3"

	"github.com/limerc/rooms-bot/internal/store"
)

// faucetAmount is the dev-mode deposit stub. Real blockchain deposits are
// out of scope; the wallet only tracks in-game balance.
var faucetAmount = decimal.NewFromInt(100)

// RegisterWalletHandlers registers the deposit faucet and the wallet
// overview callbacks.
func RegisterWalletHandlers(bot *telebot.Bot, deps Deps) {
	if bot == nil {
		return
	}

	bot.Handle(&BtnDeposit, func(c telebot.Context) error {
		ctx := context.Background()
		sender := c.Sender()
		if sender == nil {
			return nil
		}

		err := deps.Store.WithTx(ctx, func(tx store.Tx) error {
			user, err := tx.GetUserForUpdate(ctx, sender.ID)
			if err != nil {
				return err
			}

			user.Wallet.Balance = user.Wallet.Balance.Add(faucetAmount)
			return tx.UpdateUser(ctx, user)
		})
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return c.Send("Please hit /start first.")
			}
			deps.logError("wallet.deposit", sender.ID, err)
			msg, _ := deps.Errors.Handle(ctx, err)
			return c.Send(msg)
		}

		return c.Send(fmt.Sprintf("💰 You got %s coins!", faucetAmount.String()))
	})

	bot.Handle(&BtnWallet, func(c telebot.Context) error {
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
			deps.logError("wallet.show", sender.ID, err)
			msg, _ := deps.Errors.Handle(ctx, err)
			return c.Send(msg)
		}

		status := "not in a room"
		if user.InRoom() {
			status = "waiting for room results"
		}

		return c.Send(fmt.Sprintf("💼 Balance: %s\nStatus: %s", user.Wallet.Balance.String(), status))
	})
}
