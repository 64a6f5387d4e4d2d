// Package notify delivers out-of-band messages to users, outside the
// request/response flow of an incoming update.
package notify

import (
	"context"
	"errors"
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"livereport-bot/core/logger"
	"livereport-bot/core/telegram/sender"
)

// Notifier pushes a Markdown message to a Telegram user by ID.
// Delivery is best effort: the recipient may have blocked the bot.
type Notifier interface {
	Send(ctx context.Context, recipientID int64, text string) error
}

type telegramNotifier struct {
	bot        *tele.Bot
	dispatcher *sender.Dispatcher
}

// NewTelegramNotifier builds a Notifier that sends through the shared
// async dispatcher when available and falls back to a direct send.
func NewTelegramNotifier(bot *tele.Bot, dispatcher *sender.Dispatcher) Notifier {
	return &telegramNotifier{bot: bot, dispatcher: dispatcher}
}

func (n *telegramNotifier) Send(ctx context.Context, recipientID int64, text string) error {
	run := func() error {
		_, err := n.bot.Send(&tele.Chat{ID: recipientID}, text, &tele.SendOptions{ParseMode: tele.ModeMarkdown})
		return err
	}

	if n.dispatcher == nil {
		return run()
	}
	if err := n.dispatcher.Enqueue(ctx, "notify.send", run); err != nil {
		if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
			logger.Warn(ctx, "notify", "queue.fallback",
				slog.Int64("recipient_id", recipientID),
				slog.String("err", err.Error()),
			)
			return run()
		}
		return err
	}
	return nil
}
