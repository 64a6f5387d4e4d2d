package middleware

import (
	"log/slog"
	"time"

	tele "gopkg.in/telebot.v4"

	"livereport-bot/core/logger"
	tghelpers "livereport-bot/core/telegram/helpers"
)

// Logging logs a single receipt line per update and seeds the request context
// (rid, update/user/chat identifiers) for downstream handlers.
func Logging(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		upd := c.Update()
		user := c.Sender()
		chat := c.Chat()

		chatID, userID := int64(0), int64(0)
		if chat != nil {
			chatID = chat.ID
		}
		if user != nil {
			userID = user.ID
		}
		rid := logger.BuildRID(upd.ID, chatID, userID)
		c.Set("rid", rid)

		ctx := logger.WithRID(logger.Background(), rid)
		ctx = logger.WithUpdateMeta(ctx, upd.ID, userID, chatID)
		ctx = logger.WithLogger(ctx, logger.Component("tg"))
		tghelpers.StoreContext(c, ctx)

		attrs := []slog.Attr{
			slog.Int("update_id", upd.ID),
			slog.Int64("chat_id", chatID),
			slog.Int64("user_id", userID),
		}
		if t := c.Text(); t != "" {
			attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(t, 256)))
		}
		logger.Debug(ctx, "tg", "update.received", attrs...)

		start := time.Now()
		err := next(c)
		logger.Info(ctx, "tg", "handler.handled",
			slog.String("status", logger.Status(err)),
			slog.Int64("duration_ms", logger.Took(start).Milliseconds()),
		)
		return err
	}
}
