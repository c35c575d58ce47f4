// Package middleware provides telebot middleware for panic recovery,
// update receipt logging and per-user rate limiting.
package middleware

import (
	"log/slog"
	"runtime/debug"

	"laundrybot/internal/logger"
	"laundrybot/internal/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// RecoverMiddleware catches panics in handlers and prevents the bot from crashing.
func RecoverMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		defer func() {
			if r := recover(); r != nil {
				ctx := helpers.BuildContext(c)
				logger.Error(ctx, "tg", "panic",
					slog.Any("err", r),
					slog.String("stack", string(debug.Stack())),
				)
			}
		}()
		return next(c)
	}
}
