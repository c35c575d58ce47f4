package middleware

import (
	"log/slog"
	"strconv"
	"time"

	"laundrybot/internal/logger"
	"laundrybot/internal/telegram/helpers"

	gocache "github.com/patrickmn/go-cache"
	tele "gopkg.in/telebot.v4"
)

// recentUpdates keeps a short-lived set of processed update IDs so the
// receipt line is logged once even when the middleware chain is applied
// on multiple routes.
var recentUpdates = gocache.New(10*time.Second, time.Minute)

func alreadyLogged(updateID int) bool {
	key := strconv.Itoa(updateID)
	if _, ok := recentUpdates.Get(key); ok {
		return true
	}
	recentUpdates.SetDefault(key, struct{}{})
	return false
}

// LoggerMiddleware logs a single receipt line per update and stores the
// rid-enriched context for downstream handlers.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
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
		c.Set("update_start", time.Now())

		ctx := logger.WithRID(logger.Background(), rid)
		ctx = logger.WithUpdateMeta(ctx, upd.ID, userID, chatID)
		ctx = logger.WithLogger(ctx, logger.Component("tg"))
		helpers.StoreContext(c, ctx)

		if !alreadyLogged(upd.ID) {
			attrs := []slog.Attr{
				slog.String("status", "ok"),
			}
			if chat != nil {
				attrs = append(attrs, slog.String("chat_type", string(chat.Type)))
			}
			if user != nil && user.Username != "" {
				attrs = append(attrs, slog.String("username", logger.SanitizeLimit(user.Username, 64)))
			}
			switch {
			case upd.Callback != nil:
				if key := callbackKey(upd.Callback); key != "" {
					attrs = append(attrs, slog.String("cb_key", logger.SanitizeLimit(key, 128)))
				}
			case upd.Message != nil:
				if t := c.Text(); t != "" {
					attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(t, 256)))
				}
			}
			logger.LogEvent(ctx, logger.Component("tg"), slog.LevelDebug, "update.received", attrs...)
		}

		return next(c)
	}
}

func callbackKey(cb *tele.Callback) string {
	if cb == nil {
		return ""
	}
	if cb.Unique != "" {
		return cb.Unique
	}
	return cb.Data
}
