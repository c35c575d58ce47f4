package helpers

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"laundrybot/internal/logger"
	"laundrybot/internal/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

var dispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher installs the async outbound dispatcher used by the send
// helpers. Passing nil reverts to synchronous sends.
func SetDispatcher(d *sender.Dispatcher) {
	dispatcher.Store(d)
}

func sendAsync(ctx context.Context, action, endpoint string, run func() error) error {
	d := dispatcher.Load()
	if d == nil {
		return run()
	}
	err := d.Enqueue(ctx, action, endpoint, run)
	if err == nil {
		return nil
	}
	if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
		logger.Warn(ctx, "tg.sender", "enqueue_fallback_sync", slog.String("err", err.Error()))
		return run()
	}
	return err
}

// SendMD sends a markdown message asynchronously via the dispatcher.
func SendMD(c tele.Context, text string, opts ...interface{}) error {
	ctx := BuildContext(c)
	opts = append(opts, tele.ModeMarkdown)
	return sendAsync(ctx, "send", "sendMessage", func() error {
		return c.Send(text, opts...)
	})
}

// EditMD edits the message tied to the current callback in place.
func EditMD(c tele.Context, text string, opts ...interface{}) error {
	ctx := BuildContext(c)
	opts = append(opts, tele.ModeMarkdown)
	return sendAsync(ctx, "edit", "editMessageText", func() error {
		err := c.Edit(text, opts...)
		if errors.Is(err, tele.ErrSameMessageContent) {
			return nil
		}
		return err
	})
}

// EditOrSendMD edits when handling a callback and falls back to a fresh
// message for plain commands.
func EditOrSendMD(c tele.Context, text string, opts ...interface{}) error {
	if c.Callback() != nil {
		return EditMD(c, text, opts...)
	}
	return SendMD(c, text, opts...)
}
