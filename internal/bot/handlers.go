package bot

import (
	"log/slog"
	"strings"

	"laundrybot/internal/logger"
	"laundrybot/internal/telegram"
	"laundrybot/internal/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// RegisterCommands binds the bot's slash commands to the registry and
// adopts its unknown-callback fallback for tokens that do not parse.
func (ctl *Controller) RegisterCommands(reg *telegram.Registry) {
	reg.RegisterCommand("/start", telegram.Command{
		Handler:     ctl.onStart,
		Description: "Check your laundry room",
	})
	reg.RegisterCommand("/help", telegram.Command{
		Handler:     ctl.onHelp,
		Description: "How to use the bot",
	})
	ctl.registry = reg
}

// Routes returns the non-command handlers, currently just the single
// callback route that classifies every pressed control.
func (ctl *Controller) Routes() []telegram.Route {
	return []telegram.Route{
		{Endpoint: tele.OnCallback, Handler: ctl.onCallback},
	}
}

func (ctl *Controller) onStart(c tele.Context) error {
	ctx := helpers.WithHandler(c, "start")
	view := ctl.Dispatch(ctx, senderID(c), Action{Kind: ActionStart})
	return helpers.EditOrSendMD(c, view.Text, view.Markup)
}

func (ctl *Controller) onHelp(c tele.Context) error {
	ctx := helpers.WithHandler(c, "help")
	view := ctl.Dispatch(ctx, senderID(c), Action{Kind: ActionShowHelp})
	return helpers.EditOrSendMD(c, view.Text, view.Markup)
}

// onCallback receives every control press, turns the token into an
// action and routes it through the controller. Tokens that do not parse
// are answered with the unknown-callback response and never reach the
// state machine.
func (ctl *Controller) onCallback(c tele.Context) error {
	token := callbackToken(c.Callback())
	action, ok := ParseToken(token)
	if !ok {
		ctx := helpers.WithHandler(c, "callback")
		logger.Debug(ctx, "bot", "callback.unknown",
			slog.String("cb_key", logger.SanitizeLimit(token, 128)),
		)
		return ctl.unknownCallback()(c)
	}

	ctx := helpers.WithHandler(c, handlerName(action))
	if err := c.Respond(&tele.CallbackResponse{}); err != nil {
		logger.Debug(ctx, "bot", "callback.ack.fail",
			slog.String("err", err.Error()),
		)
	}

	view := ctl.Dispatch(ctx, senderID(c), action)
	return helpers.EditOrSendMD(c, view.Text, view.Markup)
}

// unknownCallback resolves the fallback for unparseable tokens from the
// registry, so a replacement installed via SetUnknownCallback is honored.
func (ctl *Controller) unknownCallback() tele.HandlerFunc {
	if ctl.registry != nil {
		if h := ctl.registry.UnknownCallback(); h != nil {
			return h
		}
	}
	return func(c tele.Context) error {
		return c.Respond(&tele.CallbackResponse{Text: "Unsupported action"})
	}
}

func callbackToken(cb *tele.Callback) string {
	if cb == nil {
		return ""
	}
	if cb.Unique != "" {
		return cb.Unique
	}
	token := strings.TrimPrefix(cb.Data, "\f")
	if i := strings.IndexByte(token, '|'); i >= 0 {
		token = token[:i]
	}
	return token
}

func handlerName(a Action) string {
	switch a.Kind {
	case ActionSelectLevel:
		return "select_level"
	case ActionViewLevel:
		return "view_level"
	case ActionShowHelp:
		return "show_help"
	default:
		return "start"
	}
}

func senderID(c tele.Context) int64 {
	if u := c.Sender(); u != nil {
		return u.ID
	}
	return 0
}
