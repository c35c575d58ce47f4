package telegram

import (
	"context"
	"sort"

	"laundrybot/internal/logger"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// Command represents a bot command with its handler and menu metadata.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	Hidden      bool
}

// Registry holds the bot's commands and the fallback for callbacks that
// resolve to no known action.
type Registry struct {
	commands        map[string]Command
	unknownCallback tele.HandlerFunc
}

// NewRegistry creates an empty Registry with a default callback fallback.
func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]Command),
		unknownCallback: func(c tele.Context) error {
			return c.Respond(&tele.CallbackResponse{Text: "Unsupported action"})
		},
	}
}

// RegisterCommand adds a new command. Invalid or duplicate registrations
// are logged and skipped rather than failing startup.
func (r *Registry) RegisterCommand(name string, cmd Command) {
	if r == nil || name == "" || cmd.Handler == nil || cmd.Description == "" {
		logger.Warn(context.Background(), "tg.wire", "register.command.skip",
			slog.String("name", name),
			slog.String("cause", "invalid"),
		)
		return
	}
	if name[0] != '/' {
		logger.Warn(context.Background(), "tg.wire", "register.command.skip",
			slog.String("name", name),
			slog.String("cause", "no_slash_prefix"),
		)
		return
	}
	if _, exists := r.commands[name]; exists {
		logger.Warn(context.Background(), "tg.wire", "register.command.duplicate",
			slog.String("name", name),
		)
		return
	}
	r.commands[name] = cmd
}

// Commands returns all registered commands.
func (r *Registry) Commands() map[string]Command {
	return r.commands
}

// ListCommands returns the visible commands sorted for the bot menu.
func (r *Registry) ListCommands() []tele.Command {
	var list []tele.Command
	for cmd, meta := range r.commands {
		if meta.Hidden {
			continue
		}
		list = append(list, tele.Command{Text: cmd, Description: meta.Description})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Text < list[j].Text })
	return list
}

// SetUnknownCallback replaces the fallback handler for unknown callbacks.
func (r *Registry) SetUnknownCallback(h tele.HandlerFunc) {
	if h != nil {
		r.unknownCallback = h
	}
}

// UnknownCallback returns the current fallback callback handler.
func (r *Registry) UnknownCallback() tele.HandlerFunc {
	return r.unknownCallback
}

// InitBotCommands sets the Telegram command menu from the registry.
func InitBotCommands(bot *tele.Bot, reg *Registry) {
	if err := bot.SetCommands(reg.ListCommands()); err != nil {
		logger.Error(context.Background(), "tg.wire", "register.commands.set_failed",
			slog.String("err", err.Error()),
		)
	}
}
