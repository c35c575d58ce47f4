// laundrybot answers questions about laundry machine availability over
// Telegram, backed by a per-level machine status service.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"laundrybot/config"
	"laundrybot/internal/bot"
	"laundrybot/internal/laundry"
	"laundrybot/internal/logger"
	"laundrybot/internal/ops"
	"laundrybot/internal/session"
	"laundrybot/internal/telegram"
	"laundrybot/internal/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

const defaultConfigPath = "config/config.yaml"

func main() {
	if err := run(); err != nil {
		log.Fatalf("laundrybot: %v", err)
	}
}

func run() error {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = defaultConfigPath
	}

	log.Printf("loading config: %s", cfgPath)
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	if err := logger.Init(cfg); err != nil {
		return err
	}
	defer func() {
		if err := logger.Shutdown(); err != nil {
			log.Printf("logger shutdown error: %v", err)
		}
	}()

	machines := make([]laundry.Machine, 0, len(cfg.Building.Machines))
	for _, m := range cfg.Building.Machines {
		machines = append(machines, laundry.Machine{ID: m.ID, Name: m.Name})
	}
	building := laundry.NewBuilding(cfg.Building.Levels, machines)

	fetchTimeout := time.Duration(cfg.Backend.TimeoutSeconds) * time.Second
	client := laundry.NewClient(laundry.ClientOptions{
		BaseURL:               cfg.Backend.BaseURL,
		Timeout:               fetchTimeout,
		Building:              building,
		DisplayUTCOffsetHours: cfg.Backend.DisplayUTCOffsetHours,
	})

	sessions := session.NewMemoryStore()
	dispatcher := sender.NewDispatcher(sender.Options{})

	controller := bot.NewController(bot.ControllerOptions{
		Building:     building,
		Fetcher:      client,
		Sessions:     sessions,
		FetchTimeout: fetchTimeout,
	})

	registry := telegram.NewRegistry()
	controller.RegisterCommands(registry)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.Ops.Listen != "" {
		opsServer := ops.NewServer(ops.Options{
			Listen:          cfg.Ops.Listen,
			RateLimitPerSec: cfg.Ops.RateLimitPerSec,
			Sessions:        sessions,
			Dispatcher:      dispatcher,
		})
		go func() {
			if err := opsServer.Run(ctx); err != nil {
				logger.Error(ctx, "ops", "serve.fail", slog.String("err", err.Error()))
			}
		}()
	}

	onLimited := func(c tele.Context) error {
		if c.Callback() != nil {
			return c.Respond(&tele.CallbackResponse{Text: "Too fast, give me a second"})
		}
		return nil
	}

	startedAt := time.Now()
	return telegram.RunTelegram(ctx, telegram.RunOptions{
		Config:      cfg,
		Registry:    registry,
		Dispatcher:  dispatcher,
		Middlewares: telegram.DefaultMiddlewares(cfg, onLimited),
		Routes:      controller.Routes(),
		OnStart: func(ctx context.Context, rt telegram.Runtime) error {
			logger.Info(ctx, "app", "ready",
				slog.Duration("startup_duration", logger.RoundMS(time.Since(startedAt))),
			)
			return nil
		},
		OnStop: func(ctx context.Context, rt telegram.Runtime) error {
			logger.Info(ctx, "app", "shutdown")
			return nil
		},
	})
}
