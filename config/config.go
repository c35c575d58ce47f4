package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig holds Telegram bot related settings.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// BackendConfig points at the machine-status service.
type BackendConfig struct {
	BaseURL        string `yaml:"base_url" envconfig:"BACKEND_BASE_URL"`
	TimeoutSeconds int    `yaml:"timeout_seconds" envconfig:"BACKEND_TIMEOUT_SECONDS"`
	// DisplayUTCOffsetHours fixes the timezone used for observation
	// timestamps shown to users, independent of the host clock zone.
	// Zero selects the default of +8, the building's locale.
	DisplayUTCOffsetHours int `yaml:"display_utc_offset_hours" envconfig:"BACKEND_DISPLAY_UTC_OFFSET_HOURS"`
}

// MachineConfig describes one tracked machine and its display name.
type MachineConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// BuildingConfig declares the laundry rooms served by this deployment.
type BuildingConfig struct {
	Levels   []int           `yaml:"levels"`
	Machines []MachineConfig `yaml:"machines"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	Format  string `yaml:"format"`
	Dir     string `yaml:"dir"`
	BotFile string `yaml:"bot_file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile"`
}

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

const (
	// UpdateCallback identifies callback updates for rate limit exclusions.
	UpdateCallback = "callback"
	// UpdateMessage identifies message updates for rate limit exclusions.
	UpdateMessage = "message"
)

// RateLimitConfig holds settings for per-user rate limiting.
// ExcludeUpdates accepts update types to bypass limiting:
// - "callback": Telegram callback button presses
// - "message": standard text messages
type RateLimitConfig struct {
	IntervalMS     int      `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
	Burst          int      `yaml:"burst" envconfig:"RATE_LIMIT_BURST"`
	ExcludeUpdates []string `yaml:"exclude_updates" envconfig:"RATE_LIMIT_EXCLUDE_UPDATES"`
}

// OpsConfig controls the operational HTTP endpoint. Empty listen disables it.
type OpsConfig struct {
	Listen          string  `yaml:"listen" envconfig:"OPS_LISTEN"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec" envconfig:"OPS_RATE_LIMIT_PER_SEC"`
}

// Config aggregates the whole bot configuration.
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Backend   BackendConfig   `yaml:"backend"`
	Building  BuildingConfig  `yaml:"building"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Ops       OpsConfig       `yaml:"ops"`
}

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates required fields and fills defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required")
	}

	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if rm == "" {
		rm = RunModeLongpoll
	}
	if rm == "polling" { // accept alias
		rm = RunModeLongpoll
	}
	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.URL) == "" {
			return fmt.Errorf("webhook.url is required when telegram.run_mode is 'webhook'")
		}
		if strings.TrimSpace(cfg.Webhook.Listen) == "" {
			return fmt.Errorf("webhook.listen is required when telegram.run_mode is 'webhook'")
		}
		if cfg.Webhook.Port <= 0 {
			return fmt.Errorf("webhook.port must be > 0 when telegram.run_mode is 'webhook'")
		}
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0")
		}
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	cfg.Telegram.RunMode = rm

	if strings.TrimSpace(cfg.Backend.BaseURL) == "" {
		return fmt.Errorf("backend.base_url is required")
	}
	cfg.Backend.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.Backend.BaseURL), "/")
	if cfg.Backend.TimeoutSeconds <= 0 {
		cfg.Backend.TimeoutSeconds = 10
	}
	if cfg.Backend.DisplayUTCOffsetHours == 0 {
		cfg.Backend.DisplayUTCOffsetHours = 8
	}

	if err := normalizeBuilding(&cfg.Building); err != nil {
		return err
	}

	if cfg.RateLimit.Burst <= 0 {
		cfg.RateLimit.Burst = 1
	}
	allowed := map[string]struct{}{
		UpdateCallback: {},
		UpdateMessage:  {},
	}
	for i, v := range cfg.RateLimit.ExcludeUpdates {
		key := strings.ToLower(strings.TrimSpace(v))
		if key == "" {
			continue
		}
		if _, ok := allowed[key]; !ok {
			return fmt.Errorf("invalid rate_limit.exclude_updates value %q; allowed: callback, message", v)
		}
		cfg.RateLimit.ExcludeUpdates[i] = key
	}

	if cfg.Ops.Listen != "" && cfg.Ops.RateLimitPerSec <= 0 {
		cfg.Ops.RateLimitPerSec = 10
	}

	return nil
}

func normalizeBuilding(b *BuildingConfig) error {
	if len(b.Levels) == 0 {
		b.Levels = []int{5, 8, 11, 14, 17}
	}
	seen := make(map[int]struct{}, len(b.Levels))
	for _, lvl := range b.Levels {
		if lvl <= 0 {
			return fmt.Errorf("building.levels entries must be positive, got %d", lvl)
		}
		if _, dup := seen[lvl]; dup {
			return fmt.Errorf("duplicate building level %d", lvl)
		}
		seen[lvl] = struct{}{}
	}

	if len(b.Machines) == 0 {
		b.Machines = []MachineConfig{
			{ID: "washer1", Name: "Washer 1"},
			{ID: "washer2", Name: "Washer 2"},
			{ID: "dryer1", Name: "Dryer 1"},
			{ID: "dryer2", Name: "Dryer 2"},
		}
	}
	ids := make(map[string]struct{}, len(b.Machines))
	for i, m := range b.Machines {
		id := strings.TrimSpace(m.ID)
		if id == "" {
			return fmt.Errorf("building.machines[%d].id is required", i)
		}
		if _, dup := ids[id]; dup {
			return fmt.Errorf("duplicate machine id %q", id)
		}
		ids[id] = struct{}{}
		b.Machines[i].ID = id
		if strings.TrimSpace(m.Name) == "" {
			b.Machines[i].Name = id
		}
	}
	return nil
}
