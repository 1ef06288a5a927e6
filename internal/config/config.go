package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DiscordToken        string          `yaml:"discord_token"`
	DatabaseURL         string          `yaml:"database_url"`
	LogLevel            string          `yaml:"log_level"`
	OwnerID             string          `yaml:"owner_id"`
	SupportServerInvite string          `yaml:"support_server_invite"`
	StatusWebhook       string          `yaml:"status_webhook"`
	ConsoleWebhook      string          `yaml:"console_webhook"`
	Health              HealthConfig    `yaml:"health"`
	Highlight           HighlightConfig `yaml:"highlight"`
	Timers              TimersConfig    `yaml:"timers"`
	Cooldown            CooldownConfig  `yaml:"cooldown"`
}

type HealthConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

type HighlightConfig struct {
	ActivityTimeoutSeconds int `yaml:"activity_timeout_seconds"`
	FlushIntervalSeconds   int `yaml:"flush_interval_seconds"`
	HistoryLimit           int `yaml:"history_limit"`
	HistoryTruncate        int `yaml:"history_truncate"`
	MinWordLength          int `yaml:"min_word_length"`
	MaxWordLength          int `yaml:"max_word_length"`
}

type TimersConfig struct {
	PollIntervalSeconds int `yaml:"poll_interval_seconds"`
}

type CooldownConfig struct {
	Commands      int `yaml:"commands"`
	WindowSeconds int `yaml:"window_seconds"`
}

func DefaultConfig() Config {
	return Config{
		LogLevel:            "info",
		SupportServerInvite: "https://discord.gg/XkWXRJ9fMv",
		Health:              HealthConfig{Enabled: false, Addr: ":8080"},
		Highlight: HighlightConfig{
			ActivityTimeoutSeconds: 10,
			FlushIntervalSeconds:   20,
			HistoryLimit:           3,
			HistoryTruncate:        50,
			MinWordLength:          2,
			MaxWordLength:          20,
		},
		Timers:   TimersConfig{PollIntervalSeconds: 30},
		Cooldown: CooldownConfig{Commands: 5, WindowSeconds: 10},
	}
}

func Load() (Config, error) {
	cfg := DefaultConfig()

	_ = godotenv.Load()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&cfg)
	if cfg.DiscordToken == "" {
		return Config{}, errors.New("DISCORD_TOKEN is required")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("DATABASE_URL is required")
	}
	normalize(&cfg)

	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.DiscordToken = envString("DISCORD_TOKEN", cfg.DiscordToken)
	cfg.DatabaseURL = envString("DATABASE_URL", cfg.DatabaseURL)
	cfg.LogLevel = envString("LOG_LEVEL", cfg.LogLevel)
	cfg.OwnerID = envString("OWNER_ID", cfg.OwnerID)
	cfg.SupportServerInvite = envString("SUPPORT_SERVER_INVITE", cfg.SupportServerInvite)
	cfg.StatusWebhook = envString("STATUS_WEBHOOK", cfg.StatusWebhook)
	cfg.ConsoleWebhook = envString("CONSOLE_WEBHOOK", cfg.ConsoleWebhook)
	cfg.Health.Enabled = envBool("HEALTH_ENABLED", cfg.Health.Enabled)
	cfg.Health.Addr = envString("HEALTH_ADDR", cfg.Health.Addr)
	cfg.Highlight.ActivityTimeoutSeconds = envInt("ACTIVITY_TIMEOUT_SECONDS", cfg.Highlight.ActivityTimeoutSeconds)
	cfg.Highlight.FlushIntervalSeconds = envInt("FLUSH_INTERVAL_SECONDS", cfg.Highlight.FlushIntervalSeconds)
	cfg.Highlight.HistoryLimit = envInt("HISTORY_LIMIT", cfg.Highlight.HistoryLimit)
	cfg.Timers.PollIntervalSeconds = envInt("TIMERS_POLL_INTERVAL_SECONDS", cfg.Timers.PollIntervalSeconds)
	cfg.Cooldown.Commands = envInt("COOLDOWN_COMMANDS", cfg.Cooldown.Commands)
	cfg.Cooldown.WindowSeconds = envInt("COOLDOWN_WINDOW_SECONDS", cfg.Cooldown.WindowSeconds)
}

// normalize replaces non-positive tunables with their defaults.
func normalize(cfg *Config) {
	defaults := DefaultConfig()
	if cfg.Highlight.ActivityTimeoutSeconds <= 0 {
		cfg.Highlight.ActivityTimeoutSeconds = defaults.Highlight.ActivityTimeoutSeconds
	}
	if cfg.Highlight.FlushIntervalSeconds <= 0 {
		cfg.Highlight.FlushIntervalSeconds = defaults.Highlight.FlushIntervalSeconds
	}
	if cfg.Highlight.HistoryLimit < 0 {
		cfg.Highlight.HistoryLimit = defaults.Highlight.HistoryLimit
	}
	if cfg.Highlight.HistoryTruncate <= 0 {
		cfg.Highlight.HistoryTruncate = defaults.Highlight.HistoryTruncate
	}
	if cfg.Highlight.MinWordLength <= 0 {
		cfg.Highlight.MinWordLength = defaults.Highlight.MinWordLength
	}
	if cfg.Highlight.MaxWordLength < cfg.Highlight.MinWordLength {
		cfg.Highlight.MaxWordLength = defaults.Highlight.MaxWordLength
	}
	if cfg.Timers.PollIntervalSeconds <= 0 {
		cfg.Timers.PollIntervalSeconds = defaults.Timers.PollIntervalSeconds
	}
	if cfg.Cooldown.WindowSeconds <= 0 {
		cfg.Cooldown.WindowSeconds = defaults.Cooldown.WindowSeconds
	}
}

func BuildLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "json"
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.MessageKey = "message"
	cfg.EncoderConfig.LevelKey = "level"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(strings.ToLower(level)))

	return cfg.Build()
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func envString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		lower := strings.ToLower(value)
		return lower == "1" || lower == "true" || lower == "yes"
	}
	return fallback
}
