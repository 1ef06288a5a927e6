package config

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestLoadRequiresToken(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("DISCORD_TOKEN", "")
	t.Setenv("DATABASE_URL", "postgres://localhost/highlight")

	if _, err := Load(); err == nil {
		t.Fatalf("expected missing token error")
	}
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("discord_token: file-token\ndatabase_url: postgres://file/db\nhighlight:\n  activity_timeout_seconds: 4\ntimers:\n  poll_interval_seconds: 0\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("DISCORD_TOKEN", "env-token")
	t.Setenv("DATABASE_URL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DiscordToken != "env-token" {
		t.Fatalf("expected env token, got %q", cfg.DiscordToken)
	}
	if cfg.DatabaseURL != "postgres://file/db" {
		t.Fatalf("expected file database url, got %q", cfg.DatabaseURL)
	}
	if cfg.Highlight.ActivityTimeoutSeconds != 4 {
		t.Fatalf("expected activity timeout 4, got %d", cfg.Highlight.ActivityTimeoutSeconds)
	}
	if cfg.Timers.PollIntervalSeconds != 30 {
		t.Fatalf("expected poll interval default 30, got %d", cfg.Timers.PollIntervalSeconds)
	}
	if cfg.Highlight.FlushIntervalSeconds != 20 {
		t.Fatalf("expected flush interval 20, got %d", cfg.Highlight.FlushIntervalSeconds)
	}
}

func TestParseLevel(t *testing.T) {
	if parseLevel("warn") != zapcore.WarnLevel {
		t.Fatalf("expected warn level")
	}
	if parseLevel("verbose") != zapcore.InfoLevel {
		t.Fatalf("expected info fallback")
	}
}
