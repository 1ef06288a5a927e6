package console

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	LevelInfo = "INFO"
	LevelWarn = "WARN"
	LevelCrit = "CRIT"
)

var ErrInvalidWebhook = errors.New("console: invalid webhook url")

type Entry struct {
	Level     string
	Event     string
	Details   string
	CreatedAt time.Time
}

// Logger records operational events (gateway status, command failures) and
// forwards them to an optional notifier such as a Discord webhook.
type Logger struct {
	logger *zap.Logger
	notify func(context.Context, Entry)
}

func NewLogger(logger *zap.Logger) *Logger {
	return &Logger{logger: logger}
}

func (l *Logger) SetNotifier(notify func(context.Context, Entry)) {
	l.notify = notify
}

func (l *Logger) Log(ctx context.Context, level, event, details string) {
	entry := Entry{
		Level:     level,
		Event:     event,
		Details:   details,
		CreatedAt: time.Now(),
	}
	if l.notify != nil {
		l.notify(ctx, entry)
	}

	fields := []zap.Field{zap.String("level", level), zap.String("event", event), zap.String("details", details)}
	switch level {
	case LevelCrit:
		l.logger.Error("console", fields...)
	case LevelWarn:
		l.logger.Warn("console", fields...)
	default:
		l.logger.Info("console", fields...)
	}
}

// ParseWebhookURL extracts the id and token from a Discord webhook URL.
func ParseWebhookURL(raw string) (id, token string, err error) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", "", err
	}
	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	for i := 0; i+2 < len(parts); i++ {
		if parts[i] == "webhooks" {
			return parts[i+1], parts[i+2], nil
		}
	}
	return "", "", ErrInvalidWebhook
}
