package highlight

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"highlight-bot/internal/storage"
	"highlight-bot/internal/wordcache"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Gateway is the slice of the Discord session the pipeline needs.
type Gateway interface {
	Member(guildID, userID string) (*discordgo.Member, error)
	GuildName(guildID string) string
	ChannelAncestors(channelID string) []string
	CanRead(userID, channelID string) (bool, error)
	History(channelID, beforeID string, limit int) ([]*discordgo.Message, error)
	SendDM(userID string, message *discordgo.MessageSend) error
}

type OwnerLookup interface {
	WordOwners(ctx context.Context, guildID, word string) ([]string, error)
}

type SettingsLookup interface {
	GetSettings(ctx context.Context, userID string) (storage.UserSettings, error)
}

type Recorder interface {
	Record(highlight storage.Highlight)
}

type Config struct {
	ActivityTimeout time.Duration
	HistoryLimit    int
	HistoryTruncate int
}

type Module struct {
	cfg      Config
	cache    *wordcache.Cache
	owners   OwnerLookup
	settings SettingsLookup
	gateway  Gateway
	recorder Recorder
	activity *Activity
	clock    Clock
	logger   *zap.Logger
	wg       sync.WaitGroup
}

func New(cfg Config, cache *wordcache.Cache, owners OwnerLookup, settings SettingsLookup, gateway Gateway, recorder Recorder, logger *zap.Logger) *Module {
	if cfg.ActivityTimeout <= 0 {
		cfg.ActivityTimeout = 10 * time.Second
	}
	if cfg.HistoryTruncate <= 0 {
		cfg.HistoryTruncate = 50
	}
	return &Module{
		cfg:      cfg,
		cache:    cache,
		owners:   owners,
		settings: settings,
		gateway:  gateway,
		recorder: recorder,
		activity: NewActivity(realClock{}),
		clock:    realClock{},
		logger:   logger,
	}
}

func (m *Module) WithClock(clock Clock) {
	m.clock = clock
	m.activity = NewActivity(clock)
}

// RecordActivity notes that userID interacted with channelID just now.
func (m *Module) RecordActivity(channelID, userID string) {
	m.activity.Record(channelID, userID, m.clock.Now())
}

// HandleMessage counts the message as activity of its author, then scans it
// for highlight words and starts one independent notification attempt per
// matched owner. It returns how many owners were queued.
func (m *Module) HandleMessage(ctx context.Context, msg *discordgo.Message) int {
	if msg == nil || msg.Author == nil {
		return 0
	}
	arrived := m.clock.Now()
	m.activity.Record(msg.ChannelID, msg.Author.ID, arrived)
	if msg.GuildID == "" || msg.Author.Bot {
		return 0
	}

	words := m.cache.Candidates(msg.GuildID, strings.ToLower(msg.Content))
	if len(words) == 0 {
		return 0
	}

	seen := make(map[string]struct{})
	for _, word := range words {
		owners, err := m.owners.WordOwners(ctx, msg.GuildID, word)
		if err != nil {
			m.logger.Error("word owner lookup failed", zap.String("guild_id", msg.GuildID), zap.String("word", word), zap.Error(err))
			continue
		}
		for _, owner := range owners {
			if _, ok := seen[owner]; ok || owner == msg.Author.ID {
				continue
			}
			seen[owner] = struct{}{}

			m.wg.Add(1)
			go m.notify(ctx, msg, arrived, owner, word)
		}
	}
	return len(seen)
}

// Wait blocks until every queued notification attempt has finished.
func (m *Module) Wait() {
	m.wg.Wait()
}

func (m *Module) notify(ctx context.Context, msg *discordgo.Message, arrived time.Time, userID, word string) {
	defer m.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("highlight panic", zap.String("user_id", userID), zap.String("message_id", msg.ID), zap.Any("panic", r))
		}
	}()

	if err := m.deliver(ctx, msg, arrived, userID, word); err != nil {
		m.logger.Error("highlight delivery failed",
			zap.String("guild_id", msg.GuildID),
			zap.String("channel_id", msg.ChannelID),
			zap.String("user_id", userID),
			zap.Error(err))
	}
}

func (m *Module) deliver(ctx context.Context, msg *discordgo.Message, arrived time.Time, userID, word string) error {
	fields := []zap.Field{zap.String("guild_id", msg.GuildID), zap.String("user_id", userID)}

	if _, err := m.gateway.Member(msg.GuildID, userID); err != nil {
		m.logger.Info("highlight owner not in guild", append(fields, zap.Error(err))...)
		return nil
	}

	settings, err := m.settings.GetSettings(ctx, userID)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if settings.Disabled || settings.IsBlockedUser(msg.Author.ID) {
		return nil
	}
	if settings.IsBlockedChannel(append([]string{msg.ChannelID}, m.gateway.ChannelAncestors(msg.ChannelID)...)...) {
		return nil
	}
	canRead, err := m.gateway.CanRead(userID, msg.ChannelID)
	if err != nil {
		return fmt.Errorf("channel permissions: %w", err)
	}
	if !canRead {
		return nil
	}

	notification := Notification{
		GuildName: m.gateway.GuildName(msg.GuildID),
		Word:      word,
		Message:   msg,
		Truncate:  m.cfg.HistoryTruncate,
	}
	if m.cfg.HistoryLimit > 0 {
		history, err := m.gateway.History(msg.ChannelID, msg.ID, m.cfg.HistoryLimit)
		if err != nil {
			m.logger.Debug("history fetch failed", append(fields, zap.Error(err))...)
		}
		notification.History = history
	}
	send := notification.Build()

	if m.activity.Wait(ctx, msg.ChannelID, userID, arrived, m.cfg.ActivityTimeout) {
		m.logger.Debug("highlight suppressed by activity", fields...)
		return nil
	}
	if ctx.Err() != nil {
		return nil
	}

	if err := m.gateway.SendDM(userID, send); err != nil {
		if errors.Is(err, ErrDirectMessagesDisabled) {
			m.logger.Warn("cannot DM highlight owner", fields...)
			return nil
		}
		return fmt.Errorf("send direct message: %w", err)
	}

	m.recorder.Record(storage.Highlight{
		GuildID:   msg.GuildID,
		ChannelID: msg.ChannelID,
		MessageID: msg.ID,
		AuthorID:  msg.Author.ID,
		UserID:    userID,
		Word:      word,
		InvokedAt: messageTime(msg, arrived),
	})
	return nil
}

func messageTime(msg *discordgo.Message, fallback time.Time) time.Time {
	if msg.Timestamp.IsZero() {
		return fallback
	}
	return msg.Timestamp
}
