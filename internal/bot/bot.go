package bot

import (
	"context"
	"fmt"
	"time"

	"highlight-bot/internal/analytics"
	"highlight-bot/internal/config"
	"highlight-bot/internal/modules/console"
	"highlight-bot/internal/modules/highlight"
	"highlight-bot/internal/storage"
	"highlight-bot/internal/timers"
	"highlight-bot/internal/utils"
	"highlight-bot/internal/wordcache"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

type webhook struct {
	id    string
	token string
}

type Bot struct {
	cfg         config.Config
	logger      *zap.Logger
	store       *storage.Store
	cache       *wordcache.Cache
	batch       *highlight.Batch
	analytics   *analytics.Service
	console     *console.Logger
	session     *discordgo.Session
	gateway     sessionGateway
	highlight   *highlight.Module
	words       *highlight.Words
	snooze      *highlight.Snooze
	cooldown    *utils.Cooldown
	statusHook  webhook
	consoleHook webhook
	startedAt   time.Time
	stop        func()
	ctx         context.Context
	cancel      context.CancelFunc
}

// New wires the highlight modules onto a fresh Discord session. stop is called
// by the owner shutdown command.
func New(cfg config.Config, logger *zap.Logger, store *storage.Store, cache *wordcache.Cache, scheduler *timers.Scheduler, batch *highlight.Batch, analyticsService *analytics.Service, consoleLogger *console.Logger, stop func()) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, err
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsGuildMessageTyping |
		discordgo.IntentsMessageContent

	ctx, cancel := context.WithCancel(context.Background())
	b := &Bot{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		cache:     cache,
		batch:     batch,
		analytics: analyticsService,
		console:   consoleLogger,
		session:   session,
		gateway:   sessionGateway{session: session},
		cooldown:  utils.NewCooldown(cfg.Cooldown.Commands, time.Duration(cfg.Cooldown.WindowSeconds)*time.Second),
		startedAt: time.Now(),
		stop:      stop,
		ctx:       ctx,
		cancel:    cancel,
	}

	b.words = highlight.NewWords(store, cache, cfg.Highlight.MinWordLength, cfg.Highlight.MaxWordLength)
	b.snooze = highlight.NewSnooze(store, scheduler)
	scheduler.Handle(highlight.DisabledEvent, b.snooze.Expired)
	b.highlight = highlight.New(highlight.Config{
		ActivityTimeout: time.Duration(cfg.Highlight.ActivityTimeoutSeconds) * time.Second,
		HistoryLimit:    cfg.Highlight.HistoryLimit,
		HistoryTruncate: cfg.Highlight.HistoryTruncate,
	}, cache, store, store, b.gateway, batch, logger)

	b.statusHook = b.parseWebhook("status", cfg.StatusWebhook)
	b.consoleHook = b.parseWebhook("console", cfg.ConsoleWebhook)
	if b.console != nil {
		b.console.SetNotifier(b.notifyWebhook)
	}

	return b, nil
}

func (b *Bot) Start() error {
	b.session.AddHandler(b.onConnect)
	b.session.AddHandler(b.onDisconnect)
	b.session.AddHandler(b.onResumed)
	b.session.AddHandler(b.onReady)
	b.session.AddHandler(b.onMessageCreate)
	b.session.AddHandler(b.onTypingStart)
	b.session.AddHandler(b.onMessageReactionAdd)
	b.session.AddHandler(b.onInteractionCreate)

	if err := b.session.Open(); err != nil {
		return err
	}

	if err := b.registerCommands(); err != nil {
		return err
	}

	return nil
}

// Close stops receiving gateway events, then lets pending notification
// attempts finish, bounded by ctx. Delivery only needs REST.
func (b *Bot) Close(ctx context.Context) {
	if b.session != nil {
		_ = b.session.Close()
	}

	done := make(chan struct{})
	go func() {
		b.highlight.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		b.logger.Warn("highlight attempts still running at shutdown")
	}
	b.cancel()
}

func (b *Bot) onConnect(session *discordgo.Session, event *discordgo.Connect) {
	b.console.Log(b.ctx, console.LevelInfo, "connect", "Connected to Discord")
}

func (b *Bot) onDisconnect(session *discordgo.Session, event *discordgo.Disconnect) {
	b.console.Log(context.Background(), console.LevelInfo, "disconnect", "Disconnected from Discord")
}

func (b *Bot) onResumed(session *discordgo.Session, event *discordgo.Resumed) {
	b.console.Log(b.ctx, console.LevelInfo, "resumed", "Resumed connection with Discord")
}

func (b *Bot) onReady(session *discordgo.Session, event *discordgo.Ready) {
	b.logger.Info("discord ready", zap.String("user", session.State.User.Username), zap.Int("guilds", len(event.Guilds)))
	b.console.Log(b.ctx, console.LevelInfo, "ready", "Recevied READY event")
}

func (b *Bot) onMessageCreate(session *discordgo.Session, event *discordgo.MessageCreate) {
	msg := event.Message
	if msg == nil || msg.Author == nil {
		return
	}

	b.highlight.HandleMessage(b.ctx, msg)
	if msg.Author.Bot {
		return
	}
	b.handleText(msg)
}

func (b *Bot) onTypingStart(session *discordgo.Session, event *discordgo.TypingStart) {
	b.highlight.RecordActivity(event.ChannelID, event.UserID)
}

func (b *Bot) onMessageReactionAdd(session *discordgo.Session, event *discordgo.MessageReactionAdd) {
	b.highlight.RecordActivity(event.ChannelID, event.UserID)
}

func (b *Bot) parseWebhook(name, raw string) webhook {
	if raw == "" {
		return webhook{}
	}
	id, token, err := console.ParseWebhookURL(raw)
	if err != nil {
		b.logger.Warn("ignoring webhook", zap.String("webhook", name), zap.Error(err))
		return webhook{}
	}
	return webhook{id: id, token: token}
}

// notifyWebhook sends INFO events to the status webhook and everything else to
// the console webhook.
func (b *Bot) notifyWebhook(ctx context.Context, entry console.Entry) {
	hook := b.statusHook
	if entry.Level != console.LevelInfo {
		hook = b.consoleHook
	}
	if hook.id == "" {
		return
	}

	params := &discordgo.WebhookParams{AllowedMentions: &discordgo.MessageAllowedMentions{}}
	if entry.Level == console.LevelInfo {
		params.Content = fmt.Sprintf("`%s` %s", entry.CreatedAt.UTC().Format(time.TimeOnly), entry.Details)
	} else {
		params.Embeds = []*discordgo.MessageEmbed{
			commandEmbed(":warning: Error", utils.Truncate(entry.Details, 4096), colorGold, []*discordgo.MessageEmbedField{
				{Name: "Event", Value: entry.Event, Inline: true},
				{Name: "Level", Value: entry.Level, Inline: true},
			}),
		}
	}

	go func() {
		if _, err := b.session.WebhookExecute(hook.id, hook.token, false, params); err != nil {
			b.logger.Warn("webhook execute failed", zap.String("event", entry.Event), zap.Error(err))
		}
	}()
}

// commandFailed reports an unexpected command error to the console and
// returns the reply shown to the user.
func (b *Bot) commandFailed(inv invocation, err error) reply {
	details := fmt.Sprintf("Command: `%s`\nUser: `%s`\nGuild: `%s`\nChannel: `%s`\n```%v```", inv.command, inv.userID, inv.guildID, inv.channelID, err)
	b.console.Log(inv.ctx, console.LevelCrit, "command_error", details)

	description := "An unexpected error occurred while running this command."
	if b.cfg.SupportServerInvite != "" {
		description += " If this keeps happening, let us know in the [support server](" + b.cfg.SupportServerInvite + ")."
	}
	return reply{embed: commandEmbed(":warning: Error", description, colorRed, nil), lifetime: longReplyLifetime}
}
