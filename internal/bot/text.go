package bot

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

var (
	userMentionRegex    = regexp.MustCompile(`^<@!?(\d+)>$`)
	channelMentionRegex = regexp.MustCompile(`^<#(\d+)>$`)
	snowflakeRegex      = regexp.MustCompile(`^\d{15,21}$`)
)

// stripMentionPrefix reports whether content is addressed to the bot and
// returns what follows the mention.
func stripMentionPrefix(content, botID string) (string, bool) {
	content = strings.TrimSpace(content)
	for _, prefix := range []string{"<@" + botID + ">", "<@!" + botID + ">"} {
		if rest, ok := strings.CutPrefix(content, prefix); ok {
			return strings.TrimSpace(rest), true
		}
	}
	return "", false
}

func splitCommand(input string) (name, args string) {
	idx := strings.IndexFunc(input, unicode.IsSpace)
	if idx < 0 {
		return input, ""
	}
	return input[:idx], strings.TrimSpace(input[idx:])
}

// parseMentionTarget resolves user and channel mentions. Bare ids are left to
// the caller since they need a state lookup.
func parseMentionTarget(arg string) (blockTarget, bool) {
	arg = strings.TrimSpace(arg)
	if m := userMentionRegex.FindStringSubmatch(arg); m != nil {
		return blockTarget{userID: m[1]}, true
	}
	if m := channelMentionRegex.FindStringSubmatch(arg); m != nil {
		return blockTarget{channelID: m[1]}, true
	}
	return blockTarget{}, false
}

func (b *Bot) resolveTarget(guildID, arg string) (blockTarget, bool) {
	if target, ok := parseMentionTarget(arg); ok {
		return target, true
	}
	arg = strings.TrimSpace(arg)
	if !snowflakeRegex.MatchString(arg) {
		return blockTarget{}, false
	}
	if channel, err := b.session.State.Channel(arg); err == nil && channel.GuildID == guildID {
		return blockTarget{channelID: arg}, true
	}
	return blockTarget{userID: arg}, true
}

func (b *Bot) handleText(msg *discordgo.Message) {
	botID := b.session.State.User.ID
	rest, ok := stripMentionPrefix(msg.Content, botID)
	if !ok {
		return
	}
	if rest == "" {
		b.sendReply(msg, reply{content: ":wave: Hello there!\n In order to get more info about me type: <@" + botID + "> help."}, false)
		return
	}

	name, args := splitCommand(rest)
	spec, ok := lookupCommand(name)
	if !ok {
		return
	}
	if spec.ownerOnly && (b.cfg.OwnerID == "" || msg.Author.ID != b.cfg.OwnerID) {
		return
	}

	inv := invocation{
		ctx:       b.ctx,
		command:   spec.name,
		userID:    msg.Author.ID,
		guildID:   msg.GuildID,
		channelID: msg.ChannelID,
	}
	result, ok := b.precheck(inv, spec)
	if ok {
		var err error
		result, err = b.runText(inv, spec, args)
		if err != nil {
			result = b.commandFailed(inv, err)
		}
	}
	b.sendReply(msg, result, spec.private)
}

func (b *Bot) runText(inv invocation, spec commandSpec, args string) (reply, error) {
	switch spec.name {
	case "add", "remove":
		if args == "" {
			return usageReply(spec), nil
		}
		if spec.name == "add" {
			return b.addWord(inv, args)
		}
		return b.removeWord(inv, args)
	case "show":
		return b.showWords(inv)
	case "clear":
		return b.clearWords(inv)
	case "import":
		if args == "" {
			return b.importMenu(inv)
		}
		return b.importWords(inv, args)
	case "block", "unblock":
		if args == "" {
			return usageReply(spec), nil
		}
		target, ok := b.resolveTarget(inv.guildID, args)
		if !ok {
			return text("I could not find that user or channel."), nil
		}
		if spec.name == "block" {
			return b.block(inv, target)
		}
		return b.unblock(inv, target)
	case "blocked":
		if strings.EqualFold(args, "clear") {
			return b.clearBlocked(inv)
		}
		return b.showBlocked(inv)
	case "enable":
		return b.enable(inv)
	case "disable":
		return b.disable(inv, args)
	case "timezone":
		if args == "" {
			return b.timezone(inv, nil)
		}
		offset, err := strconv.Atoi(strings.TrimPrefix(args, "+"))
		if err != nil {
			return text("Your UTC offset must be a whole number of hours."), nil
		}
		return b.timezone(inv, &offset)
	case "forget":
		return b.forgetPrompt(inv)
	case "stats":
		return b.stats(inv)
	case "ping":
		return b.ping(inv)
	case "uptime":
		return b.uptime(inv)
	case "invite":
		return b.invite(inv)
	case "help":
		return b.help(inv, args)
	case "sql":
		return b.sql(inv, args)
	case "process":
		return b.process(inv)
	case "shutdown":
		return b.shutdown(inv)
	}
	return reply{}, nil
}

func usageReply(spec commandSpec) reply {
	return text("Usage: `" + commandUsage(spec) + "`")
}

// sendReply answers a text command. Replies to private commands in a guild
// are short lived and the invoking message is removed.
func (b *Bot) sendReply(msg *discordgo.Message, r reply, private bool) {
	if r.content == "" && r.embed == nil && r.file == nil {
		return
	}
	send := &discordgo.MessageSend{
		Content:         r.content,
		Components:      r.components,
		AllowedMentions: &discordgo.MessageAllowedMentions{},
	}
	if r.embed != nil {
		send.Embeds = []*discordgo.MessageEmbed{r.embed}
	}
	if r.file != nil {
		send.Files = []*discordgo.File{r.file}
	}

	sent, err := b.session.ChannelMessageSendComplex(msg.ChannelID, send)
	if err != nil {
		b.logger.Warn("reply failed", zap.String("channel_id", msg.ChannelID), zap.Error(err))
		return
	}
	if !private || msg.GuildID == "" {
		return
	}

	if err := b.session.ChannelMessageDelete(msg.ChannelID, msg.ID); err != nil {
		b.logger.Debug("delete command message failed", zap.Error(err))
	}
	lifetime := r.lifetime
	if lifetime <= 0 {
		lifetime = replyLifetime
	}
	time.AfterFunc(lifetime, func() {
		_ = b.session.ChannelMessageDelete(sent.ChannelID, sent.ID)
	})
}
