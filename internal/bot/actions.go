package bot

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"highlight-bot/internal/modules/highlight"
	"highlight-bot/internal/storage"
	"highlight-bot/internal/utils"

	"github.com/bwmarrin/discordgo"
	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
)

const (
	colorBlurple = 0x5865F2
	colorGold    = 0xF1C40F
	colorRed     = 0xED4245

	replyLifetime     = 5 * time.Second
	longReplyLifetime = 10 * time.Second
	menuLifetime      = 30 * time.Second
)

const errDMsClosed = "You need to have DMs enabled for highlight notifications to work."

// invocation is one command call, normalized across slash and text entry points.
type invocation struct {
	ctx       context.Context
	command   string
	userID    string
	guildID   string
	channelID string
}

// reply is what a command sends back. lifetime only applies to text commands.
type reply struct {
	content    string
	embed      *discordgo.MessageEmbed
	components []discordgo.MessageComponent
	file       *discordgo.File
	lifetime   time.Duration
}

func text(content string) reply {
	return reply{content: content, lifetime: replyLifetime}
}

type blockTarget struct {
	userID    string
	channelID string
}

func (t blockTarget) mention() string {
	if t.userID != "" {
		return "<@" + t.userID + ">"
	}
	return "<#" + t.channelID + ">"
}

func (b *Bot) addWord(inv invocation, word string) (reply, error) {
	added, err := b.words.Add(inv.ctx, inv.userID, inv.guildID, word)
	switch {
	case errors.Is(err, highlight.ErrWordHasMentions):
		return text("Your highlight word cannot contain any mentions."), nil
	case errors.Is(err, highlight.ErrWordTooShort):
		return text(fmt.Sprintf("Your highlight word must contain at least %s.", english.Plural(b.cfg.Highlight.MinWordLength, "character", ""))), nil
	case errors.Is(err, highlight.ErrWordTooLong):
		return text(fmt.Sprintf("Your highlight word cannot contain more than %s.", english.Plural(b.cfg.Highlight.MaxWordLength, "character", ""))), nil
	case errors.Is(err, storage.ErrDuplicateWord):
		return text("You cannot add the same highlight word multiple times."), nil
	case err != nil:
		return reply{}, err
	}

	content := fmt.Sprintf(":white_check_mark: Added `%s` to your highlight list.", added.Word)
	if b.gateway.DirectMessagesClosed(inv.userID) {
		content = errDMsClosed + "\n" + content
	}
	return text(content), nil
}

func (b *Bot) removeWord(inv invocation, word string) (reply, error) {
	removed, err := b.words.Remove(inv.ctx, inv.userID, inv.guildID, word)
	if errors.Is(err, storage.ErrWordNotFound) {
		return text("This word is not registered as a highlight word."), nil
	}
	if err != nil {
		return reply{}, err
	}
	return text(fmt.Sprintf(":white_check_mark: Removed `%s` from your highlight list.", removed.Word)), nil
}

func (b *Bot) showWords(inv invocation) (reply, error) {
	words, err := b.words.List(inv.ctx, inv.userID, inv.guildID)
	if err != nil {
		return reply{}, err
	}
	if len(words) == 0 {
		return text("You have no highlight words in this server."), nil
	}
	lines := make([]string, 0, len(words))
	for _, word := range words {
		lines = append(lines, word.Word)
	}
	embed := commandEmbed("Highlight Words", utils.Truncate(strings.Join(lines, "\n"), 4096), colorBlurple, nil)
	embed.Footer = &discordgo.MessageEmbedFooter{Text: english.Plural(len(words), "word", "")}
	return reply{embed: embed, lifetime: longReplyLifetime}, nil
}

func (b *Bot) clearWords(inv invocation) (reply, error) {
	if _, err := b.words.Clear(inv.ctx, inv.userID, inv.guildID); err != nil {
		return reply{}, err
	}
	return text(":white_check_mark: Your highlight list has been cleared in this server."), nil
}

func (b *Bot) importWords(inv invocation, fromGuildID string) (reply, error) {
	imported, err := b.words.Import(inv.ctx, inv.userID, fromGuildID, inv.guildID)
	if errors.Is(err, highlight.ErrSameGuild) {
		return text("You cannot import words from this guild, it must be another guild."), nil
	}
	if err != nil {
		return reply{}, err
	}
	if len(imported) == 0 {
		return text("You have no words to transfer from this server."), nil
	}
	return text(fmt.Sprintf(":white_check_mark: Imported %s from that server.", english.Plural(len(imported), "highlight word", ""))), nil
}

// importMenu offers the guilds the user shares with the bot as import sources.
func (b *Bot) importMenu(inv invocation) (reply, error) {
	var options []discordgo.SelectMenuOption
	for _, guild := range b.session.State.Guilds {
		if guild.ID == inv.guildID {
			continue
		}
		if _, err := b.session.State.Member(guild.ID, inv.userID); err != nil {
			continue
		}
		options = append(options, discordgo.SelectMenuOption{
			Label: utils.Truncate(guild.Name, 100),
			Value: guild.ID,
		})
		if len(options) == 25 {
			break
		}
	}
	if len(options) == 0 {
		return text("There are no other servers we share to import from."), nil
	}
	return reply{
		content: "Choose the server to import your highlight words from.",
		components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.SelectMenu{
					CustomID:    customID("import", inv.userID),
					Placeholder: "Select a server",
					Options:     options,
				},
			}},
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.Button{Label: "Cancel", Style: discordgo.SecondaryButton, CustomID: customID("cancel", inv.userID)},
			}},
		},
		lifetime: menuLifetime,
	}, nil
}

func (b *Bot) block(inv invocation, target blockTarget) (reply, error) {
	if target.userID != "" {
		changed, err := b.store.BlockUser(inv.ctx, inv.userID, target.userID)
		if err != nil {
			return reply{}, err
		}
		if !changed {
			return text("This user is already blocked."), nil
		}
	} else {
		changed, err := b.store.BlockChannel(inv.ctx, inv.userID, target.channelID)
		if err != nil {
			return reply{}, err
		}
		if !changed {
			return text("This channel is already blocked."), nil
		}
	}
	return text(":no_entry_sign: Blocked " + target.mention() + "."), nil
}

func (b *Bot) unblock(inv invocation, target blockTarget) (reply, error) {
	if target.userID != "" {
		changed, err := b.store.UnblockUser(inv.ctx, inv.userID, target.userID)
		if err != nil {
			return reply{}, err
		}
		if !changed {
			return text("This user is not blocked."), nil
		}
	} else {
		changed, err := b.store.UnblockChannel(inv.ctx, inv.userID, target.channelID)
		if err != nil {
			return reply{}, err
		}
		if !changed {
			return text("This channel is not blocked."), nil
		}
	}
	return text(":white_check_mark: Unblocked " + target.mention() + "."), nil
}

func (b *Bot) showBlocked(inv invocation) (reply, error) {
	settings, err := b.store.GetSettings(inv.ctx, inv.userID)
	if err != nil {
		return reply{}, err
	}
	if len(settings.BlockedUsers) == 0 && len(settings.BlockedChannels) == 0 {
		return text("You have no blocked users or channels."), nil
	}
	embed := commandEmbed("Blocked List", "", colorBlurple, []*discordgo.MessageEmbedField{
		{Name: "Blocked Users", Value: mentionList(settings.BlockedUsers, "<@%s>")},
		{Name: "Blocked Channels", Value: mentionList(settings.BlockedChannels, "<#%s>")},
	})
	return reply{embed: embed, lifetime: longReplyLifetime}, nil
}

func (b *Bot) clearBlocked(inv invocation) (reply, error) {
	if err := b.store.ClearBlocked(inv.ctx, inv.userID); err != nil {
		return reply{}, err
	}
	return text(":white_check_mark: Your blocked list has been cleared."), nil
}

func (b *Bot) enable(inv invocation) (reply, error) {
	if err := b.snooze.Enable(inv.ctx, inv.userID); err != nil {
		return reply{}, err
	}
	return text(":white_check_mark: Highlight has been enabled."), nil
}

func (b *Bot) disable(inv invocation, duration string) (reply, error) {
	duration = strings.TrimSpace(duration)
	if duration == "" {
		if err := b.snooze.Disable(inv.ctx, inv.userID, time.Time{}); err != nil {
			return reply{}, err
		}
		return text(":no_entry_sign: Highlight has been disabled until you enable it again."), nil
	}

	settings, err := b.store.GetSettings(inv.ctx, inv.userID)
	if err != nil {
		return reply{}, err
	}
	until, err := utils.ParseFutureTime(duration, time.Now(), settings.Timezone)
	switch {
	case errors.Is(err, utils.ErrPastTime):
		return text("That time is in the past."), nil
	case errors.Is(err, utils.ErrInvalidTime):
		return text("I could not understand that time. Try something like `2h` or `tomorrow at 9am`."), nil
	case err != nil:
		return reply{}, err
	}
	if err := b.snooze.Disable(inv.ctx, inv.userID, until); err != nil {
		return reply{}, err
	}
	return text(fmt.Sprintf(":no_entry_sign: Highlight has been disabled until %s.", utils.DiscordTimestamp(until, "F"))), nil
}

func (b *Bot) timezone(inv invocation, offset *int) (reply, error) {
	if offset == nil {
		settings, err := b.store.GetSettings(inv.ctx, inv.userID)
		if err != nil {
			return reply{}, err
		}
		return text("Your timezone is " + formatOffset(settings.Timezone) + "."), nil
	}
	if *offset < -12 || *offset > 14 {
		return text("Your UTC offset must be between -12 and 14 hours."), nil
	}
	if err := b.store.SetTimezone(inv.ctx, inv.userID, *offset); err != nil {
		return reply{}, err
	}
	return text(":white_check_mark: Your timezone has been set to " + formatOffset(*offset) + "."), nil
}

func (b *Bot) forgetPrompt(inv invocation) (reply, error) {
	return reply{
		content: "Are you sure you want to delete all your highlight words and settings? This cannot be undone.",
		components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.Button{Label: "Delete Everything", Style: discordgo.DangerButton, CustomID: customID("forget", inv.userID)},
				discordgo.Button{Label: "Cancel", Style: discordgo.SecondaryButton, CustomID: customID("cancel", inv.userID)},
			}},
		},
		lifetime: menuLifetime,
	}, nil
}

func (b *Bot) forget(inv invocation) (reply, error) {
	removed, err := b.words.Forget(inv.ctx, inv.userID)
	if err != nil {
		return reply{}, err
	}
	return text(fmt.Sprintf(":white_check_mark: Deleted %s and your settings.", english.Plural(removed, "highlight word", ""))), nil
}

func (b *Bot) stats(inv invocation) (reply, error) {
	report, err := b.analytics.Report(inv.ctx, inv.guildID)
	if err != nil {
		return reply{}, err
	}
	fields := []*discordgo.MessageEmbedField{
		{Name: "Total Highlights", Value: humanize.Comma(report.Total), Inline: true},
	}
	if inv.guildID != "" {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Total Highlights Here", Value: humanize.Comma(report.InGuild), Inline: true})
	}
	if len(report.TopWords) > 0 {
		lines := make([]string, 0, len(report.TopWords))
		for i, word := range report.TopWords {
			lines = append(lines, fmt.Sprintf("%s `%s` (%s)", humanize.Ordinal(i+1), word.Word, humanize.Comma(word.Count)))
		}
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Top Words Here", Value: strings.Join(lines, "\n")})
	}
	return reply{embed: commandEmbed("Highlight Stats", "", colorBlurple, fields)}, nil
}

func (b *Bot) ping(inv invocation) (reply, error) {
	return reply{content: fmt.Sprintf("My latency is %dms", b.session.HeartbeatLatency().Milliseconds())}, nil
}

func (b *Bot) uptime(inv invocation) (reply, error) {
	return reply{content: "I started up " + humanize.Time(b.startedAt)}, nil
}

func (b *Bot) invite(inv invocation) (reply, error) {
	link, err := inviteURL(b.session.State.User.ID)
	if err != nil {
		return reply{}, err
	}
	return reply{
		content: "Add me to your server with the button below.",
		components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.Button{Label: "Invite", Style: discordgo.LinkButton, URL: link},
			}},
		},
	}, nil
}

func (b *Bot) help(inv invocation, name string) (reply, error) {
	if name = strings.TrimSpace(name); name != "" {
		spec, ok := lookupCommand(name)
		if !ok || spec.ownerOnly {
			return text(fmt.Sprintf("No command called `%s` found.", utils.EscapeMarkdown(name))), nil
		}
		description := spec.description
		if len(spec.aliases) > 0 {
			description += "\n\nAliases: " + english.WordSeries(spec.aliases, "and")
		}
		return reply{embed: commandEmbed(commandUsage(spec), description, colorBlurple, nil)}, nil
	}

	lines := make([]string, 0, len(commandSpecs))
	for _, spec := range commandSpecs {
		if spec.ownerOnly {
			continue
		}
		lines = append(lines, fmt.Sprintf("`%s` %s", commandUsage(spec), spec.description))
	}
	description := "Key: `<required> [optional]`. Use slash commands or mention me followed by a command.\n\n" + strings.Join(lines, "\n")
	embed := commandEmbed("Help", description, colorBlurple, nil)
	if b.cfg.SupportServerInvite != "" {
		embed.Fields = []*discordgo.MessageEmbedField{{Name: "Support Server", Value: b.cfg.SupportServerInvite}}
	}
	return reply{embed: embed}, nil
}

func (b *Bot) sql(inv invocation, query string) (reply, error) {
	query = stripCodeBlock(query)
	if query == "" {
		return text("Give me a query to run."), nil
	}

	start := time.Now()
	if strings.Count(query, ";") > 1 {
		tag, err := b.store.Exec(inv.ctx, query)
		if err != nil {
			return reply{content: fmt.Sprintf("```\n%v\n```", err)}, nil
		}
		return reply{content: fmt.Sprintf("`%s` Executed in %dms", tag, time.Since(start).Milliseconds())}, nil
	}
	result, err := b.store.Query(inv.ctx, query)
	elapsed := time.Since(start)
	if err != nil {
		return reply{content: fmt.Sprintf("```\n%v\n```", err)}, nil
	}
	if len(result.Columns) == 0 {
		return reply{content: fmt.Sprintf("`%s` Executed in %dms", result.Tag, elapsed.Milliseconds())}, nil
	}

	table := utils.NewTable(result.Columns...)
	for _, row := range result.Rows {
		values := make([]any, len(row))
		for i, value := range row {
			values[i] = value
		}
		table.AddRow(values...)
	}
	rendered := table.String()
	summary := fmt.Sprintf("Returned %s in %dms", english.Plural(table.Len(), "row", ""), elapsed.Milliseconds())
	if len(rendered)+len(summary) > 1900 {
		return reply{
			content: summary,
			file:    &discordgo.File{Name: "result.txt", ContentType: "text/plain", Reader: strings.NewReader(rendered)},
		}, nil
	}
	return reply{content: fmt.Sprintf("```\n%s\n```\n%s", rendered, summary)}, nil
}

func (b *Bot) process(inv invocation) (reply, error) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	fields := []*discordgo.MessageEmbedField{
		{Name: "Memory", Value: humanize.Bytes(mem.Alloc) + " / " + humanize.Bytes(mem.Sys), Inline: true},
		{Name: "Goroutines", Value: humanize.Comma(int64(runtime.NumGoroutine())), Inline: true},
		{Name: "Uptime", Value: humanize.Time(b.startedAt), Inline: true},
		{Name: "Guilds", Value: humanize.Comma(int64(len(b.session.State.Guilds))), Inline: true},
		{Name: "Cached Words", Value: humanize.Comma(int64(b.cache.Len())), Inline: true},
		{Name: "Pending Highlights", Value: humanize.Comma(int64(b.batch.Len())), Inline: true},
	}
	return reply{embed: commandEmbed("Process", runtime.Version(), colorBlurple, fields)}, nil
}

func (b *Bot) shutdown(inv invocation) (reply, error) {
	if b.stop != nil {
		time.AfterFunc(time.Second, b.stop)
	}
	return reply{content: ":wave: Logging out"}, nil
}

func commandEmbed(title, description string, color int, fields []*discordgo.MessageEmbedField) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       color,
		Timestamp:   time.Now().Format(time.RFC3339),
		Fields:      fields,
	}
}

func commandUsage(spec commandSpec) string {
	if spec.usage == "" {
		return spec.name
	}
	return spec.name + " " + spec.usage
}

func mentionList(ids []string, format string) string {
	if len(ids) == 0 {
		return "None"
	}
	mentions := make([]string, 0, len(ids))
	for _, id := range ids {
		mentions = append(mentions, fmt.Sprintf(format, id))
	}
	return utils.Truncate(strings.Join(mentions, "\n"), 1024)
}

func formatOffset(offset int) string {
	if offset < 0 {
		return fmt.Sprintf("UTC%d", offset)
	}
	return fmt.Sprintf("UTC+%d", offset)
}

func stripCodeBlock(query string) string {
	query = strings.TrimSpace(query)
	if strings.HasPrefix(query, "```") && strings.HasSuffix(query, "```") && len(query) >= 6 {
		query = strings.TrimSuffix(strings.TrimPrefix(query, "```"), "```")
		query = strings.TrimPrefix(query, "sql")
	}
	return strings.Trim(strings.TrimSpace(query), "`")
}

func customID(action, userID string) string {
	return action + ":" + userID
}

func parseCustomID(id string) (action, userID string) {
	action, userID, _ = strings.Cut(id, ":")
	return action, userID
}
