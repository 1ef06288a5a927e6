package highlight

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"highlight-bot/internal/utils"
	"highlight-bot/internal/wordcache"

	"github.com/bwmarrin/discordgo"
)

const (
	embedColor          = 0x5865F2
	maxDescription      = 4096
	maxTriggerContent   = 2000
	clippedPrefixLength = 200
)

// ErrDirectMessagesDisabled is returned by a Gateway when the recipient does
// not accept direct messages from the bot.
var ErrDirectMessagesDisabled = errors.New("highlight: direct messages disabled")

// Notification carries everything needed to describe one highlight.
type Notification struct {
	GuildName string
	Word      string
	Message   *discordgo.Message
	History   []*discordgo.Message
	Truncate  int
}

// Build renders the direct message. History is expected newest first, the
// order Discord returns it, and is shown oldest first above the trigger.
func (n Notification) Build() *discordgo.MessageSend {
	msg := n.Message

	intro := fmt.Sprintf("In <#%s> for `%s` you were highlighted with the word **%s**\n\n",
		msg.ChannelID, utils.EscapeMarkdown(n.GuildName), utils.EscapeMarkdown(n.Word))
	description := fmt.Sprintf("<t:%d:t> %s: %s", msg.Timestamp.Unix(), escape(authorName(msg)), emphasize(msg.Content, n.Word))

	for _, previous := range n.History {
		line := fmt.Sprintf("<t:%d:t> %s: %s\n", previous.Timestamp.Unix(), escape(authorName(previous)), escape(utils.Truncate(previous.Content, n.Truncate)))
		if utf8.RuneCountInString(intro+line+description) > maxDescription {
			continue
		}
		description = line + description
	}

	embed := &discordgo.MessageEmbed{
		Description: intro + description,
		Color:       embedColor,
		Footer:      &discordgo.MessageEmbedFooter{Text: "Triggered"},
	}
	if !msg.Timestamp.IsZero() {
		embed.Timestamp = msg.Timestamp.Format(time.RFC3339)
	}
	if msg.Author != nil {
		embed.Author = &discordgo.MessageEmbedAuthor{Name: displayName(msg), IconURL: msg.Author.AvatarURL("")}
	}

	return &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{embed},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.Button{Label: "Go to Message", Style: discordgo.LinkButton, URL: JumpURL(msg)},
			}},
		},
	}
}

func JumpURL(msg *discordgo.Message) string {
	return fmt.Sprintf("https://discord.com/channels/%s/%s/%s", msg.GuildID, msg.ChannelID, msg.ID)
}

// emphasize bolds the matched word and escapes everything else. Long content
// is clipped around the match.
func emphasize(content, word string) string {
	lowered, offsets := lowerWithOffsets(content)
	start, end, ok := wordcache.Find(lowered, word)
	if !ok {
		return escape(utils.Truncate(content, maxTriggerContent))
	}
	start, end = offsets[start], offsets[end]

	matched := "**" + escape(content[start:end]) + "**"
	if utf8.RuneCountInString(content) <= maxTriggerContent {
		return escape(content[:start]) + matched + escape(content[end:])
	}
	if utf8.RuneCountInString(content[:end]) > maxTriggerContent {
		return escape(utils.Truncate(content[:start], clippedPrefixLength)) + " ... " + matched + " ..."
	}
	return escape(content[:start]) + matched + escape(utils.Truncate(content[end:], maxTriggerContent-utf8.RuneCountInString(content[:end])))
}

// lowerWithOffsets lowercases text the way strings.ToLower does and maps every
// rune boundary of the result back to a byte offset in text. Lowercasing can
// change a rune's encoded length ("İ" becomes "i").
func lowerWithOffsets(text string) (string, []int) {
	var b strings.Builder
	b.Grow(len(text))
	offsets := make([]int, 0, len(text)+1)
	for i, r := range text {
		lowered := unicode.ToLower(r)
		for n := utf8.RuneLen(lowered); n > 0; n-- {
			offsets = append(offsets, i)
		}
		b.WriteRune(lowered)
	}
	offsets = append(offsets, len(text))
	return b.String(), offsets
}

func escape(text string) string {
	return utils.EscapeMentions(utils.EscapeMarkdown(text))
}

func authorName(msg *discordgo.Message) string {
	if msg.Author == nil {
		return "Unknown"
	}
	return msg.Author.Username
}

func displayName(msg *discordgo.Message) string {
	if msg.Member != nil && msg.Member.Nick != "" {
		return msg.Member.Nick
	}
	if msg.Author.GlobalName != "" {
		return msg.Author.GlobalName
	}
	return msg.Author.Username
}
