package bot

import (
	"fmt"
	"math"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/dustin/go-humanize/english"
	"go.uber.org/zap"
)

func (b *Bot) onInteractionCreate(session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	switch interaction.Type {
	case discordgo.InteractionApplicationCommand:
		b.handleSlash(interaction)
	case discordgo.InteractionMessageComponent:
		b.handleComponent(interaction)
	}
}

func (b *Bot) handleSlash(interaction *discordgo.InteractionCreate) {
	data := interaction.ApplicationCommandData()
	user := interactionUser(interaction)
	if user == nil {
		return
	}
	spec, ok := lookupCommand(data.Name)
	if !ok || spec.ownerOnly {
		return
	}

	inv := invocation{
		ctx:       b.ctx,
		command:   spec.name,
		userID:    user.ID,
		guildID:   interaction.GuildID,
		channelID: interaction.ChannelID,
	}
	result, ok := b.precheck(inv, spec)
	if ok {
		var err error
		result, err = b.runSlash(inv, data.Options)
		if err != nil {
			result = b.commandFailed(inv, err)
		}
	}
	b.respond(interaction, result, spec.private || !ok)
}

func (b *Bot) runSlash(inv invocation, options []*discordgo.ApplicationCommandInteractionDataOption) (reply, error) {
	switch inv.command {
	case "add":
		return b.addWord(inv, stringOption(options, "word"))
	case "remove":
		return b.removeWord(inv, stringOption(options, "word"))
	case "show":
		return b.showWords(inv)
	case "clear":
		return b.clearWords(inv)
	case "import":
		return b.importMenu(inv)
	case "block", "unblock":
		var target blockTarget
		if len(options) > 0 {
			target = optionTarget(options[0])
		}
		if target == (blockTarget{}) {
			return text("Choose a user or channel."), nil
		}
		if inv.command == "block" {
			return b.block(inv, target)
		}
		return b.unblock(inv, target)
	case "blocked":
		if len(options) > 0 && options[0].Name == "clear" {
			return b.clearBlocked(inv)
		}
		return b.showBlocked(inv)
	case "enable":
		return b.enable(inv)
	case "disable":
		return b.disable(inv, stringOption(options, "duration"))
	case "timezone":
		return b.timezone(inv, intOption(options, "offset"))
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
		return b.help(inv, stringOption(options, "command"))
	}
	return text("Unknown command."), nil
}

// handleComponent serves the buttons and menus attached to earlier replies.
// Only the user who ran the command may use them.
func (b *Bot) handleComponent(interaction *discordgo.InteractionCreate) {
	data := interaction.MessageComponentData()
	action, ownerID := parseCustomID(data.CustomID)
	user := interactionUser(interaction)
	if user == nil {
		return
	}
	if user.ID != ownerID {
		b.respond(interaction, reply{content: "This menu is not for you."}, true)
		return
	}

	inv := invocation{
		ctx:       b.ctx,
		command:   action,
		userID:    user.ID,
		guildID:   interaction.GuildID,
		channelID: interaction.ChannelID,
	}
	var result reply
	var err error
	switch action {
	case "import":
		if len(data.Values) == 0 {
			return
		}
		result, err = b.importWords(inv, data.Values[0])
	case "forget":
		result, err = b.forget(inv)
	case "cancel":
		result = reply{content: "Cancelled."}
	default:
		return
	}
	if err != nil {
		result = b.commandFailed(inv, err)
	}
	b.updateMessage(interaction, result)
}

// precheck applies the guild-only rule and the per-user command cooldown.
func (b *Bot) precheck(inv invocation, spec commandSpec) (reply, bool) {
	if spec.guildOnly && inv.guildID == "" {
		return text("This command cannot be used in private messages."), false
	}
	if allowed, retry := b.cooldown.Allow(inv.userID, time.Now()); !allowed {
		seconds := int(math.Ceil(retry.Seconds()))
		return text(fmt.Sprintf("You are on cooldown. Try again in %s.", english.Plural(seconds, "second", ""))), false
	}
	return reply{}, true
}

func (b *Bot) respond(interaction *discordgo.InteractionCreate, r reply, ephemeral bool) {
	data := responseData(r)
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	err := b.session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
	if err != nil {
		b.logger.Warn("interaction respond failed", zap.Error(err))
	}
}

func (b *Bot) updateMessage(interaction *discordgo.InteractionCreate, r reply) {
	data := responseData(r)
	if data.Components == nil {
		data.Components = []discordgo.MessageComponent{}
	}
	if data.Embeds == nil {
		data.Embeds = []*discordgo.MessageEmbed{}
	}
	err := b.session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: data,
	})
	if err != nil {
		b.logger.Warn("interaction update failed", zap.Error(err))
	}
}

func responseData(r reply) *discordgo.InteractionResponseData {
	data := &discordgo.InteractionResponseData{
		Content:         r.content,
		Components:      r.components,
		AllowedMentions: &discordgo.MessageAllowedMentions{},
	}
	if r.embed != nil {
		data.Embeds = []*discordgo.MessageEmbed{r.embed}
	}
	if r.file != nil {
		data.Files = []*discordgo.File{r.file}
	}
	return data
}

func interactionUser(interaction *discordgo.InteractionCreate) *discordgo.User {
	if interaction.Member != nil && interaction.Member.User != nil {
		return interaction.Member.User
	}
	return interaction.User
}

func findOption(options []*discordgo.ApplicationCommandInteractionDataOption, name string) *discordgo.ApplicationCommandInteractionDataOption {
	for _, option := range options {
		if option.Name == name {
			return option
		}
	}
	return nil
}

func stringOption(options []*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	if option := findOption(options, name); option != nil {
		return option.StringValue()
	}
	return ""
}

func intOption(options []*discordgo.ApplicationCommandInteractionDataOption, name string) *int {
	option := findOption(options, name)
	if option == nil {
		return nil
	}
	value := int(option.IntValue())
	return &value
}

// optionTarget reads the block target out of a user or channel subcommand.
func optionTarget(sub *discordgo.ApplicationCommandInteractionDataOption) blockTarget {
	if option := findOption(sub.Options, "user"); option != nil {
		id, _ := option.Value.(string)
		return blockTarget{userID: id}
	}
	if option := findOption(sub.Options, "channel"); option != nil {
		id, _ := option.Value.(string)
		return blockTarget{channelID: id}
	}
	return blockTarget{}
}
