package bot

import (
	"strings"

	"github.com/bwmarrin/discordgo"
)

type commandSpec struct {
	name        string
	aliases     []string
	usage       string
	description string
	guildOnly   bool
	ownerOnly   bool
	private     bool
	options     []*discordgo.ApplicationCommandOption
}

var blockChannelTypes = []discordgo.ChannelType{
	discordgo.ChannelTypeGuildText,
	discordgo.ChannelTypeGuildNews,
	discordgo.ChannelTypeGuildForum,
	discordgo.ChannelTypeGuildCategory,
}

func minValue(v float64) *float64 { return &v }

var commandSpecs = []commandSpec{
	{
		name:        "add",
		usage:       "<word>",
		description: "Add a word to your highlight word list",
		guildOnly:   true,
		private:     true,
		options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionString, Name: "word", Description: "The word to add", Required: true},
		},
	},
	{
		name:        "remove",
		usage:       "<word>",
		description: "Remove a word from your highlight word list",
		guildOnly:   true,
		private:     true,
		options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionString, Name: "word", Description: "The word to remove", Required: true},
		},
	},
	{
		name:        "show",
		aliases:     []string{"words", "list"},
		description: "See all your highlight words in this server",
		guildOnly:   true,
		private:     true,
	},
	{
		name:        "clear",
		description: "Clear your highlight words in this server",
		guildOnly:   true,
		private:     true,
	},
	{
		name:        "import",
		aliases:     []string{"transfer"},
		usage:       "<server ID>",
		description: "Import your highlight words from another server",
		guildOnly:   true,
		private:     true,
	},
	{
		name:        "block",
		aliases:     []string{"ignore", "mute"},
		usage:       "<user or channel>",
		description: "Block a user or channel",
		guildOnly:   true,
		private:     true,
		options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "user",
				Description: "Block a user",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "The user to block", Required: true},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "channel",
				Description: "Block a channel or category",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionChannel, Name: "channel", Description: "The channel to block", Required: true, ChannelTypes: blockChannelTypes},
				},
			},
		},
	},
	{
		name:        "unblock",
		aliases:     []string{"unmute"},
		usage:       "<user or channel>",
		description: "Unblock a user or channel",
		guildOnly:   true,
		private:     true,
		options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "user",
				Description: "Unblock a user",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "The user to unblock", Required: true},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "channel",
				Description: "Unblock a channel or category",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionChannel, Name: "channel", Description: "The channel to unblock", Required: true, ChannelTypes: blockChannelTypes},
				},
			},
		},
	},
	{
		name:        "blocked",
		usage:       "[show|clear]",
		description: "View or clear your blocked list",
		guildOnly:   true,
		private:     true,
		options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "show", Description: "View your blocked list"},
			{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "clear", Description: "Clear your blocked list"},
		},
	},
	{
		name:        "enable",
		description: "Enable highlight",
		private:     true,
	},
	{
		name:        "disable",
		aliases:     []string{"dnd"},
		usage:       "[duration]",
		description: "Disable highlight, optionally for a while",
		private:     true,
		options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionString, Name: "duration", Description: "How long to disable for, like 2h or tomorrow"},
		},
	},
	{
		name:        "timezone",
		usage:       "[offset]",
		description: "View or set your UTC offset, used for snooze times",
		private:     true,
		options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionInteger, Name: "offset", Description: "Hours from UTC", MinValue: minValue(-12), MaxValue: 14},
		},
	},
	{
		name:        "forget",
		description: "Delete all your highlight words and settings",
		private:     true,
	},
	{
		name:        "stats",
		description: "View highlight stats",
	},
	{
		name:        "ping",
		description: "Check my latency",
	},
	{
		name:        "uptime",
		description: "Check my uptime",
	},
	{
		name:        "invite",
		description: "Get an invite link to add me to your server",
	},
	{
		name:        "help",
		usage:       "[command]",
		description: "Show help",
		options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionString, Name: "command", Description: "A command to explain"},
		},
	},
	{
		name:        "sql",
		usage:       "<query>",
		description: "Run some sql",
		ownerOnly:   true,
	},
	{
		name:        "process",
		description: "Show process stats",
		ownerOnly:   true,
	},
	{
		name:        "shutdown",
		aliases:     []string{"logout"},
		description: "Shut the bot down",
		ownerOnly:   true,
	},
}

// lookupCommand resolves a text command name or alias, case-insensitively.
func lookupCommand(name string) (commandSpec, bool) {
	name = strings.ToLower(name)
	for _, spec := range commandSpecs {
		if spec.name == name {
			return spec, true
		}
		for _, alias := range spec.aliases {
			if alias == name {
				return spec, true
			}
		}
	}
	return commandSpec{}, false
}

// applicationCommands returns the slash command set. Owner commands stay text only.
func applicationCommands() []*discordgo.ApplicationCommand {
	var commands []*discordgo.ApplicationCommand
	for _, spec := range commandSpecs {
		if spec.ownerOnly {
			continue
		}
		cmd := &discordgo.ApplicationCommand{
			Name:        spec.name,
			Description: spec.description,
			Options:     spec.options,
		}
		if spec.guildOnly {
			dm := false
			cmd.DMPermission = &dm
		}
		commands = append(commands, cmd)
	}
	return commands
}

func (b *Bot) registerCommands() error {
	commands := applicationCommands()

	appID := b.session.State.User.ID
	existing, err := b.session.ApplicationCommands(appID, "")
	if err != nil {
		for _, cmd := range commands {
			if _, err := b.session.ApplicationCommandCreate(appID, "", cmd); err != nil {
				return err
			}
		}
		return nil
	}

	existingByName := make(map[string]*discordgo.ApplicationCommand)
	for _, cmd := range existing {
		existingByName[cmd.Name] = cmd
	}

	desired := make(map[string]struct{})
	for _, cmd := range commands {
		desired[cmd.Name] = struct{}{}
		if current, ok := existingByName[cmd.Name]; ok {
			if _, err := b.session.ApplicationCommandEdit(appID, "", current.ID, cmd); err != nil {
				return err
			}
			continue
		}
		if _, err := b.session.ApplicationCommandCreate(appID, "", cmd); err != nil {
			return err
		}
	}

	for _, cmd := range existing {
		if _, ok := desired[cmd.Name]; ok {
			continue
		}
		_ = b.session.ApplicationCommandDelete(appID, "", cmd.ID)
	}
	return nil
}
