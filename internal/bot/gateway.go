package bot

import (
	"errors"

	"highlight-bot/internal/modules/highlight"

	"github.com/bwmarrin/discordgo"
)

// sessionGateway serves the highlight pipeline from the gateway state cache,
// falling back to REST when the cache misses.
type sessionGateway struct {
	session *discordgo.Session
}

func (g sessionGateway) Member(guildID, userID string) (*discordgo.Member, error) {
	if member, err := g.session.State.Member(guildID, userID); err == nil {
		return member, nil
	}
	return g.session.GuildMember(guildID, userID)
}

func (g sessionGateway) GuildName(guildID string) string {
	if guild, err := g.session.State.Guild(guildID); err == nil && guild.Name != "" {
		return guild.Name
	}
	if guild, err := g.session.Guild(guildID); err == nil {
		return guild.Name
	}
	return guildID
}

// ChannelAncestors returns the channel's parent and, for threads, the parent
// channel's category as well.
func (g sessionGateway) ChannelAncestors(channelID string) []string {
	channel, err := g.channel(channelID)
	if err != nil || channel.ParentID == "" {
		return nil
	}
	ancestors := []string{channel.ParentID}
	if !channel.IsThread() {
		return ancestors
	}
	if parent, err := g.channel(channel.ParentID); err == nil && parent.ParentID != "" {
		ancestors = append(ancestors, parent.ParentID)
	}
	return ancestors
}

// CanRead checks View Channel. Threads take their permissions from the parent
// channel, and private threads also need membership or Manage Threads.
func (g sessionGateway) CanRead(userID, channelID string) (bool, error) {
	channel, err := g.channel(channelID)
	if err != nil {
		return false, err
	}
	if !channel.IsThread() {
		perms, err := g.session.UserChannelPermissions(userID, channelID)
		if err != nil {
			return false, err
		}
		return perms&discordgo.PermissionViewChannel != 0, nil
	}

	perms, err := g.session.UserChannelPermissions(userID, channel.ParentID)
	if err != nil {
		return false, err
	}
	if perms&discordgo.PermissionViewChannel == 0 {
		return false, nil
	}
	if channel.Type != discordgo.ChannelTypeGuildPrivateThread || perms&discordgo.PermissionManageThreads != 0 {
		return true, nil
	}
	if _, err := g.session.ThreadMember(channelID, userID, false); err != nil {
		if isRESTCode(err, discordgo.ErrCodeUnknownMember) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (g sessionGateway) History(channelID, beforeID string, limit int) ([]*discordgo.Message, error) {
	if limit <= 0 {
		return nil, nil
	}
	return g.session.ChannelMessages(channelID, limit, beforeID, "", "")
}

func (g sessionGateway) SendDM(userID string, message *discordgo.MessageSend) error {
	channel, err := g.session.UserChannelCreate(userID)
	if err != nil {
		return translateDMError(err)
	}
	_, err = g.session.ChannelMessageSendComplex(channel.ID, message)
	return translateDMError(err)
}

// DirectMessagesClosed probes the user's DM channel with an empty message.
// Discord rejects it as empty when DMs are open and as undeliverable when not.
func (g sessionGateway) DirectMessagesClosed(userID string) bool {
	err := g.SendDM(userID, &discordgo.MessageSend{})
	return errors.Is(err, highlight.ErrDirectMessagesDisabled)
}

func (g sessionGateway) channel(channelID string) (*discordgo.Channel, error) {
	if channel, err := g.session.State.Channel(channelID); err == nil {
		return channel, nil
	}
	return g.session.Channel(channelID)
}

func translateDMError(err error) error {
	if isRESTCode(err, discordgo.ErrCodeCannotSendMessagesToThisUser) {
		return highlight.ErrDirectMessagesDisabled
	}
	return err
}

func isRESTCode(err error, code int) bool {
	var restErr *discordgo.RESTError
	return errors.As(err, &restErr) && restErr.Message != nil && restErr.Message.Code == code
}
