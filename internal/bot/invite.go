package bot

import (
	"net/url"
	"strconv"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/oauth2"
)

const authorizeURL = "https://discord.com/oauth2/authorize"

// invitePermissions covers reading channels, replying, cleaning up command
// messages and sending rich replies.
const invitePermissions = discordgo.PermissionViewChannel |
	discordgo.PermissionSendMessages |
	discordgo.PermissionSendMessagesInThreads |
	discordgo.PermissionManageMessages |
	discordgo.PermissionEmbedLinks |
	discordgo.PermissionAttachFiles |
	discordgo.PermissionReadMessageHistory |
	discordgo.PermissionAddReactions

// inviteURL builds the bot authorization link for the application.
func inviteURL(applicationID string) (string, error) {
	cfg := oauth2.Config{
		ClientID: applicationID,
		Endpoint: oauth2.Endpoint{AuthURL: authorizeURL},
		Scopes:   []string{"bot", "applications.commands"},
	}
	raw := cfg.AuthCodeURL("", oauth2.SetAuthURLParam("permissions", strconv.FormatInt(invitePermissions, 10)))

	// Bot installs use the implicit flow, so the code grant parameters go.
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	query := parsed.Query()
	query.Del("response_type")
	query.Del("state")
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}
