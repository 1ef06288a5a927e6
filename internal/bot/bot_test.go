package bot

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"highlight-bot/internal/modules/highlight"
	"highlight-bot/internal/utils"

	"github.com/bwmarrin/discordgo"
)

func TestStripMentionPrefix(t *testing.T) {
	cases := []struct {
		content string
		rest    string
		ok      bool
	}{
		{content: "<@42> add hello", rest: "add hello", ok: true},
		{content: "  <@!42>   show ", rest: "show", ok: true},
		{content: "<@42>", rest: "", ok: true},
		{content: "<@43> add hello", ok: false},
		{content: "hey <@42> add", ok: false},
	}
	for _, tc := range cases {
		rest, ok := stripMentionPrefix(tc.content, "42")
		if ok != tc.ok || rest != tc.rest {
			t.Fatalf("stripMentionPrefix(%q) = %q, %v; want %q, %v", tc.content, rest, ok, tc.rest, tc.ok)
		}
	}
}

func TestSplitCommand(t *testing.T) {
	name, args := splitCommand("disable\n 2 hours")
	if name != "disable" || args != "2 hours" {
		t.Fatalf("unexpected split: %q %q", name, args)
	}
	name, args = splitCommand("show")
	if name != "show" || args != "" {
		t.Fatalf("unexpected split without args: %q %q", name, args)
	}
}

func TestParseMentionTarget(t *testing.T) {
	target, ok := parseMentionTarget("<@!123>")
	if !ok || target.userID != "123" || target.channelID != "" {
		t.Fatalf("expected user target, got %+v", target)
	}
	target, ok = parseMentionTarget(" <#456> ")
	if !ok || target.channelID != "456" {
		t.Fatalf("expected channel target, got %+v", target)
	}
	if _, ok := parseMentionTarget("general"); ok {
		t.Fatalf("expected plain text to be rejected")
	}
	if target.mention() != "<#456>" {
		t.Fatalf("unexpected mention %q", target.mention())
	}
}

func TestLookupCommandAliases(t *testing.T) {
	spec, ok := lookupCommand("LIST")
	if !ok || spec.name != "show" {
		t.Fatalf("expected list to resolve to show, got %+v", spec)
	}
	spec, ok = lookupCommand("logout")
	if !ok || spec.name != "shutdown" || !spec.ownerOnly {
		t.Fatalf("expected logout to resolve to owner shutdown")
	}
	if _, ok := lookupCommand("nope"); ok {
		t.Fatalf("expected unknown command")
	}
}

func TestApplicationCommandsSkipOwnerCommands(t *testing.T) {
	commands := applicationCommands()
	names := make(map[string]*discordgo.ApplicationCommand)
	for _, cmd := range commands {
		names[cmd.Name] = cmd
	}
	for _, owner := range []string{"sql", "process", "shutdown"} {
		if _, ok := names[owner]; ok {
			t.Fatalf("owner command %s registered as slash command", owner)
		}
	}
	add, ok := names["add"]
	if !ok {
		t.Fatalf("expected add command")
	}
	if add.DMPermission == nil || *add.DMPermission {
		t.Fatalf("expected add to be guild only")
	}
	if names["ping"].DMPermission != nil {
		t.Fatalf("expected ping to be usable in DMs")
	}
}

func TestInviteURL(t *testing.T) {
	link, err := inviteURL("1234")
	if err != nil {
		t.Fatalf("invite url: %v", err)
	}
	parsed, err := url.Parse(link)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.Host != "discord.com" || parsed.Path != "/oauth2/authorize" {
		t.Fatalf("unexpected endpoint %s", link)
	}
	query := parsed.Query()
	if query.Get("client_id") != "1234" {
		t.Fatalf("unexpected client id %q", query.Get("client_id"))
	}
	if query.Get("scope") != "bot applications.commands" {
		t.Fatalf("unexpected scope %q", query.Get("scope"))
	}
	if query.Get("permissions") != strconv.FormatInt(invitePermissions, 10) {
		t.Fatalf("unexpected permissions %q", query.Get("permissions"))
	}
	if query.Has("response_type") {
		t.Fatalf("expected response_type to be dropped")
	}
}

func TestStripCodeBlock(t *testing.T) {
	cases := map[string]string{
		"SELECT 1":                   "SELECT 1",
		"```sql\nSELECT 1\n```":      "SELECT 1",
		"`SELECT 1`":                 "SELECT 1",
		"  ```\nDELETE FROM x;\n```": "DELETE FROM x;",
	}
	for input, want := range cases {
		if got := stripCodeBlock(input); got != want {
			t.Fatalf("stripCodeBlock(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestFormatOffset(t *testing.T) {
	if formatOffset(-5) != "UTC-5" || formatOffset(0) != "UTC+0" || formatOffset(9) != "UTC+9" {
		t.Fatalf("unexpected offsets: %s %s %s", formatOffset(-5), formatOffset(0), formatOffset(9))
	}
}

func TestCustomIDRoundTrip(t *testing.T) {
	action, userID := parseCustomID(customID("forget", "99"))
	if action != "forget" || userID != "99" {
		t.Fatalf("unexpected custom id parts %q %q", action, userID)
	}
}

func TestMentionList(t *testing.T) {
	if mentionList(nil, "<@%s>") != "None" {
		t.Fatalf("expected None for empty list")
	}
	if got := mentionList([]string{"1", "2"}, "<#%s>"); got != "<#1>\n<#2>" {
		t.Fatalf("unexpected mention list %q", got)
	}
}

func TestTranslateDMError(t *testing.T) {
	closed := fmt.Errorf("send: %w", &discordgo.RESTError{Message: &discordgo.APIErrorMessage{Code: discordgo.ErrCodeCannotSendMessagesToThisUser}})
	if !errors.Is(translateDMError(closed), highlight.ErrDirectMessagesDisabled) {
		t.Fatalf("expected DMs disabled error")
	}
	other := &discordgo.RESTError{Message: &discordgo.APIErrorMessage{Code: discordgo.ErrCodeUnknownChannel}}
	if errors.Is(translateDMError(other), highlight.ErrDirectMessagesDisabled) {
		t.Fatalf("expected other REST errors to pass through")
	}
	if translateDMError(nil) != nil {
		t.Fatalf("expected nil to stay nil")
	}
}

func TestPrecheck(t *testing.T) {
	b := &Bot{cooldown: utils.NewCooldown(1, time.Minute)}
	add, _ := lookupCommand("add")
	ping, _ := lookupCommand("ping")

	if r, ok := b.precheck(invocation{ctx: context.Background(), userID: "1"}, add); ok || !strings.Contains(r.content, "private messages") {
		t.Fatalf("expected guild only rejection, got %q", r.content)
	}
	if _, ok := b.precheck(invocation{ctx: context.Background(), userID: "2"}, ping); !ok {
		t.Fatalf("expected first command to pass")
	}
	r, ok := b.precheck(invocation{ctx: context.Background(), userID: "2"}, ping)
	if ok || !strings.Contains(r.content, "cooldown") {
		t.Fatalf("expected cooldown rejection, got %q", r.content)
	}
}
