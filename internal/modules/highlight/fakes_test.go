package highlight

import (
	"context"
	"errors"
	"sync"
	"time"

	"highlight-bot/internal/storage"

	"github.com/bwmarrin/discordgo"
)

type fakeTimer struct{}

func (fakeTimer) Stop() bool { return true }

// fakeClock either expires every wait right away or never expires it.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	expire bool
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Set(now time.Time) {
	f.mu.Lock()
	f.now = now
	f.mu.Unlock()
}

func (f *fakeClock) AfterFunc(d time.Duration, fn func()) Timer {
	if f.expire {
		go fn()
	}
	return fakeTimer{}
}

type sentDM struct {
	userID  string
	message *discordgo.MessageSend
}

type fakeGateway struct {
	mu       sync.Mutex
	members  map[string]bool
	parents  map[string]string
	hidden   map[string]bool
	dmErrors map[string]error
	panicFor string
	history  []*discordgo.Message
	sent     []sentDM
}

func newFakeGateway(members ...string) *fakeGateway {
	gateway := &fakeGateway{
		members:  make(map[string]bool),
		parents:  make(map[string]string),
		hidden:   make(map[string]bool),
		dmErrors: make(map[string]error),
	}
	for _, member := range members {
		gateway.members[member] = true
	}
	return gateway
}

func (g *fakeGateway) Member(guildID, userID string) (*discordgo.Member, error) {
	if userID == g.panicFor {
		panic("member lookup exploded")
	}
	if !g.members[userID] {
		return nil, errors.New("unknown member")
	}
	return &discordgo.Member{GuildID: guildID, User: &discordgo.User{ID: userID}}, nil
}

func (g *fakeGateway) GuildName(guildID string) string {
	return "Guild " + guildID
}

func (g *fakeGateway) ChannelAncestors(channelID string) []string {
	var ancestors []string
	for parent := g.parents[channelID]; parent != ""; parent = g.parents[parent] {
		ancestors = append(ancestors, parent)
	}
	return ancestors
}

func (g *fakeGateway) CanRead(userID, channelID string) (bool, error) {
	return !g.hidden[userID+":"+channelID], nil
}

func (g *fakeGateway) History(channelID, beforeID string, limit int) ([]*discordgo.Message, error) {
	if len(g.history) > limit {
		return g.history[:limit], nil
	}
	return g.history, nil
}

func (g *fakeGateway) SendDM(userID string, message *discordgo.MessageSend) error {
	if err := g.dmErrors[userID]; err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sent = append(g.sent, sentDM{userID: userID, message: message})
	return nil
}

func (g *fakeGateway) Sent() []sentDM {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]sentDM(nil), g.sent...)
}

type fakeSettings struct {
	settings map[string]storage.UserSettings
}

func (f *fakeSettings) GetSettings(ctx context.Context, userID string) (storage.UserSettings, error) {
	if settings, ok := f.settings[userID]; ok {
		return settings, nil
	}
	return storage.UserSettings{UserID: userID}, nil
}

type fakeWordStore struct {
	mu      sync.Mutex
	words   map[storage.Word]bool
	lookups int
	failAdd error
}

func newFakeWordStore() *fakeWordStore {
	return &fakeWordStore{words: make(map[storage.Word]bool)}
}

func (f *fakeWordStore) WordOwners(ctx context.Context, guildID, word string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	var owners []string
	for w := range f.words {
		if w.GuildID == guildID && w.Word == word {
			owners = append(owners, w.UserID)
		}
	}
	return owners, nil
}

func (f *fakeWordStore) AddWord(ctx context.Context, word storage.Word) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAdd != nil {
		return f.failAdd
	}
	if f.words[word] {
		return storage.ErrDuplicateWord
	}
	f.words[word] = true
	return nil
}

func (f *fakeWordStore) RemoveWord(ctx context.Context, word storage.Word) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.words[word] {
		return storage.ErrWordNotFound
	}
	delete(f.words, word)
	return nil
}

func (f *fakeWordStore) ClearWords(ctx context.Context, userID, guildID string) ([]storage.Word, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var removed []storage.Word
	for w := range f.words {
		if w.UserID == userID && w.GuildID == guildID {
			removed = append(removed, w)
			delete(f.words, w)
		}
	}
	return removed, nil
}

func (f *fakeWordStore) ListWords(ctx context.Context, userID, guildID string) ([]storage.Word, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var words []storage.Word
	for w := range f.words {
		if w.UserID == userID && w.GuildID == guildID {
			words = append(words, w)
		}
	}
	return words, nil
}

func (f *fakeWordStore) TransferWords(ctx context.Context, userID, fromGuildID, toGuildID string) ([]storage.Word, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var inserted []storage.Word
	for w := range f.words {
		if w.UserID != userID || w.GuildID != fromGuildID {
			continue
		}
		copied := storage.Word{UserID: userID, GuildID: toGuildID, Word: w.Word}
		if f.words[copied] {
			continue
		}
		inserted = append(inserted, copied)
	}
	for _, w := range inserted {
		f.words[w] = true
	}
	return inserted, nil
}

func (f *fakeWordStore) Forget(ctx context.Context, userID string) ([]storage.Word, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var removed []storage.Word
	for w := range f.words {
		if w.UserID == userID {
			removed = append(removed, w)
			delete(f.words, w)
		}
	}
	return removed, nil
}

type sliceRecorder struct {
	mu    sync.Mutex
	items []storage.Highlight
}

func (r *sliceRecorder) Record(highlight storage.Highlight) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, highlight)
}

func (r *sliceRecorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}
