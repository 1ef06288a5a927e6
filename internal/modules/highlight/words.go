package highlight

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"highlight-bot/internal/storage"
	"highlight-bot/internal/utils"
	"highlight-bot/internal/wordcache"
)

var (
	ErrWordHasMentions = errors.New("highlight: word contains mentions")
	ErrWordTooShort    = errors.New("highlight: word too short")
	ErrWordTooLong     = errors.New("highlight: word too long")
	ErrSameGuild       = errors.New("highlight: source and destination guild are the same")
)

type WordStore interface {
	AddWord(ctx context.Context, word storage.Word) error
	RemoveWord(ctx context.Context, word storage.Word) error
	ClearWords(ctx context.Context, userID, guildID string) ([]storage.Word, error)
	ListWords(ctx context.Context, userID, guildID string) ([]storage.Word, error)
	TransferWords(ctx context.Context, userID, fromGuildID, toGuildID string) ([]storage.Word, error)
	Forget(ctx context.Context, userID string) ([]storage.Word, error)
}

// Words applies word list changes to the store and, only once the store write
// succeeded, to the cache.
type Words struct {
	store     WordStore
	cache     *wordcache.Cache
	minLength int
	maxLength int
}

func NewWords(store WordStore, cache *wordcache.Cache, minLength, maxLength int) *Words {
	return &Words{store: store, cache: cache, minLength: minLength, maxLength: maxLength}
}

func NormalizeWord(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

func (w *Words) Validate(text string) error {
	if utils.HasMentions(text) {
		return ErrWordHasMentions
	}
	length := utf8.RuneCountInString(text)
	if length < w.minLength {
		return ErrWordTooShort
	}
	if length > w.maxLength {
		return ErrWordTooLong
	}
	return nil
}

func (w *Words) Add(ctx context.Context, userID, guildID, text string) (storage.Word, error) {
	word := storage.Word{UserID: userID, GuildID: guildID, Word: NormalizeWord(text)}
	if err := w.Validate(word.Word); err != nil {
		return word, err
	}
	if err := w.store.AddWord(ctx, word); err != nil {
		return word, err
	}
	w.cache.Insert(word)
	return word, nil
}

func (w *Words) Remove(ctx context.Context, userID, guildID, text string) (storage.Word, error) {
	word := storage.Word{UserID: userID, GuildID: guildID, Word: NormalizeWord(text)}
	if err := w.store.RemoveWord(ctx, word); err != nil {
		return word, err
	}
	w.cache.Remove(word)
	return word, nil
}

func (w *Words) Clear(ctx context.Context, userID, guildID string) (int, error) {
	removed, err := w.store.ClearWords(ctx, userID, guildID)
	if err != nil {
		return 0, err
	}
	w.cache.RemoveAll(removed)
	return len(removed), nil
}

func (w *Words) List(ctx context.Context, userID, guildID string) ([]storage.Word, error) {
	return w.store.ListWords(ctx, userID, guildID)
}

// Import copies the user's words from another guild into guildID.
func (w *Words) Import(ctx context.Context, userID, fromGuildID, guildID string) ([]storage.Word, error) {
	if fromGuildID == guildID {
		return nil, ErrSameGuild
	}
	inserted, err := w.store.TransferWords(ctx, userID, fromGuildID, guildID)
	if err != nil {
		return nil, err
	}
	w.cache.InsertAll(inserted)
	return inserted, nil
}

// Forget erases every word and setting of the user.
func (w *Words) Forget(ctx context.Context, userID string) (int, error) {
	removed, err := w.store.Forget(ctx, userID)
	if err != nil {
		return 0, err
	}
	w.cache.RemoveAll(removed)
	return len(removed), nil
}
