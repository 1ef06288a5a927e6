package highlight

import (
	"context"
	"errors"
	"testing"

	"highlight-bot/internal/storage"
	"highlight-bot/internal/wordcache"
)

func newWords() (*Words, *fakeWordStore, *wordcache.Cache) {
	store := newFakeWordStore()
	cache := wordcache.New()
	return NewWords(store, cache, 2, 20), store, cache
}

func TestWordsAddNormalizesAndCaches(t *testing.T) {
	words, _, cache := newWords()
	ctx := context.Background()

	word, err := words.Add(ctx, "u1", "g1", "  Release ")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if word.Word != "release" {
		t.Fatalf("expected lowercased word, got %q", word.Word)
	}
	if !cache.Has(word) {
		t.Fatalf("expected cache to hold the new word")
	}

	if _, err := words.Add(ctx, "u1", "g1", "RELEASE"); !errors.Is(err, storage.ErrDuplicateWord) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	if cache.Len() != 1 {
		t.Fatalf("expected duplicate not to grow the cache, got %d", cache.Len())
	}
}

func TestWordsValidation(t *testing.T) {
	words, store, cache := newWords()
	ctx := context.Background()

	cases := []struct {
		text string
		want error
	}{
		{"a", ErrWordTooShort},
		{"abcdefghijklmnopqrstu", ErrWordTooLong},
		{"hey @everyone", ErrWordHasMentions},
	}
	for _, tc := range cases {
		if _, err := words.Add(ctx, "u1", "g1", tc.text); !errors.Is(err, tc.want) {
			t.Fatalf("add %q: expected %v, got %v", tc.text, tc.want, err)
		}
	}
	if len(store.words) != 0 || cache.Len() != 0 {
		t.Fatalf("expected rejected words to stay out of store and cache")
	}
}

func TestWordsFailedWriteLeavesCache(t *testing.T) {
	words, store, cache := newWords()
	store.failAdd = errors.New("database unavailable")

	if _, err := words.Add(context.Background(), "u1", "g1", "release"); err == nil {
		t.Fatalf("expected store error")
	}
	if cache.Len() != 0 {
		t.Fatalf("expected cache untouched after failed write")
	}
}

func TestWordsRemoveRoundTrip(t *testing.T) {
	words, _, cache := newWords()
	ctx := context.Background()

	if _, err := words.Add(ctx, "u1", "g1", "release"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := words.Remove(ctx, "u1", "g1", "Release"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if cache.Len() != 0 {
		t.Fatalf("expected cache restored, got %d entries", cache.Len())
	}
	if _, err := words.Remove(ctx, "u1", "g1", "release"); !errors.Is(err, storage.ErrWordNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestWordsClearImportForget(t *testing.T) {
	words, _, cache := newWords()
	ctx := context.Background()

	words.Add(ctx, "u1", "g1", "deploy")
	words.Add(ctx, "u1", "g1", "release")
	words.Add(ctx, "u1", "g2", "deploy")

	if _, err := words.Import(ctx, "u1", "g1", "g1"); !errors.Is(err, ErrSameGuild) {
		t.Fatalf("expected same guild error, got %v", err)
	}
	imported, err := words.Import(ctx, "u1", "g1", "g2")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(imported) != 1 || imported[0].Word != "release" {
		t.Fatalf("expected only the missing word imported, got %+v", imported)
	}
	if !cache.Has(storage.Word{UserID: "u1", GuildID: "g2", Word: "release"}) {
		t.Fatalf("expected imported word cached")
	}

	cleared, err := words.Clear(ctx, "u1", "g1")
	if err != nil || cleared != 2 {
		t.Fatalf("clear: cleared=%d err=%v", cleared, err)
	}
	if cache.Len() != 2 {
		t.Fatalf("expected g2 words to remain cached, got %d", cache.Len())
	}

	forgotten, err := words.Forget(ctx, "u1")
	if err != nil || forgotten != 2 {
		t.Fatalf("forget: forgotten=%d err=%v", forgotten, err)
	}
	if cache.Len() != 0 {
		t.Fatalf("expected cache empty after forget")
	}
}
