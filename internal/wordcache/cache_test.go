package wordcache

import (
	"testing"

	"highlight-bot/internal/storage"
)

func TestCacheCandidatesByGuild(t *testing.T) {
	cache := New()
	cache.Load([]storage.Word{
		{UserID: "u1", GuildID: "g1", Word: "deploy"},
		{UserID: "u2", GuildID: "g1", Word: "deploy"},
		{UserID: "u1", GuildID: "g1", Word: "release"},
		{UserID: "u1", GuildID: "g2", Word: "outage"},
	})

	got := cache.Candidates("g1", "deploy the release now")
	if len(got) != 2 || got[0] != "deploy" || got[1] != "release" {
		t.Fatalf("unexpected candidates: %v", got)
	}
	if got := cache.Candidates("g1", "big outage"); len(got) != 0 {
		t.Fatalf("expected other guild words to be ignored, got %v", got)
	}
	if cache.Len() != 4 {
		t.Fatalf("expected 4 entries, got %d", cache.Len())
	}
}

func TestCacheInsertIsIdempotent(t *testing.T) {
	cache := New()
	word := storage.Word{UserID: "u1", GuildID: "g1", Word: "deploy"}
	cache.Insert(word)
	cache.Insert(word)
	if cache.Len() != 1 {
		t.Fatalf("expected a single entry, got %d", cache.Len())
	}
}

func TestCacheRemoveRoundTrip(t *testing.T) {
	cache := New()
	other := storage.Word{UserID: "u2", GuildID: "g1", Word: "deploy"}
	cache.Insert(other)

	word := storage.Word{UserID: "u1", GuildID: "g1", Word: "deploy"}
	cache.Insert(word)
	cache.Remove(word)

	if cache.Has(word) {
		t.Fatalf("expected word to be removed")
	}
	if !cache.Has(other) {
		t.Fatalf("expected other owner to keep the word")
	}
	if got := cache.Candidates("g1", "deploy"); len(got) != 1 {
		t.Fatalf("expected word still cached for other owner, got %v", got)
	}

	cache.Remove(other)
	if cache.Len() != 0 || len(cache.Candidates("g1", "deploy")) != 0 {
		t.Fatalf("expected empty cache")
	}
	cache.Remove(other)
}

func TestCacheBulkOperations(t *testing.T) {
	cache := New()
	words := []storage.Word{
		{UserID: "u1", GuildID: "g1", Word: "one"},
		{UserID: "u1", GuildID: "g2", Word: "two"},
	}
	cache.InsertAll(words)
	if cache.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", cache.Len())
	}
	cache.RemoveAll(words)
	if cache.Len() != 0 {
		t.Fatalf("expected empty cache, got %d", cache.Len())
	}
}
