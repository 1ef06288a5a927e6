package wordcache

import (
	"sort"
	"sync"

	"highlight-bot/internal/storage"
)

// Cache mirrors every stored highlight word, grouped by guild, so incoming
// messages can be tested without touching the database. Callers mutate it only
// after the matching store write succeeded.
type Cache struct {
	mu     sync.RWMutex
	guilds map[string]map[string]map[string]struct{}
}

func New() *Cache {
	return &Cache{guilds: make(map[string]map[string]map[string]struct{})}
}

// Load replaces the cache contents with words.
func (c *Cache) Load(words []storage.Word) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.guilds = make(map[string]map[string]map[string]struct{})
	for _, word := range words {
		c.insertLocked(word)
	}
}

func (c *Cache) Insert(word storage.Word) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.insertLocked(word)
}

func (c *Cache) InsertAll(words []storage.Word) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, word := range words {
		c.insertLocked(word)
	}
}

func (c *Cache) Remove(word storage.Word) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(word)
}

func (c *Cache) RemoveAll(words []storage.Word) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, word := range words {
		c.removeLocked(word)
	}
}

// Candidates returns the distinct words of guild found in lowered, sorted.
func (c *Cache) Candidates(guildID, lowered string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var found []string
	for word := range c.guilds[guildID] {
		if Matches(lowered, word) {
			found = append(found, word)
		}
	}
	sort.Strings(found)
	return found
}

// Has reports whether owner has word cached in guild.
func (c *Cache) Has(word storage.Word) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.guilds[word.GuildID][word.Word][word.UserID]
	return ok
}

// Len returns the number of cached (owner, guild, word) entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	total := 0
	for _, words := range c.guilds {
		for _, owners := range words {
			total += len(owners)
		}
	}
	return total
}

func (c *Cache) insertLocked(word storage.Word) {
	words := c.guilds[word.GuildID]
	if words == nil {
		words = make(map[string]map[string]struct{})
		c.guilds[word.GuildID] = words
	}
	owners := words[word.Word]
	if owners == nil {
		owners = make(map[string]struct{})
		words[word.Word] = owners
	}
	owners[word.UserID] = struct{}{}
}

func (c *Cache) removeLocked(word storage.Word) {
	words := c.guilds[word.GuildID]
	owners := words[word.Word]
	if owners == nil {
		return
	}
	delete(owners, word.UserID)
	if len(owners) == 0 {
		delete(words, word.Word)
	}
	if len(words) == 0 {
		delete(c.guilds, word.GuildID)
	}
}
