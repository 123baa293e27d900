package intent

import (
	"context"
	"sync"
	"time"

	"github.com/chatrag/ragcore/internal/types/interfaces"
)

// Author is one chat member's aggregate authoring stats, as loaded for
// nickname resolution.
type Author struct {
	DisplayName  string
	Username     string
	MessageCount int
}

// ChatUserCache is the mutex-guarded, TTL-expiring in-memory cache of
// each chat's top-50 authors by message count, per spec.md §3's "Chat
// User Cache". Kept as an explicit struct with a mutex rather than a
// background-refresh goroutine, per REDESIGN FLAGS.
type ChatUserCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	clock   interfaces.Clock
	entries map[int64]cacheEntry
	loader  func(ctx context.Context, chatID int64) ([]Author, error)
}

type cacheEntry struct {
	loadedAt time.Time
	authors  []Author
}

// NewChatUserCache builds a ChatUserCache. loader fetches the top-50
// authors for a chat, ordered by message count descending.
func NewChatUserCache(ttl time.Duration, clock interfaces.Clock, loader func(context.Context, int64) ([]Author, error)) *ChatUserCache {
	return &ChatUserCache{ttl: ttl, clock: clock, entries: make(map[int64]cacheEntry), loader: loader}
}

// TopAuthors returns the cached (or freshly loaded) top-50 authors for chatID.
func (c *ChatUserCache) TopAuthors(ctx context.Context, chatID int64) ([]Author, error) {
	c.mu.Lock()
	entry, ok := c.entries[chatID]
	fresh := ok && c.clock.Now().Sub(entry.loadedAt) < c.ttl
	c.mu.Unlock()

	if fresh {
		return entry.authors, nil
	}

	authors, err := c.loader(ctx, chatID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[chatID] = cacheEntry{loadedAt: c.clock.Now(), authors: authors}
	c.mu.Unlock()
	return authors, nil
}

// Invalidate drops the cached entry for chatID, forcing a reload on the
// next TopAuthors call.
func (c *ChatUserCache) Invalidate(chatID int64) {
	c.mu.Lock()
	delete(c.entries, chatID)
	c.mu.Unlock()
}
