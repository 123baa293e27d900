package intent

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func TestChatUserCacheReloadsAfterTTL(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	calls := 0
	loader := func(ctx context.Context, chatID int64) ([]Author, error) {
		calls++
		return []Author{{DisplayName: "alice"}}, nil
	}
	cache := NewChatUserCache(30*time.Minute, clock, loader)

	_, err := cache.TopAuthors(context.Background(), 1)
	assert.NoError(t, err)
	_, err = cache.TopAuthors(context.Background(), 1)
	assert.NoError(t, err)
	assert.Equal(t, 1, calls) // second call served from cache

	clock.now = clock.now.Add(31 * time.Minute)
	_, err = cache.TopAuthors(context.Background(), 1)
	assert.NoError(t, err)
	assert.Equal(t, 2, calls) // TTL expired, reloaded
}

func TestChatUserCacheInvalidateForcesReload(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	calls := 0
	loader := func(ctx context.Context, chatID int64) ([]Author, error) {
		calls++
		return nil, nil
	}
	cache := NewChatUserCache(30*time.Minute, clock, loader)

	_, _ = cache.TopAuthors(context.Background(), 1)
	cache.Invalidate(1)
	_, _ = cache.TopAuthors(context.Background(), 1)
	assert.Equal(t, 2, calls)
}

func TestChatUserCacheIsolatesByChat(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	loader := func(ctx context.Context, chatID int64) ([]Author, error) {
		return []Author{{DisplayName: "chat" + string(rune('0'+chatID))}}, nil
	}
	cache := NewChatUserCache(30*time.Minute, clock, loader)

	a1, _ := cache.TopAuthors(context.Background(), 1)
	a2, _ := cache.TopAuthors(context.Background(), 2)
	assert.NotEqual(t, a1[0].DisplayName, a2[0].DisplayName)
}
