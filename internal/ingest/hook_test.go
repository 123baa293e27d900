package ingest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatrag/ragcore/internal/types"
)

type fakeStorer struct {
	mu      sync.Mutex
	batches [][]types.Message
}

func (f *fakeStorer) StoreBatch(ctx context.Context, messages []types.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make([]types.Message, len(messages))
	copy(cp, messages)
	f.batches = append(f.batches, cp)
	return nil
}

func (f *fakeStorer) snapshot() [][]types.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]types.Message, len(f.batches))
	copy(out, f.batches)
	return out
}

func msg(chatID, id int64) types.Message {
	return types.Message{ChatID: chatID, ID: id, FromUserID: 1, DateUTC: time.Now()}
}

func TestHookFlushesImmediatelyAtBatchMax(t *testing.T) {
	storer := &fakeStorer{}
	h := newHook(nil, storer, time.Hour) // long delay: only the size trigger should fire

	for i := int64(0); i < 10; i++ {
		h.buffer(msg(1, i))
	}

	require.Eventually(t, func() bool { return len(storer.snapshot()) == 1 }, time.Second, time.Millisecond)
	batches := storer.snapshot()
	assert.Len(t, batches[0], 10)
}

func TestHookFlushesAfterDelayBelowBatchMax(t *testing.T) {
	storer := &fakeStorer{}
	h := newHook(nil, storer, 20*time.Millisecond)

	h.buffer(msg(2, 1))
	h.buffer(msg(2, 2))

	require.Eventually(t, func() bool { return len(storer.snapshot()) == 1 }, time.Second, time.Millisecond)
	batches := storer.snapshot()
	assert.Len(t, batches[0], 2)
}

func TestHookKeepsSeparateChatsIndependent(t *testing.T) {
	storer := &fakeStorer{}
	h := newHook(nil, storer, 20*time.Millisecond)

	h.buffer(msg(1, 1))
	h.buffer(msg(2, 1))

	require.Eventually(t, func() bool { return len(storer.snapshot()) == 2 }, time.Second, time.Millisecond)
	for _, b := range storer.snapshot() {
		assert.Len(t, b, 1)
	}
}

func TestHookCloseFlushesPendingBuffers(t *testing.T) {
	storer := &fakeStorer{}
	h := newHook(nil, storer, time.Hour)

	h.buffer(msg(3, 1))
	h.buffer(msg(3, 2))

	err := h.Close(context.Background())
	require.NoError(t, err)

	batches := storer.snapshot()
	require.Len(t, batches, 1)
	assert.Len(t, batches[0], 2)
}
