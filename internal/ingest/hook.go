// Package ingest wires new chat messages into storage and embedding:
// OnMessage persists the row then buffers it into the same batching
// window the embedding store groups by (spec.md §4.2), so a burst of
// consecutive messages from one author is embedded once instead of per
// message. A separate ticker (rebuild.go) keeps the sliding-window
// index current.
package ingest

import (
	"context"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/chatrag/ragcore/internal/apperr"
	"github.com/chatrag/ragcore/internal/embedstore"
	"github.com/chatrag/ragcore/internal/logger"
	"github.com/chatrag/ragcore/internal/types"
)

// DefaultFlushDelay is how long OnMessage waits for more messages from
// the same chat before embedding the buffered batch, mirroring the
// batch grouping's own gap tolerance.
const DefaultFlushDelay = embedstore.BatchGap

type pendingChat struct {
	mu       sync.Mutex
	messages []types.Message
	timer    *time.Timer
}

// batchStorer is the subset of *embedstore.Store a Hook flushes
// batches through; narrowed to an interface so the buffering policy
// can be tested without a live database.
type batchStorer interface {
	StoreBatch(ctx context.Context, messages []types.Message) error
}

// Hook stores incoming messages and schedules their embedding.
type Hook struct {
	db         *gorm.DB
	store      batchStorer
	flushDelay time.Duration

	mu      sync.Mutex
	pending map[int64]*pendingChat
}

// New builds a Hook. flushDelay <= 0 uses DefaultFlushDelay.
func New(db *gorm.DB, store *embedstore.Store, flushDelay time.Duration) *Hook {
	return newHook(db, store, flushDelay)
}

func newHook(db *gorm.DB, store batchStorer, flushDelay time.Duration) *Hook {
	if flushDelay <= 0 {
		flushDelay = DefaultFlushDelay
	}
	return &Hook{db: db, store: store, flushDelay: flushDelay, pending: make(map[int64]*pendingChat)}
}

// OnMessage stores msg, then buffers it for batched embedding. A chat
// whose buffer reaches embedstore.BatchMax flushes immediately; any
// smaller buffer flushes flushDelay after its most recent message.
func (h *Hook) OnMessage(ctx context.Context, msg types.Message) error {
	if err := h.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&msg).Error; err != nil {
		return apperr.New(apperr.KindDatabaseUnavailable, "ingest.store_message", err)
	}
	h.buffer(msg)
	return nil
}

func (h *Hook) buffer(msg types.Message) {
	h.mu.Lock()
	chat, ok := h.pending[msg.ChatID]
	if !ok {
		chat = &pendingChat{}
		h.pending[msg.ChatID] = chat
	}
	h.mu.Unlock()

	chat.mu.Lock()
	chat.messages = append(chat.messages, msg)
	full := len(chat.messages) >= embedstore.BatchMax
	if chat.timer != nil {
		chat.timer.Stop()
	}
	if full {
		batch := chat.messages
		chat.messages = nil
		chat.timer = nil
		chat.mu.Unlock()
		h.flush(msg.ChatID, batch)
		return
	}
	chat.timer = time.AfterFunc(h.flushDelay, func() { h.flushTimer(msg.ChatID) })
	chat.mu.Unlock()
}

func (h *Hook) flushTimer(chatID int64) {
	h.mu.Lock()
	chat, ok := h.pending[chatID]
	h.mu.Unlock()
	if !ok {
		return
	}

	chat.mu.Lock()
	batch := chat.messages
	chat.messages = nil
	chat.timer = nil
	chat.mu.Unlock()

	if len(batch) > 0 {
		h.flush(chatID, batch)
	}
}

func (h *Hook) flush(chatID int64, batch []types.Message) {
	ctx := context.Background()
	if err := h.store.StoreBatch(ctx, batch); err != nil {
		logger.Error(ctx, "ingest flush failed", "chat_id", chatID, "count", len(batch), "error", err.Error())
	}
}

// Close flushes every chat's pending buffer, for graceful shutdown.
func (h *Hook) Close(ctx context.Context) error {
	h.mu.Lock()
	chats := make(map[int64]*pendingChat, len(h.pending))
	for id, c := range h.pending {
		chats[id] = c
	}
	h.mu.Unlock()

	var firstErr error
	for chatID, chat := range chats {
		chat.mu.Lock()
		batch := chat.messages
		chat.messages = nil
		if chat.timer != nil {
			chat.timer.Stop()
			chat.timer = nil
		}
		chat.mu.Unlock()

		if len(batch) == 0 {
			continue
		}
		if err := h.store.StoreBatch(ctx, batch); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
