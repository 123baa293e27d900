package ingest

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/chatrag/ragcore/internal/apperr"
	"github.com/chatrag/ragcore/internal/logger"
	"github.com/chatrag/ragcore/internal/types"
	"github.com/chatrag/ragcore/internal/windowindex"
)

// DefaultRebuildInterval is how often the sliding-window index is
// refreshed for every chat with messages.
const DefaultRebuildInterval = 10 * time.Minute

// DefaultRebuildConcurrency bounds how many chats rebuild at once.
const DefaultRebuildConcurrency = 4

// Rebuilder periodically regenerates the sliding-window index for every
// chat, per spec.md §4.6/§4.13.
type Rebuilder struct {
	db          *gorm.DB
	indexer     *windowindex.Indexer
	interval    time.Duration
	concurrency int
}

// NewRebuilder builds a Rebuilder. interval/concurrency <= 0 use the
// package defaults.
func NewRebuilder(db *gorm.DB, indexer *windowindex.Indexer, interval time.Duration, concurrency int) *Rebuilder {
	if interval <= 0 {
		interval = DefaultRebuildInterval
	}
	if concurrency <= 0 {
		concurrency = DefaultRebuildConcurrency
	}
	return &Rebuilder{db: db, indexer: indexer, interval: interval, concurrency: concurrency}
}

// Run ticks every r.interval, rebuilding every chat's sliding-window
// index with up to r.concurrency running at once, until ctx is
// canceled.
func (r *Rebuilder) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.rebuildAll(ctx); err != nil {
				logger.Error(ctx, "sliding window rebuild pass failed", "error", err.Error())
			}
		}
	}
}

func (r *Rebuilder) rebuildAll(ctx context.Context) error {
	chatIDs, err := r.distinctChatIDs(ctx)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for _, chatID := range chatIDs {
		chatID := chatID
		g.Go(func() error {
			n, err := r.indexer.Rebuild(gctx, chatID)
			if err != nil {
				logger.Error(gctx, "sliding window rebuild failed", "chat_id", chatID, "error", err.Error())
				return nil // one chat's failure must not abort the rest of the pass
			}
			logger.Debug(gctx, "sliding window rebuilt", "chat_id", chatID, "windows", n)
			return nil
		})
	}
	return g.Wait()
}

func (r *Rebuilder) distinctChatIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := r.db.WithContext(ctx).
		Model(&types.Message{}).
		Distinct("chat_id").
		Pluck("chat_id", &ids).Error; err != nil {
		return nil, apperr.New(apperr.KindDatabaseUnavailable, "ingest.distinct_chat_ids", err)
	}
	return ids, nil
}
