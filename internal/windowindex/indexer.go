package windowindex

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/chatrag/ragcore/internal/apperr"
	"github.com/chatrag/ragcore/internal/types"
	"github.com/chatrag/ragcore/internal/types/interfaces"
)

// Indexer rebuilds the sliding-window embeddings for a chat: fetch its
// messages, segment into dialogs, build windows, embed with the
// passage task and late-chunking hint, and upsert by
// (chat_id, center_message_id), per spec.md §4.6.
type Indexer struct {
	db       *gorm.DB
	embedder interfaces.Embedder
}

// New builds an Indexer.
func New(db *gorm.DB, embedder interfaces.Embedder) *Indexer {
	return &Indexer{db: db, embedder: embedder}
}

// Rebuild regenerates every sliding-window embedding for chatID.
func (idx *Indexer) Rebuild(ctx context.Context, chatID int64) (int, error) {
	var messages []types.Message
	if err := idx.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("date_utc ASC").
		Find(&messages).Error; err != nil {
		return 0, apperr.New(apperr.KindDatabaseUnavailable, "windowindex.fetch_messages", err)
	}
	if len(messages) == 0 {
		return 0, nil
	}

	var windows []Window
	for _, dialog := range Segment(messages) {
		windows = append(windows, BuildWindows(dialog)...)
	}
	if len(windows) == 0 {
		return 0, nil
	}

	texts := make([]string, len(windows))
	for i, w := range windows {
		texts[i] = renderWindowText(w)
	}

	vectors, err := idx.embedder.EmbedBatch(ctx, texts, interfaces.EmbedTaskPassage, true)
	if err != nil {
		return 0, apperr.New(apperr.KindTransientRemote, "windowindex.embed_batch", err)
	}

	rows := make([]types.SlidingWindowEmbedding, len(windows))
	for i, w := range windows {
		ids := make([]int64, len(w.Members))
		for j, m := range w.Members {
			ids[j] = m.ID
		}
		rows[i] = types.SlidingWindowEmbedding{
			ChatID:          chatID,
			CenterMessageID: w.CenterID,
			WindowStartID:   w.Members[0].ID,
			WindowEndID:     w.Members[len(w.Members)-1].ID,
			MessageIDs:      ids,
			ContextText:     texts[i],
			Embedding:       vectors[i],
			WindowSize:      int32(len(w.Members)),
		}
	}

	if err := idx.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "chat_id"}, {Name: "center_message_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"window_start_id", "window_end_id", "message_ids", "context_text", "embedding", "window_size"}),
	}).Create(&rows).Error; err != nil {
		return 0, apperr.New(apperr.KindDatabaseUnavailable, "windowindex.upsert", err)
	}

	return len(rows), nil
}

// renderWindowText builds the "\n".join("{author}: {text}") text a
// window is embedded from.
func renderWindowText(w Window) string {
	lines := make([]string, len(w.Members))
	for i, m := range w.Members {
		lines[i] = m.AuthorLabel() + ": " + m.Text
	}
	return strings.Join(lines, "\n")
}
