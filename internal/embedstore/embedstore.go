package embedstore

import (
	"context"
	"encoding/json"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/chatrag/ragcore/internal/apperr"
	"github.com/chatrag/ragcore/internal/types"
	"github.com/chatrag/ragcore/internal/types/interfaces"
)

// Store persists per-message and per-batch utterance embeddings, per
// spec.md §4.2.
type Store struct {
	db       *gorm.DB
	embedder interfaces.Embedder
}

// New builds a Store.
func New(db *gorm.DB, embedder interfaces.Embedder) *Store {
	return &Store{db: db, embedder: embedder}
}

// StoreMessage upserts a single message's embedding row.
func (s *Store) StoreMessage(ctx context.Context, message types.Message) error {
	return s.StoreBatch(ctx, []types.Message{message})
}

// StoreBatch groups messages into same-author runs (see batch.go) and
// upserts one embedding row per run, keyed by the run's first message id.
func (s *Store) StoreBatch(ctx context.Context, messages []types.Message) error {
	batches := GroupIntoBatches(messages)
	if len(batches) == 0 {
		return nil
	}

	texts := make([]string, len(batches))
	for i, b := range batches {
		texts[i] = b.Text()
	}

	vectors, err := s.embedder.EmbedBatch(ctx, texts, interfaces.EmbedTaskPassage, false)
	if err != nil {
		return apperr.New(apperr.KindTransientRemote, "embedstore.embed_batch", err)
	}

	rows := make([]types.UtteranceEmbedding, len(batches))
	for i, b := range batches {
		metaJSON, err := json.Marshal(b.Metadata())
		if err != nil {
			return apperr.New(apperr.KindUnknown, "embedstore.marshal_metadata", err)
		}
		rows[i] = types.UtteranceEmbedding{
			ChatID:     b.Messages[0].ChatID,
			MessageID:  b.FirstID(),
			ChunkIndex: 0,
			ChunkText:  texts[i],
			Embedding:  vectors[i],
			Metadata:   metaJSON,
			IsQuestion: false,
		}
	}

	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "chat_id"}, {Name: "message_id"}, {Name: "chunk_index"}},
		DoUpdates: clause.AssignmentColumns([]string{"chunk_text", "embedding", "metadata", "is_question"}),
	}).Create(&rows).Error; err != nil {
		return apperr.New(apperr.KindDatabaseUnavailable, "embedstore.upsert", err)
	}
	return nil
}

// DeleteChat removes every embedding row for chatID.
func (s *Store) DeleteChat(ctx context.Context, chatID int64) error {
	if err := s.db.WithContext(ctx).Where("chat_id = ?", chatID).Delete(&types.UtteranceEmbedding{}).Error; err != nil {
		return apperr.New(apperr.KindDatabaseUnavailable, "embedstore.delete_chat", err)
	}
	return nil
}

// DeleteAll truncates every embedding row.
func (s *Store) DeleteAll(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Where("1 = 1").Delete(&types.UtteranceEmbedding{}).Error; err != nil {
		return apperr.New(apperr.KindDatabaseUnavailable, "embedstore.delete_all", err)
	}
	return nil
}

// Stats is the aggregate embedding row count for a chat.
type Stats struct {
	RowCount       int64
	QuestionRows   int64
	DistinctAuthors int64
}

// Stats reports row counts for chatID.
func (s *Store) Stats(ctx context.Context, chatID int64) (Stats, error) {
	var st Stats
	q := s.db.WithContext(ctx).Model(&types.UtteranceEmbedding{}).Where("chat_id = ?", chatID)
	if err := q.Count(&st.RowCount).Error; err != nil {
		return Stats{}, apperr.New(apperr.KindDatabaseUnavailable, "embedstore.stats_count", err)
	}
	if err := q.Where("is_question = ?", true).Count(&st.QuestionRows).Error; err != nil {
		return Stats{}, apperr.New(apperr.KindDatabaseUnavailable, "embedstore.stats_questions", err)
	}
	if err := s.db.WithContext(ctx).Model(&types.UtteranceEmbedding{}).
		Where("chat_id = ?", chatID).
		Distinct("metadata->>'FromUserId'").
		Count(&st.DistinctAuthors).Error; err != nil {
		return Stats{}, apperr.New(apperr.KindDatabaseUnavailable, "embedstore.stats_authors", err)
	}
	return st, nil
}
