package embedstore

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/chatrag/ragcore/internal/apperr"
	"github.com/chatrag/ragcore/internal/types"
)

// currentPrefix and legacyMarker mark the two chunk_text name-prefix
// formats rename must rewrite: the present "Name: text" format, and a
// legacy "] Name: text" format carried over from an earlier bracketed
// timestamp-prefix scheme.
const (
	currentPrefix = ": "
	legacyMarker  = "] "
)

// RenameInText rewrites every occurrence of oldName as the author-name
// prefix of chunkText, for both the current "Name: " format and the
// legacy "] Name: " format. It never touches oldName if it only
// appears inside the message body.
func RenameInText(chunkText, oldName, newName string) (string, bool) {
	if oldName == "" || oldName == newName {
		return chunkText, false
	}

	changed := false
	result := chunkText

	if prefix, rest, ok := strings.Cut(result, currentPrefix); ok && prefix == oldName {
		result = newName + currentPrefix + rest
		changed = true
	}

	if idx := strings.Index(result, legacyMarker); idx >= 0 {
		before := result[:idx]
		after := result[idx+len(legacyMarker):]
		if name, rest, ok := strings.Cut(after, currentPrefix); ok && name == oldName {
			result = before + legacyMarker + newName + currentPrefix + rest
			changed = true
		}
	}

	return result, changed
}

// RenameInMetadata patches the DisplayName field of a metadata JSON
// blob when it equals oldName. Returns the (possibly unchanged) bytes
// and whether a patch was applied.
func RenameInMetadata(metadata json.RawMessage, oldName, newName string) (json.RawMessage, bool, error) {
	var meta types.UtteranceMetadata
	if err := json.Unmarshal(metadata, &meta); err != nil {
		return metadata, false, err
	}
	if meta.DisplayName != oldName {
		return metadata, false, nil
	}
	meta.DisplayName = newName
	patched, err := json.Marshal(meta)
	if err != nil {
		return metadata, false, err
	}
	return patched, true, nil
}

// Rename rewrites every occurrence of oldName to newName across chunk
// text and metadata, optionally scoped to one chat. It returns the
// count of modified rows.
func (s *Store) Rename(ctx context.Context, chatID *int64, oldName, newName string) (int, error) {
	q := s.db.WithContext(ctx).Model(&types.UtteranceEmbedding{})
	if chatID != nil {
		q = q.Where("chat_id = ?", *chatID)
	}

	var rows []types.UtteranceEmbedding
	if err := q.Find(&rows).Error; err != nil {
		return 0, apperr.New(apperr.KindDatabaseUnavailable, "embedstore.rename_fetch", err)
	}

	modified := 0
	for _, row := range rows {
		newText, textChanged := RenameInText(row.ChunkText, oldName, newName)
		newMeta, metaChanged, err := RenameInMetadata(row.Metadata, oldName, newName)
		if err != nil {
			continue
		}
		if !textChanged && !metaChanged {
			continue
		}
		if err := s.db.WithContext(ctx).Model(&types.UtteranceEmbedding{}).
			Where("chat_id = ? AND message_id = ? AND chunk_index = ?", row.ChatID, row.MessageID, row.ChunkIndex).
			Updates(map[string]any{"chunk_text": newText, "metadata": newMeta}).Error; err != nil {
			return modified, apperr.New(apperr.KindDatabaseUnavailable, "embedstore.rename_update", err)
		}
		modified++
	}
	return modified, nil
}
