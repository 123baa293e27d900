// Package contextwindow expands retrieval hits into the short runs of
// surrounding conversation used to ground an answer, merging runs that
// overlap into longer coherent threads, per spec.md §4.8.
package contextwindow

import (
	"context"
	"sort"

	"gorm.io/gorm"

	"github.com/chatrag/ragcore/internal/apperr"
	"github.com/chatrag/ragcore/internal/types"
)

// HalfWidth is W from spec.md §4.8: the number of messages fetched on
// each side of a hit (the hit itself is also included).
const HalfWidth = 2

// rangeBuffer bounds how far past HalfWidth the single fetch query
// looks, to skip over text-empty messages (forwarded media, etc.) when
// finding the nearest W messages with text on each side.
const rangeBuffer = 20

// Expander fetches and merges context windows around retrieval hits.
type Expander struct {
	db *gorm.DB
}

// New builds an Expander.
func New(db *gorm.DB) *Expander {
	return &Expander{db: db}
}

// Expand returns one ContextThread per merged window around hitIDs.
// hitIDs should number <=10 per spec.md §4.8; more are accepted but
// cost a wider single fetch range.
func (e *Expander) Expand(ctx context.Context, chatID int64, hitIDs []int64) ([]types.ContextThread, error) {
	if len(hitIDs) == 0 {
		return nil, nil
	}

	minID, maxID := hitIDs[0], hitIDs[0]
	for _, id := range hitIDs {
		if id < minID {
			minID = id
		}
		if id > maxID {
			maxID = id
		}
	}

	var rows []types.Message
	if err := e.db.WithContext(ctx).
		Where("chat_id = ? AND id BETWEEN ? AND ? AND text != ''", chatID, minID-rangeBuffer, maxID+rangeBuffer).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, apperr.New(apperr.KindDatabaseUnavailable, "contextwindow.fetch", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	posByID := make(map[int64]int, len(rows))
	for i, m := range rows {
		posByID[m.ID] = i
	}

	var windows [][]int64 // each is an ordered run of message ids
	for _, hit := range hitIDs {
		pos, ok := posByID[hit]
		if !ok {
			continue // hit itself has no text, or falls outside the fetched range
		}
		start := pos - HalfWidth
		if start < 0 {
			start = 0
		}
		end := pos + HalfWidth
		if end >= len(rows) {
			end = len(rows) - 1
		}
		ids := make([]int64, 0, end-start+1)
		for i := start; i <= end; i++ {
			ids = append(ids, rows[i].ID)
		}
		windows = append(windows, ids)
	}

	merged := mergeOverlapping(windows)

	threads := make([]types.ContextThread, 0, len(merged))
	for _, idSet := range merged {
		thread := types.ContextThread{Messages: make([]types.ContextMessage, 0, len(idSet))}
		for _, id := range idSet {
			m := rows[posByID[id]]
			thread.Messages = append(thread.Messages, types.ContextMessage{
				MessageID:     m.ID,
				Author:        m.AuthorLabel(),
				Text:          m.Text,
				Date:          m.DateUTC,
				IsForwarded:   m.IsForwarded,
				ForwardOrigin: m.ForwardOriginType,
			})
		}
		threads = append(threads, thread)
	}
	return threads, nil
}

// mergeOverlapping unions any windows sharing at least one message id
// into a single ordered, deduplicated run.
func mergeOverlapping(windows [][]int64) [][]int64 {
	parent := make(map[int64]int64)
	var find func(int64) int64
	find = func(id int64) int64 {
		root, ok := parent[id]
		if !ok {
			parent[id] = id
			return id
		}
		if root == id {
			return id
		}
		root = find(root)
		parent[id] = root
		return root
	}
	union := func(a, b int64) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[ra] = rb
		}
	}

	for _, w := range windows {
		if len(w) == 0 {
			continue
		}
		find(w[0])
		for _, id := range w[1:] {
			find(id)
			union(w[0], id)
		}
	}

	groups := make(map[int64][]int64)
	for _, w := range windows {
		for _, id := range w {
			root := find(id)
			groups[root] = append(groups[root], id)
		}
	}

	out := make([][]int64, 0, len(groups))
	for _, ids := range groups {
		seen := make(map[int64]struct{}, len(ids))
		uniq := make([]int64, 0, len(ids))
		for _, id := range ids {
			if _, dup := seen[id]; !dup {
				seen[id] = struct{}{}
				uniq = append(uniq, id)
			}
		}
		sort.Slice(uniq, func(i, j int) bool { return uniq[i] < uniq[j] })
		out = append(out, uniq)
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}
