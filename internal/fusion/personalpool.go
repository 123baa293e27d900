package fusion

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chatrag/ragcore/internal/apperr"
)

// PersonalPoolBuilder builds the restricted message-id pool that
// personal/temporal/multi-entity questions search within, per spec.md
// §4.7, instead of the whole chat.
type PersonalPoolBuilder struct {
	pool *pgxpool.Pool
}

// NewPersonalPoolBuilder builds a PersonalPoolBuilder.
func NewPersonalPoolBuilder(pool *pgxpool.Pool) *PersonalPoolBuilder {
	return &PersonalPoolBuilder{pool: pool}
}

// BuildForUser implements the stable-user-id branch: the union of the
// user's own recent messages (<=100, within `days` days) and messages
// from other authors mentioning any of namePatterns (<=50).
func (b *PersonalPoolBuilder) BuildForUser(ctx context.Context, chatID, userID int64, days int, namePatterns []string) ([]int64, error) {
	if days <= 0 {
		days = 7
	}
	since := time.Now().Add(-time.Duration(days) * 24 * time.Hour)

	own, err := b.queryIDs(ctx, `
		SELECT id FROM messages
		WHERE chat_id = $1 AND from_user_id = $2 AND date_utc >= $3
		ORDER BY date_utc DESC LIMIT 100`, chatID, userID, since)
	if err != nil {
		return nil, err
	}

	var mentioned []int64
	if len(namePatterns) > 0 {
		mentioned, err = b.queryIDs(ctx, `
			SELECT id FROM messages
			WHERE chat_id = $1 AND from_user_id != $2 AND text ILIKE ANY($3)
			ORDER BY date_utc DESC LIMIT 50`, chatID, userID, likePatterns(namePatterns))
		if err != nil {
			return nil, err
		}
	}

	return union(own, mentioned), nil
}

// BuildForNames implements the no-stable-id branch: the union of
// messages authored by, or mentioning, any of names.
func (b *PersonalPoolBuilder) BuildForNames(ctx context.Context, chatID int64, names []string) ([]int64, error) {
	if len(names) == 0 {
		return nil, nil
	}

	authored, err := b.queryIDs(ctx, `
		SELECT m.id FROM messages m
		LEFT JOIN message_embeddings e ON e.chat_id = m.chat_id AND e.message_id = m.id
		WHERE m.chat_id = $1 AND (
			m.display_name = ANY($2) OR m.username = ANY($2) OR
			(e.chunk_text IS NOT NULL AND e.chunk_text ILIKE ANY($3))
		)
		ORDER BY m.date_utc DESC LIMIT 100`, chatID, names, namePrefixPatterns(names))
	if err != nil {
		return nil, err
	}

	mentioned, err := b.queryIDs(ctx, `
		SELECT id FROM messages
		WHERE chat_id = $1 AND text ILIKE ANY($2)
		  AND display_name != ALL($3) AND username != ALL($3)
		ORDER BY date_utc DESC LIMIT 50`, chatID, likePatterns(names), names)
	if err != nil {
		return nil, err
	}

	return union(authored, mentioned), nil
}

func (b *PersonalPoolBuilder) queryIDs(ctx context.Context, query string, args ...any) ([]int64, error) {
	rows, err := b.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperr.New(apperr.KindDatabaseUnavailable, "fusion.personal_pool", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, apperr.New(apperr.KindDatabaseUnavailable, "fusion.personal_pool", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func likePatterns(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = "%" + n + "%"
	}
	return out
}

// namePrefixPatterns matches the current "Name: " chunk-text prefix
// format written by the embedding store (see spec.md §4.2 `rename`).
func namePrefixPatterns(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = n + ": %"
	}
	return out
}

func union(a, b []int64) []int64 {
	seen := make(map[int64]struct{}, len(a)+len(b))
	out := make([]int64, 0, len(a)+len(b))
	for _, id := range a {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	for _, id := range b {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}
