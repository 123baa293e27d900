package retrieval

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/chatrag/ragcore/internal/apperr"
	"github.com/chatrag/ragcore/internal/normalize"
	"github.com/chatrag/ragcore/internal/types"
	"github.com/chatrag/ragcore/internal/types/interfaces"
)

// NearDupThreshold is the cosine similarity at or above which a
// candidate is treated as a near-duplicate of one already kept and
// discarded, per spec.md §4.4.
const NearDupThreshold = 0.98

// Retriever implements the hybrid dense+sparse search over
// message_embeddings, per spec.md §4.4.
type Retriever struct {
	pool     *pgxpool.Pool
	embedder interfaces.Embedder
	clock    interfaces.Clock
	weights  Weights
}

// New builds a Retriever with the given weights (use DefaultWeights()
// unless config overrides them).
func New(pool *pgxpool.Pool, embedder interfaces.Embedder, clock interfaces.Clock, weights Weights) *Retriever {
	return &Retriever{pool: pool, embedder: embedder, clock: clock, weights: weights}
}

type candidate struct {
	chatID      int64
	messageID   int64
	chunkIndex  int32
	chunkText   string
	metadata    json.RawMessage
	distance    float64
	isQuestion  bool
	createdAt   time.Time
	isCtxWindow bool
}

// Search implements the `search` operation: embeds the query, fetches
// stage-1 candidates restricted to chatID, scores them, filters near
// duplicates, and returns up to limit results ordered descending by
// similarity, alongside a full-text-match flag from the Postgres
// fallback.
func (r *Retriever) Search(ctx context.Context, chatID int64, query string, limit int) (*types.SearchResponse, error) {
	return r.search(ctx, chatID, nil, query, limit)
}

// SearchInPool implements `search_in_pool`: identical scoring, but
// stage-1 is restricted to the given message IDs (the personal search
// pool built by the fusion orchestrator for §4.7).
func (r *Retriever) SearchInPool(ctx context.Context, chatID int64, messageIDs []int64, query string, limit int) (*types.SearchResponse, error) {
	return r.search(ctx, chatID, messageIDs, query, limit)
}

func (r *Retriever) search(ctx context.Context, chatID int64, messageIDs []int64, query string, limit int) (*types.SearchResponse, error) {
	normalized := normalize.Normalize(query)
	if normalized == "" {
		return &types.SearchResponse{Confidence: types.ConfidenceNone}, nil
	}

	sparseTermString := normalize.ExtractSearchTerms(normalized)
	var sparseTerms []string
	if sparseTermString != "" {
		sparseTerms = strings.Fields(sparseTermString)
	}
	keywords := normalize.ExtractIlikeWords(normalized, 5)

	queryVec, err := r.embedder.Embed(ctx, normalized, interfaces.EmbedTaskQuery)
	if err != nil {
		return nil, apperr.New(apperr.KindTransientRemote, "retrieval.embed_query", err)
	}

	candLimit := CandidateLimit(limit, len(sparseTerms) > 0)
	candidates, err := r.fetchCandidates(ctx, chatID, messageIDs, queryVec, candLimit)
	if err != nil {
		return nil, err
	}

	hasFullText, err := r.fullTextSearch(ctx, chatID, messageIDs, normalized)
	if err != nil {
		hasFullText = false // fallback is best-effort, never fatal to a search
	}
	if !hasFullText {
		hasFullText, err = r.simpleTextSearch(ctx, chatID, messageIDs, keywords)
		if err != nil {
			hasFullText = false
		}
	}

	now := r.clock.Now()
	hybrid := len(sparseTerms) > 0
	results := make([]*types.SearchResult, 0, len(candidates))
	for _, c := range candidates {
		textScore := TextScore(c.chunkText, sparseTerms)
		boost := ExactBoost(c.chunkText, r.weights, keywords)
		decay := TimeDecay(r.weights, now.Sub(c.createdAt))
		score := Score(c.distance, r.weights, hybrid, textScore, boost, decay)

		results = append(results, &types.SearchResult{
			ChatID:              c.chatID,
			MessageID:           c.messageID,
			ChunkIndex:          c.chunkIndex,
			ChunkText:           c.chunkText,
			Metadata:            c.metadata,
			Distance:            c.distance,
			Similarity:          score,
			IsQuestionEmbedding: c.isQuestion,
			IsContextWindow:     c.isCtxWindow,
		})
	}

	results = dropNearDuplicates(results)
	sortDescending(results)
	if len(results) > limit {
		results = results[:limit]
	}

	resp := &types.SearchResponse{Results: results, HasFullTextMatch: hasFullText}
	if len(results) > 0 {
		sims := make([]float64, len(results))
		for i, res := range results {
			sims[i] = res.Similarity
		}
		resp.BestScore = sims[0]
		resp.ScoreGap = gapOf(sims)
	}
	return resp, nil
}

func gapOf(sims []float64) float64 {
	idx := 4
	if idx >= len(sims) {
		idx = len(sims) - 1
	}
	return sims[0] - sims[idx]
}

func sortDescending(results []*types.SearchResult) {
	sort.Slice(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
}

// DropNearDuplicates is the exported form used by the fusion
// orchestrator to re-apply the near-exact filter after RRF merges two
// branches (spec.md §4.5 step 4).
func DropNearDuplicates(results []*types.SearchResult) []*types.SearchResult {
	return dropNearDuplicates(results)
}

// dropNearDuplicates discards any later candidate whose raw cosine
// similarity (1-distance) to an already-kept candidate is >=
// NearDupThreshold, per spec.md §4.4 / §8 invariant 8.
func dropNearDuplicates(results []*types.SearchResult) []*types.SearchResult {
	kept := make([]*types.SearchResult, 0, len(results))
	for _, r := range results {
		dup := false
		rawSim := 1 - r.Distance
		for _, k := range kept {
			if rawSim >= NearDupThreshold && (1-k.Distance) >= NearDupThreshold && r.ChunkText == k.ChunkText {
				dup = true
				break
			}
		}
		if !dup {
			kept = append(kept, r)
		}
	}
	return kept
}

func (r *Retriever) fetchCandidates(ctx context.Context, chatID int64, messageIDs []int64, queryVec []float32, candLimit int) ([]candidate, error) {
	vec := pgvector.NewVector(queryVec)

	var rows pgx.Rows
	var err error
	if len(messageIDs) > 0 {
		const q = `
			SELECT chat_id, message_id, chunk_index, chunk_text, metadata,
			       embedding <=> $1 AS distance, is_question, created_at
			FROM message_embeddings
			WHERE chat_id = $2 AND message_id = ANY($3)
			ORDER BY embedding <=> $1
			LIMIT $4`
		rows, err = r.pool.Query(ctx, q, vec, chatID, messageIDs, candLimit)
	} else {
		const q = `
			SELECT chat_id, message_id, chunk_index, chunk_text, metadata,
			       embedding <=> $1 AS distance, is_question, created_at
			FROM message_embeddings
			WHERE chat_id = $2
			ORDER BY embedding <=> $1
			LIMIT $3`
		rows, err = r.pool.Query(ctx, q, vec, chatID, candLimit)
	}
	if err != nil {
		return nil, apperr.New(apperr.KindDatabaseUnavailable, "retrieval.fetch_candidates", err)
	}
	defer rows.Close()

	var out []candidate
	for rows.Next() {
		var c candidate
		if err := rows.Scan(&c.chatID, &c.messageID, &c.chunkIndex, &c.chunkText, &c.metadata, &c.distance, &c.isQuestion, &c.createdAt); err != nil {
			return nil, apperr.New(apperr.KindDatabaseUnavailable, "retrieval.scan_candidate", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.New(apperr.KindDatabaseUnavailable, "retrieval.fetch_candidates", err)
	}
	return out, nil
}

// fullTextSearch runs the Postgres tsvector fallback and reports
// whether it produced at least one match.
func (r *Retriever) fullTextSearch(ctx context.Context, chatID int64, messageIDs []int64, query string) (bool, error) {
	var row pgx.Row
	if len(messageIDs) > 0 {
		const q = `
			SELECT 1 FROM message_embeddings
			WHERE chat_id = $1 AND message_id = ANY($2)
			  AND to_tsvector('russian', chunk_text) @@ websearch_to_tsquery('russian', $3)
			LIMIT 1`
		row = r.pool.QueryRow(ctx, q, chatID, messageIDs, query)
	} else {
		const q = `
			SELECT 1 FROM message_embeddings
			WHERE chat_id = $1
			  AND to_tsvector('russian', chunk_text) @@ websearch_to_tsquery('russian', $2)
			LIMIT 1`
		row = r.pool.QueryRow(ctx, q, chatID, query)
	}
	var dummy int
	if err := row.Scan(&dummy); err != nil {
		if err == pgx.ErrNoRows {
			return false, nil
		}
		return false, apperr.New(apperr.KindDatabaseUnavailable, "retrieval.full_text_search", err)
	}
	return true, nil
}

// simpleTextSearch is the ILIKE fallback used when the tsvector query
// fails to match (e.g. short or malformed queries).
func (r *Retriever) simpleTextSearch(ctx context.Context, chatID int64, messageIDs []int64, keywords []string) (bool, error) {
	if len(keywords) == 0 {
		return false, nil
	}
	patterns := make([]string, len(keywords))
	for i, kw := range keywords {
		patterns[i] = "%" + kw + "%"
	}

	var row pgx.Row
	if len(messageIDs) > 0 {
		const q = `
			SELECT 1 FROM message_embeddings
			WHERE chat_id = $1 AND message_id = ANY($2) AND chunk_text ILIKE ANY($3)
			LIMIT 1`
		row = r.pool.QueryRow(ctx, q, chatID, messageIDs, patterns)
	} else {
		const q = `
			SELECT 1 FROM message_embeddings
			WHERE chat_id = $1 AND chunk_text ILIKE ANY($2)
			LIMIT 1`
		row = r.pool.QueryRow(ctx, q, chatID, patterns)
	}
	var dummy int
	if err := row.Scan(&dummy); err != nil {
		if err == pgx.ErrNoRows {
			return false, nil
		}
		return false, apperr.New(apperr.KindDatabaseUnavailable, "retrieval.simple_text_search", err)
	}
	return true, nil
}
