// Package fusion implements the RAG Fusion Orchestrator of spec.md
// §4.5: parallel dense and keyword retrieval branches merged by
// Reciprocal Rank Fusion, optional cross-encoder reranking, and the
// confidence computation that governs the answer gate. It also builds
// the personal search pool of §4.7.
package fusion

import (
	"sort"

	"github.com/chatrag/ragcore/internal/types"
)

// Config holds the orchestrator's tunable constants.
type Config struct {
	K               int // RRF constant, default 60
	ResultsPerQuery int // per-branch candidate budget, default 60
	RerankTopN      int // max fused results sent to the reranker, default 100
}

// DefaultConfig returns spec.md's literal defaults.
func DefaultConfig() Config {
	return Config{K: 60, ResultsPerQuery: 60, RerankTopN: 100}
}

type resultKey struct {
	chatID     int64
	messageID  int64
	chunkIndex int32
}

func keyOf(r *types.SearchResult) resultKey {
	return resultKey{chatID: r.ChatID, messageID: r.MessageID, chunkIndex: r.ChunkIndex}
}

// rrfScore is 1/(K+rank+1) for a zero-based rank.
func rrfScore(rank, k int) float64 {
	return 1.0 / float64(k+rank+1)
}

// Fuse merges the dense and keyword branch result lists with
// Reciprocal Rank Fusion. Both inputs are assumed already ranked
// (index 0 is the best). When a document appears in both branches, one
// representative is kept: the non-question-embedding wins over the
// question-embedding bridge; otherwise the one with the higher raw
// similarity (1-distance) wins. keyword may be nil when the question
// yielded no keyword tokens.
func Fuse(dense, keyword []*types.SearchResult, k int) []*types.SearchResult {
	scores := make(map[resultKey]float64)
	chosen := make(map[resultKey]*types.SearchResult)

	accumulate := func(branch []*types.SearchResult) {
		for rank, r := range branch {
			key := keyOf(r)
			scores[key] += rrfScore(rank, k)

			existing, ok := chosen[key]
			if !ok {
				chosen[key] = r
				continue
			}
			chosen[key] = pickRepresentative(existing, r)
		}
	}
	accumulate(dense)
	accumulate(keyword)

	fused := make([]*types.SearchResult, 0, len(chosen))
	for key, r := range chosen {
		merged := *r
		merged.Similarity = scores[key]
		fused = append(fused, &merged)
	}
	sort.Slice(fused, func(i, j int) bool {
		return fused[i].Similarity > fused[j].Similarity
	})
	return fused
}

// pickRepresentative implements the tie-break rule of spec.md §4.5
// step 3: a real answer is preferred over its question-embedding
// bridge; otherwise the higher raw-similarity candidate wins.
func pickRepresentative(a, b *types.SearchResult) *types.SearchResult {
	if a.IsQuestionEmbedding != b.IsQuestionEmbedding {
		if a.IsQuestionEmbedding {
			return b
		}
		return a
	}
	if (1 - b.Distance) > (1 - a.Distance) {
		return b
	}
	return a
}
