package fusion

import (
	"context"
	"sort"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/chatrag/ragcore/internal/confidence"
	"github.com/chatrag/ragcore/internal/normalize"
	"github.com/chatrag/ragcore/internal/retrieval"
	"github.com/chatrag/ragcore/internal/types"
	"github.com/chatrag/ragcore/internal/types/interfaces"
)

// Orchestrator runs the RAG Fusion pipeline: parallel dense+keyword
// branches, RRF merge, near-exact discard, optional rerank, and the
// confidence computation that feeds the answer gate.
type Orchestrator struct {
	retriever *retrieval.Retriever
	reranker  interfaces.Reranker // nil when no cross-encoder is configured
	cfg       Config
}

// New builds an Orchestrator. reranker may be nil.
func New(retriever *retrieval.Retriever, reranker interfaces.Reranker, cfg Config) *Orchestrator {
	return &Orchestrator{retriever: retriever, reranker: reranker, cfg: cfg}
}

// Answer runs the default RAG Fusion strategy (spec.md §4.5). Callers
// should use RequiresSpecializedSearch on the classified query first
// and route to the personal pool path instead when it returns true.
func (o *Orchestrator) Answer(ctx context.Context, chatID int64, question string) (*types.SearchResponse, error) {
	keywordTerms := normalize.ExtractSearchTerms(question)

	var dense, keyword *types.SearchResponse
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		resp, err := o.retriever.Search(gctx, chatID, question, o.cfg.ResultsPerQuery)
		if err != nil {
			return err
		}
		dense = resp
		return nil
	})
	if keywordTerms != "" {
		g.Go(func() error {
			resp, err := o.retriever.Search(gctx, chatID, keywordTerms, 2*o.cfg.ResultsPerQuery)
			if err != nil {
				return err
			}
			keyword = resp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	denseResults := resultsOf(dense)
	keywordResults := resultsOf(keyword)
	branches := 1
	if keywordResults != nil {
		branches = 2
	}

	fused := Fuse(denseResults, keywordResults, o.cfg.K)
	fused = retrieval.DropNearDuplicates(fused)

	resp := &types.SearchResponse{Results: fused, HasFullTextMatch: dense.HasFullTextMatch}
	if keyword != nil {
		resp.HasFullTextMatch = resp.HasFullTextMatch || keyword.HasFullTextMatch
	}

	if o.reranker != nil && len(fused) > 0 {
		reranked, err := o.rerank(ctx, question, fused)
		if err != nil {
			return nil, err
		}
		resp.Results = reranked
		best := 0.0
		if len(reranked) > 0 {
			best = reranked[0].Similarity
		}
		resp.BestScore = best
		resp.Confidence = EvaluateReranked(best, len(reranked))
		return resp, nil
	}

	best := 0.0
	if len(fused) > 0 {
		best = fused[0].Similarity
	}
	resp.BestScore = best
	resp.Confidence = EvaluateFused(best, len(fused), branches, o.cfg.K)
	return resp, nil
}

// AnswerInPool implements the personal/temporal/multi-entity strategy
// of spec.md §4.7: search restricted to a pre-built message-id pool,
// with the confidence reason suffixed to note the pool size.
func (o *Orchestrator) AnswerInPool(ctx context.Context, chatID int64, question string, pool []int64) (*types.SearchResponse, error) {
	resp, err := o.retriever.SearchInPool(ctx, chatID, pool, question, 20)
	if err != nil {
		return nil, err
	}
	resp.Confidence = confidence.Evaluate(resp.BestScore, resp.ScoreGap, resp.HasFullTextMatch)
	resp.ConfidenceReason = suffixPoolSize(resp.ConfidenceReason, len(pool))
	return resp, nil
}

func suffixPoolSize(reason string, poolSize int) string {
	suffix := "[Personal pool: " + strconv.Itoa(poolSize) + "]"
	if reason == "" {
		return suffix
	}
	return reason + " " + suffix
}

func resultsOf(resp *types.SearchResponse) []*types.SearchResult {
	if resp == nil {
		return nil
	}
	return resp.Results
}

// rerank sends up to RerankTopN fused results to the cross-encoder and
// replaces their similarity with its 0..1 relevance score, preserving
// the question-embedding/context-window flags for downstream dedup.
func (o *Orchestrator) rerank(ctx context.Context, question string, fused []*types.SearchResult) ([]*types.SearchResult, error) {
	topN := o.cfg.RerankTopN
	if topN > len(fused) {
		topN = len(fused)
	}
	candidates := fused[:topN]
	docs := make([]string, len(candidates))
	for i, r := range candidates {
		docs[i] = r.ChunkText
	}

	scored, err := o.reranker.Rerank(ctx, question, docs, topN)
	if err != nil {
		return nil, err
	}

	out := make([]*types.SearchResult, 0, len(scored))
	for _, s := range scored {
		if s.Index < 0 || s.Index >= len(candidates) {
			continue
		}
		merged := *candidates[s.Index]
		merged.Similarity = s.Score
		out = append(out, &merged)
	}
	sortDescending(out)
	return out, nil
}

func sortDescending(results []*types.SearchResult) {
	sort.Slice(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
}
