package fusion

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chatrag/ragcore/internal/types"
)

func TestFuseSumsScoresAcrossBranches(t *testing.T) {
	shared := &types.SearchResult{ChatID: 1, MessageID: 10, ChunkIndex: 0, Distance: 0.1}
	dense := []*types.SearchResult{shared}
	keyword := []*types.SearchResult{shared}

	fused := Fuse(dense, keyword, 60)

	assert.Len(t, fused, 1)
	want := rrfScore(0, 60) * 2
	assert.InDelta(t, want, fused[0].Similarity, 1e-12)
}

func TestFuseRanksHigherWhenInBothBranches(t *testing.T) {
	onlyDense := &types.SearchResult{ChatID: 1, MessageID: 1, Distance: 0.05}
	inBoth := &types.SearchResult{ChatID: 1, MessageID: 2, Distance: 0.2}

	dense := []*types.SearchResult{onlyDense, inBoth}
	keyword := []*types.SearchResult{inBoth}

	fused := Fuse(dense, keyword, 60)

	assert.Equal(t, int64(2), fused[0].MessageID) // appears in both branches, ranks first
	assert.Equal(t, int64(1), fused[1].MessageID)
}

func TestFusePrefersNonQuestionEmbeddingOnTie(t *testing.T) {
	bridge := &types.SearchResult{ChatID: 1, MessageID: 1, Distance: 0.05, IsQuestionEmbedding: true}
	answer := &types.SearchResult{ChatID: 1, MessageID: 1, Distance: 0.2, IsQuestionEmbedding: false}

	dense := []*types.SearchResult{bridge}
	keyword := []*types.SearchResult{answer}

	fused := Fuse(dense, keyword, 60)

	assert.Len(t, fused, 1)
	assert.False(t, fused[0].IsQuestionEmbedding)
}

func TestPickRepresentativePrefersHigherSimilarityWhenNeitherIsBridge(t *testing.T) {
	closer := &types.SearchResult{Distance: 0.05}
	farther := &types.SearchResult{Distance: 0.3}
	assert.Same(t, closer, pickRepresentative(closer, farther))
	assert.Same(t, closer, pickRepresentative(farther, closer))
}
