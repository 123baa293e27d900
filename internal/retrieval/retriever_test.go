package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chatrag/ragcore/internal/types"
)

func TestDropNearDuplicatesKeepsFirstOccurrence(t *testing.T) {
	results := []*types.SearchResult{
		{MessageID: 1, ChunkText: "встреча в офисе завтра", Distance: 0.01, Similarity: 0.9},
		{MessageID: 2, ChunkText: "встреча в офисе завтра", Distance: 0.015, Similarity: 0.85},
		{MessageID: 3, ChunkText: "совсем другое сообщение", Distance: 0.3, Similarity: 0.5},
	}

	kept := dropNearDuplicates(results)

	assert.Len(t, kept, 2)
	assert.Equal(t, int64(1), kept[0].MessageID)
	assert.Equal(t, int64(3), kept[1].MessageID)
}

func TestDropNearDuplicatesKeepsDistinctTextEvenIfClose(t *testing.T) {
	results := []*types.SearchResult{
		{MessageID: 1, ChunkText: "первое сообщение", Distance: 0.01},
		{MessageID: 2, ChunkText: "второе сообщение", Distance: 0.01},
	}
	kept := dropNearDuplicates(results)
	assert.Len(t, kept, 2)
}

func TestSortDescendingOrdersBySimilarity(t *testing.T) {
	results := []*types.SearchResult{
		{MessageID: 1, Similarity: 0.2},
		{MessageID: 2, Similarity: 0.9},
		{MessageID: 3, Similarity: 0.5},
	}
	sortDescending(results)
	assert.Equal(t, []int64{2, 3, 1}, []int64{results[0].MessageID, results[1].MessageID, results[2].MessageID})
}

func TestGapOfUsesFifthOrLast(t *testing.T) {
	assert.InDelta(t, 0.13, gapOf([]float64{0.62, 0.55, 0.52, 0.50, 0.49}), 1e-9)
	assert.InDelta(t, 0.2, gapOf([]float64{0.5, 0.3}), 1e-9)
}
