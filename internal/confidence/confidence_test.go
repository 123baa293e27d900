package confidence

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chatrag/ragcore/internal/types"
)

func TestEvaluateNoFullText(t *testing.T) {
	cases := []struct {
		best, gap float64
		want      types.ConfidenceLevel
	}{
		{0.62, 0.13, types.ConfidenceHigh},
		{0.38, 0.05, types.ConfidenceMedium},
		{0.28, 0.01, types.ConfidenceLow},
		{0.21, 0.0, types.ConfidenceNone},
	}
	for _, tc := range cases {
		assert.Equalf(t, tc.want, Evaluate(tc.best, tc.gap, false), "best=%v gap=%v", tc.best, tc.gap)
	}
}

func TestEvaluateFullText(t *testing.T) {
	assert.Equal(t, types.ConfidenceHigh, Evaluate(0.55, 0, true))
	assert.Equal(t, types.ConfidenceMedium, Evaluate(0.40, 0, true))
	assert.Equal(t, types.ConfidenceLow, Evaluate(0.10, 0, true))
}

func TestEvaluateMonotoneInBest(t *testing.T) {
	gap, hasFullText := 0.02, false
	levelRank := map[types.ConfidenceLevel]int{
		types.ConfidenceNone: 0, types.ConfidenceLow: 1, types.ConfidenceMedium: 2, types.ConfidenceHigh: 3,
	}
	prev := -1
	for best := 0.0; best <= 1.0; best += 0.01 {
		rank := levelRank[Evaluate(best, gap, hasFullText)]
		assert.GreaterOrEqualf(t, rank, prev, "best=%v should be monotone", best)
		prev = rank
	}
}

func TestGapUsesFifthOrLast(t *testing.T) {
	assert.InDelta(t, 0.13, Gap([]float64{0.62, 0.55, 0.52, 0.50, 0.49}), 1e-9)
	assert.InDelta(t, 0.2, Gap([]float64{0.5, 0.3}), 1e-9)
}

func TestIsNewsDumpRequiresTwoIndicators(t *testing.T) {
	long := make([]rune, 900)
	for i := range long {
		long[i] = 'a'
	}
	longText := string(long)

	assert.False(t, IsNewsDump(longText)) // only 1 indicator: length
	assert.True(t, IsNewsDump(longText+" Источник: t.me/channel http://a.example http://b.example"))
	assert.False(t, IsNewsDump("BREAKING Подписаться на канал")) // only 1 indicator: markers count once
}

func TestApplyNewsDumpPenaltyResorts(t *testing.T) {
	dump := make([]rune, 900)
	for i := range dump {
		dump[i] = 'x'
	}
	results := []*types.SearchResult{
		{MessageID: 1, ChunkText: string(dump) + " Источник: a http://a.example http://b.example", Similarity: 0.9},
		{MessageID: 2, ChunkText: "normal short reply", Similarity: 0.86},
	}
	ApplyNewsDumpPenalty(results)
	assert.Equal(t, int64(2), results[0].MessageID) // penalized result drops below the other
	assert.True(t, results[0].Similarity > results[1].Similarity)
	assert.True(t, results[1].IsNewsDump)
}
