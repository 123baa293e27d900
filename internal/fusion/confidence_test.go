package fusion

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chatrag/ragcore/internal/types"
)

func TestEvaluateRerankedThresholds(t *testing.T) {
	assert.Equal(t, types.ConfidenceHigh, EvaluateReranked(0.85, 3))
	assert.Equal(t, types.ConfidenceMedium, EvaluateReranked(0.6, 3))
	assert.Equal(t, types.ConfidenceLow, EvaluateReranked(0.35, 1))
	assert.Equal(t, types.ConfidenceLow, EvaluateReranked(0.1, 5)) // low via result count, not score
	assert.Equal(t, types.ConfidenceNone, EvaluateReranked(0.1, 1))
}

func TestEvaluateFusedSingleBranch(t *testing.T) {
	k := 60
	top := rrfScore(0, k) // best possible single-branch RRF score

	assert.Equal(t, types.ConfidenceHigh, EvaluateFused(top, 3, 1, k))
	assert.Equal(t, types.ConfidenceMedium, EvaluateFused(top*0.5, 3, 1, k))
	assert.Equal(t, types.ConfidenceLow, EvaluateFused(top*0.25, 3, 1, k))
	assert.Equal(t, types.ConfidenceLow, EvaluateFused(top*0.05, 6, 1, k)) // low via result count
	assert.Equal(t, types.ConfidenceNone, EvaluateFused(top*0.05, 1, 1, k))
}

func TestEvaluateFusedMultiBranchBoost(t *testing.T) {
	// With a small K, 2/(K+5) falls below the 0.7-normalized threshold
	// for two branches, so a best score in between only reaches High
	// through the multi-branch boost clause.
	k := 1
	best := 0.34
	assert.Equal(t, types.ConfidenceHigh, EvaluateFused(best, 2, 2, k))
	// the same best score with a single branch doesn't get the boost,
	// and its normalized value alone isn't enough for High.
	assert.Equal(t, types.ConfidenceMedium, EvaluateFused(best, 2, 1, k))
}
