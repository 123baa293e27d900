package fusion

import "github.com/chatrag/ragcore/internal/types"

// EvaluateReranked implements spec.md §4.5 step 6's "with a reranker"
// branch: the reranker's relevance score is already in [0,1].
func EvaluateReranked(best float64, resultCount int) types.ConfidenceLevel {
	switch {
	case best >= 0.8:
		return types.ConfidenceHigh
	case best >= 0.5:
		return types.ConfidenceMedium
	case best >= 0.3 || resultCount >= 5:
		return types.ConfidenceLow
	default:
		return types.ConfidenceNone
	}
}

// EvaluateFused implements spec.md §4.5 step 6's "without a reranker"
// branch: best is the raw fused RRF score, branches is 1 (dense only)
// or 2 (dense+keyword).
func EvaluateFused(best float64, resultCount, branches, k int) types.ConfidenceLevel {
	normalized := best / (float64(branches) * rrfScore(0, k))
	multiBranchBoost := branches >= 2 && best > 2.0/float64(k+5)

	switch {
	case normalized >= 0.7 || multiBranchBoost:
		return types.ConfidenceHigh
	case normalized >= 0.4:
		return types.ConfidenceMedium
	case normalized >= 0.2 || resultCount >= 5:
		return types.ConfidenceLow
	default:
		return types.ConfidenceNone
	}
}
