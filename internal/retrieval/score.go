// Package retrieval implements the hybrid dense+sparse retriever of
// spec.md §4.4: a two-stage vector candidate fetch followed by an
// in-memory hybrid rerank with exact-match boosting and time decay.
package retrieval

import (
	"math"
	"strings"
	"time"
)

// Weights are the tunable scorer coefficients from spec.md §4.4.
type Weights struct {
	Dense      float64 // Wd, default 0.7
	Sparse     float64 // Ws, default 0.3
	ExactBoost float64 // default 0.15
	TimeDecay  float64 // default 0.1
	HalfLife   time.Duration // default 14 days
}

// DefaultWeights returns the spec's default scorer coefficients.
func DefaultWeights() Weights {
	return Weights{Dense: 0.7, Sparse: 0.3, ExactBoost: 0.15, TimeDecay: 0.1, HalfLife: 14 * 24 * time.Hour}
}

// TextScore is the fraction of sparseTerms present (as substrings) in
// text, case-insensitive. Returns 0 when sparseTerms is empty.
func TextScore(text string, sparseTerms []string) float64 {
	if len(sparseTerms) == 0 {
		return 0
	}
	lower := strings.ToLower(text)
	hits := 0
	for _, term := range sparseTerms {
		if term == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(term)) {
			hits++
		}
	}
	return float64(hits) / float64(len(sparseTerms))
}

// ExactBoost returns weights.ExactBoost if any stem-expanded keyword
// occurs as a substring of text (case-insensitive), else 0.
func ExactBoost(text string, weights Weights, keywords []string) float64 {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(kw)) {
			return weights.ExactBoost
		}
	}
	return 0
}

// TimeDecay returns weights.TimeDecay * exp(-max(0,ageDays)*ln2/halfLifeDays).
func TimeDecay(weights Weights, age time.Duration) float64 {
	ageDays := age.Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}
	halfLifeDays := weights.HalfLife.Hours() / 24
	if halfLifeDays <= 0 {
		halfLifeDays = 14
	}
	return weights.TimeDecay * math.Exp(-ageDays*math.Ln2/halfLifeDays)
}

// Score computes the final composite score for one candidate.
//
//	hybrid:    Wd*(1-distance) + Ws*textScore + exactBoost + timeDecay
//	non-hybrid: (1-distance) + exactBoost + timeDecay
func Score(distance float64, weights Weights, hybrid bool, textScore, exactBoost, decay float64) float64 {
	if hybrid {
		return weights.Dense*(1-distance) + weights.Sparse*textScore + exactBoost + decay
	}
	return (1 - distance) + exactBoost + decay
}

// CandidateLimit implements spec.md §4.4's stage-1 fetch size:
// min(limit*M, 200), with M=10 when the query has sparse terms, else 5.
func CandidateLimit(limit int, hasSparseTerms bool) int {
	m := 5
	if hasSparseTerms {
		m = 10
	}
	n := limit * m
	if n > 200 {
		n = 200
	}
	return n
}
