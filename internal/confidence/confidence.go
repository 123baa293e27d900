// Package confidence implements the gate that decides whether to
// answer, warn, or fall back to a general-purpose model, and the
// news-dump penalty applied before ranking, per spec.md §4.9.
package confidence

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf16"

	"github.com/chatrag/ragcore/internal/types"
)

// Evaluate maps retrieval signals to a confidence tier, per spec.md §4.9.
func Evaluate(best, gap float64, hasFullText bool) types.ConfidenceLevel {
	if hasFullText {
		switch {
		case best >= 0.5:
			return types.ConfidenceHigh
		case best >= 0.35:
			return types.ConfidenceMedium
		default:
			return types.ConfidenceLow
		}
	}

	switch {
	case best >= 0.5 && gap >= 0.05:
		return types.ConfidenceHigh
	case best >= 0.4 || (best >= 0.35 && gap >= 0.03):
		return types.ConfidenceMedium
	case best >= 0.25:
		return types.ConfidenceLow
	default:
		return types.ConfidenceNone
	}
}

// Gap computes best_similarity - fifth_similarity (or the last
// available similarity when fewer than five results are present).
// similarities must already be sorted descending.
func Gap(similarities []float64) float64 {
	if len(similarities) == 0 {
		return 0
	}
	best := similarities[0]
	idx := 4
	if idx >= len(similarities) {
		idx = len(similarities) - 1
	}
	return best - similarities[idx]
}

var newsDumpMarkers = []string{
	"— СМИ", "Подписаться", "⚡", "❗", "🔴", "BREAKING", "Срочно:", "Источник:",
}

var urlPattern = regexp.MustCompile(`https?://\S+`)

// IsNewsDump implements the news_dump_detector: a message is flagged
// when at least 2 of its indicators are present (long text, multiple
// URLs, a marker phrase/emoji, or starting with a surrogate codepoint
// typical of an emoji/flag at the very start of the string).
func IsNewsDump(text string) bool {
	indicators := 0

	if len([]rune(text)) > 800 {
		indicators++
	}
	if len(urlPattern.FindAllString(text, -1)) >= 2 {
		indicators++
	}
	for _, marker := range newsDumpMarkers {
		if strings.Contains(text, marker) {
			indicators++
			break
		}
	}
	if startsWithHighSurrogate(text) {
		indicators++
	}

	return indicators >= 2
}

// startsWithHighSurrogate reports whether the first rune of text, when
// re-encoded to UTF-16, begins with a high surrogate — the encoding
// Telegram and friends use for most emoji/flag sequences.
func startsWithHighSurrogate(text string) bool {
	for _, r := range text {
		units := utf16.Encode([]rune{r})
		if len(units) == 0 {
			return false
		}
		return units[0] >= 0xD800 && units[0] <= 0xDBFF
	}
	return false
}

// NewsDumpPenalty is subtracted from a news-dump result's similarity.
const NewsDumpPenalty = 0.05

// ApplyNewsDumpPenalty flags each result and subtracts NewsDumpPenalty
// from its similarity when flagged, then re-sorts descending by
// similarity, matching spec.md §4.9 ("Penalty ... Re-sort after penalty").
func ApplyNewsDumpPenalty(results []*types.SearchResult) {
	for _, r := range results {
		if IsNewsDump(r.ChunkText) {
			r.IsNewsDump = true
			r.Similarity -= NewsDumpPenalty
		}
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
}
