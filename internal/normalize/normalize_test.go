package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeRejectsEmptyish(t *testing.T) {
	cases := []string{"", "   ", "!!!", "...", "🙂🙂", "   \t\n  "}
	for _, c := range cases {
		assert.Equalf(t, "", Normalize(c), "input=%q", c)
	}
}

func TestNormalizePassesThroughContent(t *testing.T) {
	assert.Equal(t, "кто тут главный?", Normalize("  кто тут главный?  "))
}

func TestExtractSearchTermsDropsShortAndStopWords(t *testing.T) {
	got := ExtractSearchTerms("кто и где был вчера на встрече")
	assert.NotContains(t, got, "где") // stop word, dropped
	assert.Contains(t, got, "вчера")
	assert.Contains(t, got, "встрече")
	assert.NotContains(t, got, "кто") // stop word, dropped
	assert.NotContains(t, got, " и ")
}

func TestExtractSearchTermsDeduplicates(t *testing.T) {
	got := ExtractSearchTerms("встреча встреча завтра")
	// "встреча" should appear exactly once
	count := 0
	for _, w := range splitWords(got) {
		if w == "встреча" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestStemStripsOnlyWhenRemainderLongEnough(t *testing.T) {
	assert.Equal(t, "встреч", Stem("встречи"))
	// "ты" -> stripping "ы" would leave "т" (length 1) - too short, unchanged
	assert.Equal(t, "ты", Stem("ты"))
}

func TestExtractIlikeWordsRespectsMax(t *testing.T) {
	words := ExtractIlikeWords("встреча завтра обсуждение планов команды", 2)
	assert.LessOrEqual(t, len(words), 4) // max base words, each possibly + stem
}
