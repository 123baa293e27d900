// Package intent classifies a normalized question into the fixed
// intent taxonomy and resolves nicknames to canonical chat-member
// names, per spec.md §4.10.
package intent

import (
	"regexp"
	"strings"

	"github.com/chatrag/ragcore/internal/types"
)

// selfPronouns trigger PersonalSelf when the question is about the
// asker themselves.
var selfPronouns = []string{"я", "мне", "меня", "мой", "моя", "моё", "мои", "мной", "у меня"}

var handlePattern = regexp.MustCompile(`@(\w{3,})`)

// temporalMarkers maps a literal Russian temporal phrase to the number
// of days it refers back from "now".
var temporalMarkers = map[string]int{
	"сегодня":          0,
	"вчера":            1,
	"позавчера":        2,
	"на прошлой неделе": 7,
	"неделю назад":     7,
	"две недели назад":  14,
	"месяц назад":      30,
}

// ClassifyByPattern is the fallback classifier used when the LLM call
// fails or its response doesn't parse, per spec.md §4.10.
func ClassifyByPattern(question string) *types.ClassifiedQuery {
	lower := strings.ToLower(question)

	if containsAny(lower, selfPronouns) {
		return &types.ClassifiedQuery{Intent: types.IntentPersonalSelf, Confidence: 0.6, Reasoning: "pattern: self-pronoun"}
	}

	if m := handlePattern.FindStringSubmatch(question); m != nil {
		handle := m[1]
		return &types.ClassifiedQuery{
			Intent:          types.IntentPersonalOther,
			Confidence:      0.6,
			MentionedPeople: []string{handle},
			Entities:        []types.Entity{{Type: types.EntityPerson, Text: handle, MentionedAs: m[0]}},
			Reasoning:       "pattern: @handle mention",
		}
	}

	for marker, days := range temporalMarkers {
		if strings.Contains(lower, marker) {
			return &types.ClassifiedQuery{
				Intent:     types.IntentTemporal,
				Confidence: 0.6,
				TemporalRef: types.TemporalRef{
					Detected:     true,
					Text:         marker,
					Type:         types.TemporalRelative,
					RelativeDays: days,
				},
				Reasoning: "pattern: literal temporal marker",
			}
		}
	}

	return &types.ClassifiedQuery{Intent: types.IntentFactual, Confidence: 0.5, Reasoning: "pattern: no signal, default factual"}
}

func containsAny(haystack string, needles []string) bool {
	runes := []rune(haystack)
	for _, n := range needles {
		if matchesWord(runes, []rune(n)) {
			return true
		}
	}
	return false
}

// matchesWord reports whether needle occurs in haystack bounded by
// runes that are not lower-case Cyrillic letters (or string edges),
// avoiding matches inside an
// unrelated longer word. Both slices are operated on in rune space so
// multi-byte Cyrillic characters are never split.
func matchesWord(haystack, needle []rune) bool {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return false
	}
	for start := 0; start+len(needle) <= len(haystack); start++ {
		if !runesEqual(haystack[start:start+len(needle)], needle) {
			continue
		}
		end := start + len(needle)
		beforeOK := start == 0 || !isCyrillicLetter(haystack[start-1])
		afterOK := end >= len(haystack) || !isCyrillicLetter(haystack[end])
		if beforeOK && afterOK {
			return true
		}
	}
	return false
}

func runesEqual(a, b []rune) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func isCyrillicLetter(r rune) bool {
	return (r >= 'а' && r <= 'я') || r == 'ё'
}
