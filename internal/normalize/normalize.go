// Package normalize cleans questions before they reach the retriever:
// rejecting meaningless input, extracting dense-search terms, and
// extracting ILIKE-ready keywords with a small Russian stemmer, per
// spec.md §4.3.
package normalize

import (
	"sort"
	"strings"
	"unicode"
)

// stopWords is the fixed Russian stop-word table. It is representative,
// not exhaustive, per spec.md's Open Questions note.
var stopWords = map[string]struct{}{
	"и": {}, "в": {}, "во": {}, "не": {}, "что": {}, "он": {}, "на": {},
	"я": {}, "с": {}, "со": {}, "как": {}, "а": {}, "то": {}, "все": {},
	"она": {}, "так": {}, "его": {}, "но": {}, "да": {}, "ты": {}, "к": {},
	"у": {}, "же": {}, "вы": {}, "за": {}, "бы": {}, "по": {}, "только": {},
	"ее": {}, "мне": {}, "было": {}, "вот": {}, "от": {}, "меня": {}, "еще": {},
	"нет": {}, "о": {}, "из": {}, "ему": {}, "теперь": {}, "когда": {}, "даже": {},
	"ну": {}, "вдруг": {}, "ли": {}, "если": {}, "уже": {}, "или": {}, "ни": {},
	"быть": {}, "был": {}, "него": {}, "до": {}, "вас": {}, "нибудь": {}, "опять": {},
	"уж": {}, "вам": {}, "сказал": {}, "ведь": {}, "там": {}, "потом": {}, "себя": {},
	"ничего": {}, "ей": {}, "может": {}, "они": {}, "тут": {}, "где": {}, "есть": {},
	"надо": {}, "ней": {}, "для": {}, "мы": {}, "тебя": {}, "их": {}, "чем": {},
	"была": {}, "сам": {}, "чтоб": {}, "без": {}, "будто": {}, "чего": {}, "раз": {},
	"тоже": {}, "себе": {}, "под": {}, "будет": {}, "ж": {}, "тогда": {}, "кто": {},
	"этот": {}, "того": {}, "потому": {}, "этого": {}, "какой": {}, "совсем": {},
	"ним": {}, "здесь": {}, "этом": {}, "один": {}, "почти": {}, "мой": {}, "тем": {},
	"чтобы": {}, "нее": {}, "кажется": {}, "сейчас": {}, "были": {}, "куда": {},
	"зачем": {}, "всех": {}, "никогда": {}, "можно": {}, "при": {}, "наконец": {},
	"два": {}, "об": {}, "другой": {}, "хоть": {}, "после": {}, "над": {}, "больше": {},
	"тот": {}, "через": {}, "эти": {}, "нас": {}, "про": {}, "всего": {}, "них": {},
	"какая": {}, "много": {}, "разве": {}, "три": {}, "эту": {}, "моя": {}, "впрочем": {},
	"хорошо": {}, "свою": {}, "этой": {}, "перед": {}, "иногда": {}, "лучше": {},
	"чуть": {}, "том": {}, "нельзя": {}, "такой": {}, "им": {}, "более": {}, "всегда": {},
	"конечно": {}, "всю": {}, "между": {},
}

// stemSuffixes is tried longest-first; a suffix is stripped only when
// the remainder has length >= 3, matching spec.md §4.3.
var stemSuffixes = []string{
	"иями", "иях", "ями", "ях",
	"ами", "ешь", "ете", "ете",
	"ость", "ение", "ания",
	"ов", "ами", "его", "ому", "ыми", "ими",
	"ая", "яя", "ое", "ее", "ые", "ие", "ую", "юю",
	"ах", "ях", "ой", "ей", "ий", "ый", "ая", "ям",
	"ы", "и", "а", "я", "у", "ю", "о", "е", "ь",
}

// IsStopWord reports whether w (already lower-cased) is in the fixed
// Russian stop-word table.
func IsStopWord(w string) bool {
	_, ok := stopWords[w]
	return ok
}

// onlyInvisibleOrPunct reports whether s has no letters or digits at
// all — i.e. it is made up entirely of whitespace, punctuation, or
// symbol/emoji runes.
func onlyInvisibleOrPunct(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// Normalize trims q and rejects strings that carry no actual content
// (only invisible characters, punctuation, or emoji), returning "" for
// those. Otherwise it returns the trimmed original, unmodified case.
func Normalize(q string) string {
	trimmed := strings.TrimSpace(q)
	if trimmed == "" {
		return ""
	}
	if onlyInvisibleOrPunct(trimmed) {
		return ""
	}
	return trimmed
}

// ExtractSearchTerms lower-cases q, splits on whitespace, drops short
// (<=2 rune) and stop-word tokens, and deduplicates, preserving first
// occurrence order, then returns them space-joined.
func ExtractSearchTerms(q string) string {
	terms := splitWords(strings.ToLower(q))
	seen := make(map[string]struct{}, len(terms))
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if len([]rune(t)) <= 2 {
			continue
		}
		if IsStopWord(t) {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return strings.Join(out, " ")
}

// Stem strips the longest matching suffix from word, provided the
// remainder is at least 3 runes long. It returns word unchanged if no
// suffix applies.
func Stem(word string) string {
	runes := []rune(word)
	for _, suf := range stemSuffixes {
		sufRunes := []rune(suf)
		if len(runes) <= len(sufRunes) {
			continue
		}
		if strings.HasSuffix(word, suf) {
			remainder := runes[:len(runes)-len(sufRunes)]
			if len(remainder) >= 3 {
				return string(remainder)
			}
		}
	}
	return word
}

// ExtractIlikeWords returns up to max keywords usable in an ILIKE
// fallback: length >= 3, not a stop word, each augmented with its stem
// (when the stem differs), deduplicated.
func ExtractIlikeWords(q string, max int) []string {
	terms := splitWords(strings.ToLower(q))

	seen := make(map[string]struct{})
	out := make([]string, 0, max*2)
	add := func(w string) bool {
		if _, dup := seen[w]; dup {
			return false
		}
		seen[w] = struct{}{}
		out = append(out, w)
		return true
	}

	count := 0
	for _, t := range terms {
		if count >= max {
			break
		}
		if len([]rune(t)) < 3 || IsStopWord(t) {
			continue
		}
		if add(t) {
			count++
		}
		if stem := Stem(t); stem != t {
			add(stem)
		}
	}

	sort.Strings(out) // stable, deterministic order for callers/tests
	return out
}

func splitWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
