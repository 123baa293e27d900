package worker

import (
	"html"
	"regexp"
)

// xssPatterns flags markup the chat transport's HTML parse mode must
// never see verbatim, adapted from the teacher's own sanitizer.
var xssPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<script[^>]*>.*?</script>`),
	regexp.MustCompile(`(?i)<iframe[^>]*>.*?</iframe>`),
	regexp.MustCompile(`(?i)<object[^>]*>.*?</object>`),
	regexp.MustCompile(`(?i)<embed[^>]*>`),
	regexp.MustCompile(`(?i)<form[^>]*>.*?</form>`),
	regexp.MustCompile(`(?i)javascript:`),
	regexp.MustCompile(`(?i)on\w+\s*=`),
}

// SanitizeHTML escapes the answer when it contains a pattern the chat
// transport's HTML parse mode could execute; otherwise it is passed
// through untouched so the model's own light markup still renders.
func SanitizeHTML(text string) string {
	for _, pattern := range xssPatterns {
		if pattern.MatchString(text) {
			return html.EscapeString(text)
		}
	}
	return text
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// StripTags removes every tag from text, for the plain-text resend
// after the chat transport rejects the HTML-mode message.
func StripTags(text string) string {
	return tagPattern.ReplaceAllString(text, "")
}
