package worker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeHTMLPassesThroughPlainText(t *testing.T) {
	text := "Yesterday <i>someone</i> mentioned the picnic."
	assert.Equal(t, text, SanitizeHTML(text))
}

func TestSanitizeHTMLEscapesScriptTags(t *testing.T) {
	text := `hello <script>alert(1)</script> world`
	out := SanitizeHTML(text)
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "&lt;script&gt;")
}

func TestSanitizeHTMLEscapesEventHandlerAttributes(t *testing.T) {
	text := `<img src=x onerror="alert(1)">`
	out := SanitizeHTML(text)
	assert.Contains(t, out, "&lt;img")
}

func TestSanitizeHTMLEscapesJavascriptScheme(t *testing.T) {
	text := `<a href="javascript:alert(1)">click</a>`
	out := SanitizeHTML(text)
	assert.NotContains(t, out, `href="javascript:alert(1)"`)
}

func TestStripTagsRemovesAllMarkup(t *testing.T) {
	text := "<b>bold</b> and <i>italic</i> text"
	assert.Equal(t, "bold and italic text", StripTags(text))
}

func TestStripTagsLeavesPlainTextUnchanged(t *testing.T) {
	text := "no markup here"
	assert.Equal(t, text, StripTags(text))
}
