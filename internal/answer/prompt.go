package answer

import (
	"fmt"
	"strings"
	"time"

	"github.com/chatrag/ragcore/internal/types"
)

// BuildUserPrompt assembles the user-turn content the answer generator
// sends to the model: a numbered context section (author + relative
// time per message), the memory context, then the question, per
// spec.md §4.12.
func BuildUserPrompt(question string, threads []types.ContextThread, memoryContext string, now time.Time) string {
	var b strings.Builder

	if n := countMessages(threads); n > 0 {
		b.WriteString("Context:\n")
		i := 0
		for _, thread := range threads {
			for _, m := range thread.Messages {
				i++
				fmt.Fprintf(&b, "[%d] %s (%s): %s\n", i, m.Author, relativeTime(now, m.Date), m.Text)
			}
			b.WriteString("\n")
		}
	}

	if memoryContext != "" {
		b.WriteString("About the people involved:\n")
		b.WriteString(memoryContext)
		b.WriteString("\n\n")
	}

	b.WriteString("Question: ")
	b.WriteString(question)
	return b.String()
}

func countMessages(threads []types.ContextThread) int {
	n := 0
	for _, t := range threads {
		n += len(t.Messages)
	}
	return n
}

// relativeTime renders then relative to now in the coarsest unit that
// keeps the value at least 1: minutes, hours, or days ago.
func relativeTime(now, then time.Time) string {
	d := now.Sub(then)
	if d < 0 {
		d = 0
	}
	switch {
	case d < time.Hour:
		minutes := int(d / time.Minute)
		if minutes < 1 {
			minutes = 1
		}
		return fmt.Sprintf("%dm ago", minutes)
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d/time.Hour))
	default:
		return fmt.Sprintf("%dd ago", int(d/(24*time.Hour)))
	}
}
