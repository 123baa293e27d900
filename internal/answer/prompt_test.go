package answer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/chatrag/ragcore/internal/types"
)

func TestRelativeTimeMinutes(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "5m ago", relativeTime(now, now.Add(-5*time.Minute)))
}

func TestRelativeTimeHours(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "3h ago", relativeTime(now, now.Add(-3*time.Hour)))
}

func TestRelativeTimeDays(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "2d ago", relativeTime(now, now.Add(-48*time.Hour)))
}

func TestRelativeTimeClampsFutureToOneMinute(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "1m ago", relativeTime(now, now.Add(time.Minute)))
}

func TestBuildUserPromptNumbersContextAcrossThreads(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	threads := []types.ContextThread{
		{Messages: []types.ContextMessage{
			{Author: "alice", Text: "hi", Date: now.Add(-2 * time.Hour)},
			{Author: "bob", Text: "hey", Date: now.Add(-1 * time.Hour)},
		}},
		{Messages: []types.ContextMessage{
			{Author: "carol", Text: "yo", Date: now.Add(-30 * time.Minute)},
		}},
	}

	got := BuildUserPrompt("what happened?", threads, "", now)
	assert.Contains(t, got, "[1] alice (2h ago): hi")
	assert.Contains(t, got, "[2] bob (1h ago): hey")
	assert.Contains(t, got, "[3] carol (30m ago): yo")
	assert.Contains(t, got, "Question: what happened?")
}

func TestBuildUserPromptOmitsContextSectionWhenEmpty(t *testing.T) {
	got := BuildUserPrompt("q", nil, "", time.Now())
	assert.NotContains(t, got, "Context:")
}

func TestBuildUserPromptIncludesMemoryContextWhenPresent(t *testing.T) {
	got := BuildUserPrompt("q", nil, "alice likes hiking", time.Now())
	assert.Contains(t, got, "About the people involved:")
	assert.Contains(t, got, "alice likes hiking")
}
