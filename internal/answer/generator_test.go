package answer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatrag/ragcore/internal/types/interfaces"
)

type fakeClock struct{ now time.Time }

func (c fakeClock) Now() time.Time { return c.now }

type fakePromptStore struct{ prompt string }

func (f fakePromptStore) SystemPrompt(ctx context.Context, kind string) (string, error) {
	return f.prompt + ":" + kind, nil
}

type fakeLlmRouter struct {
	gotSystem, gotUser string
	gotTag             string
}

func (f *fakeLlmRouter) Complete(ctx context.Context, system, user string, temperature float64) (*interfaces.ChatCompletion, error) {
	return f.CompleteWithFallback(ctx, system, user, temperature, "")
}

func (f *fakeLlmRouter) CompleteWithFallback(ctx context.Context, system, user string, temperature float64, preferredTag string) (*interfaces.ChatCompletion, error) {
	f.gotSystem = system
	f.gotUser = user
	f.gotTag = preferredTag
	return &interfaces.ChatCompletion{Content: "the answer"}, nil
}

func TestGenerateWiresSystemPromptAndQuestionThrough(t *testing.T) {
	llm := &fakeLlmRouter{}
	gen := New(llm, fakePromptStore{prompt: "base"}, fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}, 0.2)

	answer, err := gen.Generate(context.Background(), "ask", "what happened?", nil, "")
	require.NoError(t, err)
	assert.Equal(t, "the answer", answer)
	assert.Equal(t, "base:ask", llm.gotSystem)
	assert.Equal(t, "ask", llm.gotTag)
	assert.Contains(t, llm.gotUser, "Question: what happened?")
}
