package promptstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemPromptReturnsConfiguredPrompt(t *testing.T) {
	store := New(map[string]string{"ask": "answer from context"})

	prompt, err := store.SystemPrompt(context.Background(), "ask")

	require.NoError(t, err)
	assert.Equal(t, "answer from context", prompt)
}

func TestSystemPromptErrorsOnUnknownKind(t *testing.T) {
	store := New(map[string]string{"ask": "answer from context"})

	_, err := store.SystemPrompt(context.Background(), "truth")

	assert.Error(t, err)
}
