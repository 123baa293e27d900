package llmrouter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolvePreferredModelUsesKindSpecificModel(t *testing.T) {
	modelByKind := map[string]string{"ask": "gpt-4o-mini", "truth": "gpt-4o"}

	model, ok := resolvePreferredModel(modelByKind, "gpt-4o-mini", "truth")

	assert.True(t, ok)
	assert.Equal(t, "gpt-4o", model)
}

func TestResolvePreferredModelSkipsUnknownTag(t *testing.T) {
	modelByKind := map[string]string{"ask": "gpt-4o-mini"}

	_, ok := resolvePreferredModel(modelByKind, "gpt-4o-mini", "smart")

	assert.False(t, ok)
}

func TestResolvePreferredModelSkipsWhenSameAsDefault(t *testing.T) {
	modelByKind := map[string]string{"ask": "gpt-4o-mini"}

	_, ok := resolvePreferredModel(modelByKind, "gpt-4o-mini", "ask")

	assert.False(t, ok)
}
