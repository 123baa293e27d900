package embedprovider

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectKindJina(t *testing.T) {
	assert.Equal(t, KindJina, DetectKind("https://api.jina.ai/v1"))
}

func TestDetectKindHuggingFace(t *testing.T) {
	assert.Equal(t, KindHuggingFace, DetectKind("https://api-inference.huggingface.co/pipeline/feature-extraction/foo"))
}

func TestDetectKindDefaultsToOpenAICompat(t *testing.T) {
	assert.Equal(t, KindOpenAICompat, DetectKind("https://api.openai.com/v1"))
}

func TestNewRejectsEmptyModelName(t *testing.T) {
	_, err := New(Config{Kind: KindJina})
	assert.Error(t, err)
}

func TestNewRejectsUnknownKind(t *testing.T) {
	_, err := New(Config{Kind: "bogus", ModelName: "m"})
	assert.Error(t, err)
}

func TestNewBuildsEachKind(t *testing.T) {
	for _, kind := range []Kind{KindOpenAICompat, KindHuggingFace, KindJina} {
		embedder, err := New(Config{Kind: kind, ModelName: "test-model", Dimensions: 768})
		assert.NoError(t, err)
		assert.Equal(t, 768, embedder.Dimensions())
	}
}
