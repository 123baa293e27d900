package embedprovider

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/chatrag/ragcore/internal/logger"
	"github.com/chatrag/ragcore/internal/types/interfaces"
)

// OpenAICompat talks to any OpenAI-compatible embeddings endpoint via
// go-openai, the client the teacher's LLM transport is built on.
type OpenAICompat struct {
	client     *openai.Client
	modelName  string
	dimensions int
}

func newOpenAICompat(cfg Config) (*OpenAICompat, error) {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &OpenAICompat{
		client:     openai.NewClientWithConfig(clientCfg),
		modelName:  cfg.ModelName,
		dimensions: cfg.Dimensions,
	}, nil
}

// Embed converts a single string to a vector.
func (e *OpenAICompat) Embed(ctx context.Context, text string, task interfaces.EmbedTask) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text}, task, false)
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("openaicompat: no embedding returned")
	}
	return vectors[0], nil
}

// EmbedBatch converts texts to vectors in one request. OpenAI-compatible
// endpoints don't expose a late-chunking knob; lateChunking is accepted
// for interface symmetry and otherwise ignored.
func (e *OpenAICompat) EmbedBatch(ctx context.Context, texts []string, task interfaces.EmbedTask, lateChunking bool) ([][]float32, error) {
	req := openai.EmbeddingRequestStrings{
		Input: texts,
		Model: openai.EmbeddingModel(e.modelName),
	}
	if e.dimensions > 0 {
		req.Dimensions = e.dimensions
	}

	resp, err := e.client.CreateEmbeddings(ctx, req)
	if err != nil {
		logger.Error(ctx, "openaicompat embed batch failed", "error", err, "model", e.modelName)
		return nil, fmt.Errorf("openaicompat: create embeddings: %w", err)
	}

	vectors := make([][]float32, len(resp.Data))
	for _, d := range resp.Data {
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}

// Dimensions reports the configured vector width.
func (e *OpenAICompat) Dimensions() int { return e.dimensions }
