// Package llmrouter implements interfaces.LlmRouter over any
// OpenAI-compatible chat completion endpoint, the same transport the
// teacher uses for its own LLM gateway.
package llmrouter

import (
	"context"
	"errors"

	"github.com/sashabaranov/go-openai"

	"github.com/chatrag/ragcore/internal/apperr"
	"github.com/chatrag/ragcore/internal/types/interfaces"
)

var errEmptyChoices = errors.New("llm response had no choices")

// Config configures the router's default transport and per-kind model
// selection (ask/smart/truth each may prefer a different model).
type Config struct {
	BaseURL      string
	APIKey       string
	DefaultModel string
	ModelByKind  map[string]string
}

// Router is the default interfaces.LlmRouter implementation.
type Router struct {
	client       *openai.Client
	defaultModel string
	modelByKind  map[string]string
}

// New builds a Router.
func New(cfg Config) *Router {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &Router{
		client:       openai.NewClientWithConfig(clientCfg),
		defaultModel: cfg.DefaultModel,
		modelByKind:  cfg.ModelByKind,
	}
}

// Complete calls the default model.
func (r *Router) Complete(ctx context.Context, system, user string, temperature float64) (*interfaces.ChatCompletion, error) {
	return r.complete(ctx, system, user, temperature, r.defaultModel)
}

// CompleteWithFallback tries the model mapped to preferredTag (job
// kind), falling back to the default model on any failure.
func (r *Router) CompleteWithFallback(ctx context.Context, system, user string, temperature float64, preferredTag string) (*interfaces.ChatCompletion, error) {
	if preferred, ok := resolvePreferredModel(r.modelByKind, r.defaultModel, preferredTag); ok {
		if completion, err := r.complete(ctx, system, user, temperature, preferred); err == nil {
			return completion, nil
		}
	}
	return r.complete(ctx, system, user, temperature, r.defaultModel)
}

// resolvePreferredModel looks up the model mapped to tag, reporting ok
// false when there is nothing to try beyond the default model.
func resolvePreferredModel(modelByKind map[string]string, defaultModel, tag string) (string, bool) {
	model, found := modelByKind[tag]
	if !found || model == defaultModel {
		return "", false
	}
	return model, true
}

func (r *Router) complete(ctx context.Context, system, user string, temperature float64, model string) (*interfaces.ChatCompletion, error) {
	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: float32(temperature),
	})
	if err != nil {
		return nil, apperr.New(apperr.KindTransientRemote, "llmrouter.complete", err)
	}
	if len(resp.Choices) == 0 {
		return nil, apperr.New(apperr.KindTransientRemote, "llmrouter.complete", errEmptyChoices)
	}

	return &interfaces.ChatCompletion{
		Content: resp.Choices[0].Message.Content,
		Model:   resp.Model,
		Tokens:  resp.Usage.TotalTokens,
	}, nil
}
