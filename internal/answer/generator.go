package answer

import (
	"context"

	"github.com/chatrag/ragcore/internal/apperr"
	"github.com/chatrag/ragcore/internal/types"
	"github.com/chatrag/ragcore/internal/types/interfaces"
)

// Generator produces a grounded answer from a question, its expanded
// context windows, and a memory profile, per spec.md §4.12. Sanitizing
// the result, the HTML-fallback retry, and sending it over the chat
// transport are the caller's responsibility.
type Generator struct {
	llm         interfaces.LlmRouter
	prompts     interfaces.PromptStore
	clock       interfaces.Clock
	temperature float64
}

// New builds a Generator.
func New(llm interfaces.LlmRouter, prompts interfaces.PromptStore, clock interfaces.Clock, temperature float64) *Generator {
	return &Generator{llm: llm, prompts: prompts, clock: clock, temperature: temperature}
}

// Generate builds the prompt for kind ("ask", "smart", "truth") and
// returns the model's raw answer text.
func (g *Generator) Generate(ctx context.Context, kind, question string, threads []types.ContextThread, memoryContext string) (string, error) {
	system, err := g.prompts.SystemPrompt(ctx, kind)
	if err != nil {
		return "", apperr.New(apperr.KindTransientRemote, "answer.system_prompt", err)
	}

	user := BuildUserPrompt(question, threads, memoryContext, g.clock.Now())

	completion, err := g.llm.CompleteWithFallback(ctx, system, user, g.temperature, kind)
	if err != nil {
		return "", apperr.New(apperr.KindTransientRemote, "answer.complete", err)
	}
	return completion.Content, nil
}
