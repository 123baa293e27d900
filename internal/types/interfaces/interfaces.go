// Package interfaces collects the collaborator contracts the core
// pipeline depends on but does not implement: the chat transport, the
// LLM gateway, the embedder, the reranker, and supporting stores. They
// are treated as opaque remote services per spec.md §1.
package interfaces

import (
	"context"
	"time"
)

// EmbedTask selects the embedding task hint a provider uses to route
// queries and passages to different model heads when supported.
type EmbedTask string

const (
	EmbedTaskQuery   EmbedTask = "query"
	EmbedTaskPassage EmbedTask = "passage"
)

// Embedder converts text into fixed-dimension dense vectors.
type Embedder interface {
	// Embed returns one vector for text under the given task.
	Embed(ctx context.Context, text string, task EmbedTask) ([]float32, error)
	// EmbedBatch returns one vector per text. When lateChunking is true
	// and the provider supports it, all texts are embedded together so
	// each vector is computed with awareness of the surrounding batch.
	EmbedBatch(ctx context.Context, texts []string, task EmbedTask, lateChunking bool) ([][]float32, error)
	// Dimensions reports the fixed vector width this embedder produces.
	Dimensions() int
}

// RerankResult is one reranked document with its relevance score.
type RerankResult struct {
	Index int
	Score float64
}

// Reranker scores (query, document) pairs with a cross-encoder.
type Reranker interface {
	Rerank(ctx context.Context, query string, docs []string, topN int) ([]RerankResult, error)
}

// ChatCompletion is the language model's response to a completion request.
type ChatCompletion struct {
	Content string
	Model   string
	Tokens  int
}

// LlmRouter fronts the language-model gateway.
type LlmRouter interface {
	Complete(ctx context.Context, system, user string, temperature float64) (*ChatCompletion, error)
	// CompleteWithFallback tries preferredTag first, falling back to the
	// router's default model on failure.
	CompleteWithFallback(ctx context.Context, system, user string, temperature float64, preferredTag string) (*ChatCompletion, error)
}

// ParseMode selects how the chat transport should interpret outbound text.
type ParseMode string

const (
	ParseModeHTML  ParseMode = "html"
	ParseModePlain ParseMode = "plain"
)

// ChatTransport fronts the chat platform's send/typing-indicator API.
type ChatTransport interface {
	SendMessage(ctx context.Context, chatID int64, text string, replyTo *int64, parseMode ParseMode) error
	SendChatAction(ctx context.Context, chatID int64, action string) error
	// DeactivateChat marks a chat unusable after a permission failure, if
	// the host platform exposes that capability. Implementations that
	// don't support it may no-op.
	DeactivateChat(ctx context.Context, chatID int64) error
}

// PromptStore resolves the kind-specific system prompt used to build an
// answer (ask vs smart vs truth), from persistent configuration.
type PromptStore interface {
	SystemPrompt(ctx context.Context, kind string) (string, error)
}

// MemoryService builds a short user/chat profile used to personalize
// answers, and records outcomes back for future recall.
type MemoryService interface {
	BuildContext(ctx context.Context, chatID, userID int64) (string, error)
	RecordOutcome(ctx context.Context, chatID, userID int64, question, answer string) error
}

// Notifier is the wake-up side channel for the durable queue: Notify
// publishes a hint, Listen returns a channel of hints with no delivery
// guarantee. Polling remains the source of truth (see spec.md §4.1).
type Notifier interface {
	Notify(ctx context.Context, channel string, payload string) error
	Listen(ctx context.Context, channel string) (<-chan string, error)
}

// Clock abstracts time.Now for deterministic tests of lease/backoff math.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock backed by time.Now.
type SystemClock struct{}

// Now returns the current wall-clock time.
func (SystemClock) Now() time.Time { return time.Now() }
