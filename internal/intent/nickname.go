package intent

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/chatrag/ragcore/internal/types/interfaces"
)

// Resolution is the outcome of resolving one nickname to a canonical
// chat-member name.
type Resolution struct {
	ResolvedName string
	Confidence   float64
	Reasoning    string
}

const nicknameSystemPrompt = `Given a list of chat members and a nickname someone used, decide which
member (if any) the nickname refers to. Respond with a single JSON object:
{"resolved_name":"...","confidence":0..1,"reasoning":"..."}.
Use "unknown" for resolved_name if none of the members plausibly match.`

// NicknameResolver maps a nickname to a canonical display name, per
// spec.md §4.10.
type NicknameResolver struct {
	cache *ChatUserCache
	llm   interfaces.LlmRouter
}

// NewNicknameResolver builds a NicknameResolver.
func NewNicknameResolver(cache *ChatUserCache, llm interfaces.LlmRouter) *NicknameResolver {
	return &NicknameResolver{cache: cache, llm: llm}
}

// Resolve returns nil when the nickname cannot be confidently mapped to
// a chat member (LLM says "unknown", or the round-trip failed).
func (r *NicknameResolver) Resolve(ctx context.Context, chatID int64, nickname string) (*Resolution, error) {
	authors, err := r.cache.TopAuthors(ctx, chatID)
	if err != nil {
		return nil, err
	}

	lowerNick := strings.ToLower(nickname)
	for _, a := range authors {
		if strings.EqualFold(a.DisplayName, lowerNick) || strings.EqualFold(a.Username, lowerNick) {
			return &Resolution{ResolvedName: a.DisplayName, Confidence: 1.0, Reasoning: "exact match"}, nil
		}
	}

	top := authors
	if len(top) > 20 {
		top = top[:20]
	}
	completion, err := r.llm.Complete(ctx, nicknameSystemPrompt, buildNicknamePrompt(top, nickname), 0.0)
	if err != nil {
		return nil, nil // best-effort: no resolution, not a hard failure
	}

	raw := jsonObjectPattern.FindString(completion.Content)
	if raw == "" {
		return nil, nil
	}
	var parsed struct {
		ResolvedName string  `json:"resolved_name"`
		Confidence   float64 `json:"confidence"`
		Reasoning    string  `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, nil
	}
	if strings.EqualFold(parsed.ResolvedName, "unknown") || parsed.ResolvedName == "" {
		return nil, nil
	}
	return &Resolution{ResolvedName: parsed.ResolvedName, Confidence: parsed.Confidence, Reasoning: parsed.Reasoning}, nil
}

func buildNicknamePrompt(authors []Author, nickname string) string {
	var b strings.Builder
	b.WriteString("Members:\n")
	for _, a := range authors {
		b.WriteString("- ")
		b.WriteString(a.DisplayName)
		if a.Username != "" {
			b.WriteString(" (@")
			b.WriteString(a.Username)
			b.WriteString(")")
		}
		b.WriteString("\n")
	}
	b.WriteString("\nNickname: ")
	b.WriteString(nickname)
	return b.String()
}
