package intent

import (
	"context"
	"encoding/json"
	"regexp"

	"github.com/chatrag/ragcore/internal/types"
	"github.com/chatrag/ragcore/internal/types/interfaces"
)

const classifierSystemPrompt = `You classify a user's question about a group chat's history into one of:
PersonalSelf, PersonalOther, Factual, Event, Temporal, Comparison, MultiEntity.
Respond with a single JSON object: {"intent":"...","confidence":0..1,
"entities":[{"type":"Person|Topic|Object","text":"...","mentioned_as":"..."}],
"mentioned_people":["..."],
"temporal_ref":{"detected":bool,"text":"...","type":"Relative|Absolute","relative_days":0},
"reasoning":"..."}`

var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

// Classifier turns a question into a ClassifiedQuery via the language
// model, falling back to pattern heuristics on any failure.
type Classifier struct {
	llm interfaces.LlmRouter
}

// NewClassifier builds a Classifier.
func NewClassifier(llm interfaces.LlmRouter) *Classifier {
	return &Classifier{llm: llm}
}

// Classify implements spec.md §4.10's classification step.
func (c *Classifier) Classify(ctx context.Context, question string) *types.ClassifiedQuery {
	completion, err := c.llm.Complete(ctx, classifierSystemPrompt, question, 0.0)
	if err != nil {
		return ClassifyByPattern(question)
	}

	raw := jsonObjectPattern.FindString(completion.Content)
	if raw == "" {
		return ClassifyByPattern(question)
	}

	var parsed types.ClassifiedQuery
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return ClassifyByPattern(question)
	}
	if parsed.Intent == "" {
		return ClassifyByPattern(question)
	}
	return &parsed
}
