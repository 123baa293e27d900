// Package promptstore implements interfaces.PromptStore over the
// static config.PromptsConfig map, the simplest concrete collaborator
// that can stand in for a real prompt-management backend.
package promptstore

import (
	"context"
	"fmt"
)

// Static resolves a job kind's system prompt from a fixed map loaded
// at startup from configuration.
type Static struct {
	byKind map[string]string
}

// New builds a Static prompt store from a kind-to-prompt map.
func New(byKind map[string]string) *Static {
	return &Static{byKind: byKind}
}

// SystemPrompt returns the prompt configured for kind.
func (s *Static) SystemPrompt(ctx context.Context, kind string) (string, error) {
	prompt, ok := s.byKind[kind]
	if !ok {
		return "", fmt.Errorf("promptstore: no prompt configured for kind %q", kind)
	}
	return prompt, nil
}
