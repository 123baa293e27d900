// Package embedprovider implements the embedding provider sum type:
// OpenAICompat, HuggingFace, and Jina, each satisfying
// interfaces.Embedder behind one constructor, per spec.md REDESIGN
// FLAGS ("polymorphism over multiple embedding providers... a single
// embed trait/interface, per-provider request bodies, and a shared
// response parser").
package embedprovider

import (
	"fmt"
	"strings"

	"github.com/chatrag/ragcore/internal/types/interfaces"
)

// Kind selects which concrete provider Config builds.
type Kind string

const (
	KindOpenAICompat Kind = "openai_compat"
	KindHuggingFace  Kind = "huggingface"
	KindJina         Kind = "jina"
)

// Config is the provider-agnostic construction input; every field
// applies to at least one Kind, unused fields are ignored.
type Config struct {
	Kind       Kind
	BaseURL    string
	APIKey     string
	ModelName  string
	Dimensions int
}

// New builds the Embedder for cfg.Kind.
func New(cfg Config) (interfaces.Embedder, error) {
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("embedprovider: model name is required")
	}

	switch cfg.Kind {
	case KindOpenAICompat:
		return newOpenAICompat(cfg)
	case KindHuggingFace:
		return newHuggingFace(cfg)
	case KindJina:
		return newJina(cfg)
	default:
		return nil, fmt.Errorf("embedprovider: unsupported kind %q", cfg.Kind)
	}
}

// DetectKind infers a Kind from a base URL when the caller hasn't
// configured one explicitly, mirroring the teacher's provider
// auto-detection at the embedder factory boundary.
func DetectKind(baseURL string) Kind {
	lower := strings.ToLower(baseURL)
	switch {
	case strings.Contains(lower, "api.jina.ai"):
		return KindJina
	case strings.Contains(lower, "api-inference.huggingface.co"), strings.Contains(lower, "huggingface"):
		return KindHuggingFace
	default:
		return KindOpenAICompat
	}
}
