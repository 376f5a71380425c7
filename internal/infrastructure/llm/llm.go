// Package llm selects the language model backend.
package llm

import (
	"context"
	"fmt"

	"github.com/swytch/backend/internal/domain"
	"github.com/swytch/backend/internal/infrastructure/llm/claude"
	"github.com/swytch/backend/internal/infrastructure/llm/gemini"
	"github.com/swytch/backend/internal/infrastructure/llm/openai"
)

// Backend names
const (
	BackendOpenAI = "openai"
	BackendGemini = "gemini"
	BackendClaude = "claude"
)

// Credentials for every supported backend
type Credentials struct {
	OpenAIKey     string
	OpenAIModel   string
	OpenAIBaseURL string

	GeminiKey   string
	GeminiModel string

	AnthropicKey   string
	AnthropicModel string
}

// New builds the model for backend. It returns (nil, nil) when the backend
// has no API key so callers fall back to heuristics.
func New(ctx context.Context, backend string, creds Credentials) (domain.LanguageModel, error) {
	switch backend {
	case BackendOpenAI, "":
		if creds.OpenAIKey == "" {
			return nil, nil
		}
		return openai.New(creds.OpenAIKey, creds.OpenAIModel, creds.OpenAIBaseURL), nil
	case BackendGemini:
		if creds.GeminiKey == "" {
			return nil, nil
		}
		m, err := gemini.New(ctx, creds.GeminiKey, creds.GeminiModel, "")
		if err != nil {
			return nil, err
		}
		return m, nil
	case BackendClaude:
		if creds.AnthropicKey == "" {
			return nil, nil
		}
		return claude.New(creds.AnthropicKey, creds.AnthropicModel, ""), nil
	default:
		return nil, fmt.Errorf("unknown model backend %q", backend)
	}
}
