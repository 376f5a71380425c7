// Package gemini adapts the Gemini API to domain.LanguageModel.
package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/swytch/backend/internal/domain"
	"github.com/swytch/backend/internal/infrastructure/metrics"
)

const (
	// DefaultModel is used when no model is configured
	DefaultModel = "gemini-2.5-flash"

	providerName = "gemini"
)

// Model calls Gemini generateContent
type Model struct {
	client *genai.Client
	model  string
}

var _ domain.LanguageModel = (*Model)(nil)

// New creates a Gemini model using an API key. baseURL may be empty.
func New(ctx context.Context, apiKey, model, baseURL string) (*Model, error) {
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	if model == "" {
		model = DefaultModel
	}
	return &Model{client: client, model: model}, nil
}

// Name returns the provider name
func (m *Model) Name() string { return providerName }

// DescribeImage sends the image inline followed by prompt
func (m *Model) DescribeImage(ctx context.Context, prompt string, image []byte, mimeType string) (string, error) {
	parts := []*genai.Part{
		genai.NewPartFromBytes(image, mimeType),
		genai.NewPartFromText(prompt),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	return m.generate(ctx, contents)
}

// Complete runs a text-only prompt
func (m *Model) Complete(ctx context.Context, prompt string) (string, error) {
	return m.generate(ctx, genai.Text(prompt))
}

func (m *Model) generate(ctx context.Context, contents []*genai.Content) (string, error) {
	started := time.Now()
	resp, err := m.client.Models.GenerateContent(ctx, m.model, contents, nil)
	if err != nil {
		metrics.ObserveOutbound(providerName, metrics.OutcomeError, started)
		return "", fmt.Errorf("%w: gemini: %v", domain.ErrLLMFailure, err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		metrics.ObserveOutbound(providerName, metrics.OutcomeEmpty, started)
		return "", fmt.Errorf("%w: gemini returned no text", domain.ErrInvalidModelOutput)
	}
	metrics.ObserveOutbound(providerName, metrics.OutcomeSuccess, started)
	return text, nil
}
