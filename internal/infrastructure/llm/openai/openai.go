// Package openai adapts the OpenAI chat completions API to domain.LanguageModel.
package openai

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	gogpt "github.com/sashabaranov/go-openai"

	"github.com/swytch/backend/internal/domain"
	"github.com/swytch/backend/internal/infrastructure/metrics"
)

const (
	// DefaultModel is used when no model is configured
	DefaultModel = "gpt-4o-mini"

	// visionMaxTokens bounds the product JSON answer
	visionMaxTokens = 300
	// completionMaxTokens bounds the search strategy answer
	completionMaxTokens = 600

	providerName = "openai"
)

// Model calls OpenAI chat completions
type Model struct {
	client *gogpt.Client
	model  string
}

var _ domain.LanguageModel = (*Model)(nil)

// New creates an OpenAI model. baseURL may be empty.
func New(apiKey, model, baseURL string) *Model {
	cfg := gogpt.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if model == "" {
		model = DefaultModel
	}
	return &Model{client: gogpt.NewClientWithConfig(cfg), model: model}
}

// Name returns the provider name
func (m *Model) Name() string { return providerName }

// DescribeImage sends the image as a data URL together with prompt
func (m *Model) DescribeImage(ctx context.Context, prompt string, image []byte, mimeType string) (string, error) {
	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(image))

	req := gogpt.ChatCompletionRequest{
		Model:     m.model,
		MaxTokens: visionMaxTokens,
		Messages: []gogpt.ChatCompletionMessage{
			{
				Role: gogpt.ChatMessageRoleUser,
				MultiContent: []gogpt.ChatMessagePart{
					{Type: gogpt.ChatMessagePartTypeText, Text: prompt},
					{
						Type: gogpt.ChatMessagePartTypeImageURL,
						ImageURL: &gogpt.ChatMessageImageURL{
							URL:    dataURL,
							Detail: gogpt.ImageURLDetailAuto,
						},
					},
				},
			},
		},
	}
	return m.complete(ctx, req)
}

// Complete runs a text-only prompt
func (m *Model) Complete(ctx context.Context, prompt string) (string, error) {
	req := gogpt.ChatCompletionRequest{
		Model:     m.model,
		MaxTokens: completionMaxTokens,
		Messages: []gogpt.ChatCompletionMessage{
			{Role: gogpt.ChatMessageRoleUser, Content: prompt},
		},
	}
	return m.complete(ctx, req)
}

func (m *Model) complete(ctx context.Context, req gogpt.ChatCompletionRequest) (string, error) {
	started := time.Now()
	resp, err := m.client.CreateChatCompletion(ctx, req)
	if err != nil {
		metrics.ObserveOutbound(providerName, metrics.OutcomeError, started)
		return "", fmt.Errorf("%w: openai: %v", domain.ErrLLMFailure, err)
	}
	if len(resp.Choices) == 0 {
		metrics.ObserveOutbound(providerName, metrics.OutcomeEmpty, started)
		return "", fmt.Errorf("%w: openai returned no choices", domain.ErrInvalidModelOutput)
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	metrics.ObserveOutbound(providerName, metrics.OutcomeOf(nil, len(text)), started)
	return text, nil
}
