// Package claude adapts the Anthropic Messages API to domain.LanguageModel.
package claude

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/liushuangls/go-anthropic/v2"

	"github.com/swytch/backend/internal/domain"
	"github.com/swytch/backend/internal/infrastructure/metrics"
)

const (
	// DefaultModel is used when no model is configured
	DefaultModel = "claude-3-5-haiku-latest"

	maxTokens    = 1024
	providerName = "claude"
)

// Model calls Claude through the Messages API
type Model struct {
	client *anthropic.Client
	model  string
}

var _ domain.LanguageModel = (*Model)(nil)

// New creates a Claude model. baseURL may be empty.
func New(apiKey, model, baseURL string) *Model {
	var opts []anthropic.ClientOption
	if baseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(strings.TrimRight(baseURL, "/")))
	}
	if model == "" {
		model = DefaultModel
	}
	return &Model{client: anthropic.NewClient(apiKey, opts...), model: model}
}

// Name returns the provider name
func (m *Model) Name() string { return providerName }

// DescribeImage sends the image as a base64 block followed by prompt
func (m *Model) DescribeImage(ctx context.Context, prompt string, image []byte, mimeType string) (string, error) {
	source := anthropic.NewMessageContentSource(
		anthropic.MessagesContentSourceTypeBase64,
		normaliseMIME(mimeType),
		base64.StdEncoding.EncodeToString(image),
	)
	msg := anthropic.Message{
		Role: anthropic.RoleUser,
		Content: []anthropic.MessageContent{
			anthropic.NewImageMessageContent(source),
			anthropic.NewTextMessageContent(prompt),
		},
	}
	return m.create(ctx, msg)
}

// Complete runs a text-only prompt
func (m *Model) Complete(ctx context.Context, prompt string) (string, error) {
	return m.create(ctx, anthropic.NewUserTextMessage(prompt))
}

func (m *Model) create(ctx context.Context, msg anthropic.Message) (string, error) {
	started := time.Now()
	resp, err := m.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(m.model),
		MaxTokens: maxTokens,
		Messages:  []anthropic.Message{msg},
	})
	if err != nil {
		metrics.ObserveOutbound(providerName, metrics.OutcomeError, started)
		return "", fmt.Errorf("%w: claude: %v", domain.ErrLLMFailure, err)
	}

	text := strings.TrimSpace(resp.GetFirstContentText())
	if text == "" {
		metrics.ObserveOutbound(providerName, metrics.OutcomeEmpty, started)
		return "", fmt.Errorf("%w: claude returned no text", domain.ErrInvalidModelOutput)
	}
	metrics.ObserveOutbound(providerName, metrics.OutcomeSuccess, started)
	return text, nil
}

// normaliseMIME maps browser MIME types to the ones the API accepts.
// Anything else is sent as jpeg.
func normaliseMIME(mimeType string) string {
	switch mimeType {
	case "image/png", "image/gif", "image/webp":
		return mimeType
	default:
		return "image/jpeg"
	}
}
