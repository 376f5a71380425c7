package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		backend  string
		creds    Credentials
		wantName string
		wantErr  bool
	}{
		{name: "openai without key", backend: BackendOpenAI},
		{name: "openai", backend: BackendOpenAI, creds: Credentials{OpenAIKey: "sk"}, wantName: "openai"},
		{name: "empty backend defaults to openai", backend: "", creds: Credentials{OpenAIKey: "sk"}, wantName: "openai"},
		{name: "claude", backend: BackendClaude, creds: Credentials{AnthropicKey: "k"}, wantName: "claude"},
		{name: "claude without key", backend: BackendClaude, creds: Credentials{OpenAIKey: "sk"}},
		{name: "gemini", backend: BackendGemini, creds: Credentials{GeminiKey: "k"}, wantName: "gemini"},
		{name: "unknown", backend: "ollama", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := New(ctx, tt.backend, tt.creds)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.wantName == "" {
				assert.Nil(t, m)
				return
			}
			require.NotNil(t, m)
			assert.Equal(t, tt.wantName, m.Name())
		})
	}
}
