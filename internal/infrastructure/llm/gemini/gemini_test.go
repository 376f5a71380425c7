package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swytch/backend/internal/domain"
)

func TestDescribeImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/models/gemini-2.5-flash:generateContent"), r.URL.Path)

		var req map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		parts := req["contents"].([]interface{})[0].(map[string]interface{})["parts"].([]interface{})
		assert.Len(t, parts, 2)
		assert.Contains(t, parts[0], "inlineData")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"name\":\"mug\"}"}]}}]}`))
	}))
	defer server.Close()

	m, err := New(context.Background(), "test-key", "", server.URL)
	require.NoError(t, err)

	got, err := m.DescribeImage(context.Background(), "identify", []byte("img"), "image/jpeg")

	require.NoError(t, err)
	assert.Equal(t, `{"name":"mug"}`, got)
	assert.Equal(t, "gemini", m.Name())
}

func TestComplete_Empty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer server.Close()

	m, err := New(context.Background(), "test-key", "", server.URL)
	require.NoError(t, err)

	_, err = m.Complete(context.Background(), "hi")

	assert.ErrorIs(t, err, domain.ErrInvalidModelOutput)
}
