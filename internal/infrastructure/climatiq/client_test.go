package climatiq

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/swytch/backend/internal/domain"
)

func newTestClient(apiKey, baseURL string) *Client {
	return NewClient(Options{APIKey: apiKey, BaseURL: baseURL}, zap.NewNop())
}

func TestNewClient(t *testing.T) {
	client := NewClient(Options{APIKey: "test-api-key"}, nil)

	assert.NotNil(t, client)
	assert.Equal(t, "test-api-key", client.apiKey)
	assert.Equal(t, DefaultBaseURL, client.baseURL)
	assert.Equal(t, DefaultDataVersion, client.dataVersion)
	assert.NotNil(t, client.httpClient)
	assert.NotNil(t, client.rateLimiter)
	assert.True(t, client.Configured())
}

func TestSearchActivity_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/data/v1/search", r.URL.Path)
		assert.Equal(t, "paper cup", r.URL.Query().Get("query"))
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		assert.Equal(t, "1", r.URL.Query().Get("results_per_page"))
		assert.Equal(t, "^21", r.URL.Query().Get("data_version"))
		assert.Equal(t, "Bearer test-api-key", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"current_page": 1,
			"last_page": 4,
			"total_results": 4,
			"results": [{"activity_id": "paper_products-type_paper_cups", "name": "Paper cups", "unit_type": "Weight"}]
		}`))
	}))
	defer server.Close()

	client := newTestClient("test-api-key", server.URL)

	result, err := client.SearchActivity(context.Background(), "paper cup")

	require.NoError(t, err)
	require.Len(t, result.Results, 1)
	assert.Equal(t, "paper_products-type_paper_cups", result.Results[0].ActivityID)
	assert.Equal(t, 4, result.TotalResults)
}

func TestSearchActivity_NotConfigured(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	client := newTestClient("", server.URL)

	_, err := client.SearchActivity(context.Background(), "paper cup")

	assert.ErrorIs(t, err, domain.ErrClimatiqNotConfigured)
	assert.False(t, called, "no request should be sent without an API key")
}

func TestSearchActivity_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid_api_key"}`))
	}))
	defer server.Close()

	client := newTestClient("bad-key", server.URL)

	_, err := client.SearchActivity(context.Background(), "paper cup")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrClimatiqAPIFailure)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "invalid_api_key")
}

func TestSearchActivity_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := newTestClient("test-api-key", server.URL)

	_, err := client.SearchActivity(context.Background(), "paper cup")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode")
}

func TestSearchActivity_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	defer server.Close()

	client := newTestClient("test-api-key", server.URL)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.SearchActivity(ctx, "paper cup")
	assert.Error(t, err)
}

func TestEstimate_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/data/v1/estimate", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "paper_products-type_paper_cups", body["emission_factor"]["activity_id"])
		assert.Equal(t, "^21", body["emission_factor"]["data_version"])
		assert.Equal(t, 0.4, body["parameters"]["weight"])
		assert.Equal(t, "kg", body["parameters"]["weight_unit"])

		_, _ = w.Write([]byte(`{"co2e": 0.52, "co2e_unit": "kg", "co2e_calculation_method": "ar5"}`))
	}))
	defer server.Close()

	client := newTestClient("test-api-key", server.URL)

	result, err := client.Estimate(context.Background(), "paper_products-type_paper_cups",
		domain.EstimateParameters{Weight: 0.4})

	require.NoError(t, err)
	assert.InDelta(t, 0.52, result.CO2e, 1e-9)
	assert.Equal(t, "kg", result.CO2eUnit)
	assert.Equal(t, "ar5", result.Payload["co2e_calculation_method"])
}

func TestEstimate_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"bad_request","message":"weight must be positive"}`))
	}))
	defer server.Close()

	client := newTestClient("test-api-key", server.URL)

	_, err := client.Estimate(context.Background(), "x", domain.EstimateParameters{Weight: 0, WeightUnit: "kg"})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrClimatiqAPIFailure)
	assert.Contains(t, err.Error(), "weight must be positive")
}
