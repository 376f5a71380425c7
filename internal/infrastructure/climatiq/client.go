package climatiq

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/swytch/backend/internal/domain"
	"github.com/swytch/backend/internal/infrastructure/metrics"
)

const (
	// DefaultBaseURL is the public Climatiq API
	DefaultBaseURL = "https://api.climatiq.io"
	// DefaultDataVersion tracks the latest minor release of data version 21
	DefaultDataVersion = "^21"

	providerName = "climatiq"
)

// Options configures a Client
type Options struct {
	APIKey          string
	BaseURL         string
	DataVersion     string
	Timeout         time.Duration
	RequestsPerHour int
}

// Client handles communication with the Climatiq data API
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	dataVersion string
	rateLimiter *rate.Limiter
	logger      *zap.Logger
}

// NewClient creates a new Climatiq API client
func NewClient(opts Options, logger *zap.Logger) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.DataVersion == "" {
		opts.DataVersion = DefaultDataVersion
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.RequestsPerHour <= 0 {
		opts.RequestsPerHour = 1000
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	// rate.Limit is requests per second
	limiter := rate.NewLimiter(rate.Limit(float64(opts.RequestsPerHour)/3600), 10)

	return &Client{
		httpClient:  &http.Client{Timeout: opts.Timeout},
		apiKey:      opts.APIKey,
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		dataVersion: opts.DataVersion,
		rateLimiter: limiter,
		logger:      logger.Named(providerName),
	}
}

// Configured reports whether an API key is set
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// estimateRequest is the body of POST /data/v1/estimate
type estimateRequest struct {
	EmissionFactor struct {
		ActivityID  string `json:"activity_id"`
		DataVersion string `json:"data_version"`
	} `json:"emission_factor"`
	Parameters domain.EstimateParameters `json:"parameters"`
}

// doRequest executes a request with auth headers and returns the body of a 2xx response
func (c *Client) doRequest(ctx context.Context, method, reqURL string, body io.Reader) ([]byte, error) {
	if !c.Configured() {
		return nil, domain.ErrClimatiqNotConfigured
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRateLimited, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Swytch/1.0")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrClimatiqAPIFailure, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", domain.ErrClimatiqAPIFailure, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("API error",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", respBody))
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	return respBody, nil
}

// SearchActivity looks up the best matching emission factor for a free text query
func (c *Client) SearchActivity(ctx context.Context, query string) (*domain.ClimatiqSearchResponse, error) {
	started := time.Now()
	c.logger.Debug("SearchActivity", zap.String("query", query))

	params := url.Values{}
	params.Set("query", query)
	params.Set("page", "1")
	params.Set("results_per_page", "1")
	params.Set("data_version", c.dataVersion)
	reqURL := fmt.Sprintf("%s/data/v1/search?%s", c.baseURL, params.Encode())

	body, err := c.doRequest(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		metrics.ObserveOutbound(providerName, metrics.OutcomeError, started)
		return nil, err
	}

	var searchResp domain.ClimatiqSearchResponse
	if err := json.Unmarshal(body, &searchResp); err != nil {
		metrics.ObserveOutbound(providerName, metrics.OutcomeError, started)
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	metrics.ObserveOutbound(providerName, metrics.OutcomeOf(nil, len(searchResp.Results)), started)
	c.logger.Debug("search complete",
		zap.String("query", query),
		zap.Int("results", len(searchResp.Results)))
	return &searchResp, nil
}

// Estimate computes CO2e for an activity with the given weight parameters
func (c *Client) Estimate(ctx context.Context, activityID string, params domain.EstimateParameters) (*domain.ClimatiqEstimateResponse, error) {
	started := time.Now()

	var reqBody estimateRequest
	reqBody.EmissionFactor.ActivityID = activityID
	reqBody.EmissionFactor.DataVersion = c.dataVersion
	reqBody.Parameters = params
	if reqBody.Parameters.WeightUnit == "" {
		reqBody.Parameters.WeightUnit = "kg"
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to encode estimate request: %w", err)
	}

	body, err := c.doRequest(ctx, http.MethodPost, c.baseURL+"/data/v1/estimate", bytes.NewReader(payload))
	if err != nil {
		metrics.ObserveOutbound(providerName, metrics.OutcomeError, started)
		return nil, err
	}

	var estimate domain.ClimatiqEstimateResponse
	if err := json.Unmarshal(body, &estimate); err != nil {
		metrics.ObserveOutbound(providerName, metrics.OutcomeError, started)
		return nil, fmt.Errorf("failed to decode estimate response: %w", err)
	}
	if err := json.Unmarshal(body, &estimate.Payload); err != nil {
		return nil, fmt.Errorf("failed to decode estimate payload: %w", err)
	}

	metrics.ObserveOutbound(providerName, metrics.OutcomeSuccess, started)
	c.logger.Debug("estimate complete",
		zap.String("activity_id", activityID),
		zap.Float64("co2e", estimate.CO2e))
	return &estimate, nil
}

// APIError is a non-2xx response from Climatiq. It unwraps to
// domain.ErrClimatiqAPIFailure.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: status %d, body: %s", domain.ErrClimatiqAPIFailure, e.StatusCode, e.Body)
}

func (e *APIError) Unwrap() error {
	return domain.ErrClimatiqAPIFailure
}
