package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/swytch/backend/internal/domain"
)

// MockCacheRepository is a mock implementation of domain.CacheRepository
type MockCacheRepository struct {
	mu        sync.Mutex
	data      map[string][]byte
	getError  error
	setError  error
	getCalled int
	setCalled int
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{data: make(map[string][]byte)}
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalled++
	if m.getError != nil {
		return nil, m.getError
	}
	if value, ok := m.data[key]; ok {
		return value, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCalled++
	if m.setError != nil {
		return m.setError
	}
	m.data[key] = value
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok, nil
}

// MockLanguageModel returns canned responses
type MockLanguageModel struct {
	imageResponse string
	imageError    error
	textResponse  string
	textError     error
	imageCalls    int
	textCalls     int
	lastPrompt    string
}

func (m *MockLanguageModel) Name() string { return "mock" }

func (m *MockLanguageModel) DescribeImage(ctx context.Context, prompt string, image []byte, mimeType string) (string, error) {
	m.imageCalls++
	m.lastPrompt = prompt
	return m.imageResponse, m.imageError
}

func (m *MockLanguageModel) Complete(ctx context.Context, prompt string) (string, error) {
	m.textCalls++
	m.lastPrompt = prompt
	return m.textResponse, m.textError
}

// MockClimatiqClient is a mock implementation of domain.ClimatiqClient
type MockClimatiqClient struct {
	searchResult   *domain.ClimatiqSearchResponse
	searchError    error
	estimateResult *domain.ClimatiqEstimateResponse
	estimateError  error
	searchCalls    int
	estimateCalls  int
	lastActivityID string
	lastParams     domain.EstimateParameters
}

func (m *MockClimatiqClient) SearchActivity(ctx context.Context, query string) (*domain.ClimatiqSearchResponse, error) {
	m.searchCalls++
	if m.searchError != nil {
		return nil, m.searchError
	}
	return m.searchResult, nil
}

func (m *MockClimatiqClient) Estimate(ctx context.Context, activityID string, params domain.EstimateParameters) (*domain.ClimatiqEstimateResponse, error) {
	m.estimateCalls++
	m.lastActivityID = activityID
	m.lastParams = params
	if m.estimateError != nil {
		return nil, m.estimateError
	}
	return m.estimateResult, nil
}

// MockStorefrontSearcher answers by storefront name and query; safe for concurrent use
type MockStorefrontSearcher struct {
	mu      sync.Mutex
	results func(sf domain.Storefront, query string) ([]domain.Candidate, error)
	calls   []string
}

func (m *MockStorefrontSearcher) Search(ctx context.Context, sf domain.Storefront, query string, limit int) ([]domain.Candidate, error) {
	m.mu.Lock()
	m.calls = append(m.calls, sf.Name+"|"+query)
	m.mu.Unlock()
	if m.results == nil {
		return nil, nil
	}
	return m.results(sf, query)
}

func (m *MockStorefrontSearcher) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *MockStorefrontSearcher) CallsMatching(substr string) int {
	n := 0
	for _, c := range m.Calls() {
		if strings.Contains(c, substr) {
			n++
		}
	}
	return n
}

// MockLogoDetector is a mock implementation of domain.LogoDetector
type MockLogoDetector struct {
	logos []string
	err   error
	calls int
}

func (m *MockLogoDetector) DetectLogos(ctx context.Context, image []byte) ([]string, error) {
	m.calls++
	return m.logos, m.err
}

func candidate(title, rawURL string, sf domain.Storefront) domain.Candidate {
	return domain.Candidate{
		Item:       domain.AlternativeItem{Title: title, URL: rawURL, Source: sf.Name},
		Storefront: sf,
	}
}
