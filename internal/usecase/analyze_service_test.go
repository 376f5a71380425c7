package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swytch/backend/internal/domain"
)

const paperCupJSON = `{"name":"Paper Coffee Cup","category":"cup","material":"paper","region":"global","weight_kg":0.012,"quantity":1,"brand":null}`

func newTestAnalyzeService(model domain.LanguageModel, client domain.ClimatiqClient, searcher domain.StorefrontSearcher, returnDebug bool) *AnalyzeService {
	vision := NewVisionService(model, nil, nil)
	var carbon *CarbonService
	if client != nil {
		carbon = NewCarbonService(client, nil, CarbonConfig{}, nil)
	}
	alternatives := newTestAlternativesService(searcher, testStorefronts, nil)
	return NewAnalyzeService(vision, carbon, alternatives, returnDebug, nil)
}

func TestAnalyzeService_AnalyzeImage(t *testing.T) {
	ctx := context.Background()
	req := domain.AnalyzeRequest{Image: []byte("jpeg-bytes"), MimeType: "image/jpeg", Filename: "cup.jpg"}

	resultsFor := func(sf domain.Storefront, query string) ([]domain.Candidate, error) {
		c := candidate("Reusable glass coffee cup", "https://"+hostFor(sf)+"/glass-cup", sf)
		c.Item.EstimatedCO2eKg = domain.Float64(0.01)
		return []domain.Candidate{c}, nil
	}

	t.Run("full pipeline with debug", func(t *testing.T) {
		model := &MockLanguageModel{imageResponse: paperCupJSON}
		client := &MockClimatiqClient{
			searchResult:   cupSearchResult(),
			estimateResult: &domain.ClimatiqEstimateResponse{CO2e: 0.05, CO2eUnit: "kg"},
		}
		searcher := &MockStorefrontSearcher{results: resultsFor}
		svc := newTestAnalyzeService(model, client, searcher, true)

		resp, err := svc.AnalyzeImage(ctx, req)

		require.NoError(t, err)
		assert.Equal(t, "Paper Coffee Cup", resp.Product.Name)
		require.NotNil(t, resp.Climatiq)
		assert.InDelta(t, 0.05, resp.Climatiq.CO2eKg, 1e-9)
		assert.Len(t, resp.Alternatives, 3)
		require.NotNil(t, resp.Debug)
		for _, key := range []string{"vision", "climatiq_search_top", "climatiq_parameters", "strategy", "search"} {
			assert.Contains(t, resp.Debug, key)
		}
	})

	t.Run("debug omitted when disabled", func(t *testing.T) {
		model := &MockLanguageModel{imageResponse: paperCupJSON}
		client := &MockClimatiqClient{
			searchResult:   cupSearchResult(),
			estimateResult: &domain.ClimatiqEstimateResponse{CO2e: 0.05, CO2eUnit: "kg"},
		}
		svc := newTestAnalyzeService(model, client, &MockStorefrontSearcher{results: resultsFor}, false)

		resp, err := svc.AnalyzeImage(ctx, req)

		require.NoError(t, err)
		assert.Nil(t, resp.Debug)
	})

	t.Run("without climatiq the estimate is omitted", func(t *testing.T) {
		model := &MockLanguageModel{imageResponse: paperCupJSON}
		svc := newTestAnalyzeService(model, nil, &MockStorefrontSearcher{results: resultsFor}, true)

		resp, err := svc.AnalyzeImage(ctx, req)

		require.NoError(t, err)
		assert.Nil(t, resp.Climatiq)
		assert.NotEmpty(t, resp.Alternatives)
		assert.NotContains(t, resp.Debug, "climatiq_search_top")
	})

	t.Run("carbon errors abort the request", func(t *testing.T) {
		model := &MockLanguageModel{imageResponse: `{"name":"Paper Coffee Cup","weight_kg":null}`}
		client := &MockClimatiqClient{searchResult: cupSearchResult()}
		searcher := &MockStorefrontSearcher{results: resultsFor}
		svc := newTestAnalyzeService(model, client, searcher, true)

		resp, err := svc.AnalyzeImage(ctx, req)

		assert.Nil(t, resp)
		assert.ErrorIs(t, err, domain.ErrMissingWeight)
		assert.Empty(t, searcher.Calls())
	})

	t.Run("model failure still returns a stub product", func(t *testing.T) {
		svc := newTestAnalyzeService(nil, nil, &MockStorefrontSearcher{}, true)

		resp, err := svc.AnalyzeImage(ctx, req)

		require.NoError(t, err)
		assert.Equal(t, "cup", resp.Product.Name)
		require.Len(t, resp.Alternatives, 1)
		assert.Equal(t, "placeholder", resp.Alternatives[0].Source)
	})

	t.Run("rejects empty and non-image uploads", func(t *testing.T) {
		svc := newTestAnalyzeService(nil, nil, &MockStorefrontSearcher{}, false)

		_, err := svc.AnalyzeImage(ctx, domain.AnalyzeRequest{MimeType: "image/png"})
		assert.ErrorIs(t, err, domain.ErrInvalidImage)

		_, err = svc.AnalyzeImage(ctx, domain.AnalyzeRequest{Image: []byte("%PDF"), MimeType: "application/pdf"})
		assert.ErrorIs(t, err, domain.ErrInvalidImage)
	})
}
