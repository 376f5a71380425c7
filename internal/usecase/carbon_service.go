package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/swytch/backend/internal/domain"
	"github.com/swytch/backend/internal/infrastructure/climatiq"
)

// CarbonTrace carries the Climatiq debug payload
type CarbonTrace struct {
	SearchTop  *domain.EmissionFactor     `json:"climatiq_search_top,omitempty"`
	Parameters *domain.EstimateParameters `json:"climatiq_parameters,omitempty"`
	CacheHit   bool                       `json:"cache_hit,omitempty"`
}

// CarbonConfig holds configuration for the carbon service
type CarbonConfig struct {
	CacheTTL   time.Duration
	IncludeRaw bool
}

// CarbonService estimates the CO2e of a product with Climatiq
type CarbonService struct {
	client     domain.ClimatiqClient
	cache      domain.CacheRepository
	cacheTTL   time.Duration
	includeRaw bool
	logger     *zap.Logger
}

// NewCarbonService creates a carbon service. cache may be nil.
func NewCarbonService(client domain.ClimatiqClient, cache domain.CacheRepository, config CarbonConfig, logger *zap.Logger) *CarbonService {
	if config.CacheTTL <= 0 {
		config.CacheTTL = 6 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CarbonService{
		client:     client,
		cache:      cache,
		cacheTTL:   config.CacheTTL,
		includeRaw: config.IncludeRaw,
		logger:     logger.Named("carbon"),
	}
}

// Estimate looks up the emission factor for the product name and estimates
// CO2e for weight_kg * quantity.
// Errors: ErrEmissionFactorNotFound, ErrMissingActivityID, ErrMissingWeight,
// or the client's error unchanged.
func (s *CarbonService) Estimate(ctx context.Context, product domain.ProductInfo) (*domain.ClimatiqEstimate, *CarbonTrace, error) {
	trace := &CarbonTrace{}

	search, hit, err := s.searchActivity(ctx, product.Name)
	if err != nil {
		return nil, trace, err
	}
	trace.CacheHit = hit

	top := climatiq.TopResult(search)
	if top == nil {
		return nil, trace, domain.ErrEmissionFactorNotFound
	}
	trace.SearchTop = top

	if top.ActivityID == "" {
		return nil, trace, domain.ErrMissingActivityID
	}

	if product.WeightKg == nil || *product.WeightKg == 0 {
		return nil, trace, domain.ErrMissingWeight
	}

	params := domain.EstimateParameters{
		Weight:     product.TotalWeightKg(),
		WeightUnit: "kg",
	}
	trace.Parameters = &params

	resp, err := s.client.Estimate(ctx, top.ActivityID, params)
	if err != nil {
		return nil, trace, err
	}

	estimate := climatiq.MapToEstimate(resp, top.ActivityID, s.includeRaw)
	s.logger.Info("estimate",
		zap.String("product", product.Name),
		zap.String("activity_id", top.ActivityID),
		zap.Float64("weight_kg", params.Weight),
		zap.Float64("co2e_kg", estimate.CO2eKg))
	return estimate, trace, nil
}

// searchActivity runs the Climatiq search with cache-first lookup. Only
// non-empty results are cached.
func (s *CarbonService) searchActivity(ctx context.Context, query string) (*domain.ClimatiqSearchResponse, bool, error) {
	key := "climatiq:search:" + strings.ToLower(strings.TrimSpace(query))

	if s.cache != nil {
		data, err := s.cache.Get(ctx, key)
		if err == nil {
			var cached domain.ClimatiqSearchResponse
			if json.Unmarshal(data, &cached) == nil {
				return &cached, true, nil
			}
		} else if !errors.Is(err, domain.ErrCacheMiss) {
			s.logger.Warn("cache read failed", zap.Error(err))
		}
	}

	resp, err := s.client.SearchActivity(ctx, query)
	if err != nil {
		return nil, false, err
	}

	if s.cache != nil && len(resp.Results) > 0 {
		if data, err := json.Marshal(resp); err == nil {
			if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
				s.logger.Warn("cache write failed", zap.Error(err))
			}
		}
	}
	return resp, false, nil
}
