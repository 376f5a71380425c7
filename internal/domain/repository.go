package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations.
// Values are opaque bytes, callers choose the encoding.
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// ClimatiqClient defines the interface for interacting with the Climatiq API
type ClimatiqClient interface {
	SearchActivity(ctx context.Context, query string) (*ClimatiqSearchResponse, error)
	Estimate(ctx context.Context, activityID string, params EstimateParameters) (*ClimatiqEstimateResponse, error)
}

// LanguageModel is a hosted model able to read images and follow text prompts
type LanguageModel interface {
	Name() string
	DescribeImage(ctx context.Context, prompt string, image []byte, mimeType string) (string, error)
	Complete(ctx context.Context, prompt string) (string, error)
}

// StorefrontSearcher runs a query against a single storefront
type StorefrontSearcher interface {
	Search(ctx context.Context, storefront Storefront, query string, limit int) ([]Candidate, error)
}

// LogoDetector returns brand names visible in an image, best match first
type LogoDetector interface {
	DetectLogos(ctx context.Context, image []byte) ([]string, error)
}
