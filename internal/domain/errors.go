package domain

import "errors"

var (
	// ErrInvalidImage is returned when the upload is missing, empty or not an image
	ErrInvalidImage = errors.New("invalid image upload")

	// ErrImageTooLarge is returned when the upload exceeds the configured size limit
	ErrImageTooLarge = errors.New("image exceeds maximum upload size")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrMissingWeight is returned when a product has no weight to estimate CO2e from
	ErrMissingWeight = errors.New("missing weight_kg, cannot estimate CO2e")

	// ErrEmissionFactorNotFound is returned when Climatiq has no emission factor for the query
	ErrEmissionFactorNotFound = errors.New("no Climatiq emission factor found for this query")

	// ErrMissingActivityID is returned when a Climatiq search result has no activity_id
	ErrMissingActivityID = errors.New("Climatiq search result missing activity_id")

	// ErrClimatiqNotConfigured is returned when the Climatiq API key is not set
	ErrClimatiqNotConfigured = errors.New("Climatiq API key is not configured")

	// ErrClimatiqAPIFailure is returned when a Climatiq API request fails
	ErrClimatiqAPIFailure = errors.New("Climatiq API request failed")

	// ErrSearchAPIFailure is returned when a storefront search request fails
	ErrSearchAPIFailure = errors.New("storefront search request failed")

	// ErrLLMNotConfigured is returned when no language model is available
	ErrLLMNotConfigured = errors.New("language model is not configured")

	// ErrLLMFailure is returned when a language model request fails
	ErrLLMFailure = errors.New("language model request failed")

	// ErrInvalidModelOutput is returned when model output is not the expected JSON
	ErrInvalidModelOutput = errors.New("language model returned invalid output")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheUnavailable is returned when the cache backend cannot be reached
	ErrCacheUnavailable = errors.New("cache unavailable")
)
