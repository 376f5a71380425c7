package serpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/swytch/backend/internal/domain"
	"github.com/swytch/backend/internal/infrastructure/metrics"
)

// DefaultBaseURL is the public SerpAPI endpoint
const DefaultBaseURL = "https://serpapi.com"

const providerName = "serpapi"

// Options configures a Client
type Options struct {
	APIKey          string
	BaseURL         string
	Timeout         time.Duration
	RequestsPerHour int
}

// Client queries Google web and Google Shopping results through SerpAPI
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	rateLimiter *rate.Limiter
	logger      *zap.Logger
}

// NewClient creates a new SerpAPI client
func NewClient(opts Options, logger *zap.Logger) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
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

	limiter := rate.NewLimiter(rate.Limit(float64(opts.RequestsPerHour)/3600), 10)

	return &Client{
		httpClient:  &http.Client{Timeout: opts.Timeout},
		apiKey:      opts.APIKey,
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		rateLimiter: limiter,
		logger:      logger.Named(providerName),
	}
}

// Configured reports whether an API key is set
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

type organicResult struct {
	Title     string `json:"title"`
	Link      string `json:"link"`
	Snippet   string `json:"snippet"`
	Thumbnail string `json:"thumbnail"`
	Source    string `json:"source"`
}

type shoppingResult struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	ProductLink string `json:"product_link"`
	Thumbnail   string `json:"thumbnail"`
	Source      string `json:"source"`
	Snippet     string `json:"snippet"`
	Price       string `json:"price"`
}

type searchResponse struct {
	Error           string           `json:"error"`
	OrganicResults  []organicResult  `json:"organic_results"`
	ShoppingResults []shoppingResult `json:"shopping_results"`
}

// Search runs query against a SerpAPI backed storefront. Domain restricted
// storefronts get a site: filter unless the query already carries one.
func (c *Client) Search(ctx context.Context, storefront domain.Storefront, query string, limit int) ([]domain.Candidate, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("%w: SerpAPI key is not configured", domain.ErrSearchAPIFailure)
	}
	if limit <= 0 {
		limit = 8
	}

	started := time.Now()
	var (
		candidates []domain.Candidate
		err        error
	)
	switch storefront.Kind {
	case domain.StorefrontShopping:
		candidates, err = c.searchShopping(ctx, storefront, query, limit)
	case domain.StorefrontGoogle:
		candidates, err = c.searchGoogle(ctx, storefront, query, limit)
	default:
		return nil, fmt.Errorf("%w: unsupported storefront kind %q", domain.ErrSearchAPIFailure, storefront.Kind)
	}
	metrics.ObserveOutbound(providerName, metrics.OutcomeOf(err, len(candidates)), started)
	return candidates, err
}

func (c *Client) searchGoogle(ctx context.Context, storefront domain.Storefront, query string, limit int) ([]domain.Candidate, error) {
	q := query
	if storefront.Domain != "" && !strings.Contains(q, "site:") {
		q = q + " site:" + storefront.Domain
	}

	params := url.Values{}
	params.Set("engine", "google")
	params.Set("q", q)
	params.Set("num", strconv.Itoa(limit))

	resp, err := c.doSearch(ctx, params)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Candidate, 0, len(resp.OrganicResults))
	for _, r := range resp.OrganicResults {
		if r.Link == "" {
			continue
		}
		out = append(out, domain.Candidate{
			Item: domain.AlternativeItem{
				Title:    titleOrDefault(r.Title),
				URL:      r.Link,
				ImageURL: r.Thumbnail,
				Source:   sourceOrDefault(r.Source, storefront),
			},
			Snippet:    r.Snippet,
			Storefront: storefront,
			Query:      query,
		})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (c *Client) searchShopping(ctx context.Context, storefront domain.Storefront, query string, limit int) ([]domain.Candidate, error) {
	params := url.Values{}
	params.Set("engine", "google_shopping")
	params.Set("q", query)
	params.Set("num", strconv.Itoa(limit))

	resp, err := c.doSearch(ctx, params)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Candidate, 0, len(resp.ShoppingResults))
	for _, r := range resp.ShoppingResults {
		link := r.Link
		if link == "" {
			link = r.ProductLink
		}
		if link == "" {
			continue
		}
		snippet := r.Snippet
		if r.Price != "" {
			snippet = strings.TrimSpace(snippet + " " + r.Price)
		}
		out = append(out, domain.Candidate{
			Item: domain.AlternativeItem{
				Title:    titleOrDefault(r.Title),
				URL:      link,
				ImageURL: r.Thumbnail,
				Source:   sourceOrDefault(r.Source, storefront),
			},
			Brand:      strings.TrimSpace(r.Source),
			Snippet:    snippet,
			Storefront: storefront,
			Query:      query,
		})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// doSearch executes GET /search.json and decodes the response
func (c *Client) doSearch(ctx context.Context, params url.Values) (*searchResponse, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRateLimited, err)
	}

	params.Set("api_key", c.apiKey)
	reqURL := fmt.Sprintf("%s/search.json?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Swytch/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSearchAPIFailure, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", domain.ErrSearchAPIFailure, err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("API error",
			zap.String("engine", params.Get("engine")),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body))
		return nil, fmt.Errorf("%w: status %d, body: %s", domain.ErrSearchAPIFailure, resp.StatusCode, string(body))
	}

	var out searchResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	// SerpAPI reports "no results" as an error string on a 200 response
	if out.Error != "" && len(out.OrganicResults) == 0 && len(out.ShoppingResults) == 0 {
		c.logger.Debug("empty result", zap.String("q", params.Get("q")), zap.String("reason", out.Error))
	}
	return &out, nil
}

func titleOrDefault(title string) string {
	if t := strings.TrimSpace(title); t != "" {
		return t
	}
	return "Alternative"
}

func sourceOrDefault(source string, storefront domain.Storefront) string {
	if source != "" {
		return source
	}
	if storefront.Domain != "" {
		return storefront.Domain
	}
	return providerName
}
