// Package catalog searches a curated product catalog stored in Elasticsearch.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"

	"github.com/swytch/backend/internal/domain"
)

const providerName = "catalog"

// Config holds the cluster connection settings
type Config struct {
	Addresses []string
	Index     string
	Username  string
	Password  string
}

// NewClient creates an Elasticsearch client
func NewClient(cfg Config) (*elasticsearch.Client, error) {
	esCfg := elasticsearch.Config{
		Addresses: cfg.Addresses,
	}
	if cfg.Username != "" {
		esCfg.Username = cfg.Username
		esCfg.Password = cfg.Password
	}

	es, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}
	return es, nil
}

// Ping checks the cluster is reachable
func Ping(ctx context.Context, es *elasticsearch.Client) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := es.Ping(es.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch ping failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping error: %s", res.Status())
	}
	return nil
}

// Product is a catalog document
type Product struct {
	Title       string   `json:"title"`
	URL         string   `json:"url"`
	ImageURL    string   `json:"image_url"`
	Brand       string   `json:"brand"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Material    string   `json:"material"`
	CO2eKg      *float64 `json:"co2e_kg"`
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			Score  float64 `json:"_score"`
			Source Product `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Searcher implements domain.StorefrontSearcher for the catalog index
type Searcher struct {
	es     *elasticsearch.Client
	index  string
	logger *zap.Logger
}

// NewSearcher creates a catalog searcher over index
func NewSearcher(es *elasticsearch.Client, index string, logger *zap.Logger) *Searcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Searcher{es: es, index: index, logger: logger.Named(providerName)}
}

// buildQuery builds a multi_match query over the text fields. Operators
// such as site: and -term are search engine syntax and are stripped.
func buildQuery(query string, limit int) map[string]interface{} {
	var terms []string
	for _, f := range strings.Fields(query) {
		if strings.HasPrefix(f, "-") || strings.Contains(f, ":") {
			continue
		}
		terms = append(terms, f)
	}

	return map[string]interface{}{
		"size": limit,
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  strings.Join(terms, " "),
				"fields": []string{"title^3", "description", "category", "material"},
				"type":   "best_fields",
			},
		},
	}
}

// Search queries the catalog index
func (s *Searcher) Search(ctx context.Context, storefront domain.Storefront, query string, limit int) ([]domain.Candidate, error) {
	if limit <= 0 {
		limit = 8
	}

	body, err := json.Marshal(buildQuery(query, limit))
	if err != nil {
		return nil, fmt.Errorf("failed to encode query: %w", err)
	}

	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  bytes.NewReader(body),
	}

	res, err := req.Do(ctx, s.es)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSearchAPIFailure, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		s.logger.Warn("search error", zap.String("status", res.Status()))
		return nil, fmt.Errorf("%w: catalog search failed: %s", domain.ErrSearchAPIFailure, res.Status())
	}

	var r searchResponse
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	out := make([]domain.Candidate, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		p := hit.Source
		if p.URL == "" || p.Title == "" {
			continue
		}
		out = append(out, domain.Candidate{
			Item: domain.AlternativeItem{
				Title:           p.Title,
				URL:             p.URL,
				ImageURL:        p.ImageURL,
				Source:          providerName,
				EstimatedCO2eKg: p.CO2eKg,
			},
			Brand:      p.Brand,
			Snippet:    p.Description,
			Storefront: storefront,
			Query:      query,
		})
	}

	s.logger.Debug("search complete",
		zap.String("query", query),
		zap.Int64("total", r.Hits.Total.Value),
		zap.Int("returned", len(out)))
	return out, nil
}
