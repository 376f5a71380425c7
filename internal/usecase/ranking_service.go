package usecase

import (
	"net/url"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/swytch/backend/internal/domain"
)

// Score weights
const (
	essenceCoverageWeight = 4.0  // fraction of essence tokens found in the result
	requiredKeywordBonus  = 3.0  // required keyword present
	requiredKeywordMiss   = -2.0 // required keyword absent
	ecoTermBonus          = 1.0  // per eco term, up to maxEcoTerms
	maxEcoTerms           = 3
	shopDomainBonus       = 2.0 // result hosted on a whitelisted shop
	shoppingBonus         = 1.0 // result came from a shopping engine
	imageBonus            = 0.5
	lowerCarbonBonus      = 1.0 // estimated CO2e below the product's
	articlePenalty        = -3.0
)

// articleWords mark editorial pages rather than product pages
var articleWords = []string{"review", "reviews", "best", "top", "guide", "blog", "list", "vs"}

// trackingParams are stripped before comparing URLs
var trackingParams = map[string]bool{"gclid": true, "srsltid": true, "fbclid": true}

// RankingConfig holds configuration for the ranking service
type RankingConfig struct {
	ShopDomains []string
	MaxPerBrand int
	MaxResults  int
}

// RankingService scores, deduplicates and selects storefront candidates
type RankingService struct {
	shopDomains []string
	maxPerBrand int
	maxResults  int
	logger      *zap.Logger
}

// NewRankingService creates a new ranking service with the given configuration
func NewRankingService(config RankingConfig, logger *zap.Logger) *RankingService {
	if config.MaxPerBrand <= 0 {
		config.MaxPerBrand = 2
	}
	if config.MaxResults <= 0 || config.MaxResults > domain.MaxAlternatives {
		config.MaxResults = domain.MaxAlternatives
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RankingService{
		shopDomains: config.ShopDomains,
		maxPerBrand: config.MaxPerBrand,
		maxResults:  config.MaxResults,
		logger:      logger.Named("ranking"),
	}
}

// Rank scores candidates, drops forbidden and unparseable ones, keeps the
// best candidate per normalized URL, orders by score then title and applies
// the per-brand cap and result limit
func (s *RankingService) Rank(candidates []domain.Candidate, strategy domain.SearchStrategy, baselineCO2e *float64) []domain.Candidate {
	best := make(map[string]domain.Candidate)
	for _, c := range candidates {
		key, host, ok := normalizeURL(c.Item.URL)
		if !ok {
			continue
		}
		if s.isForbidden(c, strategy.ForbiddenKeywords) {
			s.logger.Debug("dropped forbidden candidate", zap.String("url", c.Item.URL))
			continue
		}

		c.Score = s.Score(c, host, strategy, baselineCO2e)
		if c.Brand == "" {
			c.Brand = brandOf(host, c.Item.Source, c.Item.Title)
		} else {
			c.Brand = strings.ToLower(strings.TrimSpace(c.Brand))
		}

		if prev, exists := best[key]; !exists || c.Score > prev.Score {
			best[key] = c
		}
	}

	ranked := make([]domain.Candidate, 0, len(best))
	for _, c := range best {
		ranked = append(ranked, c)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		if ranked[i].Item.Title != ranked[j].Item.Title {
			return ranked[i].Item.Title < ranked[j].Item.Title
		}
		return ranked[i].Item.URL < ranked[j].Item.URL
	})

	perBrand := make(map[string]int)
	out := make([]domain.Candidate, 0, s.maxResults)
	for _, c := range ranked {
		if perBrand[c.Brand] >= s.maxPerBrand {
			continue
		}
		perBrand[c.Brand]++
		out = append(out, c)
		if len(out) == s.maxResults {
			break
		}
	}
	return out
}

// Score computes the relevance of one candidate
func (s *RankingService) Score(c domain.Candidate, host string, strategy domain.SearchStrategy, baselineCO2e *float64) float64 {
	text := c.Item.Title + " " + c.Snippet
	score := 0.0

	essenceTokens := distinct(tokenize(strategy.Essence))
	if len(essenceTokens) > 0 {
		matched, _ := findIntersection(essenceTokens, tokenize(text))
		score += essenceCoverageWeight * float64(matched) / float64(len(essenceTokens))
	}

	if strategy.RequiredKeyword != "" {
		if containsWord(text, strategy.RequiredKeyword) {
			score += requiredKeywordBonus
		} else {
			score += requiredKeywordMiss
		}
	}

	eco := 0
	for _, term := range ecoKeywords {
		if containsWord(text, term) {
			eco++
			if eco == maxEcoTerms {
				break
			}
		}
	}
	score += ecoTermBonus * float64(eco)

	if s.isShopDomain(host) {
		score += shopDomainBonus
	}
	if c.Storefront.Kind == domain.StorefrontShopping {
		score += shoppingBonus
	}
	if c.Item.ImageURL != "" {
		score += imageBonus
	}
	if baselineCO2e != nil && c.Item.EstimatedCO2eKg != nil && *c.Item.EstimatedCO2eKg < *baselineCO2e {
		score += lowerCarbonBonus
	}

	for _, w := range articleWords {
		if containsWord(c.Item.Title, w) {
			score += articlePenalty
			break
		}
	}

	return score
}

func (s *RankingService) isShopDomain(host string) bool {
	for _, d := range s.shopDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// isForbidden reports whether any forbidden keyword appears in the title,
// snippet or URL path
func (s *RankingService) isForbidden(c domain.Candidate, forbidden []string) bool {
	if len(forbidden) == 0 {
		return false
	}
	path := ""
	if u, err := url.Parse(c.Item.URL); err == nil {
		path = u.Path
	}
	for _, k := range forbidden {
		if containsWord(c.Item.Title, k) || containsWord(c.Snippet, k) || containsWord(path, k) {
			return true
		}
	}
	return false
}

// normalizeURL returns the comparison key and host for a product URL.
// Scheme and host are lowercased, "www." stripped, fragments and tracking
// parameters dropped and the trailing slash trimmed.
func normalizeURL(raw string) (key, host string, ok bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return "", "", false
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", "", false
	}

	host = strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")

	q := u.Query()
	for param := range q {
		lower := strings.ToLower(param)
		if strings.HasPrefix(lower, "utm_") || trackingParams[lower] {
			q.Del(param)
		}
	}

	key = host + strings.TrimSuffix(u.EscapedPath(), "/")
	if enc := q.Encode(); enc != "" {
		key += "?" + enc
	}
	return key, host, true
}

// aggregatorHosts list marketplaces whose host says nothing about the seller
var aggregatorHosts = map[string]bool{
	"google": true,
	"bing":   true,
}

// brandOf guesses a brand from the host label. Aggregator hosts use the
// merchant source instead, then the first title word.
func brandOf(host, source, title string) string {
	labels := strings.Split(host, ".")
	if len(labels) >= 2 {
		label := labels[len(labels)-2]
		// keepcup.com.au, shop.co.uk
		if (label == "com" || label == "co" || label == "org" || label == "net") && len(labels) >= 3 {
			label = labels[len(labels)-3]
		}
		if aggregatorHosts[label] {
			if src := strings.ToLower(strings.TrimSpace(source)); src != "" {
				return src
			}
		} else if label != "" {
			return label
		}
	}
	if words := tokenize(title); len(words) > 0 {
		return words[0]
	}
	return host
}

// Items unwraps ranked candidates
func Items(candidates []domain.Candidate) []domain.AlternativeItem {
	items := make([]domain.AlternativeItem, len(candidates))
	for i, c := range candidates {
		items[i] = c.Item
	}
	return items
}
