package usecase

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/swytch/backend/internal/domain"
	"github.com/swytch/backend/internal/infrastructure/metrics"
)

// articleNegatives keep search engines away from listicles and reviews
const articleNegatives = "-review -best -top -guide -blog -list"

// defaultEssence is searched when nothing is known about the product
const defaultEssence = "reusable product"

// disposableKeywords mark the wasteful variant of a product
var disposableKeywords = []string{"disposable", "single-use", "styrofoam", "polystyrene"}

// ecoKeywords signal a lower-impact product
var ecoKeywords = []string{"reusable", "refillable", "stainless steel", "glass", "bamboo", "plastic-free", "recycled", "compostable", "durable", "organic"}

// StrategyConfig holds configuration for the strategy service
type StrategyConfig struct {
	MaxQueries  int
	ShopDomains []string
}

// StrategyService decides what to search for
type StrategyService struct {
	model        domain.LanguageModel
	preprocessor *QueryPreprocessor
	maxQueries   int
	shopDomains  []string
	logger       *zap.Logger
}

// strategyOutput mirrors the JSON the strategy prompt asks for
type strategyOutput struct {
	Essence           string   `json:"essence"`
	Queries           []string `json:"queries"`
	RequiredKeyword   string   `json:"required_keyword"`
	ForbiddenKeywords []string `json:"forbidden_keywords"`
}

// NewStrategyService creates a strategy service. model may be nil.
func NewStrategyService(model domain.LanguageModel, preprocessor *QueryPreprocessor, config StrategyConfig, logger *zap.Logger) *StrategyService {
	if config.MaxQueries <= 0 {
		config.MaxQueries = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if preprocessor == nil {
		preprocessor = NewQueryPreprocessor(logger)
	}
	return &StrategyService{
		model:        model,
		preprocessor: preprocessor,
		maxQueries:   config.MaxQueries,
		shopDomains:  config.ShopDomains,
		logger:       logger.Named("strategy"),
	}
}

// Build asks the model for a search strategy and falls back to heuristics
// when the model is missing or its answer is unusable
func (s *StrategyService) Build(ctx context.Context, product domain.ProductInfo) domain.SearchStrategy {
	fallback := s.Fallback(product)
	if s.model == nil {
		metrics.Fallbacks.WithLabelValues("strategy").Inc()
		return fallback
	}

	text, err := s.model.Complete(ctx, s.prompt(product))
	if err != nil {
		s.logger.Warn("model request failed, using heuristic strategy", zap.Error(err))
		metrics.Fallbacks.WithLabelValues("strategy").Inc()
		return fallback
	}

	var out strategyOutput
	if err := decodeModelJSON(text, strategySchemaLoader, &out); err != nil {
		s.logger.Warn("unusable strategy output, using heuristic strategy",
			zap.Error(err),
			zap.String("output", text))
		metrics.Fallbacks.WithLabelValues("strategy").Inc()
		return fallback
	}

	strategy := s.clean(out, fallback)
	if len(strategy.Queries) == 0 {
		metrics.Fallbacks.WithLabelValues("strategy").Inc()
		return fallback
	}

	s.logger.Debug("strategy",
		zap.String("essence", strategy.Essence),
		zap.Strings("queries", strategy.Queries),
		zap.String("required", strategy.RequiredKeyword),
		zap.Strings("forbidden", strategy.ForbiddenKeywords))
	return strategy
}

// clean trims, lowercases and deduplicates model output, borrowing
// missing parts from fallback
func (s *StrategyService) clean(out strategyOutput, fallback domain.SearchStrategy) domain.SearchStrategy {
	strategy := domain.SearchStrategy{Source: domain.StrategySourceLLM}

	strategy.Essence = normalizeSpaces(strings.ToLower(out.Essence))
	if strategy.Essence == "" {
		strategy.Essence = fallback.Essence
	}

	seen := make(map[string]bool)
	for _, q := range out.Queries {
		q = normalizeSpaces(q)
		key := strings.ToLower(q)
		if q == "" || seen[key] {
			continue
		}
		seen[key] = true
		strategy.Queries = append(strategy.Queries, q)
		if len(strategy.Queries) == s.maxQueries {
			break
		}
	}

	strategy.RequiredKeyword = normalizeSpaces(strings.ToLower(out.RequiredKeyword))
	if strategy.RequiredKeyword == "" {
		strategy.RequiredKeyword = lastWord(strategy.Essence)
	}

	strategy.ForbiddenKeywords = cleanForbidden(out.ForbiddenKeywords, strategy.Essence, strategy.RequiredKeyword)
	return strategy
}

// Fallback builds a strategy from the product alone
func (s *StrategyService) Fallback(product domain.ProductInfo) domain.SearchStrategy {
	essence := s.preprocessor.Essence(product.Name, product.Category, product.Brand)
	if essence == "" {
		essence = defaultEssence
	}

	eco := ecoVariant(product.Material)
	var queries []string
	if len(s.shopDomains) > 0 {
		queries = append(queries, fmt.Sprintf("buy reusable %s site:%s %s", essence, s.shopDomains[0], articleNegatives))
	}
	queries = append(queries,
		fmt.Sprintf("shop %s %s price %s", eco, essence, articleNegatives),
		fmt.Sprintf("buy %s plastic-free official store %s", essence, articleNegatives),
	)
	if len(queries) > s.maxQueries {
		queries = queries[:s.maxQueries]
	}

	return domain.SearchStrategy{
		Essence:           essence,
		Queries:           queries,
		RequiredKeyword:   lastWord(essence),
		ForbiddenKeywords: cleanForbidden(disposableKeywords, essence, ""),
		Source:            domain.StrategySourceFallback,
	}
}

// ShortQuery is the reduced query tried when a full query finds nothing
func ShortQuery(strategy domain.SearchStrategy) string {
	for _, eco := range ecoKeywords {
		if containsWord(strategy.Essence, eco) {
			return strategy.Essence
		}
	}
	return strategy.Essence + " reusable"
}

func (s *StrategyService) prompt(product domain.ProductInfo) string {
	var b strings.Builder
	b.WriteString("You are a shopping assistant.\n")
	b.WriteString("Your goal is to find ECO-FRIENDLY ALTERNATIVES to the given product.\n")
	b.WriteString("The results should be PRODUCT PAGES (official store / shop pages), not articles.\n")
	b.WriteString("Return ONLY valid JSON:\n")
	b.WriteString(`{ "essence": "...", "queries": ["...", "..."], "required_keyword": "...", "forbidden_keywords": ["..."] }` + "\n")
	b.WriteString("Rules:\n")
	b.WriteString("- essence is the generic product type in 1-3 words, without brand or disposable material (e.g. 'coffee cup').\n")
	fmt.Fprintf(&b, "- Provide exactly %d queries.\n", s.maxQueries)
	b.WriteString("- Focus on reusable/refillable/durable alternatives (NOT the original disposable item).\n")
	b.WriteString("- Each query must include shopping intent words: buy OR shop OR official store OR price.\n")
	b.WriteString("- Each query must include eco keywords: reusable OR stainless steel OR glass OR plastic-free.\n")
	fmt.Fprintf(&b, "- Add negative keywords to avoid articles: %s.\n", articleNegatives)
	if len(s.shopDomains) > 0 {
		domains := s.shopDomains
		if len(domains) > 4 {
			domains = domains[:4]
		}
		fmt.Fprintf(&b, "- At least 1 query MUST use site: with one of these domains: %s\n", strings.Join(domains, ", "))
	}
	b.WriteString("- required_keyword is one word every good result title must contain.\n")
	b.WriteString("- forbidden_keywords are words that mark the wasteful variant (e.g. disposable).\n")
	b.WriteString("- Keep each query short.\n\n")

	fmt.Fprintf(&b, "Product name: %s\n", product.Name)
	fmt.Fprintf(&b, "Category: %s\n", product.Category)
	fmt.Fprintf(&b, "Material: %s\n", product.Material)
	fmt.Fprintf(&b, "Region: %s\n", product.Region)
	if product.Brand != "" {
		fmt.Fprintf(&b, "Brand: %s\n", product.Brand)
	}
	b.WriteString("Find eco-friendly alternatives people can purchase.\n")
	return b.String()
}

// ecoVariant picks the eco keyword that best replaces a material
func ecoVariant(material string) string {
	m := strings.ToLower(material)
	switch {
	case strings.Contains(m, "plastic"), strings.Contains(m, "styrofoam"), strings.Contains(m, "foam"):
		return "stainless steel"
	case strings.Contains(m, "paper"), strings.Contains(m, "cardboard"):
		return "reusable"
	case strings.Contains(m, "glass"), strings.Contains(m, "steel"):
		return "durable"
	default:
		return "sustainable"
	}
}

// cleanForbidden lowercases and deduplicates forbidden keywords, dropping any
// that would exclude the essence or required keyword itself
func cleanForbidden(keywords []string, essence, required string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, k := range keywords {
		k = normalizeSpaces(strings.ToLower(k))
		if k == "" || seen[k] {
			continue
		}
		if containsWord(essence, k) || (required != "" && containsWord(k, required)) {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}

func lastWord(s string) string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return ""
	}
	return words[len(words)-1]
}
