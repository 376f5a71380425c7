package domain

// MaxAlternatives is the upper bound on alternatives returned for a product
const MaxAlternatives = 5

// AlternativeItem is a purchasable lower-carbon alternative
type AlternativeItem struct {
	Title           string   `json:"title"`
	URL             string   `json:"url"`
	ImageURL        string   `json:"image_url,omitempty"`
	Source          string   `json:"source,omitempty"`
	EstimatedCO2eKg *float64 `json:"estimated_co2e_kg,omitempty"`
}

// Strategy sources
const (
	StrategySourceLLM      = "llm"
	StrategySourceFallback = "fallback"
)

// SearchStrategy tells the alternatives pipeline what to search for and
// which results to keep
type SearchStrategy struct {
	Essence           string   `json:"essence"`
	Queries           []string `json:"queries"`
	RequiredKeyword   string   `json:"required_keyword,omitempty"`
	ForbiddenKeywords []string `json:"forbidden_keywords,omitempty"`
	Source            string   `json:"source"`
}

// StorefrontKind selects the provider that serves a storefront
type StorefrontKind string

const (
	StorefrontGoogle   StorefrontKind = "serpapi_google"
	StorefrontShopping StorefrontKind = "serpapi_shopping"
	StorefrontCatalog  StorefrontKind = "catalog"
)

// Storefront is an e-commerce source queried for candidate alternatives.
// Domain, when set, restricts results to that shop.
type Storefront struct {
	Name   string         `json:"name"`
	Kind   StorefrontKind `json:"kind"`
	Domain string         `json:"domain,omitempty"`
}

// Candidate is a storefront result before ranking
type Candidate struct {
	Item       AlternativeItem `json:"item"`
	Brand      string          `json:"brand,omitempty"`
	Snippet    string          `json:"snippet,omitempty"`
	Storefront Storefront      `json:"storefront"`
	Query      string          `json:"query"`
	Score      float64         `json:"score"`
}
