// Package storefront dispatches storefront searches to the provider serving each kind.
package storefront

import (
	"context"
	"fmt"

	"github.com/swytch/backend/internal/domain"
)

// Router implements domain.StorefrontSearcher by kind
type Router struct {
	providers map[domain.StorefrontKind]domain.StorefrontSearcher
}

// NewRouter creates an empty router
func NewRouter() *Router {
	return &Router{providers: make(map[domain.StorefrontKind]domain.StorefrontSearcher)}
}

// Register assigns a provider to a storefront kind. Nil providers are ignored.
func (r *Router) Register(kind domain.StorefrontKind, provider domain.StorefrontSearcher) {
	if provider == nil {
		return
	}
	r.providers[kind] = provider
}

// Supports reports whether a provider is registered for kind
func (r *Router) Supports(kind domain.StorefrontKind) bool {
	_, ok := r.providers[kind]
	return ok
}

// Search forwards to the provider registered for the storefront kind
func (r *Router) Search(ctx context.Context, storefront domain.Storefront, query string, limit int) ([]domain.Candidate, error) {
	provider, ok := r.providers[storefront.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: no provider for storefront kind %q", domain.ErrSearchAPIFailure, storefront.Kind)
	}
	return provider.Search(ctx, storefront, query, limit)
}

// Options controls which storefronts are built
type Options struct {
	SerpAPI        bool
	ShoppingEngine bool
	ShopDomains    []string
	Catalog        bool
}

// Build returns the storefront list for the enabled providers: Google Shopping,
// one Google storefront per shop domain, one unrestricted Google storefront
// and the catalog.
func Build(opts Options) []domain.Storefront {
	var out []domain.Storefront
	if opts.SerpAPI {
		if opts.ShoppingEngine {
			out = append(out, domain.Storefront{Name: "google_shopping", Kind: domain.StorefrontShopping})
		}
		for _, d := range opts.ShopDomains {
			out = append(out, domain.Storefront{Name: d, Kind: domain.StorefrontGoogle, Domain: d})
		}
		out = append(out, domain.Storefront{Name: "google", Kind: domain.StorefrontGoogle})
	}
	if opts.Catalog {
		out = append(out, domain.Storefront{Name: "catalog", Kind: domain.StorefrontCatalog})
	}
	return out
}
