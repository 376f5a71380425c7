package usecase

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swytch/backend/internal/domain"
)

var (
	googleSF   = domain.Storefront{Name: "google", Kind: domain.StorefrontGoogle}
	shoppingSF = domain.Storefront{Name: "google_shopping", Kind: domain.StorefrontShopping}
	cupStrat   = domain.SearchStrategy{
		Essence:           "coffee cup",
		Queries:           []string{"buy reusable coffee cup"},
		RequiredKeyword:   "cup",
		ForbiddenKeywords: []string{"disposable"},
	}
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantKey  string
		wantHost string
		wantOK   bool
	}{
		{"strips www and trailing slash", "https://www.KeepCup.com/cups/", "keepcup.com/cups", "keepcup.com", true},
		{"drops fragment", "https://keepcup.com/cups#reviews", "keepcup.com/cups", "keepcup.com", true},
		{"drops tracking params", "https://keepcup.com/cups?utm_source=x&gclid=1&srsltid=abc&variant=2", "keepcup.com/cups?variant=2", "keepcup.com", true},
		{"http and https collapse", "http://keepcup.com/cups", "keepcup.com/cups", "keepcup.com", true},
		{"relative url", "/cups", "", "", false},
		{"non http scheme", "ftp://keepcup.com/cups", "", "", false},
		{"garbage", "://", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, host, ok := normalizeURL(tt.input)
			if ok != tt.wantOK || key != tt.wantKey || host != tt.wantHost {
				t.Errorf("normalizeURL(%q) = %q, %q, %v, want %q, %q, %v", tt.input, key, host, ok, tt.wantKey, tt.wantHost, tt.wantOK)
			}
		})
	}
}

func TestBrandOf(t *testing.T) {
	tests := []struct {
		host   string
		source string
		title  string
		want   string
	}{
		{"keepcup.com", "", "", "keepcup"},
		{"shop.keepcup.com", "", "", "keepcup"},
		{"keepcup.com.au", "", "", "keepcup"},
		{"keepcup.com", "Amazon", "", "keepcup"},
		{"localhost", "", "Stojo Collapsible Cup", "stojo"},
		{"google.com", " Target ", "Glass Cup", "target"},
		{"google.co.uk", "", "Stojo Collapsible Cup", "stojo"},
	}
	for _, tt := range tests {
		if got := brandOf(tt.host, tt.source, tt.title); got != tt.want {
			t.Errorf("brandOf(%q, %q, %q) = %q, want %q", tt.host, tt.source, tt.title, got, tt.want)
		}
	}
}

func TestRankingService_Score(t *testing.T) {
	svc := NewRankingService(RankingConfig{ShopDomains: []string{"keepcup.com"}}, nil)

	t.Run("relevant shop product outscores article", func(t *testing.T) {
		product := candidate("KeepCup Reusable Coffee Cup", "https://keepcup.com/original", googleSF)
		article := candidate("Best reusable coffee cups reviewed", "https://blog.example/best-cups", googleSF)

		ps := svc.Score(product, "keepcup.com", cupStrat, nil)
		as := svc.Score(article, "blog.example", cupStrat, nil)

		assert.Greater(t, ps, as)
		// coverage 4 + required 3 + eco 1 + shop domain 2
		assert.InDelta(t, 10.0, ps, 1e-9)
	})

	t.Run("missing required keyword is penalized", func(t *testing.T) {
		c := candidate("Coffee tumbler", "https://x.example/t", googleSF)
		// coverage 2 (coffee) - 2 (no cup)
		assert.InDelta(t, 0.0, svc.Score(c, "x.example", cupStrat, nil), 1e-9)
	})

	t.Run("bonuses", func(t *testing.T) {
		c := candidate("Glass coffee cup", "https://x.example/c", shoppingSF)
		c.Item.ImageURL = "https://img"
		c.Item.EstimatedCO2eKg = domain.Float64(0.1)
		baseline := domain.Float64(0.5)
		// coverage 4 + required 3 + eco (glass) 1 + shopping 1 + image 0.5 + lower carbon 1
		assert.InDelta(t, 10.5, svc.Score(c, "x.example", cupStrat, baseline), 1e-9)
	})

	t.Run("eco terms capped", func(t *testing.T) {
		c := candidate("reusable refillable glass bamboo recycled cup", "https://x.example/c", googleSF)
		// coverage 2 (cup) + required 3 + eco 3
		assert.InDelta(t, 8.0, svc.Score(c, "x.example", cupStrat, nil), 1e-9)
	})
}

func TestRankingService_Rank(t *testing.T) {
	t.Run("shopping results on google keep distinct merchants", func(t *testing.T) {
		svc := NewRankingService(RankingConfig{}, nil)
		var in []domain.Candidate
		for i, merchant := range []string{"Amazon", "Target", "KeepCup", "Walmart", "Etsy"} {
			c := candidate(fmt.Sprintf("Reusable coffee cup %d", i), fmt.Sprintf("https://www.google.com/shopping/product/%d", i), shoppingSF)
			c.Item.Source = merchant
			in = append(in, c)
		}

		got := svc.Rank(in, cupStrat, nil)

		require.Len(t, got, 5)
		brands := make(map[string]bool)
		for _, c := range got {
			brands[c.Brand] = true
		}
		assert.Len(t, brands, 5)
		assert.False(t, brands["google"])
	})

	t.Run("drops forbidden in title, snippet or path", func(t *testing.T) {
		svc := NewRankingService(RankingConfig{}, nil)
		snippet := candidate("Coffee cup", "https://a.example/1", googleSF)
		snippet.Snippet = "Pack of 50 disposable cups"
		got := svc.Rank([]domain.Candidate{
			candidate("Disposable coffee cup", "https://b.example/1", googleSF),
			snippet,
			candidate("Coffee cup", "https://c.example/disposable-cups", googleSF),
			candidate("Reusable coffee cup", "https://d.example/1", googleSF),
		}, cupStrat, nil)

		require.Len(t, got, 1)
		assert.Equal(t, "https://d.example/1", got[0].Item.URL)
	})

	t.Run("deduplicates by normalized url keeping higher score", func(t *testing.T) {
		svc := NewRankingService(RankingConfig{}, nil)
		low := candidate("Coffee cup", "https://www.d.example/1/?utm_source=a", googleSF)
		high := candidate("Reusable coffee cup", "https://d.example/1", shoppingSF)
		got := svc.Rank([]domain.Candidate{low, high}, cupStrat, nil)

		require.Len(t, got, 1)
		assert.Equal(t, "Reusable coffee cup", got[0].Item.Title)
	})

	t.Run("caps per brand and total", func(t *testing.T) {
		svc := NewRankingService(RankingConfig{MaxPerBrand: 2, MaxResults: 5}, nil)
		var in []domain.Candidate
		for i := 0; i < 4; i++ {
			in = append(in, candidate(fmt.Sprintf("Reusable coffee cup %c", 'a'+i), fmt.Sprintf("https://keepcup.com/%d", i), googleSF))
		}
		for i := 0; i < 6; i++ {
			in = append(in, candidate("Coffee cup", fmt.Sprintf("https://shop%d.example/cup", i), googleSF))
		}

		got := svc.Rank(in, cupStrat, nil)

		require.Len(t, got, 5)
		brands := map[string]int{}
		urls := map[string]bool{}
		for _, c := range got {
			brands[c.Brand]++
			assert.False(t, urls[c.Item.URL], "duplicate url %s", c.Item.URL)
			urls[c.Item.URL] = true
		}
		assert.Equal(t, 2, brands["keepcup"])
		for b, n := range brands {
			assert.LessOrEqual(t, n, 2, b)
		}
		// highest scoring keepcup results come first
		assert.Equal(t, "Reusable coffee cup a", got[0].Item.Title)
		assert.Equal(t, "Reusable coffee cup b", got[1].Item.Title)
	})

	t.Run("explicit brand used for cap", func(t *testing.T) {
		svc := NewRankingService(RankingConfig{MaxPerBrand: 1}, nil)
		a := candidate("Coffee cup A", "https://one.example/a", googleSF)
		a.Brand = "Sttoke"
		b := candidate("Coffee cup B", "https://two.example/b", googleSF)
		b.Brand = " sttoke "

		got := svc.Rank([]domain.Candidate{a, b}, cupStrat, nil)

		require.Len(t, got, 1)
		assert.Equal(t, "sttoke", got[0].Brand)
	})

	t.Run("max results never above five", func(t *testing.T) {
		svc := NewRankingService(RankingConfig{MaxPerBrand: 10, MaxResults: 50}, nil)
		var in []domain.Candidate
		for i := 0; i < 10; i++ {
			in = append(in, candidate("Coffee cup", fmt.Sprintf("https://s%d.example/", i), googleSF))
		}
		assert.Len(t, svc.Rank(in, cupStrat, nil), 5)
	})

	t.Run("empty input", func(t *testing.T) {
		svc := NewRankingService(RankingConfig{}, nil)
		assert.Empty(t, svc.Rank(nil, cupStrat, nil))
	})
}
