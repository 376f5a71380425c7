package usecase

import (
	"net/url"

	"github.com/swytch/backend/internal/domain"
)

// stubAlternatives is returned when no storefront can be searched
var stubAlternatives = []domain.AlternativeItem{
	{Title: "KeepCup Original Reusable Coffee Cup", URL: "https://keepcup.com/original-reusable-coffee-cup", Source: "stub"},
	{Title: "Sttoke Ceramic Reusable Cup", URL: "https://sttoke.com/collections/reusable-cups", Source: "stub"},
	{Title: "Klean Kanteen Insulated TKWide Bottle", URL: "https://www.kleankanteen.com/collections/bottles", Source: "stub"},
	{Title: "Hydro Flask Coffee Mug", URL: "https://www.hydroflask.com/coffee", Source: "stub"},
}

// StubAlternatives returns a copy of the static alternatives list
func StubAlternatives() []domain.AlternativeItem {
	out := make([]domain.AlternativeItem, len(stubAlternatives))
	copy(out, stubAlternatives)
	return out
}

// PlaceholderAlternative links to shopping results for the strategy's short query
func PlaceholderAlternative(strategy domain.SearchStrategy) domain.AlternativeItem {
	q := ShortQuery(strategy)
	return domain.AlternativeItem{
		Title:  "Search for " + q,
		URL:    "https://www.google.com/search?tbm=shop&q=" + url.QueryEscape(q),
		Source: "placeholder",
	}
}
