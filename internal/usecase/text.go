package usecase

import (
	"regexp"
	"strings"
)

var (
	punctuationRegex    = regexp.MustCompile(`[^\w\s]`)
	multipleSpacesRegex = regexp.MustCompile(`\s+`)
)

// stopWords are dropped by tokenize
var stopWords = map[string]bool{
	// Basic English stop words
	"a": true, "an": true, "the": true, "and": true, "or": true,
	"of": true, "in": true, "on": true, "at": true, "to": true,
	"for": true, "with": true, "by": true, "from": true, "is": true,
	"it": true, "as": true, "be": true, "was": true, "are": true,
	"your": true, "our": true, "this": true, "that": true, "you": true,
	// Size/quantity units
	"oz": true, "fl": true, "lb": true, "lbs": true, "ml": true,
	"gallon": true, "liter": true, "liters": true, "gram": true, "grams": true,
	"kg": true, "ounce": true, "ounces": true,
	// Commerce noise
	"buy": true, "shop": true, "price": true, "official": true, "store": true,
	"online": true, "free": true, "shipping": true, "sale": true,
}

// tokenize splits a string into normalized lowercase tokens.
// Removes punctuation, stop words and pure numeric tokens.
func tokenize(s string) []string {
	cleaned := punctuationRegex.ReplaceAllString(strings.ToLower(s), " ")

	var tokens []string
	for _, word := range strings.Fields(cleaned) {
		if len(word) <= 1 {
			continue
		}
		if stopWords[word] {
			continue
		}
		if isNumeric(word) {
			continue
		}
		tokens = append(tokens, word)
	}
	return tokens
}

// isNumeric checks if a string contains only digits
func isNumeric(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}

// findIntersection returns the count of distinct tokens1 entries present in tokens2
func findIntersection(tokens1, tokens2 []string) (int, []string) {
	set := make(map[string]bool, len(tokens2))
	for _, t := range tokens2 {
		set[t] = true
	}

	var matched []string
	seen := make(map[string]bool)
	for _, t := range tokens1 {
		if set[t] && !seen[t] {
			matched = append(matched, t)
			seen[t] = true
		}
	}
	return len(matched), matched
}

// distinct returns tokens without duplicates, preserving order
func distinct(tokens []string) []string {
	seen := make(map[string]bool, len(tokens))
	out := tokens[:0:0]
	for _, t := range tokens {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

// containsWord reports whether phrase appears in text on word boundaries.
// Both are compared lowercased with punctuation folded to spaces.
func containsWord(text, phrase string) bool {
	phrase = normalizeSpaces(punctuationRegex.ReplaceAllString(strings.ToLower(phrase), " "))
	if phrase == "" {
		return false
	}
	text = " " + normalizeSpaces(punctuationRegex.ReplaceAllString(strings.ToLower(text), " ")) + " "
	return strings.Contains(text, " "+phrase+" ")
}

func normalizeSpaces(s string) string {
	return strings.TrimSpace(multipleSpacesRegex.ReplaceAllString(s, " "))
}
