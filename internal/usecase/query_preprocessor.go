package usecase

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// maxEssenceTokens keeps the essence to a short head noun phrase
const maxEssenceTokens = 3

// QueryPreprocessor reduces product names to the short term used in searches
type QueryPreprocessor struct {
	logger *zap.Logger
}

// Compiled regex patterns for query preprocessing
var (
	// Matches size/quantity patterns like "16 oz", "500 ml", "1.5 liter", "2 lb"
	sizeQuantityPattern = regexp.MustCompile(`\b\d+\.?\d*\s*(fl\s*)?oz\b|\b\d+\.?\d*\s*(fl\s*)?ounces?\b|\b\d+\.?\d*\s*lbs?\b|\b\d+\.?\d*\s*pounds?\b|\b\d+\.?\d*\s*ml\b|\b\d+\.?\d*\s*l\b|\b\d+\.?\d*\s*liters?\b|\b\d+\.?\d*\s*litres?\b|\b\d+\.?\d*\s*gallons?\b|\b\d+\.?\d*\s*kg\b|\b\d+\.?\d*\s*grams?\b|\b\d+\.?\d*\s*g\b|\b\d+\.?\d*\s*(cm|mm|inch|inches|in)\b`)

	// Matches pack/count patterns like "12 pack", "pack of 6", "6-pack", "50 count", "6 ct"
	packCountPattern = regexp.MustCompile(`\b\d+[-\s]*(pack|pk|count|ct|pcs|pieces?)\b|\bpack\s*of\s*\d+\b|\bset\s*of\s*\d+\b`)

	// Matches standalone numbers with no unit
	standaloneNumberPattern = regexp.MustCompile(`\b\d+\.?\d*\b`)

	// Lone punctuation left behind by the removals above
	orphanPunctuationPattern = regexp.MustCompile(`\s+[,\-;:/]+\s+|[,\-;:/]+\s*$|^\s*[,\-;:/]+`)
)

// queryNoiseWords are marketing and size terms that never describe what the product is
var queryNoiseWords = map[string]bool{
	// Marketing terms
	"value": true, "family": true, "bonus": true, "new": true, "improved": true,
	"premium": true, "select": true, "choice": true, "quality": true, "best": true,
	"great": true, "special": true, "classic": true, "original": true, "edition": true,

	// Size descriptors
	"size": true, "large": true, "medium": true, "small": true, "mini": true,
	"jumbo": true, "giant": true, "big": true, "single": true, "double": true,
	"tall": true, "grande": true, "venti": true, "regular": true,

	// Generic terms
	"item": true, "product": true, "brand": true, "unknown": true, "object": true,
}

// disposableTerms describe the wasteful variant; alternatives are searched without them
var disposableTerms = map[string]bool{
	"disposable": true, "single-use": true, "singleuse": true, "throwaway": true,
	"plastic": true, "paper": true, "styrofoam": true, "foam": true,
	"polystyrene": true, "pet": true, "pp": true, "ps": true,
}

// NewQueryPreprocessor creates a new query preprocessor
func NewQueryPreprocessor(logger *zap.Logger) *QueryPreprocessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueryPreprocessor{logger: logger}
}

// CleanName lowercases a product name and strips sizes, pack counts,
// standalone numbers and marketing noise
func (p *QueryPreprocessor) CleanName(name string) string {
	if name == "" {
		return ""
	}

	cleaned := strings.ToLower(name)
	cleaned = sizeQuantityPattern.ReplaceAllString(cleaned, " ")
	cleaned = packCountPattern.ReplaceAllString(cleaned, " ")
	cleaned = standaloneNumberPattern.ReplaceAllString(cleaned, " ")
	cleaned = removeWords(cleaned, queryNoiseWords)
	cleaned = orphanPunctuationPattern.ReplaceAllString(cleaned, " ")
	return normalizeSpaces(cleaned)
}

// Essence returns the short generic term for a product: the cleaned name
// without brand and disposable materials, cut to its last few words. The
// category is used when nothing survives.
func (p *QueryPreprocessor) Essence(name, category, brand string) string {
	brandWords := make(map[string]bool)
	for _, w := range strings.Fields(punctuationRegex.ReplaceAllString(strings.ToLower(brand), " ")) {
		brandWords[w] = true
	}

	words := p.essenceWords(name, brandWords)
	if len(words) == 0 {
		words = p.essenceWords(category, brandWords)
	}
	if len(words) > maxEssenceTokens {
		words = words[len(words)-maxEssenceTokens:]
	}

	essence := strings.Join(words, " ")
	p.logger.Debug("essence",
		zap.String("name", name),
		zap.String("category", category),
		zap.String("essence", essence))
	return essence
}

// essenceWords cleans s and splits it into words, dropping noise, disposable
// terms and brand words
func (p *QueryPreprocessor) essenceWords(s string, brandWords map[string]bool) []string {
	cleaned := removeWords(p.CleanName(s), disposableTerms)

	var words []string
	for _, w := range strings.Fields(punctuationRegex.ReplaceAllString(cleaned, " ")) {
		if queryNoiseWords[w] || disposableTerms[w] || brandWords[w] {
			continue
		}
		words = append(words, w)
	}
	return words
}

// removeWords drops words found in set, comparing without surrounding punctuation
func removeWords(s string, set map[string]bool) string {
	var kept []string
	for _, word := range strings.Fields(s) {
		clean := strings.Trim(strings.ToLower(word), ",.!?;:-'\"()")
		if !set[clean] {
			kept = append(kept, word)
		}
	}
	return strings.Join(kept, " ")
}
