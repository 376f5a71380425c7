package usecase

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/swytch/backend/internal/domain"
)

var fenceRegex = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")

// productSchema describes the JSON object the vision prompt asks for
const productSchema = `{
	"type": "object",
	"required": ["name"],
	"properties": {
		"name":      {"type": "string", "pattern": "\\S"},
		"category":  {"type": ["string", "null"]},
		"material":  {"type": ["string", "null"]},
		"region":    {"type": ["string", "null"]},
		"brand":     {"type": ["string", "null"]},
		"weight_kg": {"type": ["number", "null"], "minimum": 0},
		"quantity":  {"type": ["integer", "null"]}
	}
}`

// strategySchema describes the JSON object the strategy prompt asks for
const strategySchema = `{
	"type": "object",
	"required": ["queries"],
	"properties": {
		"essence":            {"type": ["string", "null"]},
		"queries":            {"type": "array", "items": {"type": "string"}},
		"required_keyword":   {"type": ["string", "null"]},
		"forbidden_keywords": {"type": ["array", "null"], "items": {"type": "string"}}
	}
}`

var (
	productSchemaLoader  = gojsonschema.NewStringLoader(productSchema)
	strategySchemaLoader = gojsonschema.NewStringLoader(strategySchema)
)

// stripFences removes a surrounding markdown code fence
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if m := fenceRegex.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return text
}

// extractJSONObject returns the outermost {...} in text
func extractJSONObject(text string) (string, bool) {
	text = stripFences(text)
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

// decodeModelJSON extracts the JSON object from model output, validates it
// against schema and decodes it into out
func decodeModelJSON(text string, schema gojsonschema.JSONLoader, out interface{}) error {
	raw, ok := extractJSONObject(text)
	if !ok {
		return fmt.Errorf("%w: no JSON object in output", domain.ErrInvalidModelOutput)
	}

	result, err := gojsonschema.Validate(schema, gojsonschema.NewStringLoader(raw))
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidModelOutput, err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("%w: %s", domain.ErrInvalidModelOutput, strings.Join(errs, "; "))
	}

	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidModelOutput, err)
	}
	return nil
}
