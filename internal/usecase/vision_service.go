package usecase

import (
	"context"
	"math"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/swytch/backend/internal/domain"
	"github.com/swytch/backend/internal/infrastructure/metrics"
)

const (
	// stubProductName is used when no name can be derived from the upload
	stubProductName = "unknown-product"
	// stubWeightKg lets the carbon estimate run end to end on stub products
	stubWeightKg = 0.2
	// maxStubNameLength caps filename-derived names
	maxStubNameLength = 80
)

// Extraction sources reported in debug output
const (
	ExtractionSourceModel = "model"
	ExtractionSourceStub  = "stub"
)

// visionPrompt asks for the product JSON. It never lets the model echo a filename.
const visionPrompt = `Identify the product in the image. Return ONLY JSON:
{ "name": "detailed name", "category": "category", "material": "material", "region": "global", "weight_kg": 0.5, "quantity": 1, "brand": "brand or null" }
NEVER use the filename as the name. If it is a T-shirt, name it 'Cotton T-shirt'.
weight_kg is the estimated weight of one item in kilograms. Use null for unknown fields.`

// ExtractionTrace records how a ProductInfo was obtained
type ExtractionTrace struct {
	Source    string `json:"source"`
	Model     string `json:"model,omitempty"`
	Error     string `json:"error,omitempty"`
	LogoBrand string `json:"logo_brand,omitempty"`
}

// productOutput mirrors the JSON the vision prompt asks for
type productOutput struct {
	Name     string   `json:"name"`
	Category *string  `json:"category"`
	Material *string  `json:"material"`
	Region   *string  `json:"region"`
	Brand    *string  `json:"brand"`
	WeightKg *float64 `json:"weight_kg"`
	Quantity *float64 `json:"quantity"`
}

// VisionService turns an uploaded photo into a ProductInfo
type VisionService struct {
	model  domain.LanguageModel
	logos  domain.LogoDetector
	logger *zap.Logger
}

// NewVisionService creates a vision service. model and logos may be nil.
func NewVisionService(model domain.LanguageModel, logos domain.LogoDetector, logger *zap.Logger) *VisionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VisionService{model: model, logos: logos, logger: logger.Named("vision")}
}

// ExtractProductInfo asks the model to identify the product. Any failure
// yields a filename-derived stub; the call never fails.
func (s *VisionService) ExtractProductInfo(ctx context.Context, image []byte, mimeType, filename string) (*domain.ProductInfo, ExtractionTrace) {
	product, trace := s.extract(ctx, image, mimeType, filename)

	if product.Brand == "" && s.logos != nil {
		if brand := s.detectBrand(ctx, image); brand != "" {
			product.Brand = brand
			trace.LogoBrand = brand
		}
	}
	return product, trace
}

func (s *VisionService) extract(ctx context.Context, image []byte, mimeType, filename string) (*domain.ProductInfo, ExtractionTrace) {
	if s.model == nil {
		return s.stub(filename, ExtractionTrace{Error: domain.ErrLLMNotConfigured.Error()})
	}

	trace := ExtractionTrace{Model: s.model.Name()}

	text, err := s.model.DescribeImage(ctx, visionPrompt, image, mimeType)
	if err != nil {
		s.logger.Warn("model request failed, using stub", zap.Error(err))
		trace.Error = err.Error()
		return s.stub(filename, trace)
	}

	var out productOutput
	if err := decodeModelJSON(text, productSchemaLoader, &out); err != nil {
		s.logger.Warn("unusable model output, using stub",
			zap.Error(err),
			zap.String("output", text))
		trace.Error = err.Error()
		return s.stub(filename, trace)
	}

	product := &domain.ProductInfo{
		Name:     strings.TrimSpace(out.Name),
		Category: trimmed(out.Category),
		Material: trimmed(out.Material),
		Region:   trimmed(out.Region),
		Brand:    trimmed(out.Brand),
		WeightKg: out.WeightKg,
	}
	if out.Quantity != nil {
		product.Quantity = int(math.Round(*out.Quantity))
	}
	product.Normalize()

	s.logger.Info("product identified",
		zap.String("name", product.Name),
		zap.String("category", product.Category),
		zap.String("model", trace.Model))

	trace.Source = ExtractionSourceModel
	return product, trace
}

func (s *VisionService) stub(filename string, trace ExtractionTrace) (*domain.ProductInfo, ExtractionTrace) {
	metrics.Fallbacks.WithLabelValues("vision").Inc()
	trace.Source = ExtractionSourceStub
	product := StubProduct(filename)
	s.logger.Info("using stub product", zap.String("name", product.Name))
	return product, trace
}

// detectBrand returns the most confident logo, ignoring detector failures
func (s *VisionService) detectBrand(ctx context.Context, image []byte) string {
	logos, err := s.logos.DetectLogos(ctx, image)
	if err != nil {
		s.logger.Debug("logo detection failed", zap.Error(err))
		return ""
	}
	if len(logos) == 0 {
		return ""
	}
	return logos[0]
}

// StubProduct builds the placeholder product for an upload: the filename
// without extension (at most 80 characters) or "unknown-product"
func StubProduct(filename string) *domain.ProductInfo {
	name := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" {
		name = ""
	}
	name = strings.TrimSpace(strings.TrimSuffix(name, filepath.Ext(name)))
	if utf8.RuneCountInString(name) > maxStubNameLength {
		name = string([]rune(name)[:maxStubNameLength])
	}
	if name == "" {
		name = stubProductName
	}

	return &domain.ProductInfo{
		Name:     name,
		WeightKg: domain.Float64(stubWeightKg),
		Quantity: domain.DefaultQuantity,
		Region:   domain.DefaultRegion,
	}
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
