package usecase

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/swytch/backend/internal/domain"
)

// AnalyzeService runs the full image analysis
type AnalyzeService struct {
	vision       *VisionService
	carbon       *CarbonService
	alternatives *AlternativesService
	returnDebug  bool
	logger       *zap.Logger
}

// NewAnalyzeService wires the pipeline. carbon is nil when Climatiq is not
// configured, in which case the response has no climatiq estimate.
func NewAnalyzeService(
	vision *VisionService,
	carbon *CarbonService,
	alternatives *AlternativesService,
	returnDebug bool,
	logger *zap.Logger,
) *AnalyzeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyzeService{
		vision:       vision,
		carbon:       carbon,
		alternatives: alternatives,
		returnDebug:  returnDebug,
		logger:       logger.Named("analyze"),
	}
}

// AnalyzeImage identifies the product, estimates its footprint and finds
// alternatives. Carbon estimation errors are returned as-is; everything
// else degrades to fallbacks.
func (s *AnalyzeService) AnalyzeImage(ctx context.Context, req domain.AnalyzeRequest) (*domain.AnalyzeImageResponse, error) {
	if len(req.Image) == 0 {
		return nil, fmt.Errorf("%w: empty file", domain.ErrInvalidImage)
	}
	if !strings.HasPrefix(req.MimeType, "image/") {
		return nil, fmt.Errorf("%w: content type %q", domain.ErrInvalidImage, req.MimeType)
	}

	product, visionTrace := s.vision.ExtractProductInfo(ctx, req.Image, req.MimeType, req.Filename)

	resp := &domain.AnalyzeImageResponse{Product: *product}
	debug := map[string]interface{}{
		"vision": visionTrace,
	}

	var baseline *float64
	if s.carbon != nil {
		estimate, carbonTrace, err := s.carbon.Estimate(ctx, *product)
		if err != nil {
			s.logger.Warn("carbon estimate failed",
				zap.String("product", product.Name),
				zap.Error(err))
			return nil, err
		}
		resp.Climatiq = estimate
		baseline = &estimate.CO2eKg
		debug["climatiq_search_top"] = carbonTrace.SearchTop
		debug["climatiq_parameters"] = carbonTrace.Parameters
	}

	items, searchTrace := s.alternatives.Search(ctx, *product, baseline)
	resp.Alternatives = items
	debug["strategy"] = searchTrace.Strategy
	debug["search"] = searchTrace

	if s.returnDebug {
		resp.Debug = debug
	}
	return resp, nil
}
