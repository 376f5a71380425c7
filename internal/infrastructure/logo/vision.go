// Package logo detects brand logos with Google Cloud Vision.
package logo

import (
	"context"
	"fmt"
	"sort"
	"time"

	gvision "cloud.google.com/go/vision/v2/apiv1"
	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/googleapis/gax-go/v2"

	"github.com/swytch/backend/internal/domain"
	"github.com/swytch/backend/internal/infrastructure/metrics"
)

const (
	providerName = "cloud_vision"

	// minScore drops low confidence annotations
	minScore = 0.5
)

// annotator is the part of the Vision client used here
type annotator interface {
	BatchAnnotateImages(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest, opts ...gax.CallOption) (*visionpb.BatchAnnotateImagesResponse, error)
}

// Detector implements domain.LogoDetector
type Detector struct {
	client annotator
	closer func() error
}

var _ domain.LogoDetector = (*Detector)(nil)

// NewDetector creates a detector using Application Default Credentials
func NewDetector(ctx context.Context) (*Detector, error) {
	client, err := gvision.NewImageAnnotatorClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create vision client: %w", err)
	}
	return &Detector{client: client, closer: client.Close}, nil
}

// Close releases the Vision client
func (d *Detector) Close() error {
	if d.closer == nil {
		return nil
	}
	return d.closer()
}

// DetectLogos returns logo descriptions sorted by confidence
func (d *Detector) DetectLogos(ctx context.Context, image []byte) ([]string, error) {
	started := time.Now()
	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image:    &visionpb.Image{Content: image},
				Features: []*visionpb.Feature{{Type: visionpb.Feature_LOGO_DETECTION, MaxResults: 5}},
			},
		},
	}

	resp, err := d.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		metrics.ObserveOutbound(providerName, metrics.OutcomeError, started)
		return nil, fmt.Errorf("vision API request failed: %w", err)
	}
	if len(resp.Responses) == 0 {
		metrics.ObserveOutbound(providerName, metrics.OutcomeEmpty, started)
		return nil, nil
	}
	if resp.Responses[0].Error != nil {
		metrics.ObserveOutbound(providerName, metrics.OutcomeError, started)
		return nil, fmt.Errorf("vision API error: %s", resp.Responses[0].Error.Message)
	}

	annotations := resp.Responses[0].LogoAnnotations
	sort.SliceStable(annotations, func(i, j int) bool {
		return annotations[i].Score > annotations[j].Score
	})

	names := make([]string, 0, len(annotations))
	for _, a := range annotations {
		if a.Score < minScore || a.Description == "" {
			continue
		}
		names = append(names, a.Description)
	}
	metrics.ObserveOutbound(providerName, metrics.OutcomeOf(nil, len(names)), started)
	return names, nil
}
