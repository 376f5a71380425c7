package climatiq

import (
	"github.com/swytch/backend/internal/domain"
)

// MapToEstimate converts an estimate response into the client-facing estimate.
// The raw payload is attached only when includeRaw is set.
func MapToEstimate(resp *domain.ClimatiqEstimateResponse, activityID string, includeRaw bool) *domain.ClimatiqEstimate {
	if resp == nil {
		return nil
	}

	estimate := &domain.ClimatiqEstimate{
		CO2eKg:     resp.CO2e,
		Unit:       domain.CO2eUnit,
		ActivityID: activityID,
	}

	// Climatiq reports kg by default, convert the other units it may return
	switch resp.CO2eUnit {
	case "t":
		estimate.CO2eKg = resp.CO2e * 1000
	case "g":
		estimate.CO2eKg = resp.CO2e / 1000
	}

	if includeRaw && resp.Payload != nil {
		estimate.Raw = resp.Payload
	}

	return estimate
}

// TopResult returns the first search result, or nil when there is none
func TopResult(resp *domain.ClimatiqSearchResponse) *domain.EmissionFactor {
	if resp == nil || len(resp.Results) == 0 {
		return nil
	}
	return &resp.Results[0]
}
