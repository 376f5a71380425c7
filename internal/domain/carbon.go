package domain

// CO2eUnit is the only unit estimates are reported in
const CO2eUnit = "kgCO2e"

// ClimatiqEstimate is the CO2e estimate returned to clients
type ClimatiqEstimate struct {
	CO2eKg     float64                `json:"co2e_kg"`
	Unit       string                 `json:"unit"`
	ActivityID string                 `json:"activity_id,omitempty"`
	Raw        map[string]interface{} `json:"raw,omitempty"`
}

// EmissionFactor is a single Climatiq search result
type EmissionFactor struct {
	ActivityID  string   `json:"activity_id"`
	ID          string   `json:"id,omitempty"`
	Name        string   `json:"name,omitempty"`
	Category    string   `json:"category,omitempty"`
	Sector      string   `json:"sector,omitempty"`
	Source      string   `json:"source,omitempty"`
	Region      string   `json:"region,omitempty"`
	Year        int      `json:"year,omitempty"`
	UnitType    string   `json:"unit_type,omitempty"`
	Unit        string   `json:"unit,omitempty"`
	UnitTypes   []string `json:"unit_types,omitempty"`
	DataVersion string   `json:"data_version,omitempty"`
}

// ClimatiqSearchResponse represents the response from the Climatiq search API
type ClimatiqSearchResponse struct {
	CurrentPage     int              `json:"current_page"`
	LastPage        int              `json:"last_page"`
	TotalResults    int              `json:"total_results"`
	Results         []EmissionFactor `json:"results"`
	PossibleFilters interface{}      `json:"possible_filters,omitempty"`
}

// EstimateParameters are the activity parameters sent to the estimate endpoint
type EstimateParameters struct {
	Weight     float64 `json:"weight"`
	WeightUnit string  `json:"weight_unit"`
}

// ClimatiqEstimateResponse represents the response from the Climatiq estimate API.
// Payload keeps the full decoded body for debug output.
type ClimatiqEstimateResponse struct {
	CO2e     float64                `json:"co2e"`
	CO2eUnit string                 `json:"co2e_unit"`
	Payload  map[string]interface{} `json:"-"`
}
