package domain

// AnalyzeRequest carries an uploaded image through the pipeline
type AnalyzeRequest struct {
	Image    []byte
	MimeType string
	Filename string
}

// AnalyzeImageResponse is the response body of POST /api/v1/analyze/image
type AnalyzeImageResponse struct {
	Product      ProductInfo            `json:"product"`
	Climatiq     *ClimatiqEstimate      `json:"climatiq,omitempty"`
	Alternatives []AlternativeItem      `json:"alternatives"`
	Debug        map[string]interface{} `json:"debug,omitempty"`
}
