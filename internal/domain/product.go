package domain

// Default values applied to extracted products
const (
	DefaultRegion   = "global"
	DefaultQuantity = 1
)

// ProductInfo describes the object identified in an uploaded photo
type ProductInfo struct {
	Name     string   `json:"name"`
	Category string   `json:"category,omitempty"`
	Material string   `json:"material,omitempty"`
	WeightKg *float64 `json:"weight_kg,omitempty"`
	Quantity int      `json:"quantity"`
	Region   string   `json:"region"`
	Brand    string   `json:"brand,omitempty"`
}

// Normalize applies defaults so that Quantity >= 1 and Region is never empty
func (p *ProductInfo) Normalize() {
	if p.Quantity < 1 {
		p.Quantity = DefaultQuantity
	}
	if p.Region == "" {
		p.Region = DefaultRegion
	}
	if p.WeightKg != nil && *p.WeightKg < 0 {
		p.WeightKg = nil
	}
}

// TotalWeightKg returns weight_kg * quantity, or 0 when the weight is unknown
func (p *ProductInfo) TotalWeightKg() float64 {
	if p.WeightKg == nil {
		return 0
	}
	q := p.Quantity
	if q < 1 {
		q = DefaultQuantity
	}
	return *p.WeightKg * float64(q)
}

// Float64 returns a pointer to v
func Float64(v float64) *float64 {
	return &v
}
