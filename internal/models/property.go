package models

// Condition is the declared physical condition of a property.
type Condition string

const (
	ConditionExcellent  Condition = "excellent"
	ConditionGood       Condition = "good"
	ConditionFair       Condition = "fair"
	ConditionPoor       Condition = "poor"
	ConditionNeedsRehab Condition = "needs_rehab"
)

// Conditions lists every recognized condition from best to worst.
var Conditions = []Condition{
	ConditionExcellent,
	ConditionGood,
	ConditionFair,
	ConditionPoor,
	ConditionNeedsRehab,
}

// Valid reports whether c is one of the recognized conditions.
func (c Condition) Valid() bool {
	for _, known := range Conditions {
		if c == known {
			return true
		}
	}
	return false
}

const (
	PropertyTypeSingleFamily = "single_family"
	PropertyTypeMultiFamily  = "multi_family"
	PropertyTypeTownhouse    = "townhouse"
	PropertyTypeCondo        = "condo"
)

// Location is an optional WGS84 position used for geography matching.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// PropertyAttributes is the raw, immutable input of one analysis.
type PropertyAttributes struct {
	ID           string    `json:"id"`
	City         string    `json:"city"`
	State        string    `json:"state"`
	PropertyType string    `json:"property_type"`
	Bedrooms     int       `json:"bedrooms"`
	Bathrooms    float64   `json:"bathrooms"`
	LivingArea   float64   `json:"living_area"`
	YearBuilt    int       `json:"year_built"`
	ListPrice    float64   `json:"list_price"`
	Condition    Condition `json:"condition"`
	DaysOnMarket *int      `json:"days_on_market,omitempty"`

	// ConditionScore overrides the 0-100 score derived from Condition.
	ConditionScore *float64 `json:"condition_score,omitempty"`

	// Monthly HOA fee.
	HOAFee *float64 `json:"hoa_fee,omitempty"`
	// Annual property tax; derived from the market tax rate when absent.
	AnnualPropertyTax *float64 `json:"annual_property_tax,omitempty"`
	// Existing monthly mortgage payment, used by subject-to financing.
	ExistingMortgagePayment *float64 `json:"existing_mortgage_payment,omitempty"`

	Location *Location `json:"location,omitempty"`
}

// PricePerSqft returns list price over living area, or 0 when the area is unknown.
func (p *PropertyAttributes) PricePerSqft() float64 {
	if p.LivingArea <= 0 {
		return 0
	}
	return p.ListPrice / p.LivingArea
}
