package models

type MarketTrend string

const (
	TrendHot     MarketTrend = "hot"
	TrendWarm    MarketTrend = "warm"
	TrendNeutral MarketTrend = "neutral"
	TrendCool    MarketTrend = "cool"
)

type InventoryLevel string

const (
	InventoryLow    InventoryLevel = "low"
	InventoryNormal InventoryLevel = "normal"
	InventoryHigh   InventoryLevel = "high"
)

// MarketSnapshot is supplied by an external market-data provider. Every field
// is optional; absent fields fall back to documented defaults.
type MarketSnapshot struct {
	State            string          `json:"state,omitempty"`
	City             string          `json:"city,omitempty"`
	MedianPrice      *float64        `json:"median_price,omitempty"`
	RentPerSqft      *float64        `json:"rent_per_sqft,omitempty"`
	AppreciationRate *float64        `json:"appreciation_rate,omitempty"`
	TaxRate          *float64        `json:"tax_rate,omitempty"`
	InventoryLevel   *InventoryLevel `json:"inventory_level,omitempty"`
	InventoryMonths  *float64        `json:"inventory_months,omitempty"`
	Trend            *MarketTrend    `json:"trend,omitempty"`
	DaysOnMarket     *int            `json:"days_on_market,omitempty"`
}

// ResolvedMarket is a MarketSnapshot with every default applied.
type ResolvedMarket struct {
	MedianPrice      float64        `json:"median_price"`
	RentPerSqft      float64        `json:"rent_per_sqft"`
	AppreciationRate float64        `json:"appreciation_rate"`
	TaxRate          float64        `json:"tax_rate"`
	InventoryLevel   InventoryLevel `json:"inventory_level"`
	InventoryMonths  *float64       `json:"inventory_months,omitempty"`
	Trend            MarketTrend    `json:"trend"`
	DaysOnMarket     int            `json:"days_on_market"`

	// Defaulted names the snapshot fields that were filled from defaults.
	Defaulted []string `json:"defaulted,omitempty"`
}

// Neighborhood carries location-quality inputs for grading and risk.
type Neighborhood struct {
	Name         string   `json:"name,omitempty"`
	SchoolRating *float64 `json:"school_rating,omitempty"` // 0-10
	CrimeScore   *float64 `json:"crime_score,omitempty"`   // 0-100, higher is safer
	GrowthRate   *float64 `json:"growth_rate,omitempty"`   // annual fraction
}

// Comparable is a recent nearby sale.
type Comparable struct {
	Address      string  `json:"address,omitempty"`
	Price        float64 `json:"price,omitempty"`
	LivingArea   float64 `json:"living_area,omitempty"`
	PricePerSqft float64 `json:"price_per_sqft"`
	DaysAgo      int     `json:"days_ago,omitempty"`
}
