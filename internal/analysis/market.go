package analysis

import "dealgrade/server/internal/models"

// ResolveMarket fills absent or unusable snapshot fields from the defaults.
// A nil snapshot is allowed. Every substituted field is returned as a
// MissingMarketDataError.
func ResolveMarket(snap *models.MarketSnapshot, d MarketDefaults) (models.ResolvedMarket, []error) {
	if snap == nil {
		snap = &models.MarketSnapshot{}
	}

	var missing []error
	note := func(field string) {
		missing = append(missing, &MissingMarketDataError{Field: field})
	}

	m := models.ResolvedMarket{InventoryMonths: snap.InventoryMonths}

	if snap.MedianPrice != nil && *snap.MedianPrice > 0 {
		m.MedianPrice = *snap.MedianPrice
	} else {
		m.MedianPrice = d.MedianPrice
		note("median_price")
	}
	if snap.RentPerSqft != nil && *snap.RentPerSqft >= 0 {
		m.RentPerSqft = *snap.RentPerSqft
	} else {
		m.RentPerSqft = d.RentPerSqft
		note("rent_per_sqft")
	}
	if snap.AppreciationRate != nil {
		m.AppreciationRate = *snap.AppreciationRate
	} else {
		m.AppreciationRate = d.AppreciationRate
		note("appreciation_rate")
	}
	if snap.TaxRate != nil && *snap.TaxRate >= 0 {
		m.TaxRate = *snap.TaxRate
	} else {
		m.TaxRate = d.TaxRate
		note("tax_rate")
	}
	if snap.InventoryLevel != nil && *snap.InventoryLevel != "" {
		m.InventoryLevel = *snap.InventoryLevel
	} else {
		m.InventoryLevel = d.InventoryLevel
		note("inventory_level")
	}
	if snap.Trend != nil && *snap.Trend != "" {
		m.Trend = *snap.Trend
	} else {
		m.Trend = d.Trend
		note("trend")
	}
	if snap.DaysOnMarket != nil && *snap.DaysOnMarket >= 0 {
		m.DaysOnMarket = *snap.DaysOnMarket
	} else {
		m.DaysOnMarket = d.DaysOnMarket
		note("days_on_market")
	}

	for _, err := range missing {
		m.Defaulted = append(m.Defaulted, err.(*MissingMarketDataError).Field)
	}
	return m, missing
}

// resolvedNeighborhood carries neighborhood inputs with defaults applied.
type resolvedNeighborhood struct {
	School float64
	Crime  float64
	Growth float64
}

func resolveNeighborhood(n *models.Neighborhood, g GradingTable) resolvedNeighborhood {
	r := resolvedNeighborhood{School: g.DefaultSchool, Crime: g.DefaultCrime, Growth: g.DefaultGrowth}
	if n == nil {
		return r
	}
	if n.SchoolRating != nil {
		r.School = *n.SchoolRating
	}
	if n.CrimeScore != nil {
		r.Crime = *n.CrimeScore
	}
	if n.GrowthRate != nil {
		r.Growth = *n.GrowthRate
	}
	return r
}
