package analysis

import (
	"fmt"
	"math"

	"dealgrade/server/internal/models"
)

const (
	RiskLevelLow    = "Low"
	RiskLevelMedium = "Medium"
	RiskLevelHigh   = "High"
)

// AnalyzeRisk applies the independent risk rules and sums their penalties
// into a score capped at 100. primaryFlip is the fix & flip scenario at the
// primary rule; nil or excluded counts as a thin margin.
func AnalyzeRisk(attrs models.PropertyAttributes, market models.ResolvedMarket, n resolvedNeighborhood, primaryFlip *models.StrategyScenario, t RiskTable) models.RiskReport {
	var items []models.RiskItem

	highInventory := market.InventoryLevel == models.InventoryHigh
	inventoryDesc := "High inventory level indicates a buyer's market"
	if market.InventoryMonths != nil && *market.InventoryMonths > t.InventoryMonthsThreshold {
		highInventory = true
		inventoryDesc = fmt.Sprintf("%.1f months of inventory indicates a buyer's market", *market.InventoryMonths)
	}
	if highInventory {
		items = append(items, models.RiskItem{
			Category:    "Market",
			Risk:        "High Inventory",
			Description: inventoryDesc,
			Impact:      models.ImpactHigh,
			Mitigation:  "Price aggressively, consider rent-ready condition",
			Penalty:     t.HighInventoryPenalty,
		})
	}

	if attrs.YearBuilt < t.OldConstructionYear {
		items = append(items, models.RiskItem{
			Category:    "Property",
			Risk:        "Older Construction",
			Description: fmt.Sprintf("Built in %d, potential for outdated systems, materials and code issues", attrs.YearBuilt),
			Impact:      models.ImpactMedium,
			Mitigation:  "Comprehensive inspection, extra rehab budget",
			Penalty:     t.OldConstructionPenalty,
		})
	}

	profit := math.Inf(-1)
	if primaryFlip != nil && !primaryFlip.Excluded {
		profit = primaryFlip.Profit
	}
	if profit < t.ThinMarginProfit {
		desc := "No viable purchase price at the primary rule"
		if !math.IsInf(profit, -1) {
			desc = fmt.Sprintf("Low profit potential of $%.0f", profit)
		}
		items = append(items, models.RiskItem{
			Category:    "Financial",
			Risk:        "Thin Margins",
			Description: desc,
			Impact:      models.ImpactHigh,
			Mitigation:  "Negotiate lower price or find cost savings",
			Penalty:     t.ThinMarginPenalty,
		})
	}

	if n.Crime < t.HighCrimeScore {
		items = append(items, models.RiskItem{
			Category:    "Location",
			Risk:        "High Crime Area",
			Description: fmt.Sprintf("Crime score of %.0f may affect resale and rental demand", n.Crime),
			Impact:      models.ImpactMedium,
			Mitigation:  "Target cash buyers, price for quick sale",
			Penalty:     t.HighCrimePenalty,
		})
	}

	if market.AppreciationRate < 0 || market.Trend == models.TrendCool {
		desc := "Cooling market trend"
		if market.AppreciationRate < 0 {
			desc = fmt.Sprintf("Market down %.1f%% year-over-year", math.Abs(market.AppreciationRate)*100)
		}
		items = append(items, models.RiskItem{
			Category:    "Timing",
			Risk:        "Declining Market",
			Description: desc,
			Impact:      models.ImpactHigh,
			Mitigation:  "Focus on cash flow, avoid speculation",
			Penalty:     t.DecliningMarketPenalty,
		})
	}

	var score float64
	for _, item := range items {
		score += item.Penalty
	}
	score = math.Min(100, score)

	report := models.RiskReport{Items: items, Score: score}
	switch {
	case score <= t.LowMax:
		report.Level = RiskLevelLow
		report.Recommendation = "Low risk opportunity"
	case score <= t.MediumMax:
		report.Level = RiskLevelMedium
		report.Recommendation = "Acceptable risk"
	default:
		report.Level = RiskLevelHigh
		report.Recommendation = "Proceed with caution"
	}
	if report.Items == nil {
		report.Items = []models.RiskItem{}
	}
	return report
}

// primaryScenario returns the scenario evaluated at rule, or nil.
func primaryScenario(set models.StrategySet, rule float64) *models.StrategyScenario {
	for i := range set.Scenarios {
		if set.Scenarios[i].RulePct == rule {
			return &set.Scenarios[i]
		}
	}
	return nil
}
