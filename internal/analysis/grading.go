package analysis

import (
	"math"

	"dealgrade/server/internal/models"
)

// Grade scores a deal out of 100 from the wholesale profit margin at the
// primary rule, location quality, market conditions and property condition.
func Grade(attrs models.PropertyAttributes, value models.ValueEstimate, margin models.Ratio, market models.ResolvedMarket, n resolvedNeighborhood, g GradingTable) models.DealGrade {
	profit := profitPoints(margin, g)

	location := tierPoints(n.School, g.SchoolTiers, g.SchoolFloor, false) +
		tierPoints(n.Crime, g.CrimeTiers, g.CrimeFloor, false) +
		tierPoints(n.Growth, g.GrowthTiers, g.GrowthFloor, true)

	marketPts := g.TrendFloor
	if pts, ok := g.TrendPoints[market.Trend]; ok {
		marketPts = pts
	}
	if market.InventoryLevel == models.InventoryLow {
		marketPts += g.LowInventoryPoints
	} else {
		marketPts += g.InventoryFloor
	}
	dom := market.DaysOnMarket
	if attrs.DaysOnMarket != nil {
		dom = *attrs.DaysOnMarket
	}
	if dom > g.StaleListingDays {
		marketPts += g.StaleListingPoints
	}

	conditionScore := g.ConditionScores[attrs.Condition]
	if attrs.ConditionScore != nil {
		conditionScore = *attrs.ConditionScore
	}
	condition := conditionScore * g.ConditionWeight

	score := math.Max(0, math.Min(100, profit+location+marketPts+condition))
	letter := LetterFor(score, g)

	confidence := score
	if g.ConfidenceDivisor != 0 {
		confidence += (value.Confidence - g.ConfidenceBaseline) / g.ConfidenceDivisor
	}
	confidence = math.Max(g.ConfidenceMin, math.Min(g.ConfidenceMax, confidence))

	return models.DealGrade{
		Letter:              letter,
		Score:               score,
		RecommendedStrategy: g.Labels[letter],
		Confidence:          confidence,
		Components: []models.ScoreComponent{
			{Name: "profit_margin", Points: profit, Max: 35},
			{Name: "location", Points: location, Max: 25},
			{Name: "market", Points: marketPts, Max: 20},
			{Name: "condition", Points: condition, Max: 20},
		},
	}
}

// LetterFor maps a score to its grade letter.
func LetterFor(score float64, g GradingTable) string {
	switch {
	case score >= g.GradeA:
		return "A"
	case score >= g.GradeB:
		return "B"
	case score >= g.GradeC:
		return "C"
	default:
		return "D"
	}
}

// profitPoints takes margin as a fraction and scores it in percent.
func profitPoints(margin models.Ratio, g GradingTable) float64 {
	if margin.Undefined {
		return 0
	}
	pct := margin.Value * 100
	for _, tier := range g.ProfitTiers {
		if pct >= tier.Min {
			return tier.Points
		}
	}
	return math.Max(0, math.Min(g.ProfitMax, pct*g.ProfitBelowFactor))
}

// tierPoints returns the points of the first tier v reaches, tiers ordered
// from highest. strict requires v to exceed the tier minimum.
func tierPoints(v float64, tiers []ScoreTier, floor float64, strict bool) float64 {
	for _, tier := range tiers {
		if v > tier.Min || (!strict && v == tier.Min) {
			return tier.Points
		}
	}
	return floor
}
