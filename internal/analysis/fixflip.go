package analysis

import (
	"fmt"

	"dealgrade/server/internal/models"
)

// FixFlip evaluates a purchase, rehab and resale for every wholesale rule.
// The best scenario has the highest annualized ROI.
func FixFlip(d Deal, a Assumptions) models.StrategySet {
	t := a.FixFlip
	months := a.HoldingPeriodMonths
	set := models.StrategySet{Strategy: models.StrategyFixFlip}

	for _, acq := range acquisitions(d) {
		totalInvestment := acq.Price + d.Rehab.Total
		holding := totalInvestment * t.MonthlyHoldingRate * float64(months)
		selling := d.Value.ARV * t.SellingCostRate
		contingency := d.Rehab.Total * t.ContingencyRate
		gross := d.Value.ARV - (totalInvestment + holding + selling + contingency)

		roi := models.NewRatio(gross, totalInvestment)
		annual := models.Ratio{Undefined: true}
		if months > 0 {
			annual = roi.Scale(12 / float64(months))
		}

		s := models.StrategyScenario{
			Strategy:        models.StrategyFixFlip,
			Name:            ruleName(acq.Rule),
			RulePct:         acq.Rule,
			PurchasePrice:   acq.Price,
			RequiredCapital: totalInvestment + holding,
			Profit:          gross,
			ROI:             roi,
			AnnualROI:       annual,
			RiskTier:        models.RiskMediumHigh,
			Timeline:        fmt.Sprintf("%d months", months),
			FixFlip: &models.FixFlipDetail{
				RehabCost:       d.Rehab.Total,
				TotalInvestment: totalInvestment,
				HoldingCosts:    holding,
				SellingCosts:    selling,
				Contingency:     contingency,
				GrossProfit:     gross,
				HoldingMonths:   months,
			},
		}
		if acq.Negative {
			exclude(&s)
		}
		set.Scenarios = append(set.Scenarios, s)
	}

	finalize(&set, func(x, y *models.StrategyScenario) bool {
		return x.AnnualROI.Greater(y.AnnualROI)
	})
	return set
}
