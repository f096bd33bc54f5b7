package analysis

import (
	"fmt"
	"math"

	"dealgrade/server/internal/models"
)

// BRRRR evaluates buy, rehab, rent and a cash-out refinance for every
// wholesale rule. Cash-on-cash is undefined when no cash is left in the deal.
// The best scenario recovers the largest share of the investment.
func BRRRR(d Deal, a Assumptions) models.StrategySet {
	t := a.BRRRR
	set := models.StrategySet{Strategy: models.StrategyBRRRR}
	rent := d.Rental.RentAverage
	refi := d.Value.ARV * t.RefiLTV

	for _, acq := range acquisitions(d) {
		totalInvestment := acq.Price + d.Rehab.Total
		recovered := math.Min(refi, totalInvestment)
		left := math.Max(0, totalInvestment-recovered)
		recovery := models.NewRatio(recovered, totalInvestment)

		mortgage := refi * a.InterestRatePct / 100 / 12
		cashFlow := rent - (mortgage + rent*t.ExpenseRatio)
		annual := cashFlow * 12
		cashOnCash := models.NewRatio(annual, left)

		detail := &models.BRRRRDetail{
			RehabCost:         d.Rehab.Total,
			TotalInvestment:   totalInvestment,
			RefiAmount:        refi,
			CashRecovered:     recovered,
			CashLeftInDeal:    left,
			RecoveryPct:       recovery,
			MonthlyMortgage:   mortgage,
			AnnualCashFlow:    annual,
			CashOnCash:        cashOnCash,
			PropertiesPerYear: dealsPerYear(recovery, t),
		}
		s := models.StrategyScenario{
			Strategy:        models.StrategyBRRRR,
			Name:            ruleName(acq.Rule),
			RulePct:         acq.Rule,
			PurchasePrice:   acq.Price,
			RequiredCapital: totalInvestment,
			Profit:          annual,
			MonthlyCashFlow: cashFlow,
			ROI:             cashOnCash,
			AnnualROI:       cashOnCash,
			RiskTier:        models.RiskMediumHigh,
			Timeline:        fmt.Sprintf("%d months to refinance", a.HoldingPeriodMonths),
			BRRRR:           detail,
		}
		if acq.Negative {
			exclude(&s)
		}
		set.Scenarios = append(set.Scenarios, s)
	}

	finalize(&set, func(x, y *models.StrategyScenario) bool {
		return x.BRRRR.RecoveryPct.Greater(y.BRRRR.RecoveryPct)
	})
	return set
}

func dealsPerYear(recovery models.Ratio, t BRRRRTable) int {
	switch {
	case recovery.Undefined:
		return 1
	case recovery.Value > t.FastRecovery:
		return t.FastDealsPerYear
	case recovery.Value > t.ModerateRecovery:
		return t.ModerateDealsPerYear
	default:
		return 1
	}
}
