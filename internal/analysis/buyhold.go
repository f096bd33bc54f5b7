package analysis

import (
	"math"

	"dealgrade/server/internal/models"
)

// BuyHold evaluates a financed long-term rental for every wholesale rule.
// The mortgage is interest-only. The best scenario has the highest
// cash-on-cash return.
func BuyHold(d Deal, a Assumptions) models.StrategySet {
	t := a.BuyHold
	set := models.StrategySet{Strategy: models.StrategyBuyHold}
	rent := d.Rental.RentAverage

	annualTax := d.Property.ListPrice * d.Market.TaxRate
	if d.Property.AnnualPropertyTax != nil {
		annualTax = *d.Property.AnnualPropertyTax
	}
	var hoa float64
	if d.Property.HOAFee != nil {
		hoa = *d.Property.HOAFee
	}

	for _, acq := range acquisitions(d) {
		price := acq.Price
		down := price * a.DownPaymentPct / 100
		loan := price - down

		costs := models.MonthlyCosts{
			Mortgage:    loan * a.InterestRatePct / 100 / 12,
			Taxes:       annualTax / 12,
			Insurance:   price * t.InsuranceRatePct / 100 / 12,
			HOA:         hoa,
			Maintenance: rent * t.MaintenancePct / 100,
			Vacancy:     rent * a.VacancyRatePct / 100,
			Management:  rent * a.ManagementFeePct / 100,
			CapEx:       rent * t.CapExPct / 100,
		}
		costs.Total = costs.Mortgage + costs.Taxes + costs.Insurance + costs.HOA +
			costs.Maintenance + costs.Vacancy + costs.Management + costs.CapEx

		cashFlow := rent - costs.Total
		annual := cashFlow * 12
		noi := annual + costs.Mortgage*12
		futureValue := price * math.Pow(1+a.AppreciationRatePct/100, float64(t.ProjectionYears))

		detail := &models.BuyHoldDetail{
			DownPayment:    down,
			LoanAmount:     loan,
			MonthlyRent:    rent,
			Costs:          costs,
			AnnualCashFlow: annual,
			CashOnCash:     models.NewRatio(annual, down),
			CapRate:        models.NewRatio(annual, price),
			NOI:            noi,
			NOICapRate:     models.NewRatio(noi, price),
			DSCR:           models.NewRatio(rent, costs.Mortgage),
			Year10Value:    futureValue,
			Year10Equity:   futureValue - loan*t.LoanBalanceFactor,
		}
		s := models.StrategyScenario{
			Strategy:        models.StrategyBuyHold,
			Name:            ruleName(acq.Rule),
			RulePct:         acq.Rule,
			PurchasePrice:   price,
			RequiredCapital: down,
			Profit:          annual,
			MonthlyCashFlow: cashFlow,
			ROI:             detail.CashOnCash,
			AnnualROI:       detail.CashOnCash,
			RiskTier:        models.RiskMedium,
			Timeline:        "long term",
			BuyHold:         detail,
		}
		if acq.Negative {
			exclude(&s)
		}
		set.Scenarios = append(set.Scenarios, s)
	}

	finalize(&set, func(x, y *models.StrategyScenario) bool {
		return x.BuyHold.CashOnCash.Greater(y.BuyHold.CashOnCash)
	})
	return set
}
