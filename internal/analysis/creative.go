package analysis

import (
	"dealgrade/server/internal/models"
)

// CreativeFinance evaluates subject-to, seller financing, lease option and
// wrap-around structures against the list price. The best has the highest ROI.
func CreativeFinance(d Deal, a Assumptions) models.StrategySet {
	t := a.Creative
	rent := d.Rental.RentAverage
	price := d.Property.ListPrice
	set := models.StrategySet{Strategy: models.StrategyCreative, Disclaimer: t.Disclaimer}

	subjectToPayment := price * t.SubjectToPaymentRate
	if d.Property.ExistingMortgagePayment != nil {
		subjectToPayment = *d.Property.ExistingMortgagePayment
	}
	set.Scenarios = append(set.Scenarios, creativeScenario("subject_to", models.RiskHigh,
		models.CreativeDetail{
			MonthlyPayment:    subjectToPayment,
			InitialInvestment: t.SubjectToInitial,
			Legality:          "Gray area - consult attorney",
		},
		rent-subjectToPayment-rent*t.SubjectToExpenseRatio, price))

	sellerDown := price * t.SellerFinanceDownPct
	sellerPayment := (price - sellerDown) * t.SellerFinanceRate
	set.Scenarios = append(set.Scenarios, creativeScenario("seller_finance", models.RiskMedium,
		models.CreativeDetail{
			DownPayment:       sellerDown,
			MonthlyPayment:    sellerPayment,
			InitialInvestment: sellerDown + t.SellerFinanceClosing,
			Legality:          "Legal with proper documentation",
		},
		rent-sellerPayment-rent*t.SubjectToExpenseRatio, price))

	leasePayment := rent * t.LeaseOptionRentRatio
	set.Scenarios = append(set.Scenarios, creativeScenario("lease_option", models.RiskMedium,
		models.CreativeDetail{
			DownPayment:       t.LeaseOptionFee,
			MonthlyPayment:    leasePayment,
			InitialInvestment: t.LeaseOptionFee + t.LeaseOptionClosing,
			Legality:          "Legal with proper contracts",
		},
		rent-leasePayment, price))

	wrapDown := price * t.WrapDownPct
	wrapped := price - wrapDown
	spread := wrapped * (t.WrapRate - t.WrapUnderlyingRate) / 12
	set.Scenarios = append(set.Scenarios, creativeScenario("wrap_mortgage", models.RiskHigh,
		models.CreativeDetail{
			DownPayment:       wrapDown,
			MonthlyPayment:    wrapped * t.WrapUnderlyingRate / 12,
			MonthlySpread:     spread,
			InitialInvestment: wrapDown + t.WrapClosing,
			Legality:          "Complex - attorney required",
		},
		spread, price))

	finalize(&set, func(x, y *models.StrategyScenario) bool {
		return x.ROI.Greater(y.ROI)
	})
	return set
}

func creativeScenario(name string, tier models.RiskTier, detail models.CreativeDetail, cashFlow, price float64) models.StrategyScenario {
	roi := models.NewRatio(cashFlow*12, detail.InitialInvestment)
	return models.StrategyScenario{
		Strategy:        models.StrategyCreative,
		Name:            name,
		PurchasePrice:   price,
		RequiredCapital: detail.InitialInvestment,
		Profit:          cashFlow * 12,
		MonthlyCashFlow: cashFlow,
		ROI:             roi,
		AnnualROI:       roi,
		RiskTier:        tier,
		Timeline:        "30-60 days to close",
		Creative:        &detail,
	}
}
