package analysis

import (
	"dealgrade/server/internal/models"
)

// EstimateRental derives the rent band and the monthly operating expenses.
// Management and vacancy use the top-level assumption rates.
func EstimateRental(attrs models.PropertyAttributes, market models.ResolvedMarket, a Assumptions) models.RentalEstimate {
	band := a.Rental.ConditionBands[attrs.Condition]

	base := attrs.LivingArea * market.RentPerSqft
	if base < 0 {
		base = 0
	}
	est := models.RentalEstimate{
		BaseRent: base,
		RentLow:  base * band.Low,
		RentHigh: base * band.High,
	}
	est.RentAverage = (est.RentLow + est.RentHigh) / 2
	if attrs.LivingArea > 0 {
		est.RentPerSqft = est.RentAverage / attrs.LivingArea
	}

	avg := est.RentAverage
	exp := models.OperatingExpenses{
		PropertyManagement: avg * a.ManagementFeePct / 100,
		Maintenance:        avg * a.Rental.MaintenancePct / 100,
		Vacancy:            avg * a.VacancyRatePct / 100,
		Insurance:          avg * a.Rental.InsurancePct / 100,
		Misc:               avg * a.Rental.MiscPct / 100,
	}
	exp.Total = exp.PropertyManagement + exp.Maintenance + exp.Vacancy + exp.Insurance + exp.Misc
	est.Expenses = exp

	est.NetCashFlowLow = est.RentLow - exp.Total
	est.NetCashFlowHigh = est.RentHigh - exp.Total
	return est
}
