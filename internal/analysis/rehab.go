package analysis

import (
	"fmt"

	"dealgrade/server/internal/models"
)

// AgeMultiplier picks the multiplier of the first band whose max age covers age.
func AgeMultiplier(age int, t RehabTable) float64 {
	for _, band := range t.AgeBands {
		if age <= band.MaxAge {
			return band.Multiplier
		}
	}
	return t.OldestMultiplier
}

// EstimateRehab prices the rehabilitation budget from size, condition and age.
func EstimateRehab(attrs models.PropertyAttributes, valuationYear int, t RehabTable) (models.RehabEstimate, error) {
	if attrs.LivingArea <= 0 {
		return models.RehabEstimate{}, &ValidationError{Field: "living_area", Reason: "must be greater than zero"}
	}
	costPerSqft, ok := t.CostPerSqft[attrs.Condition]
	if !ok {
		return models.RehabEstimate{}, fmt.Errorf("%w: no rehab cost for condition %q", ErrInvalidAssumptions, attrs.Condition)
	}

	age := valuationYear - attrs.YearBuilt
	if age < 0 {
		age = 0
	}
	multiplier := AgeMultiplier(age, t)

	subtotal := attrs.LivingArea * costPerSqft * multiplier
	contingency := subtotal * t.ContingencyRate
	est := models.RehabEstimate{
		BaseCostPerSqft: costPerSqft,
		AgeYears:        age,
		AgeMultiplier:   multiplier,
		Subtotal:        subtotal,
		Contingency:     contingency,
		Total:           subtotal + contingency,
		Breakdown:       make([]models.CostItem, 0, len(t.Breakdown)),
	}
	est.CostPerSqft = est.Total / attrs.LivingArea

	for _, share := range t.Breakdown {
		amount := subtotal * share.Share
		est.Breakdown = append(est.Breakdown, models.CostItem{
			Category:   share.Category,
			Structural: share.Structural,
			Share:      share.Share,
			Amount:     amount,
		})
		if share.Structural {
			est.Structural += amount
		} else {
			est.Cosmetic += amount
		}
	}
	return est, nil
}
