package analysis

import (
	"strings"

	"dealgrade/server/internal/models"
)

// EstimateValue derives the after-repair value. With comparables the ARV is
// the mean comparable price per sqft times the living area; otherwise the list
// price is scaled by the state's market multiplier. missingFields lowers the
// confidence by the configured penalty each.
func EstimateValue(attrs models.PropertyAttributes, comps []models.Comparable, missingFields int, t ValueTable) (models.ValueEstimate, error) {
	if attrs.LivingArea <= 0 {
		return models.ValueEstimate{}, &ValidationError{Field: "living_area", Reason: "must be greater than zero"}
	}

	est := models.ValueEstimate{
		PricePerSqft: attrs.PricePerSqft(),
	}

	usable := usableComps(comps)
	switch {
	case len(usable) > 0:
		var sum float64
		for _, c := range usable {
			sum += c.PricePerSqft
		}
		avg := sum / float64(len(usable))
		est.Method = models.ValueMethodComparables
		est.ComparableCount = len(usable)
		est.AvgCompPricePerSqft = avg
		est.ARV = avg * attrs.LivingArea
		est.Confidence = t.ConfidenceFewComps
		if len(usable) >= t.ManyCompsThreshold {
			est.Confidence = t.ConfidenceManyComps
		}
	default:
		multiplier, known := t.StateMultipliers[strings.ToUpper(attrs.State)]
		est.Confidence = t.ConfidenceKnownMarket
		if !known {
			multiplier = t.DefaultMultiplier
			est.Confidence = t.ConfidenceDefaultMarket
		}
		est.Method = models.ValueMethodMarketMultiplier
		est.Multiplier = multiplier
		est.ARV = attrs.ListPrice * multiplier
	}

	est.Confidence -= float64(missingFields) * t.MissingFieldPenalty
	if est.Confidence < t.MinConfidence {
		est.Confidence = t.MinConfidence
	}
	return est, nil
}

// usableComps drops comparables without a positive price per sqft, deriving
// it from price and area when only those were supplied.
func usableComps(comps []models.Comparable) []models.Comparable {
	out := make([]models.Comparable, 0, len(comps))
	for _, c := range comps {
		if c.PricePerSqft <= 0 && c.Price > 0 && c.LivingArea > 0 {
			c.PricePerSqft = c.Price / c.LivingArea
		}
		if c.PricePerSqft > 0 {
			out = append(out, c)
		}
	}
	return out
}
