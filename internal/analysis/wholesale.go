package analysis

import (
	"fmt"
	"math"

	"dealgrade/server/internal/models"
)

// MaxAllowableOffer applies one rule: ARV x rule - rehab, clamped at zero.
func MaxAllowableOffer(arv, rehabTotal, rule float64) models.MaxOffer {
	raw := arv*rule - rehabTotal
	offer := math.Max(0, raw)
	return models.MaxOffer{
		RulePct:       rule,
		RawOffer:      raw,
		MaxOffer:      offer,
		ProfitMargin:  models.NewRatio(arv-offer, arv),
		LowConfidence: raw < 0,
	}
}

// Wholesale computes the max offer for every rule and the assignment-fee
// scenarios. The best scenario has the highest ROI.
func Wholesale(value models.ValueEstimate, rehab models.RehabEstimate, a Assumptions) models.WholesaleAnalysis {
	t := a.Wholesale
	out := models.WholesaleAnalysis{
		StrategySet: models.StrategySet{Strategy: models.StrategyWholesale},
		Offers:      make([]models.MaxOffer, 0, len(a.WholesaleRules)),
	}
	for _, rule := range a.WholesaleRules {
		o := MaxAllowableOffer(value.ARV, rehab.Total, rule)
		if o.LowConfidence {
			out.Flags = append(out.Flags, fmt.Sprintf("max offer at %s is negative, clamped to zero", ruleName(rule)))
		}
		out.Offers = append(out.Offers, o)
	}

	primary, _ := out.OfferAt(a.PrimaryRule())
	costs := t.FixedCosts()
	for _, fee := range t.AssignmentFees {
		net := fee - costs
		s := models.StrategyScenario{
			Strategy:        models.StrategyWholesale,
			Name:            fmt.Sprintf("$%.0f assignment fee", fee),
			RulePct:         primary.RulePct,
			PurchasePrice:   primary.MaxOffer,
			RequiredCapital: costs,
			Profit:          net,
			ROI:             models.NewRatio(net, costs),
			RiskTier:        models.RiskLow,
			Timeline:        assignmentTimeline(fee, t),
			Wholesale: &models.AssignmentDetail{
				AssignmentFee:   fee,
				MarketingCosts:  t.MarketingCosts,
				LegalCosts:      t.LegalCosts,
				InspectionCosts: t.InspectionCosts,
				EarnestMoney:    t.EarnestMoney,
				TotalCosts:      costs,
				Difficulty:      assignmentDifficulty(fee, t),
			},
		}
		s.AnnualROI = s.ROI
		if primary.LowConfidence {
			exclude(&s)
		}
		out.Scenarios = append(out.Scenarios, s)
	}

	finalize(&out.StrategySet, func(x, y *models.StrategyScenario) bool {
		return x.ROI.Greater(y.ROI)
	})
	return out
}

func assignmentTimeline(fee float64, t WholesaleTable) string {
	switch {
	case fee <= t.FastTimelineMaxFee:
		return "7-14 days"
	case fee <= t.MidTimelineMaxFee:
		return "14-21 days"
	default:
		return "21-30 days"
	}
}

func assignmentDifficulty(fee float64, t WholesaleTable) string {
	switch {
	case fee <= t.EasyMaxFee:
		return "Easy"
	case fee <= t.MediumMaxFee:
		return "Medium"
	default:
		return "Hard"
	}
}
