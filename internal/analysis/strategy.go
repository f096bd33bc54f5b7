package analysis

import (
	"fmt"
	"math"

	"dealgrade/server/internal/models"
)

// Deal is the shared input of the strategy calculators, produced by the
// estimators and the wholesale offers.
type Deal struct {
	Property models.PropertyAttributes
	Market   models.ResolvedMarket
	Value    models.ValueEstimate
	Rehab    models.RehabEstimate
	Rental   models.RentalEstimate
	Offers   []models.MaxOffer
}

// EvaluateStrategies runs all five calculators.
func EvaluateStrategies(d Deal, a Assumptions) models.StrategyResults {
	wholesale := Wholesale(d.Value, d.Rehab, a)
	d.Offers = wholesale.Offers
	return models.StrategyResults{
		Wholesale: wholesale,
		FixFlip:   FixFlip(d, a),
		BuyHold:   BuyHold(d, a),
		BRRRR:     BRRRR(d, a),
		Creative:  CreativeFinance(d, a),
	}
}

// acquisition is the purchase price a rule-based strategy would pay. A
// negative raw offer means the deal does not work at that rule.
type acquisition struct {
	Rule     float64
	Price    float64
	Negative bool
}

func acquisitions(d Deal) []acquisition {
	out := make([]acquisition, 0, len(d.Offers))
	for _, o := range d.Offers {
		if o.RawOffer < 0 {
			out = append(out, acquisition{Rule: o.RulePct, Price: o.RawOffer, Negative: true})
			continue
		}
		out = append(out, acquisition{Rule: o.RulePct, Price: math.Min(d.Property.ListPrice, o.RawOffer)})
	}
	return out
}

func ruleName(rule float64) string {
	return fmt.Sprintf("%.0f%% rule", rule*100)
}

func exclude(s *models.StrategyScenario) {
	s.Excluded = true
	s.Flags = append(s.Flags, models.FlagNegativePurchasePrice)
}

// finalize selects the best non-excluded scenario with better and records
// set-level flags.
func finalize(set *models.StrategySet, better func(a, b *models.StrategyScenario) bool) {
	var excluded int
	for i := range set.Scenarios {
		s := &set.Scenarios[i]
		if s.Excluded {
			excluded++
			continue
		}
		if set.Best == nil || better(s, set.Best) {
			set.Best = s
		}
	}
	if excluded > 0 {
		set.Flags = append(set.Flags, fmt.Sprintf("%d scenario(s) excluded: %s", excluded, models.FlagNegativePurchasePrice))
	}
	if set.Best != nil {
		best := *set.Best
		set.Best = &best
	}
}
