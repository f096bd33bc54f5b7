package analysis

import (
	"fmt"

	"dealgrade/server/internal/models"
)

// Input is everything one analysis needs. Only Property is required.
type Input struct {
	Property     models.PropertyAttributes `json:"property"`
	Market       *models.MarketSnapshot    `json:"market,omitempty"`
	Neighborhood *models.Neighborhood      `json:"neighborhood,omitempty"`
	Comparables  []models.Comparable       `json:"comparables,omitempty"`
	Buyers       []models.BuyerProfile     `json:"buyers,omitempty"`

	// OfferPrice is the price offered to buyers; defaults to the max offer
	// at the primary wholesale rule.
	OfferPrice *float64 `json:"offer_price,omitempty"`

	// Assumptions replaces the analyzer defaults for this call. Callers
	// that accept partial overrides start from Analyzer.Assumptions.
	Assumptions *Assumptions `json:"assumptions,omitempty"`
}

// Analyzer runs the full pipeline with a fixed set of default assumptions.
// It holds no mutable state and is safe for concurrent use.
type Analyzer struct {
	defaults Assumptions
}

func NewAnalyzer(defaults Assumptions) (*Analyzer, error) {
	if err := defaults.Validate(); err != nil {
		return nil, err
	}
	return &Analyzer{defaults: defaults}, nil
}

// Assumptions returns a copy of the defaults in effect.
func (a *Analyzer) Assumptions() Assumptions {
	return a.defaults.Clone()
}

// Analyze validates the input and runs every component in order. It returns
// either a complete result or an error; a ValidationError means nothing was
// computed.
func (a *Analyzer) Analyze(in Input) (*models.AnalysisResult, error) {
	assume := a.defaults
	if in.Assumptions != nil {
		assume = *in.Assumptions
		if err := assume.Validate(); err != nil {
			return nil, err
		}
	}

	attrs, err := NormalizeProperty(in.Property, assume.ValuationYear)
	if err != nil {
		return nil, err
	}

	market, missing := ResolveMarket(in.Market, assume.Market)
	warnings := make([]string, 0, len(missing))
	for _, m := range missing {
		warnings = append(warnings, m.Error())
	}

	value, err := EstimateValue(attrs, in.Comparables, len(missing), assume.Value)
	if err != nil {
		return nil, err
	}
	rehab, err := EstimateRehab(attrs, assume.ValuationYear, assume.Rehab)
	if err != nil {
		return nil, err
	}
	rental := EstimateRental(attrs, market, assume)

	strategies := EvaluateStrategies(Deal{
		Property: attrs,
		Market:   market,
		Value:    value,
		Rehab:    rehab,
		Rental:   rental,
	}, assume)
	for _, set := range []models.StrategySet{
		strategies.Wholesale.StrategySet,
		strategies.FixFlip,
		strategies.BuyHold,
		strategies.BRRRR,
		strategies.Creative,
	} {
		for _, flag := range set.Flags {
			warnings = append(warnings, fmt.Sprintf("%s: %s", set.Strategy, flag))
		}
	}

	neighborhood := resolveNeighborhood(in.Neighborhood, assume.Grading)
	primary, _ := strategies.Wholesale.OfferAt(assume.PrimaryRule())

	result := &models.AnalysisResult{
		Property:   attrs,
		Market:     market,
		Value:      value,
		Rehab:      rehab,
		Rental:     rental,
		Strategies: strategies,
		Risk:       AnalyzeRisk(attrs, market, neighborhood, primaryScenario(strategies.FixFlip, assume.PrimaryRule()), assume.Risk),
		Grade:      Grade(attrs, value, primary.ProfitMargin, market, neighborhood, assume.Grading),
	}

	if len(in.Buyers) > 0 {
		offer := primary.MaxOffer
		if in.OfferPrice != nil {
			offer = *in.OfferPrice
		}
		result.Matches = MatchBuyers(attrs, offer, in.Buyers, assume.Matching)
	}
	if len(warnings) > 0 {
		result.Warnings = warnings
	}
	return result, nil
}

// Match ranks buyers against a previously computed result.
func (a *Analyzer) Match(result *models.AnalysisResult, buyers []models.BuyerProfile, offerPrice *float64) []models.MatchResult {
	offer, _ := result.Strategies.Wholesale.OfferAt(a.defaults.PrimaryRule())
	price := offer.MaxOffer
	if offerPrice != nil {
		price = *offerPrice
	}
	return MatchBuyers(result.Property, price, buyers, a.defaults.Matching)
}
