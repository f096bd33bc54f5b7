package analysis

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealgrade/server/internal/models"
)

func ptr[T any](v T) *T {
	return &v
}

func testAssumptions() Assumptions {
	return DefaultAssumptions().AsOf(2020)
}

func scenarioOneProperty() models.PropertyAttributes {
	return models.PropertyAttributes{
		ID:           "prop-1",
		City:         "Houston",
		State:        "TX",
		PropertyType: models.PropertyTypeSingleFamily,
		Bedrooms:     3,
		Bathrooms:    2,
		LivingArea:   1800,
		YearBuilt:    1995,
		ListPrice:    250000,
		Condition:    models.ConditionFair,
	}
}

func newTestAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	a, err := NewAnalyzer(testAssumptions())
	require.NoError(t, err)
	return a
}

func TestNewAnalyzer_RequiresValuationYear(t *testing.T) {
	_, err := NewAnalyzer(DefaultAssumptions())
	assert.ErrorIs(t, err, ErrInvalidAssumptions)
}

func TestAnalyze_ScenarioOne(t *testing.T) {
	a := newTestAnalyzer(t)

	result, err := a.Analyze(Input{Property: scenarioOneProperty()})
	require.NoError(t, err)

	assert.InDelta(t, 287500, result.Value.ARV, 0.001)
	assert.Equal(t, models.ValueMethodMarketMultiplier, result.Value.Method)
	assert.InDelta(t, 1.05, result.Rehab.AgeMultiplier, 1e-9)
	assert.InDelta(t, 34020, result.Rehab.Subtotal, 0.001)
	assert.InDelta(t, 5103, result.Rehab.Contingency, 0.001)
	assert.InDelta(t, 39123, result.Rehab.Total, 0.001)

	offer, ok := result.Strategies.Wholesale.OfferAt(0.70)
	require.True(t, ok)
	assert.InDelta(t, 162127, offer.MaxOffer, 0.001)
	assert.False(t, offer.LowConfidence)

	// Every snapshot field was defaulted.
	assert.Len(t, result.Market.Defaulted, 7)
	assert.Len(t, result.Warnings, 7)
	assert.InDelta(t, 35, result.Value.Confidence, 1e-9)

	assert.Equal(t, "B", result.Grade.Letter)
	assert.InDelta(t, 71, result.Grade.Score, 1e-9)
	assert.InDelta(t, 64, result.Grade.Confidence, 1e-9)
	assert.Equal(t, RiskLevelLow, result.Risk.Level)
	assert.Empty(t, result.Risk.Items)
	assert.Nil(t, result.Matches)
}

func TestAnalyze_ScenarioTwoComparables(t *testing.T) {
	a := newTestAnalyzer(t)

	result, err := a.Analyze(Input{
		Property: scenarioOneProperty(),
		Comparables: []models.Comparable{
			{PricePerSqft: 158.33},
			{PricePerSqft: 155.26},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, models.ValueMethodComparables, result.Value.Method)
	assert.InDelta(t, 156.795, result.Value.AvgCompPricePerSqft, 1e-9)
	assert.InDelta(t, 282231, result.Value.ARV, 0.01)
	assert.Equal(t, 2, result.Value.ComparableCount)
}

func TestAnalyze_ScenarioThreeBuyerMatch(t *testing.T) {
	a := newTestAnalyzer(t)

	result, err := a.Analyze(Input{
		Property: scenarioOneProperty(),
		Buyers: []models.BuyerProfile{
			{
				ID:            "buyer-1",
				Name:          "Lone Star Holdings",
				MinPrice:      ptr(100000.0),
				MaxPrice:      ptr(300000.0),
				PropertyTypes: []string{"single_family"},
			},
		},
	})
	require.NoError(t, err)

	require.Len(t, result.Matches, 1)
	assert.Equal(t, "buyer-1", result.Matches[0].BuyerID)
	assert.InDelta(t, 90, result.Matches[0].Score, 1e-9)
	assert.Equal(t, 1, result.Matches[0].Rank)
}

func TestAnalyze_ScenarioFourBRRRRSentinel(t *testing.T) {
	a := newTestAnalyzer(t)

	result, err := a.Analyze(Input{Property: scenarioOneProperty()})
	require.NoError(t, err)

	brrrr := primaryScenario(result.Strategies.BRRRR, 0.70)
	require.NotNil(t, brrrr)
	assert.Zero(t, brrrr.BRRRR.CashLeftInDeal)
	assert.True(t, brrrr.BRRRR.CashOnCash.Undefined)
	assert.Zero(t, brrrr.BRRRR.CashOnCash.Value)
}

func TestAnalyze_Deterministic(t *testing.T) {
	a := newTestAnalyzer(t)
	in := Input{
		Property: scenarioOneProperty(),
		Market: &models.MarketSnapshot{
			RentPerSqft:      ptr(1.35),
			AppreciationRate: ptr(0.04),
		},
		Comparables: []models.Comparable{{Price: 290000, LivingArea: 1850}},
		Buyers: []models.BuyerProfile{
			{ID: "b1", Name: "One", CashAvailable: 500000},
			{ID: "b2", Name: "Two", CashAvailable: 200000, States: []string{"TX"}},
		},
	}

	first, err := a.Analyze(in)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := a.Analyze(in)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestAnalyze_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *models.PropertyAttributes)
		field  string
	}{
		{
			name:   "zero living area",
			mutate: func(p *models.PropertyAttributes) { p.LivingArea = 0 },
			field:  "living_area",
		},
		{
			name:   "negative list price",
			mutate: func(p *models.PropertyAttributes) { p.ListPrice = -1 },
			field:  "list_price",
		},
		{
			name:   "built in the future",
			mutate: func(p *models.PropertyAttributes) { p.YearBuilt = 2021 },
			field:  "year_built",
		},
		{
			name:   "unknown condition",
			mutate: func(p *models.PropertyAttributes) { p.Condition = "ruined" },
			field:  "condition",
		},
		{
			name:   "condition score out of range",
			mutate: func(p *models.PropertyAttributes) { p.ConditionScore = ptr(120.0) },
			field:  "condition_score",
		},
	}

	a := newTestAnalyzer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := scenarioOneProperty()
			tt.mutate(&p)

			result, err := a.Analyze(Input{Property: p})
			assert.Nil(t, result)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestAnalyze_PerCallAssumptions(t *testing.T) {
	a := newTestAnalyzer(t)

	custom := testAssumptions()
	custom.Value.StateMultipliers["TX"] = 1.30
	result, err := a.Analyze(Input{Property: scenarioOneProperty(), Assumptions: &custom})
	require.NoError(t, err)
	assert.InDelta(t, 325000, result.Value.ARV, 0.001)

	invalid := testAssumptions()
	invalid.WholesaleRules = nil
	_, err = a.Analyze(Input{Property: scenarioOneProperty(), Assumptions: &invalid})
	assert.ErrorIs(t, err, ErrInvalidAssumptions)

	// The analyzer defaults are untouched.
	assert.InDelta(t, 1.15, a.Assumptions().Value.StateMultipliers["TX"], 1e-9)
}

func TestAnalyze_RejectsZeroedScoringTables(t *testing.T) {
	a := newTestAnalyzer(t)

	condo := scenarioOneProperty()
	condo.PropertyType = models.PropertyTypeCondo
	condo.Condition = models.ConditionNeedsRehab
	condo.YearBuilt = 1900
	crime := 10.0
	maxPrice := 10000.0
	buyers := []models.BuyerProfile{{ID: "b1", Name: "Nobody", States: []string{"AK"}, MaxPrice: &maxPrice}}

	tests := []struct {
		name   string
		mutate func(a *Assumptions)
	}{
		{name: "grading", mutate: func(a *Assumptions) { a.Grading = GradingTable{} }},
		{name: "matching", mutate: func(a *Assumptions) { a.Matching = MatchingTable{} }},
		{name: "risk", mutate: func(a *Assumptions) { a.Risk = RiskTable{} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			custom := testAssumptions()
			tt.mutate(&custom)

			_, err := NewAnalyzer(custom)
			assert.ErrorIs(t, err, ErrInvalidAssumptions)

			result, err := a.Analyze(Input{
				Property:     condo,
				Neighborhood: &models.Neighborhood{CrimeScore: &crime},
				Buyers:       buyers,
				Assumptions:  &custom,
			})
			assert.ErrorIs(t, err, ErrInvalidAssumptions)
			assert.Nil(t, result)
		})
	}
}

func TestAnalyzer_AssumptionsIsACopy(t *testing.T) {
	a := newTestAnalyzer(t)

	got := a.Assumptions()
	got.Value.StateMultipliers["TX"] = 9
	got.WholesaleRules[0] = 0.5
	got.Grading.Labels["A"] = "changed"

	fresh := a.Assumptions()
	assert.InDelta(t, 1.15, fresh.Value.StateMultipliers["TX"], 1e-9)
	assert.InDelta(t, 0.65, fresh.WholesaleRules[0], 1e-9)
	assert.NotEqual(t, "changed", fresh.Grading.Labels["A"])
}

func TestAnalyze_NonNegativity(t *testing.T) {
	a := newTestAnalyzer(t)

	for _, c := range models.Conditions {
		for _, year := range []int{1900, 1960, 1990, 2010, 2020} {
			for _, price := range []float64{0, 50000, 250000, 2000000} {
				p := scenarioOneProperty()
				p.Condition = c
				p.YearBuilt = year
				p.ListPrice = price

				result, err := a.Analyze(Input{Property: p})
				require.NoError(t, err)
				assert.GreaterOrEqual(t, result.Rehab.Total, 0.0)
				assert.GreaterOrEqual(t, result.Rental.RentLow, 0.0)
				for _, o := range result.Strategies.Wholesale.Offers {
					assert.GreaterOrEqual(t, o.MaxOffer, 0.0)
				}
				assert.GreaterOrEqual(t, result.Grade.Score, 0.0)
				assert.LessOrEqual(t, result.Grade.Score, 100.0)
				assert.GreaterOrEqual(t, result.Grade.Confidence, 60.0)
				assert.LessOrEqual(t, result.Grade.Confidence, 95.0)
			}
		}
	}
}

func TestAnalyze_NegativeOfferExcludesScenarios(t *testing.T) {
	a := newTestAnalyzer(t)

	p := scenarioOneProperty()
	p.ListPrice = 40000
	p.Condition = models.ConditionNeedsRehab
	p.YearBuilt = 1920

	result, err := a.Analyze(Input{Property: p})
	require.NoError(t, err)

	// ARV 46000 against a rehab bill above 100k leaves no viable offer.
	for _, o := range result.Strategies.Wholesale.Offers {
		assert.True(t, o.LowConfidence)
		assert.Zero(t, o.MaxOffer)
	}
	assert.Nil(t, result.Strategies.Wholesale.Best)
	assert.Nil(t, result.Strategies.FixFlip.Best)
	assert.Nil(t, result.Strategies.BuyHold.Best)
	assert.Nil(t, result.Strategies.BRRRR.Best)
	for _, s := range result.Strategies.FixFlip.Scenarios {
		assert.True(t, s.Excluded)
		assert.Contains(t, s.Flags, models.FlagNegativePurchasePrice)
	}
	assert.NotNil(t, result.Strategies.Creative.Best)
	assert.Contains(t, result.Warnings, "fix_flip: 4 scenario(s) excluded: negative_purchase_price")
	// Thin margin plus old construction lands exactly on the medium ceiling.
	assert.InDelta(t, 40, result.Risk.Score, 1e-9)
	assert.Equal(t, RiskLevelMedium, result.Risk.Level)
}

func TestAnalyzer_Match(t *testing.T) {
	a := newTestAnalyzer(t)
	result, err := a.Analyze(Input{Property: scenarioOneProperty()})
	require.NoError(t, err)

	buyers := []models.BuyerProfile{
		{ID: "rich", Name: "Rich", CashAvailable: 200000},
		{ID: "poor", Name: "Poor", CashAvailable: 1000, PropertyTypes: []string{"condo"}, States: []string{"CA"}},
	}
	matches := a.Match(result, buyers, nil)
	require.Len(t, matches, 1)
	assert.Equal(t, "rich", matches[0].BuyerID)
	assert.InDelta(t, 100, matches[0].Score, 1e-9)

	// An explicit offer above the buyer's cash drops the cash points.
	matches = a.Match(result, buyers, ptr(250000.0))
	require.Len(t, matches, 1)
	assert.InDelta(t, 95, matches[0].Score, 1e-9)
}
