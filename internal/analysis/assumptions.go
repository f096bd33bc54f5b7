package analysis

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"sort"

	"dealgrade/server/internal/models"
)

// Assumptions holds every tunable constant of the engine. Top-level fields
// carry env tags so the service configuration can override them with a
// prefix; the nested tables are overridden through JSON.
type Assumptions struct {
	WholesaleRules      []float64 `json:"wholesale_rules" env:"WHOLESALE_RULES" envSeparator:","`
	HoldingPeriodMonths int       `json:"holding_period_months" env:"HOLDING_PERIOD_MONTHS"`
	DownPaymentPct      float64   `json:"down_payment_pct" env:"DOWN_PAYMENT_PCT"`
	InterestRatePct     float64   `json:"interest_rate_pct" env:"INTEREST_RATE_PCT"`
	VacancyRatePct      float64   `json:"vacancy_rate_pct" env:"VACANCY_RATE_PCT"`
	ManagementFeePct    float64   `json:"management_fee_pct" env:"MANAGEMENT_FEE_PCT"`
	AppreciationRatePct float64   `json:"appreciation_rate_pct" env:"APPRECIATION_RATE_PCT"`

	// ValuationYear is the reference year for building age and year-built
	// validation. The engine never reads the clock; callers set it.
	ValuationYear int `json:"valuation_year" env:"VALUATION_YEAR"`

	Value     ValueTable     `json:"value"`
	Market    MarketDefaults `json:"market"`
	Rehab     RehabTable     `json:"rehab"`
	Rental    RentalTable    `json:"rental"`
	Wholesale WholesaleTable `json:"wholesale"`
	FixFlip   FixFlipTable   `json:"fix_flip"`
	BuyHold   BuyHoldTable   `json:"buy_hold"`
	BRRRR     BRRRRTable     `json:"brrrr"`
	Creative  CreativeTable  `json:"creative"`
	Risk      RiskTable      `json:"risk"`
	Grading   GradingTable   `json:"grading"`
	Matching  MatchingTable  `json:"matching"`
}

type ValueTable struct {
	StateMultipliers        map[string]float64 `json:"state_multipliers"`
	DefaultMultiplier       float64            `json:"default_multiplier"`
	ManyCompsThreshold      int                `json:"many_comps_threshold"`
	ConfidenceManyComps     float64            `json:"confidence_many_comps"`
	ConfidenceFewComps      float64            `json:"confidence_few_comps"`
	ConfidenceKnownMarket   float64            `json:"confidence_known_market"`
	ConfidenceDefaultMarket float64            `json:"confidence_default_market"`
	MissingFieldPenalty     float64            `json:"missing_field_penalty"`
	MinConfidence           float64            `json:"min_confidence"`
}

// MarketDefaults replace absent MarketSnapshot fields.
type MarketDefaults struct {
	MedianPrice      float64               `json:"median_price"`
	RentPerSqft      float64               `json:"rent_per_sqft"`
	AppreciationRate float64               `json:"appreciation_rate"`
	TaxRate          float64               `json:"tax_rate"`
	InventoryLevel   models.InventoryLevel `json:"inventory_level"`
	Trend            models.MarketTrend    `json:"trend"`
	DaysOnMarket     int                   `json:"days_on_market"`
}

type AgeBand struct {
	MaxAge     int     `json:"max_age"`
	Multiplier float64 `json:"multiplier"`
}

type RehabShare struct {
	Category   string  `json:"category"`
	Share      float64 `json:"share"`
	Structural bool    `json:"structural"`
}

type RehabTable struct {
	CostPerSqft      map[models.Condition]float64 `json:"cost_per_sqft"`
	AgeBands         []AgeBand                    `json:"age_bands"`
	OldestMultiplier float64                      `json:"oldest_multiplier"`
	ContingencyRate  float64                      `json:"contingency_rate"`
	Breakdown        []RehabShare                 `json:"breakdown"`
}

type RentBand struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

type RentalTable struct {
	ConditionBands map[models.Condition]RentBand `json:"condition_bands"`
	MaintenancePct float64                       `json:"maintenance_pct"`
	InsurancePct   float64                       `json:"insurance_pct"`
	MiscPct        float64                       `json:"misc_pct"`
}

type WholesaleTable struct {
	PrimaryRule        float64   `json:"primary_rule"`
	AssignmentFees     []float64 `json:"assignment_fees"`
	MarketingCosts     float64   `json:"marketing_costs"`
	LegalCosts         float64   `json:"legal_costs"`
	InspectionCosts    float64   `json:"inspection_costs"`
	EarnestMoney       float64   `json:"earnest_money"`
	FastTimelineMaxFee float64   `json:"fast_timeline_max_fee"`
	MidTimelineMaxFee  float64   `json:"mid_timeline_max_fee"`
	EasyMaxFee         float64   `json:"easy_max_fee"`
	MediumMaxFee       float64   `json:"medium_max_fee"`
}

// FixedCosts is the sum of the per-deal wholesale costs.
func (w WholesaleTable) FixedCosts() float64 {
	return w.MarketingCosts + w.LegalCosts + w.InspectionCosts + w.EarnestMoney
}

type FixFlipTable struct {
	MonthlyHoldingRate float64 `json:"monthly_holding_rate"`
	SellingCostRate    float64 `json:"selling_cost_rate"`
	ContingencyRate    float64 `json:"contingency_rate"`
}

type BuyHoldTable struct {
	InsuranceRatePct  float64 `json:"insurance_rate_pct"`
	MaintenancePct    float64 `json:"maintenance_pct"`
	CapExPct          float64 `json:"capex_pct"`
	ProjectionYears   int     `json:"projection_years"`
	LoanBalanceFactor float64 `json:"loan_balance_factor"`
}

type BRRRRTable struct {
	RefiLTV              float64 `json:"refi_ltv"`
	ExpenseRatio         float64 `json:"expense_ratio"`
	FastRecovery         float64 `json:"fast_recovery"`
	FastDealsPerYear     int     `json:"fast_deals_per_year"`
	ModerateRecovery     float64 `json:"moderate_recovery"`
	ModerateDealsPerYear int     `json:"moderate_deals_per_year"`
}

type CreativeTable struct {
	SubjectToPaymentRate  float64 `json:"subject_to_payment_rate"`
	SubjectToExpenseRatio float64 `json:"subject_to_expense_ratio"`
	SubjectToInitial      float64 `json:"subject_to_initial"`
	SellerFinanceDownPct  float64 `json:"seller_finance_down_pct"`
	SellerFinanceRate     float64 `json:"seller_finance_monthly_rate"`
	SellerFinanceClosing  float64 `json:"seller_finance_closing"`
	LeaseOptionRentRatio  float64 `json:"lease_option_rent_ratio"`
	LeaseOptionFee        float64 `json:"lease_option_fee"`
	LeaseOptionClosing    float64 `json:"lease_option_closing"`
	WrapRate              float64 `json:"wrap_rate"`
	WrapUnderlyingRate    float64 `json:"wrap_underlying_rate"`
	WrapDownPct           float64 `json:"wrap_down_pct"`
	WrapClosing           float64 `json:"wrap_closing"`
	Disclaimer            string  `json:"disclaimer"`
}

type RiskTable struct {
	InventoryMonthsThreshold float64 `json:"inventory_months_threshold"`
	HighInventoryPenalty     float64 `json:"high_inventory_penalty"`
	OldConstructionYear      int     `json:"old_construction_year"`
	OldConstructionPenalty   float64 `json:"old_construction_penalty"`
	ThinMarginProfit         float64 `json:"thin_margin_profit"`
	ThinMarginPenalty        float64 `json:"thin_margin_penalty"`
	HighCrimeScore           float64 `json:"high_crime_score"`
	HighCrimePenalty         float64 `json:"high_crime_penalty"`
	DecliningMarketPenalty   float64 `json:"declining_market_penalty"`
	LowMax                   float64 `json:"low_max"`
	MediumMax                float64 `json:"medium_max"`
}

// ScoreTier awards Points when a value reaches Min.
type ScoreTier struct {
	Min    float64 `json:"min"`
	Points float64 `json:"points"`
}

type GradingTable struct {
	ProfitTiers        []ScoreTier                    `json:"profit_tiers"`
	ProfitBelowFactor  float64                        `json:"profit_below_factor"`
	ProfitMax          float64                        `json:"profit_max"`
	SchoolTiers        []ScoreTier                    `json:"school_tiers"`
	SchoolFloor        float64                        `json:"school_floor"`
	CrimeTiers         []ScoreTier                    `json:"crime_tiers"`
	CrimeFloor         float64                        `json:"crime_floor"`
	GrowthTiers        []ScoreTier                    `json:"growth_tiers"`
	GrowthFloor        float64                        `json:"growth_floor"`
	TrendPoints        map[models.MarketTrend]float64 `json:"trend_points"`
	TrendFloor         float64                        `json:"trend_floor"`
	LowInventoryPoints float64                        `json:"low_inventory_points"`
	InventoryFloor     float64                        `json:"inventory_floor"`
	StaleListingDays   int                            `json:"stale_listing_days"`
	StaleListingPoints float64                        `json:"stale_listing_points"`
	ConditionWeight    float64                        `json:"condition_weight"`
	ConditionScores    map[models.Condition]float64   `json:"condition_scores"`
	DefaultSchool      float64                        `json:"default_school"`
	DefaultCrime       float64                        `json:"default_crime"`
	DefaultGrowth      float64                        `json:"default_growth"`
	GradeA             float64                        `json:"grade_a"`
	GradeB             float64                        `json:"grade_b"`
	GradeC             float64                        `json:"grade_c"`
	ConfidenceMin      float64                        `json:"confidence_min"`
	ConfidenceMax      float64                        `json:"confidence_max"`
	ConfidenceBaseline float64                        `json:"confidence_baseline"`
	ConfidenceDivisor  float64                        `json:"confidence_divisor"`
	Labels             map[string]string              `json:"labels"`
}

type MatchingTable struct {
	MinScore          float64 `json:"min_score"`
	PriceFitPoints    float64 `json:"price_fit_points"`
	PriceNearPoints   float64 `json:"price_near_points"`
	PriceTolerance    float64 `json:"price_tolerance"`
	TypePoints        float64 `json:"type_points"`
	GeoPoints         float64 `json:"geo_points"`
	CashFullPoints    float64 `json:"cash_full_points"`
	CashPartialPoints float64 `json:"cash_partial_points"`
	CashPartialRatio  float64 `json:"cash_partial_ratio"`
	FastCloserDays    int     `json:"fast_closer_days"`
}

// DefaultAssumptions returns the documented defaults. ValuationYear is left
// unset and must be supplied by the caller.
func DefaultAssumptions() Assumptions {
	return Assumptions{
		WholesaleRules:      []float64{0.65, 0.70, 0.75, 0.80},
		HoldingPeriodMonths: 6,
		DownPaymentPct:      20,
		InterestRatePct:     7.5,
		VacancyRatePct:      5,
		ManagementFeePct:    8,
		AppreciationRatePct: 3,
		Value: ValueTable{
			StateMultipliers: map[string]float64{
				"TX": 1.15, "CA": 1.25, "FL": 1.10, "NY": 1.20, "GA": 1.08,
			},
			DefaultMultiplier:       1.10,
			ManyCompsThreshold:      3,
			ConfidenceManyComps:     90,
			ConfidenceFewComps:      80,
			ConfidenceKnownMarket:   70,
			ConfidenceDefaultMarket: 60,
			MissingFieldPenalty:     5,
			MinConfidence:           10,
		},
		Market: MarketDefaults{
			MedianPrice:      350000,
			RentPerSqft:      1.2,
			AppreciationRate: 0.045,
			TaxRate:          0.022,
			InventoryLevel:   models.InventoryNormal,
			Trend:            models.TrendNeutral,
			DaysOnMarket:     30,
		},
		Rehab: RehabTable{
			CostPerSqft: map[models.Condition]float64{
				models.ConditionExcellent:  0,
				models.ConditionGood:       8,
				models.ConditionFair:       18,
				models.ConditionPoor:       32,
				models.ConditionNeedsRehab: 50,
			},
			AgeBands: []AgeBand{
				{MaxAge: 15, Multiplier: 1.0},
				{MaxAge: 25, Multiplier: 1.05},
				{MaxAge: 40, Multiplier: 1.15},
			},
			OldestMultiplier: 1.30,
			ContingencyRate:  0.15,
			Breakdown: []RehabShare{
				{Category: "flooring", Share: 0.25},
				{Category: "kitchen", Share: 0.20},
				{Category: "bathrooms", Share: 0.18},
				{Category: "paint", Share: 0.12},
				{Category: "hvac", Share: 0.10, Structural: true},
				{Category: "electrical", Share: 0.08, Structural: true},
				{Category: "plumbing", Share: 0.07, Structural: true},
			},
		},
		Rental: RentalTable{
			ConditionBands: map[models.Condition]RentBand{
				models.ConditionExcellent:  {Low: 1.10, High: 1.25},
				models.ConditionGood:       {Low: 1.00, High: 1.15},
				models.ConditionFair:       {Low: 0.85, High: 1.00},
				models.ConditionPoor:       {Low: 0.70, High: 0.85},
				models.ConditionNeedsRehab: {Low: 0.50, High: 0.70},
			},
			MaintenancePct: 10,
			InsurancePct:   5,
			MiscPct:        3,
		},
		Wholesale: WholesaleTable{
			PrimaryRule:        0.70,
			AssignmentFees:     []float64{5000, 8000, 12000, 15000, 20000, 25000},
			MarketingCosts:     1000,
			LegalCosts:         800,
			InspectionCosts:    500,
			EarnestMoney:       1000,
			FastTimelineMaxFee: 10000,
			MidTimelineMaxFee:  20000,
			EasyMaxFee:         15000,
			MediumMaxFee:       25000,
		},
		FixFlip: FixFlipTable{
			MonthlyHoldingRate: 0.01,
			SellingCostRate:    0.08,
			ContingencyRate:    0.10,
		},
		BuyHold: BuyHoldTable{
			InsuranceRatePct:  0.8,
			MaintenancePct:    5,
			CapExPct:          5,
			ProjectionYears:   10,
			LoanBalanceFactor: 0.65,
		},
		BRRRR: BRRRRTable{
			RefiLTV:              0.75,
			ExpenseRatio:         0.25,
			FastRecovery:         0.90,
			FastDealsPerYear:     4,
			ModerateRecovery:     0.80,
			ModerateDealsPerYear: 2,
		},
		Creative: CreativeTable{
			SubjectToPaymentRate:  0.005,
			SubjectToExpenseRatio: 0.20,
			SubjectToInitial:      5000,
			SellerFinanceDownPct:  0.10,
			SellerFinanceRate:     0.004,
			SellerFinanceClosing:  3000,
			LeaseOptionRentRatio:  0.90,
			LeaseOptionFee:        5000,
			LeaseOptionClosing:    2000,
			WrapRate:              0.08,
			WrapUnderlyingRate:    0.06,
			WrapDownPct:           0.05,
			WrapClosing:           3000,
			Disclaimer: "Creative financing structures carry legal and due-on-sale risk. " +
				"Consult a licensed real estate attorney before using them.",
		},
		Risk: RiskTable{
			InventoryMonthsThreshold: 6,
			HighInventoryPenalty:     20,
			OldConstructionYear:      1960,
			OldConstructionPenalty:   15,
			ThinMarginProfit:         15000,
			ThinMarginPenalty:        25,
			HighCrimeScore:           40,
			HighCrimePenalty:         10,
			DecliningMarketPenalty:   20,
			LowMax:                   20,
			MediumMax:                40,
		},
		Grading: GradingTable{
			ProfitTiers: []ScoreTier{
				{Min: 30, Points: 35},
				{Min: 24, Points: 30},
				{Min: 18, Points: 25},
				{Min: 12, Points: 18},
			},
			ProfitBelowFactor:  1.2,
			ProfitMax:          35,
			SchoolTiers:        []ScoreTier{{Min: 8, Points: 10}, {Min: 6, Points: 7}},
			SchoolFloor:        4,
			CrimeTiers:         []ScoreTier{{Min: 80, Points: 8}, {Min: 60, Points: 5}},
			CrimeFloor:         2,
			GrowthTiers:        []ScoreTier{{Min: 0.05, Points: 7}, {Min: 0.02, Points: 5}},
			GrowthFloor:        2,
			TrendPoints:        map[models.MarketTrend]float64{models.TrendHot: 8, models.TrendWarm: 6},
			TrendFloor:         3,
			LowInventoryPoints: 6,
			InventoryFloor:     3,
			StaleListingDays:   45,
			StaleListingPoints: 6,
			ConditionWeight:    0.20,
			ConditionScores: map[models.Condition]float64{
				models.ConditionExcellent:  92,
				models.ConditionGood:       78,
				models.ConditionFair:       65,
				models.ConditionPoor:       45,
				models.ConditionNeedsRehab: 30,
			},
			DefaultSchool:      6,
			DefaultCrime:       60,
			DefaultGrowth:      0.03,
			GradeA:             85,
			GradeB:             70,
			GradeC:             55,
			ConfidenceMin:      60,
			ConfidenceMax:      95,
			ConfidenceBaseline: 70,
			ConfidenceDivisor:  5,
			Labels: map[string]string{
				"A": "Excellent deal - multiple exit strategies viable",
				"B": "Good deal - fix & flip or wholesale recommended",
				"C": "Marginal deal - wholesale only with tight margins",
				"D": "Pass - insufficient profit margins",
			},
		},
		Matching: MatchingTable{
			MinScore:          60,
			PriceFitPoints:    40,
			PriceNearPoints:   20,
			PriceTolerance:    0.10,
			TypePoints:        30,
			GeoPoints:         20,
			CashFullPoints:    10,
			CashPartialPoints: 5,
			CashPartialRatio:  0.5,
			FastCloserDays:    14,
		},
	}
}

// Clone returns a deep copy whose slices and maps share nothing with a.
func (a Assumptions) Clone() Assumptions {
	a.WholesaleRules = slices.Clone(a.WholesaleRules)
	a.Value.StateMultipliers = maps.Clone(a.Value.StateMultipliers)
	a.Rehab.CostPerSqft = maps.Clone(a.Rehab.CostPerSqft)
	a.Rehab.AgeBands = slices.Clone(a.Rehab.AgeBands)
	a.Rehab.Breakdown = slices.Clone(a.Rehab.Breakdown)
	a.Rental.ConditionBands = maps.Clone(a.Rental.ConditionBands)
	a.Wholesale.AssignmentFees = slices.Clone(a.Wholesale.AssignmentFees)
	a.Grading.ProfitTiers = slices.Clone(a.Grading.ProfitTiers)
	a.Grading.SchoolTiers = slices.Clone(a.Grading.SchoolTiers)
	a.Grading.CrimeTiers = slices.Clone(a.Grading.CrimeTiers)
	a.Grading.GrowthTiers = slices.Clone(a.Grading.GrowthTiers)
	a.Grading.TrendPoints = maps.Clone(a.Grading.TrendPoints)
	a.Grading.ConditionScores = maps.Clone(a.Grading.ConditionScores)
	a.Grading.Labels = maps.Clone(a.Grading.Labels)
	return a
}

// AsOf returns a copy with the valuation year set.
func (a Assumptions) AsOf(year int) Assumptions {
	a.ValuationYear = year
	return a
}

// Validate checks the tables for values the calculators cannot work with.
func (a Assumptions) Validate() error {
	if a.ValuationYear <= 0 {
		return fmt.Errorf("%w: valuation year must be set", ErrInvalidAssumptions)
	}
	if len(a.WholesaleRules) == 0 {
		return fmt.Errorf("%w: at least one wholesale rule is required", ErrInvalidAssumptions)
	}
	for _, rule := range a.WholesaleRules {
		if rule <= 0 || rule > 1 {
			return fmt.Errorf("%w: wholesale rule %.2f out of range (0,1]", ErrInvalidAssumptions, rule)
		}
	}
	if a.HoldingPeriodMonths < 0 {
		return fmt.Errorf("%w: holding period cannot be negative", ErrInvalidAssumptions)
	}
	if a.DownPaymentPct < 0 || a.DownPaymentPct > 100 {
		return fmt.Errorf("%w: down payment must be between 0 and 100 percent", ErrInvalidAssumptions)
	}
	if a.InterestRatePct < 0 || a.VacancyRatePct < 0 || a.ManagementFeePct < 0 {
		return fmt.Errorf("%w: rates cannot be negative", ErrInvalidAssumptions)
	}

	var total float64
	for _, share := range a.Rehab.Breakdown {
		if share.Share < 0 {
			return fmt.Errorf("%w: rehab share for %s is negative", ErrInvalidAssumptions, share.Category)
		}
		total += share.Share
	}
	if math.Abs(total-1) > 1e-9 {
		return fmt.Errorf("%w: rehab breakdown shares sum to %.4f, want 1", ErrInvalidAssumptions, total)
	}
	if !sort.SliceIsSorted(a.Rehab.AgeBands, func(i, j int) bool {
		return a.Rehab.AgeBands[i].MaxAge < a.Rehab.AgeBands[j].MaxAge
	}) {
		return fmt.Errorf("%w: age bands must be ordered by max age", ErrInvalidAssumptions)
	}

	for _, c := range models.Conditions {
		cost, ok := a.Rehab.CostPerSqft[c]
		if !ok || cost < 0 {
			return fmt.Errorf("%w: rehab cost per sqft missing for %s", ErrInvalidAssumptions, c)
		}
		band, ok := a.Rental.ConditionBands[c]
		if !ok || band.Low < 0 || band.High < band.Low {
			return fmt.Errorf("%w: rent band invalid for %s", ErrInvalidAssumptions, c)
		}
	}
	if a.Value.DefaultMultiplier <= 0 {
		return fmt.Errorf("%w: default market multiplier must be positive", ErrInvalidAssumptions)
	}
	if err := a.Grading.validate(); err != nil {
		return fmt.Errorf("%w: grading: %s", ErrInvalidAssumptions, err)
	}
	if err := a.Risk.validate(); err != nil {
		return fmt.Errorf("%w: risk: %s", ErrInvalidAssumptions, err)
	}
	if err := a.Matching.validate(); err != nil {
		return fmt.Errorf("%w: matching: %s", ErrInvalidAssumptions, err)
	}
	return nil
}

func (g GradingTable) validate() error {
	if !(g.GradeA > g.GradeB && g.GradeB > g.GradeC && g.GradeC > 0) {
		return fmt.Errorf("grade thresholds must be positive and descending, got A=%.1f B=%.1f C=%.1f", g.GradeA, g.GradeB, g.GradeC)
	}
	for _, letter := range []string{"A", "B", "C", "D"} {
		if g.Labels[letter] == "" {
			return fmt.Errorf("label for grade %s is missing", letter)
		}
	}
	if len(g.ProfitTiers) == 0 {
		return fmt.Errorf("profit tiers are missing")
	}
	if g.ConditionWeight <= 0 {
		return fmt.Errorf("condition weight must be positive")
	}
	if g.ConfidenceMax <= 0 || g.ConfidenceMin > g.ConfidenceMax {
		return fmt.Errorf("confidence bounds %.1f..%.1f are invalid", g.ConfidenceMin, g.ConfidenceMax)
	}
	return nil
}

func (t RiskTable) validate() error {
	if t.LowMax <= 0 || t.LowMax >= t.MediumMax {
		return fmt.Errorf("level bounds must satisfy 0 < low_max < medium_max")
	}
	penalties := []struct {
		name  string
		value float64
	}{
		{"high inventory", t.HighInventoryPenalty},
		{"old construction", t.OldConstructionPenalty},
		{"thin margin", t.ThinMarginPenalty},
		{"high crime", t.HighCrimePenalty},
		{"declining market", t.DecliningMarketPenalty},
	}
	for _, p := range penalties {
		if p.value <= 0 {
			return fmt.Errorf("%s penalty must be positive", p.name)
		}
	}
	return nil
}

func (m MatchingTable) validate() error {
	if m.MinScore <= 0 {
		return fmt.Errorf("minimum score must be positive")
	}
	points := []float64{m.PriceFitPoints, m.PriceNearPoints, m.TypePoints, m.GeoPoints, m.CashFullPoints, m.CashPartialPoints}
	for _, p := range points {
		if p < 0 {
			return fmt.Errorf("points cannot be negative")
		}
	}
	if best := m.PriceFitPoints + m.TypePoints + m.GeoPoints + m.CashFullPoints; m.MinScore > best {
		return fmt.Errorf("minimum score %.1f is above the best possible score %.1f", m.MinScore, best)
	}
	return nil
}

// PrimaryRule returns the rule used for the headline offer, falling back to
// the first configured rule when the primary one is not in the list.
func (a Assumptions) PrimaryRule() float64 {
	for _, rule := range a.WholesaleRules {
		if rule == a.Wholesale.PrimaryRule {
			return rule
		}
	}
	return a.WholesaleRules[0]
}
