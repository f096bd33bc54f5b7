package models

// Ratio is a quotient that may be undefined because its denominator is zero.
type Ratio struct {
	Value     float64 `json:"value"`
	Undefined bool    `json:"undefined"`
}

// NewRatio divides num by den, marking the result undefined for a zero denominator.
func NewRatio(num, den float64) Ratio {
	if den == 0 {
		return Ratio{Undefined: true}
	}
	return Ratio{Value: num / den}
}

// Scale multiplies a defined ratio by f.
func (r Ratio) Scale(f float64) Ratio {
	if r.Undefined {
		return r
	}
	return Ratio{Value: r.Value * f}
}

// Greater orders ratios with undefined values last.
func (r Ratio) Greater(other Ratio) bool {
	if r.Undefined {
		return false
	}
	if other.Undefined {
		return true
	}
	return r.Value > other.Value
}

type ValueMethod string

const (
	ValueMethodComparables      ValueMethod = "comparables"
	ValueMethodMarketMultiplier ValueMethod = "market_multiplier"
)

type ValueEstimate struct {
	ARV                 float64     `json:"arv"`
	PricePerSqft        float64     `json:"price_per_sqft"`
	Confidence          float64     `json:"confidence"`
	Method              ValueMethod `json:"method"`
	Multiplier          float64     `json:"multiplier,omitempty"`
	ComparableCount     int         `json:"comparable_count"`
	AvgCompPricePerSqft float64     `json:"avg_comp_price_per_sqft,omitempty"`
}

// CostItem is one line of a rehab breakdown.
type CostItem struct {
	Category   string  `json:"category"`
	Structural bool    `json:"structural"`
	Share      float64 `json:"share"`
	Amount     float64 `json:"amount"`
}

type RehabEstimate struct {
	BaseCostPerSqft float64    `json:"base_cost_per_sqft"`
	AgeYears        int        `json:"age_years"`
	AgeMultiplier   float64    `json:"age_multiplier"`
	Subtotal        float64    `json:"subtotal"`
	Contingency     float64    `json:"contingency"`
	Total           float64    `json:"total"`
	CostPerSqft     float64    `json:"cost_per_sqft"`
	Structural      float64    `json:"structural"`
	Cosmetic        float64    `json:"cosmetic"`
	Breakdown       []CostItem `json:"breakdown"`
}

type OperatingExpenses struct {
	PropertyManagement float64 `json:"property_management"`
	Maintenance        float64 `json:"maintenance"`
	Vacancy            float64 `json:"vacancy"`
	Insurance          float64 `json:"insurance"`
	Misc               float64 `json:"misc"`
	Total              float64 `json:"total"`
}

type RentalEstimate struct {
	BaseRent        float64           `json:"base_rent"`
	RentLow         float64           `json:"rent_low"`
	RentHigh        float64           `json:"rent_high"`
	RentAverage     float64           `json:"rent_average"`
	RentPerSqft     float64           `json:"rent_per_sqft"`
	Expenses        OperatingExpenses `json:"expenses"`
	NetCashFlowLow  float64           `json:"net_cash_flow_low"`
	NetCashFlowHigh float64           `json:"net_cash_flow_high"`
}

type Strategy string

const (
	StrategyWholesale Strategy = "wholesale"
	StrategyFixFlip   Strategy = "fix_flip"
	StrategyBuyHold   Strategy = "buy_hold"
	StrategyBRRRR     Strategy = "brrrr"
	StrategyCreative  Strategy = "creative_finance"
)

type RiskTier string

const (
	RiskLow        RiskTier = "Low"
	RiskMedium     RiskTier = "Medium"
	RiskMediumHigh RiskTier = "Medium-High"
	RiskHigh       RiskTier = "High"
)

// FlagNegativePurchasePrice marks a scenario whose purchase price came out negative.
const FlagNegativePurchasePrice = "negative_purchase_price"

// StrategyScenario is one strategy evaluated under one assumption set.
type StrategyScenario struct {
	Strategy        Strategy `json:"strategy"`
	Name            string   `json:"name"`
	RulePct         float64  `json:"rule_pct,omitempty"`
	PurchasePrice   float64  `json:"purchase_price"`
	RequiredCapital float64  `json:"required_capital"`
	Profit          float64  `json:"profit"`
	MonthlyCashFlow float64  `json:"monthly_cash_flow"`
	ROI             Ratio    `json:"roi"`
	AnnualROI       Ratio    `json:"annual_roi"`
	RiskTier        RiskTier `json:"risk_tier"`
	Timeline        string   `json:"timeline"`
	Excluded        bool     `json:"excluded"`
	Flags           []string `json:"flags,omitempty"`

	Wholesale *AssignmentDetail `json:"wholesale,omitempty"`
	FixFlip   *FixFlipDetail    `json:"fix_flip,omitempty"`
	BuyHold   *BuyHoldDetail    `json:"buy_hold,omitempty"`
	BRRRR     *BRRRRDetail      `json:"brrrr,omitempty"`
	Creative  *CreativeDetail   `json:"creative,omitempty"`
}

type AssignmentDetail struct {
	AssignmentFee   float64 `json:"assignment_fee"`
	MarketingCosts  float64 `json:"marketing_costs"`
	LegalCosts      float64 `json:"legal_costs"`
	InspectionCosts float64 `json:"inspection_costs"`
	EarnestMoney    float64 `json:"earnest_money"`
	TotalCosts      float64 `json:"total_costs"`
	Difficulty      string  `json:"difficulty"`
}

type FixFlipDetail struct {
	RehabCost       float64 `json:"rehab_cost"`
	TotalInvestment float64 `json:"total_investment"`
	HoldingCosts    float64 `json:"holding_costs"`
	SellingCosts    float64 `json:"selling_costs"`
	Contingency     float64 `json:"contingency"`
	GrossProfit     float64 `json:"gross_profit"`
	HoldingMonths   int     `json:"holding_months"`
}

type MonthlyCosts struct {
	Mortgage    float64 `json:"mortgage"`
	Taxes       float64 `json:"taxes"`
	Insurance   float64 `json:"insurance"`
	HOA         float64 `json:"hoa"`
	Maintenance float64 `json:"maintenance"`
	Vacancy     float64 `json:"vacancy"`
	Management  float64 `json:"management"`
	CapEx       float64 `json:"capex"`
	Total       float64 `json:"total"`
}

// BuyHoldDetail reports CapRate as annual cash flow after debt service over
// purchase price; NOICapRate is the conventional pre-debt figure.
type BuyHoldDetail struct {
	DownPayment    float64      `json:"down_payment"`
	LoanAmount     float64      `json:"loan_amount"`
	MonthlyRent    float64      `json:"monthly_rent"`
	Costs          MonthlyCosts `json:"costs"`
	AnnualCashFlow float64      `json:"annual_cash_flow"`
	CashOnCash     Ratio        `json:"cash_on_cash"`
	CapRate        Ratio        `json:"cap_rate"`
	NOI            float64      `json:"noi"`
	NOICapRate     Ratio        `json:"noi_cap_rate"`
	DSCR           Ratio        `json:"dscr"`
	Year10Value    float64      `json:"year_10_value"`
	Year10Equity   float64      `json:"year_10_equity"`
}

type BRRRRDetail struct {
	RehabCost         float64 `json:"rehab_cost"`
	TotalInvestment   float64 `json:"total_investment"`
	RefiAmount        float64 `json:"refi_amount"`
	CashRecovered     float64 `json:"cash_recovered"`
	CashLeftInDeal    float64 `json:"cash_left_in_deal"`
	RecoveryPct       Ratio   `json:"recovery_pct"`
	MonthlyMortgage   float64 `json:"monthly_mortgage"`
	AnnualCashFlow    float64 `json:"annual_cash_flow"`
	CashOnCash        Ratio   `json:"cash_on_cash"`
	PropertiesPerYear int     `json:"properties_per_year"`
}

type CreativeDetail struct {
	DownPayment       float64 `json:"down_payment"`
	MonthlyPayment    float64 `json:"monthly_payment"`
	MonthlySpread     float64 `json:"monthly_spread,omitempty"`
	InitialInvestment float64 `json:"initial_investment"`
	Legality          string  `json:"legality"`
}

// MaxOffer is the wholesale maximum allowable offer under one rule percentage.
type MaxOffer struct {
	RulePct       float64 `json:"rule_pct"`
	RawOffer      float64 `json:"raw_offer"`
	MaxOffer      float64 `json:"max_offer"`
	ProfitMargin  Ratio   `json:"profit_margin"`
	LowConfidence bool    `json:"low_confidence"`
}

// StrategySet groups the scenarios of one strategy. Best is nil when every
// scenario was excluded.
type StrategySet struct {
	Strategy   Strategy           `json:"strategy"`
	Scenarios  []StrategyScenario `json:"scenarios"`
	Best       *StrategyScenario  `json:"best,omitempty"`
	Disclaimer string             `json:"disclaimer,omitempty"`
	Flags      []string           `json:"flags,omitempty"`
}

type WholesaleAnalysis struct {
	StrategySet
	Offers []MaxOffer `json:"offers"`
}

// OfferAt returns the max offer for the given rule percentage.
func (w *WholesaleAnalysis) OfferAt(rulePct float64) (MaxOffer, bool) {
	for _, o := range w.Offers {
		if o.RulePct == rulePct {
			return o, true
		}
	}
	return MaxOffer{}, false
}

type StrategyResults struct {
	Wholesale WholesaleAnalysis `json:"wholesale"`
	FixFlip   StrategySet       `json:"fix_flip"`
	BuyHold   StrategySet       `json:"buy_hold"`
	BRRRR     StrategySet       `json:"brrrr"`
	Creative  StrategySet       `json:"creative_finance"`
}

type ScoreComponent struct {
	Name   string  `json:"name"`
	Points float64 `json:"points"`
	Max    float64 `json:"max"`
}

type DealGrade struct {
	Letter              string           `json:"letter"`
	Score               float64          `json:"score"`
	RecommendedStrategy string           `json:"recommended_strategy"`
	Confidence          float64          `json:"confidence"`
	Components          []ScoreComponent `json:"components"`
}

type Impact string

const (
	ImpactLow    Impact = "Low"
	ImpactMedium Impact = "Medium"
	ImpactHigh   Impact = "High"
)

type RiskItem struct {
	Category    string  `json:"category"`
	Risk        string  `json:"risk"`
	Description string  `json:"description"`
	Impact      Impact  `json:"impact"`
	Mitigation  string  `json:"mitigation"`
	Penalty     float64 `json:"penalty"`
}

type RiskReport struct {
	Items          []RiskItem `json:"items"`
	Score          float64    `json:"score"`
	Level          string     `json:"level"`
	Recommendation string     `json:"recommendation"`
}

type MatchResult struct {
	BuyerID       string   `json:"buyer_id"`
	BuyerName     string   `json:"buyer_name"`
	Score         float64  `json:"score"`
	Rank          int      `json:"rank"`
	Reasons       []string `json:"reasons"`
	CashAvailable float64  `json:"cash_available"`
}

// AnalysisResult is the complete output of one analysis.
type AnalysisResult struct {
	ID         string             `json:"id,omitempty"`
	Property   PropertyAttributes `json:"property"`
	Market     ResolvedMarket     `json:"market"`
	Value      ValueEstimate      `json:"value"`
	Rehab      RehabEstimate      `json:"rehab"`
	Rental     RentalEstimate     `json:"rental"`
	Strategies StrategyResults    `json:"strategies"`
	Grade      DealGrade          `json:"grade"`
	Risk       RiskReport         `json:"risk"`
	Matches    []MatchResult      `json:"matches,omitempty"`
	Warnings   []string           `json:"warnings,omitempty"`
}
