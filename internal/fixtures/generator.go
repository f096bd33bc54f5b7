// Package fixtures generates SYNTHETIC properties, buyers and market data for
// tests, benchmarks and the demo seeder. Nothing here describes real listings
// or real investors. The same seed always produces the same data.
package fixtures

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/google/uuid"

	"dealgrade/server/internal/analysis"
	"dealgrade/server/internal/models"
)

// City is a metro the generator places properties and buyers in.
type City struct {
	Name      string
	State     string
	Latitude  float64
	Longitude float64
	// Typical price per square foot for the metro
	PricePerSqft float64
}

var Cities = []City{
	{Name: "Houston", State: "TX", Latitude: 29.7604, Longitude: -95.3698, PricePerSqft: 140},
	{Name: "Dallas", State: "TX", Latitude: 32.7767, Longitude: -96.7970, PricePerSqft: 155},
	{Name: "Austin", State: "TX", Latitude: 30.2672, Longitude: -97.7431, PricePerSqft: 240},
	{Name: "Phoenix", State: "AZ", Latitude: 33.4484, Longitude: -112.0740, PricePerSqft: 210},
	{Name: "Atlanta", State: "GA", Latitude: 33.7490, Longitude: -84.3880, PricePerSqft: 170},
	{Name: "Tampa", State: "FL", Latitude: 27.9506, Longitude: -82.4572, PricePerSqft: 200},
	{Name: "Sacramento", State: "CA", Latitude: 38.5816, Longitude: -121.4944, PricePerSqft: 300},
	{Name: "Columbus", State: "OH", Latitude: 39.9612, Longitude: -82.9988, PricePerSqft: 120},
}

var propertyTypes = []string{
	models.PropertyTypeSingleFamily,
	models.PropertyTypeSingleFamily,
	models.PropertyTypeSingleFamily,
	models.PropertyTypeMultiFamily,
	models.PropertyTypeTownhouse,
	models.PropertyTypeCondo,
}

var trends = []models.MarketTrend{models.TrendHot, models.TrendWarm, models.TrendNeutral, models.TrendCool}

var inventoryLevels = []models.InventoryLevel{models.InventoryLow, models.InventoryNormal, models.InventoryHigh}

// Generator is not safe for concurrent use.
type Generator struct {
	rng           *rand.Rand
	valuationYear int
}

// NewGenerator returns a generator whose output depends only on seed and
// valuationYear. Year built never exceeds valuationYear.
func NewGenerator(seed int64, valuationYear int) *Generator {
	return &Generator{
		rng:           rand.New(rand.NewSource(seed)),
		valuationYear: valuationYear,
	}
}

func (g *Generator) id() string {
	id, err := uuid.NewRandomFromReader(g.rng)
	if err != nil {
		// rand.Rand reads never fail
		panic(err)
	}
	return id.String()
}

func (g *Generator) between(lo, hi float64) float64 {
	return lo + g.rng.Float64()*(hi-lo)
}

func (g *Generator) intBetween(lo, hi int) int {
	return lo + g.rng.Intn(hi-lo+1)
}

func (g *Generator) city() City {
	return Cities[g.rng.Intn(len(Cities))]
}

func roundTo(v, step float64) float64 {
	return math.Round(v/step) * step
}

// Property returns one synthetic property in a random metro.
func (g *Generator) Property() models.PropertyAttributes {
	return g.PropertyIn(g.city())
}

// PropertyIn returns one synthetic property in c.
func (g *Generator) PropertyIn(c City) models.PropertyAttributes {
	propertyType := propertyTypes[g.rng.Intn(len(propertyTypes))]
	area := roundTo(g.between(850, 3200), 10)
	condition := models.Conditions[g.rng.Intn(len(models.Conditions))]
	discount := map[models.Condition]float64{
		models.ConditionExcellent:  1.05,
		models.ConditionGood:       1.0,
		models.ConditionFair:       0.9,
		models.ConditionPoor:       0.75,
		models.ConditionNeedsRehab: 0.6,
	}[condition]

	dom := g.intBetween(3, 150)
	p := models.PropertyAttributes{
		ID:           g.id(),
		City:         c.Name,
		State:        c.State,
		PropertyType: propertyType,
		Bedrooms:     g.intBetween(2, 5),
		Bathrooms:    float64(g.intBetween(2, 7)) / 2,
		LivingArea:   area,
		YearBuilt:    g.intBetween(1920, g.valuationYear),
		ListPrice:    roundTo(area*c.PricePerSqft*g.between(0.8, 1.15)*discount, 1000),
		Condition:    condition,
		DaysOnMarket: &dom,
		Location: &models.Location{
			Latitude:  c.Latitude + g.between(-0.12, 0.12),
			Longitude: c.Longitude + g.between(-0.12, 0.12),
		},
	}
	if propertyType == models.PropertyTypeCondo || propertyType == models.PropertyTypeTownhouse {
		hoa := roundTo(g.between(150, 450), 5)
		p.HOAFee = &hoa
	}
	if g.rng.Intn(4) == 0 {
		payment := roundTo(p.ListPrice*g.between(0.003, 0.006), 1)
		p.ExistingMortgagePayment = &payment
	}
	return p
}

func (g *Generator) Properties(n int) []models.PropertyAttributes {
	props := make([]models.PropertyAttributes, 0, n)
	for i := 0; i < n; i++ {
		props = append(props, g.Property())
	}
	return props
}

// MarketSnapshot returns a snapshot for c with every field populated.
func (g *Generator) MarketSnapshot(c City) models.MarketSnapshot {
	median := roundTo(c.PricePerSqft*1800*g.between(0.9, 1.1), 1000)
	rent := math.Round(g.between(0.8, 1.6)*100) / 100
	appreciation := math.Round(g.between(-0.02, 0.08)*1000) / 1000
	tax := math.Round(g.between(0.008, 0.025)*1000) / 1000
	inventory := inventoryLevels[g.rng.Intn(len(inventoryLevels))]
	months := math.Round(g.between(1.5, 8)*10) / 10
	trend := trends[g.rng.Intn(len(trends))]
	dom := g.intBetween(10, 90)

	return models.MarketSnapshot{
		State:            c.State,
		City:             c.Name,
		MedianPrice:      &median,
		RentPerSqft:      &rent,
		AppreciationRate: &appreciation,
		TaxRate:          &tax,
		InventoryLevel:   &inventory,
		InventoryMonths:  &months,
		Trend:            &trend,
		DaysOnMarket:     &dom,
	}
}

// MarketSnapshots returns one snapshot per metro in Cities order.
func (g *Generator) MarketSnapshots() []models.MarketSnapshot {
	snaps := make([]models.MarketSnapshot, 0, len(Cities))
	for _, c := range Cities {
		snaps = append(snaps, g.MarketSnapshot(c))
	}
	return snaps
}

func (g *Generator) Neighborhood() models.Neighborhood {
	school := math.Round(g.between(2, 10)*10) / 10
	crime := math.Round(g.between(15, 95))
	growth := math.Round(g.between(-0.01, 0.06)*1000) / 1000
	return models.Neighborhood{SchoolRating: &school, CrimeScore: &crime, GrowthRate: &growth}
}

// Comparables returns n recent sales priced around p.
func (g *Generator) Comparables(p models.PropertyAttributes, n int) []models.Comparable {
	base := p.PricePerSqft()
	if base == 0 {
		base = 150
	}
	comps := make([]models.Comparable, 0, n)
	for i := 0; i < n; i++ {
		area := roundTo(p.LivingArea*g.between(0.85, 1.15), 10)
		ppsf := math.Round(base*g.between(1.05, 1.35)*100) / 100
		comps = append(comps, models.Comparable{
			Address:      fmt.Sprintf("%d Synthetic St, %s", g.intBetween(100, 9999), p.City),
			Price:        roundTo(area*ppsf, 100),
			LivingArea:   area,
			PricePerSqft: ppsf,
			DaysAgo:      g.intBetween(5, 180),
		})
	}
	return comps
}

// Buyer returns one synthetic cash buyer. About a third target a radius
// around a metro center instead of a state list.
func (g *Generator) Buyer() models.BuyerProfile {
	home := g.city()
	minPrice := roundTo(g.between(50000, 200000), 5000)
	maxPrice := minPrice + roundTo(g.between(100000, 400000), 5000)
	closing := g.intBetween(7, 45)

	b := models.BuyerProfile{
		ID:             g.id(),
		Name:           fmt.Sprintf("Synthetic Buyer %04d", g.rng.Intn(10000)),
		MinPrice:       &minPrice,
		MaxPrice:       &maxPrice,
		CashAvailable:  roundTo(g.between(50000, 1000000), 1000),
		DealsClosed:    g.intBetween(0, 60),
		AvgClosingDays: &closing,
	}
	if g.rng.Intn(2) == 0 {
		b.PropertyTypes = []string{models.PropertyTypeSingleFamily}
		if g.rng.Intn(2) == 0 {
			b.PropertyTypes = append(b.PropertyTypes, models.PropertyTypeMultiFamily)
		}
	}
	switch g.rng.Intn(3) {
	case 0:
		b.States = []string{home.State}
	case 1:
		b.Cities = []string{home.Name}
	default:
		b.TargetAreas = []models.GeoArea{{
			Name:     home.Name + " metro",
			Center:   &models.Location{Latitude: home.Latitude, Longitude: home.Longitude},
			RadiusKm: roundTo(g.between(10, 40), 5),
		}}
	}
	return b
}

func (g *Generator) Buyers(n int) []models.BuyerProfile {
	buyers := make([]models.BuyerProfile, 0, n)
	for i := 0; i < n; i++ {
		buyers = append(buyers, g.Buyer())
	}
	return buyers
}

// Input returns a complete analysis input: a property with market data,
// neighborhood scores and comparables for its metro.
func (g *Generator) Input() analysis.Input {
	c := g.city()
	p := g.PropertyIn(c)
	market := g.MarketSnapshot(c)
	n := g.Neighborhood()
	return analysis.Input{
		Property:     p,
		Market:       &market,
		Neighborhood: &n,
		Comparables:  g.Comparables(p, g.intBetween(0, 5)),
	}
}

func (g *Generator) Inputs(n int) []analysis.Input {
	inputs := make([]analysis.Input, 0, n)
	for i := 0; i < n; i++ {
		inputs = append(inputs, g.Input())
	}
	return inputs
}
