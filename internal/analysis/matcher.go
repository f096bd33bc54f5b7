package analysis

import (
	"fmt"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/planar"

	"dealgrade/server/internal/models"
)

// MatchBuyers scores every buyer against the property and offer, drops those
// below the minimum score and ranks the rest.
func MatchBuyers(attrs models.PropertyAttributes, offer float64, buyers []models.BuyerProfile, t MatchingTable) []models.MatchResult {
	results := make([]models.MatchResult, 0, len(buyers))
	closing := make(map[string]*int, len(buyers))

	for i := range buyers {
		b := &buyers[i]
		score, reasons := scoreBuyer(attrs, offer, b, t)
		if score < t.MinScore {
			continue
		}
		results = append(results, models.MatchResult{
			BuyerID:       b.ID,
			BuyerName:     b.Name,
			Score:         score,
			Reasons:       reasons,
			CashAvailable: b.CashAvailable,
		})
		closing[b.ID] = b.AvgClosingDays
	}

	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.CashAvailable != b.CashAvailable {
			return a.CashAvailable > b.CashAvailable
		}
		ca, cb := closing[a.BuyerID], closing[b.BuyerID]
		switch {
		case ca != nil && cb != nil && *ca != *cb:
			return *ca < *cb
		case ca != nil && cb == nil:
			return true
		case ca == nil && cb != nil:
			return false
		}
		return a.BuyerID < b.BuyerID
	})

	for i := range results {
		results[i].Rank = i + 1
	}
	return results
}

func scoreBuyer(attrs models.PropertyAttributes, offer float64, b *models.BuyerProfile, t MatchingTable) (float64, []string) {
	var score float64
	var reasons []string

	price := attrs.ListPrice
	switch {
	case b.InPriceRange(price):
		score += t.PriceFitPoints
		reasons = append(reasons, "Price in buy box")
	case nearPriceRange(price, b, t.PriceTolerance):
		score += t.PriceNearPoints
		reasons = append(reasons, fmt.Sprintf("Price within %.0f%% of buy box", t.PriceTolerance*100))
	}

	if b.AcceptsType(attrs.PropertyType) {
		score += t.TypePoints
		reasons = append(reasons, "Property type match")
	}

	if reason, ok := geographyFit(attrs, b); ok {
		score += t.GeoPoints
		reasons = append(reasons, reason)
	}

	switch {
	case b.CashAvailable >= offer:
		score += t.CashFullPoints
		reasons = append(reasons, "Sufficient cash")
	case b.CashAvailable >= offer*t.CashPartialRatio:
		score += t.CashPartialPoints
		reasons = append(reasons, "Partial cash")
	}

	if b.AvgClosingDays != nil && *b.AvgClosingDays <= t.FastCloserDays {
		reasons = append(reasons, "Fast closer")
	}
	return score, reasons
}

// nearPriceRange reports whether price falls outside the buy box by no more
// than tolerance of the violated bound.
func nearPriceRange(price float64, b *models.BuyerProfile, tolerance float64) bool {
	if b.MinPrice != nil && price < *b.MinPrice {
		return price >= *b.MinPrice*(1-tolerance) && (b.MaxPrice == nil || price <= *b.MaxPrice)
	}
	if b.MaxPrice != nil && price > *b.MaxPrice {
		return price <= *b.MaxPrice*(1+tolerance)
	}
	return false
}

func geographyFit(attrs models.PropertyAttributes, b *models.BuyerProfile) (string, bool) {
	if !b.HasGeography() {
		return "No geographic restriction", true
	}
	if b.TargetsCity(attrs.City) {
		return "Target city", true
	}
	if b.TargetsState(attrs.State) {
		return "Target state", true
	}
	if attrs.Location == nil {
		return "", false
	}
	p := orb.Point{attrs.Location.Longitude, attrs.Location.Latitude}
	for _, area := range b.TargetAreas {
		if inArea(p, area) {
			return fmt.Sprintf("Inside target area %s", area.Name), true
		}
	}
	return "", false
}

func inArea(p orb.Point, area models.GeoArea) bool {
	if area.Center != nil && area.RadiusKm > 0 {
		center := orb.Point{area.Center.Longitude, area.Center.Latitude}
		if geo.Distance(center, p) <= area.RadiusKm*1000 {
			return true
		}
	}
	if len(area.Perimeter) >= 3 {
		ring := make(orb.Ring, 0, len(area.Perimeter)+1)
		for _, c := range area.Perimeter {
			ring = append(ring, orb.Point{c[0], c[1]})
		}
		if !ring.Closed() {
			ring = append(ring, ring[0])
		}
		return planar.PolygonContains(orb.Polygon{ring}, p)
	}
	return false
}
