package models

import "strings"

// GeoArea is a buyer target area: either a radius around a center or a
// closed polygon ring of [longitude, latitude] pairs.
type GeoArea struct {
	Name      string       `json:"name"`
	Center    *Location    `json:"center,omitempty"`
	RadiusKm  float64      `json:"radius_km,omitempty"`
	Perimeter [][2]float64 `json:"perimeter,omitempty"`
}

// BuyerProfile is a cash buyer's buy box.
type BuyerProfile struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	MinPrice       *float64  `json:"min_price,omitempty"`
	MaxPrice       *float64  `json:"max_price,omitempty"`
	PropertyTypes  []string  `json:"property_types,omitempty"`
	States         []string  `json:"states,omitempty"`
	Cities         []string  `json:"cities,omitempty"`
	TargetAreas    []GeoArea `json:"target_areas,omitempty"`
	CashAvailable  float64   `json:"cash_available"`
	DealsClosed    int       `json:"deals_closed"`
	AvgClosingDays *int      `json:"avg_closing_days,omitempty"`
}

// HasGeography reports whether the buyer restricts locations at all.
func (b *BuyerProfile) HasGeography() bool {
	return len(b.States) > 0 || len(b.Cities) > 0 || len(b.TargetAreas) > 0
}

// AcceptsType checks the property type against the buyer's list. An empty
// list accepts every type.
func (b *BuyerProfile) AcceptsType(propertyType string) bool {
	if len(b.PropertyTypes) == 0 {
		return true
	}
	return containsFold(b.PropertyTypes, propertyType)
}

// InPriceRange checks price against the optional bounds.
func (b *BuyerProfile) InPriceRange(price float64) bool {
	if b.MinPrice != nil && price < *b.MinPrice {
		return false
	}
	if b.MaxPrice != nil && price > *b.MaxPrice {
		return false
	}
	return true
}

// TargetsState reports whether the state is on the buyer's list.
func (b *BuyerProfile) TargetsState(state string) bool {
	return containsFold(b.States, state)
}

// TargetsCity reports whether the city is on the buyer's list.
func (b *BuyerProfile) TargetsCity(city string) bool {
	return containsFold(b.Cities, city)
}

func containsFold(values []string, v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return false
	}
	for _, candidate := range values {
		if strings.EqualFold(strings.TrimSpace(candidate), v) {
			return true
		}
	}
	return false
}
