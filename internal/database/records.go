package database

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"dealgrade/server/internal/models"
)

// PropertyRecord is the stored form of PropertyAttributes. The searchable
// columns are duplicated out of the JSON document.
type PropertyRecord struct {
	ID           string          `gorm:"primaryKey;size:36"`
	State        string          `gorm:"size:2;index:idx_properties_location"`
	City         string          `gorm:"index:idx_properties_location"`
	PropertyType string          `gorm:"size:32"`
	LivingArea   float64         `gorm:"not null"`
	YearBuilt    int             `gorm:"not null"`
	ListPrice    decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	Condition    string          `gorm:"size:16"`
	Attributes   datatypes.JSONType[models.PropertyAttributes]
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (PropertyRecord) TableName() string { return "properties" }

// AnalysisRecord stores one analysis run: summary columns for listing and
// filtering, and the complete result document.
type AnalysisRecord struct {
	ID         string          `gorm:"primaryKey;size:36"`
	PropertyID string          `gorm:"size:36;index;not null"`
	State      string          `gorm:"size:2;index:idx_analyses_location"`
	City       string          `gorm:"index:idx_analyses_location"`
	Grade      string          `gorm:"size:1;index"`
	Score      float64         `gorm:"not null"`
	RiskLevel  string          `gorm:"size:8"`
	ARV        decimal.Decimal `gorm:"type:decimal(14,2)"`
	RehabTotal decimal.Decimal `gorm:"type:decimal(14,2)"`
	MaxOffer   decimal.Decimal `gorm:"type:decimal(14,2)"`
	Warnings   []string        `gorm:"serializer:json"`
	Result     datatypes.JSONType[models.AnalysisResult]
	CreatedAt  time.Time `gorm:"index"`

	Property PropertyRecord `gorm:"foreignKey:PropertyID;constraint:OnDelete:CASCADE"`
}

func (AnalysisRecord) TableName() string { return "analyses" }

type BuyerRecord struct {
	ID            string          `gorm:"primaryKey;size:36"`
	Name          string          `gorm:"not null"`
	CashAvailable decimal.Decimal `gorm:"type:decimal(14,2)"`
	States        []string        `gorm:"serializer:json"`
	Profile       datatypes.JSONType[models.BuyerProfile]
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (BuyerRecord) TableName() string { return "buyers" }

// MarketSnapshotRecord keeps the latest snapshot per state and city. An empty
// city holds the statewide snapshot.
type MarketSnapshotRecord struct {
	State     string `gorm:"primaryKey;size:2"`
	City      string `gorm:"primaryKey"`
	Snapshot  datatypes.JSONType[models.MarketSnapshot]
	UpdatedAt time.Time
}

func (MarketSnapshotRecord) TableName() string { return "market_snapshots" }

// AnalysisSummary is the list view of a stored analysis.
type AnalysisSummary struct {
	ID         string    `json:"id"`
	PropertyID string    `json:"property_id"`
	State      string    `json:"state"`
	City       string    `json:"city"`
	Grade      string    `json:"grade"`
	Score      float64   `json:"score"`
	RiskLevel  string    `json:"risk_level"`
	ARV        float64   `json:"arv"`
	RehabTotal float64   `json:"rehab_total"`
	MaxOffer   float64   `json:"max_offer"`
	CreatedAt  time.Time `json:"created_at"`
}

// AnalysisFilter narrows ListAnalyses. Zero values match everything.
type AnalysisFilter struct {
	Grade string
	State string
	City  string
	Limit int
}

func newPropertyRecord(p models.PropertyAttributes) PropertyRecord {
	return PropertyRecord{
		ID:           p.ID,
		State:        normalizeState(p.State),
		City:         normalizeCity(p.City),
		PropertyType: p.PropertyType,
		LivingArea:   p.LivingArea,
		YearBuilt:    p.YearBuilt,
		ListPrice:    money(p.ListPrice),
		Condition:    string(p.Condition),
		Attributes:   datatypes.NewJSONType(p),
	}
}

func newAnalysisRecord(r *models.AnalysisResult, primaryRule float64) AnalysisRecord {
	offer, _ := r.Strategies.Wholesale.OfferAt(primaryRule)
	return AnalysisRecord{
		ID:         r.ID,
		PropertyID: r.Property.ID,
		State:      normalizeState(r.Property.State),
		City:       normalizeCity(r.Property.City),
		Grade:      r.Grade.Letter,
		Score:      r.Grade.Score,
		RiskLevel:  r.Risk.Level,
		ARV:        money(r.Value.ARV),
		RehabTotal: money(r.Rehab.Total),
		MaxOffer:   money(offer.MaxOffer),
		Warnings:   r.Warnings,
		Result:     datatypes.NewJSONType(*r),
	}
}

func (r AnalysisRecord) summary() AnalysisSummary {
	return AnalysisSummary{
		ID:         r.ID,
		PropertyID: r.PropertyID,
		State:      r.State,
		City:       r.City,
		Grade:      r.Grade,
		Score:      r.Score,
		RiskLevel:  r.RiskLevel,
		ARV:        r.ARV.InexactFloat64(),
		RehabTotal: r.RehabTotal.InexactFloat64(),
		MaxOffer:   r.MaxOffer.InexactFloat64(),
		CreatedAt:  r.CreatedAt,
	}
}

func newBuyerRecord(b models.BuyerProfile) BuyerRecord {
	states := make([]string, 0, len(b.States))
	for _, s := range b.States {
		states = append(states, normalizeState(s))
	}
	return BuyerRecord{
		ID:            b.ID,
		Name:          b.Name,
		CashAvailable: money(b.CashAvailable),
		States:        states,
		Profile:       datatypes.NewJSONType(b),
	}
}

func money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}

func normalizeState(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func normalizeCity(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
