package database

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealgrade/server/internal/analysis"
	"dealgrade/server/internal/models"
)

func setupTestDB(t *testing.T) *Database {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	db, err := NewDatabase(filepath.Join(t.TempDir(), "test.db"), 0.70, logger)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())
	t.Cleanup(func() { db.Close() })
	return db
}

func analyze(t *testing.T, p models.PropertyAttributes) *models.AnalysisResult {
	t.Helper()

	analyzer, err := analysis.NewAnalyzer(analysis.DefaultAssumptions().AsOf(2020))
	require.NoError(t, err)
	result, err := analyzer.Analyze(analysis.Input{Property: p})
	require.NoError(t, err)
	return result
}

func testProperty(id, city, state string, price float64) models.PropertyAttributes {
	return models.PropertyAttributes{
		ID:           id,
		City:         city,
		State:        state,
		PropertyType: models.PropertyTypeSingleFamily,
		Bedrooms:     3,
		Bathrooms:    2,
		LivingArea:   1800,
		YearBuilt:    1995,
		ListPrice:    price,
		Condition:    models.ConditionFair,
	}
}

func TestSaveAndGetAnalysis(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	result := analyze(t, testProperty("", "Houston", "TX", 250000))
	require.NoError(t, db.SaveAnalysis(ctx, result))

	assert.NotEmpty(t, result.ID)
	assert.NotEmpty(t, result.Property.ID)

	got, err := db.GetAnalysis(ctx, result.ID)
	require.NoError(t, err)
	assert.Equal(t, result.ID, got.ID)
	assert.InDelta(t, result.Value.ARV, got.Value.ARV, 1e-6)
	assert.Equal(t, result.Grade.Letter, got.Grade.Letter)
	assert.Equal(t, result.Warnings, got.Warnings)
	assert.Len(t, got.Strategies.Wholesale.Offers, len(result.Strategies.Wholesale.Offers))

	prop, err := db.GetProperty(ctx, result.Property.ID)
	require.NoError(t, err)
	assert.Equal(t, "Houston", prop.City)
	assert.InDelta(t, 250000, prop.ListPrice, 1e-6)
}

func TestGetAnalysis_NotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.GetAnalysis(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = db.GetProperty(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveAnalysis_ReanalyzedPropertyIsUpdated(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	first := analyze(t, testProperty("prop-1", "Houston", "TX", 250000))
	require.NoError(t, db.SaveAnalysis(ctx, first))

	second := analyze(t, testProperty("prop-1", "Houston", "TX", 240000))
	require.NoError(t, db.SaveAnalysis(ctx, second))
	assert.NotEqual(t, first.ID, second.ID)

	var properties int64
	require.NoError(t, db.GetDB().Model(&PropertyRecord{}).Count(&properties).Error)
	assert.Equal(t, int64(1), properties)

	prop, err := db.GetProperty(ctx, "prop-1")
	require.NoError(t, err)
	assert.InDelta(t, 240000, prop.ListPrice, 1e-6)

	summaries, err := db.ListAnalyses(ctx, AnalysisFilter{})
	require.NoError(t, err)
	assert.Len(t, summaries, 2)
}

func TestListAnalyses_Filters(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	results := []*models.AnalysisResult{
		analyze(t, testProperty("", "Houston", "TX", 250000)),
		analyze(t, testProperty("", "Austin", "TX", 300000)),
		analyze(t, testProperty("", "Phoenix", "AZ", 275000)),
	}
	require.NoError(t, db.SaveAnalyses(ctx, results))

	tests := []struct {
		name   string
		filter AnalysisFilter
		want   int
	}{
		{name: "no filter", filter: AnalysisFilter{}, want: 3},
		{name: "state is case insensitive", filter: AnalysisFilter{State: "tx"}, want: 2},
		{name: "city", filter: AnalysisFilter{City: "PHOENIX"}, want: 1},
		{name: "state and city", filter: AnalysisFilter{State: "TX", City: "Austin"}, want: 1},
		{name: "limit", filter: AnalysisFilter{Limit: 2}, want: 2},
		{name: "grade", filter: AnalysisFilter{Grade: results[0].Grade.Letter}, want: countGrade(results, results[0].Grade.Letter)},
		{name: "unknown state", filter: AnalysisFilter{State: "NY"}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summaries, err := db.ListAnalyses(ctx, tt.filter)
			require.NoError(t, err)
			assert.Len(t, summaries, tt.want)
			assert.NotNil(t, summaries)
		})
	}
}

func countGrade(results []*models.AnalysisResult, letter string) int {
	n := 0
	for _, r := range results {
		if r.Grade.Letter == letter {
			n++
		}
	}
	return n
}

func TestListAnalyses_SummaryColumns(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	result := analyze(t, testProperty("", " Houston ", "tx", 250000))
	require.NoError(t, db.SaveAnalysis(ctx, result))

	summaries, err := db.ListAnalyses(ctx, AnalysisFilter{})
	require.NoError(t, err)
	require.Len(t, summaries, 1)

	s := summaries[0]
	offer, ok := result.Strategies.Wholesale.OfferAt(0.70)
	require.True(t, ok)

	assert.Equal(t, result.ID, s.ID)
	assert.Equal(t, "TX", s.State)
	assert.Equal(t, "houston", s.City)
	assert.Equal(t, result.Grade.Letter, s.Grade)
	assert.Equal(t, result.Risk.Level, s.RiskLevel)
	assert.InDelta(t, result.Value.ARV, s.ARV, 0.01)
	assert.InDelta(t, result.Rehab.Total, s.RehabTotal, 0.01)
	assert.InDelta(t, offer.MaxOffer, s.MaxOffer, 0.01)
	assert.False(t, s.CreatedAt.IsZero())
}

func TestSaveAnalyses_RollsBackOnFailure(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	good := analyze(t, testProperty("", "Houston", "TX", 250000))
	dup := analyze(t, testProperty("", "Austin", "TX", 300000))
	dup.ID = "same-id"
	again := analyze(t, testProperty("", "Dallas", "TX", 200000))
	again.ID = "same-id"

	err := db.SaveAnalyses(ctx, []*models.AnalysisResult{good, dup, again})
	require.ErrorIs(t, err, ErrDuplicate)

	summaries, err := db.ListAnalyses(ctx, AnalysisFilter{})
	require.NoError(t, err)
	assert.Empty(t, summaries)
}

func TestBuyers(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	maxPrice := 200000.0
	zed := &models.BuyerProfile{Name: "Zed Capital", States: []string{"tx"}, CashAvailable: 500000, MaxPrice: &maxPrice}
	acme := &models.BuyerProfile{Name: "Acme Homes", CashAvailable: 150000}

	require.NoError(t, db.SaveBuyer(ctx, zed))
	require.NoError(t, db.SaveBuyer(ctx, acme))
	assert.NotEmpty(t, zed.ID)

	buyers, err := db.ListBuyers(ctx)
	require.NoError(t, err)
	require.Len(t, buyers, 2)
	assert.Equal(t, "Acme Homes", buyers[0].Name)
	assert.Equal(t, "Zed Capital", buyers[1].Name)
	require.NotNil(t, buyers[1].MaxPrice)
	assert.InDelta(t, 200000, *buyers[1].MaxPrice, 1e-6)

	got, err := db.GetBuyer(ctx, zed.ID)
	require.NoError(t, err)
	assert.Equal(t, "Zed Capital", got.Name)
	_, err = db.GetBuyer(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	zed.CashAvailable = 750000
	require.NoError(t, db.SaveBuyer(ctx, zed))

	buyers, err = db.ListBuyers(ctx)
	require.NoError(t, err)
	require.Len(t, buyers, 2)
	assert.InDelta(t, 750000, buyers[1].CashAvailable, 1e-6)
}

func TestMarketSnapshots(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	statewide := 0.9
	houston := 1.1
	require.NoError(t, db.SaveMarketSnapshot(ctx, models.MarketSnapshot{State: "tx", RentPerSqft: &statewide}))
	require.NoError(t, db.SaveMarketSnapshot(ctx, models.MarketSnapshot{State: "TX", City: "Houston", RentPerSqft: &houston}))

	tests := []struct {
		name     string
		state    string
		city     string
		wantRent float64
		wantErr  error
	}{
		{name: "city snapshot", state: "TX", city: "houston", wantRent: 1.1},
		{name: "falls back to state", state: "tx", city: "Austin", wantRent: 0.9},
		{name: "state only", state: "TX", city: "", wantRent: 0.9},
		{name: "unknown state", state: "AZ", city: "Phoenix", wantErr: ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap, err := db.GetMarketSnapshot(ctx, tt.state, tt.city)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, snap.RentPerSqft)
			assert.InDelta(t, tt.wantRent, *snap.RentPerSqft, 1e-9)
		})
	}

	// Saving again replaces the city snapshot
	houston = 1.25
	require.NoError(t, db.SaveMarketSnapshot(ctx, models.MarketSnapshot{State: "TX", City: "Houston", RentPerSqft: &houston}))
	snaps, err := db.ListMarketSnapshots(ctx)
	require.NoError(t, err)
	assert.Len(t, snaps, 2)

	assert.Error(t, db.SaveMarketSnapshot(ctx, models.MarketSnapshot{City: "Nowhere"}))
}
