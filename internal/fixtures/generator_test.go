package fixtures

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealgrade/server/internal/analysis"
)

func TestGenerator_IsDeterministic(t *testing.T) {
	a := NewGenerator(42, 2020)
	b := NewGenerator(42, 2020)

	assert.Equal(t, a.Inputs(10), b.Inputs(10))
	assert.Equal(t, a.Buyers(10), b.Buyers(10))
	assert.Equal(t, a.MarketSnapshots(), b.MarketSnapshots())

	c := NewGenerator(43, 2020)
	assert.NotEqual(t, NewGenerator(42, 2020).Properties(5), c.Properties(5))
}

func TestGenerator_InputsAnalyze(t *testing.T) {
	analyzer, err := analysis.NewAnalyzer(analysis.DefaultAssumptions().AsOf(2020))
	require.NoError(t, err)

	g := NewGenerator(7, 2020)
	for i, in := range g.Inputs(50) {
		assert.LessOrEqual(t, in.Property.YearBuilt, 2020)
		assert.NotEmpty(t, in.Property.ID)

		result, err := analyzer.Analyze(in)
		require.NoError(t, err, "input %d", i)
		assert.NotEmpty(t, result.Grade.Letter)
	}
}

func TestGenerator_Buyers(t *testing.T) {
	g := NewGenerator(1, 2020)
	seen := map[string]bool{}

	for _, b := range g.Buyers(30) {
		assert.False(t, seen[b.ID], "duplicate id %s", b.ID)
		seen[b.ID] = true

		require.NotNil(t, b.MinPrice)
		require.NotNil(t, b.MaxPrice)
		assert.Less(t, *b.MinPrice, *b.MaxPrice)
		assert.True(t, b.HasGeography())
		assert.Positive(t, b.CashAvailable)
	}
}

func TestGenerator_MarketSnapshots(t *testing.T) {
	snaps := NewGenerator(1, 2020).MarketSnapshots()
	require.Len(t, snaps, len(Cities))

	for i, s := range snaps {
		assert.Equal(t, Cities[i].State, s.State)
		assert.Equal(t, Cities[i].Name, s.City)
		assert.NotNil(t, s.RentPerSqft)
		assert.NotNil(t, s.Trend)
	}
}
