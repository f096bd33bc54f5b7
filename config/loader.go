package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dealgrade/server/internal/analysis"
	"dealgrade/server/internal/models"
)

// MarketTable is the optional market data file. StateMultipliers replace the
// built-in entries for the states they name; Snapshots seed the stored
// market snapshots.
type MarketTable struct {
	StateMultipliers  map[string]float64      `json:"state_multipliers"`
	DefaultMultiplier *float64                `json:"default_multiplier,omitempty"`
	Snapshots         []models.MarketSnapshot `json:"snapshots"`
}

// LoadMarketTable reads and validates a market table file.
func LoadMarketTable(path string) (*MarketTable, error) {
	// Get absolute path to config file
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read market table: %w", err)
	}

	var table MarketTable
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to parse market table: %w", err)
	}

	for state, m := range table.StateMultipliers {
		if m <= 0 {
			return nil, fmt.Errorf("market table: multiplier for %s must be positive", state)
		}
	}
	if table.DefaultMultiplier != nil && *table.DefaultMultiplier <= 0 {
		return nil, fmt.Errorf("market table: default multiplier must be positive")
	}
	for i, snap := range table.Snapshots {
		if strings.TrimSpace(snap.State) == "" {
			return nil, fmt.Errorf("market table: snapshot %d has no state", i)
		}
	}
	return &table, nil
}

// Apply merges the multipliers into a. The built-in map is copied, never
// mutated.
func (t *MarketTable) Apply(a *analysis.Assumptions) {
	merged := make(map[string]float64, len(a.Value.StateMultipliers)+len(t.StateMultipliers))
	for state, m := range a.Value.StateMultipliers {
		merged[state] = m
	}
	for state, m := range t.StateMultipliers {
		merged[strings.ToUpper(strings.TrimSpace(state))] = m
	}
	a.Value.StateMultipliers = merged
	if t.DefaultMultiplier != nil {
		a.Value.DefaultMultiplier = *t.DefaultMultiplier
	}
}
