package database

import "fmt"

// RunMigrations creates or updates every table the store uses.
func (d *Database) RunMigrations() error {
	tables := []interface{}{
		&PropertyRecord{},
		&AnalysisRecord{},
		&BuyerRecord{},
		&MarketSnapshotRecord{},
	}
	for _, m := range tables {
		if err := d.db.AutoMigrate(m); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", m, err)
		}
	}

	// Listing by grade is always newest first
	if err := d.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_analyses_grade_created
		ON analyses(grade, created_at DESC);
	`).Error; err != nil {
		return fmt.Errorf("failed to create analyses index: %w", err)
	}

	d.logger.WithField("tables", len(tables)).Info("Database migrations complete")
	return nil
}
