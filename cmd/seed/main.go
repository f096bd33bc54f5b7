// Command seed fills a database with SYNTHETIC demo data: market snapshots
// for every fixture metro, a buyer registry and analyzed properties.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/sirupsen/logrus"

	"dealgrade/server/config"
	"dealgrade/server/internal/analysis"
	"dealgrade/server/internal/database"
	"dealgrade/server/internal/fixtures"
	"dealgrade/server/internal/models"
)

func main() {
	properties := flag.Int("properties", 50, "number of properties to analyze")
	buyers := flag.Int("buyers", 20, "number of buyers to register")
	seed := flag.Int64("seed", 1, "generator seed")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	analyzer, err := analysis.NewAnalyzer(cfg.Assumptions)
	if err != nil {
		logger.WithError(err).Fatal("Invalid analysis assumptions")
	}

	db, err := database.NewDatabase(cfg.Database.Path, cfg.Assumptions.PrimaryRule(), logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database")
	}
	defer db.Close()
	if err := db.RunMigrations(); err != nil {
		logger.WithError(err).Fatal("Failed to run database migrations")
	}

	ctx := context.Background()
	gen := fixtures.NewGenerator(*seed, cfg.Assumptions.ValuationYear)

	for _, snap := range gen.MarketSnapshots() {
		if err := db.SaveMarketSnapshot(ctx, snap); err != nil {
			logger.WithError(err).Fatal("Failed to save market snapshot")
		}
	}

	for _, b := range gen.Buyers(*buyers) {
		b := b
		if err := db.SaveBuyer(ctx, &b); err != nil {
			logger.WithError(err).Fatal("Failed to save buyer")
		}
	}

	results := make([]*models.AnalysisResult, 0, *properties)
	for _, in := range gen.Inputs(*properties) {
		result, err := analyzer.Analyze(in)
		if err != nil {
			logger.WithError(err).WithField("property_id", in.Property.ID).Warn("Skipping property")
			continue
		}
		results = append(results, result)
	}
	if err := db.SaveAnalyses(ctx, results); err != nil {
		logger.WithError(err).Fatal("Failed to save analyses")
	}

	logger.WithFields(logrus.Fields{
		"markets":  len(fixtures.Cities),
		"buyers":   *buyers,
		"analyses": len(results),
		"database": cfg.Database.Path,
	}).Info("Seeded synthetic demo data")
}
