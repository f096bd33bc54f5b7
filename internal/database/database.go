package database

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"dealgrade/server/internal/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// defaultListLimit caps ListAnalyses when the filter sets no limit.
const defaultListLimit = 50

type Database struct {
	db          *gorm.DB
	logger      *logrus.Logger
	primaryRule float64
}

// NewDatabase opens the sqlite database at dbPath. primaryRule selects the
// wholesale offer stored in the summary columns.
func NewDatabase(dbPath string, primaryRule float64, logger *logrus.Logger) (*Database, error) {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys
	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &Database{db: db, logger: logger, primaryRule: primaryRule}, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// GetDB exposes the underlying handle for seeding and tests.
func (d *Database) GetDB() *gorm.DB {
	return d.db
}

// SaveAnalysis stores the property and the analysis in one transaction,
// assigning identifiers to both when missing.
func (d *Database) SaveAnalysis(ctx context.Context, result *models.AnalysisResult) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return d.saveAnalysis(tx, result)
	})
}

// SaveAnalyses stores a batch atomically: either every analysis is written
// or none is.
func (d *Database) SaveAnalyses(ctx context.Context, results []*models.AnalysisResult) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, r := range results {
			if err := d.saveAnalysis(tx, r); err != nil {
				return err
			}
		}
		return nil
	})
}

func (d *Database) saveAnalysis(tx *gorm.DB, result *models.AnalysisResult) error {
	if result.Property.ID == "" {
		result.Property.ID = uuid.NewString()
	}
	if result.ID == "" {
		result.ID = uuid.NewString()
	}

	prop := newPropertyRecord(result.Property)
	if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&prop).Error; err != nil {
		return fmt.Errorf("failed to upsert property %s: %w", prop.ID, err)
	}

	rec := newAnalysisRecord(result, d.primaryRule)
	if err := tx.Omit("Property").Create(&rec).Error; err != nil {
		if isConstraintViolation(err) {
			return fmt.Errorf("analysis %s: %w", rec.ID, ErrDuplicate)
		}
		return fmt.Errorf("failed to insert analysis %s: %w", rec.ID, err)
	}
	return nil
}

func isConstraintViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint
}

func (d *Database) GetAnalysis(ctx context.Context, id string) (*models.AnalysisResult, error) {
	var rec AnalysisRecord
	err := d.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query analysis: %w", err)
	}
	result := rec.Result.Data()
	return &result, nil
}

// ListAnalyses returns summaries, newest first.
func (d *Database) ListAnalyses(ctx context.Context, filter AnalysisFilter) ([]AnalysisSummary, error) {
	q := d.db.WithContext(ctx).Model(&AnalysisRecord{}).Omit("result")
	if filter.Grade != "" {
		q = q.Where("grade = ?", filter.Grade)
	}
	if filter.State != "" {
		q = q.Where("state = ?", normalizeState(filter.State))
	}
	if filter.City != "" {
		q = q.Where("city = ?", normalizeCity(filter.City))
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	var recs []AnalysisRecord
	if err := q.Order("created_at DESC").Order("id").Limit(limit).Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to query analyses: %w", err)
	}

	summaries := make([]AnalysisSummary, 0, len(recs))
	for _, r := range recs {
		summaries = append(summaries, r.summary())
	}
	return summaries, nil
}

func (d *Database) GetProperty(ctx context.Context, id string) (*models.PropertyAttributes, error) {
	var rec PropertyRecord
	err := d.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query property: %w", err)
	}
	attrs := rec.Attributes.Data()
	return &attrs, nil
}

// SaveBuyer inserts or replaces a buyer, assigning an ID when missing.
func (d *Database) SaveBuyer(ctx context.Context, buyer *models.BuyerProfile) error {
	if buyer.ID == "" {
		buyer.ID = uuid.NewString()
	}
	rec := newBuyerRecord(*buyer)
	if err := d.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&rec).Error; err != nil {
		return fmt.Errorf("failed to save buyer %s: %w", buyer.ID, err)
	}
	return nil
}

func (d *Database) GetBuyer(ctx context.Context, id string) (*models.BuyerProfile, error) {
	var rec BuyerRecord
	err := d.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query buyer: %w", err)
	}
	buyer := rec.Profile.Data()
	return &buyer, nil
}

func (d *Database) ListBuyers(ctx context.Context) ([]models.BuyerProfile, error) {
	var recs []BuyerRecord
	if err := d.db.WithContext(ctx).Order("name").Order("id").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to query buyers: %w", err)
	}
	buyers := make([]models.BuyerProfile, 0, len(recs))
	for _, r := range recs {
		buyers = append(buyers, r.Profile.Data())
	}
	return buyers, nil
}

// SaveMarketSnapshot replaces the snapshot for its state and city.
func (d *Database) SaveMarketSnapshot(ctx context.Context, snap models.MarketSnapshot) error {
	snap.State = normalizeState(snap.State)
	if snap.State == "" {
		return fmt.Errorf("market snapshot requires a state")
	}
	rec := MarketSnapshotRecord{
		State:    snap.State,
		City:     normalizeCity(snap.City),
		Snapshot: datatypes.NewJSONType(snap),
	}
	if err := d.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&rec).Error; err != nil {
		return fmt.Errorf("failed to save market snapshot %s/%s: %w", rec.State, rec.City, err)
	}
	return nil
}

// GetMarketSnapshot returns the city snapshot, falling back to the statewide
// one.
func (d *Database) GetMarketSnapshot(ctx context.Context, state, city string) (*models.MarketSnapshot, error) {
	state, city = normalizeState(state), normalizeCity(city)

	var rec MarketSnapshotRecord
	err := d.db.WithContext(ctx).
		Where("state = ? AND city IN ?", state, []string{city, ""}).
		Order("city DESC").
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query market snapshot: %w", err)
	}
	snap := rec.Snapshot.Data()
	return &snap, nil
}

func (d *Database) ListMarketSnapshots(ctx context.Context) ([]models.MarketSnapshot, error) {
	var recs []MarketSnapshotRecord
	if err := d.db.WithContext(ctx).Order("state").Order("city").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to query market snapshots: %w", err)
	}
	snaps := make([]models.MarketSnapshot, 0, len(recs))
	for _, r := range recs {
		snaps = append(snaps, r.Snapshot.Data())
	}
	return snaps, nil
}
