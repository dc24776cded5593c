// Package store is the optional supplemental persistence layer (gated
// behind store.enabled): a queryable archive of finalized scans, separate
// from the Registry's in-memory authoritative lifecycle state. The Registry
// remains the source of truth for an in-flight scan; this package only ever
// records terminal results.
package store

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/openaudit/a11yscan/pkg/model"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// BaseUUIDModel is a UUID primary key plus timestamps, used in place of
// gorm's default auto-increment int ID.
type BaseUUIDModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (b *BaseUUIDModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// ScanRecord is the archived, read-only view of one finished scan.
type ScanRecord struct {
	BaseUUIDModel
	ScanID          string `gorm:"uniqueIndex"`
	URL             string
	CompanyName     string
	Mode            string
	Phase           string
	FailureReason   string
	OverallScore    int
	ComplianceLevel string
	StartedAt       time.Time
	EndedAt         time.Time
	ResultJSON      string `gorm:"type:text"`

	Violations []ViolationRecord `gorm:"foreignKey:ScanRecordID"`
}

// ViolationRecord is one aggregated Violation belonging to a ScanRecord,
// broken out into its own table for the filter+pagination query pattern
// below.
type ViolationRecord struct {
	BaseUUIDModel
	ScanRecordID    uuid.UUID `gorm:"type:uuid;index"`
	Code            string
	WCAGCriterion   string
	Severity        string
	Principle       string
	Message         string
	OccurrenceCount int
}

// Store wraps a gorm.DB, defaulting to sqlite with postgres selectable via
// config.
type Store struct {
	db *gorm.DB
}

// Config selects the backing dialector.
type Config struct {
	Type string // "sqlite" or "postgres"
	DSN  string
}

// Open connects and runs AutoMigrate for the archive tables.
func Open(cfg Config) (*Store, error) {
	var dialector gorm.Dialector
	switch cfg.Type {
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		dsn := cfg.DSN
		if dsn == "" {
			dsn = "a11yscan.db"
		}
		dialector = sqlite.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&ScanRecord{}, &ViolationRecord{}); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Archive persists a finalized ScanResult. Never called for Pending/Running
// states; only Completed, Failed, or Cancelled scans are archived.
func (s *Store) Archive(state model.ScanState) error {
	body, err := json.Marshal(state.Result)
	if err != nil {
		log.Warn().Err(err).Str("scan", state.ScanID).Msg("store: could not marshal result for archive")
		body = []byte("{}")
	}

	record := ScanRecord{
		ScanID:        state.ScanID,
		Phase:         string(state.Phase),
		FailureReason: state.FailureReason,
		ResultJSON:    string(body),
	}

	if state.Result != nil {
		record.URL = state.Result.Request.URL
		record.CompanyName = state.Result.Request.CompanyName
		record.Mode = string(state.Result.Request.Mode)
		record.OverallScore = state.Result.Metrics.OverallScore
		record.ComplianceLevel = string(state.Result.Metrics.ComplianceLevel)
		record.StartedAt = state.Result.StartedAt
		record.EndedAt = state.Result.EndedAt

		for _, v := range state.Result.Violations {
			record.Violations = append(record.Violations, ViolationRecord{
				Code:            v.Code,
				WCAGCriterion:   v.WCAGCriterion,
				Severity:        string(v.Severity),
				Principle:       string(model.PrincipleFromCriterion(v.WCAGCriterion)),
				Message:         v.Message,
				OccurrenceCount: v.OccurrenceCount,
			})
		}
	}

	return s.db.Create(&record).Error
}

// ListFilter narrows a List query; zero values are unfiltered.
type ListFilter struct {
	CompanyName string
	MinScore    int
	Page        int
	PageSize    int
}

// List applies ListFilter with offset pagination.
func (s *Store) List(filter ListFilter) ([]ScanRecord, error) {
	q := s.db.Model(&ScanRecord{})
	if filter.CompanyName != "" {
		q = q.Where("company_name = ?", filter.CompanyName)
	}
	if filter.MinScore > 0 {
		q = q.Where("overall_score >= ?", filter.MinScore)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}

	var records []ScanRecord
	err := q.Order("created_at desc").Offset((page - 1) * size).Limit(size).Find(&records).Error
	return records, err
}

// Get fetches one archived scan with its violations preloaded.
func (s *Store) Get(scanID string) (*ScanRecord, error) {
	var record ScanRecord
	err := s.db.Preload("Violations").Where("scan_id = ?", scanID).First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}
