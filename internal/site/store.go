package site

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/AgriSight/AS-Backend/internal/db"
)

// ReportRecord is the persisted form of a completed site report. The full
// report body is kept as JSON; the scalar columns exist for querying.
type ReportRecord struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt          int64     `gorm:"autoCreateTime"`
	Source             string
	CentroidLat        float64
	CentroidLon        float64
	SuccessProbability float64
	Notes              pq.StringArray `gorm:"type:text[]"`
	Body               []byte         `gorm:"type:jsonb"`
}

func (ReportRecord) TableName() string { return "agrisight.site_reports" }

// Store persists completed reports.
type Store struct {
	db *gorm.DB
}

// NewStore prepares the schema and report table.
func NewStore(d *gorm.DB) (*Store, error) {
	if err := db.EnsureSchema(d, "agrisight"); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	if err := d.AutoMigrate(&ReportRecord{}); err != nil {
		return nil, fmt.Errorf("migrate site_reports: %w", err)
	}
	return &Store{db: d}, nil
}

// Save upserts one report keyed by its request ID.
func (s *Store) Save(report *SiteReport) error {
	id, err := uuid.Parse(report.ID)
	if err != nil {
		return fmt.Errorf("report id: %w", err)
	}
	body, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	rec := ReportRecord{
		ID:                 id,
		Source:             report.Source,
		CentroidLat:        report.Centroid.Lat,
		CentroidLon:        report.Centroid.Lon,
		SuccessProbability: report.SuccessProbability,
		Notes:              pq.StringArray(report.Notes),
		Body:               body,
	}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&rec).Error
}

// Get loads one stored report by ID.
func (s *Store) Get(id string) (*SiteReport, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed report id", ErrValidation)
	}

	var rec ReportRecord
	if err := s.db.First(&rec, "id = ?", parsed).Error; err != nil {
		return nil, err
	}
	var report SiteReport
	if err := json.Unmarshal(rec.Body, &report); err != nil {
		return nil, fmt.Errorf("unmarshal report %s: %w", id, err)
	}
	return &report, nil
}
