package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"shopfloor/internal/models"
)

// CreateKPI inserts a KPI definition, assigning an id when missing.
func (s *Store) CreateKPI(ctx context.Context, k *models.KpiDefinition) error {
	if k.ID == "" {
		k.ID = uuid.New().String()
	}
	return s.db.WithContext(ctx).Create(k).Error
}

// GetKPI loads a KPI definition by id.
func (s *Store) GetKPI(ctx context.Context, id string) (*models.KpiDefinition, error) {
	var k models.KpiDefinition
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&k).Error; err != nil {
		return nil, notFound(err)
	}
	return &k, nil
}

// ListKPIs returns KPI definitions, optionally restricted to one category.
func (s *Store) ListKPIs(ctx context.Context, category models.Category) ([]models.KpiDefinition, error) {
	query := s.db.WithContext(ctx).Model(&models.KpiDefinition{})
	if category != "" {
		query = query.Where("category = ?", category)
	}

	var kpis []models.KpiDefinition
	err := query.Order("category ASC").Order("name ASC").Find(&kpis).Error
	return kpis, err
}

// CreateMeasurement inserts a measurement, assigning an id when missing.
func (s *Store) CreateMeasurement(ctx context.Context, m *models.KpiMeasurement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return s.db.WithContext(ctx).Create(m).Error
}

// PreviousMeasurement returns the latest stored measurement of the KPI
// recorded at or before the given time, or nil when there is none. Rows for
// the same period are ordered by submission, so a second entry for one week
// compares with the first.
func (s *Store) PreviousMeasurement(ctx context.Context, kpiID string, at time.Time) (*models.KpiMeasurement, error) {
	var rows []models.KpiMeasurement
	err := s.db.WithContext(ctx).
		Where("kpi_id = ? AND recorded_at <= ?", kpiID, at.UTC()).
		Order("recorded_at DESC").
		Order("created_at DESC").
		Limit(1).
		Find(&rows).Error
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return &rows[0], nil
}

// ListMeasurements returns the newest measurements of one KPI first.
func (s *Store) ListMeasurements(ctx context.Context, kpiID string, limit int) ([]models.KpiMeasurement, error) {
	query := s.db.WithContext(ctx).
		Where("kpi_id = ?", kpiID).
		Order("recorded_at DESC").
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []models.KpiMeasurement
	err := query.Find(&rows).Error
	return rows, err
}

// MeasurementsNewestFirst returns every measurement ordered newest first, so
// the first row seen per KPI is its latest.
func (s *Store) MeasurementsNewestFirst(ctx context.Context) ([]models.KpiMeasurement, error) {
	var rows []models.KpiMeasurement
	err := s.db.WithContext(ctx).
		Order("recorded_at DESC").
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}
