package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"shopfloor/internal/models"
)

// ListAlerts returns alerts newest first.
func (s *Store) ListAlerts(ctx context.Context, unreadOnly bool, limit int) ([]models.SmartAlert, error) {
	query := s.db.WithContext(ctx).Model(&models.SmartAlert{})
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var alerts []models.SmartAlert
	err := query.Order("created_at DESC").Find(&alerts).Error
	return alerts, err
}

// UnreadAlerts returns every unread alert.
func (s *Store) UnreadAlerts(ctx context.Context) ([]models.SmartAlert, error) {
	return s.ListAlerts(ctx, true, 0)
}

// InsertAlerts stores new unread alerts in one transaction and returns the
// ones actually inserted. A row whose (type, related_id) already has an
// unread alert is skipped by the partial unique index instead of failing
// the batch.
func (s *Store) InsertAlerts(ctx context.Context, alerts []models.SmartAlert) ([]models.SmartAlert, error) {
	if len(alerts) == 0 {
		return nil, nil
	}

	inserted := make([]models.SmartAlert, 0, len(alerts))
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range alerts {
			a := alerts[i]
			if a.ID == "" {
				a.ID = uuid.New().String()
			}
			a.IsRead = false

			res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&a)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 1 {
				inserted = append(inserted, a)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inserted, nil
}

// MarkAlertRead flags one alert as read.
func (s *Store) MarkAlertRead(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Model(&models.SmartAlert{}).Where("id = ?", id).Update("is_read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkAllAlertsRead flags every unread alert as read.
func (s *Store) MarkAllAlertsRead(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.SmartAlert{}).Where("is_read = ?", false).Update("is_read", true)
	return res.RowsAffected, res.Error
}

// DeleteReadAlertsBefore removes read alerts created before cutoff.
func (s *Store) DeleteReadAlertsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("is_read = ? AND created_at < ?", true, cutoff.UTC()).
		Delete(&models.SmartAlert{})
	return res.RowsAffected, res.Error
}
