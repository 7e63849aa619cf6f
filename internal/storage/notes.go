package storage

import (
	"context"

	"github.com/google/uuid"

	"shopfloor/internal/models"
)

// CreateNote inserts a note, assigning an id when missing.
func (s *Store) CreateNote(ctx context.Context, n *models.Note) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	return s.db.WithContext(ctx).Create(n).Error
}

// ListNotes returns the newest notes first.
func (s *Store) ListNotes(ctx context.Context, category models.Category, limit int) ([]models.Note, error) {
	query := s.db.WithContext(ctx).Model(&models.Note{})
	if category != "" {
		query = query.Where("category = ?", category)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var notes []models.Note
	err := query.Order("created_at DESC").Find(&notes).Error
	return notes, err
}
