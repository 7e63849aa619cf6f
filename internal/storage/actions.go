package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"shopfloor/internal/models"
)

// ActionFilter narrows ListActions. Zero fields match everything.
type ActionFilter struct {
	Category models.Category
	Status   models.ActionStatus
	// Open excludes completed actions
	Open bool
}

// CreateAction inserts an action item, assigning an id when missing.
func (s *Store) CreateAction(ctx context.Context, a *models.ActionItem) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return s.db.WithContext(ctx).Create(a).Error
}

// GetAction loads an action item by id.
func (s *Store) GetAction(ctx context.Context, id string) (*models.ActionItem, error) {
	var a models.ActionItem
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&a).Error; err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

// ListActions returns action items ordered by due date.
func (s *Store) ListActions(ctx context.Context, filter ActionFilter) ([]models.ActionItem, error) {
	query := s.db.WithContext(ctx).Model(&models.ActionItem{})
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Open {
		query = query.Where("status <> ?", models.ActionCompleted)
	}

	var actions []models.ActionItem
	err := query.Order("due_date ASC").Order("created_at ASC").Find(&actions).Error
	return actions, err
}

// OpenActions returns every action that is not completed.
func (s *Store) OpenActions(ctx context.Context) ([]models.ActionItem, error) {
	return s.ListActions(ctx, ActionFilter{Open: true})
}

// UpdateActionStatus changes the status of an action, stamping completed_at
// when it is completed.
func (s *Store) UpdateActionStatus(ctx context.Context, id string, status models.ActionStatus) (*models.ActionItem, error) {
	updates := map[string]interface{}{"status": status, "completed_at": nil}
	if status == models.ActionCompleted {
		updates["completed_at"] = time.Now().UTC()
	}

	res := s.db.WithContext(ctx).Model(&models.ActionItem{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.GetAction(ctx, id)
}
