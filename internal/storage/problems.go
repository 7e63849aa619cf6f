package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"shopfloor/internal/models"
)

// ProblemFilter narrows ListProblems. Zero fields match everything.
type ProblemFilter struct {
	Category   models.Category
	Status     models.ProblemStatus
	Severities []models.Severity
	// Unresolved excludes resolved problems
	Unresolved bool
}

// CreateProblem inserts a problem report, assigning an id when missing.
func (s *Store) CreateProblem(ctx context.Context, p *models.ProblemReport) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return s.db.WithContext(ctx).Create(p).Error
}

// GetProblem loads a problem report by id.
func (s *Store) GetProblem(ctx context.Context, id string) (*models.ProblemReport, error) {
	var p models.ProblemReport
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&p).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// ListProblems returns problem reports, newest first.
func (s *Store) ListProblems(ctx context.Context, filter ProblemFilter) ([]models.ProblemReport, error) {
	query := s.db.WithContext(ctx).Model(&models.ProblemReport{})
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if len(filter.Severities) > 0 {
		query = query.Where("severity IN ?", filter.Severities)
	}
	if filter.Unresolved {
		query = query.Where("status <> ?", models.ProblemResolved)
	}

	var problems []models.ProblemReport
	err := query.Order("created_at DESC").Find(&problems).Error
	return problems, err
}

// UnresolvedProblems returns problems that are not resolved and carry one of
// the given severities.
func (s *Store) UnresolvedProblems(ctx context.Context, severities ...models.Severity) ([]models.ProblemReport, error) {
	return s.ListProblems(ctx, ProblemFilter{Severities: severities, Unresolved: true})
}

// UpdateProblemStatus changes the status of a problem, stamping resolved_at
// when it is resolved.
func (s *Store) UpdateProblemStatus(ctx context.Context, id string, status models.ProblemStatus) (*models.ProblemReport, error) {
	updates := map[string]interface{}{"status": status, "resolved_at": nil}
	if status == models.ProblemResolved {
		updates["resolved_at"] = time.Now().UTC()
	}

	res := s.db.WithContext(ctx).Model(&models.ProblemReport{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.GetProblem(ctx, id)
}
