package models

import (
	"errors"
	"strings"
	"time"
)

// ProblemStatus is the resolution state of a problem report.
type ProblemStatus string

const (
	ProblemOpen       ProblemStatus = "open"
	ProblemInProgress ProblemStatus = "in_progress"
	ProblemResolved   ProblemStatus = "resolved"
)

// IsValid checks if the problem status is known
func (s ProblemStatus) IsValid() bool {
	switch s {
	case ProblemOpen, ProblemInProgress, ProblemResolved:
		return true
	default:
		return false
	}
}

// ProblemReport is an issue raised on the shop floor.
type ProblemReport struct {
	ID          string        `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Title       string        `gorm:"not null" json:"title"`
	Description string        `json:"description,omitempty"`
	Category    Category      `gorm:"type:varchar(32);index;not null" json:"category"`
	Severity    Severity      `gorm:"type:varchar(16);index;not null" json:"severity"`
	Status      ProblemStatus `gorm:"type:varchar(16);index;not null" json:"status"`
	ReportedBy  string        `json:"reported_by,omitempty"`
	ResolvedAt  *time.Time    `json:"resolved_at,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// TableName returns the table name for GORM.
func (ProblemReport) TableName() string { return "problems" }

var (
	ErrInvalidSeverity      = errors.New("invalid severity level")
	ErrInvalidProblemStatus = errors.New("invalid problem status")
)

// Normalize trims text and applies defaults.
func (p *ProblemReport) Normalize() {
	p.Title = strings.TrimSpace(p.Title)
	p.Description = strings.TrimSpace(p.Description)
	p.ReportedBy = strings.TrimSpace(p.ReportedBy)
	p.Category = Category(strings.ToLower(strings.TrimSpace(string(p.Category))))
	p.Severity = Severity(strings.ToLower(strings.TrimSpace(string(p.Severity))))
	if p.Status == "" {
		p.Status = ProblemOpen
	}
}

// Validate checks if the ProblemReport has all required fields and valid values
func (p *ProblemReport) Validate() error {
	if p.Title == "" {
		return ErrEmptyTitle
	}
	if len(p.Title) > MaxNameLength {
		return ErrTitleTooLong
	}
	if !p.Category.IsValid() {
		return ErrInvalidCategory
	}
	if !p.Severity.IsValid() {
		return ErrInvalidSeverity
	}
	if !p.Status.IsValid() {
		return ErrInvalidProblemStatus
	}
	return nil
}
