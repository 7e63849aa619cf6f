package models

import (
	"errors"
	"strings"
	"time"
)

// Priority of an action item.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// IsValid checks if the priority is known
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	default:
		return false
	}
}

// Pressing reports whether the priority escalates alerts (urgent or high).
func (p Priority) Pressing() bool {
	return p == PriorityUrgent || p == PriorityHigh
}

// ActionStatus is the workflow state of an action item.
type ActionStatus string

const (
	ActionTodo       ActionStatus = "todo"
	ActionInProgress ActionStatus = "in_progress"
	ActionCompleted  ActionStatus = "completed"
	ActionOverdue    ActionStatus = "overdue"
)

// IsValid checks if the action status is known
func (s ActionStatus) IsValid() bool {
	switch s {
	case ActionTodo, ActionInProgress, ActionCompleted, ActionOverdue:
		return true
	default:
		return false
	}
}

// ActionItem is a corrective or improvement task with a due date.
type ActionItem struct {
	ID          string       `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Title       string       `gorm:"not null" json:"title"`
	Description string       `json:"description,omitempty"`
	Category    Category     `gorm:"type:varchar(32);index;not null" json:"category"`
	Assignee    string       `json:"assignee,omitempty"`
	DueDate     time.Time    `gorm:"index;not null" json:"due_date"`
	Priority    Priority     `gorm:"type:varchar(16);not null" json:"priority"`
	Status      ActionStatus `gorm:"type:varchar(16);index;not null" json:"status"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// TableName returns the table name for GORM.
func (ActionItem) TableName() string { return "actions" }

var (
	ErrEmptyTitle          = errors.New("title cannot be empty")
	ErrTitleTooLong        = errors.New("title exceeds maximum length")
	ErrZeroDueDate         = errors.New("due date is required")
	ErrInvalidPriority     = errors.New("invalid priority")
	ErrInvalidActionStatus = errors.New("invalid action status")
)

// Normalize trims text and applies defaults.
func (a *ActionItem) Normalize() {
	a.Title = strings.TrimSpace(a.Title)
	a.Description = strings.TrimSpace(a.Description)
	a.Assignee = strings.TrimSpace(a.Assignee)
	a.Category = Category(strings.ToLower(strings.TrimSpace(string(a.Category))))
	if a.Priority == "" {
		a.Priority = PriorityMedium
	}
	if a.Status == "" {
		a.Status = ActionTodo
	}
}

// Validate checks if the ActionItem has all required fields and valid values
func (a *ActionItem) Validate() error {
	if a.Title == "" {
		return ErrEmptyTitle
	}
	if len(a.Title) > MaxNameLength {
		return ErrTitleTooLong
	}
	if !a.Category.IsValid() {
		return ErrInvalidCategory
	}
	if a.DueDate.IsZero() {
		return ErrZeroDueDate
	}
	if !a.Priority.IsValid() {
		return ErrInvalidPriority
	}
	if !a.Status.IsValid() {
		return ErrInvalidActionStatus
	}
	return nil
}

// IsOverdue reports whether the action is late on the given day. A stored
// overdue status counts the same as a past due date.
func (a *ActionItem) IsOverdue(today string) bool {
	if a.Status == ActionCompleted {
		return false
	}
	return a.Status == ActionOverdue || DayKey(a.DueDate, time.UTC) < today
}
