package models_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"shopfloor/internal/models"
)

func TestActionItemIsOverdue(t *testing.T) {
	due := time.Date(2026, 10, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		status models.ActionStatus
		today  string
		want   bool
	}{
		{"past due todo", models.ActionTodo, "2026-10-11", true},
		{"due today", models.ActionInProgress, "2026-10-10", false},
		{"future", models.ActionTodo, "2026-10-01", false},
		{"completed late", models.ActionCompleted, "2026-10-20", false},
		{"stored overdue before due date", models.ActionOverdue, "2026-10-01", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &models.ActionItem{DueDate: due, Status: tt.status}
			if got := a.IsOverdue(tt.today); got != tt.want {
				t.Errorf("IsOverdue(%s) = %v, want %v", tt.today, got, tt.want)
			}
		})
	}
}

func TestActionItemValidate(t *testing.T) {
	a := &models.ActionItem{Title: " Fix guard ", Category: "SAFETY", DueDate: time.Now()}
	a.Normalize()
	if err := a.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	if a.Priority != models.PriorityMedium || a.Status != models.ActionTodo {
		t.Errorf("defaults not applied: %+v", a)
	}

	a.DueDate = time.Time{}
	if err := a.Validate(); err != models.ErrZeroDueDate {
		t.Errorf("expected ErrZeroDueDate, got %v", err)
	}
}

func TestProblemReportValidate(t *testing.T) {
	p := &models.ProblemReport{Title: "Leak on press 4", Category: models.CategorySafety, Severity: "HIGH"}
	p.Normalize()
	if err := p.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	if p.Status != models.ProblemOpen {
		t.Errorf("status default = %q", p.Status)
	}

	p.Severity = "catastrophic"
	if err := p.Validate(); err != models.ErrInvalidSeverity {
		t.Errorf("expected ErrInvalidSeverity, got %v", err)
	}
}

func TestIsValidation(t *testing.T) {
	if !models.IsValidation(fmt.Errorf("due_date: %w", models.ErrInvalidDate)) {
		t.Error("wrapped ErrInvalidDate not recognised")
	}
	if models.IsValidation(errors.New("disk full")) {
		t.Error("arbitrary error treated as validation")
	}
}
