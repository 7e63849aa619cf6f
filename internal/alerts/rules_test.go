package alerts

import (
	"testing"
	"time"

	"shopfloor/internal/models"
)

func TestLatestPerKPI(t *testing.T) {
	in := []models.KpiMeasurement{
		{ID: "m3", KpiID: "a", Value: 3},
		{ID: "m2", KpiID: "b", Value: 2},
		{ID: "m1", KpiID: "a", Value: 1},
	}
	got := LatestPerKPI(in)
	if len(got) != 2 {
		t.Fatalf("got %d measurements, want 2", len(got))
	}
	if got[0].ID != "m3" || got[1].ID != "m2" {
		t.Errorf("got %s, %s; want m3, m2", got[0].ID, got[1].ID)
	}
}

func TestKPIAlerts(t *testing.T) {
	tests := []struct {
		name   string
		status models.Status
		trend  models.Trend
		want   []models.AlertType
	}{
		{"red", models.StatusRed, models.TrendStable, []models.AlertType{models.AlertKpiCritical}},
		{"orange", models.StatusOrange, models.TrendUp, []models.AlertType{models.AlertKpiWarning}},
		{"red falling", models.StatusRed, models.TrendDown, []models.AlertType{models.AlertKpiCritical, models.AlertKpiTrend}},
		{"orange falling", models.StatusOrange, models.TrendDown, []models.AlertType{models.AlertKpiWarning, models.AlertKpiTrend}},
		{"green falling", models.StatusGreen, models.TrendDown, nil},
		{"green", models.StatusGreen, models.TrendStable, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := models.KpiMeasurement{KpiID: "kpi-1", Value: 42, Status: tt.status, Trend: tt.trend}
			got := KPIAlerts([]models.KpiMeasurement{m}, map[string]string{"kpi-1": "Scrap rate"})
			if len(got) != len(tt.want) {
				t.Fatalf("got %d alerts, want %d", len(got), len(tt.want))
			}
			for i, a := range got {
				if a.Type != tt.want[i] {
					t.Errorf("alert %d type = %s, want %s", i, a.Type, tt.want[i])
				}
				if a.RelatedID != "kpi-1" || a.RelatedType != models.RelatedKPI {
					t.Errorf("alert %d related = %s/%s", i, a.RelatedType, a.RelatedID)
				}
			}
		})
	}
}

func TestKPIAlerts_Severities(t *testing.T) {
	latest := []models.KpiMeasurement{
		{KpiID: "r", Status: models.StatusRed, Trend: models.TrendDown},
		{KpiID: "o", Status: models.StatusOrange},
	}
	want := map[models.AlertType]models.Severity{
		models.AlertKpiCritical: models.SeverityCritical,
		models.AlertKpiTrend:    models.SeverityMedium,
		models.AlertKpiWarning:  models.SeverityHigh,
	}
	for _, a := range KPIAlerts(latest, nil) {
		if a.Severity != want[a.Type] {
			t.Errorf("%s severity = %s, want %s", a.Type, a.Severity, want[a.Type])
		}
	}
}

func day(s string) time.Time {
	t, err := time.Parse(models.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestActionAlerts(t *testing.T) {
	today := "2026-10-18"
	actions := []models.ActionItem{
		{ID: "late-urgent", Title: "a", DueDate: day("2026-10-10"), Priority: models.PriorityUrgent, Status: models.ActionTodo},
		{ID: "late-low", Title: "b", DueDate: day("2026-10-17"), Priority: models.PriorityLow, Status: models.ActionInProgress},
		{ID: "late-done", Title: "c", DueDate: day("2026-10-01"), Priority: models.PriorityHigh, Status: models.ActionCompleted},
		{ID: "today-high", Title: "d", DueDate: day("2026-10-18"), Priority: models.PriorityHigh, Status: models.ActionTodo},
		{ID: "today-medium", Title: "e", DueDate: day("2026-10-18"), Priority: models.PriorityMedium, Status: models.ActionTodo},
		{ID: "flagged", Title: "f", DueDate: day("2026-10-18"), Priority: models.PriorityUrgent, Status: models.ActionOverdue},
		{ID: "future", Title: "g", DueDate: day("2026-10-25"), Priority: models.PriorityUrgent, Status: models.ActionTodo},
	}

	overdue := map[string]models.Severity{}
	for _, a := range OverdueActionAlerts(actions, today) {
		if a.Type != models.AlertActionOverdue {
			t.Errorf("type = %s", a.Type)
		}
		overdue[a.RelatedID] = a.Severity
	}
	wantOverdue := map[string]models.Severity{
		"late-urgent": models.SeverityCritical,
		"late-low":    models.SeverityHigh,
		"flagged":     models.SeverityCritical,
	}
	if len(overdue) != len(wantOverdue) {
		t.Errorf("overdue = %v, want %v", overdue, wantOverdue)
	}
	for id, sev := range wantOverdue {
		if overdue[id] != sev {
			t.Errorf("overdue[%s] = %s, want %s", id, overdue[id], sev)
		}
	}

	urgent := UrgentActionAlerts(actions, today)
	if len(urgent) != 1 || urgent[0].RelatedID != "today-high" {
		t.Fatalf("urgent = %+v, want only today-high", urgent)
	}
	if urgent[0].Severity != models.SeverityHigh || urgent[0].Type != models.AlertActionUrgent {
		t.Errorf("urgent alert = %s/%s", urgent[0].Type, urgent[0].Severity)
	}
}

func TestProblemAlerts(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	problems := []models.ProblemReport{
		{ID: "fresh-critical", Severity: models.SeverityCritical, Status: models.ProblemOpen, CreatedAt: now.Add(-24 * time.Hour)},
		{ID: "three-days", Severity: models.SeverityHigh, Status: models.ProblemInProgress, CreatedAt: now.Add(-3*24*time.Hour - time.Hour)},
		{ID: "old-high", Severity: models.SeverityHigh, Status: models.ProblemOpen, CreatedAt: now.Add(-4 * 24 * time.Hour)},
		{ID: "old-critical", Severity: models.SeverityCritical, Status: models.ProblemOpen, CreatedAt: now.Add(-10 * 24 * time.Hour)},
		{ID: "resolved", Severity: models.SeverityCritical, Status: models.ProblemResolved, CreatedAt: now},
		{ID: "medium", Severity: models.SeverityMedium, Status: models.ProblemOpen, CreatedAt: now},
	}

	want := map[string]struct {
		typ models.AlertType
		sev models.Severity
	}{
		"fresh-critical": {models.AlertProblemCritical, models.SeverityCritical},
		"three-days":     {models.AlertProblemCritical, models.SeverityHigh},
		"old-high":       {models.AlertProblemUnresolved, models.SeverityHigh},
		"old-critical":   {models.AlertProblemUnresolved, models.SeverityCritical},
	}

	got := ProblemAlerts(problems, now)
	if len(got) != len(want) {
		t.Fatalf("got %d alerts, want %d", len(got), len(want))
	}
	for _, a := range got {
		w, ok := want[a.RelatedID]
		if !ok {
			t.Errorf("unexpected alert for %s", a.RelatedID)
			continue
		}
		if a.Type != w.typ || a.Severity != w.sev {
			t.Errorf("%s: got %s/%s, want %s/%s", a.RelatedID, a.Type, a.Severity, w.typ, w.sev)
		}
	}
}

func TestProblemAge(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	p := &models.ProblemReport{CreatedAt: now.Add(-47 * time.Hour)}
	if got := ProblemAge(p, now); got != 1 {
		t.Errorf("ProblemAge() = %d, want 1", got)
	}
	p.CreatedAt = now.Add(time.Hour)
	if got := ProblemAge(p, now); got != 0 {
		t.Errorf("ProblemAge(future) = %d, want 0", got)
	}
}
