package alerts

import (
	"fmt"
	"time"

	"shopfloor/internal/models"
)

// oldProblemDays is the age after which an unresolved problem is reported
// as lingering rather than freshly critical.
const oldProblemDays = 3

// LatestPerKPI keeps the first measurement of every KPI from a list ordered
// newest first.
func LatestPerKPI(measurements []models.KpiMeasurement) []models.KpiMeasurement {
	seen := make(map[string]struct{}, len(measurements))
	latest := make([]models.KpiMeasurement, 0)
	for _, m := range measurements {
		if _, ok := seen[m.KpiID]; ok {
			continue
		}
		seen[m.KpiID] = struct{}{}
		latest = append(latest, m)
	}
	return latest
}

// KPIAlerts derives candidates from the latest measurement of each KPI.
// names maps KPI ids to display names; unknown ids fall back to the id.
func KPIAlerts(latest []models.KpiMeasurement, names map[string]string) []models.SmartAlert {
	var out []models.SmartAlert
	for _, m := range latest {
		name := names[m.KpiID]
		if name == "" {
			name = m.KpiID
		}

		switch m.Status {
		case models.StatusRed:
			out = append(out, kpiAlert(m, models.AlertKpiCritical, models.SeverityCritical,
				"Critical KPI: "+name,
				fmt.Sprintf("%s is in the red with a latest value of %g.", name, m.Value)))
		case models.StatusOrange:
			out = append(out, kpiAlert(m, models.AlertKpiWarning, models.SeverityHigh,
				"KPI warning: "+name,
				fmt.Sprintf("%s is off target with a latest value of %g.", name, m.Value)))
		}

		if m.Trend == models.TrendDown && m.Status != models.StatusGreen {
			out = append(out, kpiAlert(m, models.AlertKpiTrend, models.SeverityMedium,
				"Falling trend: "+name,
				fmt.Sprintf("%s dropped to %g and is not on target.", name, m.Value)))
		}
	}
	return out
}

func kpiAlert(m models.KpiMeasurement, typ models.AlertType, sev models.Severity, title, msg string) models.SmartAlert {
	return models.SmartAlert{
		Type:        typ,
		Severity:    sev,
		Title:       title,
		Message:     msg,
		RelatedID:   m.KpiID,
		RelatedType: models.RelatedKPI,
	}
}

// OverdueActionAlerts flags every late, unfinished action. today is a
// models.DayKey.
func OverdueActionAlerts(actions []models.ActionItem, today string) []models.SmartAlert {
	var out []models.SmartAlert
	for i := range actions {
		a := &actions[i]
		if !a.IsOverdue(today) {
			continue
		}
		sev := models.SeverityHigh
		if a.Priority.Pressing() {
			sev = models.SeverityCritical
		}
		out = append(out, models.SmartAlert{
			Type:        models.AlertActionOverdue,
			Severity:    sev,
			Title:       "Overdue action: " + a.Title,
			Message:     fmt.Sprintf("Was due on %s.", models.DayKey(a.DueDate, time.UTC)),
			RelatedID:   a.ID,
			RelatedType: models.RelatedAction,
		})
	}
	return out
}

// UrgentActionAlerts flags high and urgent actions due today.
func UrgentActionAlerts(actions []models.ActionItem, today string) []models.SmartAlert {
	var out []models.SmartAlert
	for i := range actions {
		a := &actions[i]
		if a.Status == models.ActionCompleted || a.IsOverdue(today) || !a.Priority.Pressing() {
			continue
		}
		if models.DayKey(a.DueDate, time.UTC) != today {
			continue
		}
		out = append(out, models.SmartAlert{
			Type:        models.AlertActionUrgent,
			Severity:    models.SeverityHigh,
			Title:       "Due today: " + a.Title,
			Message:     fmt.Sprintf("%s priority action is due today.", a.Priority),
			RelatedID:   a.ID,
			RelatedType: models.RelatedAction,
		})
	}
	return out
}

// ProblemAge returns the number of whole days since the problem was raised.
func ProblemAge(p *models.ProblemReport, now time.Time) int {
	age := now.Sub(p.CreatedAt)
	if age < 0 {
		return 0
	}
	return int(age.Hours() / 24)
}

// ProblemAlerts flags unresolved high and critical problems. The alert keeps
// the problem's severity.
func ProblemAlerts(problems []models.ProblemReport, now time.Time) []models.SmartAlert {
	var out []models.SmartAlert
	for i := range problems {
		p := &problems[i]
		if p.Status == models.ProblemResolved {
			continue
		}
		if p.Severity != models.SeverityCritical && p.Severity != models.SeverityHigh {
			continue
		}

		age := ProblemAge(p, now)
		alert := models.SmartAlert{
			Type:        models.AlertProblemCritical,
			Severity:    p.Severity,
			Title:       "Problem reported: " + p.Title,
			Message:     fmt.Sprintf("%s severity problem is open.", p.Severity),
			RelatedID:   p.ID,
			RelatedType: models.RelatedProblem,
		}
		if age > oldProblemDays {
			alert.Type = models.AlertProblemUnresolved
			alert.Title = "Unresolved problem: " + p.Title
			alert.Message = fmt.Sprintf("Open for %d days.", age)
		}
		out = append(out, alert)
	}
	return out
}
