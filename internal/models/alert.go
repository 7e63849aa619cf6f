package models

import "time"

// AlertType tags what raised an alert.
type AlertType string

const (
	AlertKpiCritical       AlertType = "kpi_critical"
	AlertKpiWarning        AlertType = "kpi_warning"
	AlertKpiTrend          AlertType = "kpi_trend"
	AlertActionOverdue     AlertType = "action_overdue"
	AlertActionUrgent      AlertType = "action_urgent"
	AlertProblemCritical   AlertType = "problem_critical"
	AlertProblemUnresolved AlertType = "problem_unresolved"
)

// RelatedType names the table an alert points back to.
type RelatedType string

const (
	RelatedKPI     RelatedType = "kpi"
	RelatedAction  RelatedType = "action"
	RelatedProblem RelatedType = "problem"
)

// SmartAlert is a generated notice about a KPI, action or problem.
//
// At most one unread alert exists per (Type, RelatedID); the partial unique
// index below backs that up in the database.
type SmartAlert struct {
	ID          string      `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Type        AlertType   `gorm:"type:varchar(32);not null;uniqueIndex:idx_alerts_unread_key,where:is_read = false" json:"type"`
	Severity    Severity    `gorm:"type:varchar(16);not null" json:"severity"`
	Title       string      `gorm:"not null" json:"title"`
	Message     string      `json:"message"`
	RelatedID   string      `gorm:"type:varchar(36);not null;uniqueIndex:idx_alerts_unread_key,where:is_read = false" json:"related_id"`
	RelatedType RelatedType `gorm:"type:varchar(16);not null" json:"related_type"`
	IsRead      bool        `gorm:"not null;index" json:"is_read"`
	CreatedAt   time.Time   `gorm:"index" json:"created_at"`
}

// TableName returns the table name for GORM.
func (SmartAlert) TableName() string { return "smart_alerts" }

// AlertKey is the dedup key of an alert.
type AlertKey struct {
	Type      AlertType
	RelatedID string
}

// Key returns the dedup key of the alert.
func (a *SmartAlert) Key() AlertKey {
	return AlertKey{Type: a.Type, RelatedID: a.RelatedID}
}
