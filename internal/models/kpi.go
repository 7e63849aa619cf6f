package models

import (
	"errors"
	"math"
	"strings"
	"time"
)

// Direction says which way a KPI improves.
type Direction string

const (
	HigherIsBetter Direction = "higher_is_better"
	LowerIsBetter  Direction = "lower_is_better"
)

// IsValid checks if the direction is known
func (d Direction) IsValid() bool {
	return d == HigherIsBetter || d == LowerIsBetter
}

// Status is the traffic light of a measurement.
type Status string

const (
	StatusGreen  Status = "green"
	StatusOrange Status = "orange"
	StatusRed    Status = "red"
)

// Trend compares a measurement with the one before it.
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// KpiDefinition is a periodically measured metric with an optional target.
type KpiDefinition struct {
	ID                   string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name                 string    `gorm:"not null" json:"name"`
	Description          string    `json:"description,omitempty"`
	Category             Category  `gorm:"type:varchar(32);index;not null" json:"category"`
	Unit                 string    `json:"unit,omitempty"`
	TargetValue          *float64  `json:"target_value,omitempty"`
	PerformanceDirection Direction `gorm:"type:varchar(32);not null" json:"performance_direction"`
	// Percent deviation from target that turns a measurement orange / red
	WarningThreshold  *float64  `json:"warning_threshold,omitempty"`
	CriticalThreshold *float64  `json:"critical_threshold,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// TableName returns the table name for GORM.
func (KpiDefinition) TableName() string { return "kpis" }

// KpiMeasurement is one recorded value of a KPI. Status and trend are
// computed when it is created and never change afterwards.
type KpiMeasurement struct {
	ID    string  `gorm:"primaryKey;type:varchar(36)" json:"id"`
	KpiID string  `gorm:"type:varchar(36);not null;index:idx_measurements_kpi_recorded,priority:1" json:"kpi_id"`
	Value float64 `gorm:"not null" json:"value"`
	// RecordedAt is derived from WeekNumber/Year for weekly measurements.
	RecordedAt time.Time `gorm:"not null;index:idx_measurements_kpi_recorded,priority:2" json:"recorded_at"`
	WeekNumber *int      `json:"week_number,omitempty"`
	Year       *int      `json:"year,omitempty"`
	Status     Status    `gorm:"type:varchar(16);not null" json:"status"`
	Trend      Trend     `gorm:"type:varchar(16);not null" json:"trend"`
	Comment    string    `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName returns the table name for GORM.
func (KpiMeasurement) TableName() string { return "kpi_measurements" }

// Validation errors
var (
	ErrEmptyName          = errors.New("name cannot be empty")
	ErrInvalidDirection   = errors.New("invalid performance direction")
	ErrNegativeThreshold  = errors.New("thresholds cannot be negative")
	ErrThresholdOrder     = errors.New("critical threshold must be greater than or equal to warning threshold")
	ErrNonFiniteNumber    = errors.New("value must be a finite number")
	ErrEmptyKpiID         = errors.New("kpi id cannot be empty")
	ErrPeriodConflict     = errors.New("recorded_at and week_number are mutually exclusive")
	ErrInvalidWeekNumber  = errors.New("week number must be between 1 and 53")
	ErrMissingPeriod      = errors.New("recorded_at or week_number is required")
	ErrNameTooLong        = errors.New("name exceeds maximum length")
	ErrCommentTooLong     = errors.New("comment exceeds maximum length")
	ErrInvalidTargetValue = errors.New("target value must be a finite number")
)

const (
	MaxNameLength    = 200
	MaxCommentLength = 4096
)

// Normalize trims user supplied text and applies defaults.
func (k *KpiDefinition) Normalize() {
	k.Name = strings.TrimSpace(k.Name)
	k.Description = strings.TrimSpace(k.Description)
	k.Unit = strings.TrimSpace(k.Unit)
	k.Category = Category(strings.ToLower(strings.TrimSpace(string(k.Category))))
	if k.PerformanceDirection == "" {
		k.PerformanceDirection = HigherIsBetter
	}
}

// Validate checks if the KpiDefinition has all required fields and valid values
func (k *KpiDefinition) Validate() error {
	if k.Name == "" {
		return ErrEmptyName
	}
	if len(k.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if !k.Category.IsValid() {
		return ErrInvalidCategory
	}
	if !k.PerformanceDirection.IsValid() {
		return ErrInvalidDirection
	}
	if k.TargetValue != nil && !isFinite(*k.TargetValue) {
		return ErrInvalidTargetValue
	}
	for _, th := range []*float64{k.WarningThreshold, k.CriticalThreshold} {
		if th == nil {
			continue
		}
		if !isFinite(*th) {
			return ErrNonFiniteNumber
		}
		if *th < 0 {
			return ErrNegativeThreshold
		}
	}
	if k.WarningThreshold != nil && k.CriticalThreshold != nil && *k.CriticalThreshold < *k.WarningThreshold {
		return ErrThresholdOrder
	}
	return nil
}

// Validate checks a measurement before its status and trend are computed.
func (m *KpiMeasurement) Validate() error {
	if m.KpiID == "" {
		return ErrEmptyKpiID
	}
	if !isFinite(m.Value) {
		return ErrNonFiniteNumber
	}
	if m.RecordedAt.IsZero() {
		return ErrMissingPeriod
	}
	if len(m.Comment) > MaxCommentLength {
		return ErrCommentTooLong
	}
	return nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
