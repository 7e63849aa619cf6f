package kpi

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"shopfloor/internal/logger"
	"shopfloor/internal/metrics"
	"shopfloor/internal/models"
)

// ErrMissingValue is returned when a submission carries no value.
var ErrMissingValue = errors.New("value is required")

// Store is the persistence the recorder needs.
type Store interface {
	GetKPI(ctx context.Context, id string) (*models.KpiDefinition, error)
	// PreviousMeasurement returns the latest stored measurement recorded at
	// or before the given time, or nil when there is none.
	PreviousMeasurement(ctx context.Context, kpiID string, at time.Time) (*models.KpiMeasurement, error)
	CreateMeasurement(ctx context.Context, m *models.KpiMeasurement) error
}

// Notifier is told about every recorded measurement.
type Notifier interface {
	NotifyMeasurement(ctx context.Context, kpi *models.KpiDefinition, m *models.KpiMeasurement)
}

// MeasurementInput is a measurement submission. RecordedAt and WeekNumber
// are mutually exclusive; with neither, the measurement is taken now.
type MeasurementInput struct {
	KpiID      string   `json:"kpi_id"`
	Value      *float64 `json:"value"`
	RecordedAt string   `json:"recorded_at,omitempty"`
	WeekNumber *int     `json:"week_number,omitempty"`
	Year       *int     `json:"year,omitempty"`
	Comment    string   `json:"comment,omitempty"`
}

// Recorder evaluates and persists KPI measurements.
type Recorder struct {
	store     Store
	notifiers []Notifier
	now       func() time.Time
}

// NewRecorder creates a recorder over the given store.
func NewRecorder(store Store, notifiers ...Notifier) *Recorder {
	return &Recorder{
		store:     store,
		notifiers: notifiers,
		now:       time.Now,
	}
}

// Record evaluates the submission against its KPI and the previous
// measurement, then stores it with status and trend attached.
func (r *Recorder) Record(ctx context.Context, in MeasurementInput) (*models.KpiMeasurement, error) {
	log := logger.WithComponent("kpi_recorder")

	m, err := r.resolve(in)
	if err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}

	def, err := r.store.GetKPI(ctx, m.KpiID)
	if err != nil {
		return nil, fmt.Errorf("loading kpi %s: %w", m.KpiID, err)
	}

	eval := Evaluate(def, m.Value, r.previousValue(ctx, m))
	m.Status = eval.Status
	m.Trend = eval.Trend

	if err := r.store.CreateMeasurement(ctx, m); err != nil {
		return nil, fmt.Errorf("saving measurement: %w", err)
	}

	metrics.MeasurementsRecorded.WithLabelValues(string(m.Status), string(m.Trend)).Inc()
	log.Info().
		Str("kpi_id", def.ID).
		Str("measurement_id", m.ID).
		Float64("value", m.Value).
		Str("status", string(m.Status)).
		Str("trend", string(m.Trend)).
		Msg("measurement recorded")

	for _, n := range r.notifiers {
		n.NotifyMeasurement(ctx, def, m)
	}
	return m, nil
}

// Preview computes what Record would attach to a value recorded now,
// without storing anything.
func (r *Recorder) Preview(ctx context.Context, kpiID string, value float64) (Evaluation, error) {
	def, err := r.store.GetKPI(ctx, kpiID)
	if err != nil {
		return Evaluation{}, fmt.Errorf("loading kpi %s: %w", kpiID, err)
	}
	m := &models.KpiMeasurement{KpiID: kpiID, Value: value, RecordedAt: r.now().UTC()}
	return Evaluate(def, value, r.previousValue(ctx, m)), nil
}

// previousValue looks up the measurement before m. A failed lookup only
// costs the trend, so it is logged and treated as "no previous".
func (r *Recorder) previousValue(ctx context.Context, m *models.KpiMeasurement) *float64 {
	prev, err := r.store.PreviousMeasurement(ctx, m.KpiID, m.RecordedAt)
	if err != nil {
		log := logger.WithComponent("kpi_recorder")
		log.Warn().
			Err(err).
			Str("kpi_id", m.KpiID).
			Msg("previous measurement lookup failed, trend defaults to stable")
		return nil
	}
	if prev == nil {
		return nil
	}
	v := prev.Value
	return &v
}

// resolve turns a submission into a measurement with a concrete period.
func (r *Recorder) resolve(in MeasurementInput) (*models.KpiMeasurement, error) {
	if in.Value == nil {
		return nil, ErrMissingValue
	}

	m := &models.KpiMeasurement{
		ID:      uuid.New().String(),
		KpiID:   strings.TrimSpace(in.KpiID),
		Value:   *in.Value,
		Comment: strings.TrimSpace(in.Comment),
	}

	switch {
	case in.RecordedAt != "" && in.WeekNumber != nil:
		return nil, models.ErrPeriodConflict
	case in.RecordedAt != "":
		ts, err := models.ParseTimestamp(in.RecordedAt)
		if err != nil {
			return nil, err
		}
		m.RecordedAt = ts
	case in.WeekNumber != nil:
		year, _ := r.now().UTC().ISOWeek()
		if in.Year != nil {
			year = *in.Year
		}
		week := *in.WeekNumber
		start := models.ISOWeekStart(year, week)
		if y, w := start.ISOWeek(); week < 1 || y != year || w != week {
			return nil, models.ErrInvalidWeekNumber
		}
		m.RecordedAt = start
		m.WeekNumber = &week
		m.Year = &year
	default:
		m.RecordedAt = r.now().UTC()
	}
	return m, nil
}
