// Package alerts turns the current KPI, action and problem state into
// deduplicated unread alerts.
package alerts

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"shopfloor/internal/logger"
	"shopfloor/internal/metrics"
	"shopfloor/internal/models"
)

// ErrSweepFailed is returned when the new alerts could not be stored.
var ErrSweepFailed = errors.New("alert generation failed")

// DefaultRetention is how long read alerts are kept.
const DefaultRetention = 7 * 24 * time.Hour

// Store is the persistence the sweep reads from and writes to.
type Store interface {
	MeasurementsNewestFirst(ctx context.Context) ([]models.KpiMeasurement, error)
	ListKPIs(ctx context.Context, category models.Category) ([]models.KpiDefinition, error)
	OpenActions(ctx context.Context) ([]models.ActionItem, error)
	UnresolvedProblems(ctx context.Context, severities ...models.Severity) ([]models.ProblemReport, error)
	UnreadAlerts(ctx context.Context) ([]models.SmartAlert, error)
	DeleteReadAlertsBefore(ctx context.Context, cutoff time.Time) (int64, error)
	// InsertAlerts stores the alerts and returns the ones actually written.
	InsertAlerts(ctx context.Context, alerts []models.SmartAlert) ([]models.SmartAlert, error)
}

// Notifier receives the alerts created by a sweep.
type Notifier interface {
	NotifyAlerts(ctx context.Context, sweepID string, alerts []models.SmartAlert)
}

// Summary reports what one sweep did.
type Summary struct {
	SweepID           string `json:"sweepId"`
	TotalChecked      int    `json:"totalChecked"`
	NewAlertsCreated  int    `json:"newAlertsCreated"`
	DuplicatesSkipped int    `json:"duplicatesSkipped"`
	Purged            int64  `json:"purged"`
}

// Sweeper runs alert sweeps. Runs on one Sweeper are serialized.
type Sweeper struct {
	mu        sync.Mutex
	store     Store
	notifiers []Notifier
	retention time.Duration
	loc       *time.Location
	now       func() time.Time
}

// Option configures a Sweeper.
type Option func(*Sweeper)

// WithRetention sets how long read alerts survive.
func WithRetention(d time.Duration) Option {
	return func(s *Sweeper) {
		if d > 0 {
			s.retention = d
		}
	}
}

// WithLocation sets the timezone that decides which day is today.
func WithLocation(loc *time.Location) Option {
	return func(s *Sweeper) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithNotifiers registers receivers for newly created alerts.
func WithNotifiers(n ...Notifier) Option {
	return func(s *Sweeper) {
		s.notifiers = append(s.notifiers, n...)
	}
}

// NewSweeper creates a sweeper over the given store.
func NewSweeper(store Store, opts ...Option) *Sweeper {
	s := &Sweeper{
		store:     store,
		retention: DefaultRetention,
		loc:       time.UTC,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run performs one sweep. Read failures only shrink the candidate set;
// the sweep fails only when the insert does.
func (s *Sweeper) Run(ctx context.Context) (*Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	sum := &Summary{SweepID: uuid.New().String()}
	log := logger.WithComponent("alert_sweep").With().Str("sweep_id", sum.SweepID).Logger()

	now := s.now()
	today := models.DayKey(now, s.loc)

	candidates := s.collect(ctx, log, now, today)
	sum.TotalChecked = len(candidates)

	sum.Purged = s.purge(ctx, log, now)

	fresh := s.dedup(ctx, log, candidates)

	inserted, err := s.store.InsertAlerts(ctx, fresh)
	if err != nil {
		metrics.SweepRunsTotal.WithLabelValues("failed").Inc()
		log.Error().Err(err).Int("candidates", len(fresh)).Msg("inserting alerts failed")
		return nil, fmt.Errorf("%w: %w", ErrSweepFailed, err)
	}

	sum.NewAlertsCreated = len(inserted)
	sum.DuplicatesSkipped = sum.TotalChecked - sum.NewAlertsCreated

	for i := range inserted {
		metrics.AlertsCreated.WithLabelValues(string(inserted[i].Type)).Inc()
	}
	metrics.AlertsDuplicatesSkipped.Add(float64(sum.DuplicatesSkipped))
	metrics.AlertsPurged.Add(float64(sum.Purged))
	metrics.SweepRunsTotal.WithLabelValues("success").Inc()
	metrics.SweepDuration.Observe(time.Since(start).Seconds())

	log.Info().
		Int("checked", sum.TotalChecked).
		Int("created", sum.NewAlertsCreated).
		Int("skipped", sum.DuplicatesSkipped).
		Int64("purged", sum.Purged).
		Dur("duration", time.Since(start)).
		Msg("sweep completed")

	if len(inserted) > 0 {
		for _, n := range s.notifiers {
			n.NotifyAlerts(ctx, sum.SweepID, inserted)
		}
	}
	return sum, nil
}

// collect gathers candidates from every phase. A phase whose read fails
// contributes nothing.
func (s *Sweeper) collect(ctx context.Context, log zerolog.Logger, now time.Time, today string) []models.SmartAlert {
	var candidates []models.SmartAlert

	if measurements, err := s.store.MeasurementsNewestFirst(ctx); err != nil {
		phaseFailed(log, "kpi", err)
	} else {
		candidates = append(candidates, KPIAlerts(LatestPerKPI(measurements), s.kpiNames(ctx, log))...)
	}

	if actions, err := s.store.OpenActions(ctx); err != nil {
		phaseFailed(log, "actions", err)
	} else {
		candidates = append(candidates, OverdueActionAlerts(actions, today)...)
		candidates = append(candidates, UrgentActionAlerts(actions, today)...)
	}

	if problems, err := s.store.UnresolvedProblems(ctx, models.SeverityCritical, models.SeverityHigh); err != nil {
		phaseFailed(log, "problems", err)
	} else {
		candidates = append(candidates, ProblemAlerts(problems, now)...)
	}

	return candidates
}

// kpiNames is only used for alert titles, so a failure falls back to ids.
func (s *Sweeper) kpiNames(ctx context.Context, log zerolog.Logger) map[string]string {
	defs, err := s.store.ListKPIs(ctx, "")
	if err != nil {
		log.Warn().Err(err).Msg("loading kpi names failed, titles use ids")
		return nil
	}
	names := make(map[string]string, len(defs))
	for _, d := range defs {
		names[d.ID] = d.Name
	}
	return names
}

func (s *Sweeper) purge(ctx context.Context, log zerolog.Logger, now time.Time) int64 {
	purged, err := s.store.DeleteReadAlertsBefore(ctx, now.Add(-s.retention))
	if err != nil {
		phaseFailed(log, "retention", err)
		return 0
	}
	return purged
}

// dedup drops candidates whose key already has an unread alert, and repeats
// within the batch. If the unread alerts cannot be read the database's
// unique index still rejects duplicates at insert time.
func (s *Sweeper) dedup(ctx context.Context, log zerolog.Logger, candidates []models.SmartAlert) []models.SmartAlert {
	seen := make(map[models.AlertKey]struct{})

	if unread, err := s.store.UnreadAlerts(ctx); err != nil {
		phaseFailed(log, "dedup", err)
	} else {
		for i := range unread {
			seen[unread[i].Key()] = struct{}{}
		}
	}

	fresh := make([]models.SmartAlert, 0, len(candidates))
	for i := range candidates {
		key := candidates[i].Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		fresh = append(fresh, candidates[i])
	}
	return fresh
}

func phaseFailed(log zerolog.Logger, phase string, err error) {
	metrics.SweepPhaseErrors.WithLabelValues(phase).Inc()
	log.Warn().Err(err).Str("phase", phase).Msg("sweep phase failed, continuing without it")
}
