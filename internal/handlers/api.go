// Package handlers serves the SFM JSON API.
package handlers

import (
	"context"
	"net/http"

	"shopfloor/internal/alerts"
	"shopfloor/internal/kpi"
	"shopfloor/internal/models"
	"shopfloor/internal/report"
	"shopfloor/internal/storage"
)

// Store is the persistence behind the API.
type Store interface {
	CreateKPI(ctx context.Context, k *models.KpiDefinition) error
	GetKPI(ctx context.Context, id string) (*models.KpiDefinition, error)
	ListKPIs(ctx context.Context, category models.Category) ([]models.KpiDefinition, error)
	ListMeasurements(ctx context.Context, kpiID string, limit int) ([]models.KpiMeasurement, error)

	CreateAction(ctx context.Context, a *models.ActionItem) error
	ListActions(ctx context.Context, filter storage.ActionFilter) ([]models.ActionItem, error)
	UpdateActionStatus(ctx context.Context, id string, status models.ActionStatus) (*models.ActionItem, error)

	CreateProblem(ctx context.Context, p *models.ProblemReport) error
	ListProblems(ctx context.Context, filter storage.ProblemFilter) ([]models.ProblemReport, error)
	UpdateProblemStatus(ctx context.Context, id string, status models.ProblemStatus) (*models.ProblemReport, error)

	CreateNote(ctx context.Context, n *models.Note) error
	ListNotes(ctx context.Context, category models.Category, limit int) ([]models.Note, error)

	ListAlerts(ctx context.Context, unreadOnly bool, limit int) ([]models.SmartAlert, error)
	MarkAlertRead(ctx context.Context, id string) error
	MarkAllAlertsRead(ctx context.Context) (int64, error)
}

// Recorder evaluates and stores measurements.
type Recorder interface {
	Record(ctx context.Context, in kpi.MeasurementInput) (*models.KpiMeasurement, error)
	Preview(ctx context.Context, kpiID string, value float64) (kpi.Evaluation, error)
}

// Sweeper runs an alert sweep on demand.
type Sweeper interface {
	Run(ctx context.Context) (*alerts.Summary, error)
}

// ReportBuilder assembles report documents.
type ReportBuilder interface {
	Build(ctx context.Context, category models.Category) (*report.Document, error)
}

// Config wires the API to its collaborators.
type Config struct {
	Store    Store
	Recorder Recorder
	Sweeper  Sweeper
	Reports  ReportBuilder
	// MaxBodySize caps request bodies (default 1MB)
	MaxBodySize int64
}

// API holds the HTTP handlers.
type API struct {
	store       Store
	recorder    Recorder
	sweeper     Sweeper
	reports     ReportBuilder
	maxBodySize int64
}

// New creates the API.
func New(cfg Config) *API {
	maxBodySize := cfg.MaxBodySize
	if maxBodySize == 0 {
		maxBodySize = 1 << 20
	}
	return &API{
		store:       cfg.Store,
		recorder:    cfg.Recorder,
		sweeper:     cfg.Sweeper,
		reports:     cfg.Reports,
		maxBodySize: maxBodySize,
	}
}

// Register mounts every API route on mux.
func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/kpis", a.createKPI)
	mux.HandleFunc("GET /api/kpis", a.listKPIs)
	mux.HandleFunc("GET /api/kpis/{id}", a.getKPI)
	mux.HandleFunc("POST /api/kpis/{id}/measurements", a.recordMeasurement)
	mux.HandleFunc("GET /api/kpis/{id}/measurements", a.listMeasurements)
	mux.HandleFunc("POST /api/kpis/{id}/preview", a.previewMeasurement)

	mux.HandleFunc("POST /api/actions", a.createAction)
	mux.HandleFunc("GET /api/actions", a.listActions)
	mux.HandleFunc("PATCH /api/actions/{id}/status", a.updateActionStatus)

	mux.HandleFunc("POST /api/problems", a.createProblem)
	mux.HandleFunc("GET /api/problems", a.listProblems)
	mux.HandleFunc("PATCH /api/problems/{id}/status", a.updateProblemStatus)

	mux.HandleFunc("POST /api/notes", a.createNote)
	mux.HandleFunc("GET /api/notes", a.listNotes)

	mux.HandleFunc("GET /api/alerts", a.listAlerts)
	mux.HandleFunc("POST /api/alerts/sweep", a.runSweep)
	mux.HandleFunc("POST /api/alerts/read-all", a.markAllAlertsRead)
	mux.HandleFunc("POST /api/alerts/{id}/read", a.markAlertRead)

	mux.HandleFunc("GET /api/reports/sfm.pdf", a.downloadReport)
}
