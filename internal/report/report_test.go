package report

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"shopfloor/internal/models"
)

type fakeSource struct {
	kpis         []models.KpiDefinition
	measurements map[string][]models.KpiMeasurement
	actions      []models.ActionItem
	problems     []models.ProblemReport
	alerts       []models.SmartAlert
	err          error
}

func (f *fakeSource) ListKPIs(ctx context.Context, category models.Category) ([]models.KpiDefinition, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.KpiDefinition
	for _, k := range f.kpis {
		if category == "" || k.Category == category {
			out = append(out, k)
		}
	}
	return out, nil
}

func (f *fakeSource) ListMeasurements(ctx context.Context, kpiID string, limit int) ([]models.KpiMeasurement, error) {
	ms := f.measurements[kpiID]
	if limit > 0 && len(ms) > limit {
		ms = ms[:limit]
	}
	return ms, nil
}

func (f *fakeSource) OpenActions(ctx context.Context) ([]models.ActionItem, error) {
	return f.actions, nil
}

func (f *fakeSource) UnresolvedProblems(ctx context.Context, severities ...models.Severity) ([]models.ProblemReport, error) {
	return f.problems, nil
}

func (f *fakeSource) UnreadAlerts(ctx context.Context) ([]models.SmartAlert, error) {
	return f.alerts, nil
}

func fp(v float64) *float64 { return &v }

var reportNow = time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)

func sampleSource() *fakeSource {
	return &fakeSource{
		kpis: []models.KpiDefinition{
			{ID: "k-q", Name: "First pass yield", Category: models.CategoryQuality, TargetValue: fp(98), Unit: "%"},
			{ID: "k-s", Name: "Near misses", Category: models.CategorySafety},
		},
		measurements: map[string][]models.KpiMeasurement{
			"k-q": {{KpiID: "k-q", Value: 95.5, Status: models.StatusOrange, Trend: models.TrendDown, RecordedAt: reportNow}},
		},
		actions: []models.ActionItem{
			{ID: "a-s", Title: "Guard rail", Category: models.CategorySafety, DueDate: reportNow, Priority: models.PriorityHigh, Status: models.ActionTodo},
			{ID: "a-q", Title: "Gauge R&R", Category: models.CategoryQuality, DueDate: reportNow, Priority: models.PriorityLow, Status: models.ActionTodo},
		},
		problems: []models.ProblemReport{
			{ID: "p-q", Title: "Burrs", Category: models.CategoryQuality, Severity: models.SeverityHigh, Status: models.ProblemOpen, CreatedAt: reportNow.Add(-50 * time.Hour)},
			{ID: "p-s", Title: "Oil spill", Category: models.CategorySafety, Severity: models.SeverityCritical, Status: models.ProblemOpen, CreatedAt: reportNow},
		},
		alerts: []models.SmartAlert{
			{ID: "al-1", Title: "KPI warning: First pass yield", RelatedID: "k-q", Type: models.AlertKpiWarning, CreatedAt: reportNow},
			{ID: "al-2", Title: "Problem reported: Oil spill", RelatedID: "p-s", Type: models.AlertProblemCritical, CreatedAt: reportNow},
		},
	}
}

func newTestBuilder(src Source) *Builder {
	b := NewBuilder(src, time.UTC)
	b.now = func() time.Time { return reportNow }
	return b
}

func TestBuild_AllCategories(t *testing.T) {
	doc, err := newTestBuilder(sampleSource()).Build(context.Background(), "")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(doc.Sections) != 4 {
		t.Fatalf("got %d sections, want 4", len(doc.Sections))
	}

	kpis := doc.Sections[0].Rows
	// Safety sorts before quality.
	if kpis[0][0] != "Near misses" || kpis[1][0] != "First pass yield" {
		t.Errorf("kpi order = %q, %q", kpis[0][0], kpis[1][0])
	}
	if kpis[1][3] != "95.5 %" || kpis[1][4] != "orange" || kpis[1][5] != "down" {
		t.Errorf("kpi row = %v", kpis[1])
	}
	if kpis[0][2] != "-" || kpis[0][3] != "-" {
		t.Errorf("kpi without target/measurement = %v", kpis[0])
	}

	problems := doc.Sections[2].Rows
	if problems[0][0] != "Oil spill" || problems[1][4] != "2" {
		t.Errorf("problems = %v", problems)
	}

	if n := len(doc.Sections[3].Rows); n != 2 {
		t.Errorf("alerts = %d rows, want 2", n)
	}
}

func TestBuild_CategoryFilter(t *testing.T) {
	doc, err := newTestBuilder(sampleSource()).Build(context.Background(), models.CategoryQuality)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	for i, want := range []int{1, 1, 1, 1} {
		if got := len(doc.Sections[i].Rows); got != want {
			t.Errorf("section %q has %d rows, want %d", doc.Sections[i].Title, got, want)
		}
	}
	if doc.Sections[3].Rows[0][1] != string(models.AlertKpiWarning) {
		t.Errorf("alert row = %v, want the quality kpi warning", doc.Sections[3].Rows[0])
	}
	if doc.Title != "Shop Floor Management report - Quality" {
		t.Errorf("title = %q", doc.Title)
	}
}

func TestBuild_SourceError(t *testing.T) {
	src := sampleSource()
	src.err = errors.New("db down")
	if _, err := newTestBuilder(src).Build(context.Background(), ""); err == nil {
		t.Error("Build() succeeded with failing source")
	}
}

func TestRender_ProducesPDF(t *testing.T) {
	src := sampleSource()
	for i := 0; i < 120; i++ {
		src.actions = append(src.actions, models.ActionItem{
			ID: "bulk", Title: "Kaizen follow-up with a rather long title that will not fit the column",
			Category: models.CategoryCost, DueDate: reportNow, Priority: models.PriorityMedium, Status: models.ActionInProgress,
		})
	}

	doc, err := newTestBuilder(src).Build(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := Render(&buf, doc); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Errorf("output does not start with a PDF header")
	}
	if pages := Paginate(doc.Sections, A4); len(pages) < 2 {
		t.Errorf("expected a multi-page report, got %d page(s)", len(pages))
	}
}
