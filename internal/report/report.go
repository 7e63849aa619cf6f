// Package report assembles the SFM board into a paginated PDF.
package report

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/go-pdf/fpdf"

	"shopfloor/internal/alerts"
	"shopfloor/internal/logger"
	"shopfloor/internal/metrics"
	"shopfloor/internal/models"
)

// Source is the data the report reads.
type Source interface {
	ListKPIs(ctx context.Context, category models.Category) ([]models.KpiDefinition, error)
	ListMeasurements(ctx context.Context, kpiID string, limit int) ([]models.KpiMeasurement, error)
	OpenActions(ctx context.Context) ([]models.ActionItem, error)
	UnresolvedProblems(ctx context.Context, severities ...models.Severity) ([]models.ProblemReport, error)
	UnreadAlerts(ctx context.Context) ([]models.SmartAlert, error)
}

// Document is a report ready to render.
type Document struct {
	Title       string
	Category    models.Category
	GeneratedAt time.Time
	Sections    []Section
}

// Builder collects report data from a Source.
type Builder struct {
	src Source
	loc *time.Location
	now func() time.Time
}

// NewBuilder creates a builder; dates are printed in loc.
func NewBuilder(src Source, loc *time.Location) *Builder {
	if loc == nil {
		loc = time.UTC
	}
	return &Builder{src: src, loc: loc, now: time.Now}
}

// Build gathers KPIs, open actions, unresolved problems and unread alerts,
// restricted to category when it is set. Alerts follow the category of the
// entity they point at.
func (b *Builder) Build(ctx context.Context, category models.Category) (*Document, error) {
	now := b.now()

	kpis, err := b.src.ListKPIs(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("loading kpis: %w", err)
	}
	actions, err := b.src.OpenActions(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading actions: %w", err)
	}
	problems, err := b.src.UnresolvedProblems(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading problems: %w", err)
	}
	unread, err := b.src.UnreadAlerts(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading alerts: %w", err)
	}

	related := make(map[string]bool)

	sort.SliceStable(kpis, func(i, j int) bool {
		ci, cj := categoryIndex(kpis[i].Category), categoryIndex(kpis[j].Category)
		if ci != cj {
			return ci < cj
		}
		return kpis[i].Name < kpis[j].Name
	})
	kpiSection := Section{
		Title: "KPIs",
		Columns: []Column{
			{"KPI", 52}, {"Category", 26}, {"Target", 20}, {"Latest", 20},
			{"Status", 18}, {"Trend", 16}, {"Recorded", 28},
		},
		Empty: "No KPIs defined.",
	}
	for _, k := range kpis {
		related[k.ID] = true
		row := []string{k.Name, k.Category.Label(), formatTarget(k), "-", "-", "-", "-"}

		latest, err := b.src.ListMeasurements(ctx, k.ID, 1)
		if err != nil {
			return nil, fmt.Errorf("loading measurements of %s: %w", k.ID, err)
		}
		if len(latest) > 0 {
			m := latest[0]
			row[3] = formatValue(m.Value, k.Unit)
			row[4] = string(m.Status)
			row[5] = string(m.Trend)
			row[6] = models.DayKey(m.RecordedAt, b.loc)
		}
		kpiSection.Rows = append(kpiSection.Rows, row)
	}

	actionSection := Section{
		Title: "Open actions",
		Columns: []Column{
			{"Action", 62}, {"Category", 26}, {"Assignee", 30},
			{"Due", 24}, {"Priority", 18}, {"Status", 20},
		},
		Empty: "No open actions.",
	}
	for _, a := range actions {
		if category != "" && a.Category != category {
			continue
		}
		related[a.ID] = true
		actionSection.Rows = append(actionSection.Rows, []string{
			a.Title, a.Category.Label(), a.Assignee,
			models.DayKey(a.DueDate, time.UTC), string(a.Priority), string(a.Status),
		})
	}

	problemSection := Section{
		Title: "Unresolved problems",
		Columns: []Column{
			{"Problem", 72}, {"Category", 26}, {"Severity", 22}, {"Status", 24}, {"Age (days)", 36},
		},
		Empty: "No unresolved problems.",
	}
	sort.SliceStable(problems, func(i, j int) bool {
		ri, rj := problems[i].Severity.Rank(), problems[j].Severity.Rank()
		if ri != rj {
			return ri > rj
		}
		return problems[i].CreatedAt.Before(problems[j].CreatedAt)
	})
	for i := range problems {
		p := &problems[i]
		if category != "" && p.Category != category {
			continue
		}
		related[p.ID] = true
		problemSection.Rows = append(problemSection.Rows, []string{
			p.Title, p.Category.Label(), string(p.Severity), string(p.Status),
			strconv.Itoa(alerts.ProblemAge(p, now)),
		})
	}

	alertSection := Section{
		Title: "Unread alerts",
		Columns: []Column{
			{"Alert", 84}, {"Type", 36}, {"Severity", 22}, {"Created", 38},
		},
		Empty: "No unread alerts.",
	}
	sort.SliceStable(unread, func(i, j int) bool {
		if !unread[i].CreatedAt.Equal(unread[j].CreatedAt) {
			return unread[i].CreatedAt.After(unread[j].CreatedAt)
		}
		return unread[i].ID < unread[j].ID
	})
	for _, a := range unread {
		if category != "" && !related[a.RelatedID] {
			continue
		}
		alertSection.Rows = append(alertSection.Rows, []string{
			a.Title, string(a.Type), string(a.Severity),
			a.CreatedAt.In(b.loc).Format("2006-01-02 15:04"),
		})
	}

	title := "Shop Floor Management report"
	if category != "" {
		title += " - " + category.Label()
	}

	return &Document{
		Title:       title,
		Category:    category,
		GeneratedAt: now.In(b.loc),
		Sections:    []Section{kpiSection, actionSection, problemSection, alertSection},
	}, nil
}

func categoryIndex(c models.Category) int {
	for i, cat := range models.Categories {
		if cat == c {
			return i
		}
	}
	return len(models.Categories)
}

func formatValue(v float64, unit string) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if unit != "" {
		s += " " + unit
	}
	return s
}

func formatTarget(k models.KpiDefinition) string {
	if k.TargetValue == nil {
		return "-"
	}
	return formatValue(*k.TargetValue, k.Unit)
}

// Render writes the document as a PDF.
func Render(w io.Writer, doc *Document) error {
	err := render(w, doc)
	status := "success"
	if err != nil {
		status = "failed"
		log := logger.WithComponent("report")
		log.Error().Err(err).Msg("rendering report failed")
	}
	metrics.ReportsGenerated.WithLabelValues(status).Inc()
	return err
}

func render(w io.Writer, doc *Document) error {
	g := A4
	pages := Paginate(doc.Sections, g)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, g.TopMargin, 15)
	pdf.SetAutoPageBreak(false, g.BottomMargin)
	pdf.AliasNbPages("")
	pdf.SetTitle(doc.Title, true)
	pdf.SetCreator("sfm", true)

	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	for _, page := range pages {
		pdf.AddPage()
		for _, b := range page.Blocks {
			pdf.SetXY(15, b.Y)
			switch b.Kind {
			case BlockHeading:
				pdf.SetFont("Helvetica", "B", 16)
				pdf.CellFormat(0, 9, tr(doc.Title), "", 1, "L", false, 0, "")
				pdf.SetFont("Helvetica", "", 9)
				pdf.CellFormat(0, 6, "Generated "+doc.GeneratedAt.Format("2006-01-02 15:04 MST"), "", 0, "L", false, 0, "")

			case BlockTitle:
				pdf.SetFont("Helvetica", "B", 12)
				pdf.CellFormat(0, g.TitleHeight, tr(doc.Sections[b.Section].Title), "", 0, "L", false, 0, "")

			case BlockHeader:
				s := doc.Sections[b.Section]
				pdf.SetFont("Helvetica", "B", 9)
				pdf.SetFillColor(225, 225, 225)
				for i, c := range s.Columns {
					label := c.Header
					if b.Continued && i == 0 {
						label += " (cont.)"
					}
					pdf.CellFormat(c.Width, g.HeaderHeight, tr(label), "1", 0, "L", true, 0, "")
				}

			case BlockRow:
				s := doc.Sections[b.Section]
				pdf.SetFont("Helvetica", "", 9)
				for i, c := range s.Columns {
					var text string
					if i < len(s.Rows[b.Row]) {
						text = fit(pdf, tr, s.Rows[b.Row][i], c.Width-2)
					}
					pdf.CellFormat(c.Width, g.RowHeight, text, "1", 0, "L", false, 0, "")
				}

			case BlockEmpty:
				pdf.SetFont("Helvetica", "I", 9)
				pdf.CellFormat(0, g.RowHeight, tr(doc.Sections[b.Section].Empty), "", 0, "L", false, 0, "")
			}
		}
	}

	return pdf.Output(w)
}

// fit translates text and shortens it to the cell width so rows keep a
// fixed height.
func fit(pdf *fpdf.Fpdf, tr func(string) string, text string, width float64) string {
	if out := tr(text); pdf.GetStringWidth(out) <= width {
		return out
	}
	runes := []rune(text)
	for len(runes) > 0 && pdf.GetStringWidth(tr(string(runes)+"...")) > width {
		runes = runes[:len(runes)-1]
	}
	return tr(string(runes) + "...")
}
