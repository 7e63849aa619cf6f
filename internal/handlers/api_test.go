package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"shopfloor/internal/alerts"
	"shopfloor/internal/config"
	"shopfloor/internal/kpi"
	"shopfloor/internal/report"
	"shopfloor/internal/storage"
)

type failingSweeper struct{}

func (failingSweeper) Run(ctx context.Context) (*alerts.Summary, error) {
	return nil, errors.New("database is locked")
}

type testAPI struct {
	mux   *http.ServeMux
	store *storage.Store
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	store, err := storage.Open(config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "sfm.db"),
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatal(err)
	}

	api := New(Config{
		Store:    store,
		Recorder: kpi.NewRecorder(store),
		Sweeper:  alerts.NewSweeper(store),
		Reports:  report.NewBuilder(store, time.UTC),
	})
	mux := http.NewServeMux()
	api.Register(mux)
	return &testAPI{mux: mux, store: store}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func (a *testAPI) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	a.mux.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			t.Fatalf("%s %s: bad response %q: %v", method, path, w.Body.String(), err)
		}
	}
	return w, env
}

func (a *testAPI) createKPI(t *testing.T, body string) string {
	t.Helper()
	w, env := a.do(t, http.MethodPost, "/api/kpis", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("create kpi: status %d: %s", w.Code, w.Body.String())
	}
	var k struct {
		ID string `json:"id"`
	}
	json.Unmarshal(env.Data, &k)
	return k.ID
}

func TestKPI_CreateAndGet(t *testing.T) {
	a := newTestAPI(t)
	id := a.createKPI(t, `{"name":"  OEE ","category":"Performance","target_value":85}`)

	w, env := a.do(t, http.MethodGet, "/api/kpis/"+id, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	var k struct {
		Name      string `json:"name"`
		Category  string `json:"category"`
		Direction string `json:"performance_direction"`
	}
	json.Unmarshal(env.Data, &k)
	if k.Name != "OEE" || k.Category != "performance" || k.Direction != "higher_is_better" {
		t.Errorf("kpi = %+v", k)
	}

	w, _ = a.do(t, http.MethodGet, "/api/kpis/nope", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("missing kpi status = %d, want 404", w.Code)
	}
}

func TestKPI_CreateValidation(t *testing.T) {
	a := newTestAPI(t)
	tests := []struct {
		name string
		body string
	}{
		{"empty name", `{"name":"","category":"safety"}`},
		{"bad category", `{"name":"x","category":"fun"}`},
		{"bad direction", `{"name":"x","category":"safety","performance_direction":"sideways"}`},
		{"threshold order", `{"name":"x","category":"safety","warning_threshold":20,"critical_threshold":10}`},
		{"negative threshold", `{"name":"x","category":"safety","warning_threshold":-1}`},
		{"bad json", `{"name":`},
		{"empty body", ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := a.do(t, http.MethodPost, "/api/kpis", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400 (%s)", w.Code, w.Body.String())
			}
			if env.Success || env.Error == "" {
				t.Errorf("envelope = %+v", env)
			}
		})
	}
}

func TestMeasurements_RecordListPreview(t *testing.T) {
	a := newTestAPI(t)
	id := a.createKPI(t, `{"name":"Changeover","category":"delivery","target_value":50,
		"performance_direction":"lower_is_better","warning_threshold":10,"critical_threshold":20}`)

	w, _ := a.do(t, http.MethodPost, "/api/kpis/"+id+"/measurements", `{"value":55,"recorded_at":"2026-10-01"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("first measurement: %d %s", w.Code, w.Body.String())
	}
	w, env := a.do(t, http.MethodPost, "/api/kpis/"+id+"/measurements", `{"value":58,"recorded_at":"2026-10-08"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("second measurement: %d %s", w.Code, w.Body.String())
	}
	var m struct {
		Status string `json:"status"`
		Trend  string `json:"trend"`
	}
	json.Unmarshal(env.Data, &m)
	if m.Status != "orange" || m.Trend != "up" {
		t.Errorf("measurement = %+v, want orange/up", m)
	}

	w, env = a.do(t, http.MethodGet, "/api/kpis/"+id+"/measurements?limit=1", "")
	var list []struct {
		Value float64 `json:"value"`
	}
	json.Unmarshal(env.Data, &list)
	if w.Code != http.StatusOK || len(list) != 1 || list[0].Value != 58 {
		t.Errorf("list = %d %+v", w.Code, list)
	}

	w, env = a.do(t, http.MethodPost, "/api/kpis/"+id+"/preview", `{"value":62}`)
	var eval struct {
		Status string `json:"status"`
	}
	json.Unmarshal(env.Data, &eval)
	if w.Code != http.StatusOK || eval.Status != "red" {
		t.Errorf("preview = %d %+v", w.Code, eval)
	}

	cases := []struct {
		path, body string
		want       int
	}{
		{"/api/kpis/" + id + "/measurements", `{"recorded_at":"2026-10-01"}`, http.StatusBadRequest},
		{"/api/kpis/" + id + "/measurements", `{"value":1,"recorded_at":"2026-10-01","week_number":3}`, http.StatusBadRequest},
		{"/api/kpis/" + id + "/measurements", `{"value":1,"week_number":54}`, http.StatusBadRequest},
		{"/api/kpis/" + id + "/measurements", `{"value":1,"recorded_at":"yesterday"}`, http.StatusBadRequest},
		{"/api/kpis/missing/measurements", `{"value":1}`, http.StatusNotFound},
		{"/api/kpis/" + id + "/preview", `{}`, http.StatusBadRequest},
	}
	for _, c := range cases {
		if w, _ := a.do(t, http.MethodPost, c.path, c.body); w.Code != c.want {
			t.Errorf("POST %s %s: status %d, want %d", c.path, c.body, w.Code, c.want)
		}
	}
}

func TestActions_Lifecycle(t *testing.T) {
	a := newTestAPI(t)

	w, env := a.do(t, http.MethodPost, "/api/actions",
		`{"title":"Fix guard","category":"safety","due_date":"2026-10-20","priority":"urgent"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", w.Code, w.Body.String())
	}
	var act struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	json.Unmarshal(env.Data, &act)
	if act.Status != "todo" {
		t.Errorf("default status = %q", act.Status)
	}

	w, _ = a.do(t, http.MethodPost, "/api/actions", `{"title":"x","category":"safety","due_date":"20/10/2026"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad due date status = %d", w.Code)
	}

	w, env = a.do(t, http.MethodPatch, "/api/actions/"+act.ID+"/status", `{"status":"completed"}`)
	var done struct {
		Status      string  `json:"status"`
		CompletedAt *string `json:"completed_at"`
	}
	json.Unmarshal(env.Data, &done)
	if w.Code != http.StatusOK || done.Status != "completed" || done.CompletedAt == nil {
		t.Errorf("patch = %d %+v", w.Code, done)
	}

	if w, _ := a.do(t, http.MethodPatch, "/api/actions/"+act.ID+"/status", `{"status":"paused"}`); w.Code != http.StatusBadRequest {
		t.Errorf("bad status = %d", w.Code)
	}
	if w, _ := a.do(t, http.MethodPatch, "/api/actions/nope/status", `{"status":"todo"}`); w.Code != http.StatusNotFound {
		t.Errorf("missing action = %d", w.Code)
	}

	w, env = a.do(t, http.MethodGet, "/api/actions?open=true", "")
	var open []json.RawMessage
	json.Unmarshal(env.Data, &open)
	if w.Code != http.StatusOK || len(open) != 0 {
		t.Errorf("open actions = %d %d", w.Code, len(open))
	}
}

func TestProblemsAndNotes(t *testing.T) {
	a := newTestAPI(t)

	w, env := a.do(t, http.MethodPost, "/api/problems", `{"title":"Leak","category":"quality","severity":"CRITICAL"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create problem: %d %s", w.Code, w.Body.String())
	}
	var p struct {
		ID string `json:"id"`
	}
	json.Unmarshal(env.Data, &p)

	w, env = a.do(t, http.MethodPatch, "/api/problems/"+p.ID+"/status", `{"status":"resolved"}`)
	var resolved struct {
		ResolvedAt *string `json:"resolved_at"`
	}
	json.Unmarshal(env.Data, &resolved)
	if w.Code != http.StatusOK || resolved.ResolvedAt == nil {
		t.Errorf("resolve = %d %+v", w.Code, resolved)
	}

	if w, _ := a.do(t, http.MethodPost, "/api/problems", `{"title":"x","category":"quality","severity":"meh"}`); w.Code != http.StatusBadRequest {
		t.Errorf("bad severity = %d", w.Code)
	}

	if w, _ := a.do(t, http.MethodPost, "/api/notes", `{"category":"human","content":"Shift handover at 6"}`); w.Code != http.StatusCreated {
		t.Errorf("create note = %d", w.Code)
	}
	if w, _ := a.do(t, http.MethodPost, "/api/notes", `{"category":"human","content":"   "}`); w.Code != http.StatusBadRequest {
		t.Errorf("empty note = %d", w.Code)
	}

	w, env = a.do(t, http.MethodGet, "/api/notes?category=human", "")
	var notes []json.RawMessage
	json.Unmarshal(env.Data, &notes)
	if w.Code != http.StatusOK || len(notes) != 1 {
		t.Errorf("notes = %d %d", w.Code, len(notes))
	}

	if w, _ := a.do(t, http.MethodGet, "/api/notes?category=bogus", ""); w.Code != http.StatusBadRequest {
		t.Errorf("bad category filter = %d", w.Code)
	}
	if w, _ := a.do(t, http.MethodGet, "/api/notes?limit=-3", ""); w.Code != http.StatusBadRequest {
		t.Errorf("bad limit = %d", w.Code)
	}
}

func TestAlerts_SweepAndRead(t *testing.T) {
	a := newTestAPI(t)
	id := a.createKPI(t, `{"name":"Scrap","category":"quality","target_value":100,"warning_threshold":5,"critical_threshold":10}`)
	a.do(t, http.MethodPost, "/api/kpis/"+id+"/measurements", `{"value":88}`)

	w, env := a.do(t, http.MethodPost, "/api/alerts/sweep", "")
	var sum alerts.Summary
	json.Unmarshal(env.Data, &sum)
	if w.Code != http.StatusOK || sum.NewAlertsCreated != 1 {
		t.Fatalf("sweep = %d %+v", w.Code, sum)
	}

	w, env = a.do(t, http.MethodPost, "/api/alerts/sweep", "")
	json.Unmarshal(env.Data, &sum)
	if sum.NewAlertsCreated != 0 || sum.DuplicatesSkipped != 1 {
		t.Errorf("second sweep = %+v", sum)
	}

	w, env = a.do(t, http.MethodGet, "/api/alerts?unread=true", "")
	var list []struct {
		ID   string `json:"id"`
		Type string `json:"type"`
	}
	json.Unmarshal(env.Data, &list)
	if len(list) != 1 || list[0].Type != "kpi_critical" {
		t.Fatalf("unread = %+v", list)
	}

	if w, _ := a.do(t, http.MethodPost, "/api/alerts/"+list[0].ID+"/read", ""); w.Code != http.StatusOK {
		t.Errorf("mark read = %d", w.Code)
	}
	if w, _ := a.do(t, http.MethodPost, "/api/alerts/nope/read", ""); w.Code != http.StatusNotFound {
		t.Errorf("mark missing read = %d", w.Code)
	}

	w, env = a.do(t, http.MethodPost, "/api/alerts/read-all", "")
	var updated map[string]int64
	json.Unmarshal(env.Data, &updated)
	if w.Code != http.StatusOK || updated["updated"] != 0 {
		t.Errorf("read-all = %d %v", w.Code, updated)
	}
}

func TestAlerts_SweepFailureIsGeneric(t *testing.T) {
	api := New(Config{Sweeper: failingSweeper{}})
	mux := http.NewServeMux()
	api.Register(mux)

	req := httptest.NewRequest(http.MethodPost, "/api/alerts/sweep", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	var env envelope
	json.Unmarshal(w.Body.Bytes(), &env)
	if env.Error != "alert generation failed" {
		t.Errorf("error = %q", env.Error)
	}
}

func TestReport_Download(t *testing.T) {
	a := newTestAPI(t)
	a.createKPI(t, `{"name":"OEE","category":"performance","target_value":85}`)

	w, _ := a.do(t, http.MethodGet, "/api/reports/sfm.pdf?category=performance", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("content type = %q", ct)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")) {
		t.Error("body is not a PDF")
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "sfm-report-performance.pdf") {
		t.Errorf("content disposition = %q", cd)
	}
}
