package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"shopfloor/internal/report"
)

func (a *API) downloadReport(w http.ResponseWriter, r *http.Request) {
	category, err := queryCategory(r)
	if err != nil {
		fail(w, r, err)
		return
	}

	doc, err := a.reports.Build(r.Context(), category)
	if err != nil {
		fail(w, r, err)
		return
	}

	// Render fully first so a failure can still produce a JSON error.
	var buf bytes.Buffer
	if err := report.Render(&buf, doc); err != nil {
		fail(w, r, err)
		return
	}

	name := "sfm-report"
	if category != "" {
		name += "-" + string(category)
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+".pdf"))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}
