package handlers

import (
	"net/http"

	"shopfloor/internal/models"
	"shopfloor/internal/storage"
)

// ProblemInput is the body of POST /api/problems.
type ProblemInput struct {
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Category    models.Category      `json:"category"`
	Severity    models.Severity      `json:"severity"`
	Status      models.ProblemStatus `json:"status"`
	ReportedBy  string               `json:"reported_by"`
}

func (a *API) createProblem(w http.ResponseWriter, r *http.Request) {
	var in ProblemInput
	if err := decode(w, r, a.maxBodySize, &in); err != nil {
		fail(w, r, err)
		return
	}

	p := &models.ProblemReport{
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		Severity:    in.Severity,
		Status:      in.Status,
		ReportedBy:  in.ReportedBy,
	}
	p.Normalize()
	if err := p.Validate(); err != nil {
		fail(w, r, err)
		return
	}
	if err := a.store.CreateProblem(r.Context(), p); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (a *API) listProblems(w http.ResponseWriter, r *http.Request) {
	category, err := queryCategory(r)
	if err != nil {
		fail(w, r, err)
		return
	}

	filter := storage.ProblemFilter{
		Category:   category,
		Unresolved: r.URL.Query().Get("unresolved") == "true",
	}
	if s := r.URL.Query().Get("status"); s != "" {
		filter.Status = models.ProblemStatus(s)
		if !filter.Status.IsValid() {
			fail(w, r, models.ErrInvalidProblemStatus)
			return
		}
	}

	problems, err := a.store.ListProblems(r.Context(), filter)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, problems)
}

func (a *API) updateProblemStatus(w http.ResponseWriter, r *http.Request) {
	var in StatusInput
	if err := decode(w, r, a.maxBodySize, &in); err != nil {
		fail(w, r, err)
		return
	}
	status := models.ProblemStatus(in.Status)
	if !status.IsValid() {
		fail(w, r, models.ErrInvalidProblemStatus)
		return
	}

	p, err := a.store.UpdateProblemStatus(r.Context(), r.PathValue("id"), status)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
