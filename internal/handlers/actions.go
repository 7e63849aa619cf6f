package handlers

import (
	"fmt"
	"net/http"

	"shopfloor/internal/models"
	"shopfloor/internal/storage"
)

// ActionInput is the body of POST /api/actions. DueDate is YYYY-MM-DD.
type ActionInput struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Category    models.Category     `json:"category"`
	Assignee    string              `json:"assignee"`
	DueDate     string              `json:"due_date"`
	Priority    models.Priority     `json:"priority"`
	Status      models.ActionStatus `json:"status"`
}

// StatusInput is the body of the status PATCH endpoints.
type StatusInput struct {
	Status string `json:"status"`
}

func (a *API) createAction(w http.ResponseWriter, r *http.Request) {
	var in ActionInput
	if err := decode(w, r, a.maxBodySize, &in); err != nil {
		fail(w, r, err)
		return
	}

	item := &models.ActionItem{
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		Assignee:    in.Assignee,
		Priority:    in.Priority,
		Status:      in.Status,
	}
	if in.DueDate != "" {
		due, err := models.ParseDate(in.DueDate)
		if err != nil {
			fail(w, r, fmt.Errorf("due_date: %w", err))
			return
		}
		item.DueDate = due
	}

	item.Normalize()
	if err := item.Validate(); err != nil {
		fail(w, r, err)
		return
	}
	if err := a.store.CreateAction(r.Context(), item); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (a *API) listActions(w http.ResponseWriter, r *http.Request) {
	category, err := queryCategory(r)
	if err != nil {
		fail(w, r, err)
		return
	}

	filter := storage.ActionFilter{
		Category: category,
		Open:     r.URL.Query().Get("open") == "true",
	}
	if s := r.URL.Query().Get("status"); s != "" {
		filter.Status = models.ActionStatus(s)
		if !filter.Status.IsValid() {
			fail(w, r, models.ErrInvalidActionStatus)
			return
		}
	}

	actions, err := a.store.ListActions(r.Context(), filter)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, actions)
}

func (a *API) updateActionStatus(w http.ResponseWriter, r *http.Request) {
	var in StatusInput
	if err := decode(w, r, a.maxBodySize, &in); err != nil {
		fail(w, r, err)
		return
	}
	status := models.ActionStatus(in.Status)
	if !status.IsValid() {
		fail(w, r, models.ErrInvalidActionStatus)
		return
	}

	item, err := a.store.UpdateActionStatus(r.Context(), r.PathValue("id"), status)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}
