package handlers

import (
	"net/http"

	"shopfloor/internal/models"
)

func (a *API) createNote(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Category models.Category `json:"category"`
		Content  string          `json:"content"`
		Author   string          `json:"author"`
	}
	if err := decode(w, r, a.maxBodySize, &in); err != nil {
		fail(w, r, err)
		return
	}

	n := &models.Note{Category: in.Category, Content: in.Content, Author: in.Author}
	n.Normalize()
	if err := n.Validate(); err != nil {
		fail(w, r, err)
		return
	}
	if err := a.store.CreateNote(r.Context(), n); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

func (a *API) listNotes(w http.ResponseWriter, r *http.Request) {
	category, err := queryCategory(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	limit, err := queryLimit(r, 50, 500)
	if err != nil {
		fail(w, r, err)
		return
	}

	notes, err := a.store.ListNotes(r.Context(), category, limit)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, notes)
}
