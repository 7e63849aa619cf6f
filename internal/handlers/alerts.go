package handlers

import (
	"net/http"

	"shopfloor/internal/alerts"
	"shopfloor/internal/logger"
	"shopfloor/internal/middleware"
)

func (a *API) listAlerts(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r, 200, 1000)
	if err != nil {
		fail(w, r, err)
		return
	}

	list, err := a.store.ListAlerts(r.Context(), r.URL.Query().Get("unread") == "true", limit)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// runSweep reports a failed sweep with the generic notice only; the cause
// is in the sweep log.
func (a *API) runSweep(w http.ResponseWriter, r *http.Request) {
	sum, err := a.sweeper.Run(r.Context())
	if err != nil {
		log := logger.WithRequestID(r.Header.Get(middleware.RequestIDHeader))
		log.Error().
			Err(err).
			Msg("on-demand sweep failed")
		writeError(w, http.StatusInternalServerError, alerts.ErrSweepFailed.Error())
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (a *API) markAlertRead(w http.ResponseWriter, r *http.Request) {
	if err := a.store.MarkAlertRead(r.Context(), r.PathValue("id")); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"updated": 1})
}

func (a *API) markAllAlertsRead(w http.ResponseWriter, r *http.Request) {
	n, err := a.store.MarkAllAlertsRead(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"updated": n})
}
