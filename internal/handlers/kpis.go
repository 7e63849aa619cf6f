package handlers

import (
	"net/http"

	"shopfloor/internal/kpi"
	"shopfloor/internal/models"
)

// KPIInput is the body of POST /api/kpis.
type KPIInput struct {
	Name                 string           `json:"name"`
	Description          string           `json:"description"`
	Category             models.Category  `json:"category"`
	Unit                 string           `json:"unit"`
	TargetValue          *float64         `json:"target_value"`
	PerformanceDirection models.Direction `json:"performance_direction"`
	WarningThreshold     *float64         `json:"warning_threshold"`
	CriticalThreshold    *float64         `json:"critical_threshold"`
}

func (a *API) createKPI(w http.ResponseWriter, r *http.Request) {
	var in KPIInput
	if err := decode(w, r, a.maxBodySize, &in); err != nil {
		fail(w, r, err)
		return
	}

	k := &models.KpiDefinition{
		Name:                 in.Name,
		Description:          in.Description,
		Category:             in.Category,
		Unit:                 in.Unit,
		TargetValue:          in.TargetValue,
		PerformanceDirection: in.PerformanceDirection,
		WarningThreshold:     in.WarningThreshold,
		CriticalThreshold:    in.CriticalThreshold,
	}
	k.Normalize()
	if err := k.Validate(); err != nil {
		fail(w, r, err)
		return
	}

	if err := a.store.CreateKPI(r.Context(), k); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, k)
}

func (a *API) listKPIs(w http.ResponseWriter, r *http.Request) {
	category, err := queryCategory(r)
	if err != nil {
		fail(w, r, err)
		return
	}

	kpis, err := a.store.ListKPIs(r.Context(), category)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, kpis)
}

func (a *API) getKPI(w http.ResponseWriter, r *http.Request) {
	k, err := a.store.GetKPI(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, k)
}

func (a *API) recordMeasurement(w http.ResponseWriter, r *http.Request) {
	var in kpi.MeasurementInput
	if err := decode(w, r, a.maxBodySize, &in); err != nil {
		fail(w, r, err)
		return
	}
	in.KpiID = r.PathValue("id")

	m, err := a.recorder.Record(r.Context(), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (a *API) listMeasurements(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r, 100, 1000)
	if err != nil {
		fail(w, r, err)
		return
	}

	id := r.PathValue("id")
	if _, err := a.store.GetKPI(r.Context(), id); err != nil {
		fail(w, r, err)
		return
	}

	ms, err := a.store.ListMeasurements(r.Context(), id, limit)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ms)
}

func (a *API) previewMeasurement(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Value *float64 `json:"value"`
	}
	if err := decode(w, r, a.maxBodySize, &in); err != nil {
		fail(w, r, err)
		return
	}
	if in.Value == nil {
		fail(w, r, kpi.ErrMissingValue)
		return
	}

	eval, err := a.recorder.Preview(r.Context(), r.PathValue("id"), *in.Value)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, eval)
}
