// Package kpi derives the traffic-light status and trend of KPI measurements
// and records new measurements with both attached.
package kpi

import (
	"math"

	"shopfloor/internal/models"
)

const (
	// trendBand is the relative change below which a measurement counts as stable.
	trendBand = 0.01
	// fallbackMargin is the tolerance of the simple comparison used when no
	// percentage threshold fires.
	fallbackMargin = 0.1
)

// Evaluation is the derived status and trend of one value.
type Evaluation struct {
	Status models.Status `json:"status"`
	Trend  models.Trend  `json:"trend"`
}

// ComputeStatus classifies value against the KPI target.
//
// A missing target is always green. When the KPI configures a warning or
// critical threshold, the thresholds alone decide: a deviation below them is
// green. Without thresholds a fixed 10% band around the target separates
// orange from red. A zero target has no percentage deviation, so it always
// uses the band. Non-finite inputs fall back to green rather than failing
// the save.
func ComputeStatus(value float64, target, warning, critical *float64, direction models.Direction) models.Status {
	if target == nil || !finite(value) || !finite(*target) {
		return models.StatusGreen
	}
	t := *target
	higherIsBetter := direction != models.LowerIsBetter

	// positive diff means underperforming
	var diff float64
	if higherIsBetter {
		diff = t - value
	} else {
		diff = value - t
	}

	if t != 0 && (warning != nil || critical != nil) {
		percentDiff := math.Abs(diff/t) * 100
		switch {
		case critical != nil && diff > 0 && percentDiff >= *critical:
			return models.StatusRed
		case warning != nil && diff > 0 && percentDiff >= *warning:
			return models.StatusOrange
		default:
			return models.StatusGreen
		}
	}

	if higherIsBetter {
		switch {
		case value >= t:
			return models.StatusGreen
		case value >= t*(1-fallbackMargin):
			return models.StatusOrange
		default:
			return models.StatusRed
		}
	}
	switch {
	case value <= t:
		return models.StatusGreen
	case value <= t*(1+fallbackMargin):
		return models.StatusOrange
	default:
		return models.StatusRed
	}
}

// ComputeTrend compares a value with the previous measurement of the same KPI.
// The result is numeric: an increase is "up" whichever way the KPI improves.
func ComputeTrend(current float64, previous *float64) models.Trend {
	if previous == nil || !finite(current) || !finite(*previous) {
		return models.TrendStable
	}
	diff := current - *previous
	if math.Abs(diff) <= math.Abs(*previous)*trendBand {
		return models.TrendStable
	}
	if diff > 0 {
		return models.TrendUp
	}
	return models.TrendDown
}

// Evaluate computes status and trend of value for the given KPI.
func Evaluate(def *models.KpiDefinition, value float64, previous *float64) Evaluation {
	return Evaluation{
		Status: ComputeStatus(value, def.TargetValue, def.WarningThreshold, def.CriticalThreshold, def.PerformanceDirection),
		Trend:  ComputeTrend(value, previous),
	}
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
