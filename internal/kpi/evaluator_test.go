package kpi

import (
	"math"
	"testing"

	"shopfloor/internal/models"
)

func f(v float64) *float64 { return &v }

func TestComputeStatus(t *testing.T) {
	tests := []struct {
		name      string
		value     float64
		target    *float64
		warning   *float64
		critical  *float64
		direction models.Direction
		want      models.Status
	}{
		{"no target", 5, nil, f(5), f(10), models.HigherIsBetter, models.StatusGreen},
		{"no target lower", -1e9, nil, nil, nil, models.LowerIsBetter, models.StatusGreen},

		{"higher at target", 100, f(100), nil, nil, models.HigherIsBetter, models.StatusGreen},
		{"higher within band", 91, f(100), nil, nil, models.HigherIsBetter, models.StatusOrange},
		{"higher below band", 80, f(100), nil, nil, models.HigherIsBetter, models.StatusRed},
		{"higher above target", 130, f(100), nil, nil, models.HigherIsBetter, models.StatusGreen},
		{"empty direction is higher", 80, f(100), nil, nil, "", models.StatusRed},

		{"lower at target", 10, f(10), nil, nil, models.LowerIsBetter, models.StatusGreen},
		{"lower within band", 10.5, f(10), nil, nil, models.LowerIsBetter, models.StatusOrange},
		{"lower above band", 12, f(10), nil, nil, models.LowerIsBetter, models.StatusRed},

		{"thresholds below warning", 96, f(100), f(5), f(10), models.HigherIsBetter, models.StatusGreen},
		{"thresholds warning", 94, f(100), f(5), f(10), models.HigherIsBetter, models.StatusOrange},
		{"thresholds critical", 88, f(100), f(5), f(10), models.HigherIsBetter, models.StatusRed},
		{"thresholds exactly critical", 90, f(100), f(5), f(10), models.HigherIsBetter, models.StatusRed},
		{"thresholds overperforming", 150, f(100), f(5), f(10), models.HigherIsBetter, models.StatusGreen},
		{"only critical fires", 70, f(100), nil, f(20), models.HigherIsBetter, models.StatusRed},
		{"only critical quiet", 85, f(100), nil, f(20), models.HigherIsBetter, models.StatusGreen},
		{"only warning quiet outside band", 85, f(100), f(50), nil, models.HigherIsBetter, models.StatusGreen},
		{"lower only warning quiet outside band", 120, f(100), f(50), nil, models.LowerIsBetter, models.StatusGreen},

		{"lower warning not critical", 58, f(50), f(10), f(20), models.LowerIsBetter, models.StatusOrange},
		{"lower critical", 61, f(50), f(10), f(20), models.LowerIsBetter, models.StatusRed},
		{"lower under target", 40, f(50), f(10), f(20), models.LowerIsBetter, models.StatusGreen},

		{"zero target lower at zero", 0, f(0), f(10), f(20), models.LowerIsBetter, models.StatusGreen},
		{"zero target lower above", 1, f(0), f(10), f(20), models.LowerIsBetter, models.StatusRed},
		{"zero target higher", -1, f(0), nil, nil, models.HigherIsBetter, models.StatusRed},

		{"nan value", math.NaN(), f(100), nil, nil, models.HigherIsBetter, models.StatusGreen},
		{"inf value", math.Inf(1), f(10), nil, nil, models.LowerIsBetter, models.StatusGreen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeStatus(tt.value, tt.target, tt.warning, tt.critical, tt.direction)
			if got != tt.want {
				t.Errorf("ComputeStatus(%v) = %s, want %s", tt.value, got, tt.want)
			}
		})
	}
}

func TestComputeTrend(t *testing.T) {
	tests := []struct {
		name     string
		current  float64
		previous *float64
		want     models.Trend
	}{
		{"no previous", 42, nil, models.TrendStable},
		{"up", 105, f(100), models.TrendUp},
		{"inside band", 100.5, f(100), models.TrendStable},
		{"band edge", 101, f(100), models.TrendStable},
		{"down", 95, f(100), models.TrendDown},
		{"negative previous", -90, f(-100), models.TrendUp},
		{"from zero", 0.001, f(0), models.TrendUp},
		{"zero to zero", 0, f(0), models.TrendStable},
		{"nan current", math.NaN(), f(1), models.TrendStable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComputeTrend(tt.current, tt.previous); got != tt.want {
				t.Errorf("ComputeTrend(%v) = %s, want %s", tt.current, got, tt.want)
			}
		})
	}
}

func TestEvaluate(t *testing.T) {
	def := &models.KpiDefinition{
		TargetValue:          f(50),
		PerformanceDirection: models.LowerIsBetter,
		WarningThreshold:     f(10),
		CriticalThreshold:    f(20),
	}

	got := Evaluate(def, 58, f(45))
	if got.Status != models.StatusOrange || got.Trend != models.TrendUp {
		t.Errorf("Evaluate() = %+v, want orange/up", got)
	}
}
