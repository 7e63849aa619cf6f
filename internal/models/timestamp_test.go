package models_test

import (
	"testing"
	"time"

	"shopfloor/internal/models"
)

func TestParseTimestamp(t *testing.T) {
	for _, in := range []string{"2026-10-18T08:30:00Z", "2026-10-18 08:30:00", "2026-10-18"} {
		if _, err := models.ParseTimestamp(in); err != nil {
			t.Errorf("ParseTimestamp(%q) = %v", in, err)
		}
	}
	if _, err := models.ParseTimestamp("yesterday"); err != models.ErrInvalidTimestamp {
		t.Errorf("expected ErrInvalidTimestamp, got %v", err)
	}
}

func TestISOWeekStart(t *testing.T) {
	tests := []struct {
		year, week int
		want       string
	}{
		{2026, 1, "2025-12-29"},
		{2026, 42, "2026-10-12"},
		{2021, 1, "2021-01-04"},
	}
	for _, tt := range tests {
		got := models.ISOWeekStart(tt.year, tt.week)
		if got.Format(models.DateLayout) != tt.want {
			t.Errorf("ISOWeekStart(%d, %d) = %s, want %s", tt.year, tt.week, got.Format(models.DateLayout), tt.want)
		}
		if y, w := got.ISOWeek(); y != tt.year || w != tt.week {
			t.Errorf("ISOWeekStart(%d, %d) lands in week %d-%d", tt.year, tt.week, y, w)
		}
	}
}

func TestDayKey(t *testing.T) {
	ts := time.Date(2026, 10, 18, 23, 30, 0, 0, time.UTC)
	tokyo := time.FixedZone("JST", 9*3600)
	if got := models.DayKey(ts, tokyo); got != "2026-10-19" {
		t.Errorf("DayKey in JST = %s", got)
	}
	if got := models.DayKey(ts, nil); got != "2026-10-18" {
		t.Errorf("DayKey in UTC = %s", got)
	}
}
