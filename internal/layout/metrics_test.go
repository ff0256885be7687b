package layout

import (
	"testing"
	"time"
)

func TestMetricsOffsetFor(t *testing.T) {
	m := Metrics{HourHeight: 60}

	tests := []struct {
		name string
		t    time.Time
		want float64
	}{
		{"midnight", at(0, 0), 0},
		{"nine sharp", at(9, 0), 540},
		{"half past", at(9, 30), 570},
		{"last minute", at(23, 59), 23*60 + 59},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := m.OffsetFor(tc.t); got != tc.want {
				t.Errorf("OffsetFor(%v) = %v, want %v", tc.t, got, tc.want)
			}
		})
	}
}

// The calendar date must not influence the offset.
func TestMetricsOffsetIgnoresDate(t *testing.T) {
	m := Metrics{HourHeight: 40}
	a := time.Date(2026, time.January, 1, 14, 15, 0, 0, time.UTC)
	b := time.Date(2026, time.September, 30, 14, 15, 0, 0, time.UTC)
	if m.OffsetFor(a) != m.OffsetFor(b) {
		t.Errorf("offsets differ across dates: %v vs %v", m.OffsetFor(a), m.OffsetFor(b))
	}
}

func TestMetricsTimeAtRoundTrip(t *testing.T) {
	for _, unit := range []float64{24, 60, 100} {
		m := Metrics{HourHeight: unit}
		for hour := 0; hour < 24; hour += 3 {
			for _, min := range []int{0, 1, 30, 59} {
				orig := at(hour, min)
				got := m.TimeAt(m.OffsetFor(orig), testDay)
				if !got.Equal(orig) {
					t.Errorf("unit %v: round trip of %v gave %v", unit, orig, got)
				}
			}
		}
	}
}

func TestMetricsDefaults(t *testing.T) {
	var m Metrics
	if got := m.DayHeight(); got != HoursPerDay*DefaultHourHeight {
		t.Errorf("DayHeight() = %v, want %v", got, HoursPerDay*DefaultHourHeight)
	}
	if got := m.OffsetFor(at(1, 0)); got != DefaultHourHeight {
		t.Errorf("OffsetFor(01:00) = %v, want %v", got, DefaultHourHeight)
	}
}

func TestMetricsHeightFor(t *testing.T) {
	m := Metrics{HourHeight: 60}
	if got := m.HeightFor(90 * time.Minute); got != 90 {
		t.Errorf("HeightFor(90m) = %v, want 90", got)
	}
	if got := m.HeightFor(0); got != 0 {
		t.Errorf("HeightFor(0) = %v, want 0", got)
	}
}

func TestMetricsOffsetRange(t *testing.T) {
	m := Metrics{HourHeight: 50}
	for hour := 0; hour < 24; hour++ {
		off := m.OffsetFor(at(hour, 59))
		if off < 0 || off >= m.DayHeight() {
			t.Errorf("offset %v out of [0, %v)", off, m.DayHeight())
		}
	}
}
