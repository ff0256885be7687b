package model

import (
	"testing"
	"time"
)

func TestValid(t *testing.T) {
	base := time.Date(2026, time.April, 6, 9, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		ev   Event
		want bool
	}{
		{"well-formed", Event{Start: base, End: base.Add(time.Hour)}, true},
		{"zero duration", Event{Start: base, End: base}, false},
		{"inverted", Event{Start: base, End: base.Add(-time.Hour)}, false},
		{"zero start", Event{End: base}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.ev.Valid(); got != tc.want {
				t.Errorf("Valid() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestDerivePlaceStatus(t *testing.T) {
	tests := []struct {
		location string
		want     string
	}{
		{"", ""},
		{"   ", ""},
		{"https://meet.example.com/abc", "online"},
		{"HTTP://ZOOM.EXAMPLE.COM/j/1", "online"},
		{"Room 4B", "on-site"},
		{"Main St Clinic", "on-site"},
	}
	for _, tc := range tests {
		if got := DerivePlaceStatus(tc.location); got != tc.want {
			t.Errorf("DerivePlaceStatus(%q) = %q, want %q", tc.location, got, tc.want)
		}
	}
}

func TestDayKeyAndOnDay(t *testing.T) {
	seoul, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		t.Fatal(err)
	}
	// 23:00 UTC on the 6th is already the 7th in Seoul.
	ev := Event{
		Start: time.Date(2026, time.April, 6, 23, 0, 0, 0, time.UTC),
		End:   time.Date(2026, time.April, 6, 23, 30, 0, 0, time.UTC),
	}

	if got := ev.DayKey(time.UTC); got != "2026-04-06" {
		t.Errorf("DayKey(UTC) = %q", got)
	}
	if got := ev.DayKey(seoul); got != "2026-04-07" {
		t.Errorf("DayKey(Seoul) = %q", got)
	}

	day7 := time.Date(2026, time.April, 7, 0, 0, 0, 0, seoul)
	if !ev.OnDay(day7, seoul) {
		t.Error("event should fall on the 7th in Seoul")
	}
	// The date argument is a calendar date, not an instant: April 7 stays
	// April 7 even when the event is checked in UTC, where the start is
	// still the 6th.
	if ev.OnDay(day7, time.UTC) {
		t.Error("event should not fall on the 7th in UTC")
	}

	day6 := time.Date(2026, time.April, 6, 0, 0, 0, 0, time.UTC)
	if !ev.OnDay(day6, time.UTC) {
		t.Error("event should fall on the 6th in UTC")
	}
}
