package render

import (
	"strings"
	"testing"
	"time"

	"github.com/sylee2006/Mobile-project/internal/layout"
	"github.com/sylee2006/Mobile-project/internal/model"
	"github.com/sylee2006/Mobile-project/internal/week"
)

func weekDays(t *testing.T) []time.Time {
	t.Helper()
	return week.Days(time.Date(2026, time.April, 6, 0, 0, 0, 0, time.UTC))
}

func TestBuildPageGeometry(t *testing.T) {
	days := weekDays(t)
	eventsByDay := make([][]model.Event, len(days))
	eventsByDay[2] = []model.Event{
		{
			ID:    "a",
			Title: "Planning",
			Start: days[2].Add(9 * time.Hour),
			End:   days[2].Add(11 * time.Hour),
		},
		{
			ID:    "b",
			Title: "1:1",
			Start: days[2].Add(9*time.Hour + 30*time.Minute),
			End:   days[2].Add(10 * time.Hour),
		},
	}

	m := layout.Metrics{HourHeight: 40}
	page := BuildPage(days, eventsByDay, m, nil, "", days[0])

	if len(page.Days) != week.DaysPerWeek {
		t.Fatalf("days = %d", len(page.Days))
	}
	if page.DayHeight != 40*layout.HoursPerDay {
		t.Errorf("DayHeight = %v", page.DayHeight)
	}
	if len(page.Hours) != layout.HoursPerDay {
		t.Fatalf("hours = %d", len(page.Hours))
	}
	if page.Hours[9].Label != "09:00" || page.Hours[9].TopPx != 9*40 {
		t.Errorf("hour mark 9 = %+v", page.Hours[9])
	}

	boxes := page.Days[2].Boxes
	if len(boxes) != 2 {
		t.Fatalf("boxes = %d", len(boxes))
	}
	if boxes[0].TopPx != 9*40 || boxes[0].HeightPx != 2*40 {
		t.Errorf("box a geometry = %+v", boxes[0])
	}
	if boxes[0].WidthPct != 50 || boxes[1].WidthPct != 50 {
		t.Errorf("overlap widths = %v, %v", boxes[0].WidthPct, boxes[1].WidthPct)
	}
	if boxes[0].LeftPct != 0 || boxes[1].LeftPct != 50 {
		t.Errorf("overlap lefts = %v, %v", boxes[0].LeftPct, boxes[1].LeftPct)
	}
	if boxes[0].TimeLabel != "09:00–11:00" {
		t.Errorf("time label = %q", boxes[0].TimeLabel)
	}
}

func TestBuildPageHighlightAndColor(t *testing.T) {
	days := weekDays(t)
	eventsByDay := make([][]model.Event, len(days))
	eventsByDay[0] = []model.Event{
		{ID: "x", Title: "Team Standup", Start: days[0].Add(9 * time.Hour), End: days[0].Add(10 * time.Hour)},
		{ID: "y", Title: "Lunch", Color: "#112233", Start: days[0].Add(12 * time.Hour), End: days[0].Add(13 * time.Hour)},
	}

	page := BuildPage(days, eventsByDay, layout.Metrics{}, []string{"Standup"}, "", days[3])

	boxes := page.Days[0].Boxes
	if !boxes[0].Highlight {
		t.Error("keyword match should highlight")
	}
	if boxes[1].Highlight {
		t.Error("non-matching title highlighted")
	}
	if boxes[1].Color != "#112233" {
		t.Errorf("explicit color overridden: %q", boxes[1].Color)
	}
	if boxes[0].Color == "" || !strings.HasPrefix(boxes[0].Color, "#") {
		t.Errorf("derived color = %q", boxes[0].Color)
	}
	if !page.Days[3].IsToday || page.Days[0].IsToday {
		t.Error("IsToday mismatch")
	}
}

func TestColorForStable(t *testing.T) {
	if ColorFor("abc") != ColorFor("abc") {
		t.Error("same ID produced different colors")
	}
}

func TestWeekPage(t *testing.T) {
	days := weekDays(t)
	eventsByDay := make([][]model.Event, len(days))
	eventsByDay[1] = []model.Event{
		{ID: "e", Title: "Dentist", Location: "Main St Clinic", PlaceStatus: "on-site",
			Start: days[1].Add(14 * time.Hour), End: days[1].Add(15 * time.Hour)},
	}

	page := BuildPage(days, eventsByDay, layout.Metrics{}, nil, "Pack an umbrella.", days[1])

	var b strings.Builder
	if err := WeekPage(&b, page); err != nil {
		t.Fatalf("WeekPage: %v", err)
	}
	html := b.String()

	for _, want := range []string{
		`data-ready="true"`,
		"Dentist",
		"Main St Clinic",
		"on-site",
		"Pack an umbrella.",
		"Week of Apr 6, 2026",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("output missing %q", want)
		}
	}
}
