// Package render turns layout placements into the HTML week page. It maps
// the engine's normalized geometry onto CSS: vertical offsets/extents become
// pixel positions, horizontal fractions become percentages of the day
// column. No layout decisions are made here.
package render

import (
	"fmt"
	"hash/fnv"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/sylee2006/Mobile-project/internal/layout"
	"github.com/sylee2006/Mobile-project/internal/model"
)

// Box is one positioned event rectangle in a day column.
type Box struct {
	Title       string
	TimeLabel   string
	Location    string
	PlaceStatus string
	Color       string
	Highlight   bool

	TopPx    float64
	HeightPx float64
	LeftPct  float64
	WidthPct float64
}

// DayColumn is one rendered day of the week grid.
type DayColumn struct {
	Date    time.Time
	IsToday bool
	Boxes   []Box
}

// HourMark is one horizontal rule plus its gutter label.
type HourMark struct {
	Label string
	TopPx float64
}

// Page is the full template payload for the week view.
type Page struct {
	Title       string
	Days        []DayColumn
	Hours       []HourMark
	DayHeight   float64
	Advice      string
	GeneratedAt time.Time
}

// BuildPage lays out each day's events and assembles the template payload.
// eventsByDay must be parallel to days and already sorted in feed order.
func BuildPage(days []time.Time, eventsByDay [][]model.Event, m layout.Metrics, highlight []string, advice string, now time.Time) Page {
	hours := make([]HourMark, layout.HoursPerDay)
	for h := range hours {
		hours[h] = HourMark{
			Label: fmt.Sprintf("%02d:00", h),
			TopPx: m.HeightFor(time.Duration(h) * time.Hour),
		}
	}

	page := Page{
		Title:       "Week of " + days[0].Format("Jan 2, 2006"),
		Hours:       hours,
		DayHeight:   m.DayHeight(),
		Advice:      advice,
		GeneratedAt: now,
	}

	for i, day := range days {
		col := DayColumn{
			Date:    day,
			IsToday: sameDay(day, now),
		}
		for _, p := range layout.ComputeDay(eventsByDay[i], m) {
			col.Boxes = append(col.Boxes, makeBox(p, highlight))
		}
		page.Days = append(page.Days, col)
	}

	return page
}

func makeBox(p layout.Placement, highlight []string) Box {
	ev := p.Event
	color := ev.Color
	if color == "" {
		color = ColorFor(ev.ID)
	}
	return Box{
		Title:       ev.Title,
		TimeLabel:   ev.Start.Format("15:04") + "–" + ev.End.Format("15:04"),
		Location:    ev.Location,
		PlaceStatus: ev.PlaceStatus,
		Color:       color,
		Highlight:   isHighlighted(ev.Title, highlight),
		TopPx:       p.Top,
		HeightPx:    p.Height,
		LeftPct:     p.LeftFrac * 100,
		WidthPct:    p.WidthFrac * 100,
	}
}

func isHighlighted(title string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(title, kw) {
			return true
		}
	}
	return false
}

// ColorFor derives a stable display color from an event ID: the ID hash
// picks a hue, saturation and value stay in a readable band.
func ColorFor(id string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	hue := float64(h.Sum32() % 360)
	return colorful.Hsv(hue, 0.45, 0.80).Hex()
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// WeekPage writes the rendered week grid HTML. The page marks its body with
// data-ready="true" so the capture pipeline knows when to screenshot.
func WeekPage(w io.Writer, page Page) error {
	if err := weekTmpl.Execute(w, page); err != nil {
		return fmt.Errorf("render: execute week template: %w", err)
	}
	return nil
}

var weekTmpl = template.Must(template.New("week").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
  body { font-family: sans-serif; margin: 0; background: #fff; color: #222; }
  header { padding: 8px 16px; }
  header h1 { font-size: 18px; margin: 0; }
  .advice { font-size: 13px; color: #555; margin-top: 4px; }
  .grid { display: flex; }
  .gutter { width: 48px; position: relative; height: {{.DayHeight}}px; }
  .gutter .hour { position: absolute; right: 6px; font-size: 10px; color: #999; }
  .day { flex: 1; position: relative; height: {{.DayHeight}}px; border-left: 1px solid #eee; }
  .day.today { background: #fafdff; }
  .day .name { font-size: 12px; text-align: center; }
  .rule { position: absolute; left: 0; right: 0; border-top: 1px solid #f0f0f0; }
  .event { position: absolute; box-sizing: border-box; border-radius: 3px;
           padding: 2px 4px; font-size: 11px; color: #fff; overflow: hidden; }
  .event.highlight { outline: 2px solid #d33; }
  .event .loc { opacity: 0.8; }
</style>
</head>
<body data-ready="true">
<header>
  <h1>{{.Title}}</h1>
  {{if .Advice}}<div class="advice">{{.Advice}}</div>{{end}}
</header>
<div class="grid">
  <div class="gutter">
    {{range .Hours}}<div class="hour" style="top: {{.TopPx}}px">{{.Label}}</div>{{end}}
  </div>
  {{range .Days}}
  <div class="day{{if .IsToday}} today{{end}}">
    <div class="name">{{.Date.Format "Mon 2"}}</div>
    {{range $.Hours}}<div class="rule" style="top: {{.TopPx}}px"></div>{{end}}
    {{range .Boxes}}
    <div class="event{{if .Highlight}} highlight{{end}}"
         style="top: {{.TopPx}}px; height: {{.HeightPx}}px; left: {{.LeftPct}}%; width: {{.WidthPct}}%; background-color: {{.Color}}">
      <div>{{.TimeLabel}} {{.Title}}</div>
      {{if .Location}}<div class="loc">{{.Location}}{{if .PlaceStatus}} ({{.PlaceStatus}}){{end}}</div>{{end}}
    </div>
    {{end}}
  </div>
  {{end}}
</div>
</body>
</html>
`))
