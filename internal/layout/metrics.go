package layout

import (
	"math"
	"time"
)

// HoursPerDay is the vertical extent of one day column, in hours.
const HoursPerDay = 24

// DefaultHourHeight is the fallback vertical size of one hour, in offset
// units (pixels for the default renderer).
const DefaultHourHeight = 60.0

// Metrics maps clock time onto the vertical axis of a day column. It is
// explicit configuration so the engine can be exercised with arbitrary
// scale factors.
type Metrics struct {
	// HourHeight is the vertical size of one hour in offset units.
	// If zero or negative, DefaultHourHeight is used.
	HourHeight float64
}

func (m Metrics) unit() float64 {
	if m.HourHeight <= 0 {
		return DefaultHourHeight
	}
	return m.HourHeight
}

// OffsetFor converts an instant to a vertical offset from the top of its
// day column. Only the time of day matters; the calendar date is ignored.
func (m Metrics) OffsetFor(t time.Time) float64 {
	hours := float64(t.Hour()) +
		float64(t.Minute())/60 +
		float64(t.Second())/3600
	return hours * m.unit()
}

// HeightFor converts a duration to a vertical extent.
func (m Metrics) HeightFor(d time.Duration) float64 {
	return d.Hours() * m.unit()
}

// TimeAt is the inverse of OffsetFor composed with a calendar date: it
// returns the instant at the given vertical offset on the given date,
// rounded to the nearest minute.
func (m Metrics) TimeAt(offset float64, date time.Time) time.Time {
	minutes := math.Round(offset / m.unit() * 60)
	midnight := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	return midnight.Add(time.Duration(minutes) * time.Minute)
}

// DayHeight returns the total vertical extent of a 24-hour day column.
func (m Metrics) DayHeight() float64 {
	return HoursPerDay * m.unit()
}
