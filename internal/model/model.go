package model

import (
	"strings"
	"time"
)

// Event is a single calendar entry. The store owns persistence and identity;
// the layout engine treats events as immutable, read-only values for the
// duration of one layout pass.
type Event struct {
	// ID is a stable identifier, assigned by the store on first insert.
	ID string `json:"id"`

	Title    string `json:"title"`
	Location string `json:"location,omitempty"`

	// PlaceStatus is a derived label for the location ("online" / "on-site").
	// It is recomputed on save, never entered by the user.
	PlaceStatus string `json:"place_status,omitempty"`

	// Advice is optional generated text attached to the event's day.
	Advice string `json:"advice,omitempty"`

	// Color is a CSS hex color used by the week view. Assigned from the
	// palette when empty.
	Color string `json:"color,omitempty"`

	// Start / End are in the configured display timezone. A well-formed
	// event has End strictly after Start.
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Valid reports whether the event has a well-formed half-open interval.
func (e Event) Valid() bool {
	return !e.Start.IsZero() && e.End.After(e.Start)
}

// Duration returns End - Start. Malformed events yield zero or negative
// durations; callers that need well-defined geometry should filter on Valid.
func (e Event) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// DayKey returns the date bucket ("2006-01-02") the event belongs to,
// taken from its start instant in the given location.
func (e Event) DayKey(loc *time.Location) string {
	return e.Start.In(loc).Format(DayKeyLayout)
}

// OnDay reports whether the event starts on the given calendar date. The
// date is taken at face value; only the event's start is converted into loc,
// so a caller-supplied date keeps its meaning regardless of the location it
// was built in.
func (e Event) OnDay(date time.Time, loc *time.Location) bool {
	s := e.Start.In(loc)
	return s.Year() == date.Year() && s.Month() == date.Month() && s.Day() == date.Day()
}

// DayKeyLayout is the date bucket format used by the store and API.
const DayKeyLayout = "2006-01-02"

// DerivePlaceStatus classifies a location string. Empty locations have no
// status; locations that look like meeting links are "online", everything
// else is "on-site".
func DerivePlaceStatus(location string) string {
	loc := strings.TrimSpace(strings.ToLower(location))
	if loc == "" {
		return ""
	}
	if strings.HasPrefix(loc, "http://") || strings.HasPrefix(loc, "https://") {
		return "online"
	}
	return "on-site"
}
