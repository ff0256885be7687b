// Package week computes the visible week window for the grid view.
package week

import "time"

// DaysPerWeek is the number of day columns in the week view.
const DaysPerWeek = 7

// Start returns midnight of the first day of the week containing date.
// weekStart is "monday" (default) or "sunday".
func Start(date time.Time, weekStart string) time.Time {
	midnight := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())

	offset := int(midnight.Weekday()-time.Monday+DaysPerWeek) % DaysPerWeek
	if weekStart == "sunday" {
		offset = int(midnight.Weekday())
	}
	return midnight.AddDate(0, 0, -offset)
}

// Days returns the seven consecutive dates starting at start.
func Days(start time.Time) []time.Time {
	days := make([]time.Time, DaysPerWeek)
	for i := range days {
		days[i] = start.AddDate(0, 0, i)
	}
	return days
}

// Window returns the half-open [weekStart, weekStart+7d) range containing
// date.
func Window(date time.Time, weekStart string) (from, to time.Time) {
	from = Start(date, weekStart)
	return from, from.AddDate(0, 0, DaysPerWeek)
}
