// Package calendar decides which future dates can be booked at a location.
package calendar

import (
	"strings"
	"time"

	"vetagenda/internal/model"
	"vetagenda/internal/schedule"
)

const (
	// DefaultHorizonDays caps the candidate window.
	DefaultHorizonDays = 30
	// FallbackDays is the window used when a location publishes no hours.
	FallbackDays = 14
)

// DateLayout is the wire form of a consultation date.
const DateLayout = "2006-01-02"

// GenerateAvailableDates lists bookable dates after today, ascending.
//
// Candidates start tomorrow and stop at whichever comes first: horizonDays
// candidates or the last day of the month after today's. A candidate is kept
// when its weekday is published with non-blank hours. With no published days
// at all, the next FallbackDays days except Sundays are returned instead.
func GenerateAvailableDates(days []model.DaySchedule, today time.Time, horizonDays int) []time.Time {
	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}
	start := StartOfDay(today)

	if len(days) == 0 {
		var dates []time.Time
		for i := 1; i <= FallbackDays; i++ {
			d := start.AddDate(0, 0, i)
			if d.Weekday() == time.Sunday {
				continue
			}
			dates = append(dates, d)
		}
		return dates
	}

	var open [7]bool
	for dow := range open {
		if day, ok := schedule.FindDay(days, dow); ok && strings.TrimSpace(day.Hours) != "" {
			open[dow] = true
		}
	}

	// Last day of the following month.
	limit := time.Date(start.Year(), start.Month()+2, 0, 0, 0, 0, 0, start.Location())

	var dates []time.Time
	for i := 1; i <= horizonDays; i++ {
		d := start.AddDate(0, 0, i)
		if d.After(limit) {
			break
		}
		if open[d.Weekday()] {
			dates = append(dates, d)
		}
	}
	return dates
}

// StartOfDay truncates t to local midnight in t's location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// IsAvailable reports whether date falls on one of dates' calendar days.
func IsAvailable(dates []time.Time, date time.Time) bool {
	key := date.Format(DateLayout)
	for _, d := range dates {
		if d.Format(DateLayout) == key {
			return true
		}
	}
	return false
}

// Keys renders dates in their wire form.
func Keys(dates []time.Time) []string {
	keys := make([]string, len(dates))
	for i, d := range dates {
		keys[i] = d.Format(DateLayout)
	}
	return keys
}

// ParseDate parses a "YYYY-MM-DD" date in loc.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(DateLayout, strings.TrimSpace(value), loc)
}
