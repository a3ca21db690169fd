package calendar

import "time"

// Day is one cell of a month grid. Blank padding cells have a zero Date.
type Day struct {
	Date       time.Time
	InMonth    bool
	Selectable bool
}

// MonthGrid lays out a month as Sunday-first weeks for a date picker.
// A day is selectable when it is one of available.
func MonthGrid(year int, month time.Month, available []time.Time, loc *time.Location) [][]Day {
	if loc == nil {
		loc = time.Local
	}

	selectable := make(map[string]bool, len(available))
	for _, d := range available {
		selectable[d.Format(DateLayout)] = true
	}

	firstDay := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	offset := int(firstDay.Weekday())
	total := daysIn(month, year)

	var weeks [][]Day
	week := make([]Day, 0, 7)
	for i := 0; i < offset; i++ {
		week = append(week, Day{})
	}

	for day := 1; day <= total; day++ {
		date := time.Date(year, month, day, 0, 0, 0, 0, loc)
		week = append(week, Day{
			Date:       date,
			InMonth:    true,
			Selectable: selectable[date.Format(DateLayout)],
		})
		if len(week) == 7 {
			weeks = append(weeks, week)
			week = make([]Day, 0, 7)
		}
	}

	if len(week) > 0 {
		for len(week) < 7 {
			week = append(week, Day{})
		}
		weeks = append(weeks, week)
	}
	return weeks
}

func daysIn(m time.Month, year int) int {
	switch m {
	case time.February:
		if (year%4 == 0 && year%100 != 0) || year%400 == 0 {
			return 29
		}
		return 28
	case time.April, time.June, time.September, time.November:
		return 30
	default:
		return 31
	}
}
