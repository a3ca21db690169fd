// Package schedule converts between stored weekly ScheduleEntry rows and the
// display form (one {weekday: "HH:MM-HH:MM, ..."} object per day).
//
// Grouping: every active entry of a weekday becomes one range in that day's
// hours string, ordered by start time. Splitting: every well-formed range of a
// day becomes one active entry. A day stored as a single row therefore
// round-trips to a single row, and a day shown with N ranges stores N rows.
package schedule

import (
	"sort"
	"strings"

	"vetagenda/internal/model"
)

// RangeSeparator joins ranges of the same day.
const RangeSeparator = ", "

// ToDisplayForm groups active entries by weekday, Sunday first. Inactive
// entries, unknown weekdays and entries whose times do not parse or do not
// satisfy start < end are left out. Days without ranges are omitted.
func ToDisplayForm(entries []model.ScheduleEntry) []model.DaySchedule {
	var byDay [7][]Range
	for _, e := range entries {
		if !e.IsActive || e.DayOfWeek < 0 || e.DayOfWeek > 6 {
			continue
		}
		start, ok := ParseClock(e.StartTime)
		if !ok {
			continue
		}
		end, ok := ParseEndClock(e.EndTime)
		if !ok || start >= end {
			continue
		}
		byDay[e.DayOfWeek] = append(byDay[e.DayOfWeek], Range{Start: start, End: end})
	}

	var days []model.DaySchedule
	for dow, ranges := range byDay {
		if len(ranges) == 0 {
			continue
		}
		sort.SliceStable(ranges, func(i, j int) bool {
			if ranges[i].Start != ranges[j].Start {
				return ranges[i].Start < ranges[j].Start
			}
			return ranges[i].End < ranges[j].End
		})

		parts := make([]string, len(ranges))
		for i, r := range ranges {
			parts[i] = r.String()
		}
		days = append(days, model.DaySchedule{
			DayName: WeekdayNames[dow],
			Hours:   strings.Join(parts, RangeSeparator),
		})
	}
	return days
}

// FromDisplayForm expands display rows into active entries for locationID,
// one per well-formed range. Unknown day names are dropped and malformed
// ranges skipped. IDs and timestamps are left for the store to assign.
func FromDisplayForm(locationID int64, days []model.DaySchedule) []model.ScheduleEntry {
	var entries []model.ScheduleEntry
	for _, d := range days {
		dow, ok := DayOfWeek(d.DayName)
		if !ok {
			continue
		}
		for _, r := range SplitRanges(d.Hours) {
			entries = append(entries, model.ScheduleEntry{
				WorkLocationID: locationID,
				DayOfWeek:      dow,
				StartTime:      FormatClockSeconds(r.Start),
				EndTime:        FormatClockSeconds(r.End),
				IsActive:       true,
			})
		}
	}
	return entries
}
