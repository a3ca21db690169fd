package schedule

import (
	"fmt"
	"strconv"
	"strings"
)

// MinutesPerDay bounds every Range.
const MinutesPerDay = 24 * 60

// Range is a same-day interval in minutes from midnight, Start inclusive, End exclusive.
type Range struct {
	Start int
	End   int
}

// Minutes returns the range length.
func (r Range) Minutes() int {
	return r.End - r.Start
}

// String renders the range as "HH:MM-HH:MM".
func (r Range) String() string {
	return FormatClock(r.Start) + "-" + FormatClock(r.End)
}

// ParseRange parses a single "HH:MM-HH:MM" range. Surrounding whitespace is
// ignored. A range needs exactly one '-', a ':' on both sides, valid clock
// components and start < end; anything else reports ok=false. The end may be
// "24:00" for hours that run until midnight.
func ParseRange(s string) (Range, bool) {
	s = strings.TrimSpace(s)
	if strings.Count(s, "-") != 1 {
		return Range{}, false
	}

	startStr, endStr, _ := strings.Cut(s, "-")
	start, ok := ParseClock(startStr)
	if !ok {
		return Range{}, false
	}
	end, ok := ParseEndClock(endStr)
	if !ok {
		return Range{}, false
	}
	if start >= end {
		return Range{}, false
	}

	return Range{Start: start, End: end}, true
}

// SplitRanges parses a comma-separated hours string, skipping malformed parts.
func SplitRanges(hours string) []Range {
	if strings.TrimSpace(hours) == "" {
		return nil
	}

	var ranges []Range
	for _, part := range strings.Split(hours, ",") {
		if r, ok := ParseRange(part); ok {
			ranges = append(ranges, r)
		}
	}
	return ranges
}

// ParseClock parses "HH:MM" or "HH:MM:SS" into minutes from midnight.
// Seconds are validated and then truncated.
func ParseClock(s string) (int, bool) {
	h, m, _, ok := parseClockParts(s)
	if !ok {
		return 0, false
	}
	return h*60 + m, true
}

// ParseEndClock is ParseClock that also accepts "24:00" and "24:00:00" as the
// end of the day.
func ParseEndClock(s string) (int, bool) {
	if isMidnightEnd(s) {
		return MinutesPerDay, true
	}
	return ParseClock(s)
}

func isMidnightEnd(s string) bool {
	switch strings.TrimSpace(s) {
	case "24:00", "24:00:00":
		return true
	}
	return false
}

func parseClockParts(s string) (hour, minute, second int, ok bool) {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, ":") {
		return 0, 0, 0, false
	}

	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, 0, 0, false
	}

	var err error
	if hour, err = strconv.Atoi(parts[0]); err != nil || hour < 0 || hour > 23 {
		return 0, 0, 0, false
	}
	if minute, err = strconv.Atoi(parts[1]); err != nil || minute < 0 || minute > 59 {
		return 0, 0, 0, false
	}
	if len(parts) == 3 {
		if second, err = strconv.Atoi(parts[2]); err != nil || second < 0 || second > 59 {
			return 0, 0, 0, false
		}
	}
	return hour, minute, second, true
}

// FormatClock renders minutes from midnight as "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// FormatClockSeconds renders minutes from midnight as "HH:MM:SS".
func FormatClockSeconds(minutes int) string {
	return fmt.Sprintf("%02d:%02d:00", minutes/60, minutes%60)
}

// NormalizeClock converts "HH:MM" or "HH:MM:SS" to the "HH:MM:SS" wire form,
// keeping seconds when present.
func NormalizeClock(s string) (string, error) {
	h, m, sec, ok := parseClockParts(s)
	if !ok {
		return "", fmt.Errorf("invalid time format: %q", s)
	}
	return fmt.Sprintf("%02d:%02d:%02d", h, m, sec), nil
}

// NormalizeEndClock is NormalizeClock that keeps "24:00" as "24:00:00".
func NormalizeEndClock(s string) (string, error) {
	if isMidnightEnd(s) {
		return "24:00:00", nil
	}
	return NormalizeClock(s)
}
