package slots

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"vetagenda/internal/model"
	"vetagenda/internal/schedule"
)

// DefaultSlotMinutes is the width of a bookable unit.
const DefaultSlotMinutes = 30

// DefaultRanges returns the hours that apply to Monday..Saturday when a
// location publishes nothing for the day.
func DefaultRanges() []schedule.Range {
	return []schedule.Range{
		{Start: 8 * 60, End: 12 * 60},
		{Start: 14 * 60, End: 18 * 60},
	}
}

// Slot is the start of a bookable unit, in minutes from midnight.
type Slot struct {
	Minute int
}

// String renders the slot as "HH:MM:SS".
func (s Slot) String() string {
	return schedule.FormatClockSeconds(s.Minute)
}

// End returns the minute the slot ends at.
func (s Slot) End(slotMinutes int) int {
	return s.Minute + slotMinutes
}

// On places the slot on date's calendar day.
func (s Slot) On(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), s.Minute/60, s.Minute%60, 0, 0, date.Location())
}

// MarshalJSON encodes the slot as its "HH:MM:SS" string.
func (s Slot) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON accepts "HH:MM" or "HH:MM:SS".
func (s *Slot) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return fmt.Errorf("decode slot: %w", err)
	}
	parsed, err := ParseSlot(str)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseSlot parses "HH:MM" or "HH:MM:SS".
func ParseSlot(value string) (Slot, error) {
	m, ok := schedule.ParseClock(value)
	if !ok {
		return Slot{}, fmt.Errorf("invalid slot time: %q", value)
	}
	return Slot{Minute: m}, nil
}

// Generator expands published weekly hours into slots. The zero value uses
// DefaultSlotMinutes and DefaultRanges.
type Generator struct {
	SlotMinutes int
	// Fallback replaces DefaultRanges for unpublished weekdays when non-empty.
	Fallback []schedule.Range
}

func (g Generator) slotMinutes() int {
	if g.SlotMinutes <= 0 {
		return DefaultSlotMinutes
	}
	return g.SlotMinutes
}

// RangesFor resolves the hour ranges that apply to dayOfWeek. A published day
// uses its own ranges (possibly none); an unpublished weekday falls back to
// the generator's fallback hours; an unpublished Sunday has no ranges.
func (g Generator) RangesFor(dayOfWeek int, days []model.DaySchedule) []schedule.Range {
	if day, ok := schedule.FindDay(days, dayOfWeek); ok {
		return schedule.SplitRanges(day.Hours)
	}
	if dayOfWeek < 1 || dayOfWeek > 6 {
		return nil
	}
	if len(g.Fallback) > 0 {
		return g.Fallback
	}
	return DefaultRanges()
}

// Generate expands the hours of dayOfWeek into slots.
// A slot is emitted only if it fits entirely inside its range. Malformed
// ranges contribute nothing. Output is ascending and non-overlapping.
func (g Generator) Generate(dayOfWeek int, days []model.DaySchedule) []Slot {
	step := g.slotMinutes()

	var slots []Slot
	for _, r := range g.RangesFor(dayOfWeek, days) {
		for cursor := r.Start; cursor+step <= r.End; cursor += step {
			slots = append(slots, Slot{Minute: cursor})
		}
	}

	if len(slots) < 2 {
		return slots
	}

	// Overlapping published ranges must not yield overlapping slots.
	sort.Slice(slots, func(i, j int) bool { return slots[i].Minute < slots[j].Minute })
	result := slots[:1]
	for _, s := range slots[1:] {
		if s.Minute >= result[len(result)-1].End(step) {
			result = append(result, s)
		}
	}
	return result
}

// ForDate is Generate for date's weekday.
func (g Generator) ForDate(date time.Time, days []model.DaySchedule) []Slot {
	return g.Generate(int(date.Weekday()), days)
}

// RangesFor is Generator.RangesFor with the built-in fallback hours.
func RangesFor(dayOfWeek int, days []model.DaySchedule) []schedule.Range {
	return Generator{}.RangesFor(dayOfWeek, days)
}

// GenerateSlots expands the hours of dayOfWeek into slots of slotMinutes
// using the built-in fallback hours.
func GenerateSlots(dayOfWeek int, days []model.DaySchedule, slotMinutes int) []Slot {
	return Generator{SlotMinutes: slotMinutes}.Generate(dayOfWeek, days)
}

// GenerateSlotsForDate is GenerateSlots for date's weekday.
func GenerateSlotsForDate(date time.Time, days []model.DaySchedule, slotMinutes int) []Slot {
	return GenerateSlots(int(date.Weekday()), days, slotMinutes)
}

// Strings renders slots in their wire form.
func Strings(slots []Slot) []string {
	result := make([]string, len(slots))
	for i, s := range slots {
		result[i] = s.String()
	}
	return result
}

// Contains reports whether value is literally one of the slots' wire strings.
func Contains(slots []Slot, value string) bool {
	for _, s := range slots {
		if s.String() == value {
			return true
		}
	}
	return false
}

// Period is a run of back-to-back slots.
type Period struct {
	Start string `json:"start"` // "08:00"
	End   string `json:"end"`   // "12:00"
	Slots int    `json:"slots"`
}

// FindConsecutiveSlots groups back-to-back slots into periods.
func FindConsecutiveSlots(slots []Slot, slotMinutes int) []Period {
	if len(slots) == 0 {
		return nil
	}
	if slotMinutes <= 0 {
		slotMinutes = DefaultSlotMinutes
	}

	var periods []Period
	start, prev, count := slots[0], slots[0], 1
	flush := func() {
		periods = append(periods, Period{
			Start: schedule.FormatClock(start.Minute),
			End:   schedule.FormatClock(prev.End(slotMinutes)),
			Slots: count,
		})
	}

	for _, s := range slots[1:] {
		if s.Minute == prev.End(slotMinutes) {
			prev = s
			count++
			continue
		}
		flush()
		start, prev, count = s, s, 1
	}
	flush()

	return periods
}
