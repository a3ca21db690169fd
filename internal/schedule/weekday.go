package schedule

import (
	"strings"

	"vetagenda/internal/model"
)

// WeekdayNames maps dayOfWeek (0=Sunday) to the display name used in payloads.
var WeekdayNames = [7]string{"Domingo", "Segunda", "Terça", "Quarta", "Quinta", "Sexta", "Sábado"}

// DayName returns the display name for dayOfWeek.
func DayName(dayOfWeek int) (string, bool) {
	if dayOfWeek < 0 || dayOfWeek > 6 {
		return "", false
	}
	return WeekdayNames[dayOfWeek], true
}

// DayOfWeek resolves a display name, case-insensitively.
func DayOfWeek(name string) (int, bool) {
	name = strings.TrimSpace(name)
	for i, n := range WeekdayNames {
		if strings.EqualFold(n, name) {
			return i, true
		}
	}
	return 0, false
}

// FindDay returns the first DaySchedule naming dayOfWeek.
func FindDay(days []model.DaySchedule, dayOfWeek int) (model.DaySchedule, bool) {
	name, ok := DayName(dayOfWeek)
	if !ok {
		return model.DaySchedule{}, false
	}
	for _, d := range days {
		if strings.EqualFold(strings.TrimSpace(d.DayName), name) {
			return d, true
		}
	}
	return model.DaySchedule{}, false
}
