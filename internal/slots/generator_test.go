package slots

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vetagenda/internal/model"
	"vetagenda/internal/schedule"
)

func TestGenerateSlots(t *testing.T) {
	tests := []struct {
		name          string
		dayOfWeek     int
		days          []model.DaySchedule
		expectedCount int
		first, last   string
	}{
		{
			name:          "explicit monday two ranges",
			dayOfWeek:     1,
			days:          []model.DaySchedule{{DayName: "Segunda", Hours: "08:00-12:00, 14:00-18:00"}},
			expectedCount: 16,
			first:         "08:00:00",
			last:          "17:30:00",
		},
		{
			name:          "weekday fallback",
			dayOfWeek:     3,
			days:          nil,
			expectedCount: 16,
			first:         "08:00:00",
			last:          "17:30:00",
		},
		{
			name:          "sunday closed by default",
			dayOfWeek:     0,
			days:          []model.DaySchedule{{DayName: "Segunda", Hours: "08:00-12:00"}},
			expectedCount: 0,
		},
		{
			name:          "explicit sunday",
			dayOfWeek:     0,
			days:          []model.DaySchedule{{DayName: "Domingo", Hours: "09:00-10:00"}},
			expectedCount: 2,
			first:         "09:00:00",
			last:          "09:30:00",
		},
		{
			name:          "exactly thirty minutes",
			dayOfWeek:     2,
			days:          []model.DaySchedule{{DayName: "Terça", Hours: "10:00-10:30"}},
			expectedCount: 1,
			first:         "10:00:00",
			last:          "10:00:00",
		},
		{
			name:          "sixty one minutes drops remainder",
			dayOfWeek:     2,
			days:          []model.DaySchedule{{DayName: "Terça", Hours: "10:00-11:01"}},
			expectedCount: 2,
			first:         "10:00:00",
			last:          "10:30:00",
		},
		{
			name:          "case insensitive day name",
			dayOfWeek:     5,
			days:          []model.DaySchedule{{DayName: "SEXTA", Hours: "08:00-09:00"}},
			expectedCount: 2,
			first:         "08:00:00",
			last:          "08:30:00",
		},
		{
			name:          "malformed ranges skipped",
			dayOfWeek:     1,
			days:          []model.DaySchedule{{DayName: "Segunda", Hours: "08:00-, 0800-1200, 13:00-14:00"}},
			expectedCount: 2,
			first:         "13:00:00",
			last:          "13:30:00",
		},
		{
			name:          "published day with no hours",
			dayOfWeek:     1,
			days:          []model.DaySchedule{{DayName: "Segunda", Hours: ""}},
			expectedCount: 0,
		},
		{
			name:          "out of range weekday",
			dayOfWeek:     7,
			expectedCount: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GenerateSlots(tt.dayOfWeek, tt.days, DefaultSlotMinutes)
			require.Len(t, got, tt.expectedCount)
			if tt.expectedCount > 0 {
				assert.Equal(t, tt.first, got[0].String())
				assert.Equal(t, tt.last, got[len(got)-1].String())
			}
		})
	}
}

func TestGenerateSlots_FitsAndSpacing(t *testing.T) {
	days := []model.DaySchedule{{DayName: "Quinta", Hours: "07:10-09:55, 13:00-13:45"}}
	ranges := RangesFor(4, days)
	require.Len(t, ranges, 2)

	got := GenerateSlots(4, days, 30)
	require.NotEmpty(t, got)
	for i, s := range got {
		inside := false
		for _, r := range ranges {
			if s.Minute >= r.Start && s.End(30) <= r.End {
				inside = true
			}
		}
		assert.True(t, inside, "slot %s outside any range", s)
		if i > 0 {
			assert.GreaterOrEqual(t, s.Minute-got[i-1].Minute, 30)
		}
	}
	assert.Equal(t, []string{"07:10:00", "07:40:00", "08:10:00", "08:40:00", "09:10:00", "13:00:00"}, Strings(got))
}

func TestGenerateSlots_ExplicitMatchesFallback(t *testing.T) {
	explicit := GenerateSlots(1, []model.DaySchedule{{DayName: "Segunda", Hours: "08:00-12:00, 14:00-18:00"}}, 30)
	fallback := GenerateSlots(1, nil, 30)
	assert.Equal(t, fallback, explicit)
}

func TestGenerateSlots_Idempotent(t *testing.T) {
	days := []model.DaySchedule{{DayName: "Segunda", Hours: "14:00-18:00, 08:00-12:00"}}
	first := GenerateSlots(1, days, 30)
	second := GenerateSlots(1, days, 30)
	assert.Equal(t, first, second)
	assert.Equal(t, "08:00:00", first[0].String())
	assert.Equal(t, []model.DaySchedule{{DayName: "Segunda", Hours: "14:00-18:00, 08:00-12:00"}}, days)
}

func TestGenerateSlots_OverlappingRanges(t *testing.T) {
	days := []model.DaySchedule{{DayName: "Segunda", Hours: "08:00-09:00, 08:15-09:15"}}
	got := GenerateSlots(1, days, 30)
	assert.Equal(t, []string{"08:00:00", "08:30:00"}, Strings(got))
}

func TestGenerateSlots_NonPositiveDuration(t *testing.T) {
	days := []model.DaySchedule{{DayName: "Segunda", Hours: "08:00-09:00"}}
	assert.Len(t, GenerateSlots(1, days, 0), 2)
	assert.Len(t, GenerateSlots(1, days, 60), 1)
}

func TestGenerateSlotsForDate(t *testing.T) {
	monday := time.Date(2026, 10, 19, 0, 0, 0, 0, time.Local)
	days := []model.DaySchedule{{DayName: "Segunda", Hours: "08:00-09:00"}}
	assert.Equal(t, []string{"08:00:00", "08:30:00"}, Strings(GenerateSlotsForDate(monday, days, 30)))

	at := Slot{Minute: 8*60 + 30}.On(monday)
	assert.Equal(t, 8, at.Hour())
	assert.Equal(t, 30, at.Minute())
}

func TestContains(t *testing.T) {
	got := GenerateSlots(1, []model.DaySchedule{{DayName: "Segunda", Hours: "08:00-09:00"}}, 30)
	assert.True(t, Contains(got, "08:30:00"))
	assert.False(t, Contains(got, "08:30"))
	assert.False(t, Contains(got, "09:00:00"))
}

func TestSlotJSON(t *testing.T) {
	data, err := json.Marshal([]Slot{{Minute: 480}, {Minute: 510}})
	require.NoError(t, err)
	assert.Equal(t, `["08:00:00","08:30:00"]`, string(data))

	var decoded []Slot
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, []Slot{{Minute: 480}, {Minute: 510}}, decoded)

	assert.Error(t, json.Unmarshal([]byte(`["8h"]`), &decoded))
}

func TestFindConsecutiveSlots(t *testing.T) {
	got := GenerateSlots(1, nil, 30)
	periods := FindConsecutiveSlots(got, 30)
	assert.Equal(t, []Period{
		{Start: "08:00", End: "12:00", Slots: 8},
		{Start: "14:00", End: "18:00", Slots: 8},
	}, periods)

	assert.Nil(t, FindConsecutiveSlots(nil, 30))
}

func TestGenerator_Fallback(t *testing.T) {
	gen := Generator{SlotMinutes: 60, Fallback: []schedule.Range{{Start: 9 * 60, End: 11 * 60}}}

	assert.Equal(t, []string{"09:00:00", "10:00:00"}, Strings(gen.Generate(2, nil)))
	assert.Empty(t, gen.Generate(0, nil))

	// Published hours win over the fallback.
	days := []model.DaySchedule{{DayName: "Terça", Hours: "14:00-15:00"}}
	assert.Equal(t, []string{"14:00:00"}, Strings(gen.Generate(2, days)))

	// A custom fallback leaves the built-in hours untouched.
	assert.Equal(t, DefaultRanges(), RangesFor(2, nil))
	assert.Len(t, GenerateSlots(2, nil, 30), 16)
}

func TestGenerator_RangeEndingAtMidnight(t *testing.T) {
	days := []model.DaySchedule{{DayName: "Sexta", Hours: "22:00-24:00"}}
	got := Generator{}.Generate(5, days)
	assert.Equal(t, []string{"22:00:00", "22:30:00", "23:00:00", "23:30:00"}, Strings(got))
}
