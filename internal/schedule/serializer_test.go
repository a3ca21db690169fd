package schedule

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vetagenda/internal/model"
)

func TestParseRange(t *testing.T) {
	tests := []struct {
		input string
		want  Range
		ok    bool
	}{
		{input: "08:00-12:00", want: Range{Start: 480, End: 720}, ok: true},
		{input: "  14:00 - 18:00 ", want: Range{Start: 840, End: 1080}, ok: true},
		{input: "08:00:00-08:30:00", want: Range{Start: 480, End: 510}, ok: true},
		{input: "08:00-", ok: false},
		{input: "0800-1200", ok: false},
		{input: "08:00-12:00-13:00", ok: false},
		{input: "ab:00-12:00", ok: false},
		{input: "12:00-08:00", ok: false},
		{input: "10:00-10:00", ok: false},
		{input: "25:00-26:00", ok: false},
		{input: "22:00-24:00", want: Range{Start: 1320, End: 1440}, ok: true},
		{input: "22:00:00-24:00:00", want: Range{Start: 1320, End: 1440}, ok: true},
		{input: "24:00-24:30", ok: false},
		{input: "22:00-24:30", ok: false},
		{input: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseRange(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestDayOfWeek_CaseInsensitive(t *testing.T) {
	for _, name := range []string{"Segunda", "segunda", "SEGUNDA", " Segunda "} {
		dow, ok := DayOfWeek(name)
		assert.True(t, ok, name)
		assert.Equal(t, 1, dow, name)
	}

	dow, ok := DayOfWeek("sábado")
	assert.True(t, ok)
	assert.Equal(t, 6, dow)

	_, ok = DayOfWeek("Monday")
	assert.False(t, ok)
}

func TestToDisplayForm_GroupsByDay(t *testing.T) {
	entries := []model.ScheduleEntry{
		{DayOfWeek: 6, StartTime: "08:00:00", EndTime: "12:00:00", IsActive: true},
		{DayOfWeek: 1, StartTime: "14:00:00", EndTime: "18:00:00", IsActive: true},
		{DayOfWeek: 1, StartTime: "08:00:00", EndTime: "12:00:00", IsActive: true},
		{DayOfWeek: 2, StartTime: "08:00:00", EndTime: "12:00:00", IsActive: false},
	}

	got := ToDisplayForm(entries)
	assert.Equal(t, []model.DaySchedule{
		{DayName: "Segunda", Hours: "08:00-12:00, 14:00-18:00"},
		{DayName: "Sábado", Hours: "08:00-12:00"},
	}, got)
}

func TestToDisplayForm_TruncatesSecondsAndSkipsInvalid(t *testing.T) {
	entries := []model.ScheduleEntry{
		{DayOfWeek: 3, StartTime: "09:15:45", EndTime: "10:45:10", IsActive: true},
		{DayOfWeek: 3, StartTime: "11:00:00", EndTime: "10:00:00", IsActive: true},
		{DayOfWeek: 9, StartTime: "08:00:00", EndTime: "09:00:00", IsActive: true},
		{DayOfWeek: 4, StartTime: "bad", EndTime: "09:00:00", IsActive: true},
	}

	got := ToDisplayForm(entries)
	assert.Equal(t, []model.DaySchedule{{DayName: "Quarta", Hours: "09:15-10:45"}}, got)
	assert.Empty(t, ToDisplayForm(nil))
}

func TestFromDisplayForm_SplitsRanges(t *testing.T) {
	days := []model.DaySchedule{
		{DayName: "Segunda", Hours: "08:00-12:00, 14:00-18:00"},
		{DayName: "Funday", Hours: "08:00-12:00"},
		{DayName: "sábado", Hours: "08:00-, 09:00-10:00"},
		{DayName: "Domingo", Hours: ""},
	}

	got := FromDisplayForm(42, days)
	assert.Equal(t, []model.ScheduleEntry{
		{WorkLocationID: 42, DayOfWeek: 1, StartTime: "08:00:00", EndTime: "12:00:00", IsActive: true},
		{WorkLocationID: 42, DayOfWeek: 1, StartTime: "14:00:00", EndTime: "18:00:00", IsActive: true},
		{WorkLocationID: 42, DayOfWeek: 6, StartTime: "09:00:00", EndTime: "10:00:00", IsActive: true},
	}, got)
}

func TestDisplayForm_RoundTrip(t *testing.T) {
	days := []model.DaySchedule{
		{DayName: "Segunda", Hours: "08:00-12:00, 14:00-18:00"},
		{DayName: "Sexta", Hours: "10:00-16:00, 22:00-24:00"},
	}

	assert.Equal(t, days, ToDisplayForm(FromDisplayForm(1, days)))
}

func TestParsePayload(t *testing.T) {
	days, err := ParsePayload([]byte(`[{"Segunda":"08:00-12:00, 14:00-18:00"},{"Sábado":"08:00-12:00"}]`))
	require.NoError(t, err)
	assert.Equal(t, []model.DaySchedule{
		{DayName: "Segunda", Hours: "08:00-12:00, 14:00-18:00"},
		{DayName: "Sábado", Hours: "08:00-12:00"},
	}, days)

	days, err = ParsePayload([]byte(`[]`))
	require.NoError(t, err)
	assert.Empty(t, days)
}

func TestParsePayload_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		index int
	}{
		{name: "empty", input: "", index: -1},
		{name: "object", input: `{"Segunda":"08:00-12:00"}`, index: -1},
		{name: "truncated", input: `[{"Segunda":"08:00-12:00"}`, index: -1},
		{name: "two keys", input: `[{"Segunda":"08:00-09:00"},{"Terça":"","Quarta":""}]`, index: 1},
		{name: "number value", input: `[{"Segunda":800}]`, index: 0},
		{name: "null element", input: `[null]`, index: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePayload([]byte(tt.input))
			require.Error(t, err)

			var perr *PayloadError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, tt.index, perr.Index)
		})
	}
}

func TestMarshalPayload(t *testing.T) {
	data, err := MarshalPayload(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	data, err = MarshalPayload([]model.DaySchedule{{DayName: "Segunda", Hours: "08:00-12:00, 14:00-18:00"}})
	require.NoError(t, err)
	assert.Equal(t, `[{"Segunda":"08:00-12:00, 14:00-18:00"}]`, string(data))
}
