package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDaySchedule_MarshalJSON(t *testing.T) {
	days := []DaySchedule{
		{DayName: "Segunda", Hours: "08:00-12:00, 14:00-18:00"},
		{DayName: "Sábado", Hours: "08:00-12:00"},
	}

	data, err := json.Marshal(days)
	require.NoError(t, err)
	assert.Equal(t, `[{"Segunda":"08:00-12:00, 14:00-18:00"},{"Sábado":"08:00-12:00"}]`, string(data))
}

func TestDaySchedule_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    DaySchedule
		wantErr bool
	}{
		{name: "single key", input: `{"Terça":"09:00-10:00"}`, want: DaySchedule{DayName: "Terça", Hours: "09:00-10:00"}},
		{name: "empty hours", input: `{"Quarta":""}`, want: DaySchedule{DayName: "Quarta"}},
		{name: "no keys", input: `{}`, wantErr: true},
		{name: "two keys", input: `{"Segunda":"08:00-09:00","Terça":"08:00-09:00"}`, wantErr: true},
		{name: "numeric value", input: `{"Segunda":8}`, wantErr: true},
		{name: "not an object", input: `["Segunda"]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got DaySchedule
			err := json.Unmarshal([]byte(tt.input), &got)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAppointmentRequest_JSONFieldNames(t *testing.T) {
	req := AppointmentRequest{
		TutorName:        "Ana",
		PetName:          "Rex",
		VetWorkID:        7,
		ConsultationDate: "2026-10-19",
		Time:             "08:00:00",
	}

	data, err := json.Marshal(req)
	require.NoError(t, err)
	assert.JSONEq(t, `{"tutorName":"Ana","petName":"Rex","vetWorkId":7,"consultationDate":"2026-10-19","time":"08:00:00"}`, string(data))
}
