package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// WorkLocation is a physical address where a veterinarian practices.
type WorkLocation struct {
	ID        int64     `json:"id"`
	VetID     int64     `json:"vet_id"`
	Name      string    `json:"name"`
	Street    string    `json:"street"`
	Number    string    `json:"number"`
	District  string    `json:"district"`
	City      string    `json:"city"`
	State     string    `json:"state"`
	ZipCode   string    `json:"zip_code"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ScheduleEntry is one weekly recurring open-hours rule.
type ScheduleEntry struct {
	ID             int64     `json:"id"`
	WorkLocationID int64     `json:"work_location_id"`
	DayOfWeek      int       `json:"day_of_week"` // 0-6 (Sunday-Saturday)
	StartTime      string    `json:"start_time"`  // "08:00:00"
	EndTime        string    `json:"end_time"`    // "12:00:00"
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// DaySchedule is the display form of a weekday's hours. On the wire it is a
// single-key object: {"Segunda": "08:00-12:00, 14:00-18:00"}.
type DaySchedule struct {
	DayName string
	Hours   string
}

var (
	errDayScheduleKeys  = errors.New("day schedule must have exactly one key")
	errDayScheduleValue = errors.New("day schedule hours must be a string")
)

// MarshalJSON implements json.Marshaler.
func (d DaySchedule) MarshalJSON() ([]byte, error) {
	key, err := json.Marshal(d.DayName)
	if err != nil {
		return nil, err
	}
	val, err := json.Marshal(d.Hours)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	buf.Write(key)
	buf.WriteByte(':')
	buf.Write(val)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *DaySchedule) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode day schedule: %w", err)
	}
	if len(raw) != 1 {
		return fmt.Errorf("%w: got %d", errDayScheduleKeys, len(raw))
	}

	for name, value := range raw {
		var hours string
		if err := json.Unmarshal(value, &hours); err != nil {
			return fmt.Errorf("%w: %s", errDayScheduleValue, name)
		}
		d.DayName = name
		d.Hours = hours
	}
	return nil
}

// AppointmentRequest is the booking payload handed to the submission endpoint.
type AppointmentRequest struct {
	TutorName        string `json:"tutorName" validate:"required"`
	PetName          string `json:"petName" validate:"required"`
	VetWorkID        int64  `json:"vetWorkId" validate:"required,gt=0"`
	ConsultationDate string `json:"consultationDate" validate:"required,iso_date"`
	Time             string `json:"time" validate:"required,slot_time"`
	Reason           string `json:"reason,omitempty"`
}

// SubmissionResult is the endpoint's answer to an AppointmentRequest.
type SubmissionResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}
