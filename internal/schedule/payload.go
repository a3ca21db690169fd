package schedule

import (
	"bytes"
	"encoding/json"
	"fmt"

	"vetagenda/internal/model"
)

// PayloadError describes why a display payload was rejected. Index is the
// offending array element, or -1 when the payload as a whole is invalid.
type PayloadError struct {
	Index  int
	Reason string
}

func (e *PayloadError) Error() string {
	if e.Index < 0 {
		return "invalid schedule payload: " + e.Reason
	}
	return fmt.Sprintf("invalid schedule payload element %d: %s", e.Index, e.Reason)
}

// ParsePayload decodes a display-form payload. The array must hold objects
// with exactly one string-valued key. Day names are not checked here: an
// unknown day simply matches no weekday downstream.
func ParsePayload(data []byte) ([]model.DaySchedule, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, &PayloadError{Index: -1, Reason: "empty body"}
	}
	if data[0] != '[' {
		return nil, &PayloadError{Index: -1, Reason: "expected a JSON array"}
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &PayloadError{Index: -1, Reason: err.Error()}
	}

	days := make([]model.DaySchedule, 0, len(raw))
	for i, item := range raw {
		var d model.DaySchedule
		if err := json.Unmarshal(item, &d); err != nil {
			return nil, &PayloadError{Index: i, Reason: err.Error()}
		}
		days = append(days, d)
	}
	return days, nil
}

// MarshalPayload encodes days in the display-form wire format. A nil slice
// encodes as an empty array.
func MarshalPayload(days []model.DaySchedule) ([]byte, error) {
	if days == nil {
		days = []model.DaySchedule{}
	}
	data, err := json.Marshal(days)
	if err != nil {
		return nil, fmt.Errorf("encode schedule payload: %w", err)
	}
	return data, nil
}
