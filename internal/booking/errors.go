package booking

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSubmitInFlight is returned while a submission is awaiting its response.
	ErrSubmitInFlight = errors.New("submission already in progress")
	// ErrFormClosed is returned when a response arrives after the form was closed or reset.
	ErrFormClosed = errors.New("form closed before the response arrived")
	// ErrInvalidTransition is returned when an action is not allowed in the current state.
	ErrInvalidTransition = errors.New("invalid state transition")
)

// ValidationError reports one invalid or missing field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

// ValidationErrors is returned when a request fails validation. Nothing is sent.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

// Has reports whether field is among the failures.
func (v ValidationErrors) Has(field string) bool {
	for _, err := range v {
		if err.Field == field {
			return true
		}
	}
	return false
}

// SubmissionError reports that the booking endpoint failed or refused the request.
type SubmissionError struct {
	Message string
	Err     error
}

func (e *SubmissionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("submit appointment: %s: %v", e.Message, e.Err)
	}
	return "submit appointment: " + e.Message
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}
