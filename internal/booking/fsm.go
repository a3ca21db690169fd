// Package booking drives the consultation booking form from date selection to submission.
package booking

import (
	"context"

	"vetagenda/internal/model"
)

// State represents the current state of a booking form.
type State string

const (
	StateIdle         State = "idle"
	StateDateSelected State = "date_selected"
	StateTimeSelected State = "time_selected"
	StateSubmitting   State = "submitting"
	StateSucceeded    State = "succeeded"
	StateFailed       State = "failed"
)

// Picker identifies which picker, if any, is visible. It is tracked apart from State.
type Picker string

const (
	PickerNone Picker = ""
	PickerDate Picker = "date"
	PickerTime Picker = "time"
)

// StateChange is the payload of events.TopicStateChanged.
type StateChange struct {
	From State
	To   State
}

// FSM manages state transitions for the booking form.
type FSM struct {
	transitions map[State][]State
}

// NewFSM creates a new FSM with predefined transitions. Every state may go
// back to StateIdle on cancel or close.
func NewFSM() *FSM {
	return &FSM{
		transitions: map[State][]State{
			StateIdle:         {StateIdle, StateDateSelected},
			StateDateSelected: {StateIdle, StateDateSelected, StateTimeSelected},
			StateTimeSelected: {StateIdle, StateDateSelected, StateTimeSelected, StateSubmitting},
			StateSubmitting:   {StateIdle, StateSucceeded, StateFailed},
			StateSucceeded:    {StateIdle},
			StateFailed:       {StateIdle, StateTimeSelected},
		},
	}
}

// CanTransition checks if transition is allowed.
func (f *FSM) CanTransition(from, to State) bool {
	allowed, ok := f.transitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// Submitter sends an AppointmentRequest to the booking endpoint.
type Submitter interface {
	SubmitAppointment(ctx context.Context, req model.AppointmentRequest) (*model.SubmissionResult, error)
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(ctx context.Context, req model.AppointmentRequest) (*model.SubmissionResult, error)

// SubmitAppointment calls fn.
func (fn SubmitterFunc) SubmitAppointment(ctx context.Context, req model.AppointmentRequest) (*model.SubmissionResult, error) {
	return fn(ctx, req)
}
