package booking

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"vetagenda/internal/calendar"
	"vetagenda/internal/events"
	"vetagenda/internal/metrics"
	"vetagenda/internal/model"
	"vetagenda/internal/schedule"
	"vetagenda/internal/slots"
)

// FormConfig wires a Form to its collaborators.
type FormConfig struct {
	LocationID  int64
	SlotMinutes int
	HorizonDays int
	// DefaultRanges override the built-in hours of unpublished weekdays.
	DefaultRanges []schedule.Range

	Submitter Submitter
	Validator *Validator
	Bus       *events.EventBus
	Logger    zerolog.Logger

	// Now defaults to time.Now. Its location is the form's local zone.
	Now func() time.Time
	// OnSuccess runs after an accepted submission, outside the form lock.
	OnSuccess func(req model.AppointmentRequest, res *model.SubmissionResult)
}

// Form is the state of one booking modal. All methods are safe for concurrent use.
type Form struct {
	cfg    FormConfig
	fsm    *FSM
	logger zerolog.Logger

	mu       sync.Mutex
	state    State
	days     []model.DaySchedule
	dates    []time.Time
	date     time.Time
	hasDate  bool
	slots    []slots.Slot
	slotTime string
	tutor    string
	pet      string
	reason   string
	lastErr  error

	picker    Picker
	pickerSub *events.Subscription

	// epoch changes on every close/reset so late responses can be dropped.
	epoch   uint64
	pending []events.Event
}

// NewForm creates a form in StateIdle with no schedule loaded.
func NewForm(cfg FormConfig) *Form {
	if cfg.SlotMinutes <= 0 {
		cfg.SlotMinutes = slots.DefaultSlotMinutes
	}
	if cfg.HorizonDays <= 0 {
		cfg.HorizonDays = calendar.DefaultHorizonDays
	}
	if cfg.Validator == nil {
		cfg.Validator = NewValidator()
	}
	if cfg.Bus == nil {
		cfg.Bus = events.NewEventBus()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Form{
		cfg:    cfg,
		fsm:    NewFSM(),
		logger: cfg.Logger.With().Str("component", "booking_form").Int64("location_id", cfg.LocationID).Logger(),
		state:  StateIdle,
	}
}

// Open resets the form and snapshots days. The returned dates are the only
// ones SelectDate accepts until the next Open.
func (f *Form) Open(days []model.DaySchedule) []time.Time {
	f.mu.Lock()
	defer f.flush()

	f.resetLocked()
	f.days = append([]model.DaySchedule(nil), days...)
	f.dates = calendar.GenerateAvailableDates(f.days, f.cfg.Now(), f.cfg.HorizonDays)
	return append([]time.Time(nil), f.dates...)
}

// Close cancels the form from any state. A submission already sent is not
// cancelled; its response is ignored.
func (f *Form) Close() {
	f.mu.Lock()
	defer f.flush()

	f.resetLocked()
	f.dates = nil
	f.days = nil
}

// State returns the current state.
func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// AvailableDates returns the dates computed by the last Open.
func (f *Form) AvailableDates() []time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Time(nil), f.dates...)
}

// Slots returns the slots computed for the selected date.
func (f *Form) Slots() []slots.Slot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]slots.Slot(nil), f.slots...)
}

// LastError returns the failure of the last submission, if it failed.
func (f *Form) LastError() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

// SelectDate picks one of the available dates, recomputes its slots and clears any chosen time.
func (f *Form) SelectDate(date time.Time) ([]slots.Slot, error) {
	f.mu.Lock()
	defer f.flush()

	if f.state == StateSubmitting {
		return nil, ErrSubmitInFlight
	}
	if !calendar.IsAvailable(f.dates, date) {
		metrics.IncValidationFailure("consultationDate")
		return nil, ValidationErrors{{Field: "consultationDate", Message: "consultationDate is not an available date"}}
	}
	if err := f.transitionLocked(StateDateSelected); err != nil {
		return nil, err
	}

	f.date = calendar.StartOfDay(date)
	f.hasDate = true
	f.slotTime = ""
	f.slots = slots.Generator{SlotMinutes: f.cfg.SlotMinutes, Fallback: f.cfg.DefaultRanges}.ForDate(f.date, f.days)
	f.closePickerLocked()
	metrics.AddSlotsGenerated(len(f.slots))

	return append([]slots.Slot(nil), f.slots...), nil
}

// SelectTime picks a slot by its "HH:MM:SS" value. The value must be one of the
// slots last returned by SelectDate.
func (f *Form) SelectTime(value string) error {
	f.mu.Lock()
	defer f.flush()

	switch f.state {
	case StateSubmitting:
		return ErrSubmitInFlight
	case StateDateSelected, StateTimeSelected:
	default:
		return ValidationErrors{{Field: "consultationDate", Message: "select a date first"}}
	}
	if !slots.Contains(f.slots, value) {
		metrics.IncValidationFailure("time")
		return ValidationErrors{{Field: "time", Message: "time is not an available slot for the selected date"}}
	}
	if err := f.transitionLocked(StateTimeSelected); err != nil {
		return err
	}

	f.slotTime = value
	f.closePickerLocked()
	return nil
}

// SetDetails records the free-text fields. It does not change state.
func (f *Form) SetDetails(tutorName, petName, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state == StateSubmitting {
		return ErrSubmitInFlight
	}
	f.tutor = tutorName
	f.pet = petName
	f.reason = reason
	return nil
}

// Request builds the payload from the current selections.
func (f *Form) Request() model.AppointmentRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requestLocked()
}

func (f *Form) requestLocked() model.AppointmentRequest {
	req := model.AppointmentRequest{
		TutorName: strings.TrimSpace(f.tutor),
		PetName:   strings.TrimSpace(f.pet),
		VetWorkID: f.cfg.LocationID,
		Time:      f.slotTime,
		Reason:    strings.TrimSpace(f.reason),
	}
	if f.hasDate {
		req.ConsultationDate = f.date.Format(calendar.DateLayout)
	}
	return req
}

// Submit validates the form and sends it. Validation failures return
// ValidationErrors without contacting the endpoint. On success the form resets
// to StateIdle; on failure it returns to StateTimeSelected keeping its values
// and the error is a *SubmissionError. Only one submission may be in flight.
func (f *Form) Submit(ctx context.Context) (*model.SubmissionResult, error) {
	f.mu.Lock()
	if f.state == StateSubmitting {
		f.flush()
		return nil, ErrSubmitInFlight
	}

	req := f.requestLocked()
	if err := f.validateLocked(req); err != nil {
		f.flush()
		return nil, err
	}
	if f.cfg.Submitter == nil {
		f.flush()
		return nil, &SubmissionError{Message: "no submitter configured"}
	}
	if err := f.transitionLocked(StateSubmitting); err != nil {
		f.flush()
		return nil, err
	}
	f.lastErr = nil
	f.closePickerLocked()
	epoch := f.epoch
	f.flush()

	started := time.Now()
	res, err := f.send(ctx, req)
	metrics.ObserveSubmission(time.Since(started))

	f.mu.Lock()
	if f.epoch != epoch {
		f.flush()
		f.logger.Debug().Str("date", req.ConsultationDate).Str("time", req.Time).Msg("Dropping response for closed form")
		return nil, ErrFormClosed
	}

	if err == nil && (res == nil || !res.Success) {
		msg := "booking endpoint rejected the request"
		if res != nil && res.Error != "" {
			msg = res.Error
		}
		err = &SubmissionError{Message: msg}
	} else if err != nil {
		err = &SubmissionError{Message: "booking endpoint unavailable", Err: err}
	}

	if err != nil {
		f.lastErr = err
		_ = f.transitionLocked(StateFailed)
		_ = f.transitionLocked(StateTimeSelected)
		f.flush()
		metrics.IncSubmission("failed")
		f.logger.Warn().Err(err).Str("date", req.ConsultationDate).Str("time", req.Time).Msg("Appointment submission failed")
		return res, err
	}

	_ = f.transitionLocked(StateSucceeded)
	f.resetLocked()
	f.pending = append(f.pending, events.Event{Type: events.TopicSubmitted, Source: "booking_form", Payload: req})
	f.flush()

	metrics.IncSubmission("success")
	f.logger.Info().Str("date", req.ConsultationDate).Str("time", req.Time).Msg("Appointment submitted")
	if f.cfg.OnSuccess != nil {
		f.cfg.OnSuccess(req, res)
	}
	return res, nil
}

// send calls the submitter, turning a panic into an error so the form can
// leave StateSubmitting.
func (f *Form) send(ctx context.Context, req model.AppointmentRequest) (res *model.SubmissionResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			f.logger.Error().Interface("panic", r).Msg("Submitter panicked")
			res, err = nil, fmt.Errorf("submitter panic: %v", r)
		}
	}()
	return f.cfg.Submitter.SubmitAppointment(ctx, req)
}

func (f *Form) validateLocked(req model.AppointmentRequest) error {
	var errs ValidationErrors
	if err := f.cfg.Validator.ValidateRequest(req); err != nil {
		verrs, ok := err.(ValidationErrors)
		if !ok {
			return err
		}
		errs = append(errs, verrs...)
	}

	if req.ConsultationDate != "" && !calendar.IsAvailable(f.dates, f.date) && !errs.Has("consultationDate") {
		errs = append(errs, ValidationError{Field: "consultationDate", Message: "consultationDate is not an available date"})
	}
	if req.Time != "" && !slots.Contains(f.slots, req.Time) && !errs.Has("time") {
		errs = append(errs, ValidationError{Field: "time", Message: "time is not an available slot for the selected date"})
	}

	if len(errs) == 0 {
		return nil
	}
	for _, e := range errs {
		metrics.IncValidationFailure(e.Field)
	}
	return errs
}

// OpenPicker shows the date or time picker. The picker stays visible until
// ClosePicker, a selection, Close, or a dismiss event on the bus.
func (f *Form) OpenPicker(kind Picker) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case f.state == StateSubmitting:
		return ErrSubmitInFlight
	case kind == PickerNone:
		f.closePickerLocked()
		return nil
	case kind == PickerTime && !f.hasDate:
		return ValidationErrors{{Field: "consultationDate", Message: "select a date first"}}
	case kind != PickerDate && kind != PickerTime:
		return fmt.Errorf("unknown picker %q", kind)
	}

	f.closePickerLocked()
	f.picker = kind
	var sub *events.Subscription
	sub = f.cfg.Bus.Subscribe(events.TopicPickerDismiss, func(events.Event) {
		f.mu.Lock()
		defer f.mu.Unlock()
		// A publish already in progress may still call a closed subscription.
		if f.pickerSub == sub {
			f.closePickerLocked()
		}
	})
	f.pickerSub = sub
	return nil
}

// ClosePicker hides any visible picker.
func (f *Form) ClosePicker() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closePickerLocked()
}

// Picker returns the visible picker.
func (f *Form) Picker() Picker {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.picker
}

// PickerVisible reports whether any picker is shown.
func (f *Form) PickerVisible() bool {
	return f.Picker() != PickerNone
}

func (f *Form) closePickerLocked() {
	f.pickerSub.Close()
	f.pickerSub = nil
	f.picker = PickerNone
}

func (f *Form) resetLocked() {
	f.epoch++
	f.closePickerLocked()
	if f.state != StateIdle {
		_ = f.transitionLocked(StateIdle)
	}
	f.date = time.Time{}
	f.hasDate = false
	f.slots = nil
	f.slotTime = ""
	f.tutor = ""
	f.pet = ""
	f.reason = ""
	f.lastErr = nil
}

func (f *Form) transitionLocked(to State) error {
	from := f.state
	if !f.fsm.CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	f.state = to
	if from != to {
		f.logger.Debug().Str("from", string(from)).Str("to", string(to)).Msg("Booking form transition")
		f.pending = append(f.pending, events.Event{
			Type:    events.TopicStateChanged,
			Source:  "booking_form",
			Payload: StateChange{From: from, To: to},
		})
	}
	return nil
}

// flush releases the lock and publishes events queued while it was held.
func (f *Form) flush() {
	pending := f.pending
	f.pending = nil
	f.mu.Unlock()

	for _, e := range pending {
		f.cfg.Bus.Publish(e)
	}
}
