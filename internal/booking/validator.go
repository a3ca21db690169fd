package booking

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"vetagenda/internal/calendar"
	"vetagenda/internal/model"
	"vetagenda/internal/schedule"
	"vetagenda/internal/slots"
)

// Availability tunes the window a request is checked against.
type Availability struct {
	SlotMinutes int
	HorizonDays int
	// DefaultRanges override the built-in hours of unpublished weekdays.
	DefaultRanges []schedule.Range
}

func (a Availability) generator() slots.Generator {
	return slots.Generator{SlotMinutes: a.SlotMinutes, Fallback: a.DefaultRanges}
}

// Validator checks AppointmentRequests before they are sent.
type Validator struct {
	validate *validator.Validate
}

// NewValidator registers the booking-specific rules.
func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	if err := v.RegisterValidation("iso_date", validateISODate); err != nil {
		panic(fmt.Sprintf("register iso_date: %v", err))
	}
	if err := v.RegisterValidation("slot_time", validateSlotTime); err != nil {
		panic(fmt.Sprintf("register slot_time: %v", err))
	}

	return &Validator{validate: v}
}

func validateISODate(fl validator.FieldLevel) bool {
	_, err := time.Parse(calendar.DateLayout, fl.Field().String())
	return err == nil
}

func validateSlotTime(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if strings.Count(value, ":") != 2 {
		return false
	}
	_, ok := schedule.ParseClock(value)
	return ok
}

// ValidateRequest checks required fields and formats. Whitespace-only names count as missing.
func (v *Validator) ValidateRequest(req model.AppointmentRequest) error {
	req.TutorName = strings.TrimSpace(req.TutorName)
	req.PetName = strings.TrimSpace(req.PetName)

	if err := v.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

// ValidateAvailability checks that the request's date is bookable from today
// and its time is one of the slots generated for that date.
func (v *Validator) ValidateAvailability(req model.AppointmentRequest, days []model.DaySchedule, today time.Time, opts Availability) error {
	date, err := calendar.ParseDate(req.ConsultationDate, today.Location())
	if err != nil {
		return ValidationErrors{{Field: "consultationDate", Message: "consultationDate must be YYYY-MM-DD"}}
	}

	dates := calendar.GenerateAvailableDates(days, today, opts.HorizonDays)
	if !calendar.IsAvailable(dates, date) {
		return ValidationErrors{{Field: "consultationDate", Message: "consultationDate is not an available date"}}
	}

	available := opts.generator().ForDate(date, days)
	if !slots.Contains(available, req.Time) {
		return ValidationErrors{{Field: "time", Message: "time is not an available slot for the selected date"}}
	}
	return nil
}

// Validate runs ValidateRequest and, when it passes, ValidateAvailability.
func (v *Validator) Validate(req model.AppointmentRequest, days []model.DaySchedule, today time.Time, opts Availability) error {
	if err := v.ValidateRequest(req); err != nil {
		return err
	}
	return v.ValidateAvailability(req, days, today, opts)
}

func translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "gt":
			message = fmt.Sprintf("%s must be greater than %s", err.Field(), err.Param())
		case "iso_date":
			message = fmt.Sprintf("%s must be YYYY-MM-DD", err.Field())
		case "slot_time":
			message = fmt.Sprintf("%s must be HH:MM:SS", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
