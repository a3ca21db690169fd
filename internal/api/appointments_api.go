package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"vetagenda/internal/booking"
	"vetagenda/internal/database"
	"vetagenda/internal/metrics"
	"vetagenda/internal/model"
)

// handleAppointments validates a consultation request against the location's
// schedule and forwards it to the booking endpoint.
// POST /api/v1/appointments
func (s *HTTPServer) handleAppointments(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("appointments")

	var req model.AppointmentRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.TutorName = strings.TrimSpace(req.TutorName)
	req.PetName = strings.TrimSpace(req.PetName)

	if err := s.validator.ValidateRequest(req); err != nil {
		s.writeValidation(w, err)
		return
	}

	loc, err := s.source.GetLocation(r.Context(), req.VetWorkID)
	if errors.Is(err, database.ErrNotFound) || (err == nil && !loc.IsActive) {
		s.writeValidation(w, booking.ValidationErrors{{Field: "vetWorkId", Message: "vetWorkId is not an active location"}})
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Int64("location_id", req.VetWorkID).Msg("Failed to load location")
		writeError(w, http.StatusInternalServerError, "failed to load location")
		return
	}

	days, err := s.source.DaySchedules(r.Context(), req.VetWorkID)
	if err != nil {
		s.logger.Error().Err(err).Int64("location_id", req.VetWorkID).Msg("Failed to load schedule")
		writeError(w, http.StatusInternalServerError, "failed to load schedule")
		return
	}

	if err := s.validator.ValidateAvailability(req, days, s.today(), s.availability()); err != nil {
		s.writeValidation(w, err)
		return
	}

	if s.submitter == nil {
		writeError(w, http.StatusServiceUnavailable, "booking endpoint not configured")
		return
	}

	started := time.Now()
	res, err := s.submitter.SubmitAppointment(r.Context(), req)
	metrics.ObserveSubmission(time.Since(started))

	switch {
	case err != nil:
		metrics.IncSubmission("failed")
		s.logger.Error().Err(err).Int64("location_id", req.VetWorkID).Msg("Booking endpoint unavailable")
		writeError(w, http.StatusBadGateway, "booking endpoint unavailable")
	case res == nil || !res.Success:
		metrics.IncSubmission("failed")
		msg := "booking was not accepted"
		if res != nil && res.Error != "" {
			msg = res.Error
		}
		s.logger.Warn().Str("reason", msg).Int64("location_id", req.VetWorkID).Msg("Booking rejected")
		writeError(w, http.StatusBadGateway, msg)
	default:
		metrics.IncSubmission("success")
		s.logger.Info().
			Int64("location_id", req.VetWorkID).
			Str("date", req.ConsultationDate).
			Str("time", req.Time).
			Msg("Appointment accepted")
		writeJSON(w, http.StatusOK, res)
	}
}

func (s *HTTPServer) writeValidation(w http.ResponseWriter, err error) {
	var fields booking.ValidationErrors
	if !errors.As(err, &fields) || len(fields) == 0 {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	for _, f := range fields {
		metrics.IncValidationFailure(f.Field)
	}
	writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: fields[0].Message, Fields: fields})
}
