package api

import (
	"errors"
	"net/http"

	"vetagenda/internal/calendar"
	"vetagenda/internal/database"
	"vetagenda/internal/metrics"
	"vetagenda/internal/model"
	"vetagenda/internal/schedule"
	"vetagenda/internal/slots"
)

// DatesResponse is the response for GET /api/v1/locations/{id}/dates.
type DatesResponse struct {
	LocationID int64    `json:"location_id"`
	Dates      []string `json:"dates"`
}

// SlotsResponse is the response for GET /api/v1/locations/{id}/slots.
type SlotsResponse struct {
	LocationID int64          `json:"location_id"`
	Date       string         `json:"date"`
	Available  bool           `json:"available"`
	Slots      []string       `json:"slots"`
	Periods    []slots.Period `json:"periods"`
}

// handleSchedule returns the published weekly schedule in display form.
// GET /api/v1/locations/{id}/schedule
func (s *HTTPServer) handleSchedule(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("schedule")

	days, _, ok := s.loadSchedule(w, r)
	if !ok {
		return
	}

	payload, err := schedule.MarshalPayload(days)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to encode schedule")
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

// handleDates returns the bookable dates starting tomorrow.
// GET /api/v1/locations/{id}/dates
func (s *HTTPServer) handleDates(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("dates")

	days, id, ok := s.loadSchedule(w, r)
	if !ok {
		return
	}

	dates := calendar.GenerateAvailableDates(days, s.today(), s.opts.HorizonDays)
	writeJSON(w, http.StatusOK, DatesResponse{LocationID: id, Dates: calendar.Keys(dates)})
}

// handleSlots returns the slots of one date.
// GET /api/v1/locations/{id}/slots?date=YYYY-MM-DD
func (s *HTTPServer) handleSlots(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("slots")

	dateStr := r.URL.Query().Get("date")
	if dateStr == "" {
		writeError(w, http.StatusBadRequest, "date is required")
		return
	}
	date, err := calendar.ParseDate(dateStr, s.opts.Location)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}

	days, id, ok := s.loadSchedule(w, r)
	if !ok {
		return
	}

	dates := calendar.GenerateAvailableDates(days, s.today(), s.opts.HorizonDays)
	generated := s.generator().ForDate(date, days)
	metrics.AddSlotsGenerated(len(generated))

	resp := SlotsResponse{
		LocationID: id,
		Date:       dateStr,
		Available:  calendar.IsAvailable(dates, date),
		Slots:      slots.Strings(generated),
		Periods:    slots.FindConsecutiveSlots(generated, s.opts.SlotMinutes),
	}
	if resp.Periods == nil {
		resp.Periods = []slots.Period{}
	}
	writeJSON(w, http.StatusOK, resp)
}

// loadSchedule resolves the {id} path value to an active location and its
// schedule, writing the error response itself when it fails.
func (s *HTTPServer) loadSchedule(w http.ResponseWriter, r *http.Request) ([]model.DaySchedule, int64, bool) {
	id, err := locationID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, 0, false
	}

	loc, err := s.source.GetLocation(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) || (err == nil && !loc.IsActive) {
		writeError(w, http.StatusNotFound, "location not found")
		return nil, 0, false
	}
	if err != nil {
		s.logger.Error().Err(err).Int64("location_id", id).Msg("Failed to load location")
		writeError(w, http.StatusInternalServerError, "failed to load location")
		return nil, 0, false
	}

	days, err := s.source.DaySchedules(r.Context(), id)
	if err != nil {
		s.logger.Error().Err(err).Int64("location_id", id).Msg("Failed to load schedule")
		writeError(w, http.StatusInternalServerError, "failed to load schedule")
		return nil, 0, false
	}
	return days, id, true
}
