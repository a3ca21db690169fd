// Package api exposes schedules, bookable dates and slots over JSON, and
// accepts consultation requests from the web client.
package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"vetagenda/internal/booking"
	"vetagenda/internal/calendar"
	"vetagenda/internal/model"
	"vetagenda/internal/schedule"
	"vetagenda/internal/slots"
)

// ScheduleSource provides locations and their published weekly schedules.
type ScheduleSource interface {
	GetLocation(ctx context.Context, id int64) (*model.WorkLocation, error)
	DaySchedules(ctx context.Context, locationID int64) ([]model.DaySchedule, error)
}

// ReadinessCheck reports whether a dependency is usable.
type ReadinessCheck func(ctx context.Context) error

// Options configures HTTPServer.
type Options struct {
	Port         int
	APIKey       string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	SlotMinutes   int
	HorizonDays   int
	DefaultRanges []schedule.Range
	Location      *time.Location
	Now           func() time.Time
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Success bool                      `json:"success"`
	Error   string                    `json:"error"`
	Fields  []booking.ValidationError `json:"fields,omitempty"`
}

type HTTPServer struct {
	server    *http.Server
	source    ScheduleSource
	submitter booking.Submitter
	validator *booking.Validator
	opts      Options
	checks    []namedCheck
	logger    zerolog.Logger
}

type namedCheck struct {
	name  string
	check ReadinessCheck
}

func NewHTTPServer(opts Options, source ScheduleSource, submitter booking.Submitter, validator *booking.Validator, logger zerolog.Logger) *HTTPServer {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = 10 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 15 * time.Second
	}
	if validator == nil {
		validator = booking.NewValidator()
	}

	s := &HTTPServer{
		source:    source,
		submitter: submitter,
		validator: validator,
		opts:      opts,
		logger:    logger.With().Str("component", "http").Logger(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)
	mux.Handle("GET /api/v1/locations/{id}/schedule", s.requireAPIKey(http.HandlerFunc(s.handleSchedule)))
	mux.Handle("GET /api/v1/locations/{id}/dates", s.requireAPIKey(http.HandlerFunc(s.handleDates)))
	mux.Handle("GET /api/v1/locations/{id}/slots", s.requireAPIKey(http.HandlerFunc(s.handleSlots)))
	mux.Handle("POST /api/v1/appointments", s.requireAPIKey(http.HandlerFunc(s.handleAppointments)))

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", opts.Port),
		Handler:      s.recoverer(mux),
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	}
	return s
}

// AddReadinessCheck registers a dependency probed by /readyz.
func (s *HTTPServer) AddReadinessCheck(name string, check ReadinessCheck) {
	s.checks = append(s.checks, namedCheck{name: name, check: check})
}

// Handler returns the root handler.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

// Start serves until Shutdown is called.
func (s *HTTPServer) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) today() time.Time {
	return calendar.StartOfDay(s.opts.Now().In(s.opts.Location))
}

func (s *HTTPServer) availability() booking.Availability {
	return booking.Availability{
		SlotMinutes:   s.opts.SlotMinutes,
		HorizonDays:   s.opts.HorizonDays,
		DefaultRanges: s.opts.DefaultRanges,
	}
}

func (s *HTTPServer) generator() slots.Generator {
	return slots.Generator{SlotMinutes: s.opts.SlotMinutes, Fallback: s.opts.DefaultRanges}
}

func (s *HTTPServer) requireAPIKey(next http.Handler) http.Handler {
	if s.opts.APIKey == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("X-Api-Key")
		if subtle.ConstantTimeCompare([]byte(key), []byte(s.opts.APIKey)) != 1 {
			writeError(w, http.StatusUnauthorized, "invalid or missing API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *HTTPServer) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error().Interface("panic", rec).Str("path", r.URL.Path).Msg("Handler panicked")
				writeError(w, http.StatusInternalServerError, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *HTTPServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(s.checks))
	for _, c := range s.checks {
		if err := c.check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			results[c.name] = err.Error()
			continue
		}
		results[c.name] = "ok"
	}
	writeJSON(w, status, map[string]any{"ready": status == http.StatusOK, "checks": results})
}

func locationID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(r.PathValue("id")), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid location id")
	}
	return id, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
