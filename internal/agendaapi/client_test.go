package agendaapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vetagenda/internal/model"
	"vetagenda/internal/schedule"
)

const schedulePayload = `[{"Segunda":"08:00-12:00, 14:00-18:00"},{"Sábado":"08:00-12:00"}]`

func TestGetLocationSchedule(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/work-locations/7/schedule", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(schedulePayload))
	}))
	defer server.Close()

	client := NewClient(server.URL+"/", "secret", time.Second)
	days, err := client.GetLocationSchedule(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, []model.DaySchedule{
		{DayName: "Segunda", Hours: "08:00-12:00, 14:00-18:00"},
		{DayName: "Sábado", Hours: "08:00-12:00"},
	}, days)
}

func TestGetLocationSchedule_MalformedPayload(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"object instead of array", `{"Segunda":"08:00-12:00"}`},
		{"two keys", `[{"Segunda":"08:00-12:00","Terça":"08:00-12:00"}]`},
		{"numeric hours", `[{"Segunda":8}]`},
		{"empty body", ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewClient(server.URL, "", time.Second).GetLocationSchedule(context.Background(), 1)
			var payloadErr *schedule.PayloadError
			assert.ErrorAs(t, err, &payloadErr)
		})
	}
}

func TestGetLocationSchedule_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := NewClient(server.URL, "", time.Second).GetLocationSchedule(context.Background(), 1)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
	assert.Equal(t, "boom", statusErr.Body)
}

func TestGetLocationSchedule_RedisCache(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(schedulePayload))
	}))
	defer server.Close()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	ctx := context.Background()
	client := NewClient(server.URL, "", time.Second)
	client.UseRedisCache(rdb, time.Minute)

	first, err := client.GetLocationSchedule(ctx, 3)
	require.NoError(t, err)
	second, err := client.GetLocationSchedule(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), hits.Load())
	assert.True(t, mr.Exists("schedule:3"))

	mr.FastForward(2 * time.Minute)
	_, err = client.GetLocationSchedule(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())

	client.InvalidateSchedule(ctx, 3)
	assert.False(t, mr.Exists("schedule:3"))
}

func TestSubmitAppointment(t *testing.T) {
	var got model.AppointmentRequest
	var requestID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/appointments", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		requestID = r.Header.Get(RequestIDHeader)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer server.Close()

	req := model.AppointmentRequest{
		TutorName:        "Ana",
		PetName:          "Rex",
		VetWorkID:        7,
		ConsultationDate: "2026-10-19",
		Time:             "09:30:00",
	}
	res, err := NewClient(server.URL, "", time.Second).SubmitAppointment(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, req, got)

	_, parseErr := uuid.Parse(requestID)
	assert.NoError(t, parseErr)
}

func TestSubmitAppointment_Rejected(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantResult *model.SubmissionResult
		wantStatus int
	}{
		{
			name:       "backend refusal with message",
			status:     http.StatusConflict,
			body:       `{"success":false,"error":"Horário indisponível"}`,
			wantResult: &model.SubmissionResult{Success: false, Error: "Horário indisponível"},
		},
		{
			name:       "2xx with success false",
			status:     http.StatusOK,
			body:       `{"success":false,"error":"Agenda fechada"}`,
			wantResult: &model.SubmissionResult{Success: false, Error: "Agenda fechada"},
		},
		{
			name:       "non-json error page",
			status:     http.StatusBadGateway,
			body:       `<html>bad gateway</html>`,
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "error status without message",
			status:     http.StatusInternalServerError,
			body:       `{"success":true}`,
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			res, err := NewClient(server.URL, "", time.Second).SubmitAppointment(context.Background(), model.AppointmentRequest{})
			if tt.wantResult != nil {
				require.NoError(t, err)
				assert.Equal(t, tt.wantResult, res)
				return
			}
			var statusErr *StatusError
			require.ErrorAs(t, err, &statusErr)
			assert.Equal(t, tt.wantStatus, statusErr.StatusCode)
			assert.Nil(t, res)
		})
	}
}

func TestSubmitAppointment_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := NewClient(url, "", time.Second).SubmitAppointment(context.Background(), model.AppointmentRequest{})
	assert.Error(t, err)
}

func TestRateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", time.Second)
	client.UseRateLimit(0.001, 1)

	ctx := context.Background()
	_, err := client.GetLocationSchedule(ctx, 1)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = client.GetLocationSchedule(ctx, 1)
	assert.ErrorContains(t, err, "rate limit")

	client.UseRateLimit(0, 0)
	_, err = client.GetLocationSchedule(context.Background(), 1)
	assert.NoError(t, err)
}

func TestHealthCheck(t *testing.T) {
	var healthy atomic.Bool
	healthy.Store(true)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/healthz" || !healthy.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", time.Second)
	assert.NoError(t, client.HealthCheck(context.Background()))

	healthy.Store(false)
	assert.Error(t, client.HealthCheck(context.Background()))
}
