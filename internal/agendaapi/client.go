// Package agendaapi is the HTTP client for the clinic booking backend.
package agendaapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"vetagenda/internal/model"
	"vetagenda/internal/schedule"
)

// RequestIDHeader carries a per-submission id the backend can use to drop retries.
const RequestIDHeader = "X-Request-ID"

// StatusError is returned for non-2xx responses without a usable body.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("http %d", e.StatusCode)
	}
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.Body)
}

// Client talks to the booking backend.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client

	redis    *redis.Client
	cacheTTL time.Duration

	limiter *rate.Limiter
}

// NewClient constructs a client. A non-positive timeout falls back to 10s.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// UseRedisCache configures optional Redis caching for schedule lookups.
func (c *Client) UseRedisCache(redisClient *redis.Client, ttl time.Duration) {
	c.redis = redisClient
	c.cacheTTL = ttl
}

// UseRateLimit throttles outgoing requests. rps <= 0 disables the limiter.
func (c *Client) UseRateLimit(rps float64, burst int) {
	if rps <= 0 {
		c.limiter = nil
		return
	}
	if burst <= 0 {
		burst = 1
	}
	c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
}

// GetLocationSchedule fetches the published weekly schedule of a work location.
func (c *Client) GetLocationSchedule(ctx context.Context, locationID int64) ([]model.DaySchedule, error) {
	cacheKey := fmt.Sprintf("schedule:%d", locationID)
	if raw, ok := c.readCache(ctx, cacheKey); ok {
		if days, err := schedule.ParsePayload(raw); err == nil {
			return days, nil
		}
	}

	endpoint := fmt.Sprintf("%s/api/v1/work-locations/%d/schedule", c.baseURL, locationID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, err
	}
	c.addHeaders(req)

	status, body, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if status >= 300 {
		return nil, &StatusError{StatusCode: status, Body: snippet(body)}
	}

	days, err := schedule.ParsePayload(body)
	if err != nil {
		return nil, fmt.Errorf("location %d schedule: %w", locationID, err)
	}
	c.writeCache(ctx, cacheKey, body)
	return days, nil
}

// InvalidateSchedule drops a cached schedule.
func (c *Client) InvalidateSchedule(ctx context.Context, locationID int64) {
	if c.redis == nil {
		return
	}
	_ = c.redis.Del(ctx, fmt.Sprintf("schedule:%d", locationID)).Err()
}

// SubmitAppointment posts a booking request. A non-2xx response whose body
// decodes as a SubmissionResult is returned as that result; otherwise an
// error is returned.
func (c *Client) SubmitAppointment(ctx context.Context, appt model.AppointmentRequest) (*model.SubmissionResult, error) {
	data, err := json.Marshal(appt)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/appointments", bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(RequestIDHeader, uuid.NewString())
	c.addHeaders(req)

	status, body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var res model.SubmissionResult
	if decodeErr := json.Unmarshal(body, &res); decodeErr != nil {
		if status >= 300 {
			return nil, &StatusError{StatusCode: status, Body: snippet(body)}
		}
		return nil, fmt.Errorf("decode submission result: %w", decodeErr)
	}
	if status >= 300 {
		res.Success = false
		if res.Error == "" {
			return nil, &StatusError{StatusCode: status}
		}
	}
	return &res, nil
}

// HealthCheck checks if the backend is reachable.
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", http.NoBody)
	if err != nil {
		return err
	}
	status, _, err := c.do(req)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("health check failed: %d", status)
	}
	return nil
}

func (c *Client) readCache(ctx context.Context, key string) ([]byte, bool) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return nil, false
	}
	val, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return val, true
}

func (c *Client) writeCache(ctx context.Context, key string, val []byte) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return
	}
	_ = c.redis.Set(ctx, key, val, c.cacheTTL).Err()
}

func (c *Client) do(req *http.Request) (int, []byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(req.Context()); err != nil {
			return 0, nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, nil, err
	}
	return resp.StatusCode, body, nil
}

func (c *Client) addHeaders(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}
	req.Header.Set("Accept", "application/json")
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		return s[:200]
	}
	return s
}
