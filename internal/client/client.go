// Package client is the FitTrack API client used by the sync daemon and CLI.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/foxzi/fittrack/internal/models"
)

// Response is a raw API response
type Response struct {
	StatusCode int
	Body       []byte
}

// OK reports whether the status is 2xx
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Err returns a StatusError for non-2xx responses
func (r *Response) Err() error {
	if r.OK() {
		return nil
	}
	e := &StatusError{StatusCode: r.StatusCode}
	var errResp ErrorResponse
	if json.Unmarshal(r.Body, &errResp) == nil {
		e.Message = errResp.Error
	}
	return e
}

// ErrorResponse is the error body returned by the API
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusError is returned when the server answered with a non-2xx status
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// Temporary reports whether retrying the same request later may succeed
func (e *StatusError) Temporary() bool {
	return e.StatusCode >= 500
}

// NetworkError is returned when no response was received
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return "network error: " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsNetworkError reports whether err is a transport failure
func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// Client is a FitTrack API client
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

// New creates a new API client
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SetToken sets the bearer token sent with every request
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the current bearer token
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Do performs a request with a raw body. A response with any status is
// returned without error; transport failures are returned as *NetworkError.
func (c *Client) Do(ctx context.Context, method, endpoint string, body []byte) (*Response, error) {
	var reqBody io.Reader
	if len(body) > 0 {
		reqBody = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Err: fmt.Errorf("read response: %w", err)}
	}

	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}

// request performs a JSON request and decodes a 2xx response into result
func (c *Client) request(ctx context.Context, method, path string, body any, result any) error {
	var data []byte
	if body != nil {
		var err error
		data, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}

	resp, err := c.Do(ctx, method, path, data)
	if err != nil {
		return err
	}
	if err := resp.Err(); err != nil {
		return err
	}

	if result != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.Unmarshal(resp.Body, result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// HealthResponse is the response of GET /api/health
type HealthResponse struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}

// Health checks server health
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.request(ctx, http.MethodGet, "/api/health", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// LoginResponse is returned by Login
type LoginResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      models.User `json:"user"`
}

// Login authenticates and stores the returned token in the client
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	var resp LoginResponse
	body := map[string]string{"username": username, "password": password}
	if err := c.request(ctx, http.MethodPost, "/api/auth/login", body, &resp); err != nil {
		return nil, err
	}
	c.SetToken(resp.Token)
	return &resp, nil
}

// Me returns the authenticated user
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var u models.User
	if err := c.request(ctx, http.MethodGet, "/api/users/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// ListTrainings returns the trainings of the authenticated user
func (c *Client) ListTrainings(ctx context.Context) ([]models.Training, error) {
	var trainings []models.Training
	if err := c.request(ctx, http.MethodGet, "/api/trainings", nil, &trainings); err != nil {
		return nil, err
	}
	return trainings, nil
}

// GetMetrics returns the body metrics of the authenticated user
func (c *Client) GetMetrics(ctx context.Context) (*models.UserMetrics, error) {
	var m models.UserMetrics
	if err := c.request(ctx, http.MethodGet, "/api/users/me/metrics", nil, &m); err != nil {
		return nil, err
	}
	return &m, nil
}
