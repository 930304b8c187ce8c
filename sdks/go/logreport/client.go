// Package logreport is a client for the logreport HTTP service.
package logreport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Job states reported by the service.
const (
	StateRunning   = "running"
	StateSucceeded = "succeeded"
	StateFailed    = "failed"
)

// Error codes returned in APIError.Code.
const (
	CodeDirectoryNotFound = "directory_not_found"
	CodeInvalidQuery      = "invalid_query"
	CodeIOFailure         = "io_failure"
	CodeCanceled          = "canceled"
)

// Client talks to a logreport server.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient returns a Client for baseURL with a 30 second timeout.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("logreport: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("logreport: HTTP %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// IsDirectoryNotFound reports whether the server could not find the logs directory.
func (e *APIError) IsDirectoryNotFound() bool {
	return e.Code == CodeDirectoryNotFound
}

// GenerateRequest selects the logs to report on. An empty Service means
// every service in the directory.
type GenerateRequest struct {
	Service  string `json:"service_name"`
	LogsPath string `json:"logs_path"`
	Query    string `json:"query,omitempty"`
}

// SubmitResponse is returned when a job is accepted.
type SubmitResponse struct {
	JobID     string `json:"job_id"`
	StatusURL string `json:"status_url"`
}

// JobStatus describes a submitted job.
type JobStatus struct {
	JobID       string     `json:"job_id"`
	State       string     `json:"state"`
	ServiceName string     `json:"service_name"`
	LogsPath    string     `json:"logs_path"`
	Query       string     `json:"query,omitempty"`
	SubmittedAt time.Time  `json:"submitted_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
	Reports     []string   `json:"reports,omitempty"`
	Code        string     `json:"code,omitempty"`
	Message     string     `json:"message,omitempty"`
}

// Generate runs a report synchronously and returns the report texts.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) ([]string, error) {
	q := url.Values{}
	q.Set("serviceName", req.Service)
	q.Set("logsPath", req.LogsPath)
	if req.Query != "" {
		q.Set("q", req.Query)
	}

	var reports []string
	if _, err := c.do(ctx, http.MethodGet, "/report_generator/generate?"+q.Encode(), nil, &reports); err != nil {
		return nil, err
	}
	return reports, nil
}

// HistogramPoint is the record count of one time bucket.
type HistogramPoint struct {
	Time  time.Time `json:"time"`
	Count int       `json:"count"`
}

// ServiceHistogram is the record timeline of one service.
type ServiceHistogram struct {
	Service string           `json:"service"`
	Points  []HistogramPoint `json:"points"`
}

// Histogram counts matching records per interval for every service.
func (c *Client) Histogram(ctx context.Context, req GenerateRequest, interval time.Duration) ([]ServiceHistogram, error) {
	q := url.Values{}
	q.Set("serviceName", req.Service)
	q.Set("logsPath", req.LogsPath)
	if req.Query != "" {
		q.Set("q", req.Query)
	}
	if interval > 0 {
		q.Set("interval", interval.String())
	}

	var out []ServiceHistogram
	if _, err := c.do(ctx, http.MethodGet, "/api/histogram?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Submit queues a report job.
func (c *Client) Submit(ctx context.Context, req GenerateRequest) (SubmitResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return SubmitResponse{}, err
	}
	var resp SubmitResponse
	_, err = c.do(ctx, http.MethodPost, "/api/reports", body, &resp)
	return resp, err
}

// Status fetches a job. A failed job is returned together with its
// *APIError.
func (c *Client) Status(ctx context.Context, jobID string) (JobStatus, error) {
	var st JobStatus
	status, err := c.do(ctx, http.MethodGet, "/api/reports/"+url.PathEscape(jobID), nil, &st)
	if err != nil {
		return st, err
	}
	if status == http.StatusAccepted {
		st.State = StateRunning
	}
	return st, nil
}

// Wait polls a job every pollInterval until it finishes or ctx is done.
func (c *Client) Wait(ctx context.Context, jobID string, pollInterval time.Duration) (JobStatus, error) {
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		st, err := c.Status(ctx, jobID)
		if err != nil || st.State != StateRunning {
			return st, err
		}
		select {
		case <-ctx.Done():
			return st, ctx.Err()
		case <-ticker.C:
		}
	}
}

// do sends a request and decodes a JSON response into out. Error responses
// become *APIError; their body is still decoded into out when possible.
func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, err
	}

	if resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		_ = json.Unmarshal(data, apiErr)
		if out != nil {
			_ = json.Unmarshal(data, out)
		}
		return resp.StatusCode, apiErr
	}
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}
