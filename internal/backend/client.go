// Package backend talks to the evaluation backend that executes benchmark
// suites and serves their snapshots.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/kamilpajak/reliability/pkg/models"
	"golang.org/x/time/rate"
)

// Config holds backend client settings.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration

	// RPS and Burst bound outgoing requests. Zero RPS disables limiting.
	RPS   float64
	Burst int
}

// Client handles evaluation backend API interactions.
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
}

// NewClient creates a backend client. An empty token falls back to
// RELIABILITY_BACKEND_TOKEN.
func NewClient(cfg Config) *Client {
	token := cfg.Token
	if token == "" {
		token = os.Getenv("RELIABILITY_BACKEND_TOKEN")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	var limiter *rate.Limiter
	if cfg.RPS > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RPS), burst)
	}

	return &Client{
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		limiter:    limiter,
	}
}

// BaseURL returns the backend root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListBenchmarks fetches the latest benchmark snapshot. A wrapped snapshot
// carrying a message yields a *SoftFailureError and no records.
func (c *Client) ListBenchmarks(ctx context.Context) ([]models.BenchmarkRecord, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/benchmarks", nil)
	if err != nil {
		return nil, err
	}

	// Older backends wrap the list in a full snapshot payload.
	if trimmed := bytes.TrimSpace(body); len(trimmed) > 0 && trimmed[0] == '{' {
		if err := validate(schemaSuiteRun, "benchmarks", trimmed); err != nil {
			return nil, err
		}
		var wrapped models.SuiteRunResponse
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return nil, fmt.Errorf("decode benchmarks: %w", err)
		}
		if wrapped.Message != "" {
			return nil, &SoftFailureError{Message: wrapped.Message}
		}
		return wrapped.Benchmarks, nil
	}

	if err := validate(schemaBenchmarks, "benchmarks", body); err != nil {
		return nil, err
	}
	var records []models.BenchmarkRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("decode benchmarks: %w", err)
	}
	return records, nil
}

// RunSuite asks the backend to execute a suite and returns its snapshot.
// A response carrying Message is returned as-is; callers decide how to treat it.
func (c *Client) RunSuite(ctx context.Context, req models.SuiteRunRequest) (*models.SuiteRunResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	body, err := c.doRequest(ctx, http.MethodPost, "/benchmarks/run", payload)
	if err != nil {
		return nil, err
	}
	if err := validate(schemaSuiteRun, "suite run", body); err != nil {
		return nil, err
	}

	var result models.SuiteRunResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode suite run: %w", err)
	}
	return &result, nil
}

// ListRuns fetches the backend's suite run history.
func (c *Client) ListRuns(ctx context.Context) ([]models.RunHistoryEntry, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/runs", nil)
	if err != nil {
		return nil, err
	}
	if err := validate(schemaRuns, "runs", body); err != nil {
		return nil, err
	}

	var runs []models.RunHistoryEntry
	if err := json.Unmarshal(body, &runs); err != nil {
		return nil, fmt.Errorf("decode runs: %w", err)
	}
	return runs, nil
}

// ClearRuns irreversibly deletes the backend's run history.
func (c *Client) ClearRuns(ctx context.Context) error {
	_, err := c.doRequest(ctx, http.MethodDelete, "/runs", nil)
	return err
}

func (c *Client) doRequest(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, err
	}

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(body)),
		}
	}
	return body, nil
}

// APIError is returned for non-2xx backend responses.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Status     string
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("backend %s %s: %s", e.Method, e.Path, e.Status)
	}
	return fmt.Sprintf("backend %s %s: %s - %s", e.Method, e.Path, e.Status, e.Body)
}

// SoftFailureError is a backend answer that reports a message instead of a
// usable snapshot.
type SoftFailureError struct {
	Message string
}

func (e *SoftFailureError) Error() string {
	return e.Message
}

// IsSoftFailure reports whether err wraps a SoftFailureError.
func IsSoftFailure(err error) bool {
	var sf *SoftFailureError
	return errors.As(err, &sf)
}

// IsAPIError reports whether err wraps an APIError.
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
