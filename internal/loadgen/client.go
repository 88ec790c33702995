package loadgen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/okian/diploma/internal/domain/credits"
	"github.com/okian/diploma/internal/domain/types"
)

// Submission outcomes.
const (
	OutcomeAccepted  = "accepted"
	OutcomeDuplicate = "duplicate"
	OutcomeFailed    = "failed"
)

// ErrUnexpectedStatus is returned when the service answers with an
// unexpected HTTP status.
var ErrUnexpectedStatus = errors.New("unexpected status")

// Client talks to the diploma HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client with the given per-request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{baseURL: baseURL, http: &http.Client{Timeout: timeout}}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) (int, error) {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal request body: %w", err)
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}
	if out != nil && resp.StatusCode < http.StatusBadRequest {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode %s: %w", path, err)
		}
	}
	return resp.StatusCode, nil
}

// Healthy reports whether /healthz answers 200.
func (c *Client) Healthy(ctx context.Context) error {
	status, err := c.do(ctx, http.MethodGet, "/healthz", nil, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("%w: healthz returned %d", ErrUnexpectedStatus, status)
	}
	return nil
}

// Catalog fetches the service's catalog and rebuilds it locally.
func (c *Client) Catalog(ctx context.Context) (*credits.Catalog, error) {
	var body CatalogResponse
	status, err := c.do(ctx, http.MethodGet, "/catalog", nil, &body)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: catalog returned %d", ErrUnexpectedStatus, status)
	}
	return credits.NewCatalog(body.Subjects, body.TotalCreditsRequired)
}

// Submit posts one transcript and classifies the outcome.
func (c *Client) Submit(ctx context.Context, t Transcript) string { //nolint:gocritic // hugeParam
	var ack AckResponse
	status, err := c.do(ctx, http.MethodPost, "/transcripts", t, &ack)
	if err != nil {
		return OutcomeFailed
	}
	switch status {
	case http.StatusAccepted:
		return OutcomeAccepted
	case http.StatusOK:
		return OutcomeDuplicate
	default:
		return OutcomeFailed
	}
}

// Cohort fetches the top n students.
func (c *Client) Cohort(ctx context.Context, n int) ([]types.CohortEntry, error) {
	var body CohortResponse
	status, err := c.do(ctx, http.MethodGet, "/cohort?limit="+strconv.Itoa(n), nil, &body)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: cohort returned %d", ErrUnexpectedStatus, status)
	}
	return body.Students, nil
}

// Student fetches one student's stored standing.
func (c *Client) Student(ctx context.Context, id string) (types.StudentStanding, error) {
	var body types.StudentStanding
	status, err := c.do(ctx, http.MethodGet, "/students/"+url.PathEscape(id), nil, &body)
	if err != nil {
		return types.StudentStanding{}, err
	}
	if status != http.StatusOK {
		return types.StudentStanding{}, fmt.Errorf("%w: student %s returned %d", ErrUnexpectedStatus, id, status)
	}
	return body, nil
}

// Processed returns how many transcripts the service's workers have finished,
// failures included.
func (c *Client) Processed(ctx context.Context) (int64, error) {
	var body struct {
		Processed int64 `json:"processed"`
		Failed    int64 `json:"failed"`
	}
	status, err := c.do(ctx, http.MethodGet, "/stats", nil, &body)
	if err != nil {
		return 0, err
	}
	if status != http.StatusOK {
		return 0, fmt.Errorf("%w: stats returned %d", ErrUnexpectedStatus, status)
	}
	return body.Processed + body.Failed, nil
}
