// Package scoring calls the external fuzzy-matching engine for one
// (job, applicant) pair at a time.
package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"jobmate/match-service/internal/model"
)

const (
	scorePath      = "/api"
	maxBodyBytes   = 1 << 20
	defaultTimeout = 10 * time.Second
)

// Result is a validated engine response. JobID is the job the engine says it
// scored; Score is rounded to the nearest integer in [0, 100].
type Result struct {
	JobID string
	Score int
}

// Client calls GET {baseURL}/api?jobId=&applicantId=.
// Every call is bounded by timeout regardless of the caller's deadline.
type Client struct {
	baseURL string
	timeout time.Duration
	client  *http.Client
}

// NewClient constructs a Client. A non-positive timeout falls back to 10s.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		client:  &http.Client{},
	}
}

// engineResponse mirrors the engine JSON. Pointers distinguish absent fields.
type engineResponse struct {
	ID    *string          `json:"id"`
	Score *json.RawMessage `json:"score"`
	Error string           `json:"error"`
}

// Score asks the engine for the compatibility of applicantID with jobID.
//
// Errors wrap model.ErrScoringUnavailable for transport failures, timeouts,
// 5xx responses and bodies that are not JSON, and model.ErrScoringRejected
// for 4xx responses and JSON that deviates from {id, score}.
func (c *Client) Score(ctx context.Context, jobID, applicantID string) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := url.Values{}
	params.Set("jobId", jobID)
	params.Set("applicantId", applicantID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+scorePath+"?"+params.Encode(), nil)
	if err != nil {
		return Result{}, fmt.Errorf("build request: %w: %w", model.ErrScoringUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Result{}, fmt.Errorf("timed out after %s: %w", c.timeout, model.ErrScoringUnavailable)
		}
		return Result{}, fmt.Errorf("http GET: %w: %w", model.ErrScoringUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Result{}, fmt.Errorf("read body: %w: %w", model.ErrScoringUnavailable, err)
	}

	var parsed engineResponse
	jsonErr := json.Unmarshal(body, &parsed)

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return Result{}, fmt.Errorf("engine returned %d: %s: %w", resp.StatusCode, engineMessage(parsed, body), model.ErrScoringUnavailable)
	case resp.StatusCode >= http.StatusBadRequest:
		return Result{}, fmt.Errorf("engine returned %d: %s: %w", resp.StatusCode, engineMessage(parsed, body), model.ErrScoringRejected)
	case resp.StatusCode != http.StatusOK:
		return Result{}, fmt.Errorf("engine returned unexpected status %d: %w", resp.StatusCode, model.ErrScoringUnavailable)
	}

	if !json.Valid(body) {
		return Result{}, fmt.Errorf("malformed response: %w", model.ErrScoringUnavailable)
	}
	// Valid JSON that does not decode as {id, score} is off-schema.
	if jsonErr != nil {
		return Result{}, fmt.Errorf("unexpected response shape: %w: %w", model.ErrScoringRejected, jsonErr)
	}

	return parseResult(parsed, jobID)
}

// parseResult validates an engine response for requestedJobID.
func parseResult(r engineResponse, requestedJobID string) (Result, error) {
	if r.Error != "" {
		return Result{}, fmt.Errorf("engine error %q: %w", r.Error, model.ErrScoringRejected)
	}
	if r.ID == nil || strings.TrimSpace(*r.ID) == "" {
		return Result{}, fmt.Errorf("response has no job id: %w", model.ErrScoringRejected)
	}
	if *r.ID != requestedJobID {
		return Result{}, fmt.Errorf("engine scored job %q, asked for %q: %w", *r.ID, requestedJobID, model.ErrScoringRejected)
	}
	if r.Score == nil || strings.TrimSpace(string(*r.Score)) == "null" {
		return Result{}, fmt.Errorf("response has no score: %w", model.ErrScoringRejected)
	}

	var raw float64
	if err := json.Unmarshal(*r.Score, &raw); err != nil {
		return Result{}, fmt.Errorf("score is not a number: %w", model.ErrScoringRejected)
	}

	score, err := Normalize(raw)
	if err != nil {
		return Result{}, err
	}
	return Result{JobID: *r.ID, Score: score}, nil
}

// Normalize rounds raw to the nearest integer. Non-finite values and values
// outside [0, 100] wrap model.ErrScoringRejected.
func Normalize(raw float64) (int, error) {
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return 0, fmt.Errorf("score %v is not finite: %w", raw, model.ErrScoringRejected)
	}
	if raw < model.MinScore || raw > model.MaxScore {
		return 0, fmt.Errorf("score %v outside [%d, %d]: %w", raw, model.MinScore, model.MaxScore, model.ErrScoringRejected)
	}
	return int(math.Round(raw)), nil
}

func engineMessage(r engineResponse, body []byte) string {
	if r.Error != "" {
		return r.Error
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200] + "..."
	}
	return msg
}
