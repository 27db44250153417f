// Package localreasoner is an HTTP client adapter for the local (non-tool,
// non-LLM-backed) reasoning fallback: a cheap, always-available backend the
// orchestrator dispatches to when the tool server is unavailable.
package localreasoner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"unified-thinking/internal/errs"
)

// ProcessRequest is what the orchestrator sends the local reasoner.
type ProcessRequest struct {
	Query     string `json:"query"`
	UserID    string `json:"user_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// ProcessResponse is the local reasoner's answer.
type ProcessResponse struct {
	Answer      string                 `json:"answer"`
	Strategy    string                 `json:"strategy"`
	LatencyMS   int64                  `json:"latency_ms"`
	Diagnostics map[string]interface{} `json:"diagnostics,omitempty"`
}

// Stats is the local reasoner's counters, used for the operator diagnostics
// surface.
type Stats struct {
	TotalRequests   int64   `json:"total_requests"`
	SuccessfulCalls int64   `json:"successful_calls"`
	AverageLatency  float64 `json:"average_latency_ms"`
}

// Client is a small HTTP adapter over the local reasoner's REST surface.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a local reasoner client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{baseURL: baseURL, httpClient: &http.Client{Timeout: timeout}}
}

// Process asks the local reasoner to answer a query directly, bypassing
// the tool server and any LLM-backed strategy.
func (c *Client) Process(ctx context.Context, req ProcessRequest) (*ProcessResponse, error) {
	start := time.Now()
	var out ProcessResponse
	if err := c.doJSON(ctx, http.MethodPost, "/process", req, &out); err != nil {
		return nil, err
	}
	if out.LatencyMS == 0 {
		out.LatencyMS = time.Since(start).Milliseconds()
	}
	return &out, nil
}

// Stats returns the local reasoner's running counters.
func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	var out Stats
	if err := c.doJSON(ctx, http.MethodGet, "/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var payload []byte
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return errs.Wrap("localreasoner.request", errs.InvalidInput, err)
		}
		payload = encoded
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return errs.Wrap("localreasoner.request", errs.Internal, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errs.Wrap("localreasoner.request", errs.BackendUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return errs.Wrap("localreasoner.request", errs.Internal, err)
	}
	if resp.StatusCode >= 500 {
		return errs.New("localreasoner.request", errs.BackendUnavailable, fmt.Sprintf("status %d", resp.StatusCode))
	}
	if resp.StatusCode >= 400 {
		return errs.New("localreasoner.request", errs.InvalidInput, fmt.Sprintf("status %d: %s", resp.StatusCode, string(respBody)))
	}
	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return errs.Wrap("localreasoner.request", errs.Internal, err)
		}
	}
	return nil
}
