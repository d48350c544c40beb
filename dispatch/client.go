// Package dispatch provides the HTTP client used to hand tasks to
// location agents, and the simulated external execution path.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/homefleet/supervisor/domain"
)

// TimeoutError reports a dispatch attempt that exceeded the task's
// latency budget.
type TimeoutError struct {
	Endpoint string
	Err      error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("dispatch to %s timed out: %v", e.Endpoint, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// TransportError reports a dispatch attempt that failed for any reason
// other than the latency budget: connection refused, non-200 status,
// malformed response.
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("dispatch to %s failed: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ExecuteRequest is the payload POSTed to an agent's /execute endpoint.
type ExecuteRequest struct {
	TaskID   string `json:"task_id"`
	Query    string `json:"query"`
	Location string `json:"location,omitempty"`
}

// ExecuteResponse is the agent's reply. Result is opaque to the
// supervisor and relayed upward as-is.
type ExecuteResponse struct {
	TaskID   string          `json:"task_id"`
	Agent    string          `json:"agent"`
	Location string          `json:"location,omitempty"`
	Result   json.RawMessage `json:"result"`
}

// Client is an HTTP client for handing tasks to agents.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a dispatch client. Per-attempt deadlines come from
// the task's latency budget via context, not a client-wide timeout.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{},
	}
}

// Execute POSTs the task to the agent's /execute endpoint with the
// task's MaxLatency as a hard deadline. A timed-out attempt returns
// *TimeoutError; every other failure returns *TransportError.
func (c *Client) Execute(ctx context.Context, endpoint string, task domain.Task) (*ExecuteResponse, error) {
	body, err := json.Marshal(ExecuteRequest{
		TaskID:   task.ID,
		Query:    task.Query,
		Location: task.Location,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, task.MaxLatency)
	defer cancel()

	url := strings.TrimSuffix(endpoint, "/") + "/execute"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Task-ID", task.ID)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			return nil, &TimeoutError{Endpoint: endpoint, Err: err}
		}
		return nil, &TransportError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, &TransportError{
			Endpoint: endpoint,
			Err:      fmt.Errorf("agent returned status %d: %s", resp.StatusCode, string(respBody)),
		}
	}

	var execResp ExecuteResponse
	if err := json.NewDecoder(resp.Body).Decode(&execResp); err != nil {
		return nil, &TransportError{Endpoint: endpoint, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return &execResp, nil
}
