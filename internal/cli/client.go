// Package cli implements the HTTP client used by cmd/cli to talk to a
// running orchestrator instance, mirroring the teacher's thin-client
// pattern in internal/cli/client.go.
package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/flowforge/orchestrator/internal/api/models"
)

// Client is a thin wrapper around http.Client for the orchestrator's
// authenticated HTTP surface (§6.1).
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient builds a Client against baseURL, trimmed of any trailing
// slash. apiKey is sent as X-API-Key on every request.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ExecuteWorkflow submits a raw graph definition for standalone execution.
func (c *Client) ExecuteWorkflow(ctx context.Context, req models.ExecuteWorkflowRequest) (*models.ExecuteWorkflowResponse, error) {
	var out models.ExecuteWorkflowResponse
	if err := c.do(ctx, http.MethodPost, "/v1/workflow/execute", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// WorkflowStatus polls a standalone workflow task's state.
func (c *Client) WorkflowStatus(ctx context.Context, taskID string) (*models.WorkflowStatusResponse, error) {
	var out models.WorkflowStatusResponse
	path := fmt.Sprintf("/v1/workflow/status/%s", taskID)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CancelWorkflow cancels a standalone workflow task.
func (c *Client) CancelWorkflow(ctx context.Context, taskID string) (*models.CancelWorkflowResponse, error) {
	var out models.CancelWorkflowResponse
	path := fmt.Sprintf("/v1/workflow/cancel/%s", taskID)
	if err := c.do(ctx, http.MethodPost, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListNodes enumerates every registered node type with its port schema.
func (c *Client) ListNodes(ctx context.Context) ([]models.NodeDescriptorResponse, error) {
	var out []models.NodeDescriptorResponse
	if err := c.do(ctx, http.MethodGet, "/v1/workflow/nodes", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CancelJob cancels a queued or processing job.
func (c *Client) CancelJob(ctx context.Context, jobID string) (*models.CancelJobResponse, error) {
	var out models.CancelJobResponse
	path := fmt.Sprintf("/cancel/%s", jobID)
	if err := c.do(ctx, http.MethodPost, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health fetches the service's health summary.
func (c *Client) Health(ctx context.Context) (*models.HealthResponse, error) {
	var out models.HealthResponse
	if err := c.do(ctx, http.MethodGet, "/health", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// do issues an HTTP request against path, marshaling body (if non-nil) as
// the JSON request payload and decoding the response into out (if
// non-nil).
func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := handleErrorResponse(resp); err != nil {
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func handleErrorResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(resp.Body)
	if len(body) == 0 {
		return fmt.Errorf("api error: status %d", resp.StatusCode)
	}

	var apiErr models.ErrorResponse
	if err := json.Unmarshal(body, &apiErr); err != nil {
		return fmt.Errorf("api error: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if apiErr.Error != "" {
		return fmt.Errorf("api error: %s", apiErr.Error)
	}

	return fmt.Errorf("api error: status %d", resp.StatusCode)
}
