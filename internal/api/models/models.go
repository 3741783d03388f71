// Package models holds the wire-format request and response bodies for
// the HTTP API, kept separate from the domain types in internal/jobmanager
// and internal/graph so the wire format can evolve independently.
package models

import "github.com/flowforge/orchestrator/internal/jobmanager"

// ErrorResponse is the uniform JSON error body returned by every failing
// handler.
type ErrorResponse struct {
	Error     string   `json:"error"`
	Details   []string `json:"details,omitempty"`
	RequestID string   `json:"request_id,omitempty"`
}

// SubmitJobRequest is the body accepted by POST /v1/jobs/generate (§6.1).
type SubmitJobRequest struct {
	Model      string                   `json:"model"`
	Input      []jobmanager.JobInput    `json:"input"`
	Options    map[string]any           `json:"options,omitempty"`
	WebhookURL string                   `json:"webhook_url,omitempty"`
}

// SubmitJobResponse is the response body for POST /v1/jobs/generate.
type SubmitJobResponse struct {
	ID                string  `json:"id"`
	PodID             string  `json:"pod_id"`
	QueuePosition     int     `json:"queue_position"`
	EstimatedWaitTime float64 `json:"estimated_wait_time"`
	PodURL            string  `json:"pod_url"`
}

// CancelJobResponse is the response body for POST /cancel/{job_id}.
type CancelJobResponse struct {
	Status string `json:"status"`
	JobID  string `json:"job_id"`
}

// PurgeQueueResponse is the response body for POST /purge-queue.
type PurgeQueueResponse struct {
	Removed int    `json:"removed"`
	Status  string `json:"status"`
}

// WebhookAckResponse is the response body for POST /webhook.
type WebhookAckResponse struct {
	Status string `json:"status"`
}

// ExecuteWorkflowRequest is the body accepted by POST /v1/workflow/execute.
type ExecuteWorkflowRequest struct {
	Workflow   map[string]any `json:"workflow"`
	WebhookURL string         `json:"webhook_url,omitempty"`
}

// ExecuteWorkflowResponse is the response body for POST /v1/workflow/execute.
type ExecuteWorkflowResponse struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
}

// CancelWorkflowResponse is the response body for POST /v1/workflow/cancel/{task_id}.
type CancelWorkflowResponse struct {
	Status string `json:"status"`
	TaskID string `json:"task_id"`
}

// WorkflowStatusResponse is the response body for GET /v1/workflow/status/{task_id}.
type WorkflowStatusResponse struct {
	Status string         `json:"status"`
	Result map[string]any `json:"result,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// NodeDescriptorResponse describes one registered node type for
// GET /v1/workflow/nodes.
type NodeDescriptorResponse struct {
	TypeName     string      `json:"type_name"`
	Category     string      `json:"category"`
	InputPorts   []PortInfo  `json:"input_ports"`
	OutputPorts  []PortInfo  `json:"output_ports"`
	NullTolerant bool        `json:"null_tolerant"`
}

// PortInfo is the wire form of node.Port.
type PortInfo struct {
	Name     string `json:"name"`
	Type     string `json:"port_type"`
	Required bool   `json:"required"`
	Default  any    `json:"default_value,omitempty"`
	Tooltip  string `json:"tooltip,omitempty"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string     `json:"status"`
	Jobs   JobsHealth `json:"jobs"`
}

// JobsHealth is the nested job-counter block of HealthResponse.
type JobsHealth struct {
	Completed  int64 `json:"completed"`
	Failed     int64 `json:"failed"`
	InProgress int   `json:"inProgress"`
	InQueue    int   `json:"inQueue"`
}
