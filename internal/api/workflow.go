package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/flowforge/orchestrator/internal/api/models"
	"github.com/flowforge/orchestrator/internal/graph"
	"github.com/flowforge/orchestrator/internal/jobmanager"
	"github.com/flowforge/orchestrator/internal/node"
)

// handleExecuteWorkflow runs a raw graph definition directly, without any
// job-level wrapping (§4.4's standalone execution path, §6.1).
// @Summary Execute a workflow
// @Description Executes a raw workflow graph definition directly
// @Tags workflow
// @Accept json
// @Produce json
// @Param body body models.ExecuteWorkflowRequest true "Workflow definition"
// @Success 200 {object} models.ExecuteWorkflowResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /v1/workflow/execute [post]
func (s *Server) handleExecuteWorkflow(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetReqID(r.Context())

	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "failed to read request body", nil, requestID)
		return
	}
	defer r.Body.Close()

	var req models.ExecuteWorkflowRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "invalid JSON format", []string{err.Error()}, requestID)
		return
	}

	def, err := graph.DecodeDefinition(req.Workflow)
	if err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "invalid workflow definition", []string{err.Error()}, requestID)
		return
	}

	taskID := s.jobs.ExecuteWorkflow(def)
	s.writeJSON(w, http.StatusOK, models.ExecuteWorkflowResponse{
		TaskID: taskID,
		Status: "accepted",
	})
}

// handleCancelWorkflowTask cancels a standalone workflow execution.
// @Summary Cancel a workflow execution
// @Description Cancels a running standalone workflow task
// @Tags workflow
// @Produce json
// @Param task_id path string true "Workflow task ID"
// @Success 200 {object} models.CancelWorkflowResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /v1/workflow/cancel/{task_id} [post]
func (s *Server) handleCancelWorkflowTask(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetReqID(r.Context())
	taskID := chi.URLParam(r, "task_id")

	if err := s.jobs.CancelWorkflowTask(taskID); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, jobmanager.ErrUnknownJob) {
			status = http.StatusNotFound
		}
		s.writeErrorResponse(w, status, "failed to cancel workflow task", []string{err.Error()}, requestID)
		return
	}

	s.writeJSON(w, http.StatusOK, models.CancelWorkflowResponse{
		Status: "cancelled",
		TaskID: taskID,
	})
}

// handleWorkflowStatus polls a standalone workflow task's state.
// @Summary Poll workflow status
// @Description Returns a standalone workflow task's running/completed/error/cancelled state
// @Tags workflow
// @Produce json
// @Param task_id path string true "Workflow task ID"
// @Success 200 {object} models.WorkflowStatusResponse
// @Router /v1/workflow/status/{task_id} [get]
func (s *Server) handleWorkflowStatus(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "task_id")
	status := s.jobs.TaskStatus(taskID)

	s.writeJSON(w, http.StatusOK, models.WorkflowStatusResponse{
		Status: status.Status,
		Result: flattenResults(status.Result),
		Error:  status.Error,
	})
}

// flattenResults converts a graph.Results value into a plain
// map[string]any suitable for JSON encoding, substituting nil for the
// null tag (§3.1) rather than leaking node.Value's internal shape.
func flattenResults(results graph.Results) map[string]any {
	if results == nil {
		return nil
	}
	out := make(map[string]any, len(results))
	for nodeID, outputs := range results {
		flat := make(map[string]any, len(outputs))
		for port, v := range outputs {
			if v.IsNull() {
				flat[port] = nil
				continue
			}
			flat[port] = v.Get()
		}
		out[nodeID] = flat
	}
	return out
}

// handleListNodes enumerates every registered node type with its port
// schema (§4.1, §6.1).
// @Summary List node types
// @Description Enumerates every registered node type with its port schema
// @Tags workflow
// @Produce json
// @Success 200 {array} models.NodeDescriptorResponse
// @Router /v1/workflow/nodes [get]
func (s *Server) handleListNodes(w http.ResponseWriter, r *http.Request) {
	descriptors := s.registry.Enumerate()

	out := make([]models.NodeDescriptorResponse, 0, len(descriptors))
	for _, d := range descriptors {
		out = append(out, models.NodeDescriptorResponse{
			TypeName:     d.TypeName,
			Category:     d.Category,
			InputPorts:   portInfos(d.InputPorts),
			OutputPorts:  portInfos(d.OutputPorts),
			NullTolerant: d.NullTolerant,
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

// portInfos converts node.Port descriptors into their wire form.
func portInfos(ports []node.Port) []models.PortInfo {
	out := make([]models.PortInfo, 0, len(ports))
	for _, p := range ports {
		out = append(out, models.PortInfo{
			Name:     p.Name,
			Type:     p.Type,
			Required: p.Required,
			Default:  p.Default,
			Tooltip:  p.Tooltip,
		})
	}
	return out
}

// handleInternalWorkflowWebhook is the engine's internal completion
// callback (§4.4 step 3, §6.1). The Job Manager in this deployment runs
// the Workflow Engine in-process and completes jobs directly once
// graph.Execute returns, rather than round-tripping through this HTTP
// endpoint; it is still exposed so an out-of-process engine deployment has
// somewhere to deliver its completion notice.
// @Summary Internal workflow completion callback
// @Description Receives a workflow completion notice for a job
// @Tags workflow
// @Accept json
// @Produce json
// @Param job_id path string true "Job ID"
// @Success 200
// @Failure 404 {object} models.ErrorResponse
// @Router /v1/workflow/webhook/{job_id} [post]
func (s *Server) handleInternalWorkflowWebhook(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetReqID(r.Context())
	jobID := chi.URLParam(r, "job_id")

	if _, ok := s.jobs.Get(jobID); !ok {
		s.writeErrorResponse(w, http.StatusNotFound, "unknown job id", nil, requestID)
		return
	}

	s.logger.Info("internal workflow completion callback received",
		zap.String("job_id", jobID),
		zap.String("request_id", requestID),
	)
	s.writeJSON(w, http.StatusOK, models.WebhookAckResponse{Status: "acknowledged"})
}
