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
	"github.com/flowforge/orchestrator/internal/coordinator"
	"github.com/flowforge/orchestrator/internal/jobmanager"
)

// handleSubmitJob accepts a generation request, preprocesses it into a
// filled workflow graph, and launches it (§4.4, §6.1).
// @Summary Submit a job
// @Description Submits a generation job for asynchronous processing
// @Tags jobs
// @Accept json
// @Produce json
// @Param body body models.SubmitJobRequest true "Job submission request"
// @Success 200 {object} models.SubmitJobResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /v1/jobs/generate [post]
func (s *Server) handleSubmitJob(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetReqID(r.Context())

	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "failed to read request body", nil, requestID)
		return
	}
	defer r.Body.Close()

	var req models.SubmitJobRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "invalid JSON format", []string{err.Error()}, requestID)
		return
	}

	result, err := s.jobs.Submit(r.Context(), jobmanager.JobRequest{
		Model:      req.Model,
		Input:      req.Input,
		Options:    req.Options,
		WebhookURL: req.WebhookURL,
	})
	if err != nil {
		s.logger.Warn("job submission rejected", zap.Error(err), zap.String("request_id", requestID))
		s.writeErrorResponse(w, http.StatusBadRequest, "failed to submit job", []string{err.Error()}, requestID)
		return
	}

	s.writeJSON(w, http.StatusOK, models.SubmitJobResponse{
		ID:                result.ID,
		PodID:             result.PodID,
		QueuePosition:     result.QueuePosition,
		EstimatedWaitTime: result.EstimatedWaitTime.Seconds(),
		PodURL:            result.PodURL,
	})
}

// handleCancelJob cancels a pending or processing job (§4.4 step 4).
// @Summary Cancel a job
// @Description Cancels a running or queued job
// @Tags jobs
// @Produce json
// @Param job_id path string true "Job ID"
// @Success 200 {object} models.CancelJobResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /cancel/{job_id} [post]
func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetReqID(r.Context())
	jobID := chi.URLParam(r, "job_id")

	if err := s.jobs.Cancel(jobID); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, jobmanager.ErrUnknownJob) {
			status = http.StatusNotFound
		}
		s.writeErrorResponse(w, status, "failed to cancel job", []string{err.Error()}, requestID)
		return
	}

	s.writeJSON(w, http.StatusOK, models.CancelJobResponse{
		Status: "cancelled",
		JobID:  jobID,
	})
}

// handlePurgeQueue cancels every job still pending.
// @Summary Purge the job queue
// @Description Cancels every job still pending processing
// @Tags jobs
// @Produce json
// @Success 200 {object} models.PurgeQueueResponse
// @Router /purge-queue [post]
func (s *Server) handlePurgeQueue(w http.ResponseWriter, r *http.Request) {
	removed := s.jobs.PurgeQueue()
	s.writeJSON(w, http.StatusOK, models.PurgeQueueResponse{
		Removed: removed,
		Status:  "purged",
	})
}

// handleInboundWebhook is the unified inbound callback endpoint remote
// compute services POST to (§4.2, §6.4). The coordinator dispatches by the
// payload's "id" field; an unknown id is logged and acknowledged anyway.
// @Summary Inbound remote service webhook
// @Description Delivers a remote compute service's callback to the waiting node execution
// @Tags webhooks
// @Accept json
// @Produce json
// @Success 200 {object} models.WebhookAckResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /webhook [post]
func (s *Server) handleInboundWebhook(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetReqID(r.Context())

	var payload coordinator.Payload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "invalid JSON format", []string{err.Error()}, requestID)
		return
	}
	defer r.Body.Close()

	if err := s.coordinator.Handle(payload); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "failed to deliver callback", []string{err.Error()}, requestID)
		return
	}

	s.writeJSON(w, http.StatusOK, models.WebhookAckResponse{Status: "success"})
}
