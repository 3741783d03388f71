package jobmanager

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/flowforge/orchestrator/internal/graph"
	"github.com/flowforge/orchestrator/internal/node"
)

const defaultAverageProcessingTime = 60 * time.Second

// processingTimeHistorySize bounds the ring of completed-job durations
// Submit's estimated wait time averages over.
const processingTimeHistorySize = 50

// JobRequest is the input to Submit (§6.1's /v1/jobs/generate body).
type JobRequest struct {
	ID         string
	Model      string
	Input      []JobInput
	Options    map[string]any
	WebhookURL string
}

// SubmitResult is the response shape /v1/jobs/generate returns.
type SubmitResult struct {
	ID                string
	PodID             string
	QueuePosition     int
	EstimatedWaitTime time.Duration
	PodURL            string
}

// workflowTask tracks one in-flight or finished workflow execution, whether
// launched by a Job (Launch, step 3 of §4.4) or submitted directly via
// /v1/workflow/execute.
type workflowTask struct {
	id         string
	jobID      string // empty for a standalone /v1/workflow/execute task
	cancel     context.CancelFunc
	status     string // running | completed | error | cancelled
	result     graph.Results
	err        error
	finishedAt time.Time
}

// Manager is the Job Manager (§4.4): it owns JobState exclusively and is
// the only writer, mirroring internal/tenant's single-writer-per-record
// discipline. The Node Registry and http.Client are shared, reused
// singletons injected at construction (§5).
type Manager struct {
	registry       *node.Registry
	models         *ModelStore
	httpClient     *http.Client
	logger         *zap.Logger
	internalWebhookBase string // this service's own base URL, returned to callers as pod_url

	mu              sync.RWMutex
	jobs            map[string]*JobState
	tasks           map[string]*workflowTask
	processingTimes []time.Duration
	completedCount  int64
	failedCount     int64
}

// New constructs a Manager. internalWebhookBase is this service's own
// externally-reachable base URL (§6.1, §6.6); Submit returns it as
// pod_url. The engine is not handed a /v1/workflow/webhook/{job_id}
// callback URL: job completion is handled in-process by finishTask once
// the workflow goroutine's graph.Execute returns.
func New(registry *node.Registry, models *ModelStore, httpClient *http.Client, internalWebhookBase string, logger *zap.Logger) *Manager {
	return &Manager{
		registry:             registry,
		models:               models,
		httpClient:           httpClient,
		internalWebhookBase:  internalWebhookBase,
		logger:               logger.With(zap.String("component", "jobmanager")),
		jobs:                 make(map[string]*JobState),
		tasks:                make(map[string]*workflowTask),
	}
}

// Submit implements §4.4 steps 1-3: accept, preprocess, and launch a job.
func (m *Manager) Submit(ctx context.Context, req JobRequest) (SubmitResult, error) {
	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}

	pre, err := m.preprocess(req.Model, req.Input, req.Options)
	if err != nil {
		return SubmitResult{}, err
	}

	job := &JobState{
		ID:         id,
		CreatedAt:  time.Now(),
		Status:     StatusPending,
		Model:      pre.modelName,
		Input:      req.Input,
		Options:    pre.options,
		WebhookURL: req.WebhookURL,
	}

	m.mu.Lock()
	m.jobs[id] = job
	queuePosition := m.queuePositionLocked()
	wait := m.estimatedWaitTimeLocked()
	m.mu.Unlock()

	taskID := m.launchJobWorkflow(job, pre.workflow)

	m.mu.Lock()
	job.WorkflowTaskID = taskID
	m.mu.Unlock()

	return SubmitResult{
		ID:                id,
		PodID:             id,
		QueuePosition:     queuePosition,
		EstimatedWaitTime: wait,
		PodURL:            m.internalWebhookBase,
	}, nil
}

// launchJobWorkflow transitions the job to processing and hands its filled
// workflow to the engine as a detached, cancellable goroutine (§4.4 step
// 3), returning the workflow_task_id used to track it.
func (m *Manager) launchJobWorkflow(job *JobState, def graph.Definition) string {
	taskID := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())

	task := &workflowTask{id: taskID, jobID: job.ID, cancel: cancel, status: "running"}

	m.mu.Lock()
	m.tasks[taskID] = task
	m.transitionLocked(job, StatusProcessing)
	m.mu.Unlock()
	m.postUserWebhook(ctx, job.Clone())

	go m.runWorkflow(ctx, taskID, def)

	return taskID
}

// runWorkflow executes a workflow graph to completion and routes the
// result into either a job's completion handling (jobID non-empty) or a
// standalone task's terminal state.
func (m *Manager) runWorkflow(ctx context.Context, taskID string, def graph.Definition) {
	start := time.Now()

	g, err := graph.Construct(m.registry, def)
	if err != nil {
		m.finishTask(taskID, nil, err, start)
		return
	}
	results, err := graph.Execute(ctx, g)
	m.finishTask(taskID, results, err, start)
}

func (m *Manager) finishTask(taskID string, results graph.Results, err error, start time.Time) {
	m.mu.Lock()
	task, ok := m.tasks[taskID]
	if !ok {
		m.mu.Unlock()
		return
	}
	task.result = results
	task.err = err
	task.finishedAt = time.Now()

	switch {
	case task.status == "cancelled":
		// already marked cancelled by CancelWorkflowTask/CancelJob
	case err != nil:
		task.status = "error"
	default:
		task.status = "completed"
	}
	jobID := task.jobID
	status := task.status
	m.mu.Unlock()

	if jobID == "" {
		return
	}

	job, ok := m.getJob(jobID)
	if !ok {
		return
	}

	m.recordProcessingTime(time.Since(start))

	switch status {
	case "completed":
		m.completeJob(job, results)
	case "cancelled":
		m.markJobStatus(job, StatusCancelled, "")
	default:
		msg := ""
		if err != nil {
			msg = err.Error()
		}
		m.markJobStatus(job, StatusFailed, msg)
	}
}

// completeJob implements §4.4 step 4's success path: map node outputs to
// the job's output fields via output_mapping, then publish the user
// webhook.
func (m *Manager) completeJob(job *JobState, results graph.Results) {
	m.mu.Lock()
	_, cfg, err := m.models.Resolve(job.Model)
	if err == nil {
		applyOutputMapping(job, cfg.OutputMapping, results)
	}
	m.transitionLocked(job, StatusCompleted)
	now := time.Now()
	job.CompletedAt = &now
	m.completedCount++
	snapshot := job.Clone()
	m.mu.Unlock()

	m.postUserWebhook(context.Background(), snapshot)
}

func (m *Manager) markJobStatus(job *JobState, status Status, errMsg string) {
	m.mu.Lock()
	if err := ValidateTransition(job.Status, status); err != nil {
		m.mu.Unlock()
		m.logger.Warn("dropped invalid job status transition", zap.Error(err), zap.String("job_id", job.ID))
		return
	}
	job.Status = status
	if errMsg != "" {
		job.Error = errMsg
	}
	if status.IsTerminal() {
		now := time.Now()
		job.CompletedAt = &now
		if status == StatusFailed {
			m.failedCount++
		}
	}
	snapshot := job.Clone()
	m.mu.Unlock()

	m.postUserWebhook(context.Background(), snapshot)
}

// transitionLocked mutates job.Status, validating the move. Caller holds m.mu.
func (m *Manager) transitionLocked(job *JobState, to Status) {
	if err := ValidateTransition(job.Status, to); err != nil {
		m.logger.Warn("invalid job status transition attempted", zap.Error(err), zap.String("job_id", job.ID))
		return
	}
	job.Status = to
}

func applyOutputMapping(job *JobState, mapping map[string]OutputMappingTarget, results graph.Results) {
	for outputKey, target := range mapping {
		nodeResult, ok := results[target.NodeID]
		if !ok {
			continue
		}
		value, ok := nodeResult[target.OutputKey]
		if !ok || value.IsNull() {
			continue
		}
		str, _ := value.Get().(string)
		switch outputKey {
		case "local":
			job.OutputURLs.Local = str
		case "aws":
			job.OutputURLs.AWS = str
		case "wasabi":
			job.OutputURLs.Wasabi = str
		}
	}
}

// Cancel implements §4.4 step 4's cancellation cascade and §5's Job
// cancel sequence: transition to cancelled, cancel the workflow task's
// context (which the engine propagates into any in-flight node), and post
// the user webhook with status cancelled.
func (m *Manager) Cancel(jobID string) error {
	job, ok := m.getJob(jobID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, jobID)
	}

	m.mu.Lock()
	if err := ValidateTransition(job.Status, StatusCancelled); err != nil {
		m.mu.Unlock()
		return err
	}
	job.Status = StatusCancelled
	now := time.Now()
	job.CompletedAt = &now
	taskID := job.WorkflowTaskID
	task, hasTask := m.tasks[taskID]
	if hasTask {
		task.status = "cancelled"
	}
	snapshot := job.Clone()
	m.mu.Unlock()

	if hasTask {
		task.cancel()
	}
	m.postUserWebhook(context.Background(), snapshot)
	return nil
}

// PurgeQueue cancels every job still pending, returning the count removed.
func (m *Manager) PurgeQueue() int {
	m.mu.RLock()
	var pending []string
	for id, job := range m.jobs {
		if job.Status == StatusPending {
			pending = append(pending, id)
		}
	}
	m.mu.RUnlock()

	removed := 0
	for _, id := range pending {
		if err := m.Cancel(id); err == nil {
			removed++
		}
	}
	return removed
}

// Get returns a snapshot of one job's state.
func (m *Manager) Get(jobID string) (JobState, bool) {
	job, ok := m.getJob(jobID)
	if !ok {
		return JobState{}, false
	}
	return job.Clone(), true
}

func (m *Manager) getJob(jobID string) (*JobState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[jobID]
	return job, ok
}

func (m *Manager) recordProcessingTime(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.processingTimes = append(m.processingTimes, d)
	if len(m.processingTimes) > processingTimeHistorySize {
		m.processingTimes = m.processingTimes[len(m.processingTimes)-processingTimeHistorySize:]
	}
}

func (m *Manager) queuePositionLocked() int {
	position := 0
	for _, job := range m.jobs {
		if job.Status == StatusPending || job.Status == StatusProcessing {
			position++
		}
	}
	return position
}

// estimatedWaitTimeLocked implements §4.4's heuristic: the count of
// pending+processing jobs times the average of the last N completed job
// durations (default 60s with no history). Caller holds m.mu.
func (m *Manager) estimatedWaitTimeLocked() time.Duration {
	inFlight := m.queuePositionLocked()
	avg := defaultAverageProcessingTime
	if len(m.processingTimes) > 0 {
		var total time.Duration
		for _, d := range m.processingTimes {
			total += d
		}
		avg = total / time.Duration(len(m.processingTimes))
	}
	return time.Duration(inFlight) * avg
}

// HealthSummary is the /health endpoint's body (§6.1).
type HealthSummary struct {
	Completed  int64
	Failed     int64
	InProgress int
	InQueue    int
}

// Health summarizes job counters for the /health endpoint (§4.4 step 5).
func (m *Manager) Health() HealthSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	summary := HealthSummary{Completed: m.completedCount, Failed: m.failedCount}
	for _, job := range m.jobs {
		switch job.Status {
		case StatusPending:
			summary.InQueue++
		case StatusProcessing:
			summary.InProgress++
		}
	}
	return summary
}

// ExecuteWorkflow implements the standalone /v1/workflow/execute path: a
// raw graph definition executed without any job-level wrapping.
func (m *Manager) ExecuteWorkflow(def graph.Definition) string {
	taskID := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())

	m.mu.Lock()
	m.tasks[taskID] = &workflowTask{id: taskID, cancel: cancel, status: "running"}
	m.mu.Unlock()

	go m.runWorkflow(ctx, taskID, def)
	return taskID
}

// CancelWorkflowTask cancels a standalone or job-owned workflow task by id.
func (m *Manager) CancelWorkflowTask(taskID string) error {
	m.mu.Lock()
	task, ok := m.tasks[taskID]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: task %s", ErrUnknownJob, taskID)
	}
	if task.status != "running" {
		m.mu.Unlock()
		return fmt.Errorf("%w: task %s is already %s", ErrInvalidTransition, taskID, task.status)
	}
	task.status = "cancelled"
	m.mu.Unlock()

	task.cancel()
	return nil
}

// WorkflowTaskStatus is the §6.1 /v1/workflow/status/{task_id} response
// shape.
type WorkflowTaskStatus struct {
	Status string
	Result graph.Results
	Error  string
}

// TaskStatus polls a workflow task's state, returning status "not_found"
// if taskID is unknown.
func (m *Manager) TaskStatus(taskID string) WorkflowTaskStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	task, ok := m.tasks[taskID]
	if !ok {
		return WorkflowTaskStatus{Status: "not_found"}
	}

	out := WorkflowTaskStatus{Status: task.status, Result: task.result}
	if task.err != nil {
		out.Error = task.err.Error()
	}
	return out
}

// InternalWebhookPath builds the /v1/workflow/webhook/{job_id} path of the
// internal workflow-callback route (§6.1). Nothing in this package posts to
// it; job completion is handled in-process by finishTask.
func InternalWebhookPath(jobID string) string {
	return fmt.Sprintf("/v1/workflow/webhook/%s", jobID)
}
