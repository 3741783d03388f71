package jobmanager

import (
	"fmt"
	"time"
)

// Status is a job's position in its lifecycle (§3: JobState).
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// validTransitions mirrors internal/tenant/state_machine.go's
// ValidTransitions map: the explicit set of allowed destinations per
// source status, consulted by ValidateTransition before every mutation.
var validTransitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusFailed, StatusCancelled},
	StatusProcessing: {StatusCompleted, StatusFailed, StatusCancelled},
	StatusCompleted:  {},
	StatusFailed:     {},
	StatusCancelled:  {},
}

// IsTerminal reports whether no further transitions are allowed from s.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// ValidateTransition checks whether moving from one status to another is
// permitted. Terminal states are absorbing.
func ValidateTransition(from, to Status) error {
	allowed, ok := validTransitions[from]
	if !ok {
		return fmt.Errorf("%w: unknown source status %q", ErrInvalidTransition, from)
	}
	for _, candidate := range allowed {
		if candidate == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

// OutputURLs holds the locations of whatever artifacts a workflow produced
// (§3). Storage adapters that would populate AWS/Wasabi are out of scope
// (§1); the fields still exist so the webhook payload shape is stable.
type OutputURLs struct {
	Local  string `json:"local,omitempty"`
	AWS    string `json:"aws,omitempty"`
	Wasabi string `json:"wasabi,omitempty"`
}

// JobState is the single-writer record of one submitted job (§3). The Job
// Manager is the only writer; readers (health endpoint, cancel handler)
// observe it through the Manager's RWMutex-guarded table.
type JobState struct {
	ID              string         `json:"id"`
	CreatedAt       time.Time      `json:"created_at"`
	CompletedAt     *time.Time     `json:"completed_at,omitempty"`
	Status          Status         `json:"status"`
	Model           string         `json:"model"`
	Input           []JobInput     `json:"input"`
	Options         map[string]any `json:"options"`
	WebhookURL      string         `json:"webhook_url,omitempty"`
	WorkflowTaskID  string         `json:"workflow_task_id,omitempty"`
	OutputURLs      OutputURLs     `json:"output_urls"`
	Error           string         `json:"error,omitempty"`
}

// JobInput is one entry of a job submission's input list (§6.1).
type JobInput struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// Clone returns a shallow copy safe to hand to a reader outside the lock.
func (j JobState) Clone() JobState {
	input := make([]JobInput, len(j.Input))
	copy(input, j.Input)
	j.Input = input

	options := make(map[string]any, len(j.Options))
	for k, v := range j.Options {
		options[k] = v
	}
	j.Options = options

	return j
}
