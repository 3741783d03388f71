// Package jobmanager implements the outer job lifecycle layer (§4.4): it
// accepts API requests, preprocesses them into a filled workflow graph,
// launches the Workflow Engine, tracks per-job state, and forwards webhook
// results to callers.
package jobmanager

import "errors"

var (
	// ErrInvalidTransition is returned when a status mutation is attempted
	// from a terminal state, or to a status the state machine does not
	// allow from the current one.
	ErrInvalidTransition = errors.New("invalid job state transition")

	// ErrUnknownJob is returned when an operation names a job id with no
	// tracked JobState.
	ErrUnknownJob = errors.New("unknown job id")

	// ErrUnknownModel is returned when the requested model name has no
	// configured ModelConfig and no default_model is configured either.
	ErrUnknownModel = errors.New("unknown model")

	// ErrMissingRequiredInput is returned during preprocessing when a
	// model's required_inputs names a type with no matching submitted
	// input.
	ErrMissingRequiredInput = errors.New("missing required input")
)
