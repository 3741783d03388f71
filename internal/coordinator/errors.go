package coordinator

import "errors"

var (
	// ErrDuplicateRegistration is returned by Register when an entry
	// already exists for the given job ID.
	ErrDuplicateRegistration = errors.New("callback already registered for this job id")

	// ErrCallbackTimeout is returned by Wait when the timeout elapses
	// before a matching delivery arrives.
	ErrCallbackTimeout = errors.New("callback wait timed out")

	// ErrCallbackFailed wraps a handler error surfaced to the waiter.
	ErrCallbackFailed = errors.New("callback handler failed")

	// ErrWaitCancelled is returned by Wait when its context is cancelled
	// before a matching delivery arrives.
	ErrWaitCancelled = errors.New("callback wait cancelled")
)
