// Package coordinator implements the Callback Coordinator (§4.2): a
// process-wide registry that matches late-arriving HTTP webhook
// deliveries from remote compute services back to the in-flight node
// execution that is waiting on them.
package coordinator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Payload is an inbound webhook delivery body (§6.4): it always carries an
// "id" field the coordinator dispatches on, plus arbitrary fields the
// node's own handler interprets.
type Payload map[string]any

// ID extracts the dispatch key from a delivery payload.
func (p Payload) ID() (string, bool) {
	id, ok := p["id"].(string)
	return id, ok && id != ""
}

// HandlerFunc transforms a delivered payload into the value a waiting
// node execution receives. A handler error surfaces to the waiter wrapped
// in ErrCallbackFailed.
type HandlerFunc func(Payload) (any, error)

type pendingEntry struct {
	handler      HandlerFunc
	resultCh     chan outcome
	registeredAt time.Time
	delivered    bool
}

type outcome struct {
	value any
	err   error
}

// Coordinator is the concurrency-safe job_id -> PendingEntry map (§4.2,
// §5). A single mutex guards it: registrations and lookups are O(1) and
// held only briefly, mirroring the teacher's mutex-guarded map idiom.
type Coordinator struct {
	mu      sync.Mutex
	entries map[string]*pendingEntry
	logger  *zap.Logger
}

// New constructs an empty Coordinator.
func New(logger *zap.Logger) *Coordinator {
	return &Coordinator{
		entries: make(map[string]*pendingEntry),
		logger:  logger.With(zap.String("component", "callback")),
	}
}

// Register records a handler for jobID. It fails with
// ErrDuplicateRegistration if an entry already exists for this ID.
func (c *Coordinator) Register(jobID string, handler HandlerFunc) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[jobID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateRegistration, jobID)
	}
	c.entries[jobID] = &pendingEntry{
		handler:      handler,
		resultCh:     make(chan outcome, 1),
		registeredAt: time.Now(),
	}
	return nil
}

// Wait blocks until Handle is called for jobID, timeout elapses, or ctx is
// cancelled -- whichever happens first. On any terminal outcome the entry
// is removed, guaranteeing at-most-once delivery per registration.
func (c *Coordinator) Wait(ctx context.Context, jobID string, timeout time.Duration) (any, error) {
	c.mu.Lock()
	entry, ok := c.entries[jobID]
	c.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("no pending callback registration for job %q", jobID)
	}

	var timerCh <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timerCh = timer.C
	}

	select {
	case out := <-entry.resultCh:
		c.remove(jobID)
		if out.err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCallbackFailed, out.err)
		}
		return out.value, nil
	case <-timerCh:
		c.remove(jobID)
		return nil, fmt.Errorf("%w: job %s", ErrCallbackTimeout, jobID)
	case <-ctx.Done():
		c.remove(jobID)
		return nil, fmt.Errorf("%w: job %s: %v", ErrWaitCancelled, jobID, ctx.Err())
	}
}

// Handle dispatches an inbound delivery to its registered handler and
// wakes the waiter. A delivery that arrives before Wait is called is held
// until Wait collects it. An unknown ID is logged at warning level and
// dropped -- including a second delivery for the same registration, and a
// delivery for an ID whose Wait has already returned and removed the entry.
func (c *Coordinator) Handle(payload Payload) error {
	id, ok := payload.ID()
	if !ok {
		return fmt.Errorf("callback payload missing id")
	}

	c.mu.Lock()
	entry, found := c.entries[id]
	if found && entry.delivered {
		found = false
	}
	if found {
		entry.delivered = true
	}
	c.mu.Unlock()

	if !found {
		c.logger.Warn("callback delivered for unknown or already-resolved job id", zap.String("job_id", id))
		return nil
	}

	value, err := entry.handler(payload)
	entry.resultCh <- outcome{value: value, err: err}
	return nil
}

// Unregister cancels the waiter for jobID if one is present, used by
// cancellation cascades (§5) that need to abandon a wait without routing
// through ctx.
func (c *Coordinator) Unregister(jobID string) {
	c.mu.Lock()
	entry, ok := c.entries[jobID]
	if ok {
		delete(c.entries, jobID)
	}
	c.mu.Unlock()

	if ok && !entry.delivered {
		entry.resultCh <- outcome{err: ErrWaitCancelled}
	}
}

func (c *Coordinator) remove(jobID string) {
	c.mu.Lock()
	delete(c.entries, jobID)
	c.mu.Unlock()
}

// Pending reports the number of in-flight registrations, for observability.
func (c *Coordinator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
