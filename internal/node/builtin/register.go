package builtin

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/flowforge/orchestrator/internal/coordinator"
	"github.com/flowforge/orchestrator/internal/node"
	"github.com/flowforge/orchestrator/internal/ratelimit"
)

// RegisterAll registers every builtin node type this service ships: the
// literal/arithmetic nodes, the control-flow nodes, both ForEach variants,
// and the two illustrative remote-service shapes. It is the single call
// cmd/server makes at startup before accepting any workflow (§9).
// defaultForEachMaxWorkers seeds ForEach's concurrency ceiling when a
// workflow doesn't set its own max_workers, and limiter bounds every
// outbound remote-service call by its service_name (§5).
func RegisterAll(reg *node.Registry, coord *coordinator.Coordinator, httpClient *http.Client, webhookURL string, limiter *ratelimit.ServiceLimiter, defaultForEachMaxWorkers int, logger *zap.Logger) error {
	if err := RegisterBasicTypes(reg); err != nil {
		return err
	}
	if err := RegisterControl(reg); err != nil {
		return err
	}
	if err := RegisterForEach(reg, defaultForEachMaxWorkers); err != nil {
		return err
	}
	return RegisterRemote(reg, httpClient, coord, webhookURL, limiter, logger)
}
