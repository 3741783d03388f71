package api

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/flowforge/orchestrator/internal/coordinator"
	"github.com/flowforge/orchestrator/internal/jobmanager"
	"github.com/flowforge/orchestrator/internal/node"
	"github.com/flowforge/orchestrator/internal/node/builtin"
)

// newTestServer builds a Server wired to a real registry, manager and
// coordinator rather than mocks, mirroring internal/jobmanager's
// newTestManager helper: the chain-graph nodes are simple enough that
// exercising the real engine costs nothing in a unit test.
func newTestServer(t *testing.T, webhookURL string) *Server {
	t.Helper()

	reg := node.NewRegistry(zap.NewNop())
	require.NoError(t, builtin.RegisterBasicTypes(reg))

	dir := t.TempDir()
	workflowPath := filepath.Join(dir, "chain.json")
	require.NoError(t, os.WriteFile(workflowPath, []byte(`{
		"nodes": [
			{"id":"a","type":"TextInputNode","input_values":{}},
			{"id":"b","type":"TextStripNode"}
		],
		"connections": [
			{"from_node":"a","from_port":"text","to_node":"b","to_port":"text"}
		]
	}`), 0o644))

	cfgPath := filepath.Join(dir, "models.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{
		"default_model": "echo",
		"models": {
			"echo": {
				"workflow_path": "`+workflowPath+`",
				"input_mapping": {"text": [{"node_id":"a","input_key":"text"}]},
				"output_mapping": {"local": {"node_id":"b","output_key":"text"}},
				"required_inputs": ["text"]
			}
		}
	}`), 0o644))

	store, err := jobmanager.LoadModelStore(cfgPath, zap.NewNop())
	require.NoError(t, err)

	httpClient := &http.Client{Timeout: 5 * time.Second}
	mgr := jobmanager.New(reg, store, httpClient, webhookURL, zap.NewNop())
	coord := coordinator.New(zap.NewNop())

	srv := &Server{
		router:      chi.NewRouter(),
		jobs:        mgr,
		coordinator: coord,
		registry:    reg,
		apiKey:      "test-api-key",
		logger:      zap.NewNop(),
	}
	srv.registerRoutes()
	return srv
}
