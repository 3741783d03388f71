package jobmanager

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const validModelConfig = `{
  "default_model": "echo",
  "models": {
    "echo": {
      "workflow_path": "echo.json",
      "required_inputs": ["text"],
      "default_params": {"steps": 20}
    }
  }
}`

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "models.json")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadModelStoreValid(t *testing.T) {
	path := writeTempConfig(t, validModelConfig)
	store, err := LoadModelStore(path, zap.NewNop())
	require.NoError(t, err)

	name, cfg, err := store.Resolve("echo")
	require.NoError(t, err)
	require.Equal(t, "echo", name)
	require.Equal(t, "echo.json", cfg.WorkflowPath)
}

func TestLoadModelStoreRejectsMissingWorkflowPath(t *testing.T) {
	path := writeTempConfig(t, `{"default_model":"echo","models":{"echo":{}}}`)
	_, err := LoadModelStore(path, zap.NewNop())
	require.Error(t, err)
}

func TestLoadModelStoreRejectsUnknownDefaultModel(t *testing.T) {
	path := writeTempConfig(t, `{"default_model":"missing","models":{"echo":{"workflow_path":"echo.json"}}}`)
	_, err := LoadModelStore(path, zap.NewNop())
	require.Error(t, err)
}

func TestResolveFallsBackToDefaultOnUnknownName(t *testing.T) {
	path := writeTempConfig(t, validModelConfig)
	store, err := LoadModelStore(path, zap.NewNop())
	require.NoError(t, err)

	name, _, err := store.Resolve("not-a-real-model")
	require.NoError(t, err)
	require.Equal(t, "echo", name)
}
