package jobmanager

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/zap"
)

// modelConfigSchema is the bit-stable JSON shape the model config file must
// satisfy (§6.5), validated the way internal/compute/config_validation.go
// validates provider config against a provider-supplied schema.
const modelConfigSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["default_model", "models"],
  "properties": {
    "default_model": {"type": "string"},
    "models": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "required": ["workflow_path"],
        "properties": {
          "workflow_path": {"type": "string"},
          "parameter_mapping": {"type": "object"},
          "input_mapping": {"type": "object"},
          "output_mapping": {"type": "object"},
          "required_inputs": {"type": "array", "items": {"type": "string"}},
          "timeout_minutes": {"type": "number"},
          "default_params": {"type": "object"}
        }
      }
    }
  }
}`

// MappingTarget names one (node, input-port) pair a parameter or input
// value should be written to.
type MappingTarget struct {
	NodeID   string `json:"node_id"`
	InputKey string `json:"input_key"`
}

// OutputMappingTarget names the single (node, output-port) pair a job
// output key reads from.
type OutputMappingTarget struct {
	NodeID    string `json:"node_id"`
	OutputKey string `json:"output_key"`
}

// ModelConfig describes one named workflow template (§3). A parameter may
// fan out to multiple mapping targets.
type ModelConfig struct {
	WorkflowPath     string                     `json:"workflow_path"`
	ParameterMapping map[string][]MappingTarget `json:"parameter_mapping"`
	InputMapping     map[string][]MappingTarget `json:"input_mapping"`
	OutputMapping    map[string]OutputMappingTarget `json:"output_mapping"`
	RequiredInputs   []string                  `json:"required_inputs"`
	TimeoutMinutes   float64                   `json:"timeout_minutes"`
	DefaultParams    map[string]any            `json:"default_params"`
}

// modelConfigFile is the on-disk shape (§6.5).
type modelConfigFile struct {
	DefaultModel string                 `json:"default_model"`
	Models       map[string]ModelConfig `json:"models"`
}

// ModelStore holds the loaded model config file, immutable after startup.
type ModelStore struct {
	defaultModel string
	models       map[string]ModelConfig
	logger       *zap.Logger
}

// LoadModelStore reads, schema-validates, and parses the model config file
// at path (§6.5).
func LoadModelStore(path string, logger *zap.Logger) (*ModelStore, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model config %s: %w", path, err)
	}

	if err := validateModelConfigSchema(raw); err != nil {
		return nil, fmt.Errorf("model config %s failed schema validation: %w", path, err)
	}

	var file modelConfigFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse model config %s: %w", path, err)
	}
	if _, ok := file.Models[file.DefaultModel]; !ok {
		return nil, fmt.Errorf("model config %s: default_model %q has no entry", path, file.DefaultModel)
	}

	return &ModelStore{
		defaultModel: file.DefaultModel,
		models:       file.Models,
		logger:       logger.With(zap.String("component", "jobmanager")),
	}, nil
}

func validateModelConfigSchema(raw []byte) error {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("model-config-schema.json", bytes.NewReader([]byte(modelConfigSchema))); err != nil {
		return fmt.Errorf("load schema: %w", err)
	}
	compiled, err := compiler.Compile("model-config-schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	if err := compiled.Validate(payload); err != nil {
		return err
	}
	return nil
}

// Resolve returns the named model's config, falling back to default_model
// with a logged warning if name is empty or unknown (§6.5).
func (s *ModelStore) Resolve(name string) (string, ModelConfig, error) {
	if name != "" {
		if cfg, ok := s.models[name]; ok {
			return name, cfg, nil
		}
		s.logger.Warn("unknown model requested, falling back to default",
			zap.String("requested_model", name),
			zap.String("default_model", s.defaultModel),
		)
	}

	cfg, ok := s.models[s.defaultModel]
	if !ok {
		return "", ModelConfig{}, fmt.Errorf("%w: %s", ErrUnknownModel, name)
	}
	return s.defaultModel, cfg, nil
}
