package jobmanager

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"

	"github.com/flowforge/orchestrator/internal/graph"
)

// loadWorkflowDefinition reads a graph definition from disk (§6.5's
// workflow_path, §6.2's wire shape).
func loadWorkflowDefinition(path string) (graph.Definition, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return graph.Definition{}, fmt.Errorf("read workflow template %s: %w", path, err)
	}
	var def graph.Definition
	if err := json.Unmarshal(raw, &def); err != nil {
		return graph.Definition{}, fmt.Errorf("parse workflow template %s: %w", path, err)
	}
	return def, nil
}

// groupInputsByType implements §4.4.2's grouping rule: a singleton input of
// a given type is keyed by its bare type name; duplicates are keyed
// type1, type2, ... in submission order.
func groupInputsByType(inputs []JobInput) map[string]string {
	byType := make(map[string][]string)
	order := make([]string, 0, len(inputs))
	for _, in := range inputs {
		if _, seen := byType[in.Type]; !seen {
			order = append(order, in.Type)
		}
		byType[in.Type] = append(byType[in.Type], in.URL)
	}

	grouped := make(map[string]string, len(inputs))
	for _, typ := range order {
		urls := byType[typ]
		if len(urls) == 1 {
			grouped[typ] = urls[0]
			continue
		}
		for i, url := range urls {
			grouped[fmt.Sprintf("%s%d", typ, i+1)] = url
		}
	}
	return grouped
}

// mergeDefaultParams overlays a model's default_params under any
// caller-supplied options (options win on key conflict).
func mergeDefaultParams(defaults, options map[string]any) map[string]any {
	merged := make(map[string]any, len(defaults)+len(options))
	for k, v := range defaults {
		merged[k] = v
	}
	for k, v := range options {
		merged[k] = v
	}
	return merged
}

// ensureSeed fills a missing "seed" option with a uniform random 32-bit
// unsigned integer.
func ensureSeed(options map[string]any) {
	if _, ok := options["seed"]; ok {
		return
	}
	options["seed"] = rand.Uint32()
}

// applyMapping writes values into the node.InputValues of the nodes named
// by a mapping, restricted to the keys present in values.
func applyMapping(def *graph.Definition, mapping map[string][]MappingTarget, values map[string]any) error {
	indexByID := make(map[string]int, len(def.Nodes))
	for i, n := range def.Nodes {
		indexByID[n.ID] = i
	}

	for key, targets := range mapping {
		value, ok := values[key]
		if !ok {
			continue
		}
		for _, target := range targets {
			idx, ok := indexByID[target.NodeID]
			if !ok {
				return fmt.Errorf("mapping targets unknown node %q", target.NodeID)
			}
			if def.Nodes[idx].InputValues == nil {
				def.Nodes[idx].InputValues = make(map[string]any)
			}
			def.Nodes[idx].InputValues[target.InputKey] = value
		}
	}
	return nil
}

// validateRequiredInputs checks that every name in required fulfills from
// the grouped input map.
func validateRequiredInputs(required []string, grouped map[string]string) error {
	for _, name := range required {
		if _, ok := grouped[name]; !ok {
			return fmt.Errorf("%w: %s", ErrMissingRequiredInput, name)
		}
	}
	return nil
}

// preprocessResult is the filled workflow ready for the engine, plus the
// resolved model name and merged options recorded back onto the JobState.
type preprocessResult struct {
	modelName string
	options   map[string]any
	workflow  graph.Definition
}

// preprocess implements §4.4 step 2: resolve the model, merge
// default_params into options, fill a missing seed, group inputs by type,
// and apply input_mapping/parameter_mapping to the template workflow.
func (m *Manager) preprocess(modelName string, inputs []JobInput, options map[string]any) (preprocessResult, error) {
	resolvedName, cfg, err := m.models.Resolve(modelName)
	if err != nil {
		return preprocessResult{}, err
	}

	merged := mergeDefaultParams(cfg.DefaultParams, options)
	ensureSeed(merged)

	grouped := groupInputsByType(inputs)
	if err := validateRequiredInputs(cfg.RequiredInputs, grouped); err != nil {
		return preprocessResult{}, err
	}

	def, err := loadWorkflowDefinition(cfg.WorkflowPath)
	if err != nil {
		return preprocessResult{}, err
	}

	inputValues := make(map[string]any, len(grouped))
	for k, v := range grouped {
		inputValues[k] = v
	}
	if err := applyMapping(&def, cfg.InputMapping, inputValues); err != nil {
		return preprocessResult{}, fmt.Errorf("apply input_mapping: %w", err)
	}
	if err := applyMapping(&def, cfg.ParameterMapping, merged); err != nil {
		return preprocessResult{}, fmt.Errorf("apply parameter_mapping: %w", err)
	}

	return preprocessResult{modelName: resolvedName, options: merged, workflow: def}, nil
}
