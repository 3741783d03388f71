package builtin

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/flowforge/orchestrator/internal/graph"
	"github.com/flowforge/orchestrator/internal/node"
)

const categoryForEach = "foreach"

// RegisterForEach registers SimpleForEachNode and ForEachNode. Both
// recursively use reg to construct child node instances, so unlike the
// other builtin registrations this one is a closure over the registry
// rather than a free function (§4.3.6). defaultMaxWorkers bounds parallel
// iteration when a workflow leaves max_workers at its zero value (§5);
// zero means "no ceiling configured," matched by both node types' own
// default of unbounded.
func RegisterForEach(reg *node.Registry, defaultMaxWorkers int) error {
	if err := reg.Register(describeSimpleForEach, newSimpleForEach(reg, defaultMaxWorkers)); err != nil {
		return err
	}
	return reg.Register(describeForEach, newForEach(reg, defaultMaxWorkers))
}

// effectiveMaxWorkers falls back to defaultMaxWorkers when the node's own
// max_workers input was left unset (<=0).
func effectiveMaxWorkers(requested, defaultMaxWorkers int) int {
	if requested > 0 {
		return requested
	}
	return defaultMaxWorkers
}

// iterationResult captures the outcome of one item's iteration, keyed by
// its original index so parallel execution can be reassembled in order.
type iterationResult struct {
	index int
	value any
	err   error
}

func buildForEachOutput(results []iterationResult) node.Map {
	ordered := make([]any, len(results))
	errs := make([]any, 0)
	successCount := 0
	for _, r := range results {
		if r.err != nil {
			errs = append(errs, r.err.Error())
			continue
		}
		ordered[r.index] = r.value
		successCount++
	}
	return node.Map{
		"results":       node.Some(ordered),
		"success_count": node.Some(int64(successCount)),
		"error_count":   node.Some(int64(len(errs))),
		"errors":        node.Some(errs),
	}
}

// runIterations drives n items through run, honoring parallel/max_workers
// and continue_on_error, and returns the collected, index-ordered results.
func runIterations(ctx context.Context, n int, parallel bool, maxWorkers int, continueOnError bool, run func(ctx context.Context, index int) (any, error)) ([]iterationResult, error) {
	results := make([]iterationResult, n)

	if !parallel {
		for i := 0; i < n; i++ {
			val, err := run(ctx, i)
			results[i] = iterationResult{index: i, value: val, err: err}
			if err != nil && !continueOnError {
				return results[:i+1], nil
			}
		}
		return results, nil
	}

	// Every iteration is already launched concurrently, so there is no
	// well-defined "stop on first failure" point the way sequential mode
	// has one; continue_on_error only changes sequential behavior. Every
	// goroutine runs to completion and writes its own results[i], so no
	// slot is left at its zero value.
	grp, gctx := errgroup.WithContext(ctx)
	var sem *semaphore.Weighted
	if maxWorkers > 0 {
		sem = semaphore.NewWeighted(int64(maxWorkers))
	}

	for i := 0; i < n; i++ {
		i := i
		grp.Go(func() error {
			if sem != nil {
				if err := sem.Acquire(gctx, 1); err != nil {
					results[i] = iterationResult{index: i, err: err}
					return nil
				}
				defer sem.Release(1)
			}
			val, err := run(gctx, i)
			results[i] = iterationResult{index: i, value: val, err: err}
			return nil
		})
	}

	_ = grp.Wait()
	return results, nil
}

// --- SimpleForEachNode ---

func describeSimpleForEach() node.Descriptor {
	return node.Descriptor{
		TypeName: "SimpleForEachNode",
		Category: categoryForEach,
		InputPorts: []node.Port{
			{Name: "items", Type: "array", Required: true, HasDefault: true, Default: []any{}},
			{Name: "node_type", Type: "string", Required: true},
			{Name: "item_port_name", Type: "string", Required: true},
			{Name: "result_port_name", Type: "string", Required: true},
			{Name: "node_config", Type: "object", HasDefault: true, Default: map[string]any{}},
			{Name: "parallel", Type: "bool", HasDefault: true, Default: false},
			{Name: "continue_on_error", Type: "bool", HasDefault: true, Default: false},
			{Name: "max_workers", Type: "int", HasDefault: true, Default: int64(0)},
		},
		OutputPorts: []node.Port{
			{Name: "results", Type: "array"},
			{Name: "success_count", Type: "int"},
			{Name: "error_count", Type: "int"},
			{Name: "errors", Type: "array"},
		},
	}
}

func newSimpleForEach(reg *node.Registry, defaultMaxWorkers int) node.ConstructorFunc {
	return func(id string) (*node.Node, node.Processor) {
		n := node.NewNode("SimpleForEachNode", id)
		for _, p := range describeSimpleForEach().InputPorts {
			n.AddInputPort(p)
		}
		for _, p := range describeSimpleForEach().OutputPorts {
			n.AddOutputPort(p)
		}
		return n, node.ProcessorFunc(func(ctx context.Context, n *node.Node) (node.Map, error) {
			return processSimpleForEach(ctx, reg, defaultMaxWorkers, n)
		})
	}
}

func processSimpleForEach(ctx context.Context, reg *node.Registry, defaultMaxWorkers int, n *node.Node) (node.Map, error) {
	items, _ := n.InputValues["items"].([]any)
	if len(items) == 0 {
		return buildForEachOutput(nil), nil
	}

	nodeType, _ := n.InputValues["node_type"].(string)
	itemPort, _ := n.InputValues["item_port_name"].(string)
	resultPort, _ := n.InputValues["result_port_name"].(string)
	nodeConfig, _ := n.InputValues["node_config"].(map[string]any)
	parallel, _ := n.InputValues["parallel"].(bool)
	continueOnError, _ := n.InputValues["continue_on_error"].(bool)
	maxWorkers := effectiveMaxWorkers(int(toFloat(n.InputValues["max_workers"])), defaultMaxWorkers)

	results, err := runIterations(ctx, len(items), parallel, maxWorkers, continueOnError, func(ctx context.Context, i int) (any, error) {
		child, proc, err := reg.Create(nodeType, "")
		if err != nil {
			return nil, err
		}
		child.SetInput(itemPort, items[i])
		for key, val := range nodeConfig {
			if child.HasInputPort(key) {
				child.SetInput(key, val)
			}
		}

		out, err := graph.ExecuteNode(ctx, child, proc)
		if err != nil {
			return nil, err
		}
		return out[resultPort].Get(), nil
	})
	if err != nil {
		return nil, err
	}
	return buildForEachOutput(results), nil
}

// --- ForEachNode (sub-workflow) ---

func describeForEach() node.Descriptor {
	return node.Descriptor{
		TypeName: "ForEachNode",
		Category: categoryForEach,
		InputPorts: []node.Port{
			{Name: "items", Type: "array", Required: true, HasDefault: true, Default: []any{}},
			{Name: "sub_workflow", Type: "object", Required: true},
			{Name: "result_node_id", Type: "string", Required: true},
			{Name: "result_port_name", Type: "string", Required: true},
			{Name: "parallel", Type: "bool", HasDefault: true, Default: false},
			{Name: "continue_on_error", Type: "bool", HasDefault: true, Default: false},
			{Name: "max_iterations", Type: "int", HasDefault: true, Default: int64(0)},
			{Name: "max_workers", Type: "int", HasDefault: true, Default: int64(0)},
		},
		OutputPorts: []node.Port{
			{Name: "results", Type: "array"},
			{Name: "success_count", Type: "int"},
			{Name: "error_count", Type: "int"},
			{Name: "errors", Type: "array"},
		},
	}
}

func newForEach(reg *node.Registry, defaultMaxWorkers int) node.ConstructorFunc {
	return func(id string) (*node.Node, node.Processor) {
		n := node.NewNode("ForEachNode", id)
		for _, p := range describeForEach().InputPorts {
			n.AddInputPort(p)
		}
		for _, p := range describeForEach().OutputPorts {
			n.AddOutputPort(p)
		}
		return n, node.ProcessorFunc(func(ctx context.Context, n *node.Node) (node.Map, error) {
			return processForEach(ctx, reg, defaultMaxWorkers, n)
		})
	}
}

func processForEach(ctx context.Context, reg *node.Registry, defaultMaxWorkers int, n *node.Node) (node.Map, error) {
	items, _ := n.InputValues["items"].([]any)
	if len(items) == 0 {
		return buildForEachOutput(nil), nil
	}

	def, err := decodeSubWorkflow(n.InputValues["sub_workflow"])
	if err != nil {
		return nil, err
	}

	resultNodeID, _ := n.InputValues["result_node_id"].(string)
	resultPort, _ := n.InputValues["result_port_name"].(string)
	parallel, _ := n.InputValues["parallel"].(bool)
	continueOnError, _ := n.InputValues["continue_on_error"].(bool)
	maxIterations := int(toFloat(n.InputValues["max_iterations"]))
	maxWorkers := effectiveMaxWorkers(int(toFloat(n.InputValues["max_workers"])), defaultMaxWorkers)

	items = boundItems(items, maxIterations)

	results, err := runIterations(ctx, len(items), parallel, maxWorkers, continueOnError, func(ctx context.Context, i int) (any, error) {
		sub, err := graph.Construct(reg, def)
		if err != nil {
			return nil, err
		}
		injectForEachItem(sub, items[i], i)

		out, err := graph.Execute(ctx, sub)
		if err != nil {
			return nil, err
		}
		nodeResult, ok := out[resultNodeID]
		if !ok {
			return nil, fmt.Errorf("sub-workflow has no result node %q", resultNodeID)
		}
		return nodeResult[resultPort].Get(), nil
	})
	if err != nil {
		return nil, err
	}
	return buildForEachOutput(results), nil
}

func boundItems(items []any, max int) []any {
	if max > 0 && max < len(items) {
		return items[:max]
	}
	return items
}

func decodeSubWorkflow(v any) (graph.Definition, error) {
	if def, ok := v.(graph.Definition); ok {
		return def, nil
	}
	if _, ok := v.(map[string]any); !ok {
		return graph.Definition{}, fmt.Errorf("sub_workflow must be a graph definition object")
	}
	return graph.DecodeDefinition(v)
}

// injectForEachItem sets foreach_item/foreach_index on every node in sub
// that declares those input ports (§4.3.6).
func injectForEachItem(sub *graph.WorkflowGraph, item any, index int) {
	for _, n := range sub.Nodes {
		if n.HasInputPort("foreach_item") {
			n.SetInput("foreach_item", item)
		}
		if n.HasInputPort("foreach_index") {
			n.SetInput("foreach_index", int64(index))
		}
	}
}
