package graph

import (
	"context"
	"fmt"

	"github.com/flowforge/orchestrator/internal/node"
)

// Results is the per-node output accumulated across one execution.
type Results map[string]node.Map

// Execute runs every node of g in the order produced by Order, honoring
// skip propagation (§4.3.4) and required-input defaulting (§4.3.3). It
// aborts on the first node failure -- subsequent nodes are not executed,
// per §4.3.3 step 5.
func Execute(ctx context.Context, g *WorkflowGraph) (Results, error) {
	order, err := g.Order()
	if err != nil {
		return nil, err
	}

	results := make(Results, len(g.Nodes))

	for _, id := range order {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		n := g.Nodes[id]
		outputNames := outputPortNames(n)

		if err := wireInputs(g, id, results); err != nil {
			return results, err
		}

		if !g.NullTolerant[id] && anyIncomingNull(g, id, results) {
			results[id] = node.AllNull(outputNames)
			continue
		}

		out, err := ExecuteNode(ctx, n, g.Processors[id])
		if err != nil {
			return results, fmt.Errorf("node %q: %w", id, err)
		}

		results[id] = out
	}

	return results, nil
}

// ExecuteNode runs a single node's lifecycle in isolation: required-input
// defaulting (§4.3.3 step 3), invoking the processor (step 4), and filling
// any output port the processor left unset with the null tag (step 4).
// ForEach iterations (§4.3.6) call this directly since each iteration's
// node has no upstream graph connections to wire.
func ExecuteNode(ctx context.Context, n *node.Node, proc node.Processor) (node.Map, error) {
	if err := applyDefaults(n); err != nil {
		return nil, err
	}

	out, err := proc.Process(ctx, n)
	if err != nil {
		return nil, err
	}

	return fillMissingOutputs(out, outputPortNames(n)), nil
}

// wireInputs copies recorded upstream results into this node's input
// values for every incoming connection.
func wireInputs(g *WorkflowGraph, nodeID string, results Results) error {
	n := g.Nodes[nodeID]
	for _, c := range g.Incoming(nodeID) {
		srcResult, ok := results[c.FromNode]
		if !ok {
			return fmt.Errorf("node %q: %w: %s has no recorded result", nodeID, ErrMissingUpstream, c.FromNode)
		}
		val, ok := srcResult[c.FromPort]
		if !ok {
			return fmt.Errorf("node %q: %w: %s has no output %q", nodeID, ErrMissingUpstream, c.FromNode, c.FromPort)
		}
		if val.IsNull() {
			n.InputValues[c.ToPort] = nil
		} else {
			n.InputValues[c.ToPort] = val.Get()
		}
	}
	return nil
}

// anyIncomingNull reports whether any connection feeding nodeID carries a
// null-tagged upstream value -- the skip predicate of §4.3.4.
func anyIncomingNull(g *WorkflowGraph, nodeID string, results Results) bool {
	for _, c := range g.Incoming(nodeID) {
		if results[c.FromNode][c.FromPort].IsNull() {
			return true
		}
	}
	return false
}

// applyDefaults substitutes each required input port's default value when
// no value has been wired or pre-seeded, failing if neither is available
// (§4.3.3 step 3).
func applyDefaults(n *node.Node) error {
	for name, port := range n.InputPorts {
		if !port.Required {
			continue
		}
		if _, present := n.InputValues[name]; present {
			continue
		}
		if port.HasDefault {
			n.InputValues[name] = port.Default
			continue
		}
		return fmt.Errorf("%w: %s.%s", ErrMissingRequiredInput, n.ID, name)
	}
	return nil
}

func outputPortNames(n *node.Node) []string {
	names := make([]string, 0, len(n.OutputPorts))
	for name := range n.OutputPorts {
		names = append(names, name)
	}
	return names
}

// fillMissingOutputs defaults every declared output port the processor
// didn't return to the null tag (§4.3.3 step 4).
func fillMissingOutputs(out node.Map, declared []string) node.Map {
	if out == nil {
		out = make(node.Map, len(declared))
	}
	for _, name := range declared {
		if _, ok := out[name]; !ok {
			out[name] = node.Null()
		}
	}
	return out
}
