package graph

import (
	"fmt"

	"github.com/flowforge/orchestrator/internal/node"
)

// Construct builds a WorkflowGraph from its wire definition using reg to
// instantiate node types. Construction is transactional (§4.3.1): any
// failure aborts with ErrGraphConstruction and no partial graph is
// returned.
func Construct(reg *node.Registry, def Definition) (*WorkflowGraph, error) {
	nodes := make(map[string]*node.Node, len(def.Nodes))
	processors := make(map[string]node.Processor, len(def.Nodes))
	nullTolerant := make(map[string]bool, len(def.Nodes))

	for _, spec := range def.Nodes {
		if spec.ID == "" {
			return nil, fmt.Errorf("%w: node spec missing id", ErrGraphConstruction)
		}
		if _, exists := nodes[spec.ID]; exists {
			return nil, fmt.Errorf("%w: duplicate node id %q", ErrGraphConstruction, spec.ID)
		}

		n, proc, err := reg.Create(spec.Type, spec.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: node %q: %v", ErrGraphConstruction, spec.ID, err)
		}
		for port, value := range spec.InputValues {
			n.SetInput(port, value)
		}

		nodes[spec.ID] = n
		processors[spec.ID] = proc
		if desc, ok := reg.Describe(spec.Type); ok {
			nullTolerant[spec.ID] = desc.NullTolerant
		}
	}

	connections := make([]Connection, 0, len(def.Connections))
	for _, c := range def.Connections {
		from, ok := nodes[c.FromNode]
		if !ok {
			return nil, fmt.Errorf("%w: connection references unknown node %q", ErrGraphConstruction, c.FromNode)
		}
		to, ok := nodes[c.ToNode]
		if !ok {
			return nil, fmt.Errorf("%w: connection references unknown node %q", ErrGraphConstruction, c.ToNode)
		}

		fromPort, ok := from.OutputPorts[c.FromPort]
		if !ok {
			return nil, fmt.Errorf("%w: node %q has no output port %q", ErrGraphConstruction, c.FromNode, c.FromPort)
		}
		toPort, ok := to.InputPorts[c.ToPort]
		if !ok {
			return nil, fmt.Errorf("%w: node %q has no input port %q", ErrGraphConstruction, c.ToNode, c.ToPort)
		}

		if !node.TypesCompatible(fromPort.Type, toPort.Type) {
			return nil, fmt.Errorf("%w: %s.%s (%s) -> %s.%s (%s) is not port-type compatible",
				ErrGraphConstruction, c.FromNode, c.FromPort, fromPort.Type, c.ToNode, c.ToPort, toPort.Type)
		}

		connections = append(connections, Connection{
			FromNode: c.FromNode,
			FromPort: c.FromPort,
			ToNode:   c.ToNode,
			ToPort:   c.ToPort,
		})
	}

	g := &WorkflowGraph{Nodes: nodes, Processors: processors, Connections: connections, NullTolerant: nullTolerant}
	g.buildIndex()
	return g, nil
}
