package node

import (
	"context"

	"github.com/google/uuid"
)

// Node is one instance of a registered node type inside a single workflow
// execution. A node is constructed fresh for every execution; it is never
// reused across runs (§3 of the design spec).
type Node struct {
	ID          string
	TypeName    string
	InputPorts  map[string]Port
	OutputPorts map[string]Port
	InputValues map[string]any
	TaskID      string
}

// NewNode builds a bare node instance. id is used verbatim if non-empty,
// otherwise a fresh UUID is generated.
func NewNode(typeName, id string) *Node {
	if id == "" {
		id = uuid.NewString()
	}
	return &Node{
		ID:          id,
		TypeName:    typeName,
		InputPorts:  make(map[string]Port),
		OutputPorts: make(map[string]Port),
		InputValues: make(map[string]any),
	}
}

// AddInputPort declares an input port on the node.
func (n *Node) AddInputPort(p Port) {
	n.InputPorts[p.Name] = p
}

// AddOutputPort declares an output port on the node.
func (n *Node) AddOutputPort(p Port) {
	n.OutputPorts[p.Name] = p
}

// SetInput seeds an input value directly, bypassing connection wiring. Used
// for pre-seeded node.input_values from the graph definition and for
// ForEach-injected item/index values.
func (n *Node) SetInput(port string, value any) {
	n.InputValues[port] = value
}

// HasInputPort reports whether the node declares the given input port.
func (n *Node) HasInputPort(port string) bool {
	_, ok := n.InputPorts[port]
	return ok
}

// Processor is the behavior every node type implements: consume the values
// already wired into InputValues and return a value for every declared
// output port. Missing output ports default to the null tag by the caller.
type Processor interface {
	Process(ctx context.Context, n *Node) (Map, error)
}

// ProcessorFunc adapts a plain function to the Processor interface.
type ProcessorFunc func(ctx context.Context, n *Node) (Map, error)

// Process implements Processor.
func (f ProcessorFunc) Process(ctx context.Context, n *Node) (Map, error) {
	return f(ctx, n)
}
