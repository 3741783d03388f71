package builtin

import (
	"context"
	"fmt"

	"github.com/flowforge/orchestrator/internal/node"
)

// RegisterBasicTypes registers the literal-value and arithmetic node types
// grounded on original_source/app/workflow/nodes/basic_types.py (§11).
func RegisterBasicTypes(reg *node.Registry) error {
	registrations := []struct {
		describe    node.DescribeFunc
		constructor node.ConstructorFunc
	}{
		{describeTextInput, newTextInput},
		{describeIntInput, newIntInput},
		{describeFloatInput, newFloatInput},
		{describeBoolInput, newBoolInput},
		{describeTextStrip, newTextStrip},
		{describeMathOperation, newMathOperation},
		{describeTypeConvert, newTypeConvert},
	}
	for _, r := range registrations {
		if err := reg.Register(r.describe, r.constructor); err != nil {
			return err
		}
	}
	return nil
}

const categoryBasicTypes = "basic_types"

// --- TextInputNode ---

func describeTextInput() node.Descriptor {
	return node.Descriptor{
		TypeName: "TextInputNode",
		Category: categoryBasicTypes,
		InputPorts: []node.Port{
			{Name: "text", Type: "string", Required: true, HasDefault: true, Default: ""},
		},
		OutputPorts: []node.Port{
			{Name: "text", Type: "string"},
		},
	}
}

func newTextInput(id string) (*node.Node, node.Processor) {
	n := node.NewNode("TextInputNode", id)
	n.AddInputPort(node.Port{Name: "text", Type: "string", Required: true, HasDefault: true, Default: ""})
	n.AddOutputPort(node.Port{Name: "text", Type: "string"})
	return n, node.ProcessorFunc(func(_ context.Context, n *node.Node) (node.Map, error) {
		return node.Map{"text": node.Some(n.InputValues["text"])}, nil
	})
}

// --- IntInputNode / FloatInputNode / BoolInputNode ---
// Parallel to TextInputNode: a single typed "value" input port mirrored
// to a single typed "value" output port (§11).

func describeIntInput() node.Descriptor {
	return literalDescriptor("IntInputNode", "int", int64(0))
}

func newIntInput(id string) (*node.Node, node.Processor) {
	return newLiteralNode("IntInputNode", id, "int", int64(0))
}

func describeFloatInput() node.Descriptor {
	return literalDescriptor("FloatInputNode", "float", 0.0)
}

func newFloatInput(id string) (*node.Node, node.Processor) {
	return newLiteralNode("FloatInputNode", id, "float", 0.0)
}

func describeBoolInput() node.Descriptor {
	return literalDescriptor("BoolInputNode", "bool", false)
}

func newBoolInput(id string) (*node.Node, node.Processor) {
	return newLiteralNode("BoolInputNode", id, "bool", false)
}

func literalDescriptor(typeName, portType string, defaultValue any) node.Descriptor {
	return node.Descriptor{
		TypeName: typeName,
		Category: categoryBasicTypes,
		InputPorts: []node.Port{
			{Name: "value", Type: portType, Required: true, HasDefault: true, Default: defaultValue},
		},
		OutputPorts: []node.Port{
			{Name: "value", Type: portType},
		},
	}
}

func newLiteralNode(typeName, id, portType string, defaultValue any) (*node.Node, node.Processor) {
	n := node.NewNode(typeName, id)
	n.AddInputPort(node.Port{Name: "value", Type: portType, Required: true, HasDefault: true, Default: defaultValue})
	n.AddOutputPort(node.Port{Name: "value", Type: portType})
	return n, node.ProcessorFunc(func(_ context.Context, n *node.Node) (node.Map, error) {
		return node.Map{"value": node.Some(n.InputValues["value"])}, nil
	})
}

// --- TextStripNode ---

func describeTextStrip() node.Descriptor {
	return node.Descriptor{
		TypeName: "TextStripNode",
		Category: categoryBasicTypes,
		InputPorts: []node.Port{
			{Name: "text", Type: "string", Required: true, HasDefault: true, Default: ""},
		},
		OutputPorts: []node.Port{
			{Name: "text", Type: "string"},
		},
	}
}

func newTextStrip(id string) (*node.Node, node.Processor) {
	n := node.NewNode("TextStripNode", id)
	n.AddInputPort(node.Port{Name: "text", Type: "string", Required: true, HasDefault: true, Default: ""})
	n.AddOutputPort(node.Port{Name: "text", Type: "string"})
	return n, node.ProcessorFunc(func(_ context.Context, n *node.Node) (node.Map, error) {
		text, _ := n.InputValues["text"].(string)
		return node.Map{"text": node.Some(stripSpace(text))}, nil
	})
}

func stripSpace(s string) string {
	start := 0
	for start < len(s) && isSpace(s[start]) {
		start++
	}
	end := len(s)
	for end > start && isSpace(s[end-1]) {
		end--
	}
	return s[start:end]
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\v' || b == '\f'
}

// --- MathOperationNode ---

func describeMathOperation() node.Descriptor {
	return node.Descriptor{
		TypeName: "MathOperationNode",
		Category: categoryBasicTypes,
		InputPorts: []node.Port{
			{Name: "a", Type: "number", Required: true, HasDefault: true, Default: 0.0},
			{Name: "b", Type: "number", Required: true, HasDefault: true, Default: 0.0},
			{Name: "operation", Type: "string", Required: true, HasDefault: true, Default: "add"},
		},
		OutputPorts: []node.Port{
			{Name: "result", Type: "number"},
		},
	}
}

func newMathOperation(id string) (*node.Node, node.Processor) {
	n := node.NewNode("MathOperationNode", id)
	n.AddInputPort(node.Port{Name: "a", Type: "number", Required: true, HasDefault: true, Default: 0.0})
	n.AddInputPort(node.Port{Name: "b", Type: "number", Required: true, HasDefault: true, Default: 0.0})
	n.AddInputPort(node.Port{Name: "operation", Type: "string", Required: true, HasDefault: true, Default: "add"})
	n.AddOutputPort(node.Port{Name: "result", Type: "number"})
	return n, node.ProcessorFunc(func(_ context.Context, n *node.Node) (node.Map, error) {
		a := toFloat(n.InputValues["a"])
		b := toFloat(n.InputValues["b"])
		op, _ := n.InputValues["operation"].(string)

		var result float64
		switch op {
		case "add":
			result = a + b
		case "subtract":
			result = a - b
		case "multiply":
			result = a * b
		case "divide":
			if b == 0 {
				return nil, ErrDivideByZero
			}
			result = a / b
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedOperator, op)
		}
		return node.Map{"result": node.Some(result)}, nil
	})
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}

// --- TypeConvertNode ---

var allowedConversions = map[string]map[string]bool{
	"int":   {"float": true, "text": true},
	"float": {"int": true, "text": true},
	"text":  {"int": true, "float": true},
}

func describeTypeConvert() node.Descriptor {
	return node.Descriptor{
		TypeName: "TypeConvertNode",
		Category: categoryBasicTypes,
		InputPorts: []node.Port{
			{Name: "value", Type: "any", Required: true},
			{Name: "from_type", Type: "string", Required: true},
			{Name: "to_type", Type: "string", Required: true},
		},
		OutputPorts: []node.Port{
			{Name: "value", Type: "any"},
		},
	}
}

func newTypeConvert(id string) (*node.Node, node.Processor) {
	n := node.NewNode("TypeConvertNode", id)
	n.AddInputPort(node.Port{Name: "value", Type: "any", Required: true})
	n.AddInputPort(node.Port{Name: "from_type", Type: "string", Required: true})
	n.AddInputPort(node.Port{Name: "to_type", Type: "string", Required: true})
	n.AddOutputPort(node.Port{Name: "value", Type: "any"})
	return n, node.ProcessorFunc(func(_ context.Context, n *node.Node) (node.Map, error) {
		from, _ := n.InputValues["from_type"].(string)
		to, _ := n.InputValues["to_type"].(string)
		if !allowedConversions[from][to] {
			return nil, fmt.Errorf("%w: %s -> %s", ErrUnsupportedOperator, from, to)
		}

		converted, err := convertValue(n.InputValues["value"], from, to)
		if err != nil {
			return nil, err
		}
		return node.Map{"value": node.Some(converted)}, nil
	})
}

func convertValue(value any, from, to string) (any, error) {
	switch from + "->" + to {
	case "int->float":
		return toFloat(value), nil
	case "int->text":
		return fmt.Sprintf("%d", int64(toFloat(value))), nil
	case "float->int":
		return int64(toFloat(value)), nil
	case "float->text":
		return fmt.Sprintf("%v", value), nil
	case "text->int":
		var out int64
		if _, err := fmt.Sscanf(fmt.Sprintf("%v", value), "%d", &out); err != nil {
			return nil, fmt.Errorf("%w: cannot convert %v to int", ErrUnsupportedOperator, value)
		}
		return out, nil
	case "text->float":
		var out float64
		if _, err := fmt.Sscanf(fmt.Sprintf("%v", value), "%g", &out); err != nil {
			return nil, fmt.Errorf("%w: cannot convert %v to float", ErrUnsupportedOperator, value)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %s -> %s", ErrUnsupportedOperator, from, to)
	}
}
