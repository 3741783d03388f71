package builtin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/flowforge/orchestrator/internal/node"
)

func newTestNode(t *testing.T, reg *node.Registry, typeName string, inputs map[string]any) node.Map {
	t.Helper()
	n, proc, err := reg.Create(typeName, "")
	require.NoError(t, err)
	for k, v := range inputs {
		n.SetInput(k, v)
	}
	out, err := proc.Process(context.Background(), n)
	require.NoError(t, err)
	return out
}

func basicTypesRegistry(t *testing.T) *node.Registry {
	t.Helper()
	reg := node.NewRegistry(zap.NewNop())
	require.NoError(t, RegisterBasicTypes(reg))
	return reg
}

func TestTextStripTrimsWhitespace(t *testing.T) {
	reg := basicTypesRegistry(t)
	out := newTestNode(t, reg, "TextStripNode", map[string]any{"text": "  a  "})
	assert.Equal(t, "a", out["text"].Get())
}

func TestLiteralNodesEchoValue(t *testing.T) {
	reg := basicTypesRegistry(t)

	assert.Equal(t, int64(42), newTestNode(t, reg, "IntInputNode", map[string]any{"value": int64(42)})["value"].Get())
	assert.Equal(t, 3.5, newTestNode(t, reg, "FloatInputNode", map[string]any{"value": 3.5})["value"].Get())
	assert.Equal(t, true, newTestNode(t, reg, "BoolInputNode", map[string]any{"value": true})["value"].Get())
}

func TestMathOperationNode(t *testing.T) {
	reg := basicTypesRegistry(t)

	cases := []struct {
		op       string
		a, b     float64
		expected float64
	}{
		{"add", 2, 3, 5},
		{"subtract", 5, 2, 3},
		{"multiply", 4, 3, 12},
		{"divide", 10, 2, 5},
	}
	for _, c := range cases {
		out := newTestNode(t, reg, "MathOperationNode", map[string]any{"a": c.a, "b": c.b, "operation": c.op})
		assert.Equal(t, c.expected, out["result"].Get(), c.op)
	}
}

func TestMathOperationDivideByZero(t *testing.T) {
	reg := basicTypesRegistry(t)
	n, proc, err := reg.Create("MathOperationNode", "")
	require.NoError(t, err)
	n.SetInput("a", 1.0)
	n.SetInput("b", 0.0)
	n.SetInput("operation", "divide")

	_, err = proc.Process(context.Background(), n)
	require.ErrorIs(t, err, ErrDivideByZero)
}

func TestMathOperationUnsupportedOperator(t *testing.T) {
	reg := basicTypesRegistry(t)
	n, proc, err := reg.Create("MathOperationNode", "")
	require.NoError(t, err)
	n.SetInput("a", 1.0)
	n.SetInput("b", 2.0)
	n.SetInput("operation", "modulo")

	_, err = proc.Process(context.Background(), n)
	require.ErrorIs(t, err, ErrUnsupportedOperator)
}

func TestTypeConvertNode(t *testing.T) {
	reg := basicTypesRegistry(t)

	out := newTestNode(t, reg, "TypeConvertNode", map[string]any{"value": int64(3), "from_type": "int", "to_type": "float"})
	assert.Equal(t, 3.0, out["value"].Get())

	out = newTestNode(t, reg, "TypeConvertNode", map[string]any{"value": "12", "from_type": "text", "to_type": "int"})
	assert.Equal(t, int64(12), out["value"].Get())

	out = newTestNode(t, reg, "TypeConvertNode", map[string]any{"value": 2.5, "from_type": "float", "to_type": "int"})
	assert.Equal(t, int64(2), out["value"].Get())
}

func TestTypeConvertRejectsUnsupportedPair(t *testing.T) {
	reg := basicTypesRegistry(t)
	n, proc, err := reg.Create("TypeConvertNode", "")
	require.NoError(t, err)
	n.SetInput("value", "x")
	n.SetInput("from_type", "text")
	n.SetInput("to_type", "text")

	_, err = proc.Process(context.Background(), n)
	require.ErrorIs(t, err, ErrUnsupportedOperator)
}
