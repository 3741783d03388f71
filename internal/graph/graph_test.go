package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/flowforge/orchestrator/internal/node"
	"github.com/flowforge/orchestrator/internal/node/builtin"
)

func newTestRegistry(t *testing.T) *node.Registry {
	t.Helper()
	reg := node.NewRegistry(zap.NewNop())
	require.NoError(t, builtin.RegisterBasicTypes(reg))
	require.NoError(t, builtin.RegisterControl(reg))
	require.NoError(t, builtin.RegisterForEach(reg, 0))
	return reg
}

// Scenario 1 (§8): TextInputNode -> TextStripNode basic chain.
func TestBasicChain(t *testing.T) {
	reg := newTestRegistry(t)
	def := Definition{
		Nodes: []NodeSpec{
			{ID: "A", Type: "TextInputNode", InputValues: map[string]any{"text": "hello"}},
			{ID: "B", Type: "TextStripNode"},
		},
		Connections: []ConnectionSpec{
			{FromNode: "A", FromPort: "text", ToNode: "B", ToPort: "text"},
		},
	}

	g, err := Construct(reg, def)
	require.NoError(t, err)

	results, err := Execute(context.Background(), g)
	require.NoError(t, err)

	assert.Equal(t, "hello", results["A"]["text"].Get())
	assert.Equal(t, "hello", results["B"]["text"].Get())
}

// Scenario 2+3 (§8): Switch routes to exactly one branch, Merge selects it,
// and downstream nodes on dead branches are skipped with null outputs.
func TestSwitchMergeAndSkipPropagation(t *testing.T) {
	reg := newTestRegistry(t)
	def := Definition{
		Nodes: []NodeSpec{
			{ID: "switch", Type: "SwitchNode", InputValues: map[string]any{
				"data": map[string]any{"score": 95.0},
				"rules": []any{
					map[string]any{"field": "score", "operator": "greater", "value": 80.0, "output_index": 0},
				},
				"mode": "first_match",
			}},
			{ID: "merge", Type: "MergeNode", InputValues: map[string]any{"input_count": int64(3)}},
			{ID: "strip1", Type: "TextStripNode"},
			{ID: "strip2", Type: "TextStripNode"},
		},
		Connections: []ConnectionSpec{
			{FromNode: "switch", FromPort: "output_0", ToNode: "merge", ToPort: "input_0"},
			{FromNode: "switch", FromPort: "output_1", ToNode: "merge", ToPort: "input_1"},
			{FromNode: "switch", FromPort: "output_2", ToNode: "merge", ToPort: "input_2"},
			{FromNode: "switch", FromPort: "output_1", ToNode: "strip1", ToPort: "text"},
			{FromNode: "switch", FromPort: "output_2", ToNode: "strip2", ToPort: "text"},
		},
	}

	g, err := Construct(reg, def)
	require.NoError(t, err)

	results, err := Execute(context.Background(), g)
	require.NoError(t, err)

	switchOut := results["switch"]
	assert.Equal(t, map[string]any{"score": 95.0}, switchOut["output_0"].Get())
	assert.True(t, switchOut["output_1"].IsNull())
	assert.True(t, switchOut["output_2"].IsNull())
	assert.True(t, switchOut["fallback"].IsNull())

	mergeOut := results["merge"]
	assert.Equal(t, map[string]any{"score": 95.0}, mergeOut["output"].Get())
	assert.Equal(t, int64(0), mergeOut["selected_index"].Get())
	assert.Equal(t, true, mergeOut["has_result"].Get())

	for _, id := range []string{"strip1", "strip2"} {
		for port, val := range results[id] {
			assert.Truef(t, val.IsNull(), "expected %s.%s to be null", id, port)
		}
	}
}

func TestSwitchNoMatchRoutesThroughFallback(t *testing.T) {
	reg := newTestRegistry(t)
	def := Definition{
		Nodes: []NodeSpec{
			{ID: "switch", Type: "SwitchNode", InputValues: map[string]any{
				"data": map[string]any{"score": 10.0},
				"rules": []any{
					map[string]any{"field": "score", "operator": "greater", "value": 80.0, "output_index": 0},
				},
				"mode": "first_match",
			}},
		},
	}

	g, err := Construct(reg, def)
	require.NoError(t, err)
	results, err := Execute(context.Background(), g)
	require.NoError(t, err)

	out := results["switch"]
	assert.True(t, out["output_0"].IsNull())
	assert.Equal(t, map[string]any{"score": 10.0}, out["fallback"].Get())
}

func TestPassThroughNullTolerance(t *testing.T) {
	reg := newTestRegistry(t)
	def := Definition{
		Nodes: []NodeSpec{
			{ID: "switch", Type: "SwitchNode", InputValues: map[string]any{
				"data": "x",
				"rules": []any{
					map[string]any{"field": "", "operator": "equals", "value": "nope", "output_index": 0},
				},
				"mode": "first_match",
			}},
			{ID: "passthrough", Type: "PassThroughNode", InputValues: map[string]any{
				"data": "fixed value",
			}},
		},
		Connections: []ConnectionSpec{
			{FromNode: "switch", FromPort: "output_0", ToNode: "passthrough", ToPort: "control"},
		},
	}

	g, err := Construct(reg, def)
	require.NoError(t, err)
	results, err := Execute(context.Background(), g)
	require.NoError(t, err)

	// control is null (non-matching branch), so PassThrough must still
	// execute (null-tolerant) and emit null on data.
	assert.True(t, results["passthrough"]["data"].IsNull())
}

// Boundary behavior (§8): zero connections, every node runs exactly once.
func TestZeroConnectionsExecutesEveryNodeOnce(t *testing.T) {
	reg := newTestRegistry(t)
	def := Definition{
		Nodes: []NodeSpec{
			{ID: "a", Type: "TextInputNode", InputValues: map[string]any{"text": "a"}},
			{ID: "b", Type: "TextInputNode", InputValues: map[string]any{"text": "b"}},
			{ID: "c", Type: "TextInputNode", InputValues: map[string]any{"text": "c"}},
		},
	}

	g, err := Construct(reg, def)
	require.NoError(t, err)
	results, err := Execute(context.Background(), g)
	require.NoError(t, err)

	assert.Len(t, results, 3)
	assert.Equal(t, "a", results["a"]["text"].Get())
	assert.Equal(t, "b", results["b"]["text"].Get())
	assert.Equal(t, "c", results["c"]["text"].Get())
}

// Boundary behavior (§8): a chain of N nodes/N-1 edges executes in chain
// order.
func TestChainExecutesInOrder(t *testing.T) {
	reg := newTestRegistry(t)
	def := Definition{
		Nodes: []NodeSpec{
			{ID: "n3", Type: "TextStripNode"},
			{ID: "n1", Type: "TextInputNode", InputValues: map[string]any{"text": " chained "}},
			{ID: "n2", Type: "TextStripNode"},
		},
		Connections: []ConnectionSpec{
			{FromNode: "n1", FromPort: "text", ToNode: "n2", ToPort: "text"},
			{FromNode: "n2", FromPort: "text", ToNode: "n3", ToPort: "text"},
		},
	}

	g, err := Construct(reg, def)
	require.NoError(t, err)

	order, err := g.Order()
	require.NoError(t, err)
	assert.Equal(t, []string{"n1", "n2", "n3"}, order)

	results, err := Execute(context.Background(), g)
	require.NoError(t, err)
	assert.Equal(t, "chained", results["n3"]["text"].Get())
}

func TestGraphCycleDetected(t *testing.T) {
	reg := newTestRegistry(t)
	def := Definition{
		Nodes: []NodeSpec{
			{ID: "a", Type: "TextStripNode"},
			{ID: "b", Type: "TextStripNode"},
		},
		Connections: []ConnectionSpec{
			{FromNode: "a", FromPort: "text", ToNode: "b", ToPort: "text"},
			{FromNode: "b", FromPort: "text", ToNode: "a", ToPort: "text"},
		},
	}

	g, err := Construct(reg, def)
	require.NoError(t, err)

	_, err = g.Order()
	require.ErrorIs(t, err, ErrGraphCycle)
}

func TestConstructRejectsUnknownNodeType(t *testing.T) {
	reg := newTestRegistry(t)
	_, err := Construct(reg, Definition{
		Nodes: []NodeSpec{{ID: "a", Type: "NoSuchNodeType"}},
	})
	require.ErrorIs(t, err, ErrGraphConstruction)
}

func TestConstructRejectsIncompatiblePortTypes(t *testing.T) {
	reg := newTestRegistry(t)
	_, err := Construct(reg, Definition{
		Nodes: []NodeSpec{
			{ID: "a", Type: "IntInputNode"},
			{ID: "b", Type: "TextStripNode"},
		},
		Connections: []ConnectionSpec{
			{FromNode: "a", FromPort: "value", ToNode: "b", ToPort: "text"},
		},
	})
	require.ErrorIs(t, err, ErrGraphConstruction)
}

func TestConstructRejectsDanglingConnection(t *testing.T) {
	reg := newTestRegistry(t)
	_, err := Construct(reg, Definition{
		Nodes: []NodeSpec{{ID: "a", Type: "TextStripNode"}},
		Connections: []ConnectionSpec{
			{FromNode: "a", FromPort: "text", ToNode: "ghost", ToPort: "text"},
		},
	})
	require.ErrorIs(t, err, ErrGraphConstruction)
}

func TestMissingRequiredInputFailsTheNode(t *testing.T) {
	reg := newTestRegistry(t)
	g, err := Construct(reg, Definition{
		Nodes: []NodeSpec{{ID: "conv", Type: "TypeConvertNode"}},
	})
	require.NoError(t, err)

	_, err = Execute(context.Background(), g)
	require.ErrorIs(t, err, ErrMissingRequiredInput)
}
