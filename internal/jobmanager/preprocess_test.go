package jobmanager

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowforge/orchestrator/internal/graph"
)

func TestGroupInputsByTypeSingleton(t *testing.T) {
	grouped := groupInputsByType([]JobInput{{Type: "image", URL: "http://a"}})
	assert.Equal(t, map[string]string{"image": "http://a"}, grouped)
}

func TestGroupInputsByTypeDuplicatesNumbered(t *testing.T) {
	grouped := groupInputsByType([]JobInput{
		{Type: "image", URL: "http://a"},
		{Type: "image", URL: "http://b"},
		{Type: "mask", URL: "http://c"},
	})
	assert.Equal(t, map[string]string{
		"image1": "http://a",
		"image2": "http://b",
		"mask":   "http://c",
	}, grouped)
}

func TestMergeDefaultParamsOptionsWin(t *testing.T) {
	merged := mergeDefaultParams(
		map[string]any{"steps": 20, "cfg": 7},
		map[string]any{"steps": 30},
	)
	assert.Equal(t, 30, merged["steps"])
	assert.Equal(t, 7, merged["cfg"])
}

func TestEnsureSeedFillsMissingOnly(t *testing.T) {
	options := map[string]any{}
	ensureSeed(options)
	_, ok := options["seed"].(uint32)
	require.True(t, ok)

	options2 := map[string]any{"seed": uint32(42)}
	ensureSeed(options2)
	assert.Equal(t, uint32(42), options2["seed"])
}

func TestValidateRequiredInputsMissing(t *testing.T) {
	err := validateRequiredInputs([]string{"image"}, map[string]string{})
	require.ErrorIs(t, err, ErrMissingRequiredInput)
}

func TestApplyMappingWritesTargetedNodes(t *testing.T) {
	def := graph.Definition{
		Nodes: []graph.NodeSpec{
			{ID: "n1", Type: "TextInputNode"},
			{ID: "n2", Type: "TextInputNode"},
		},
	}
	mapping := map[string][]MappingTarget{
		"prompt": {{NodeID: "n1", InputKey: "text"}, {NodeID: "n2", InputKey: "text"}},
	}
	err := applyMapping(&def, mapping, map[string]any{"prompt": "hello"})
	require.NoError(t, err)

	assert.Equal(t, "hello", def.Nodes[0].InputValues["text"])
	assert.Equal(t, "hello", def.Nodes[1].InputValues["text"])
}

func TestApplyMappingUnknownNodeErrors(t *testing.T) {
	def := graph.Definition{Nodes: []graph.NodeSpec{{ID: "n1", Type: "TextInputNode"}}}
	mapping := map[string][]MappingTarget{"prompt": {{NodeID: "missing", InputKey: "text"}}}
	err := applyMapping(&def, mapping, map[string]any{"prompt": "hello"})
	require.Error(t, err)
}
