package builtin

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/flowforge/orchestrator/internal/node"
)

const categoryControl = "control"

// maxSwitchOutputs and maxMergeInputs bound the statically declared port
// schema for SwitchNode/MergeNode. The registry's Describe() must be
// callable without constructing a node (§9 design note), so the schema
// declares a fixed, generous ceiling; any slot a particular workflow
// doesn't wire simply stays unconnected.
const (
	maxSwitchOutputs = 16
	maxMergeInputs   = 16
)

// RegisterControl registers SwitchNode, MergeNode, and PassThroughNode.
func RegisterControl(reg *node.Registry) error {
	registrations := []struct {
		describe    node.DescribeFunc
		constructor node.ConstructorFunc
	}{
		{describeSwitch, newSwitch},
		{describeMerge, newMerge},
		{describePassThrough, newPassThrough},
	}
	for _, r := range registrations {
		if err := reg.Register(r.describe, r.constructor); err != nil {
			return err
		}
	}
	return nil
}

// --- SwitchNode ---

// SwitchRule is one routing rule evaluated against the "data" input
// (§4.3.5).
type SwitchRule struct {
	Field       string `json:"field"`
	Operator    string `json:"operator"`
	Value       any    `json:"value"`
	OutputIndex int    `json:"output_index"`
}

func describeSwitch() node.Descriptor {
	outputs := make([]node.Port, 0, maxSwitchOutputs+1)
	for i := 0; i < maxSwitchOutputs; i++ {
		outputs = append(outputs, node.Port{Name: fmt.Sprintf("output_%d", i), Type: "any"})
	}
	outputs = append(outputs, node.Port{Name: "fallback", Type: "any"})

	return node.Descriptor{
		TypeName: "SwitchNode",
		Category: categoryControl,
		InputPorts: []node.Port{
			{Name: "data", Type: "any", Required: true},
			{Name: "rules", Type: "any", Required: true, HasDefault: true, Default: []any{}},
			{Name: "mode", Type: "string", Required: true, HasDefault: true, Default: "first_match"},
		},
		OutputPorts: outputs,
	}
}

func newSwitch(id string) (*node.Node, node.Processor) {
	n := node.NewNode("SwitchNode", id)
	for _, p := range describeSwitch().InputPorts {
		n.AddInputPort(p)
	}
	for _, p := range describeSwitch().OutputPorts {
		n.AddOutputPort(p)
	}
	return n, node.ProcessorFunc(processSwitch)
}

func processSwitch(_ context.Context, n *node.Node) (node.Map, error) {
	data := n.InputValues["data"]
	rules := decodeRules(n.InputValues["rules"])
	mode, _ := n.InputValues["mode"].(string)
	if mode == "" {
		mode = "first_match"
	}

	out := make(node.Map)
	matched := false

	for _, rule := range rules {
		if rule.OutputIndex < 0 || rule.OutputIndex >= maxSwitchOutputs {
			return nil, fmt.Errorf("%w: output_index %d", ErrUnknownOutputPort, rule.OutputIndex)
		}
		if evaluateRule(rule, data) {
			out[fmt.Sprintf("output_%d", rule.OutputIndex)] = node.Some(data)
			matched = true
			if mode == "first_match" {
				break
			}
		}
	}

	if !matched {
		out["fallback"] = node.Some(data)
	}
	return out, nil
}

func decodeRules(v any) []SwitchRule {
	raw, ok := v.([]any)
	if !ok {
		if rules, ok := v.([]SwitchRule); ok {
			return rules
		}
		return nil
	}
	rules := make([]SwitchRule, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		r := SwitchRule{}
		r.Field, _ = m["field"].(string)
		r.Operator, _ = m["operator"].(string)
		r.Value = m["value"]
		switch idx := m["output_index"].(type) {
		case int:
			r.OutputIndex = idx
		case int64:
			r.OutputIndex = int(idx)
		case float64:
			r.OutputIndex = int(idx)
		}
		rules = append(rules, r)
	}
	return rules
}

// evaluateRule resolves rule.Field against data via dotted-path lookup and
// applies rule.Operator (§4.3.5). A missing key resolves to nil.
func evaluateRule(rule SwitchRule, data any) bool {
	fieldVal, found := resolveField(data, rule.Field)

	switch rule.Operator {
	case "is_empty":
		return !found || isEmptyValue(fieldVal)
	case "is_not_empty":
		return found && !isEmptyValue(fieldVal)
	}

	if !found {
		fieldVal = nil
	}

	switch rule.Operator {
	case "equals":
		return compareEqual(fieldVal, rule.Value)
	case "not_equals":
		return !compareEqual(fieldVal, rule.Value)
	case "greater":
		return compareOrdered(fieldVal, rule.Value) > 0
	case "greater_equal":
		return compareOrdered(fieldVal, rule.Value) >= 0
	case "less":
		return compareOrdered(fieldVal, rule.Value) < 0
	case "less_equal":
		return compareOrdered(fieldVal, rule.Value) <= 0
	case "contains":
		return strings.Contains(toStr(fieldVal), toStr(rule.Value))
	case "not_contains":
		return !strings.Contains(toStr(fieldVal), toStr(rule.Value))
	case "starts_with":
		return strings.HasPrefix(toStr(fieldVal), toStr(rule.Value))
	case "ends_with":
		return strings.HasSuffix(toStr(fieldVal), toStr(rule.Value))
	case "regex":
		re, err := regexp.Compile(toStr(rule.Value))
		if err != nil {
			return false
		}
		return re.MatchString(toStr(fieldVal))
	default:
		return false
	}
}

// resolveField walks a dotted path (nested objects, numeric array indices)
// over data, returning (nil, false) for any missing segment.
func resolveField(data any, path string) (any, bool) {
	if path == "" {
		return data, true
	}
	cur := data
	for _, segment := range strings.Split(path, ".") {
		switch container := cur.(type) {
		case map[string]any:
			v, ok := container[segment]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			idx, err := strconv.Atoi(segment)
			if err != nil || idx < 0 || idx >= len(container) {
				return nil, false
			}
			cur = container[idx]
		default:
			return nil, false
		}
	}
	return cur, true
}

func isEmptyValue(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case []any:
		return len(val) == 0
	case map[string]any:
		return len(val) == 0
	default:
		return false
	}
}

func compareEqual(a, b any) bool {
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if aok && bok {
		return af == bf
	}
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

func compareOrdered(a, b any) int {
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(toStr(a), toStr(b))
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func toStr(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// --- MergeNode ---

func describeMerge() node.Descriptor {
	inputs := make([]node.Port, 0, maxMergeInputs+1)
	for i := 0; i < maxMergeInputs; i++ {
		inputs = append(inputs, node.Port{Name: fmt.Sprintf("input_%d", i), Type: "any"})
	}
	inputs = append(inputs, node.Port{Name: "input_count", Type: "int", HasDefault: true, Default: int64(maxMergeInputs)})

	return node.Descriptor{
		TypeName:     "MergeNode",
		Category:     categoryControl,
		InputPorts:   inputs,
		NullTolerant: true,
		OutputPorts: []node.Port{
			{Name: "output", Type: "any"},
			{Name: "selected_index", Type: "int"},
			{Name: "has_result", Type: "bool"},
		},
	}
}

func newMerge(id string) (*node.Node, node.Processor) {
	n := node.NewNode("MergeNode", id)
	for _, p := range describeMerge().InputPorts {
		n.AddInputPort(p)
	}
	for _, p := range describeMerge().OutputPorts {
		n.AddOutputPort(p)
	}
	return n, node.ProcessorFunc(processMerge)
}

func processMerge(_ context.Context, n *node.Node) (node.Map, error) {
	count := maxMergeInputs
	if c, ok := n.InputValues["input_count"]; ok {
		count = int(toFloat(c))
		if count <= 0 || count > maxMergeInputs {
			count = maxMergeInputs
		}
	}

	for i := 0; i < count; i++ {
		key := fmt.Sprintf("input_%d", i)
		val, present := n.InputValues[key]
		if present && val != nil {
			return node.Map{
				"output":         node.Some(val),
				"selected_index": node.Some(int64(i)),
				"has_result":     node.Some(true),
			}, nil
		}
	}

	return node.Map{
		"output":         node.Null(),
		"selected_index": node.Some(int64(-1)),
		"has_result":     node.Some(false),
	}, nil
}

// --- PassThroughNode ---

func describePassThrough() node.Descriptor {
	return node.Descriptor{
		TypeName: "PassThroughNode",
		Category: categoryControl,
		InputPorts: []node.Port{
			{Name: "data", Type: "any"},
			{Name: "control", Type: "any"},
			{Name: "pass_on_empty", Type: "bool", HasDefault: true, Default: false},
		},
		NullTolerant: true,
		OutputPorts: []node.Port{
			{Name: "data", Type: "any"},
		},
	}
}

func newPassThrough(id string) (*node.Node, node.Processor) {
	n := node.NewNode("PassThroughNode", id)
	for _, p := range describePassThrough().InputPorts {
		n.AddInputPort(p)
	}
	for _, p := range describePassThrough().OutputPorts {
		n.AddOutputPort(p)
	}
	return n, node.ProcessorFunc(processPassThrough)
}

func processPassThrough(_ context.Context, n *node.Node) (node.Map, error) {
	passOnEmpty, _ := n.InputValues["pass_on_empty"].(bool)
	control, controlPresent := n.InputValues["control"]
	controlIsNull := !controlPresent || control == nil

	if controlIsNull && !passOnEmpty {
		return node.Map{"data": node.Null()}, nil
	}
	return node.Map{"data": node.Some(n.InputValues["data"])}, nil
}
